package rest

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/expensekeeper/internal/logging"
	"github.com/dmitrijs2005/expensekeeper/internal/server/auth"
	"github.com/dmitrijs2005/expensekeeper/internal/server/repositories/memory"
	"github.com/dmitrijs2005/expensekeeper/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	_ "modernc.org/sqlite"
)

const testSecret = "rest-test-secret"

type fakePresigner struct{}

func (fakePresigner) PresignPut(_ context.Context, key string) (string, error) {
	return "https://s3.test/put/" + key, nil
}

func (fakePresigner) PresignGet(_ context.Context, key string) (string, error) {
	return "https://s3.test/get/" + key, nil
}

func newTxDB(t *testing.T) *sql.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// newTestServer wires real services over in-memory repositories.
func newTestServer(t *testing.T) (*HTTPServer, *auth.TokenIssuer) {
	t.Helper()
	db := newTxDB(t)
	repos := memory.NewManager()
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	issuer := auth.NewTokenIssuer([]byte(testSecret), time.Hour)

	s := NewHTTPServer(
		Options{AllowedOrigins: []string{"https://app.example.com"}, RequestTimeout: 5 * time.Second},
		logging.Nop(),
		issuer,
		services.NewUserService(db, repos, hasher, issuer),
		services.NewProfileService(db, repos, hasher, fakePresigner{}),
		services.NewExpenseService(db, repos),
	)
	return s, issuer
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func signupAndLogin(t *testing.T, h http.Handler, name, email, password string) (string, int64) {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/signup", "", map[string]string{"name": name, "email": email, "password": password})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/token", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tok := decode[tokenResponse](t, rec)
	return tok.AccessToken, tok.User.ID
}

func TestHello(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	for _, m := range []string{http.MethodGet, http.MethodPost} {
		rec := do(t, h, m, "/hello", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, helloMessage, decode[map[string]string](t, rec)["message"])
	}
}

func TestEndToEndFlow(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	// signup
	rec := do(t, h, http.MethodPost, "/signup", "", map[string]string{"name": "Ana", "email": "ana@x.com", "password": "pw123"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "User registered successfully, You may Login.", decode[map[string]string](t, rec)["message"])

	// duplicate signup
	rec = do(t, h, http.MethodPost, "/signup", "", map[string]string{"name": "Ana", "email": "ana@x.com", "password": "pw123"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"message":"User already exists"}`, rec.Body.String())

	// token
	rec = do(t, h, http.MethodPost, "/token", "", map[string]string{"email": "ana@x.com", "password": "pw123"})
	require.Equal(t, http.StatusOK, rec.Code)
	tok := decode[tokenResponse](t, rec)
	assert.NotEmpty(t, tok.AccessToken)
	assert.Equal(t, auth.RoleUser, tok.Role)
	assert.Equal(t, "ana@x.com", tok.User.Email)
	assert.Equal(t, "Ana", tok.User.Name)
	id := tok.User.ID

	// profile
	rec = do(t, h, http.MethodGet, "/profile", tok.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	prof := decode[map[string]any](t, rec)
	assert.Equal(t, "Ana", prof["name"])
	assert.Equal(t, "ana@x.com", prof["email"])
	assert.Equal(t, "user", prof["role"])
	assert.Equal(t, true, prof["is_active"])
	assert.NotContains(t, prof, "password_hash")
	assert.NotContains(t, prof, "PasswordHash")

	// update profile
	rec = do(t, h, http.MethodPut, "/profile", tok.AccessToken, map[string]string{"name": "Ana B", "email": "ana@x.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ana B", decode[map[string]any](t, rec)["name"])

	// wrong current password
	rec = do(t, h, http.MethodPut, "/profile/password", tok.AccessToken, map[string]string{"current_password": "bad", "new_password": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Current password is incorrect", decode[map[string]string](t, rec)["msg"])

	// password unchanged
	rec = do(t, h, http.MethodPost, "/token", "", map[string]string{"email": "ana@x.com", "password": "pw123"})
	require.Equal(t, http.StatusOK, rec.Code)

	// delete
	rec = do(t, h, http.MethodDelete, fmt.Sprintf("/user/%d", id), tok.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user has been deleted", decode[string](t, rec))

	// login after delete
	rec = do(t, h, http.MethodPost, "/token", "", map[string]string{"email": "ana@x.com", "password": "pw123"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bad credentials", decode[map[string]string](t, rec)["msg"])

	// token still verifies but the account is gone
	rec = do(t, h, http.MethodGet, "/profile", tok.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestToken_Errors(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()
	signupAndLogin(t, h, "A", "a@x.io", "pw1")

	rec := do(t, h, http.MethodPost, "/token", "", map[string]string{"email": "a@x.io"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing email or password", decode[map[string]string](t, rec)["msg"])

	rec = do(t, h, http.MethodPost, "/token", "", map[string]string{"email": "a@x.io", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodPost, "/token", "", map[string]string{"email": "ghost@x.io", "password": "pw1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSignup_Validation(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/signup", "", map[string]string{"name": "A", "email": "a@x.io"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Name, email and password required"}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/signup", "", map[string]string{"name": "A", "email": "nope", "password": "pw"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.NotEmpty(t, body["message"])
	assert.NotContains(t, body, "msg")

	// 80 bytes in 40 runes
	rec = do(t, h, http.MethodPost, "/signup", "", map[string]string{"name": "A", "email": "a@x.io", "password": strings.Repeat("é", 40)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotContains(t, decode[map[string]string](t, rec)["message"], "hash")

	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decode[map[string]string](t, rr), "message")
}

func TestUpdateProfile_EmailInUse(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()
	tokA, _ := signupAndLogin(t, h, "A", "a@x.io", "pw1")
	signupAndLogin(t, h, "B", "b@x.io", "pw2")

	rec := do(t, h, http.MethodPut, "/profile", tokA, map[string]string{"name": "A", "email": "b@x.io"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email is already in use", decode[map[string]string](t, rec)["msg"])

	rec = do(t, h, http.MethodPut, "/profile", tokA, map[string]string{"name": "A2", "email": "a@x.io"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPut, "/profile", tokA, map[string]string{"name": "A2"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Name and email are required", decode[map[string]string](t, rec)["msg"])
}

func TestUpdatePassword(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()
	tok, _ := signupAndLogin(t, h, "A", "a@x.io", "pw1")

	rec := do(t, h, http.MethodPut, "/profile/password", tok, map[string]string{"current_password": "pw1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Current and new password required", decode[map[string]string](t, rec)["msg"])

	rec = do(t, h, http.MethodPut, "/profile/password", tok, map[string]string{"current_password": "pw1", "new_password": "pw2"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Password updated successfully", decode[map[string]string](t, rec)["msg"])

	// old token keeps working
	rec = do(t, h, http.MethodGet, "/profile", tok, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/token", "", map[string]string{"email": "a@x.io", "password": "pw2"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPicture(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()
	tok, id := signupAndLogin(t, h, "A", "a@x.io", "pw1")

	rec := do(t, h, http.MethodPost, "/profile/picture", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	pic := decode[pictureResponse](t, rec)
	assert.True(t, strings.HasPrefix(pic.Picture, fmt.Sprintf("users/%d/pictures/", id)))
	assert.Equal(t, "https://s3.test/put/"+pic.Picture, pic.UploadURL)

	rec = do(t, h, http.MethodGet, "/profile", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	prof := decode[map[string]any](t, rec)
	assert.Equal(t, pic.Picture, prof["picture"])
	assert.Equal(t, "https://s3.test/get/"+pic.Picture, prof["picture_url"])
}

func TestDeleteUser_Authorization(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()
	tokA, idA := signupAndLogin(t, h, "A", "a@x.io", "pw1")
	tokB, _ := signupAndLogin(t, h, "B", "b@x.io", "pw2")

	rec := do(t, h, http.MethodDelete, fmt.Sprintf("/user/%d", idA), "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodDelete, fmt.Sprintf("/user/%d", idA), tokB, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, http.MethodDelete, "/user/abc", tokA, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/profile", tokA, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestExpenses(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()
	tokA, _ := signupAndLogin(t, h, "A", "a@x.io", "pw1")
	tokB, _ := signupAndLogin(t, h, "B", "b@x.io", "pw2")

	rec := do(t, h, http.MethodGet, "/expenses", tokA, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	body := map[string]any{
		"transaction_date":        "2024-05-01T00:00:00Z",
		"transaction_category":    "food",
		"transaction_description": "lunch",
		"transaction_currency":    "usd",
		"transaction_amount":      12.5,
	}
	rec = do(t, h, http.MethodPost, "/expenses", tokA, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[map[string]any](t, rec)
	assert.Equal(t, "USD", created["transaction_currency"])
	expenseID := int64(created["id"].(float64))

	rec = do(t, h, http.MethodPost, "/expenses", tokA, map[string]any{"transaction_category": "food"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/expenses", tokA, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)

	rec = do(t, h, http.MethodDelete, fmt.Sprintf("/expenses/%d", expenseID), tokB, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodDelete, "/expenses/xyz", tokA, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodDelete, fmt.Sprintf("/expenses/%d", expenseID), tokA, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	req := httptest.NewRequest(http.MethodOptions, "/profile", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/profile", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRun_StopsOnCancel(t *testing.T) {
	s, _ := newTestServer(t)
	s.opts.Address = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRun_ListenError(t *testing.T) {
	s, _ := newTestServer(t)
	s.opts.Address = "not-an-address"

	err := s.Run(context.Background())
	assert.Error(t, err)
}
