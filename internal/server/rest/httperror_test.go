package rest

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/expensekeeper/internal/common"
	"github.com/dmitrijs2005/expensekeeper/internal/logging"
	"github.com/stretchr/testify/assert"
)

func TestToHTTPError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"explicit", errBadRequest("nope", nil), http.StatusBadRequest},
		{"malformed identity", common.ErrMalformedIdentity, http.StatusBadRequest},
		{"validation", common.ValidationError(errors.New("name: cannot be blank")), http.StatusBadRequest},
		{"expired", fmt.Errorf("%w: %w", common.ErrorUnauthorized, common.ErrTokenExpired), http.StatusUnauthorized},
		{"unauthorized", common.ErrorUnauthorized, http.StatusUnauthorized},
		{"forbidden", common.ErrorForbidden, http.StatusForbidden},
		{"not found", fmt.Errorf("lookup: %w", common.ErrorNotFound), http.StatusNotFound},
		{"conflict", common.ErrorConflict, http.StatusConflict},
		{"other", errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, toHTTPError(tt.err).Code)
		})
	}
}

func TestMakeHandler_InternalErrorIsGeneric(t *testing.T) {
	s := &HTTPServer{logger: logging.Nop()}
	h := s.makeHandler(func(w http.ResponseWriter, r *http.Request) error {
		return errors.New("pq: connection refused to 10.0.0.1")
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, rec.Body.String())
}

func TestMakeHandler_ErrorAfterWrite(t *testing.T) {
	s := &HTTPServer{logger: logging.Nop()}
	h := s.makeHandler(func(w http.ResponseWriter, r *http.Request) error {
		respondMsg(w, http.StatusAccepted, "partial")
		return errors.New("late failure")
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"msg":"partial"}`, rec.Body.String())
}

func TestWithMessageKey(t *testing.T) {
	s := &HTTPServer{logger: logging.Nop()}

	tests := []struct {
		name string
		err  error
		code int
		body string
	}{
		{"explicit", errBadRequest("Name, email and password required", nil), http.StatusBadRequest, `{"message":"Name, email and password required"}`},
		{"conflict", newHTTPError(http.StatusConflict, "User already exists", common.ErrorConflict), http.StatusConflict, `{"message":"User already exists"}`},
		{"sentinel", common.ErrorConflict, http.StatusConflict, `{"message":"Resource already exists"}`},
		{"internal", errors.New("db down"), http.StatusInternalServerError, `{"error":"Internal Server Error"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := s.makeHandler(func(w http.ResponseWriter, r *http.Request) error {
				return withMessageKey(tt.err)
			})
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/signup", nil))

			assert.Equal(t, tt.code, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}

	assert.NoError(t, withMessageKey(nil))
}

func TestWithMessageKey_KeepsInternalCause(t *testing.T) {
	cause := errors.New("db down")
	assert.Same(t, cause, withMessageKey(cause))
}
