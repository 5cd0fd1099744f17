package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/expensekeeper/internal/server/auth"
	"github.com/dmitrijs2005/expensekeeper/internal/server/repositories/memory"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	_ "modernc.org/sqlite"
)

// newTxDB returns an in-memory SQLite handle. Services only use it to begin
// and end transactions; the data lives in the memory repositories.
func newTxDB(t *testing.T) *sql.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type fixture struct {
	db       *sql.DB
	repos    *memory.Manager
	hasher   *auth.PasswordHasher
	issuer   *auth.TokenIssuer
	presign  *fakePresigner
	users    *UserService
	profiles *ProfileService
	expenses *ExpenseService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		db:      newTxDB(t),
		repos:   memory.NewManager(),
		hasher:  auth.NewPasswordHasher(bcrypt.MinCost),
		issuer:  auth.NewTokenIssuer([]byte("test-secret"), time.Hour),
		presign: &fakePresigner{},
	}
	f.users = NewUserService(f.db, f.repos, f.hasher, f.issuer)
	f.profiles = NewProfileService(f.db, f.repos, f.hasher, f.presign)
	f.expenses = NewExpenseService(f.db, f.repos)
	return f
}

type fakePresigner struct {
	putErr error
	getErr error
}

func (p *fakePresigner) PresignPut(_ context.Context, key string) (string, error) {
	if p.putErr != nil {
		return "", p.putErr
	}
	return "https://s3.test/put/" + key, nil
}

func (p *fakePresigner) PresignGet(_ context.Context, key string) (string, error) {
	if p.getErr != nil {
		return "", p.getErr
	}
	return "https://s3.test/get/" + key, nil
}

var errBoom = errors.New("boom")
