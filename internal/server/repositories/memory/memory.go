// Package memory is an in-process RepositoryManager backed by maps. It keeps
// the same contracts as the PostgreSQL repositories (not-found and conflict
// sentinels, ordering, per-user scoping) and is used to exercise services
// and the HTTP layer without a database. Transactions are not modelled:
// every write is visible immediately regardless of the DBTX it came from.
package memory

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/expensekeeper/internal/common"
	"github.com/dmitrijs2005/expensekeeper/internal/dbx"
	"github.com/dmitrijs2005/expensekeeper/internal/server/models"
	"github.com/dmitrijs2005/expensekeeper/internal/server/repositories/expenses"
	"github.com/dmitrijs2005/expensekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/expensekeeper/internal/server/repositories/users"
)

var _ repomanager.RepositoryManager = (*Manager)(nil)

type store struct {
	mu            sync.Mutex
	users         map[int64]models.User
	expenses      map[int64]models.Expense
	nextUserID    int64
	nextExpenseID int64
	now           func() time.Time
}

// Manager vends map-backed repositories sharing one store.
type Manager struct {
	s *store
}

func NewManager() *Manager {
	return &Manager{s: &store{
		users:    make(map[int64]models.User),
		expenses: make(map[int64]models.Expense),
		now:      time.Now,
	}}
}

func (m *Manager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *Manager) Users(dbx.DBTX) users.Repository { return &userRepo{s: m.s} }

func (m *Manager) Expenses(dbx.DBTX) expenses.Repository { return &expenseRepo{s: m.s} }

type userRepo struct{ s *store }

func (r *userRepo) emailTaken(email string, except int64) bool {
	for id, u := range r.s.users {
		if id != except && u.Email == email {
			return true
		}
	}
	return false
}

func (r *userRepo) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.emailTaken(user.Email, 0) {
		return nil, common.ErrorConflict
	}

	r.s.nextUserID++
	user.ID = r.s.nextUserID
	user.CreatedAt = r.s.now()
	r.s.users[user.ID] = *user

	return user, nil
}

func (r *userRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *userRepo) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r *userRepo) UpdateProfile(_ context.Context, id int64, name, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if r.emailTaken(email, id) {
		return nil, common.ErrorConflict
	}

	u.Name, u.Email = name, email
	r.s.users[id] = u
	return &u, nil
}

func (r *userRepo) update(id int64, fn func(u *models.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	fn(&u)
	r.s.users[id] = u
	return nil
}

func (r *userRepo) UpdatePasswordHash(_ context.Context, id int64, hash string) error {
	return r.update(id, func(u *models.User) { u.PasswordHash = hash })
}

func (r *userRepo) UpdatePicture(_ context.Context, id int64, picture string) error {
	return r.update(id, func(u *models.User) { u.Picture = &picture })
}

func (r *userRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.users, id)

	// mirrors ON DELETE CASCADE
	for eid, e := range r.s.expenses {
		if e.UserID == id {
			delete(r.s.expenses, eid)
		}
	}
	return nil
}

type expenseRepo struct{ s *store }

func (r *expenseRepo) Create(_ context.Context, e *models.Expense) (*models.Expense, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[e.UserID]; !ok {
		return nil, common.ErrorNotFound
	}

	r.s.nextExpenseID++
	e.ID = r.s.nextExpenseID
	r.s.expenses[e.ID] = *e
	return e, nil
}

func (r *expenseRepo) ListByUser(_ context.Context, userID int64) ([]*models.Expense, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*models.Expense, 0)
	for _, e := range r.s.expenses {
		if e.UserID == userID {
			e := e
			out = append(out, &e)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *expenseRepo) Delete(_ context.Context, userID, expenseID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.expenses[expenseID]
	if !ok || e.UserID != userID {
		return common.ErrorNotFound
	}
	delete(r.s.expenses, expenseID)
	return nil
}

func (r *expenseRepo) DeleteByUser(_ context.Context, userID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, e := range r.s.expenses {
		if e.UserID == userID {
			delete(r.s.expenses, id)
			n++
		}
	}
	return n, nil
}
