package services

import (
	"context"
	"database/sql"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/expensekeeper/internal/server/models"
	"github.com/dmitrijs2005/expensekeeper/internal/server/repositories/repomanager"
	validation "github.com/go-ozzo/ozzo-validation"
)

var currencyCode = regexp.MustCompile(`^[A-Z]{3}$`)

// ExpenseService manages a user's expense records.
type ExpenseService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewExpenseService(db *sql.DB, m repomanager.RepositoryManager) *ExpenseService {
	return &ExpenseService{db: db, repomanager: m}
}

func validateExpense(e *models.Expense) error {
	return validation.ValidateStruct(e,
		validation.Field(&e.Date, validation.Required),
		validation.Field(&e.Category, validation.Required, validation.Length(1, maxCategoryLen)),
		validation.Field(&e.Description, validation.Required, validation.Length(1, maxDescriptionLen)),
		validation.Field(&e.Currency, validation.Required, validation.Match(currencyCode)),
	)
}

// Create stores a new active expense owned by userID. Any owner or id set
// by the caller is overwritten.
func (s *ExpenseService) Create(ctx context.Context, userID int64, e *models.Expense) (*models.Expense, error) {
	e.Currency = strings.ToUpper(strings.TrimSpace(e.Currency))
	if err := validationErr(validateExpense(e)); err != nil {
		return nil, err
	}

	e.ID = 0
	e.UserID = userID
	e.IsActive = true

	return s.repomanager.Expenses(s.db).Create(ctx, e)
}

// List returns the user's expenses, newest first.
func (s *ExpenseService) List(ctx context.Context, userID int64) ([]*models.Expense, error) {
	return s.repomanager.Expenses(s.db).ListByUser(ctx, userID)
}

// Delete removes one of the user's expenses; common.ErrorNotFound if the
// user has no expense with that id.
func (s *ExpenseService) Delete(ctx context.Context, userID, expenseID int64) error {
	return s.repomanager.Expenses(s.db).Delete(ctx, userID, expenseID)
}
