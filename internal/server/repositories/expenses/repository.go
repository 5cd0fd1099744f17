// Package expenses declares the server-side repository contract for expense
// records owned by users.
package expenses

import (
	"context"

	"github.com/dmitrijs2005/expensekeeper/internal/server/models"
)

// Repository defines persistence operations for expenses. Every call is
// scoped to the owning user id.
type Repository interface {
	// Create stores e and fills in its generated id.
	Create(ctx context.Context, e *models.Expense) (*models.Expense, error)

	// ListByUser returns the user's expenses, newest transaction first.
	ListByUser(ctx context.Context, userID int64) ([]*models.Expense, error)

	// Delete removes one expense of the user; common.ErrorNotFound if the
	// expense does not exist or belongs to someone else.
	Delete(ctx context.Context, userID, expenseID int64) error

	// DeleteByUser removes all expenses of the user and reports how many went.
	DeleteByUser(ctx context.Context, userID int64) (int64, error)
}
