// Package users declares the credential store: the server-side repository
// contract for user accounts keyed by a unique email.
package users

import (
	"context"

	"github.com/dmitrijs2005/expensekeeper/internal/server/models"
)

// Repository persists user accounts. Lookups return common.ErrorNotFound for
// absent rows; writes that would duplicate an email return common.ErrorConflict.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdateProfile(ctx context.Context, id int64, name, email string) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
	UpdatePicture(ctx context.Context, id int64, picture string) error
	Delete(ctx context.Context, id int64) error
}
