package auth

import (
	"errors"

	"github.com/dmitrijs2005/expensekeeper/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes passwords with bcrypt. Each hash embeds its own
// random salt, so equal passwords never share a hash.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher returns a hasher using cost, clamped to bcrypt's range.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash returns the bcrypt hash of password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", common.ValidationError(errors.New("password: cannot be blank"))
	}

	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", common.ValidationError(err)
		}
		return "", err
	}
	return string(b), nil
}

// Compare checks password against hash in constant time. A mismatch is
// common.ErrorUnauthorized; a corrupt hash is returned as is.
func (h *PasswordHasher) Compare(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return common.ErrorUnauthorized
		}
		return err
	}
	return nil
}
