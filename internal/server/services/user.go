package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/expensekeeper/internal/common"
	"github.com/dmitrijs2005/expensekeeper/internal/dbx"
	"github.com/dmitrijs2005/expensekeeper/internal/server/auth"
	"github.com/dmitrijs2005/expensekeeper/internal/server/models"
	"github.com/dmitrijs2005/expensekeeper/internal/server/repositories/repomanager"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// LoginResult is what a successful login hands back to the caller.
type LoginResult struct {
	AccessToken string
	User        *models.User
	Role        auth.Role
}

// UserService handles registration, login and account deletion.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      *auth.PasswordHasher
	issuer      *auth.TokenIssuer

	dummyOnce sync.Once
	dummyHash string
}

// NewUserService constructs a UserService over db and the repositories vended by m.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher *auth.PasswordHasher, issuer *auth.TokenIssuer) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		issuer:      issuer,
	}
}

type registerRequest struct {
	Name     string
	Email    string
	Password string
}

func (r registerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, maxNameLen)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, maxEmailLen), is.Email),
		validation.Field(&r.Password, validation.Required, validation.By(maxBytes(maxPasswordBytes))),
	)
}

// Register creates an active user with a hashed password. A taken email is
// common.ErrorConflict, even when two registrations race.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	req := registerRequest{Name: name, Email: normalizeEmail(email), Password: password}
	if err := validationErr(req.Validate()); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var created *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		_, err := repo.GetUserByEmail(ctx, req.Email)
		switch {
		case err == nil:
			return common.ErrorConflict
		case !errors.Is(err, common.ErrorNotFound):
			return err
		}

		created, err = repo.Create(ctx, &models.User{
			Name:         req.Name,
			Email:        req.Email,
			PasswordHash: hash,
			IsActive:     true,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

type loginRequest struct {
	Email    string
	Password string
}

func (r loginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// Login checks credentials and issues an access token. Unknown emails and
// wrong passwords are indistinguishable: both are common.ErrorUnauthorized
// and both pay for one bcrypt comparison.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	req := loginRequest{Email: normalizeEmail(email), Password: password}
	if err := validationErr(req.Validate()); err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_ = s.hasher.Compare(s.dummy(), req.Password)
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, err
	}

	if !user.IsActive {
		return nil, common.ErrorUnauthorized
	}

	token, err := s.issuer.Issue(auth.Identity{Role: auth.RoleUser, SubjectID: user.ID})
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &LoginResult{AccessToken: token, User: user, Role: auth.RoleUser}, nil
}

// DeleteAccount removes the user and every expense they own in one
// transaction. Only the account owner may do this.
func (s *UserService) DeleteAccount(ctx context.Context, caller auth.Identity, userID int64) error {
	if caller.Role != auth.RoleUser || caller.SubjectID != userID {
		return common.ErrorForbidden
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)

		if _, err := users.GetUserByID(ctx, userID); err != nil {
			return err
		}

		if _, err := s.repomanager.Expenses(tx).DeleteByUser(ctx, userID); err != nil {
			return fmt.Errorf("delete expenses: %w", err)
		}

		return users.Delete(ctx, userID)
	})
}

// dummy returns a hash of a throwaway password at the configured cost, used
// to keep the unknown-email path as slow as a real comparison.
func (s *UserService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("expensekeeper-dummy-password")
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}
