package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/expensekeeper/internal/common"
	"github.com/dmitrijs2005/expensekeeper/internal/dbx"
	"github.com/dmitrijs2005/expensekeeper/internal/server/auth"
	"github.com/dmitrijs2005/expensekeeper/internal/server/models"
	"github.com/dmitrijs2005/expensekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/expensekeeper/internal/server/storage"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// PictureUpload describes a freshly reserved picture slot: the storage key
// now recorded on the profile and a presigned URL to PUT the bytes to.
type PictureUpload struct {
	Key       string
	UploadURL string
}

// ProfileService reads and mutates the authenticated user's own profile.
type ProfileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      *auth.PasswordHasher
	presigner   storage.Presigner
}

func NewProfileService(db *sql.DB, m repomanager.RepositoryManager, hasher *auth.PasswordHasher, p storage.Presigner) *ProfileService {
	return &ProfileService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		presigner:   p,
	}
}

// GetProfile returns the user record or common.ErrorNotFound.
func (s *ProfileService) GetProfile(ctx context.Context, userID int64) (*models.User, error) {
	return s.repomanager.Users(s.db).GetUserByID(ctx, userID)
}

type profileRequest struct {
	Name  string
	Email string
}

func (r profileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, maxNameLen)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, maxEmailLen), is.Email),
	)
}

// UpdateProfile replaces name and email. Moving onto an email owned by a
// different user is common.ErrorConflict and leaves the record untouched;
// keeping one's own email is fine.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID int64, name, email string) (*models.User, error) {
	req := profileRequest{Name: name, Email: normalizeEmail(email)}
	if err := validationErr(req.Validate()); err != nil {
		return nil, err
	}

	var updated *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		owner, err := repo.GetUserByEmail(ctx, req.Email)
		switch {
		case err == nil && owner.ID != userID:
			return common.ErrorConflict
		case err != nil && !errors.Is(err, common.ErrorNotFound):
			return err
		}

		updated, err = repo.UpdateProfile(ctx, userID, req.Name, req.Email)
		return err
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

type passwordRequest struct {
	Current string
	Next    string
}

func (r passwordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Current, validation.Required),
		validation.Field(&r.Next, validation.Required, validation.By(maxBytes(maxPasswordBytes))),
	)
}

// UpdatePassword swaps the password hash after checking the current
// password. A wrong current password is common.ErrorUnauthorized. Tokens
// issued before the change stay valid until they expire.
func (s *ProfileService) UpdatePassword(ctx context.Context, userID int64, current, next string) error {
	req := passwordRequest{Current: current, Next: next}
	if err := validationErr(req.Validate()); err != nil {
		return err
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := repo.GetUserByID(ctx, userID)
		if err != nil {
			return err
		}

		if err := s.hasher.Compare(user.PasswordHash, req.Current); err != nil {
			return err
		}

		hash, err := s.hasher.Hash(req.Next)
		if err != nil {
			if errors.Is(err, common.ErrorValidation) {
				return err
			}
			return fmt.Errorf("hash password: %w", err)
		}

		return repo.UpdatePasswordHash(ctx, userID, hash)
	})
}

// RequestPictureUpload reserves a new storage key for the user's picture,
// records it on the profile and returns a presigned upload URL for it.
func (s *ProfileService) RequestPictureUpload(ctx context.Context, userID int64) (*PictureUpload, error) {
	key := storage.PictureKey(userID)

	url, err := s.presigner.PresignPut(ctx, key)
	if err != nil {
		return nil, err
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Users(tx).UpdatePicture(ctx, userID, key)
	})
	if err != nil {
		return nil, err
	}

	return &PictureUpload{Key: key, UploadURL: url}, nil
}

// PictureURL presigns a download URL for a stored picture key.
func (s *ProfileService) PictureURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", common.ErrorNotFound
	}
	return s.presigner.PresignGet(ctx, key)
}
