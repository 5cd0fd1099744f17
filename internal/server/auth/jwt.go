package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/expensekeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer signs and verifies HS256 access tokens. It is built once at
// startup and never mutated, so it is safe for concurrent use.
type TokenIssuer struct {
	secretKey []byte
	validity  time.Duration
	now       func() time.Time
}

func NewTokenIssuer(secretKey []byte, validity time.Duration) *TokenIssuer {
	return &TokenIssuer{secretKey: secretKey, validity: validity, now: time.Now}
}

// Issue returns a signed token whose subject is id.String().
func (i *TokenIssuer) Issue(id Identity) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   id.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.validity)),
	})

	tokenString, err := token.SignedString(i.secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Verify checks signature and expiry and decodes the subject.
//
// Signature, algorithm and format problems wrap common.ErrInvalidToken,
// expiry wraps common.ErrTokenExpired; both also match
// common.ErrorUnauthorized. A valid token with an undecodable subject
// returns common.ErrMalformedIdentity.
func (i *TokenIssuer) Verify(tokenString string) (Identity, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, fmt.Errorf("%w: %w", common.ErrorUnauthorized, common.ErrTokenExpired)
		}
		return Identity{}, fmt.Errorf("%w: %w: %v", common.ErrorUnauthorized, common.ErrInvalidToken, err)
	}

	if !token.Valid {
		return Identity{}, fmt.Errorf("%w: %w", common.ErrorUnauthorized, common.ErrInvalidToken)
	}

	return ParseIdentity(claims.Subject)
}
