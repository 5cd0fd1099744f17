// Package auth issues and verifies access tokens, hashes passwords and
// carries the authenticated identity through request contexts.
package auth

import (
	"context"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/expensekeeper/internal/common"
)

// Role is the kind of principal a token speaks for.
type Role string

// RoleUser is the only role issued today; the token subject format leaves
// room for others.
const RoleUser Role = "user"

// Identity is the typed payload of an access token.
type Identity struct {
	Role      Role
	SubjectID int64
}

// String encodes the identity as "<role>:<id>".
func (i Identity) String() string {
	return string(i.Role) + ":" + strconv.FormatInt(i.SubjectID, 10)
}

// ParseIdentity decodes "<role>:<id>". Anything else, including an empty
// role or a non-integer id, is common.ErrMalformedIdentity.
func ParseIdentity(s string) (Identity, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 || parts[0] == "" {
		return Identity{}, common.ErrMalformedIdentity
	}

	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Identity{}, common.ErrMalformedIdentity
	}

	return Identity{Role: Role(parts[0]), SubjectID: id}, nil
}

type identityKey struct{}

// WithIdentity stores the identity in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext retrieves the identity placed by WithIdentity.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
