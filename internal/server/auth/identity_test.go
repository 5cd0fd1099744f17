package auth

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/expensekeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity_RoundTrip(t *testing.T) {
	id := Identity{Role: RoleUser, SubjectID: 42}
	assert.Equal(t, "user:42", id.String())

	got, err := ParseIdentity(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestParseIdentity(t *testing.T) {
	tests := []struct {
		in      string
		want    Identity
		wantErr bool
	}{
		{in: "user:1", want: Identity{Role: RoleUser, SubjectID: 1}},
		{in: "admin:7", want: Identity{Role: "admin", SubjectID: 7}},
		{in: "user", wantErr: true},
		{in: "user:", wantErr: true},
		{in: ":5", wantErr: true},
		{in: "user:abc", wantErr: true},
		{in: "user:1:2", wantErr: true},
		{in: "user:1.5", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseIdentity(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrMalformedIdentity)
				assert.ErrorIs(t, err, common.ErrorValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIdentityContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithIdentity(context.Background(), Identity{Role: RoleUser, SubjectID: 3})
	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(3), got.SubjectID)
}
