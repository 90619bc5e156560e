package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/summittax/apiserver/types"
)

var testSecret = []byte("test-secret")

func TestIssueAndParseToken(t *testing.T) {
	user := types.User{
		ID:    42,
		Email: "client@example.com",
		Role:  types.RoleMember,
	}

	token, err := IssueToken(user, testSecret, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	identity, err := ParseToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, 42, identity.UserID)
	assert.Equal(t, "client@example.com", identity.Email)
	assert.Equal(t, types.RoleMember, identity.Role)
	assert.False(t, identity.IsAdmin())
}

func TestParseTokenWrongSecret(t *testing.T) {
	user := types.User{ID: 1, Email: "a@b.com", Role: types.RoleAdmin}

	token, err := IssueToken(user, testSecret, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(token, []byte("other-secret"))
	assert.Error(t, err)
}

func TestParseTokenExpired(t *testing.T) {
	user := types.User{ID: 1, Email: "a@b.com", Role: types.RoleMember}

	token, err := IssueToken(user, testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, testSecret)
	assert.Error(t, err)
}

func TestParseTokenAdminRole(t *testing.T) {
	user := types.User{ID: 7, Email: "admin@example.com", Role: types.RoleAdmin}

	token, err := IssueToken(user, testSecret, time.Hour)
	require.NoError(t, err)

	identity, err := ParseToken(token, testSecret)
	require.NoError(t, err)
	assert.True(t, identity.IsAdmin())
}

func TestParseTokenGarbage(t *testing.T) {
	_, err := ParseToken("not-a-token", testSecret)
	assert.Error(t, err)
}
