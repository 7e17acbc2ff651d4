package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permradar/permradar/internal/shared"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	user := &User{ID: 7, Email: "alice@permradar.local", AuthRole: "admin"}

	raw, err := tm.Issue(user)
	require.NoError(t, err)

	identity, err := tm.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(7), identity.ID)
	assert.Equal(t, "alice@permradar.local", identity.Email)
	assert.Equal(t, "admin", identity.Role)
	assert.True(t, identity.IsAdmin())
}

func TestTokenRejectedWithWrongSecret(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	raw, err := tm.Issue(&User{ID: 1, Email: "bob@permradar.local", AuthRole: "viewer"})
	require.NoError(t, err)

	other := NewTokenManager("different-secret", time.Hour)
	_, err = other.Verify(raw)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestExpiredTokenRejected(t *testing.T) {
	tm := NewTokenManager("test-secret", -time.Minute)
	raw, err := tm.Issue(&User{ID: 1, Email: "bob@permradar.local", AuthRole: "viewer"})
	require.NoError(t, err)

	_, err = tm.Verify(raw)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestViewerIsNotAdmin(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	raw, err := tm.Issue(&User{ID: 2, Email: "bob@permradar.local", AuthRole: "viewer"})
	require.NoError(t, err)

	identity, err := tm.Verify(raw)
	require.NoError(t, err)
	assert.False(t, identity.IsAdmin())
}
