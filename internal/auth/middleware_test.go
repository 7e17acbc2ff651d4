package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permradar/permradar/internal/shared"
)

func protectedHandler(t *testing.T, sawIdentity *shared.Identity) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := shared.IdentityFromContext(r.Context())
		require.True(t, ok)
		*sawIdentity = identity
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticatorAttachesIdentity(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	raw, err := tm.Issue(&User{ID: 9, Email: "alice@permradar.local", AuthRole: "admin"})
	require.NoError(t, err)

	var identity shared.Identity
	handler := Authenticator(tm)(protectedHandler(t, &identity))

	req := httptest.NewRequest(http.MethodGet, "/audit-logs", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(9), identity.ID)
}

func TestAuthenticatorRejectsMissingHeader(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	handler := Authenticator(tm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/audit-logs", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticatorRejectsGarbageToken(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	handler := Authenticator(tm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/audit-logs", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdminForbidsViewers(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	raw, err := tm.Issue(&User{ID: 3, Email: "bob@permradar.local", AuthRole: "viewer"})
	require.NoError(t, err)

	handler := Authenticator(tm)(RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})))

	req := httptest.NewRequest(http.MethodPost, "/permissions/remove", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAdminAllowsAdmins(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	raw, err := tm.Issue(&User{ID: 1, Email: "alice@permradar.local", AuthRole: "admin"})
	require.NoError(t, err)

	called := false
	handler := Authenticator(tm)(RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodPost, "/permissions/remove", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}
