package mutation

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permradar/permradar/internal/shared"
)

func newTestRouter(repo *mockRepository) http.Handler {
	handler := NewHandler(slog.Default(), NewService(repo, nil))
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			identity := shared.Identity{ID: 1, Email: "alice@permradar.local", Role: "admin"}
			next.ServeHTTP(w, req.WithContext(shared.ContextWithIdentity(req.Context(), identity)))
		})
	})
	handler.MountRoutes(r)
	return r
}

func TestRemovePermissionEndpoint(t *testing.T) {
	repo := newMockRepository()
	seedScenario(repo)
	router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodPost, "/permissions/remove", strings.NewReader(`{"permission":"write"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body removePermissionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "removed", body.Status)
	assert.Equal(t, "write", body.RemovedPermission)
	require.Len(t, body.ImpactedUsers, 1)
	assert.Equal(t, "Alice", body.ImpactedUsers[0].UserName)
}

func TestRemovePermissionEndpointMissingBody(t *testing.T) {
	repo := newMockRepository()
	seedScenario(repo)
	router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodPost, "/permissions/remove", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRemovePermissionEndpointUnknownPermission(t *testing.T) {
	repo := newMockRepository()
	seedScenario(repo)
	router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodPost, "/permissions/remove", strings.NewReader(`{"permission":"nonexistent"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRestorePermissionEndpointWrongAction(t *testing.T) {
	repo := newMockRepository()
	seedScenario(repo)
	router := newTestRouter(repo)

	// Produce a role-change entry, then try to restore it as a permission.
	req := httptest.NewRequest(http.MethodPost, "/users/2/role", strings.NewReader(`{"role":"admin"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/permissions/restore", strings.NewReader(`{"auditLogId":1}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChangeUserRoleEndpoint(t *testing.T) {
	repo := newMockRepository()
	seedScenario(repo)
	router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodPost, "/users/2/role", strings.NewReader(`{"role":"admin"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body changeRoleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, int64(2), body.UserID)
	assert.Equal(t, "admin", body.NewRole)
}

func TestChangeUserRoleEndpointBadID(t *testing.T) {
	repo := newMockRepository()
	seedScenario(repo)
	router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodPost, "/users/abc/role", strings.NewReader(`{"role":"admin"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRestoreUserRoleEndpoint(t *testing.T) {
	repo := newMockRepository()
	seedScenario(repo)
	router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodPost, "/users/2/role", strings.NewReader(`{"role":"admin"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/users/role/restore", strings.NewReader(`{"auditLogId":1}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"restored"}`, rec.Body.String())
	assert.Equal(t, repo.roles["viewer"], repo.userRoles[2])
}
