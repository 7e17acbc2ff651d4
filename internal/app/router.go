package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/permradar/permradar/internal/audit"
	"github.com/permradar/permradar/internal/auth"
	"github.com/permradar/permradar/internal/mutation"
	"github.com/permradar/permradar/internal/rbac"
	"github.com/permradar/permradar/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Config          *Config
	TokenManager    *auth.TokenManager
	AuthHandler     *auth.Handler
	GraphHandler    *rbac.Handler
	MutationHandler *mutation.Handler
	AuditHandler    *audit.Handler
	UsersHandler    *users.Handler
}

// NewRouter constructs the chi.Router.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{Config: params.Config}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	// The graph view and impact query are read-only and tolerate anonymous
	// callers; everything that mutates sits behind authentication plus the
	// admin gate.
	params.GraphHandler.MountRoutes(r)

	r.Group(func(r chi.Router) {
		r.Use(auth.Authenticator(params.TokenManager))
		r.Use(auth.RequireAdmin)
		params.MutationHandler.MountRoutes(r)
		params.AuditHandler.MountRoutes(r)
		params.UsersHandler.MountRoutes(r)
	})

	return r
}
