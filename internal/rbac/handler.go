package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/permradar/permradar/internal/platform/httpx"
)

// Handler serves the read-only graph endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers graph routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/graph", h.graph)
	r.Get("/impact", h.impact)
}

func (h *Handler) graph(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GraphView(r.Context())
	if err != nil {
		h.logger.Error("load graph failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

type impactResponse struct {
	Permission    string         `json:"permission"`
	ImpactedUsers []ImpactedUser `json:"impactedUsers"`
}

func (h *Handler) impact(w http.ResponseWriter, r *http.Request) {
	permission := r.URL.Query().Get("permission")
	if permission == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "permission is required")
		return
	}

	impacted, err := h.service.ImpactedUsersByPermission(r.Context(), permission)
	if err != nil {
		h.logger.Error("impact analysis failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	httpx.JSON(w, http.StatusOK, impactResponse{Permission: permission, ImpactedUsers: impacted})
}
