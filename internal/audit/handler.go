package audit

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/permradar/permradar/internal/platform/httpx"
)

// ListLimit caps how many entries the trail endpoint returns.
const ListLimit = 50

// Handler serves the audit trail endpoint.
type Handler struct {
	logger  *slog.Logger
	queries *Queries
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, queries *Queries) *Handler {
	return &Handler{logger: logger, queries: queries}
}

// MountRoutes registers audit routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/audit-logs", h.list)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	entries, err := h.queries.ListRecent(r.Context(), ListLimit)
	if err != nil {
		h.logger.Error("list audit logs failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}
