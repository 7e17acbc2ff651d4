package mutation

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/permradar/permradar/internal/platform/httpx"
	"github.com/permradar/permradar/internal/rbac"
	"github.com/permradar/permradar/internal/shared"
)

// Handler serves the admin-only mutation and restore endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers mutation routes. The caller mounts these behind the
// admin middleware.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/permissions/remove", h.removePermission)
	r.Post("/permissions/restore", h.restorePermission)
	r.Post("/users/{id}/role", h.changeUserRole)
	r.Post("/users/role/restore", h.restoreUserRole)
}

type removePermissionRequest struct {
	Permission string `json:"permission" validate:"required"`
}

type removePermissionResponse struct {
	RemovedPermission string              `json:"removedPermission"`
	ImpactedUsers     []rbac.ImpactedUser `json:"impactedUsers"`
	Status            string              `json:"status"`
}

func (h *Handler) removePermission(w http.ResponseWriter, r *http.Request) {
	var req removePermissionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "permission is required")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "permission is required")
		return
	}

	result, err := h.service.RemovePermission(r.Context(), req.Permission, h.actor(r))
	if err != nil {
		h.logger.Error("remove permission failed", slog.Any("error", err), slog.String("permission", req.Permission))
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, removePermissionResponse{
		RemovedPermission: result.RemovedPermission,
		ImpactedUsers:     result.ImpactedUsers,
		Status:            "removed",
	})
}

type restoreRequest struct {
	AuditLogID int64 `json:"auditLogId" validate:"required,gt=0"`
}

type restorePermissionResponse struct {
	RestoredPermission string   `json:"restoredPermission"`
	RestoredRoles      []string `json:"restoredRoles"`
}

func (h *Handler) restorePermission(w http.ResponseWriter, r *http.Request) {
	var req restoreRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "auditLogId is required")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "auditLogId is required")
		return
	}

	result, err := h.service.RestorePermission(r.Context(), req.AuditLogID, h.actor(r))
	if err != nil {
		h.logger.Error("restore permission failed", slog.Any("error", err), slog.Int64("audit_log_id", req.AuditLogID))
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, restorePermissionResponse{
		RestoredPermission: result.RestoredPermission,
		RestoredRoles:      result.RestoredRoles,
	})
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

type changeRoleResponse struct {
	Status  string `json:"status"`
	UserID  int64  `json:"userId"`
	NewRole string `json:"newRole"`
}

func (h *Handler) changeUserRole(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid user id")
		return
	}

	var req changeRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "role is required")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "role is required")
		return
	}

	result, err := h.service.ChangeUserRole(r.Context(), userID, req.Role, h.actor(r))
	if err != nil {
		h.logger.Error("change user role failed", slog.Any("error", err), slog.Int64("user_id", userID))
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, changeRoleResponse{Status: "ok", UserID: result.UserID, NewRole: result.NewRole})
}

func (h *Handler) restoreUserRole(w http.ResponseWriter, r *http.Request) {
	var req restoreRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "auditLogId is required")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "auditLogId is required")
		return
	}

	if err := h.service.RestoreUserRole(r.Context(), req.AuditLogID, h.actor(r)); err != nil {
		h.logger.Error("restore user role failed", slog.Any("error", err), slog.Int64("audit_log_id", req.AuditLogID))
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]string{"status": "restored"})
}

func (h *Handler) actor(r *http.Request) string {
	identity, _ := shared.IdentityFromContext(r.Context())
	return identity.Email
}
