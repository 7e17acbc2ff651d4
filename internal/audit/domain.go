package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/permradar/permradar/internal/rbac"
)

// Action identifies what a trail entry records. The set is closed: decoding
// dispatches on it exhaustively.
type Action string

const (
	ActionPermissionRemoved  Action = "permission_removed"
	ActionPermissionRestored Action = "permission_restored"
	ActionUserRoleChanged    Action = "user_role_changed"
	ActionUserRoleRestored   Action = "user_role_restored"
	ActionUserCreated        Action = "user_created"
	ActionUserDeleted        Action = "user_deleted"
)

// Details is the per-action payload of a trail entry. For reversible actions
// it is the only durable snapshot of what existed before the mutation.
type Details interface {
	Action() Action
}

// PermissionRemovedDetails snapshots the impact set captured immediately
// before the permission's edges were deleted. Restore replays this snapshot,
// never a re-query of current state.
type PermissionRemovedDetails struct {
	ImpactedUsers []rbac.ImpactedUser `json:"impactedUsers"`
}

// Action implements Details.
func (PermissionRemovedDetails) Action() Action { return ActionPermissionRemoved }

// PermissionRestoredDetails links a restore back to the removal it replayed.
type PermissionRestoredDetails struct {
	RestoredFromAudit int64 `json:"restoredFromAudit"`
}

// Action implements Details.
func (PermissionRestoredDetails) Action() Action { return ActionPermissionRestored }

// UserRoleChangedDetails captures the role a user held before the change.
type UserRoleChangedDetails struct {
	UserID       int64  `json:"userId"`
	UserName     string `json:"userName"`
	PreviousRole string `json:"previousRole"`
}

// Action implements Details.
func (UserRoleChangedDetails) Action() Action { return ActionUserRoleChanged }

// UserRoleRestoredDetails records that a user's role was reverted.
type UserRoleRestoredDetails struct {
	UserID   int64  `json:"userId"`
	UserName string `json:"userName"`
}

// Action implements Details.
func (UserRoleRestoredDetails) Action() Action { return ActionUserRoleRestored }

// UserCreatedDetails records an admin-created account.
type UserCreatedDetails struct {
	UserID   int64  `json:"userId"`
	UserName string `json:"userName"`
}

// Action implements Details.
func (UserCreatedDetails) Action() Action { return ActionUserCreated }

// UserDeletedDetails records an account removal.
type UserDeletedDetails struct {
	UserID int64 `json:"userId"`
}

// Action implements Details.
func (UserDeletedDetails) Action() Action { return ActionUserDeleted }

// Entry is one immutable record of the trail. Permission doubles as a label
// slot: it holds the permission name for permission actions and the role
// name for role actions.
type Entry struct {
	ID         int64     `json:"id"`
	Action     Action    `json:"action"`
	Permission string    `json:"permission,omitempty"`
	Details    Details   `json:"details"`
	Actor      string    `json:"actor"`
	CreatedAt  time.Time `json:"created_at"`
}

// DecodeDetails parses a serialized payload according to its action.
func DecodeDetails(action Action, raw []byte) (Details, error) {
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	var target Details
	switch action {
	case ActionPermissionRemoved:
		var d PermissionRemovedDetails
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, err
		}
		target = d
	case ActionPermissionRestored:
		var d PermissionRestoredDetails
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, err
		}
		target = d
	case ActionUserRoleChanged:
		var d UserRoleChangedDetails
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, err
		}
		target = d
	case ActionUserRoleRestored:
		var d UserRoleRestoredDetails
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, err
		}
		target = d
	case ActionUserCreated:
		var d UserCreatedDetails
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, err
		}
		target = d
	case ActionUserDeleted:
		var d UserDeletedDetails
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, err
		}
		target = d
	default:
		return nil, fmt.Errorf("audit: unknown action %q", action)
	}
	return target, nil
}
