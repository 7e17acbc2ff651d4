package mutation

import (
	"context"
	"fmt"
	"strings"

	"github.com/permradar/permradar/internal/audit"
	"github.com/permradar/permradar/internal/rbac"
	"github.com/permradar/permradar/internal/shared"
)

// GraphInvalidator drops any cached graph view after a committed mutation.
type GraphInvalidator interface {
	InvalidateGraph(ctx context.Context)
}

// Service applies reversible structural changes to the RBAC graph and
// records them on the audit trail. Every operation is one transaction:
// snapshot, mutation and trail append become visible together.
type Service struct {
	repo        Repository
	invalidator GraphInvalidator
}

// NewService constructs a Service. invalidator may be nil.
func NewService(repo Repository, invalidator GraphInvalidator) *Service {
	return &Service{repo: repo, invalidator: invalidator}
}

// RemovalResult reports a committed permission removal.
type RemovalResult struct {
	RemovedPermission string
	ImpactedUsers     []rbac.ImpactedUser
	AuditLogID        int64
}

// RemovePermission strips the permission from every role that holds it. The
// impact set is snapshotted before the delete and stored inside the trail
// entry; a later restore replays that snapshot, not current state.
func (s *Service) RemovePermission(ctx context.Context, permission, actor string) (RemovalResult, error) {
	permission = strings.TrimSpace(permission)
	if permission == "" {
		return RemovalResult{}, fmt.Errorf("%w: permission is required", shared.ErrValidation)
	}

	var result RemovalResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		perm, err := tx.ResolvePermission(ctx, permission)
		if err != nil {
			return err
		}

		impacted, err := tx.ImpactedUsersByPermissionID(ctx, perm.ID)
		if err != nil {
			return err
		}

		if _, err := tx.DeletePermissionAssignments(ctx, perm.ID); err != nil {
			return err
		}

		auditID, err := tx.AppendAudit(ctx, audit.ActionPermissionRemoved, perm.Name,
			audit.PermissionRemovedDetails{ImpactedUsers: impacted}, actor)
		if err != nil {
			return err
		}

		result = RemovalResult{RemovedPermission: perm.Name, ImpactedUsers: impacted, AuditLogID: auditID}
		return nil
	})
	if err != nil {
		return RemovalResult{}, err
	}

	s.invalidate(ctx)
	return result, nil
}

// RestoreResult reports a committed permission restore.
type RestoreResult struct {
	RestoredPermission string
	RestoredRoles      []string
}

// RestorePermission re-attaches a removed permission to the distinct set of
// roles captured in the referenced removal entry. Restoring the same entry
// twice is a no-op the second time.
func (s *Service) RestorePermission(ctx context.Context, auditLogID int64, actor string) (RestoreResult, error) {
	if auditLogID <= 0 {
		return RestoreResult{}, fmt.Errorf("%w: auditLogId is required", shared.ErrValidation)
	}

	var result RestoreResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		entry, err := tx.GetAudit(ctx, auditLogID)
		if err != nil {
			return err
		}
		if entry.Action != audit.ActionPermissionRemoved {
			return fmt.Errorf("%w: audit entry %d is not a permission removal", shared.ErrInvalidOperation, auditLogID)
		}

		details, ok := entry.Details.(audit.PermissionRemovedDetails)
		if !ok || len(details.ImpactedUsers) == 0 {
			return fmt.Errorf("%w: no impacted roles recorded for audit entry %d", shared.ErrInvalidOperation, auditLogID)
		}

		perm, err := tx.ResolvePermission(ctx, entry.Permission)
		if err != nil {
			return err
		}

		roles := distinctRoles(details.ImpactedUsers)
		if err := tx.AttachPermissionToRoles(ctx, perm.ID, roles); err != nil {
			return err
		}

		_, err = tx.AppendAudit(ctx, audit.ActionPermissionRestored, perm.Name,
			audit.PermissionRestoredDetails{RestoredFromAudit: auditLogID}, actor)
		if err != nil {
			return err
		}

		result = RestoreResult{RestoredPermission: perm.Name, RestoredRoles: roles}
		return nil
	})
	if err != nil {
		return RestoreResult{}, err
	}

	s.invalidate(ctx)
	return result, nil
}

// RoleChangeResult reports a committed role change.
type RoleChangeResult struct {
	UserID     int64
	NewRole    string
	AuditLogID int64
}

// ChangeUserRole points the user's single role assignment at a new role,
// recording the role held beforehand. The user existence check runs before
// the current-role read so a missing user fails NotFound, never a blank
// previous role.
func (s *Service) ChangeUserRole(ctx context.Context, userID int64, role, actor string) (RoleChangeResult, error) {
	role = strings.TrimSpace(role)
	if role == "" {
		return RoleChangeResult{}, fmt.Errorf("%w: role is required", shared.ErrValidation)
	}

	var result RoleChangeResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		_, userName, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}

		previousRole, err := tx.CurrentRoleName(ctx, userID)
		if err != nil {
			return err
		}

		newRole, err := tx.ResolveRole(ctx, role)
		if err != nil {
			return err
		}

		if err := tx.SetUserRole(ctx, userID, newRole.ID); err != nil {
			return err
		}

		auditID, err := tx.AppendAudit(ctx, audit.ActionUserRoleChanged, newRole.Name,
			audit.UserRoleChangedDetails{UserID: userID, UserName: userName, PreviousRole: previousRole}, actor)
		if err != nil {
			return err
		}

		result = RoleChangeResult{UserID: userID, NewRole: newRole.Name, AuditLogID: auditID}
		return nil
	})
	if err != nil {
		return RoleChangeResult{}, err
	}

	s.invalidate(ctx)
	return result, nil
}

// RestoreUserRole reverts a user to the role captured in the referenced
// role-change entry. The revert is keyed to that entry alone, regardless of
// any role changes made since.
func (s *Service) RestoreUserRole(ctx context.Context, auditLogID int64, actor string) error {
	if auditLogID <= 0 {
		return fmt.Errorf("%w: auditLogId is required", shared.ErrValidation)
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		entry, err := tx.GetAudit(ctx, auditLogID)
		if err != nil {
			return err
		}
		if entry.Action != audit.ActionUserRoleChanged {
			return fmt.Errorf("%w: audit entry %d is not a role change", shared.ErrInvalidOperation, auditLogID)
		}

		details, ok := entry.Details.(audit.UserRoleChangedDetails)
		if !ok || details.PreviousRole == "" {
			return fmt.Errorf("%w: no previous role recorded for audit entry %d", shared.ErrInvalidOperation, auditLogID)
		}

		previous, err := tx.ResolveRole(ctx, details.PreviousRole)
		if err != nil {
			return err
		}

		if err := tx.SetUserRole(ctx, details.UserID, previous.ID); err != nil {
			return err
		}

		_, err = tx.AppendAudit(ctx, audit.ActionUserRoleRestored, previous.Name,
			audit.UserRoleRestoredDetails{UserID: details.UserID, UserName: details.UserName}, actor)
		return err
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx)
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.invalidator != nil {
		s.invalidator.InvalidateGraph(ctx)
	}
}

// distinctRoles collapses the snapshot to unique role names, preserving
// first-appearance order. Multiple users sharing a role become one edge.
func distinctRoles(impacted []rbac.ImpactedUser) []string {
	seen := make(map[string]struct{}, len(impacted))
	roles := make([]string, 0, len(impacted))
	for _, user := range impacted {
		if _, ok := seen[user.Role]; ok {
			continue
		}
		seen[user.Role] = struct{}{}
		roles = append(roles, user.Role)
	}
	return roles
}
