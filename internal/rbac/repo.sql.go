package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/permradar/permradar/internal/shared"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx so the same queries run
// standalone or inside a mutation transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries provides PostgreSQL access to the RBAC graph relations.
type Queries struct {
	db DBTX
}

// New constructs Queries over the given connection or transaction.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// ResolvePermission returns the permission with the given name.
func (q *Queries) ResolvePermission(ctx context.Context, name string) (Permission, error) {
	var perm Permission
	err := q.db.QueryRow(ctx, `SELECT id, name FROM permissions WHERE name = $1`, name).Scan(&perm.ID, &perm.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Permission{}, fmt.Errorf("%w: permission %q", shared.ErrNotFound, name)
		}
		return Permission{}, err
	}
	return perm, nil
}

// ResolveRole returns the role with the given name.
func (q *Queries) ResolveRole(ctx context.Context, name string) (Role, error) {
	var role Role
	err := q.db.QueryRow(ctx, `SELECT id, name FROM roles WHERE name = $1`, name).Scan(&role.ID, &role.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, fmt.Errorf("%w: role %q", shared.ErrNotFound, name)
		}
		return Role{}, err
	}
	return role, nil
}

// ImpactedUsersByPermissionName joins users through their role to the given
// permission name. Unknown names yield an empty set, not an error.
func (q *Queries) ImpactedUsersByPermissionName(ctx context.Context, name string) ([]ImpactedUser, error) {
	rows, err := q.db.Query(ctx, `
		SELECT u.id, u.name, r.name
		FROM users u
		JOIN user_roles ur ON ur.user_id = u.id
		JOIN roles r ON r.id = ur.role_id
		JOIN role_permissions rp ON rp.role_id = r.id
		JOIN permissions p ON p.id = rp.permission_id
		WHERE p.name = $1
		ORDER BY u.id`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanImpactedUsers(rows)
}

// ImpactedUsersByPermissionID is the same join keyed by permission id, used
// to snapshot the impact set inside a removal transaction.
func (q *Queries) ImpactedUsersByPermissionID(ctx context.Context, permissionID int64) ([]ImpactedUser, error) {
	rows, err := q.db.Query(ctx, `
		SELECT u.id, u.name, r.name
		FROM users u
		JOIN user_roles ur ON ur.user_id = u.id
		JOIN roles r ON r.id = ur.role_id
		JOIN role_permissions rp ON rp.role_id = r.id
		WHERE rp.permission_id = $1
		ORDER BY u.id`, permissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanImpactedUsers(rows)
}

// DeletePermissionAssignments removes every role→permission edge for the
// permission, returning the number of edges dropped.
func (q *Queries) DeletePermissionAssignments(ctx context.Context, permissionID int64) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM role_permissions WHERE permission_id = $1`, permissionID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// AttachPermissionToRoles re-inserts the permission edge for every named role
// in one set-based statement. Existing edges are skipped, which makes a
// repeated restore a no-op.
func (q *Queries) AttachPermissionToRoles(ctx context.Context, permissionID int64, roleNames []string) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO role_permissions (role_id, permission_id)
		SELECT r.id, $1 FROM roles r WHERE r.name = ANY($2)
		ON CONFLICT DO NOTHING`, permissionID, roleNames)
	return err
}

// GetUser returns the profile identified by id.
func (q *Queries) GetUser(ctx context.Context, userID int64) (id int64, name string, err error) {
	err = q.db.QueryRow(ctx, `SELECT id, name FROM users WHERE id = $1`, userID).Scan(&id, &name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, "", fmt.Errorf("%w: user %d", shared.ErrNotFound, userID)
		}
		return 0, "", err
	}
	return id, name, nil
}

// CurrentRoleName returns the user's assigned role name, or "" when the user
// has no assignment yet.
func (q *Queries) CurrentRoleName(ctx context.Context, userID int64) (string, error) {
	var name string
	err := q.db.QueryRow(ctx, `
		SELECT r.name
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = $1`, userID).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return name, nil
}

// SetUserRole points the user's single role assignment at roleID, creating
// the row when absent.
func (q *Queries) SetUserRole(ctx context.Context, userID, roleID int64) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET role_id = EXCLUDED.role_id`, userID, roleID)
	return err
}

// GraphUsers returns every user with their assigned role.
func (q *Queries) GraphUsers(ctx context.Context) ([]GraphUser, error) {
	rows, err := q.db.Query(ctx, `
		SELECT u.id, u.name, r.name
		FROM users u
		JOIN user_roles ur ON ur.user_id = u.id
		JOIN roles r ON r.id = ur.role_id
		ORDER BY u.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []GraphUser{}
	for rows.Next() {
		var u GraphUser
		if err := rows.Scan(&u.ID, &u.Name, &u.Role); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// RoleGrants returns every role→permission edge.
func (q *Queries) RoleGrants(ctx context.Context) ([]RoleGrant, error) {
	rows, err := q.db.Query(ctx, `
		SELECT r.name, p.name
		FROM roles r
		JOIN role_permissions rp ON rp.role_id = r.id
		JOIN permissions p ON p.id = rp.permission_id
		ORDER BY r.name, p.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	grants := []RoleGrant{}
	for rows.Next() {
		var g RoleGrant
		if err := rows.Scan(&g.Role, &g.Permission); err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

func scanImpactedUsers(rows pgx.Rows) ([]ImpactedUser, error) {
	impacted := []ImpactedUser{}
	for rows.Next() {
		var u ImpactedUser
		if err := rows.Scan(&u.UserID, &u.UserName, &u.Role); err != nil {
			return nil, err
		}
		impacted = append(impacted, u)
	}
	return impacted, rows.Err()
}
