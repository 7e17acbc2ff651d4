package mutation

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/permradar/permradar/internal/audit"
	platformdb "github.com/permradar/permradar/internal/platform/db"
	"github.com/permradar/permradar/internal/rbac"
)

// TxRepository exposes every graph and trail operation a mutation needs,
// bound to one transaction. Nothing outside this interface may write the
// graph tables.
type TxRepository interface {
	ResolvePermission(ctx context.Context, name string) (rbac.Permission, error)
	ResolveRole(ctx context.Context, name string) (rbac.Role, error)
	ImpactedUsersByPermissionID(ctx context.Context, permissionID int64) ([]rbac.ImpactedUser, error)
	DeletePermissionAssignments(ctx context.Context, permissionID int64) (int64, error)
	AttachPermissionToRoles(ctx context.Context, permissionID int64, roleNames []string) error
	GetUser(ctx context.Context, userID int64) (int64, string, error)
	CurrentRoleName(ctx context.Context, userID int64) (string, error)
	SetUserRole(ctx context.Context, userID, roleID int64) error

	AppendAudit(ctx context.Context, action audit.Action, permission string, details audit.Details, actor string) (int64, error)
	GetAudit(ctx context.Context, id int64) (audit.Entry, error)
}

// Repository runs a mutation as one atomic unit: snapshot, graph change and
// trail append commit together or not at all.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// PgRepository is the PostgreSQL implementation of Repository.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PgRepository.
func NewRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// WithTx implements Repository.
func (r *PgRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return platformdb.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &pgTxRepository{graph: rbac.New(tx), trail: audit.New(tx)})
	})
}

type pgTxRepository struct {
	graph *rbac.Queries
	trail *audit.Queries
}

func (t *pgTxRepository) ResolvePermission(ctx context.Context, name string) (rbac.Permission, error) {
	return t.graph.ResolvePermission(ctx, name)
}

func (t *pgTxRepository) ResolveRole(ctx context.Context, name string) (rbac.Role, error) {
	return t.graph.ResolveRole(ctx, name)
}

func (t *pgTxRepository) ImpactedUsersByPermissionID(ctx context.Context, permissionID int64) ([]rbac.ImpactedUser, error) {
	return t.graph.ImpactedUsersByPermissionID(ctx, permissionID)
}

func (t *pgTxRepository) DeletePermissionAssignments(ctx context.Context, permissionID int64) (int64, error) {
	return t.graph.DeletePermissionAssignments(ctx, permissionID)
}

func (t *pgTxRepository) AttachPermissionToRoles(ctx context.Context, permissionID int64, roleNames []string) error {
	return t.graph.AttachPermissionToRoles(ctx, permissionID, roleNames)
}

func (t *pgTxRepository) GetUser(ctx context.Context, userID int64) (int64, string, error) {
	return t.graph.GetUser(ctx, userID)
}

func (t *pgTxRepository) CurrentRoleName(ctx context.Context, userID int64) (string, error) {
	return t.graph.CurrentRoleName(ctx, userID)
}

func (t *pgTxRepository) SetUserRole(ctx context.Context, userID, roleID int64) error {
	return t.graph.SetUserRole(ctx, userID, roleID)
}

func (t *pgTxRepository) AppendAudit(ctx context.Context, action audit.Action, permission string, details audit.Details, actor string) (int64, error) {
	return t.trail.Append(ctx, action, permission, details, actor)
}

func (t *pgTxRepository) GetAudit(ctx context.Context, id int64) (audit.Entry, error) {
	return t.trail.Get(ctx, id)
}
