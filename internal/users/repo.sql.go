package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/permradar/permradar/internal/audit"
	platformdb "github.com/permradar/permradar/internal/platform/db"
	"github.com/permradar/permradar/internal/shared"
)

// Repository provides PostgreSQL backed persistence for account management.
// Creation and deletion write their audit entry inside the same transaction
// as the account change.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListUsers returns all accounts with their assigned role, ordered by id.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.name, u.email, r.name, u.created_at
		FROM users u
		JOIN user_roles ur ON ur.user_id = u.id
		JOIN roles r ON r.id = ur.role_id
		ORDER BY u.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// CreateUser inserts the account, assigns the named role and appends the
// user_created trail entry in one transaction.
func (r *Repository) CreateUser(ctx context.Context, name, email, passwordHash, authRole, role, actor string) (int64, error) {
	var userID int64
	err := platformdb.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var roleID int64
		err := tx.QueryRow(ctx, `SELECT id FROM roles WHERE name = $1`, role).Scan(&roleID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: role %q", shared.ErrNotFound, role)
			}
			return err
		}

		err = tx.QueryRow(ctx,
			`INSERT INTO users (name, email, password_hash, auth_role) VALUES ($1, $2, $3, $4) RETURNING id`,
			name, email, passwordHash, authRole,
		).Scan(&userID)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: email already exists", shared.ErrConflict)
			}
			return err
		}

		if _, err := tx.Exec(ctx, `INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`, userID, roleID); err != nil {
			return err
		}

		_, err = audit.New(tx).Append(ctx, audit.ActionUserCreated, role,
			audit.UserCreatedDetails{UserID: userID, UserName: name}, actor)
		return err
	})
	if err != nil {
		return 0, err
	}
	return userID, nil
}

// DeleteUser removes the account, its role assignment and appends the
// user_deleted trail entry in one transaction.
func (r *Repository) DeleteUser(ctx context.Context, userID int64, actor string) error {
	return platformdb.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: user %d", shared.ErrNotFound, userID)
		}

		_, err = audit.New(tx).Append(ctx, audit.ActionUserDeleted, "",
			audit.UserDeletedDetails{UserID: userID}, actor)
		return err
	})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
