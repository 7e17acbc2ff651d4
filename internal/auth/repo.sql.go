package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	platformdb "github.com/permradar/permradar/internal/platform/db"
	"github.com/permradar/permradar/internal/shared"
)

// Repository provides PostgreSQL backed persistence for accounts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindByEmail returns the account with the given email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, auth_role, created_at FROM users WHERE email = $1`,
		email,
	).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.AuthRole, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Register inserts the account and assigns the viewer graph role in one
// transaction. Duplicate emails surface as ErrConflict.
func (r *Repository) Register(ctx context.Context, name, email, passwordHash string) (int64, error) {
	var userID int64
	err := platformdb.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO users (name, email, password_hash, auth_role) VALUES ($1, $2, $3, 'viewer') RETURNING id`,
			name, email, passwordHash,
		).Scan(&userID)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: email already exists", shared.ErrConflict)
			}
			return err
		}

		var roleID int64
		if err := tx.QueryRow(ctx, `SELECT id FROM roles WHERE name = 'viewer'`).Scan(&roleID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return errors.New("auth: viewer role not provisioned")
			}
			return err
		}

		_, err = tx.Exec(ctx, `INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`, userID, roleID)
		return err
	})
	if err != nil {
		return 0, err
	}
	return userID, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
