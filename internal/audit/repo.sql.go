package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/permradar/permradar/internal/shared"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx so appends ride inside
// the same transaction as the graph mutation they record.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries provides PostgreSQL access to the append-only trail.
type Queries struct {
	db DBTX
}

// New constructs Queries over the given connection or transaction.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Append writes a new entry and returns its assigned id. Entries are never
// updated or deleted afterwards.
func (q *Queries) Append(ctx context.Context, action Action, permission string, details Details, actor string) (int64, error) {
	if details == nil || details.Action() != action {
		return 0, fmt.Errorf("audit: details payload does not match action %q", action)
	}
	payload, err := json.Marshal(details)
	if err != nil {
		return 0, fmt.Errorf("audit: marshal details: %w", err)
	}

	var id int64
	err = q.db.QueryRow(ctx, `
		INSERT INTO audit_logs (action, permission, details, actor)
		VALUES ($1, $2, $3, $4)
		RETURNING id`, string(action), optionalText(permission), payload, actor).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Get loads one entry by id.
func (q *Queries) Get(ctx context.Context, id int64) (Entry, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id, action, permission, details, actor, created_at
		FROM audit_logs WHERE id = $1`, id)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, fmt.Errorf("%w: audit entry %d", shared.ErrNotFound, id)
		}
		return Entry{}, err
	}
	return entry, nil
}

// ListRecent returns up to limit entries, newest first.
func (q *Queries) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, action, permission, details, actor, created_at
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanEntry(row pgx.Row) (Entry, error) {
	var (
		entry      Entry
		action     string
		permission pgtype.Text
		raw        []byte
	)
	if err := row.Scan(&entry.ID, &action, &permission, &raw, &entry.Actor, &entry.CreatedAt); err != nil {
		return Entry{}, err
	}
	entry.Action = Action(action)
	if permission.Valid {
		entry.Permission = permission.String
	}
	details, err := DecodeDetails(entry.Action, raw)
	if err != nil {
		return Entry{}, err
	}
	entry.Details = details
	return entry, nil
}

func optionalText(value string) pgtype.Text {
	if value == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: value, Valid: true}
}
