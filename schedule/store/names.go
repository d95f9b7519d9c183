package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/schedulebot/schedule/upstream"
)

const (
	selectNames = `SELECT raw_name, full_name FROM teacher_names WHERE raw_name IN (?)`
	upsertName  = `INSERT INTO teacher_names (raw_name, full_name, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (raw_name) DO UPDATE SET full_name = EXCLUDED.full_name, updated_at = now()`
)

type nameRow struct {
	RawName  string `db:"raw_name"`
	FullName string `db:"full_name"`
}

// NameCache persists unambiguous decoded teacher names in Postgres.
type NameCache struct {
	db *sqlx.DB
}

// NewNameCache wraps an open database handle.
func NewNameCache(db *sqlx.DB) *NameCache {
	return &NameCache{db: db}
}

var _ upstream.NameCache = (*NameCache)(nil)

// GetNames returns the cached full names for the raw names that are known.
func (c *NameCache) GetNames(ctx context.Context, raw []string) (map[string]string, error) {
	out := make(map[string]string, len(raw))
	if len(raw) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(selectNames, raw)
	if err != nil {
		return nil, fmt.Errorf("build names query: %w", err)
	}
	var rows []nameRow
	if err := c.db.SelectContext(ctx, &rows, c.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select names: %w", err)
	}
	for _, r := range rows {
		out[r.RawName] = r.FullName
	}
	return out, nil
}

// PutNames upserts decoded names in one transaction.
func (c *NameCache) PutNames(ctx context.Context, names map[string]string) error {
	if len(names) == 0 {
		return nil
	}
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	for raw, full := range names {
		if _, err := tx.ExecContext(ctx, upsertName, raw, full); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert name: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
