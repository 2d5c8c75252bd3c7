package warehouse

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type pgQueryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PGQuerier runs statements against a pgx pool or connection.
type PGQuerier struct {
	db pgQueryer
}

// NewPGQuerier wraps a *pgxpool.Pool, *pgx.Conn or pgx.Tx.
func NewPGQuerier(db pgQueryer) *PGQuerier {
	return &PGQuerier{db: db}
}

// Query executes the statement and collects every row into a Row map.
func (q *PGQuerier) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	if q == nil || q.db == nil {
		return nil, fmt.Errorf("warehouse: postgres querier not configured")
	}
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("warehouse: query: %w", err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("warehouse: collect rows: %w", err)
	}
	out := make([]Row, len(records))
	for i, record := range records {
		out[i] = Row(record)
	}
	return out, nil
}
