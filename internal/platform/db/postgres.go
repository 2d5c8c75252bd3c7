// Package db opens the pgx pool used for PostgreSQL-compatible warehouses.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolConfig tunes the warehouse pool.
type PoolConfig struct {
	MaxConns         int32
	StatementTimeout time.Duration
	ApplicationName  string
}

// New creates a read-only PostgreSQL connection pool.
func New(ctx context.Context, dsn string, pc PoolConfig) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("platform/db: parse config: %w", err)
	}
	if pc.MaxConns > 0 {
		config.MaxConns = pc.MaxConns
	}
	params := config.ConnConfig.RuntimeParams
	params["default_transaction_read_only"] = "on"
	if pc.StatementTimeout > 0 {
		params["statement_timeout"] = fmt.Sprintf("%d", pc.StatementTimeout.Milliseconds())
	}
	if pc.ApplicationName != "" {
		params["application_name"] = pc.ApplicationName
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("platform/db: new pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("platform/db: ping: %w", err)
	}

	return pool, nil
}
