package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// SQLQuerier runs statements through database/sql. It backs the MySQL/MariaDB dialect.
type SQLQuerier struct {
	db *sql.DB
}

// NewSQLQuerier wraps an open *sql.DB.
func NewSQLQuerier(db *sql.DB) *SQLQuerier {
	return &SQLQuerier{db: db}
}

// Query executes the statement and scans every column into a Row map.
func (q *SQLQuerier) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	if q == nil || q.db == nil {
		return nil, fmt.Errorf("warehouse: sql querier not configured")
	}
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("warehouse: query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("warehouse: columns: %w", err)
	}
	out := make([]Row, 0)
	for rows.Next() {
		values := make([]any, len(cols))
		dest := make([]any, len(cols))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("warehouse: scan: %w", err)
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			if raw, ok := values[i].([]byte); ok {
				row[col] = string(raw)
				continue
			}
			row[col] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("warehouse: rows: %w", err)
	}
	return out, nil
}

// OpenMySQL opens a MySQL/MariaDB pool. Both native DSNs and mysql:// or mariadb:// URLs are
// accepted; timestamps are always parsed into time.Time in UTC.
func OpenMySQL(dsn string) (*sql.DB, error) {
	native, err := toMySQLDSN(dsn)
	if err != nil {
		return nil, err
	}
	cfg, err := mysql.ParseDSN(native)
	if err != nil {
		return nil, fmt.Errorf("warehouse: parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("warehouse: mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func toMySQLDSN(dsn string) (string, error) {
	if !strings.HasPrefix(dsn, "mariadb://") && !strings.HasPrefix(dsn, "mysql://") {
		return dsn, nil
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("warehouse: parse dsn: %w", err)
	}
	var user, pass string
	if u.User != nil {
		user = u.User.Username()
		pass, _ = u.User.Password()
	}
	dbName := strings.TrimPrefix(u.Path, "/")
	if user == "" || u.Host == "" || dbName == "" {
		return "", fmt.Errorf("warehouse: dsn must include user, host and database")
	}
	cfg := mysql.NewConfig()
	cfg.User = user
	cfg.Passwd = pass
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	cfg.DBName = dbName
	return cfg.FormatDSN(), nil
}
