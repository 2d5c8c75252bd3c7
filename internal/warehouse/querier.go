package warehouse

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Querier executes a read-only statement and returns the loosely typed result rows.
type Querier interface {
	Query(ctx context.Context, query string, args ...any) ([]Row, error)
}

// Dialect selects the SQL flavour spoken by the warehouse.
type Dialect string

const (
	// DialectPostgres targets PostgreSQL-compatible warehouses through pgx.
	DialectPostgres Dialect = "postgres"
	// DialectMySQL targets MySQL/MariaDB-compatible warehouses through database/sql.
	DialectMySQL Dialect = "mysql"
)

// ParseDialect maps a driver name onto a Dialect.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "postgres", "postgresql", "pgx":
		return DialectPostgres, nil
	case "mysql", "mariadb":
		return DialectMySQL, nil
	default:
		return "", fmt.Errorf("warehouse: unsupported driver %q", name)
	}
}

// Placeholder renders the n-th (1-based) bind parameter.
func (d Dialect) Placeholder(n int) string {
	if d == DialectMySQL {
		return "?"
	}
	return "$" + strconv.Itoa(n)
}

var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ValidIdentifier reports whether name is safe to interpolate as a (schema-qualified) table name.
func ValidIdentifier(name string) bool {
	return identifierRegex.MatchString(name)
}

type queryNameKey struct{}

// WithQueryName labels the statements issued with ctx for instrumentation.
func WithQueryName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, queryNameKey{}, name)
}

// QueryName returns the label attached by WithQueryName, or "unnamed".
func QueryName(ctx context.Context) string {
	if name, ok := ctx.Value(queryNameKey{}).(string); ok && name != "" {
		return name
	}
	return "unnamed"
}
