// Package postgresadapter is the PostgreSQL platform adapter. Built on
// sqlx + lib/pq, the teacher's own stack (internal/store/store.go,
// internal/cli/migrate_vocabulary.go in the teacher repo this was adapted
// from).
package postgresadapter

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"aird/internal/platform"
)

const Scheme = "postgres"

// Register binds the postgres adapter into reg under both "postgres" and
// "postgresql" schemes, defaulting to the "common_postgres" suite.
func Register(reg *platform.Registry) {
	reg.Register("postgres", "postgres", connect, "common_postgres")
	reg.Register("postgresql", "postgres", connect, "common_postgres")
}

// connect opens connectionString as-is. A connection string without
// userinfo relies on lib/pq's standard libpq environment fallback
// (PGUSER/PGPASSWORD/PGHOST/PGSSLMODE/...), satisfying spec.md §4.1's
// "accept credentials from URI userinfo or environment variables" rule
// without the adapter re-implementing libpq's own env parsing.
func connect(ctx context.Context, connectionString string) (platform.Conn, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("postgres: connecting: %w", err)
	}
	return &conn{db: db}, nil
}

type conn struct {
	db *sqlx.DB
}

func (c *conn) Execute(ctx context.Context, query string, args ...any) (platform.Rows, error) {
	translated := platform.TranslatePositional(query, "$")
	rows, err := c.db.QueryContext(ctx, translated, args...)
	if err != nil {
		return nil, err
	}
	return platform.WrapSQLRows(rows), nil
}

func (c *conn) QuoteIdent(name string) string { return platform.QuoteIdentDefault(name) }

func (c *conn) Close() error { return c.db.Close() }
