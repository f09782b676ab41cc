// Package duckdbadapter is the embedded-analytics platform adapter. URIs
// look like "duckdb:///abs/path.db", "duckdb://rel/path.db", or
// "duckdb://:memory:". Grounded on
// original_source/cli/platform/duckdb_adapter.py for URI-form handling.
package duckdbadapter

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/marcboeker/go-duckdb"

	"aird/internal/platform"
)

const Scheme = "duckdb"

// Register binds the duckdb adapter into reg under the "duckdb" scheme,
// defaulting to the "common_duckdb" suite.
func Register(reg *platform.Registry) {
	reg.Register(Scheme, "duckdb", connect, "common_duckdb")
}

func connect(ctx context.Context, connectionString string) (platform.Conn, error) {
	path := parsePath(connectionString)
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("duckdb: opening %s: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("duckdb: connecting to %s: %w", path, err)
	}
	return &conn{db: db}, nil
}

// parsePath mirrors sqliteadapter.parsePath: strip the scheme, fall back to
// an in-memory database when the path is empty or ":memory:".
func parsePath(connectionString string) string {
	rest := connectionString
	if idx := strings.Index(rest, "://"); idx >= 0 {
		rest = rest[idx+3:]
	}
	if rest == "" || rest == ":memory:" {
		return ""
	}
	if unescaped, err := url.PathUnescape(rest); err == nil {
		rest = unescaped
	}
	return rest
}

type conn struct {
	db *sql.DB
}

func (c *conn) Execute(ctx context.Context, query string, args ...any) (platform.Rows, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return platform.WrapSQLRows(rows), nil
}

func (c *conn) QuoteIdent(name string) string { return platform.QuoteIdentDefault(name) }

func (c *conn) Close() error { return c.db.Close() }
