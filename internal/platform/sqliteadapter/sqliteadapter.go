// Package sqliteadapter is the embedded-file platform adapter. URIs look
// like "sqlite:///absolute/path", "sqlite://relative/path", or
// "sqlite://:memory:". Grounded on
// original_source/cli/platform/duckdb_adapter.py for URI-form handling and
// original_source/agent/discovery.py's _discover_sqlite for the native
// catalog path this adapter's identity ("sqlite") selects in
// internal/discovery.
package sqliteadapter

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"aird/internal/platform"
)

const Scheme = "sqlite"

// Register binds the sqlite adapter into reg under the "sqlite" scheme,
// defaulting to the "common_sqlite" suite.
func Register(reg *platform.Registry) {
	reg.Register(Scheme, "sqlite", connect, "common_sqlite")
}

func connect(ctx context.Context, connectionString string) (platform.Conn, error) {
	path := parsePath(connectionString)
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening %s: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: connecting to %s: %w", path, err)
	}
	return &conn{db: db}, nil
}

// parsePath tolerates "sqlite:///abs/path", "sqlite://rel/path",
// "sqlite://:memory:", and a bare path with no scheme prefix.
func parsePath(connectionString string) string {
	rest := connectionString
	if idx := strings.Index(rest, "://"); idx >= 0 {
		rest = rest[idx+3:]
	}
	if rest == "" || rest == ":memory:" {
		return ":memory:"
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
