// Package mysqladapter is the MySQL platform adapter. Built on
// go-sql-driver/mysql, which accepts native "?" placeholders so no query
// translation is needed (unlike the postgres adapter).
package mysqladapter

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"

	"aird/internal/platform"
)

const Scheme = "mysql"

// Register binds the mysql adapter into reg under the "mysql" scheme,
// defaulting to the "common_mysql" suite.
func Register(reg *platform.Registry) {
	reg.Register(Scheme, "mysql", connect, "common_mysql")
}

func connect(ctx context.Context, connectionString string) (platform.Conn, error) {
	dsn := toDriverDSN(connectionString)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql: opening: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("mysql: connecting: %w", err)
	}
	return &conn{db: db}, nil
}

// toDriverDSN strips a leading "mysql://" scheme, if present: the
// go-sql-driver/mysql DSN grammar ("user:pass@tcp(host:port)/db") has no
// scheme prefix of its own.
func toDriverDSN(connectionString string) string {
	if rest, ok := strings.CutPrefix(connectionString, "mysql://"); ok {
		return rest
	}
	return connectionString
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

// QuoteIdent uses MySQL's backtick convention rather than the ANSI
// double-quote default, doubling any embedded backtick.
func (c *conn) QuoteIdent(name string) string {
	out := make([]byte, 0, len(name)+2)
	out = append(out, '`')
	for i := 0; i < len(name); i++ {
		if name[i] == '`' {
			out = append(out, '`', '`')
			continue
		}
		out = append(out, name[i])
	}
	out = append(out, '`')
	return string(out)
}

func (c *conn) Close() error { return c.db.Close() }
