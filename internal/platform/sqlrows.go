package platform

import "database/sql"

// SQLRows adapts a *sql.Rows to the Rows interface shared by every
// database/sql-backed adapter (sqlite, postgres, mysql, duckdb, snowflake).
type SQLRows struct {
	rows *sql.Rows
}

// WrapSQLRows returns a Rows backed by rows.
func WrapSQLRows(rows *sql.Rows) Rows {
	return &SQLRows{rows: rows}
}

func (r *SQLRows) Next() bool                 { return r.rows.Next() }
func (r *SQLRows) Scan(dest ...any) error     { return r.rows.Scan(dest...) }
func (r *SQLRows) Columns() ([]string, error) { return r.rows.Columns() }
func (r *SQLRows) Err() error                 { return r.rows.Err() }
func (r *SQLRows) Close() error               { return r.rows.Close() }
