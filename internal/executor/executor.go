// Package executor validates and runs read-only probe statements against a
// platform.Conn. It is the sole point where adapter-level blocking calls
// happen beyond connect and catalog discovery (spec.md §5).
//
// Grounded on original_source/cli/platform/executor.py (validate_readonly,
// execute_readonly).
package executor

import (
	"context"
	"fmt"
	"regexp"

	"aird/internal/platform"
)

// ErrNotReadOnly is the error returned (unwrapped) when a statement's
// leading token isn't one of the allowed read-only verbs.
type ErrNotReadOnly struct {
	Leading string
}

func (e *ErrNotReadOnly) Error() string {
	return "only read-only statements are allowed: SELECT, WITH, DESCRIBE, SHOW, EXPLAIN"
}

// allowedPrefix matches the first non-whitespace token, case-insensitively,
// against the read-only verb set. There is deliberately no comment
// stripping or further lexical analysis (spec.md §4.2): defence in depth
// relies on read-only authentication where the adapter supports it.
var allowedPrefix = regexp.MustCompile(`(?is)^\s*(SELECT|WITH|DESCRIBE|SHOW|EXPLAIN)\b`)

// ValidateReadOnly returns an *ErrNotReadOnly if sql's leading token is not
// one of SELECT/WITH/DESCRIBE/SHOW/EXPLAIN.
func ValidateReadOnly(sql string) error {
	if !allowedPrefix.MatchString(sql) {
		return &ErrNotReadOnly{}
	}
	return nil
}

// Row is one scanned row: the driver's raw values in column order (nil
// where the value was SQL NULL).
type Row []any

// Execute validates sql as read-only, then runs it against conn, returning
// all rows as a slice of column-value slices. Statements that fail
// validation never reach the connection.
func Execute(ctx context.Context, conn platform.Conn, sql string, args ...any) ([]Row, error) {
	if err := ValidateReadOnly(sql); err != nil {
		return nil, err
	}
	rows, err := conn.Execute(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("executor: running probe: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("executor: reading columns: %w", err)
	}

	var out []Row
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("executor: scanning row: %w", err)
		}
		out = append(out, Row(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("executor: iterating rows: %w", err)
	}
	return out, nil
}
