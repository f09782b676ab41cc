package suite

import (
	"strings"

	"aird/internal/discovery"
)

// numericTypeMarkers are substrings of a data_type whose presence selects a
// column for zero_negative_rate/type_inconsistency_rate scoping.
var numericTypeMarkers = []string{
	"INT", "BIGINT", "SMALLINT", "TINYINT", "DOUBLE", "FLOAT", "REAL", "NUMERIC", "DECIMAL",
}

// temporalNameMarkers are substrings of a column name that mark it as a
// candidate for format_inconsistency_rate scoping.
var temporalNameMarkers = []string{"date", "time", "created", "updated", "_at"}

// inScope implements spec.md §4.4's per-requirement scope predicate table.
// Requirements not named in the table scope to every column.
func inScope(requirement string, col discovery.Column) bool {
	switch requirement {
	case "zero_negative_rate", "type_inconsistency_rate":
		upper := strings.ToUpper(col.DataType)
		for _, marker := range numericTypeMarkers {
			if strings.Contains(upper, marker) {
				return true
			}
		}
		return false
	case "format_inconsistency_rate":
		lower := strings.ToLower(col.Column)
		for _, marker := range temporalNameMarkers {
			if strings.Contains(lower, marker) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

// QuoteIdent is the subset of platform.Conn the expander needs to render
// {schema_q}/{table_q}/{column_q} placeholders.
type QuoteIdent interface {
	QuoteIdent(name string) string
}

// Expand turns raw into ExpandedTests against inv, applying factorFilter
// (when non-empty) to drop tests whose Factor doesn't match. Expansion
// order follows inv's own order (schema, then table, then ordinal
// position), which Expand never reorders.
func Expand(raw []TestDef, inv discovery.Inventory, quoter QuoteIdent, factorFilter string) []ExpandedTest {
	var out []ExpandedTest
	for _, t := range raw {
		if factorFilter != "" && t.Factor != factorFilter {
			continue
		}
		out = append(out, expandOne(t, inv, quoter)...)
	}
	return out
}

func expandOne(t TestDef, inv discovery.Inventory, quoter QuoteIdent) []ExpandedTest {
	if t.Query != "" {
		return []ExpandedTest{{
			ID:          t.ID,
			Factor:      t.Factor,
			Requirement: t.Requirement,
			TargetType:  t.TargetType,
			Query:       t.Query,
		}}
	}

	switch t.TargetType {
	case TargetPlatform:
		// A template without a scope to bind against is invalid; the spec
		// calls for silently skipping it rather than erroring the suite.
		return nil

	case TargetTable:
		out := make([]ExpandedTest, 0, len(inv.Tables))
		for _, tbl := range inv.Tables {
			q := strings.NewReplacer(
				"{schema_q}", quoter.QuoteIdent(tbl.Schema),
				"{table_q}", quoter.QuoteIdent(tbl.Table),
			).Replace(t.QueryTemplate)
			out = append(out, ExpandedTest{
				ID:          t.ID + " | " + tbl.Schema + " | " + tbl.Table,
				Factor:      t.Factor,
				Requirement: t.Requirement,
				TargetType:  t.TargetType,
				Query:       q,
				Schema:      tbl.Schema,
				Table:       tbl.Table,
			})
		}
		return out

	case TargetColumn:
		var out []ExpandedTest
		for _, col := range inv.Columns {
			if !inScope(t.Requirement, col) {
				continue
			}
			q := strings.NewReplacer(
				"{schema_q}", quoter.QuoteIdent(col.Schema),
				"{table_q}", quoter.QuoteIdent(col.Table),
				"{column_q}", quoter.QuoteIdent(col.Column),
			).Replace(t.QueryTemplate)
			out = append(out, ExpandedTest{
				ID:          t.ID + " | " + col.Schema + " | " + col.Table + " | " + col.Column,
				Factor:      t.Factor,
				Requirement: t.Requirement,
				TargetType:  t.TargetType,
				Query:       q,
				Schema:      col.Schema,
				Table:       col.Table,
				Column:      col.Column,
			})
		}
		return out
	}
	return nil
}
