// Package remediation is the [DOMAIN, narrow] fix-suggestion generator: a
// lookup table from requirement key to a human description and a SQL
// template, substituted against a failed result's schema/table/column.
//
// Grounded on original_source/agent/remediation/generator.py
// (generate_fix_suggestions) and templates.py (REMEDIATION_TEMPLATES).
package remediation

import (
	"strings"

	"aird/internal/runner"
)

type template struct {
	description string
	sql         string
}

// templates is the lookup table of requirement -> (description, SQL
// template). Requirements with no entry fall back to a generic suggestion.
var templates = map[string]template{
	"null_rate": {
		description: "High null rate in column. Consider backfilling or setting a default.",
		sql: "-- Option 1: Backfill existing nulls with a default\n" +
			"UPDATE {schema}.{table} SET {column} = 'Unknown' WHERE {column} IS NULL;\n\n" +
			"-- Option 2: Add default for future inserts (adjust default_value for your domain)\n" +
			"-- ALTER TABLE {schema}.{table} ALTER COLUMN {column} SET DEFAULT 'default_value';",
	},
	"duplicate_rate": {
		description: "Duplicate rows detected. Consider deduplication or adding a unique constraint.",
		sql: "-- Investigate duplicates first (list all columns in GROUP BY)\n" +
			"-- SELECT col1, col2, COUNT(*) FROM {schema}.{table} GROUP BY col1, col2 HAVING COUNT(*) > 1;\n\n" +
			"-- Option: Add unique constraint to prevent future duplicates\n" +
			"-- ALTER TABLE {schema}.{table} ADD CONSTRAINT uq_{table} UNIQUE (column_list);",
	},
	"primary_key_defined": {
		description: "Table has no primary key. Add a PK for reliable joins and traceability.",
		sql: "-- Option 1: Add primary key on existing column (e.g. id)\n" +
			"ALTER TABLE {schema}.{table} ADD CONSTRAINT pk_{table} PRIMARY KEY (id);\n\n" +
			"-- Option 2: Add surrogate key if no natural key exists\n" +
			"ALTER TABLE {schema}.{table} ADD COLUMN id SERIAL PRIMARY KEY;",
	},
	"foreign_key_coverage": {
		description: "Table has no foreign key constraints. Add FKs to declare relationships.",
		sql: "-- Add foreign key (adjust referenced table/column)\n" +
			"ALTER TABLE {schema}.{table}\n" +
			"ADD CONSTRAINT fk_{table}_ref\n" +
			"FOREIGN KEY (ref_column) REFERENCES other_schema.other_table(id);",
	},
	"temporal_scope_present": {
		description: "Table lacks temporal columns (created_at, updated_at). Add for freshness tracking.",
		sql: "ALTER TABLE {schema}.{table} ADD COLUMN created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP;\n" +
			"ALTER TABLE {schema}.{table} ADD COLUMN updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP;",
	},
	"semantic_model_coverage": {
		description: "Table not represented in semantic model. Add to semantic layer or create view.",
		sql: "-- Create a view or add to your semantic model (dbt, LookML, etc.)\n" +
			"-- SELECT * FROM {schema}.{table}",
	},
	"constraint_coverage": {
		description: "Table has no constraints. Add primary key or unique constraint.",
		sql:         "ALTER TABLE {schema}.{table} ADD CONSTRAINT pk_{table} PRIMARY KEY (id);",
	},
	"column_comment_coverage": {
		description: "Column lacks documentation. Add column comments.",
		sql:         "COMMENT ON COLUMN {schema}.{table}.{column} IS 'Description of this column';",
	},
	"table_comment_coverage": {
		description: "Table lacks documentation. Add table comment.",
		sql:         "COMMENT ON TABLE {schema}.{table} IS 'Description: grain and primary key';",
	},
}

// Suggestion is one actionable fix, attached to the result it was derived
// from.
type Suggestion struct {
	TestID        string   `json:"test_id"`
	Factor        string   `json:"factor"`
	Requirement   string   `json:"requirement"`
	Schema        string   `json:"schema"`
	Table         string   `json:"table"`
	Column        string   `json:"column,omitempty"`
	Description   string   `json:"description"`
	SQL           string   `json:"sql"`
	MeasuredValue *float64 `json:"measured_value"`
}

// Generate produces one Suggestion per result that failed at any workload
// level.
func Generate(results []runner.Result) []Suggestion {
	var out []Suggestion
	for _, r := range results {
		if !failed(r) {
			continue
		}
		out = append(out, suggestionFor(r))
	}
	return out
}

func failed(r runner.Result) bool {
	return !r.Verdict.L1Pass || !r.Verdict.L2Pass || !r.Verdict.L3Pass
}

func suggestionFor(r runner.Result) Suggestion {
	tmpl, ok := templates[r.Requirement]
	desc := tmpl.description
	sql := tmpl.sql
	if !ok {
		desc = "Requirement '" + r.Requirement + "' failed. See factor documentation for guidance."
		sql = "-- No template available. Check factor documentation."
	}

	schema := r.Schema
	if schema == "" {
		schema = "schema"
	}
	table := r.Table
	if table == "" {
		table = "table"
	}
	column := r.Column
	if column == "" {
		column = "column"
	}
	replacer := strings.NewReplacer("{schema}", schema, "{table}", table, "{column}", column)

	return Suggestion{
		TestID:        r.TestID,
		Factor:        r.Factor,
		Requirement:   r.Requirement,
		Schema:        r.Schema,
		Table:         r.Table,
		Column:        r.Column,
		Description:   desc,
		SQL:           replacer.Replace(sql),
		MeasuredValue: r.MeasuredValue,
	}
}
