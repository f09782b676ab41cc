// Package discovery introspects a connected platform for its schema/table/
// column catalog, producing the Inventory the suite expander scopes tests
// against.
//
// Grounded on original_source/agent/discovery.py (_discover_sqlite, discover):
// sqlite_master/PRAGMA table_info for the embedded adapters that have no
// information_schema, information_schema.tables/columns with a
// no-filter retry for everything else.
package discovery

import (
	"context"
	"fmt"
	"strings"

	"aird/internal/executor"
	"aird/internal/platform"
)

// Table identifies one discovered table.
type Table struct {
	Schema   string `json:"schema"`
	Table    string `json:"table"`
	FullName string `json:"full_name"`
}

// Column identifies one discovered column.
type Column struct {
	Schema   string `json:"schema"`
	Table    string `json:"table"`
	Column   string `json:"column"`
	DataType string `json:"data_type"`
}

// Inventory is the full catalog snapshot a suite is expanded against.
type Inventory struct {
	Schemas []string `json:"schemas"`
	Tables  []Table  `json:"tables"`
	Columns []Column `json:"columns"`
}

// Filter narrows discovery to a subset of schemas and/or tables. A table
// entry matches either its bare name or its "schema.table" full name,
// case-insensitively. A nil/empty Filter selects everything.
type Filter struct {
	Schemas []string
	Tables  []string
}

func (f Filter) schemaSet() map[string]bool {
	if len(f.Schemas) == 0 {
		return nil
	}
	set := make(map[string]bool, len(f.Schemas))
	for _, s := range f.Schemas {
		set[s] = true
	}
	return set
}

func (f Filter) tableSet() map[string]bool {
	if len(f.Tables) == 0 {
		return nil
	}
	set := make(map[string]bool, len(f.Tables))
	for _, t := range f.Tables {
		set[strings.ToUpper(t)] = true
	}
	return set
}

// Discover introspects conn's catalog. adapterName selects the discovery
// strategy: "sqlite" uses the embedded-file path (sqlite_master plus PRAGMA
// table_info); every other adapter name, "duckdb" included, uses
// information_schema.
func Discover(ctx context.Context, adapterName string, conn platform.Conn, filter Filter) (Inventory, error) {
	if adapterName == "sqlite" {
		return discoverSQLite(ctx, conn, filter)
	}
	return discoverInformationSchema(ctx, conn, filter)
}

func discoverSQLite(ctx context.Context, conn platform.Conn, filter Filter) (Inventory, error) {
	rows, err := executor.Execute(ctx, conn,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return Inventory{}, fmt.Errorf("discovery: listing sqlite tables: %w", err)
	}

	const schemaName = "main"
	var tables []Table
	for _, r := range rows {
		name := asString(r[0])
		tables = append(tables, Table{Schema: schemaName, Table: name, FullName: schemaName + "." + name})
	}

	var columns []Column
	for _, t := range tables {
		colRows, err := executor.Execute(ctx, conn, fmt.Sprintf("PRAGMA table_info(%s)", conn.QuoteIdent(t.Table)))
		if err != nil {
			// As on the information_schema path, a table whose columns
			// can't be introspected contributes no columns.
			continue
		}
		for _, r := range colRows {
			if len(r) < 3 {
				continue
			}
			columns = append(columns, Column{
				Schema:   t.Schema,
				Table:    t.Table,
				Column:   asString(r[1]),
				DataType: asString(r[2]),
			})
		}
	}

	inv := Inventory{Schemas: []string{schemaName}, Tables: tables, Columns: columns}
	return applyFilter(inv, filter), nil
}

func discoverInformationSchema(ctx context.Context, conn platform.Conn, filter Filter) (Inventory, error) {
	rows, err := executor.Execute(ctx, conn,
		"SELECT table_schema, table_name FROM information_schema.tables WHERE table_schema NOT IN ('information_schema', 'pg_catalog') ORDER BY table_schema, table_name")
	if err != nil {
		// Some platforms restrict filtering the system schema list; retry
		// without the exclusion before giving up.
		rows, err = executor.Execute(ctx, conn,
			"SELECT table_schema, table_name FROM information_schema.tables ORDER BY table_schema, table_name")
		if err != nil {
			return Inventory{}, fmt.Errorf("discovery: listing tables: %w", err)
		}
	}

	schemaSet := filter.schemaSet()
	tableSet := filter.tableSet()

	schemasSeen := map[string]bool{}
	var tables []Table
	for _, r := range rows {
		schemaName := asString(r[0])
		tableName := asString(r[1])
		fullName := schemaName + "." + tableName

		if schemaSet != nil && !schemaSet[schemaName] {
			continue
		}
		if tableSet != nil && !tableSet[strings.ToUpper(fullName)] && !tableSet[strings.ToUpper(tableName)] {
			continue
		}

		schemasSeen[schemaName] = true
		tables = append(tables, Table{Schema: schemaName, Table: tableName, FullName: fullName})
	}

	var columns []Column
	for _, t := range tables {
		schemaEscaped := strings.ReplaceAll(t.Schema, "'", "''")
		tableEscaped := strings.ReplaceAll(t.Table, "'", "''")
		colRows, err := executor.Execute(ctx, conn, fmt.Sprintf(
			"SELECT column_name, data_type FROM information_schema.columns WHERE table_schema = '%s' AND table_name = '%s' ORDER BY ordinal_position",
			schemaEscaped, tableEscaped))
		if err != nil {
			// Column discovery failing for one table shouldn't abort the
			// whole inventory: that table simply contributes no columns.
			continue
		}
		for _, r := range colRows {
			columns = append(columns, Column{
				Schema:   t.Schema,
				Table:    t.Table,
				Column:   asString(r[0]),
				DataType: asString(r[1]),
			})
		}
	}

	schemas := make([]string, 0, len(schemasSeen))
	for s := range schemasSeen {
		schemas = append(schemas, s)
	}
	sortStrings(schemas)

	return Inventory{Schemas: schemas, Tables: tables, Columns: columns}, nil
}

// applyFilter re-derives Schemas/Columns after restricting Tables, mirroring
// _discover_sqlite's post-hoc filtering (the native path has no WHERE clause
// to push the filter into).
func applyFilter(inv Inventory, filter Filter) Inventory {
	schemaSet := filter.schemaSet()
	tableSet := filter.tableSet()
	if schemaSet == nil && tableSet == nil {
		return inv
	}

	var tables []Table
	for _, t := range inv.Tables {
		if schemaSet != nil && !schemaSet[t.Schema] {
			continue
		}
		if tableSet != nil && !tableSet[strings.ToUpper(t.FullName)] && !tableSet[strings.ToUpper(t.Table)] {
			continue
		}
		tables = append(tables, t)
	}

	keep := make(map[string]bool, len(tables))
	schemasSeen := map[string]bool{}
	for _, t := range tables {
		keep[t.Schema+"."+t.Table] = true
		schemasSeen[t.Schema] = true
	}

	var columns []Column
	for _, c := range inv.Columns {
		if keep[c.Schema+"."+c.Table] {
			columns = append(columns, c)
		}
	}

	schemas := make([]string, 0, len(schemasSeen))
	for s := range schemasSeen {
		schemas = append(schemas, s)
	}
	sortStrings(schemas)

	return Inventory{Schemas: schemas, Tables: tables, Columns: columns}
}

func asString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return fmt.Sprintf("%v", v)
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
