// Package schema answers metadata questions about the session's tables:
// names, column types, sample values, and bounded row previews. Everything
// here is read-only against DuckDB catalog views and table contents.
package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/vinodismyname/datalens/config"
	"github.com/vinodismyname/datalens/internal/database"
)

// ColumnInfo describes one column of a table.
type ColumnInfo struct {
	Name string `json:"name" jsonschema_description:"Column name"`
	Type string `json:"type" jsonschema_description:"Engine type rendered as text"`
}

// TableSchema is a snapshot of one table: column name to type mapping plus
// up to SampleRows stringified sample values per column. Recomputed on
// every request, never cached.
type TableSchema struct {
	Columns      map[string]string   `json:"columns" jsonschema_description:"Column name to type mapping"`
	SampleValues map[string][]string `json:"sample_values" jsonschema_description:"Sample values per column"`
}

// Response carries schemas for every registered table.
type Response struct {
	Tables  []string               `json:"tables" jsonschema_description:"Table names"`
	Schemas map[string]TableSchema `json:"schemas" jsonschema_description:"Schema per table"`
}

// Preview holds the first rows of a table, all values stringified.
type Preview struct {
	Table   string     `json:"table"`
	Limit   int        `json:"limit"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Inspector is the schema/preview adapter over the session connection.
type Inspector struct {
	Session     *database.Session
	SampleRows  int
	PreviewRows int
}

// NewInspector constructs an Inspector with config defaults for unset limits.
func NewInspector(session *database.Session, sampleRows, previewRows int) *Inspector {
	if sampleRows <= 0 {
		sampleRows = config.DefaultSampleRowLimit
	}
	if previewRows <= 0 {
		previewRows = config.DefaultPreviewRowLimit
	}
	return &Inspector{Session: session, SampleRows: sampleRows, PreviewRows: previewRows}
}

// ListTables returns the names of all tables registered in the engine.
func (i *Inspector) ListTables(ctx context.Context) ([]string, error) {
	tables := make([]string, 0)
	err := i.Session.With(func(db *sql.DB) error {
		var err error
		tables, err = listTables(ctx, db)
		return err
	})
	return tables, err
}

// ListColumns returns name and type for every column of one table. A table
// unknown to the engine surfaces as the engine's own error.
func (i *Inspector) ListColumns(ctx context.Context, table string) ([]ColumnInfo, error) {
	columns := make([]ColumnInfo, 0)
	err := i.Session.With(func(db *sql.DB) error {
		var err error
		columns, err = describeTable(ctx, db, table)
		return err
	})
	return columns, err
}

// TableSchemaOf returns the column mapping plus sample values for one table.
func (i *Inspector) TableSchemaOf(ctx context.Context, table string) (TableSchema, error) {
	var out TableSchema
	err := i.Session.With(func(db *sql.DB) error {
		var err error
		out, err = i.tableSchema(ctx, db, table)
		return err
	})
	return out, err
}

// AllSchemas computes the schema of every registered table, independently
// per table. The session lock makes the snapshot consistent for this call.
func (i *Inspector) AllSchemas(ctx context.Context) (Response, error) {
	out := Response{Tables: []string{}, Schemas: map[string]TableSchema{}}
	err := i.Session.With(func(db *sql.DB) error {
		tables, err := listTables(ctx, db)
		if err != nil {
			return err
		}
		out.Tables = tables
		for _, t := range tables {
			ts, err := i.tableSchema(ctx, db, t)
			if err != nil {
				return err
			}
			out.Schemas[t] = ts
		}
		return nil
	})
	return out, err
}

// PreviewTable returns the first limit rows of a table in engine order.
// A limit of zero falls back to the configured default; negative limits are
// rejected rather than forwarded to the engine. A limit beyond the row
// count returns all rows without error.
func (i *Inspector) PreviewTable(ctx context.Context, table string, limit int) (Preview, error) {
	if limit == 0 {
		limit = i.PreviewRows
	}
	if limit < 0 {
		return Preview{}, fmt.Errorf("schema: preview limit must be positive, got %d", limit)
	}

	out := Preview{Table: table, Limit: limit}
	err := i.Session.With(func(db *sql.DB) error {
		stmt := fmt.Sprintf(`SELECT * FROM %s LIMIT %d`, quoteIdent(table), limit)
		rows, err := db.QueryContext(ctx, stmt)
		if err != nil {
			return fmt.Errorf("schema: preview %q: %w", table, err)
		}
		defer func() { _ = rows.Close() }()
		out.Columns, out.Rows, err = database.ScanStrings(rows)
		return err
	})
	if err != nil {
		return Preview{}, err
	}
	return out, nil
}

func listTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT table_name FROM information_schema.tables`)
	if err != nil {
		return nil, fmt.Errorf("schema: list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	tables := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("schema: scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("schema: iterate tables: %w", err)
	}
	return tables, nil
}

func describeTable(ctx context.Context, db *sql.DB, table string) ([]ColumnInfo, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`DESCRIBE %s`, quoteIdent(table)))
	if err != nil {
		return nil, fmt.Errorf("schema: describe %q: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	// DESCRIBE returns column_name, column_type, null, key, default, extra.
	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("schema: describe columns: %w", err)
	}

	columns := make([]ColumnInfo, 0)
	for rows.Next() {
		values := make([]any, len(names))
		targets := make([]any, len(names))
		for i := range values {
			targets[i] = &values[i]
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("schema: scan describe row: %w", err)
		}
		columns = append(columns, ColumnInfo{
			Name: database.StringifyValue(values[0]),
			Type: database.StringifyValue(values[1]),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("schema: iterate describe rows: %w", err)
	}
	return columns, nil
}

func (i *Inspector) tableSchema(ctx context.Context, db *sql.DB, table string) (TableSchema, error) {
	described, err := describeTable(ctx, db, table)
	if err != nil {
		return TableSchema{}, err
	}
	columns := make(map[string]string, len(described))
	for _, c := range described {
		columns[c.Name] = c.Type
	}

	stmt := fmt.Sprintf(`SELECT * FROM %s LIMIT %d`, quoteIdent(table), i.SampleRows)
	rows, err := db.QueryContext(ctx, stmt)
	if err != nil {
		return TableSchema{}, fmt.Errorf("schema: sample %q: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	names, data, err := database.ScanStrings(rows)
	if err != nil {
		return TableSchema{}, err
	}

	samples := make(map[string][]string, len(names))
	for idx, name := range names {
		values := make([]string, 0, len(data))
		for _, record := range data {
			values = append(values, record[idx])
		}
		samples[name] = values
	}
	return TableSchema{Columns: columns, SampleValues: samples}, nil
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}
