package database

import (
	"database/sql"
	"fmt"
	"time"
)

// ScanStrings drains rows into column names and a fully stringified row
// matrix. Every cell is rendered as text regardless of its native type so
// results stay uniform across engines and column types.
func ScanStrings(rows *sql.Rows) ([]string, [][]string, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("database: result columns: %w", err)
	}

	out := make([][]string, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		targets := make([]any, len(columns))
		for i := range values {
			targets[i] = &values[i]
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, nil, fmt.Errorf("database: scan row: %w", err)
		}
		record := make([]string, len(values))
		for i, v := range values {
			record[i] = StringifyValue(v)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("database: iterate rows: %w", err)
	}
	return columns, out, nil
}

// StringifyValue renders one engine-native value as display text.
// NULL renders as "NULL"; byte slices as raw text; timestamps in a plain
// sortable form; everything else through fmt.
func StringifyValue(v any) string {
	switch typed := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(typed)
	case string:
		return typed
	case time.Time:
		return typed.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprintf("%v", typed)
	}
}
