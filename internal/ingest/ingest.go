// Package ingest materializes spreadsheet-like files as DuckDB tables.
// It dispatches on the file extension, names tables after sanitized file
// or sheet names, and replaces the session contents on every load.
package ingest

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/vinodismyname/datalens/internal/database"
)

// PathValidator abstracts filesystem path validation. Implementations should
// return a canonical absolute path if allowed, or an error when denied.
type PathValidator interface {
	ValidateOpenPath(path string) (string, error)
}

// Loader is the file ingestion adapter. Validator is optional; when nil the
// loader accepts any local path.
type Loader struct {
	Session   *database.Session
	Validator PathValidator
}

// NewLoader constructs a Loader bound to the given session.
func NewLoader(session *database.Session, validator PathValidator) *Loader {
	return &Loader{Session: session, Validator: validator}
}

// Load resets the session and materializes the file at path as one table
// per tabular source: one per workbook sheet for xlsx, a single table for
// csv, tsv, and parquet. It returns the created table names in source order.
// Any failure after the reset leaves the session with zero tables; loads are
// replacing, never additive across files.
func (l *Loader) Load(ctx context.Context, path string) ([]string, error) {
	if l.Validator != nil {
		canonical, err := l.Validator.ValidateOpenPath(path)
		if err != nil {
			return nil, err
		}
		path = canonical
	}

	var tables []string
	err := l.Session.Replace(ctx, path, func(db *sql.DB) error {
		info, err := os.Stat(path)
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		if err != nil {
			return fmt.Errorf("ingest: stat %q: %w", path, err)
		}
		if !info.Mode().IsRegular() {
			return fmt.Errorf("%w: %s", ErrNotAFile, path)
		}

		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
		switch ext {
		case "xlsx":
			tables, err = l.loadWorkbook(ctx, db, path)
		case "csv", "tsv":
			tables, err = l.loadDelimited(ctx, db, path)
		case "parquet":
			tables, err = l.loadParquet(ctx, db, path)
		default:
			return &UnsupportedFormatError{Ext: ext}
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return tables, nil
}

// loadWorkbook materializes every sheet of an xlsx workbook, in file order.
// Sheets are staged as temporary CSV files so DuckDB's reader handles header
// detection and column typing. Sheets without any rows are skipped.
func (l *Loader) loadWorkbook(ctx context.Context, db *sql.DB, path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: open workbook %q: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	workDir, err := os.MkdirTemp("", "datalens-ingest-")
	if err != nil {
		return nil, fmt.Errorf("ingest: create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	names := newNameSet()
	tables := make([]string, 0)
	for i, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("ingest: read sheet %q: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}
		staged := filepath.Join(workDir, fmt.Sprintf("sheet_%d.csv", i))
		if err := writeCSV(staged, rows); err != nil {
			return nil, err
		}
		table := names.claim(Sanitize(sheet))
		if err := createFromCSV(ctx, db, table, staged); err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	return tables, nil
}

func (l *Loader) loadDelimited(ctx context.Context, db *sql.DB, path string) ([]string, error) {
	table := Sanitize(path)
	if err := createFromCSV(ctx, db, table, path); err != nil {
		return nil, err
	}
	return []string{table}, nil
}

func (l *Loader) loadParquet(ctx context.Context, db *sql.DB, path string) ([]string, error) {
	table := Sanitize(path)
	if err := createFromSource(ctx, db, table,
		fmt.Sprintf(`read_parquet(%s)`, quoteString(path))); err != nil {
		return nil, err
	}
	return []string{table}, nil
}

// createFromCSV relies on DuckDB's sniffer for delimiter and column typing
// but pins the header row, matching how delimited sources are authored here.
func createFromCSV(ctx context.Context, db *sql.DB, table, path string) error {
	return createFromSource(ctx, db, table,
		fmt.Sprintf(`read_csv_auto(%s, header=true)`, quoteString(path)))
}

func createFromSource(ctx context.Context, db *sql.DB, table, source string) error {
	stmt := fmt.Sprintf(`CREATE TABLE %s AS SELECT * FROM %s`, quoteIdent(table), source)
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("ingest: create table %q: %w", table, err)
	}
	return nil
}

// writeCSV stages sheet rows as a rectangular CSV file. Short rows are
// padded to the widest row so the reader sees a consistent column count.
func writeCSV(path string, rows [][]string) error {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ingest: stage sheet: %w", err)
	}
	w := csv.NewWriter(out)
	for _, r := range rows {
		record := make([]string, width)
		copy(record, r)
		if err := w.Write(record); err != nil {
			_ = out.Close()
			return fmt.Errorf("ingest: stage sheet: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = out.Close()
		return fmt.Errorf("ingest: stage sheet: %w", err)
	}
	return out.Close()
}

// nameSet de-duplicates sanitized table names with a numeric suffix, in
// encounter order: q1_, q1__2, q1__3, ...
type nameSet struct {
	used map[string]int
}

func newNameSet() *nameSet {
	return &nameSet{used: make(map[string]int)}
}

func (n *nameSet) claim(name string) string {
	count := n.used[name]
	n.used[name] = count + 1
	if count == 0 {
		return name
	}
	return fmt.Sprintf("%s_%d", name, count+1)
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

func quoteString(value string) string {
	return `'` + strings.ReplaceAll(value, `'`, `''`) + `'`
}
