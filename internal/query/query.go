// Package query gates SQL statements through a keyword safety check and
// executes the ones that pass against the session's DuckDB connection,
// normalizing both results and engine failures into a single result shape.
package query

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vinodismyname/datalens/internal/database"
)

// Result is the outcome of one statement: either Columns/Rows on success or
// Err on failure, never both. Construct through ok/fail so the exclusivity
// holds structurally.
type Result struct {
	Columns []string   `json:"columns,omitempty" jsonschema_description:"Column names"`
	Rows    [][]string `json:"rows,omitempty" jsonschema_description:"Result rows, every cell stringified"`
	Err     string     `json:"error,omitempty" jsonschema_description:"Error message if the query failed"`
}

// OK reports whether the statement executed successfully.
func (r Result) OK() bool { return r.Err == "" }

func ok(columns []string, rows [][]string) Result {
	if rows == nil {
		rows = [][]string{}
	}
	return Result{Columns: columns, Rows: rows}
}

func fail(format string, args ...any) Result {
	return Result{Err: fmt.Sprintf(format, args...)}
}

// Executor is the query adapter: safety gate in front, engine behind.
type Executor struct {
	Session *database.Session
	Gate    *Gate
}

// NewExecutor constructs an Executor bound to the session and gate.
func NewExecutor(session *database.Session, gate *Gate) *Executor {
	return &Executor{Session: session, Gate: gate}
}

// Execute runs one SQL statement. Unsafe statements are rejected before
// they reach the engine; engine failures (syntax errors, missing tables,
// type errors) are caught and reported in the result. The session stays
// usable after any failure.
func (e *Executor) Execute(ctx context.Context, sqlText string) Result {
	if !e.Gate.IsSafe(sqlText) {
		return fail("Unsafe SQL detected. Destructive statements are not allowed.")
	}

	var result Result
	err := e.Session.With(func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, sqlText)
		if err != nil {
			result = fail("%v", err)
			return nil
		}
		defer func() { _ = rows.Close() }()

		columns, data, err := database.ScanStrings(rows)
		if err != nil {
			result = fail("%v", err)
			return nil
		}
		result = ok(columns, data)
		return nil
	})
	if err != nil {
		return fail("%v", err)
	}
	return result
}
