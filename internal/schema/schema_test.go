package schema

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vinodismyname/datalens/internal/database"
)

func newInspector(t *testing.T) (*Inspector, *database.Session) {
	t.Helper()
	s, err := database.NewSession("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return NewInspector(s, 0, 0), s
}

func seed(t *testing.T, s *database.Session) {
	t.Helper()
	err := s.With(func(db *sql.DB) error {
		stmts := []string{
			`CREATE TABLE sales (product VARCHAR, revenue INTEGER, sold_on DATE)`,
			`INSERT INTO sales VALUES
				('widget', 100, DATE '2024-01-05'),
				('gadget', 250, DATE '2024-02-10'),
				('doohickey', 75, DATE '2024-03-15')`,
			`CREATE TABLE regions (name VARCHAR)`,
			`INSERT INTO regions VALUES ('North'), ('South')`,
		}
		for _, stmt := range stmts {
			if _, err := db.Exec(stmt); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestListTables(t *testing.T) {
	i, s := newInspector(t)
	seed(t, s)

	tables, err := i.ListTables(context.Background())
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"sales", "regions"}, tables)
}

func TestListTables_EmptySession(t *testing.T) {
	i, _ := newInspector(t)
	tables, err := i.ListTables(context.Background())
	require.NoError(t, err)
	require.Empty(t, tables)
}

func TestListColumns(t *testing.T) {
	i, s := newInspector(t)
	seed(t, s)

	columns, err := i.ListColumns(context.Background(), "sales")
	require.NoError(t, err)
	require.Len(t, columns, 3)
	require.Equal(t, "product", columns[0].Name)
	require.Equal(t, "VARCHAR", columns[0].Type)
	require.Equal(t, "revenue", columns[1].Name)
	require.Equal(t, "INTEGER", columns[1].Type)
	require.Equal(t, "sold_on", columns[2].Name)
	require.Equal(t, "DATE", columns[2].Type)
}

func TestListColumns_UnknownTable(t *testing.T) {
	i, s := newInspector(t)
	seed(t, s)

	_, err := i.ListColumns(context.Background(), "no_such_table")
	require.Error(t, err)
}

func TestTableSchemaOf_SampleValuesAreStringified(t *testing.T) {
	i, s := newInspector(t)
	seed(t, s)

	ts, err := i.TableSchemaOf(context.Background(), "sales")
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"product": "VARCHAR",
		"revenue": "INTEGER",
		"sold_on": "DATE",
	}, ts.Columns)

	require.Len(t, ts.SampleValues["product"], 3)
	require.Len(t, ts.SampleValues["revenue"], 3)
	require.Contains(t, ts.SampleValues["revenue"], "100")
	require.Contains(t, ts.SampleValues["product"], "widget")
	// Dates render as text too.
	for _, v := range ts.SampleValues["sold_on"] {
		require.IsType(t, "", v)
		require.NotEmpty(t, v)
	}
}

func TestAllSchemas(t *testing.T) {
	i, s := newInspector(t)
	seed(t, s)

	out, err := i.AllSchemas(context.Background())
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"sales", "regions"}, out.Tables)
	require.Len(t, out.Schemas, 2)
	require.Contains(t, out.Schemas["regions"].Columns, "name")
}

func TestPreviewTable_DefaultLimit(t *testing.T) {
	i, s := newInspector(t)
	seed(t, s)

	out, err := i.PreviewTable(context.Background(), "sales", 0)
	require.NoError(t, err)
	require.Equal(t, "sales", out.Table)
	require.Equal(t, i.PreviewRows, out.Limit)
	require.Equal(t, []string{"product", "revenue", "sold_on"}, out.Columns)
	require.Len(t, out.Rows, 3)
	for _, row := range out.Rows {
		require.Len(t, row, 3)
	}
}

func TestPreviewTable_LimitBeyondRowCountReturnsAllRows(t *testing.T) {
	i, s := newInspector(t)
	seed(t, s)

	out, err := i.PreviewTable(context.Background(), "sales", 1000)
	require.NoError(t, err)
	require.Equal(t, 1000, out.Limit)
	require.Len(t, out.Rows, 3)
}

func TestPreviewTable_NegativeLimitRejected(t *testing.T) {
	i, s := newInspector(t)
	seed(t, s)

	_, err := i.PreviewTable(context.Background(), "sales", -1)
	require.Error(t, err)
	require.Contains(t, err.Error(), "limit must be positive")
}

func TestPreviewTable_SmallLimit(t *testing.T) {
	i, s := newInspector(t)
	seed(t, s)

	out, err := i.PreviewTable(context.Background(), "sales", 2)
	require.NoError(t, err)
	require.Len(t, out.Rows, 2)
}
