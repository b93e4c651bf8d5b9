package query

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vinodismyname/datalens/internal/database"
)

func newExecutor(t *testing.T) (*Executor, *database.Session) {
	t.Helper()
	s, err := database.NewSession("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return NewExecutor(s, NewGate(nil)), s
}

func seedSales(t *testing.T, s *database.Session) {
	t.Helper()
	err := s.With(func(db *sql.DB) error {
		_, err := db.Exec(`CREATE TABLE sales (product VARCHAR, revenue INTEGER)`)
		if err != nil {
			return err
		}
		_, err = db.Exec(`INSERT INTO sales VALUES ('widget', 100), ('gadget', 250)`)
		return err
	})
	require.NoError(t, err)
}

func TestExecute_ReturnsStringifiedRows(t *testing.T) {
	e, s := newExecutor(t)
	seedSales(t, s)

	res := e.Execute(context.Background(), `SELECT product, revenue FROM sales ORDER BY revenue`)
	require.True(t, res.OK())
	require.Empty(t, res.Err)
	require.Equal(t, []string{"product", "revenue"}, res.Columns)
	require.Equal(t, [][]string{{"widget", "100"}, {"gadget", "250"}}, res.Rows)
}

func TestExecute_UnsafeStatementNeverReachesEngine(t *testing.T) {
	e, s := newExecutor(t)
	seedSales(t, s)

	res := e.Execute(context.Background(), `DROP TABLE sales`)
	require.False(t, res.OK())
	require.Nil(t, res.Columns)
	require.Nil(t, res.Rows)
	require.Contains(t, res.Err, "Unsafe SQL detected")

	// The table is untouched.
	check := e.Execute(context.Background(), `SELECT count(*) FROM sales`)
	require.True(t, check.OK())
	require.Equal(t, [][]string{{"2"}}, check.Rows)
}

func TestExecute_EngineErrorIsCaughtAndSessionStaysUsable(t *testing.T) {
	e, s := newExecutor(t)
	seedSales(t, s)

	bad := e.Execute(context.Background(), `SELECT * FROM no_such_table`)
	require.False(t, bad.OK())
	require.NotEmpty(t, bad.Err)
	require.Nil(t, bad.Columns)
	require.Nil(t, bad.Rows)

	// A failed query does not poison the session.
	good := e.Execute(context.Background(), `SELECT product FROM sales ORDER BY product`)
	require.True(t, good.OK())
	require.Equal(t, [][]string{{"gadget"}, {"widget"}}, good.Rows)
}

func TestExecute_EmptyResultHasColumnsAndNoRows(t *testing.T) {
	e, s := newExecutor(t)
	seedSales(t, s)

	res := e.Execute(context.Background(), `SELECT product FROM sales WHERE revenue > 999`)
	require.True(t, res.OK())
	require.Equal(t, []string{"product"}, res.Columns)
	require.Empty(t, res.Rows)
	require.NotNil(t, res.Rows)
}
