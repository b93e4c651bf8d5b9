package registry

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vinodismyname/datalens/internal/database"
	"github.com/vinodismyname/datalens/internal/ingest"
	"github.com/vinodismyname/datalens/internal/query"
	"github.com/vinodismyname/datalens/internal/runtime"
	"github.com/vinodismyname/datalens/internal/schema"
	"github.com/vinodismyname/datalens/internal/security"
	"github.com/vinodismyname/datalens/internal/telemetry"
	"github.com/vinodismyname/datalens/pkg/mcperr"
	"github.com/vinodismyname/datalens/pkg/validation"
)

// Deps bundles the adapters the data tools operate on. The session is an
// explicit dependency rather than package state so tests can run isolated
// sessions side by side.
type Deps struct {
	Session   *database.Session
	Loader    *ingest.Loader
	Inspector *schema.Inspector
	Executor  *query.Executor
	Telemetry *telemetry.Hooks
}

// --- Input / Output Schemas (typed for discovery) ---

// LoadFileInput defines parameters for loading a data file.
type LoadFileInput struct {
	FilePath string `json:"file_path" validate:"required" jsonschema_description:"Path to a spreadsheet file (.xlsx, .csv, .tsv, .parquet)"`
}

// LoadFileOutput documents the response fields for load_file.
type LoadFileOutput struct {
	FilePath string   `json:"file_path" jsonschema_description:"Path of the loaded file"`
	Tables   []string `json:"tables" jsonschema_description:"Created table names, in source order"`
	Mode     string   `json:"mode" jsonschema_description:"Load mode; always single_file"`
}

// ListFilesOutput documents the response fields for list_files.
type ListFilesOutput struct {
	Files []string `json:"files" jsonschema_description:"Files loaded in this session"`
}

// ListTablesOutput documents the response fields for list_tables.
type ListTablesOutput struct {
	Tables []string `json:"tables" jsonschema_description:"Tables currently registered"`
}

// ListColumnsInput defines parameters for listing columns of one table.
type ListColumnsInput struct {
	Table string `json:"table" validate:"required,tablename" jsonschema_description:"Table name as returned by list_tables"`
}

// ListColumnsOutput documents the response fields for list_columns.
type ListColumnsOutput struct {
	Table   string              `json:"table"`
	Columns []schema.ColumnInfo `json:"columns"`
}

// PreviewRowsInput defines parameters for previewing table rows.
type PreviewRowsInput struct {
	Table string `json:"table" validate:"required,tablename" jsonschema_description:"Table name as returned by list_tables"`
	Limit int    `json:"limit,omitempty" jsonschema_description:"Max rows to return (default 5)"`
}

// RunSQLInput defines parameters for executing a SQL statement.
type RunSQLInput struct {
	SQL string `json:"sql" validate:"required,sqltext" jsonschema_description:"Read-only DuckDB SQL statement"`
}

// ClearAllOutput documents the response fields for clear_all.
type ClearAllOutput struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// RegisterDataTools wires the eight data-lens tools against the session.
func RegisterDataTools(s *server.MCPServer, reg *Registry, limits runtime.Limits, deps Deps) {
	registerLoadFile(s, reg, deps)
	registerListFiles(s, reg, deps)
	registerListTables(s, reg, deps)
	registerListColumns(s, reg, deps)
	registerPreviewRows(s, reg, limits, deps)
	registerGetSchema(s, reg, deps)
	registerRunSQL(s, reg, deps)
	registerClearAll(s, reg, deps)
}

func registerLoadFile(s *server.MCPServer, reg *Registry, deps Deps) {
	tool := mcp.NewTool(
		"load_file",
		mcp.WithDescription("Load a spreadsheet file (Excel/CSV/TSV/Parquet) into DuckDB. Replaces any previously loaded file: the session holds tables from at most one source at a time."),
		mcp.WithString("file_path", mcp.Required(), mcp.Description("Path to a data file (.xlsx, .csv, .tsv, .parquet)")),
		mcp.WithOutputSchema[LoadFileOutput](),
	)
	s.AddTool(tool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in LoadFileInput) (*mcp.CallToolResult, error) {
		if err := validation.Validator().Struct(in); err != nil {
			return mcperr.New(mcperr.Validation, validation.Describe(err)), nil
		}

		start := time.Now()
		tables, err := deps.Loader.Load(ctx, in.FilePath)
		if deps.Telemetry != nil {
			deps.Telemetry.OnLoad(in.FilePath, tables, time.Since(start), err)
		}
		if err != nil {
			return loadError(err), nil
		}

		out := LoadFileOutput{FilePath: in.FilePath, Tables: tables, Mode: "single_file"}
		summary := fmt.Sprintf("loaded %d table(s) from %s", len(tables), filepath.Base(in.FilePath))
		res := mcp.NewToolResultStructured(out, summary)
		res.Content = []mcp.Content{mcp.NewTextContent(summary)}
		return res, nil
	}))
	reg.Register(tool)
}

// loadError maps ingestion and allow-list failures onto the canonical codes.
func loadError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, ingest.ErrFileNotFound), errors.Is(err, security.ErrNotFound):
		return mcperr.New(mcperr.FileNotFound, err.Error())
	case errors.Is(err, ingest.ErrNotAFile):
		return mcperr.New(mcperr.NotAFile, err.Error())
	case ingest.IsUnsupportedFormat(err):
		return mcperr.New(mcperr.UnsupportedFormat, err.Error())
	case errors.Is(err, security.ErrNotAllowed):
		return mcperr.New(mcperr.PermissionDenied, err.Error())
	default:
		return mcperr.New(mcperr.LoadFailed, err.Error())
	}
}

func registerListFiles(s *server.MCPServer, reg *Registry, deps Deps) {
	tool := mcp.NewTool(
		"list_files",
		mcp.WithDescription("List all files loaded into data-lens in this session."),
		mcp.WithOutputSchema[ListFilesOutput](),
	)
	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out := ListFilesOutput{Files: deps.Session.ActiveFiles()}
		summary := fmt.Sprintf("%d file(s) loaded", len(out.Files))
		res := mcp.NewToolResultStructured(out, summary)
		res.Content = []mcp.Content{mcp.NewTextContent(summary)}
		return res, nil
	})
	reg.Register(tool)
}

func registerListTables(s *server.MCPServer, reg *Registry, deps Deps) {
	tool := mcp.NewTool(
		"list_tables",
		mcp.WithDescription("List all DuckDB tables currently available."),
		mcp.WithOutputSchema[ListTablesOutput](),
	)
	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tables, err := deps.Inspector.ListTables(ctx)
		if err != nil {
			return mcperr.New(mcperr.QueryFailed, err.Error()), nil
		}
		out := ListTablesOutput{Tables: tables}
		summary := fmt.Sprintf("%d table(s) available", len(tables))
		res := mcp.NewToolResultStructured(out, summary)
		res.Content = []mcp.Content{mcp.NewTextContent(summary)}
		return res, nil
	})
	reg.Register(tool)
}

func registerListColumns(s *server.MCPServer, reg *Registry, deps Deps) {
	tool := mcp.NewTool(
		"list_columns",
		mcp.WithDescription("List columns for a specific table with their types."),
		mcp.WithString("table", mcp.Required(), mcp.Description("Table name as returned by list_tables")),
		mcp.WithOutputSchema[ListColumnsOutput](),
	)
	s.AddTool(tool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in ListColumnsInput) (*mcp.CallToolResult, error) {
		if err := validation.Validator().Struct(in); err != nil {
			return mcperr.New(mcperr.Validation, validation.Describe(err)), nil
		}
		columns, err := deps.Inspector.ListColumns(ctx, in.Table)
		if err != nil {
			if mcperr.IsTableNotFound(err) {
				return mcperr.Wrapf(mcperr.TableNotFound, "table %q not found", in.Table), nil
			}
			return mcperr.New(mcperr.QueryFailed, err.Error()), nil
		}
		out := ListColumnsOutput{Table: in.Table, Columns: columns}
		summary := fmt.Sprintf("%s: %d column(s)", in.Table, len(columns))
		res := mcp.NewToolResultStructured(out, summary)
		res.Content = []mcp.Content{mcp.NewTextContent(summary)}
		return res, nil
	}))
	reg.Register(tool)
}

func registerPreviewRows(s *server.MCPServer, reg *Registry, limits runtime.Limits, deps Deps) {
	tool := mcp.NewTool(
		"preview_rows",
		mcp.WithDescription("Return the first N rows of a table, all values stringified."),
		mcp.WithString("table", mcp.Required(), mcp.Description("Table name as returned by list_tables")),
		mcp.WithNumber("limit", mcp.DefaultNumber(float64(limits.PreviewRowLimit)), mcp.Description("Max rows to return")),
		mcp.WithOutputSchema[schema.Preview](),
	)
	s.AddTool(tool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in PreviewRowsInput) (*mcp.CallToolResult, error) {
		if err := validation.Validator().Struct(in); err != nil {
			return mcperr.New(mcperr.Validation, validation.Describe(err)), nil
		}
		if in.Limit < 0 {
			return mcperr.Wrapf(mcperr.Validation, "limit must be positive, got %d", in.Limit), nil
		}
		out, err := deps.Inspector.PreviewTable(ctx, in.Table, in.Limit)
		if err != nil {
			if mcperr.IsTableNotFound(err) {
				return mcperr.Wrapf(mcperr.TableNotFound, "table %q not found", in.Table), nil
			}
			return mcperr.New(mcperr.QueryFailed, err.Error()), nil
		}
		summary := fmt.Sprintf("%s: %d row(s), %d column(s)", out.Table, len(out.Rows), len(out.Columns))
		res := mcp.NewToolResultStructured(out, summary)
		res.Content = []mcp.Content{mcp.NewTextContent(summary)}
		return res, nil
	}))
	reg.Register(tool)
}

func registerGetSchema(s *server.MCPServer, reg *Registry, deps Deps) {
	tool := mcp.NewTool(
		"get_schema",
		mcp.WithDescription("Return schema information for all tables including sample values."),
		mcp.WithOutputSchema[schema.Response](),
	)
	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out, err := deps.Inspector.AllSchemas(ctx)
		if err != nil {
			return mcperr.New(mcperr.QueryFailed, err.Error()), nil
		}
		summary := fmt.Sprintf("schemas for %d table(s)", len(out.Tables))
		res := mcp.NewToolResultStructured(out, summary)
		res.Content = []mcp.Content{mcp.NewTextContent(summary)}
		return res, nil
	})
	reg.Register(tool)
}

func registerRunSQL(s *server.MCPServer, reg *Registry, deps Deps) {
	tool := mcp.NewTool(
		"run_sql",
		mcp.WithDescription("Execute a read-only SQL query against the current DuckDB database. Returns either columns and rows, or an error message; unsafe statements are rejected before execution."),
		mcp.WithString("sql", mcp.Required(), mcp.Description("DuckDB SQL statement")),
		mcp.WithOutputSchema[query.Result](),
	)
	s.AddTool(tool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in RunSQLInput) (*mcp.CallToolResult, error) {
		if err := validation.Validator().Struct(in); err != nil {
			return mcperr.New(mcperr.Validation, validation.Describe(err)), nil
		}
		// Query failures stay inside the structured result so the agent can
		// read the engine message and self-correct; the tool call itself
		// never fails past this boundary.
		result := deps.Executor.Execute(ctx, in.SQL)
		summary := fmt.Sprintf("%d row(s), %d column(s)", len(result.Rows), len(result.Columns))
		if !result.OK() {
			summary = "query failed: " + result.Err
		}
		res := mcp.NewToolResultStructured(result, summary)
		res.Content = []mcp.Content{mcp.NewTextContent(summary)}
		return res, nil
	}))
	reg.Register(tool)
}

func registerClearAll(s *server.MCPServer, reg *Registry, deps Deps) {
	tool := mcp.NewTool(
		"clear_all",
		mcp.WithDescription("Reset the DuckDB database and remove all loaded files."),
		mcp.WithOutputSchema[ClearAllOutput](),
	)
	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := deps.Session.Reset(ctx); err != nil {
			return mcperr.New(mcperr.QueryFailed, err.Error()), nil
		}
		out := ClearAllOutput{Status: "OK", Message: "Database reset and all files cleared."}
		res := mcp.NewToolResultStructured(out, out.Message)
		res.Content = []mcp.Content{mcp.NewTextContent(out.Message)}
		return res, nil
	})
	reg.Register(tool)
}
