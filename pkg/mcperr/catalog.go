package mcperr

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Code defines a canonical MCP error code used across tools.
type Code string

const (
	// Validation & Input
	Validation Code = "VALIDATION"

	// Loading
	FileNotFound      Code = "FILE_NOT_FOUND"
	NotAFile          Code = "NOT_A_FILE"
	UnsupportedFormat Code = "UNSUPPORTED_FORMAT"
	LoadFailed        Code = "LOAD_FAILED"

	// Querying
	TableNotFound Code = "TABLE_NOT_FOUND"
	UnsafeQuery   Code = "UNSAFE_QUERY"
	QueryFailed   Code = "QUERY_FAILED"

	// Resource & Limits
	BusyResource Code = "BUSY_RESOURCE"
	Timeout      Code = "TIMEOUT"

	// Access
	PermissionDenied Code = "PERMISSION_DENIED"
)

// Entry documents a code's standard message, retry semantics, and next steps.
type Entry struct {
	Code      Code
	Message   string
	Retryable bool
	NextSteps []string
}

// catalog maps canonical codes to guidance. Messages can be overridden per error.
var catalog = map[Code]Entry{
	Validation: {Code: Validation, Message: "invalid inputs", Retryable: true, NextSteps: []string{"Correct the inputs per schema and retry", "See examples in tool description"}},

	FileNotFound:      {Code: FileNotFound, Message: "file not found", Retryable: true, NextSteps: []string{"Verify the path and retry", "Use an absolute path"}},
	NotAFile:          {Code: NotAFile, Message: "path is not a regular file", Retryable: false, NextSteps: []string{"Point load_file at a data file, not a directory"}},
	UnsupportedFormat: {Code: UnsupportedFormat, Message: "unsupported file format", Retryable: false, NextSteps: []string{"Convert to xlsx, csv, tsv, or parquet and retry"}},
	LoadFailed:        {Code: LoadFailed, Message: "failed to load file", Retryable: true, NextSteps: []string{"Verify the file is well-formed", "Provide a clean copy"}},

	TableNotFound: {Code: TableNotFound, Message: "table not found", Retryable: true, NextSteps: []string{"Call list_tables to verify table names", "Reload the source file if needed"}},
	UnsafeQuery:   {Code: UnsafeQuery, Message: "statement contains a forbidden keyword", Retryable: true, NextSteps: []string{"Use read-only SQL; avoid DROP, DELETE, UPDATE, ALTER, CREATE TABLE"}},
	QueryFailed:   {Code: QueryFailed, Message: "query execution failed", Retryable: true, NextSteps: []string{"Check column names via get_schema", "Correct the SQL and retry"}},

	BusyResource: {Code: BusyResource, Message: "concurrent request limit reached", Retryable: true, NextSteps: []string{"Retry after a short delay"}},
	Timeout:      {Code: Timeout, Message: "operation exceeded configured time limit", Retryable: true, NextSteps: []string{"Narrow the query or preview scope"}},

	PermissionDenied: {Code: PermissionDenied, Message: "path is outside the allowed directories", Retryable: false, NextSteps: []string{"Choose a file inside an allowed directory"}},
}

// normalize builds a standard error string including next steps for MCP clients that
// surface only a message string. Format: "CODE: message" followed by a guidance tail.
func normalize(code Code, msg string) string {
	base := strings.TrimSpace(msg)
	e, ok := catalog[code]
	if !ok {
		// Unknown code; preserve as-is
		if base == "" {
			return string(code)
		}
		return fmt.Sprintf("%s: %s", string(code), base)
	}
	if base == "" {
		base = e.Message
	}
	// Append compact nextSteps guidance inline to aid clients lacking structured fields.
	guidance := ""
	if len(e.NextSteps) > 0 {
		guidance = " | nextSteps: " + strings.Join(e.NextSteps, "; ")
	}
	return fmt.Sprintf("%s: %s%s", e.Code, base, guidance)
}

// New returns an MCP error result for a given code and optional message override.
func New(code Code, message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(normalize(code, message))
}

// Wrapf formats details and returns an MCP error result for the code.
func Wrapf(code Code, format string, args ...any) *mcp.CallToolResult {
	return mcp.NewToolResultError(normalize(code, fmt.Sprintf(format, args...)))
}

// IsTableNotFound returns true if an error matches DuckDB's missing-table messages.
func IsTableNotFound(err error) bool {
	if err == nil {
		return false
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "does not exist") || strings.Contains(low, "not found in from clause")
}
