package config

import "time"

// Default runtime limits and guardrails for the Data Lens MCP server.
// These values are conservative and can be overridden by future configuration
// mechanisms (env, CLI, or files). They are referenced by internal/runtime
// and the schema/query adapters.

const (
	// Concurrency
	DefaultMaxConcurrentRequests = 4

	// Row limits for previews and schema sampling
	DefaultPreviewRowLimit = 5
	DefaultSampleRowLimit  = 5
)

const (
	// Timeouts
	DefaultOperationTimeout      = 30 * time.Second
	DefaultAcquireRequestTimeout = 2 * time.Second
)

// DefaultDatabaseDSN selects an in-memory DuckDB database. An empty DSN is
// the go-duckdb convention for ":memory:".
const DefaultDatabaseDSN = ""

// ForbiddenKeywords returns the default set of SQL keywords that mark a
// statement as mutating or structural. Matching is a plain case-insensitive
// substring scan, so multi-word entries like "CREATE TABLE" are supported.
func ForbiddenKeywords() []string {
	return []string{"DROP", "DELETE", "UPDATE", "ALTER", "CREATE TABLE"}
}
