package registry

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// GuideURI is the resource address of the text-to-SQL guide.
const GuideURI = "datalens://text_to_sql_guide"

// guideText is static instructional content for calling agents. It is served
// verbatim as both a prompt and a read-only text resource.
const guideText = `You are a SQL reasoning assistant for the data-lens MCP server.

Your job is to analyze spreadsheet data by:
1. Inspecting schema using the get_schema tool.
2. Listing tables using list_tables.
3. Listing columns using list_columns.
4. Previewing example rows via preview_rows.
5. Writing correct DuckDB SQL using column names returned from get_schema.
6. Executing SQL using the run_sql tool.
7. Returning clear answers to the user.

Workflow:
1. If the user uploads a file, call load_file.
2. Always call get_schema before writing SQL, unless you already know the schema.
3. Use column names EXACTLY as returned by get_schema, list_columns, or preview_rows.
4. If multiple tables exist, choose the one matching the user's question.
5. If a SQL error occurs, correct the query and retry automatically using run_sql.

Rules:
- Do NOT guess column names.
- Do NOT hallucinate tables.
- Do NOT use DROP, DELETE, UPDATE, ALTER, CREATE TABLE.
- Use DuckDB syntax.
- Use EXTRACT(month FROM date_column) or similar functions for date logic.
- Use CAST(column AS DOUBLE/DATE) if needed.
- Use preview_rows to understand the data content.
- Use list_tables to discover available tables.
- Use list_columns when the user asks about columns.
- Use clear_all to reset the database when needed.

When you answer the user:
- First, ensure your SQL is correct and has been executed via run_sql.
- Display all tabular results (from preview_rows or run_sql) as markdown tables.
- Then summarize the key findings in natural language.`

// GuideText returns the instructional prompt content.
func GuideText() string { return guideText }

// RegisterGuide serves the text-to-SQL guide as an MCP prompt and as a
// plain-text resource for clients that prefer resource reads.
func RegisterGuide(s *server.MCPServer) {
	prompt := mcp.NewPrompt(
		"text_to_sql_guide",
		mcp.WithPromptDescription("Guide for LLMs on how to use data-lens for Text-to-SQL with DuckDB."),
	)
	s.AddPrompt(prompt, func(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		return mcp.NewGetPromptResult(
			"Text-to-SQL workflow guide",
			[]mcp.PromptMessage{
				mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(guideText)),
			},
		), nil
	})

	resource := mcp.NewResource(
		GuideURI,
		"Text-to-SQL Guide",
		mcp.WithResourceDescription("Recommended call ordering and SQL rules for the data-lens tools."),
		mcp.WithMIMEType("text/plain"),
	)
	s.AddResource(resource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "text/plain",
				Text:     guideText,
			},
		}, nil
	})
}
