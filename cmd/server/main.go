package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/vinodismyname/datalens/config"
	"github.com/vinodismyname/datalens/internal/database"
	"github.com/vinodismyname/datalens/internal/ingest"
	"github.com/vinodismyname/datalens/internal/query"
	"github.com/vinodismyname/datalens/internal/registry"
	"github.com/vinodismyname/datalens/internal/runtime"
	"github.com/vinodismyname/datalens/internal/schema"
	"github.com/vinodismyname/datalens/internal/security"
	"github.com/vinodismyname/datalens/internal/telemetry"
	"github.com/vinodismyname/datalens/pkg/version"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var (
		useStdio        bool
		shutdownTimeout time.Duration
	)

	flag.BoolVar(&useStdio, "stdio", false, "Run server over stdio transport")
	flag.DurationVar(&shutdownTimeout, "shutdown-timeout", 5*time.Second, "Graceful shutdown timeout")
	flag.Parse()

	logger := zlog.With().Str("service", "datalens-server").Logger()
	ctx := logger.WithContext(context.Background())

	// Security: optional allow-list from DATALENS_ALLOWED_DIRS. Unset means
	// unrestricted local paths; a set-but-invalid value is a startup failure.
	secMgr, err := security.NewManagerFromEnv()
	if err != nil {
		logger.Error().Err(err).Msg("security: failed to initialize manager from env")
		fmt.Fprintln(os.Stderr, "invalid security configuration; check DATALENS_ALLOWED_DIRS")
		os.Exit(1)
	}
	if secMgr != nil {
		if err := secMgr.ValidateConfig(); err != nil {
			logger.Error().Err(err).Msg("security: invalid allow-list configuration")
			fmt.Fprintln(os.Stderr, "no allowed directories configured; check DATALENS_ALLOWED_DIRS")
			os.Exit(1)
		}
		logger.Info().Strs("allowed_dirs", secMgr.AllowedDirectories()).Msg("security allow-list configured")
	}

	session, err := database.NewSession(config.DefaultDatabaseDSN)
	if err != nil {
		logger.Error().Err(err).Msg("database: failed to open duckdb session")
		os.Exit(1)
	}
	defer func() { _ = session.Close() }()

	limits := runtime.NewLimits(config.DefaultMaxConcurrentRequests)
	runtimeController := runtime.NewController(limits)
	runtimeMW := runtime.NewMiddleware(runtimeController)

	toolRegistry := registry.New()
	hooks := telemetry.NewHooks(logger)

	deps := registry.Deps{
		Session:   session,
		Inspector: schema.NewInspector(session, limits.SampleRowLimit, limits.PreviewRowLimit),
		Executor:  query.NewExecutor(session, query.NewGate(config.ForbiddenKeywords())),
		Telemetry: hooks,
	}
	if secMgr != nil {
		deps.Loader = ingest.NewLoader(session, secMgr)
	} else {
		deps.Loader = ingest.NewLoader(session, nil)
	}

	srv := server.NewMCPServer(
		"Data Lens MCP Server",
		version.Version(),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(false),
		server.WithRecovery(),
		server.WithHooks(buildHooks(logger)),
		server.WithToolHandlerMiddleware(runtimeMW.ToolMiddleware),
	)

	registry.RegisterDataTools(srv, toolRegistry, limits, deps)
	registry.RegisterGuide(srv)

	toolContextSize := toolRegistry.ModelContextSize("gpt-4o")

	logger.Info().
		Ctx(ctx).
		Str("version", version.Version()).
		Str("db_session", session.ID()).
		Int("max_concurrent_requests", limits.MaxConcurrentRequests).
		Int("preview_row_limit", limits.PreviewRowLimit).
		Int("sample_row_limit", limits.SampleRowLimit).
		Int("model_context_size", toolContextSize).
		Bool("stdio", useStdio).
		Msg("server bootstrap configured")

	if useStdio {
		if err := server.ServeStdio(srv); err != nil {
			// Use stderr for transport errors so clients don't misinterpret output
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// If no transport flags provided, print usage and exit non-zero
	fmt.Fprintln(os.Stderr, "no transport selected; use --stdio to run over stdio")
	os.Exit(2)
}

// buildHooks constructs mcp-go server hooks for basic telemetry.
func buildHooks(logger zerolog.Logger) *server.Hooks {
	hooks := &server.Hooks{}

	hooks.AddOnRegisterSession(func(ctx context.Context, session server.ClientSession) {
		logger.Info().Str("session_id", session.SessionID()).Msg("session registered")
	})

	hooks.AddOnUnregisterSession(func(ctx context.Context, session server.ClientSession) {
		logger.Info().Str("session_id", session.SessionID()).Msg("session unregistered")
	})

	hooks.AddAfterListTools(func(ctx context.Context, id any, req *mcp.ListToolsRequest, res *mcp.ListToolsResult) {
		// Keep it light: tool count only
		logger.Info().Int("tools", len(res.Tools)).Msg("list_tools served")
	})

	hooks.AddAfterReadResource(func(ctx context.Context, id any, req *mcp.ReadResourceRequest, res *mcp.ReadResourceResult) {
		logger.Info().Str("uri", req.Params.URI).Msg("resource read served")
	})

	hooks.AddAfterGetPrompt(func(ctx context.Context, id any, req *mcp.GetPromptRequest, res *mcp.GetPromptResult) {
		logger.Info().Str("prompt", req.Params.Name).Msg("prompt served")
	})

	hooks.AddAfterCallTool(func(ctx context.Context, id any, req *mcp.CallToolRequest, res *mcp.CallToolResult) {
		logger.Info().Str("tool", req.Params.Name).Msg("tool call served")
	})

	hooks.AddOnError(func(ctx context.Context, id any, method mcp.MCPMethod, message any, err error) {
		logger.Error().Str("method", string(method)).Err(err).Msg("request error")
	})

	return hooks
}
