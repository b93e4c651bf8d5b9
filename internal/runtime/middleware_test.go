package runtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"
)

func TestToolMiddleware_PassesThrough(t *testing.T) {
	ctrl := NewController(NewLimits(2))
	mw := NewMiddleware(ctrl)

	called := false
	handler := mw.ToolMiddleware(func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		called = true
		return mcp.NewToolResultText("ok"), nil
	})

	res, err := handler(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	require.NotNil(t, res)
	require.True(t, called)
}

func TestToolMiddleware_BusyWhenCapacityExhausted(t *testing.T) {
	limits := NewLimits(1)
	limits.AcquireRequestTimeout = 50 * time.Millisecond
	ctrl := NewController(limits)
	mw := NewMiddleware(ctrl)

	release := make(chan struct{})
	var wg sync.WaitGroup
	slow := mw.ToolMiddleware(func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		<-release
		return mcp.NewToolResultText("slow done"), nil
	})

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = slow(context.Background(), mcp.CallToolRequest{})
	}()

	// Give the slow call time to occupy the only slot.
	time.Sleep(20 * time.Millisecond)

	fast := mw.ToolMiddleware(func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("fast done"), nil
	})
	res, err := fast(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	require.NotNil(t, res)
	require.True(t, res.IsError)

	close(release)
	wg.Wait()
}

func TestToolMiddleware_TimeoutSurfacesAsToolError(t *testing.T) {
	limits := NewLimits(1)
	limits.OperationTimeout = 20 * time.Millisecond
	ctrl := NewController(limits)
	mw := NewMiddleware(ctrl)

	handler := mw.ToolMiddleware(func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	res, err := handler(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	require.NotNil(t, res)
	require.True(t, res.IsError)
}
