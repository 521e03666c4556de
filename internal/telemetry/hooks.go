// Package telemetry wires structured logging into mcp-go server lifecycle
// callbacks. It is intentionally minimal; metrics backends can be added later
// under this package.
package telemetry

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
)

// NewServerHooks builds mcp-go hooks that log session lifecycle, tool calls,
// and request errors.
func NewServerHooks(logger zerolog.Logger) *server.Hooks {
	log := logger.With().Str("component", "mcp").Logger()
	hooks := &server.Hooks{}

	hooks.AddOnRegisterSession(func(ctx context.Context, session server.ClientSession) {
		log.Info().Str("session_id", session.SessionID()).Msg("session registered")
	})

	hooks.AddOnUnregisterSession(func(ctx context.Context, session server.ClientSession) {
		log.Info().Str("session_id", session.SessionID()).Msg("session unregistered")
	})

	hooks.AddAfterListTools(func(ctx context.Context, id any, req *mcp.ListToolsRequest, res *mcp.ListToolsResult) {
		log.Info().Int("tools", len(res.Tools)).Msg("list_tools served")
	})

	hooks.AddAfterCallTool(func(ctx context.Context, id any, req *mcp.CallToolRequest, res *mcp.CallToolResult) {
		isError := res != nil && res.IsError
		log.Info().Str("tool", req.Params.Name).Bool("is_error", isError).Msg("tool call served")
	})

	hooks.AddOnError(func(ctx context.Context, id any, method mcp.MCPMethod, message any, err error) {
		log.Error().Str("method", string(method)).Err(err).Msg("request error")
	})

	return hooks
}
