package registry

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tablegate/tablegate/pkg/toolerr"
)

// writePrefixes marks tools that mutate gateway data.
var writePrefixes = []string{"create_", "update_", "delete_", "batch_", "sync_"}

// WriteToolFilter hides mutating tools from discovery unless writes are
// enabled in configuration.
type WriteToolFilter struct {
	allowWrites bool
}

// NewWriteToolFilter constructs a filter from the enable_writes setting.
func NewWriteToolFilter(allowWrites bool) *WriteToolFilter {
	return &WriteToolFilter{allowWrites: allowWrites}
}

// FilterTools implements server tool filtering semantics. When writes are
// disabled, tools whose names carry a write prefix are excluded from
// discovery. create_metadata_table writes records, so it is gated too.
func (f *WriteToolFilter) FilterTools(ctx context.Context, tools []mcp.Tool) []mcp.Tool {
	if f.allowWrites {
		return tools
	}
	out := make([]mcp.Tool, 0, len(tools))
	for _, t := range tools {
		if isWriteTool(t.Name) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Allowed reports whether the named tool passes the filter.
func (f *WriteToolFilter) Allowed(name string) bool {
	return f.allowWrites || !isWriteTool(name)
}

// ToolMiddleware rejects calls to gated tools so that hiding a tool from
// discovery also blocks direct invocation.
func (f *WriteToolFilter) ToolMiddleware(next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if !f.Allowed(req.Params.Name) {
			msg := toolerr.Newf(toolerr.Validation, "tool %s modifies data and writes are disabled; set TABLEGATE_ENABLE_WRITES=true to enable it", req.Params.Name)
			return mcp.NewToolResultError(msg), nil
		}
		return next(ctx, req)
	}
}

func isWriteTool(name string) bool {
	lower := strings.ToLower(name)
	for _, prefix := range writePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
