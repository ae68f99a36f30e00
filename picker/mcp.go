package picker

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/vlypick/kit"
)

// RegisterMCP registers the picker tools on an MCP server.
func RegisterMCP(srv *mcp.Server, reg *Registry) {
	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "vly_list_pages",
		Description: "List pages with an attached element picker and their selection mode.",
		InputSchema: kit.InputSchema(map[string]any{}),
	}, func(context.Context, any) (any, error) {
		list := []PageStatus{}
		for _, s := range reg.List() {
			list = append(list, statusOf(s))
		}
		return map[string]any{"pages": list}, nil
	}, kit.DecodeJSON[struct{}]())

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "vly_set_selection_mode",
		Description: "Turn element selection mode on or off for a page.",
		InputSchema: kit.InputSchema(map[string]any{
			"page":    map[string]any{"type": "string", "description": "Page ID"},
			"enabled": map[string]any{"type": "boolean", "description": "true to start picking"},
		}, "page", "enabled"),
	}, func(ctx context.Context, req any) (any, error) {
		r := req.(*setModeReq)
		s, err := reg.Get(r.Page)
		if err != nil {
			return nil, err
		}
		if err := s.SetSelectionMode(ctx, r.Enabled); err != nil {
			return nil, err
		}
		return statusOf(s), nil
	}, kit.DecodeJSON[setModeReq]())

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "vly_await_selection",
		Description: "Wait for the user to pick an element on a page and return its selector and component hierarchy.",
		InputSchema: kit.InputSchema(map[string]any{
			"page":            map[string]any{"type": "string", "description": "Page ID"},
			"timeout_seconds": map[string]any{"type": "integer", "description": "Maximum wait, default 60, capped at 3600"},
			"include_image":   map[string]any{"type": "boolean", "description": "Include the snapshot data URL"},
		}, "page"),
	}, func(ctx context.Context, req any) (any, error) {
		r := req.(*awaitReq)
		s, err := reg.Get(r.Page)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(ctx, awaitTimeout(r.TimeoutSeconds))
		defer cancel()
		sel, err := s.Await(ctx)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, errors.New("no selection before timeout")
		}
		if err != nil {
			return nil, err
		}
		if !r.IncludeImage {
			sel.Image = ""
		}
		return sel, nil
	}, kit.DecodeJSON[awaitReq]())
}

type setModeReq struct {
	Page    string `json:"page"`
	Enabled bool   `json:"enabled"`
}

type awaitReq struct {
	Page           string `json:"page"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	IncludeImage   bool   `json:"include_image"`
}
