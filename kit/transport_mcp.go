package kit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Decoder extracts the typed request from MCP tool arguments.
type Decoder func(req *mcp.CallToolRequest) (any, error)

// DecodeJSON returns a Decoder unmarshalling arguments into a fresh T.
// Empty arguments decode to the zero T.
func DecodeJSON[T any]() Decoder {
	return func(req *mcp.CallToolRequest) (any, error) {
		r := new(T)
		if len(req.Params.Arguments) == 0 {
			return r, nil
		}
		if err := json.Unmarshal(req.Params.Arguments, r); err != nil {
			return nil, err
		}
		return r, nil
	}
}

// RegisterMCPTool exposes endpoint as an MCP tool. Responses are returned as
// JSON text content; decode and endpoint errors become tool errors.
func RegisterMCPTool(srv *mcp.Server, tool *mcp.Tool, endpoint Endpoint, decode Decoder) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		decoded, err := decode(req)
		if err != nil {
			return toolError(fmt.Errorf("invalid arguments: %w", err)), nil
		}
		resp, err := endpoint(WithTransport(ctx, "mcp"), decoded)
		if err != nil {
			return toolError(err), nil
		}
		data, err := json.Marshal(resp)
		if err != nil {
			return toolError(fmt.Errorf("marshal: %w", err)), nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

func toolError(err error) *mcp.CallToolResult {
	var res mcp.CallToolResult
	res.SetError(err)
	return &res
}

// InputSchema builds a JSON object schema for tool arguments.
func InputSchema(properties map[string]any, required ...string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}
