package kit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// DecodeFunc turns the raw tool arguments into an endpoint request.
type DecodeFunc func(args json.RawMessage) (any, error)

// Decode returns a DecodeFunc unmarshalling into a fresh T.
func Decode[T any]() DecodeFunc {
	return func(args json.RawMessage) (any, error) {
		var v T
		if len(args) == 0 {
			return &v, nil
		}
		if err := json.Unmarshal(args, &v); err != nil {
			return nil, err
		}
		return &v, nil
	}
}

// RegisterMCPTool exposes endpoint as an MCP tool. Decode and endpoint
// failures come back as tool errors, never as protocol errors; a success is
// the JSON encoding of the response as text content.
func RegisterMCPTool(srv *mcp.Server, tool *mcp.Tool, endpoint Endpoint, decode DecodeFunc) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx = WithTransport(ctx, "mcp")
		var args json.RawMessage
		if req.Params != nil {
			args = req.Params.Arguments
		}
		in, err := decode(args)
		if err != nil {
			return toolError(fmt.Errorf("invalid arguments: %w", err)), nil
		}
		resp, err := endpoint(ctx, in)
		if err != nil {
			return toolError(errors.New(err.Error())), nil
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
