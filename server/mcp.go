package server

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/richedit/kit"
	"github.com/hazyhaar/richedit/sanitize"
)

// RegisterMCP adds the document tools to srv.
func (s *Server) RegisterMCP(srv *mcp.Server) {
	RegisterMCP(srv, s.log)
}

// RegisterMCP adds richedit_sanitize, richedit_check and richedit_export to
// srv. The tools are stateless and need neither sessions nor a store.
func RegisterMCP(srv *mcp.Server, logger *slog.Logger) {
	registerSanitizeTool(srv, logger)
	registerCheckTool(srv, logger)
	registerExportTool(srv, logger)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

var htmlProp = map[string]any{"type": "string", "description": "HTML fragment"}

// --- sanitize ---

type sanitizeReq struct {
	HTML string `json:"html"`
}

func registerSanitizeTool(srv *mcp.Server, logger *slog.Logger) {
	tool := &mcp.Tool{
		Name:        "richedit_sanitize",
		Description: "Sanitize an HTML fragment the way the editor stores it: unsafe markup removed, editor markers stripped, cosmetic noise normalised.",
		InputSchema: inputSchema(map[string]any{"html": htmlProp}, []string{"html"}),
	}

	endpoint := func(_ context.Context, req any) (any, error) {
		r := req.(*sanitizeReq)
		return map[string]any{"html": sanitize.ForOutput(r.HTML)}, nil
	}

	kit.RegisterMCPTool(srv, tool, kit.Logging(logger, tool.Name)(endpoint), kit.Decode[sanitizeReq]())
}

// --- check ---

func registerCheckTool(srv *mcp.Server, logger *slog.Logger) {
	tool := &mcp.Tool{
		Name:        "richedit_check",
		Description: "Report whether an HTML fragment carries dangerous content, whether sanitizing changes it and whether it counts as empty.",
		InputSchema: inputSchema(map[string]any{"html": htmlProp}, []string{"html"}),
	}

	endpoint := func(_ context.Context, req any) (any, error) {
		r := req.(*sanitizeReq)
		clean := sanitize.ForOutput(r.HTML)
		return map[string]any{
			"dangerous": sanitize.LooksDangerous(r.HTML),
			"changed":   clean != r.HTML,
			"empty":     sanitize.IsEmpty(clean),
		}, nil
	}

	kit.RegisterMCPTool(srv, tool, kit.Logging(logger, tool.Name)(endpoint), kit.Decode[sanitizeReq]())
}

// --- export ---

type exportReq struct {
	HTML   string `json:"html"`
	Format string `json:"format"`
}

func registerExportTool(srv *mcp.Server, logger *slog.Logger) {
	tool := &mcp.Tool{
		Name:        "richedit_export",
		Description: "Convert a sanitized HTML fragment to markdown or plain text.",
		InputSchema: inputSchema(map[string]any{
			"html":   htmlProp,
			"format": map[string]any{"type": "string", "enum": []string{"markdown", "text", "html"}, "description": "Output format (default markdown)"},
		}, []string{"html"}),
	}

	kit.RegisterMCPTool(srv, tool, kit.Logging(logger, tool.Name)(exportEndpoint), kit.Decode[exportReq]())
}
