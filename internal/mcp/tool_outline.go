package mcp

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/cortex-positions/internal/outline"
)

// AddSymbolOutlineTool registers the symbol_outline tool with an MCP server.
func AddSymbolOutlineTool(s *server.MCPServer, svc *SymbolService) {
	tool := mcp.NewTool(
		"symbol_outline",
		mcp.WithDescription(`Show the symbols of one file as a tree of scopes.

Namespaces, classes, structs, unions and enums contain their members. Scopes
that are only named (like the class of an out-of-line method) appear as
implicit entries. Give either a path or inline source plus language.`),
		mcp.WithString("path",
			mcp.Description("File path relative to the project root")),
		mcp.WithString("source",
			mcp.Description("Inline source text; requires language")),
		mcp.WithString("language",
			mcp.Description("Language of the inline source")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createSymbolOutlineHandler(svc))
}

// SymbolOutlineResponse is the JSON response of the symbol_outline tool.
type SymbolOutlineResponse struct {
	Path     string           `json:"path,omitempty"`
	Language string           `json:"language"`
	Outline  []*outline.Entry `json:"outline"`
	Metadata ResponseMetadata `json:"metadata"`
}

func createSymbolOutlineHandler(svc *SymbolService) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		req, err := parseExtractRequest(request, svc.opts)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		result, cached, err := svc.Extract(ctx, req)
		if err != nil {
			return toolError(err)
		}

		o, err := outline.Build(result.Symbols)
		if err != nil {
			return nil, err
		}
		roots, err := o.Roots()
		if err != nil {
			return nil, err
		}

		return jsonResult(&SymbolOutlineResponse{
			Path:     result.Path,
			Language: result.Language,
			Outline:  roots,
			Metadata: ResponseMetadata{
				TookMs: int(time.Since(start).Milliseconds()),
				Cached: cached,
			},
		})
	}
}
