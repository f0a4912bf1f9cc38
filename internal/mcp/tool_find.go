package mcp

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/cortex-positions/internal/search"
)

// AddFindSymbolsTool registers the find_symbols tool with an MCP server.
func AddFindSymbolsTool(s *server.MCPServer, svc *SymbolService) {
	tool := mcp.NewTool(
		"find_symbols",
		mcp.WithDescription(`Find symbols by name across the project.

Matching is case-insensitive. Exact names rank first, then prefixes, then
words inside identifiers ("header" finds parse_header and parseHeader), then
near misses. Use * and ? for wildcards over whole names, and "Outer::inner"
to match qualified names.`),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Symbol name, prefix, word, wildcard or qualified name")),
		mcp.WithString("kind",
			mcp.Description("Only this kind: function, method, class, struct, field, macro, ...")),
		mcp.WithString("language",
			mcp.Description("Only this language")),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (1-200, default: 20)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createFindSymbolsHandler(svc))
}

// FindSymbolsResponse is the JSON response of the find_symbols tool.
type FindSymbolsResponse struct {
	Query         string           `json:"query"`
	Results       []search.Hit     `json:"results"`
	TotalReturned int              `json:"total_returned"`
	Metadata      ResponseMetadata `json:"metadata"`
}

func createFindSymbolsHandler(svc *SymbolService) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		var args findArgs
		if err := bindArguments(request, &args); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if args.Query == "" {
			return mcp.NewToolResultError("query parameter is required"), nil
		}
		kind, err := parseKind(args.Kind)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		index := svc.Index()
		if index == nil {
			return mcp.NewToolResultError("symbol index is not loaded"), nil
		}

		hits, err := index.Search(ctx, args.Query, &search.Options{
			Kind:     kind,
			Language: args.Language,
			Limit:    clamp(args.Limit, 20, 1, 200),
		})
		if err != nil {
			return toolError(err)
		}

		return jsonResult(&FindSymbolsResponse{
			Query:         args.Query,
			Results:       hits,
			TotalReturned: len(hits),
			Metadata: ResponseMetadata{
				TookMs: int(time.Since(start).Milliseconds()),
			},
		})
	}
}
