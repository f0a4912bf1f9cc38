package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/cortex-positions/internal/indexer/parsers"
)

// AddExtractSymbolsTool registers the extract_symbols tool with an MCP server.
func AddExtractSymbolsTool(s *server.MCPServer, svc *SymbolService) {
	tool := mcp.NewTool(
		"extract_symbols",
		mcp.WithDescription(`Extract every declared symbol of one source file with its exact position.

Give either a path (relative to the project root) or inline source plus language.
Each symbol has name, kind, 1-based line, 0-based byte column, byte offset,
scope path (enclosing namespaces/classes) and form (definition or declaration).

Languages: c, cpp, python, java, go, rust, typescript, tsx, javascript, ruby, php.`),
		mcp.WithString("path",
			mcp.Description("File path relative to the project root")),
		mcp.WithString("source",
			mcp.Description("Inline source text; requires language")),
		mcp.WithString("language",
			mcp.Description("Language of the inline source")),
		mcp.WithBoolean("strict",
			mcp.Description("Fail on syntax errors instead of skipping them")),
		mcp.WithBoolean("macros",
			mcp.Description("Include #define macros for C and C++ (default: true)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createExtractSymbolsHandler(svc))
}

// ExtractSymbolsResponse is the JSON response of the extract_symbols tool.
type ExtractSymbolsResponse struct {
	Result   *parsers.Result  `json:"result"`
	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata contains timing and cache information.
type ResponseMetadata struct {
	TookMs int  `json:"took_ms"`
	Cached bool `json:"cached,omitempty"`
}

func createExtractSymbolsHandler(svc *SymbolService) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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

		return jsonResult(&ExtractSymbolsResponse{
			Result: result,
			Metadata: ResponseMetadata{
				TookMs: int(time.Since(start).Milliseconds()),
				Cached: cached,
			},
		})
	}
}

func parseExtractRequest(request mcp.CallToolRequest, defaults parsers.Options) (ExtractRequest, error) {
	var args extractArgs
	if err := bindArguments(request, &args); err != nil {
		return ExtractRequest{}, err
	}

	req := ExtractRequest{
		Path:     args.Path,
		Source:   args.Source,
		Language: args.Language,
		Options: parsers.Options{
			Strict:     boolOr(args.Strict, defaults.Strict),
			SkipMacros: !boolOr(args.Macros, !defaults.SkipMacros),
		},
	}
	if req.Path != "" && req.Source != "" {
		return req, fmt.Errorf("path and source are mutually exclusive")
	}
	if req.Path == "" && req.Source == "" {
		return req, fmt.Errorf("either path or source is required")
	}
	return req, nil
}

// toolError reports a failed extraction to the caller. Cancellation stays a
// system error.
func toolError(err error) (*mcp.CallToolResult, error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}
	return mcp.NewToolResultError(err.Error()), nil
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
