package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/cortex-positions/internal/indexer/parsers"
	"github.com/mvp-joe/cortex-positions/internal/search"
	"github.com/mvp-joe/cortex-positions/internal/symbols"
)

// Test Plan for MCP tools:
// - extract_symbols returns symbols for inline source and for a root-relative path
// - A second identical call is served from the result cache
// - Paths outside the project root, unknown languages and missing inputs are tool errors
// - Strict mode turns syntax errors into a tool error
// - The macros flag controls #define symbols
// - find_symbols searches the index, honors kind filters and reports a missing index
// - symbol_outline nests members under their scopes
// - NewMCPServer indexes the project and reindex picks up added and removed files

const cSource = "#define LIMIT 10\nstruct Point { int x; };\nint area(int w) { return w; }\n"

func newService(t *testing.T, root string) *SymbolService {
	t.Helper()
	cache, err := NewResultCache(10_000)
	require.NoError(t, err)
	t.Cleanup(cache.Close)
	return NewSymbolService(root, parsers.Options{}, cache, nil)
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]interface{}) (*mcp.CallToolResult, string) {
	t.Helper()
	result, err := handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: args},
	})
	require.NoError(t, err, "should not return system error")
	require.NotNil(t, result)
	textContent, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok, "should be text content")
	return result, textContent.Text
}

func symbolNames(syms []symbols.Symbol) []string {
	out := make([]string, len(syms))
	for i, s := range syms {
		out[i] = s.Name
	}
	return out
}

func TestExtractSymbols_InlineSource(t *testing.T) {
	t.Parallel()

	handler := createExtractSymbolsHandler(newService(t, t.TempDir()))
	args := map[string]interface{}{"source": cSource, "language": "c"}

	result, text := call(t, handler, args)
	require.False(t, result.IsError, text)

	var resp ExtractSymbolsResponse
	require.NoError(t, json.Unmarshal([]byte(text), &resp))
	assert.Equal(t, "c", resp.Result.Language)
	assert.Equal(t, []string{"LIMIT", "Point", "x", "area"}, symbolNames(resp.Result.Symbols))
	assert.False(t, resp.Metadata.Cached)

	_, text = call(t, handler, args)
	require.NoError(t, json.Unmarshal([]byte(text), &resp))
	assert.True(t, resp.Metadata.Cached)
}

func TestExtractSymbols_Path(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "shapes.c"), []byte(cSource), 0o644))

	handler := createExtractSymbolsHandler(newService(t, root))
	result, text := call(t, handler, map[string]interface{}{"path": "src/shapes.c"})
	require.False(t, result.IsError, text)

	var resp ExtractSymbolsResponse
	require.NoError(t, json.Unmarshal([]byte(text), &resp))
	assert.Equal(t, "src/shapes.c", resp.Result.Path)
	assert.Len(t, resp.Result.Symbols, 4)
}

func TestExtractSymbols_Errors(t *testing.T) {
	t.Parallel()

	handler := createExtractSymbolsHandler(newService(t, t.TempDir()))

	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{"missing input", map[string]interface{}{}, "either path or source is required"},
		{"both inputs", map[string]interface{}{"path": "a.c", "source": "int x;"}, "mutually exclusive"},
		{"source without language", map[string]interface{}{"source": "int x;"}, "language is required"},
		{"unknown language", map[string]interface{}{"source": "x", "language": "cobol"}, "unsupported language"},
		{"outside root", map[string]interface{}{"path": "../../etc/passwd.c"}, "outside the project root"},
		{"missing file", map[string]interface{}{"path": "nope.c"}, "failed to read"},
		{"strict syntax error", map[string]interface{}{"source": "int (;", "language": "c", "strict": true}, "parse error"},
		{"strict sent as string", map[string]interface{}{"source": "int (;", "language": "c", "strict": "true"}, "parse error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, text := call(t, handler, tt.args)
			assert.True(t, result.IsError, "should be error result")
			assert.Contains(t, text, tt.want)
		})
	}
}

func TestExtractSymbols_MacrosFlag(t *testing.T) {
	t.Parallel()

	handler := createExtractSymbolsHandler(newService(t, t.TempDir()))
	_, text := call(t, handler, map[string]interface{}{"source": cSource, "language": "c", "macros": false})

	var resp ExtractSymbolsResponse
	require.NoError(t, json.Unmarshal([]byte(text), &resp))
	assert.Equal(t, []string{"Point", "x", "area"}, symbolNames(resp.Result.Symbols))
}

func TestFindSymbols(t *testing.T) {
	t.Parallel()

	svc := newService(t, t.TempDir())
	handler := createFindSymbolsHandler(svc)

	result, text := call(t, handler, map[string]interface{}{"query": "area"})
	assert.True(t, result.IsError)
	assert.Contains(t, text, "not loaded")

	result, text = call(t, handler, map[string]interface{}{})
	assert.True(t, result.IsError)
	assert.Contains(t, text, "query parameter is required")

	r, _, err := svc.Extract(context.Background(), ExtractRequest{Source: cSource, Language: "c"})
	require.NoError(t, err)
	r.Path = "shapes.c"
	index, err := search.NewSymbolIndex(context.Background(), []*parsers.Result{r})
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })
	svc.SetIndex(index)

	result, text = call(t, handler, map[string]interface{}{"query": "AREA"})
	require.False(t, result.IsError, text)
	var resp FindSymbolsResponse
	require.NoError(t, json.Unmarshal([]byte(text), &resp))
	require.Equal(t, 1, resp.TotalReturned)
	assert.Equal(t, "shapes.c", resp.Results[0].Path)
	assert.Equal(t, 3, resp.Results[0].Symbol.Position.Line)

	_, text = call(t, handler, map[string]interface{}{"query": "*", "kind": "field"})
	require.NoError(t, json.Unmarshal([]byte(text), &resp))
	require.Equal(t, 1, resp.TotalReturned)
	assert.Equal(t, "x", resp.Results[0].Symbol.Name)

	result, text = call(t, handler, map[string]interface{}{"query": "x", "kind": "gadget"})
	assert.True(t, result.IsError)
	assert.Contains(t, text, "unknown symbol kind")
}

func TestSymbolOutline(t *testing.T) {
	t.Parallel()

	handler := createSymbolOutlineHandler(newService(t, t.TempDir()))
	result, text := call(t, handler, map[string]interface{}{"source": cSource, "language": "c"})
	require.False(t, result.IsError, text)

	var resp SymbolOutlineResponse
	require.NoError(t, json.Unmarshal([]byte(text), &resp))
	require.Len(t, resp.Outline, 3)
	assert.Equal(t, "Point", resp.Outline[1].Name)
	require.Len(t, resp.Outline[1].Children, 1)
	assert.Equal(t, "x", resp.Outline[1].Children[0].Name)
}

func TestMCPServer_IndexAndReindex(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(root, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}
	first := write("first.c", "int alpha(void) { return 1; }\n")

	cfg := DefaultMCPServerConfig()
	cfg.RootDir = root
	cfg.Watch = false
	s, err := NewMCPServer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	hits, err := s.service.Index().Search(ctx, "alpha", nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "first.c", hits[0].Path)

	second := write("second.c", "int beta(void) { return 2; }\n")
	require.NoError(t, os.Remove(first))
	s.reindex(ctx, []string{first, second})

	hits, err = s.service.Index().Search(ctx, "alpha", nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
	hits, err = s.service.Index().Search(ctx, "beta", nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "second.c", hits[0].Path)
}
