package parsers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mvp-joe/cortex-positions/internal/position"
	"github.com/mvp-joe/cortex-positions/internal/symbols"
	"github.com/mvp-joe/cortex-positions/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Symbol Table Builder:
// - Every fixture extracts exactly the annotated symbols at the annotated positions
// - Output is in non-decreasing (line, column) order
// - Anonymous typedef'd aggregates yield one Typedef and Field members only
// - Overloads are kept as distinct symbols
// - Strict mode turns syntax errors into *ParseError; lenient mode reports them
// - Node categories without a rule produce an unsupported_node_type diagnostic
// - Extraction is independent per call and safe to run concurrently
// - The adapter registry resolves languages and extensions

const fixtureDir = "../../../testdata/positions"

// want describes one expected symbol. An empty form is not checked.
type want struct {
	name  string
	kind  symbols.Kind
	line  int
	col   int
	scope []string
	form  symbols.Form
}

func extractFixture(t *testing.T, name string) *Result {
	t.Helper()
	res, err := ParseFile(context.Background(), filepath.Join(fixtureDir, name), Options{})
	require.NoError(t, err)
	return res
}

func extractSource(t *testing.T, lang, src string) *Result {
	t.Helper()
	adapter, err := ForLanguage(lang)
	require.NoError(t, err)
	res, err := ParseAndExtract(context.Background(), []byte(src), adapter, Options{})
	require.NoError(t, err)
	return res
}

// findAt returns the symbol with the given name on the given line.
func findAt(t *testing.T, res *Result, name string, line int) symbols.Symbol {
	t.Helper()
	for _, s := range res.Symbols {
		if s.Name == name && s.Position.Line == line {
			return s
		}
	}
	require.Failf(t, "symbol not found", "%s on line %d", name, line)
	return symbols.Symbol{}
}

func assertWants(t *testing.T, res *Result, wants []want) {
	t.Helper()
	for _, w := range wants {
		got := findAt(t, res, w.name, w.line)
		assert.Equal(t, w.kind, got.Kind, "kind of %s on line %d", w.name, w.line)
		assert.Equal(t, w.col, got.Position.Column, "column of %s on line %d", w.name, w.line)
		if w.scope != nil {
			assert.Equal(t, w.scope, got.ScopePath, "scope of %s on line %d", w.name, w.line)
		}
		if w.form != "" {
			assert.Equal(t, w.form, got.Form, "form of %s on line %d", w.name, w.line)
		}
	}
}

func TestExtract_FixturesMatchAnnotations(t *testing.T) {
	t.Parallel()

	fixtures := []struct {
		file     string
		language string
	}{
		{"c_positions.c", "c"},
		{"cpp_positions.cpp", "cpp"},
		{"python_positions.py", "python"},
		{"java_positions.java", "java"},
		{"go_positions.go", "go"},
	}

	for _, fx := range fixtures {
		t.Run(fx.file, func(t *testing.T) {
			t.Parallel()

			res := extractFixture(t, fx.file)
			assert.Equal(t, fx.language, res.Language)
			assert.Empty(t, res.Diagnostics)

			expected, err := validator.LoadFixture(filepath.Join(fixtureDir, fx.file))
			require.NoError(t, err)
			require.NotEmpty(t, expected)

			for _, m := range validator.Compare(expected, res.Symbols) {
				t.Errorf("%s: %s", fx.file, m)
			}
		})
	}
}

func TestExtract_SourceOrder(t *testing.T) {
	t.Parallel()

	for _, file := range []string{"c_positions.c", "cpp_positions.cpp", "python_positions.py", "java_positions.java", "go_positions.go"} {
		res := extractFixture(t, file)
		for i := 1; i < len(res.Symbols); i++ {
			prev, cur := res.Symbols[i-1].Position, res.Symbols[i].Position
			assert.False(t, cur.Before(prev), "%s: %s emitted after %s", file, cur, prev)
			assert.Less(t, prev.Offset, cur.Offset+1)
		}
	}
}

func TestExtract_PositionsPointAtNames(t *testing.T) {
	t.Parallel()

	res := extractFixture(t, "cpp_positions.cpp")
	source := readFixture(t, "cpp_positions.cpp")
	idx := position.New(source)

	for _, s := range res.Symbols {
		offset, err := idx.ResolveInverse(s.Position.Line, s.Position.Column)
		require.NoError(t, err)
		assert.Equal(t, s.Position.Offset, offset)

		text := string(source[offset:])
		switch s.Kind {
		case symbols.KindOperator:
			assert.True(t, len(text) >= len("operator") && text[:len("operator")] == "operator", "operator %s", s)
		default:
			assert.True(t, len(text) >= len(s.Name) && text[:len(s.Name)] == s.Name, "anchor of %s", s)
		}
	}
}

func TestExtract_AnonymousTypedefStruct(t *testing.T) {
	t.Parallel()

	res := extractSource(t, "c", "typedef struct {\n    int x;\n    int y;\n} Point;\n")

	var nonFields []symbols.Symbol
	for _, s := range res.Symbols {
		if s.Kind != symbols.KindField {
			nonFields = append(nonFields, s)
			continue
		}
		assert.Equal(t, []string{"Point"}, s.ScopePath)
	}

	require.Len(t, nonFields, 1)
	assert.Equal(t, "Point", nonFields[0].Name)
	assert.Equal(t, symbols.KindTypedef, nonFields[0].Kind)
	assert.Equal(t, position.Position{Line: 4, Column: 2, Offset: 41}, nonFields[0].Position)
	assert.Len(t, res.Symbols, 3)
}

func TestExtract_Overloads(t *testing.T) {
	t.Parallel()

	src := "void f() {}\nvoid f(int a) {}\nvoid f(const char* s) {}\n"
	res := extractSource(t, "cpp", src)

	require.Len(t, res.Symbols, 3)
	for i, s := range res.Symbols {
		assert.Equal(t, "f", s.Name)
		assert.Equal(t, symbols.KindFunction, s.Kind)
		assert.Equal(t, []string{}, s.ScopePath)
		assert.Equal(t, i+1, s.Position.Line)
		assert.Equal(t, 5, s.Position.Column)
	}
}

func TestExtract_ScopePathSnapshot(t *testing.T) {
	t.Parallel()

	src := "namespace A {\nclass B {\n  void m();\n};\n}\nvoid top();\n"
	res := extractSource(t, "cpp", src)

	require.Len(t, res.Symbols, 4)
	assert.Equal(t, []string{}, res.Symbols[0].ScopePath)
	assert.Equal(t, []string{"A"}, res.Symbols[1].ScopePath)
	assert.Equal(t, []string{"A", "B"}, res.Symbols[2].ScopePath)
	assert.Equal(t, symbols.KindMethod, res.Symbols[2].Kind)
	assert.Equal(t, []string{}, res.Symbols[3].ScopePath)
	assert.Equal(t, symbols.KindFunction, res.Symbols[3].Kind)
}

func TestExtract_StrictMode(t *testing.T) {
	t.Parallel()

	adapter, err := ForLanguage("c")
	require.NoError(t, err)
	src := []byte("int ok;\n)))\n")

	_, err = ParseAndExtract(context.Background(), src, adapter, Options{Strict: true})
	require.Error(t, err)
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "c", pe.Language)
	assert.Equal(t, 2, pe.Position.Line)

	res, err := ParseAndExtract(context.Background(), src, adapter, Options{})
	require.NoError(t, err)
	require.NotEmpty(t, res.Symbols)
	assert.Equal(t, "ok", res.Symbols[0].Name)
	require.NotEmpty(t, res.Diagnostics)
	assert.Equal(t, DiagSyntaxError, res.Diagnostics[0].Kind)
}

func TestExtract_UnsupportedNode(t *testing.T) {
	t.Parallel()

	c, err := ForLanguage("c")
	require.NoError(t, err)

	bare := (&Adapter{
		Name:        "c",
		Grammar:     c.Grammar,
		Rules:       map[string]Rule{},
		Transparent: set("translation_unit"),
		Ignored:     set("comment"),
	}).finalize()

	res, err := ParseAndExtract(context.Background(), []byte("// note\nint x;\n"), bare, Options{})
	require.NoError(t, err)

	assert.Empty(t, res.Symbols)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, DiagUnsupportedNode, res.Diagnostics[0].Kind)
	assert.Equal(t, "declaration", res.Diagnostics[0].NodeKind)
	assert.Equal(t, 2, res.Diagnostics[0].Position.Line)
}

func TestExtract_SkipMacros(t *testing.T) {
	t.Parallel()

	adapter, err := ForLanguage("c")
	require.NoError(t, err)
	src := []byte("#define A 1\nint b;\n")

	res, err := ParseAndExtract(context.Background(), src, adapter, Options{})
	require.NoError(t, err)
	require.Len(t, res.Symbols, 2)
	assert.Equal(t, symbols.KindMacro, res.Symbols[0].Kind)

	res, err = ParseAndExtract(context.Background(), src, adapter, Options{SkipMacros: true})
	require.NoError(t, err)
	require.Len(t, res.Symbols, 1)
	assert.Equal(t, "b", res.Symbols[0].Name)
}

func TestExtract_Concurrent(t *testing.T) {
	t.Parallel()

	adapter, err := ForLanguage("cpp")
	require.NoError(t, err)
	source := readFixture(t, "cpp_positions.cpp")

	first, err := ParseAndExtract(context.Background(), source, adapter, Options{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*Result, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = ParseAndExtract(context.Background(), source, adapter, Options{})
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, first.Symbols, results[i].Symbols)
	}
}

func TestParseAndExtract_CancelledContext(t *testing.T) {
	t.Parallel()

	adapter, err := ForLanguage("c")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = ParseAndExtract(ctx, []byte("int x;"), adapter, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseFile_Errors(t *testing.T) {
	t.Parallel()

	_, err := ParseFile(context.Background(), "notes.txt", Options{})
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)

	_, err = ParseFile(context.Background(), filepath.Join(fixtureDir, "missing.c"), Options{})
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"main.c":        "c",
		"defs.h":        "c",
		"impl.cpp":      "cpp",
		"impl.CC":       "cpp",
		"types.hpp":     "cpp",
		"script.py":     "python",
		"App.java":      "java",
		"main.go":       "go",
		"lib.rs":        "rust",
		"index.ts":      "typescript",
		"view.tsx":      "tsx",
		"app.js":        "javascript",
		"task.rb":       "ruby",
		"index.php":     "php",
		"README.md":     "unknown",
		"Makefile":      "unknown",
		"dir/sub/x.hxx": "cpp",
	}
	for path, lang := range cases {
		assert.Equal(t, lang, DetectLanguage(path), path)
	}

	_, err := ForLanguage("cobol")
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)

	a, err := ForLanguage("CPP")
	require.NoError(t, err)
	assert.Equal(t, "cpp", a.Name)

	langs := Languages()
	assert.Subset(t, langs, []string{"c", "cpp", "go", "java", "python", "rust", "typescript", "tsx", "javascript", "ruby", "php"})
	assert.IsIncreasing(t, langs)
	assert.Contains(t, Extensions(), ".cpp")
}

func TestErrors_Formatting(t *testing.T) {
	t.Parallel()

	pe := &ParseError{Path: "a.c", Language: "c", Reason: "syntax tree contains errors", Position: position.Position{Line: 3, Column: 1}}
	assert.Equal(t, "parse error in a.c (c) at 3:1: syntax tree contains errors", pe.Error())

	pe = &ParseError{Language: "c", Reason: "no syntax tree"}
	assert.Equal(t, "parse error in <source> (c): no syntax tree", pe.Error())

	inner := &position.ResolutionError{Offset: 99, Size: 10}
	ae := &AnchorError{NodeKind: "identifier", Offset: 99, Err: inner}
	assert.Contains(t, ae.Error(), "identifier at offset 99")
	var re *position.ResolutionError
	assert.True(t, errors.As(ae, &re))
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(fixtureDir, name))
	require.NoError(t, err)
	return data
}
