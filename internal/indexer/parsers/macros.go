package parsers

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/cortex-positions/internal/position"
	"github.com/mvp-joe/cortex-positions/internal/symbols"
)

// MacroSyntax describes the preprocessor directives that define macros.
// General-purpose grammars model macros poorly, so they are found by a lexical
// line scan instead of from the tree.
type MacroSyntax struct {
	// Marker opens a directive line, e.g. '#'.
	Marker byte

	// Keyword is the directive that defines a macro, e.g. "define".
	Keyword string

	// Opaque lists tree node categories whose text is not code, such as
	// comments and multi-line string literals. Directive lines inside them
	// are dropped.
	Opaque []string
}

var cPreprocessor = &MacroSyntax{
	Marker:  '#',
	Keyword: "define",
	Opaque:  []string{"comment", "string_literal", "raw_string_literal", "char_literal"},
}

// scanMacros finds every macro definition in source. A trailing backslash joins
// the next physical line into the same logical directive, so continuation
// lines are never mistaken for directives of their own.
func scanMacros(source []byte, idx *position.Index, syntax *MacroSyntax, lang string) ([]symbols.Symbol, []Diagnostic) {
	var found []symbols.Symbol
	var diags []Diagnostic

	lines := idx.LineCount()
	for line := 1; line <= lines; line++ {
		start, _ := idx.LineStart(line)
		end, _ := idx.LineEnd(line)

		// Extend over continuation lines.
		last := line
		for continues(source[start:end]) {
			if last == lines {
				pos, _ := idx.Resolve(start)
				diags = append(diags, Diagnostic{
					Kind:     DiagMacroAmbiguity,
					Position: pos,
					Message:  "line continuation at end of file; directive closed at EOF",
				})
				break
			}
			last++
			end, _ = idx.LineEnd(last)
		}

		if name, at, ok := matchDefine(source, start, end, syntax); ok {
			pos, err := idx.Resolve(at)
			if err == nil {
				found = append(found, symbols.Symbol{
					Name:      name,
					Kind:      symbols.KindMacro,
					Position:  pos,
					ScopePath: []string{},
					Form:      symbols.FormDefinition,
					Language:  lang,
				})
			}
		}
		line = last
	}
	return found, diags
}

// dropOpaque removes macros whose name lies inside an opaque node of the tree.
func dropOpaque(macros []symbols.Symbol, root *sitter.Node, syntax *MacroSyntax) []symbols.Symbol {
	if root == nil || len(syntax.Opaque) == 0 {
		return macros
	}
	opaque := make(map[string]bool, len(syntax.Opaque))
	for _, kind := range syntax.Opaque {
		opaque[kind] = true
	}

	kept := macros[:0]
	for _, m := range macros {
		at := uint(m.Position.Offset)
		inside := false
		for n := root.DescendantForByteRange(at, at+1); n != nil; n = n.Parent() {
			if opaque[n.Kind()] {
				inside = true
				break
			}
		}
		if !inside {
			kept = append(kept, m)
		}
	}
	return kept
}

// continues reports whether a physical line ends with a line-continuation marker.
func continues(line []byte) bool {
	i := len(line) - 1
	for i >= 0 && (line[i] == '\r' || line[i] == ' ' || line[i] == '\t') {
		i--
	}
	return i >= 0 && line[i] == '\\'
}

// matchDefine checks whether the logical line [start, end) is a macro
// definition and returns the macro name and the offset of its first byte.
func matchDefine(source []byte, start, end int, syntax *MacroSyntax) (string, int, bool) {
	i := skipBlank(source, start, end)
	if i >= end || source[i] != syntax.Marker {
		return "", 0, false
	}
	i = skipBlank(source, i+1, end)

	kw := syntax.Keyword
	if end-i < len(kw) || string(source[i:i+len(kw)]) != kw {
		return "", 0, false
	}
	i += len(kw)
	if i < end && isIdentByte(source[i]) {
		// "#defined" or "#define_x" is not the directive.
		return "", 0, false
	}

	at := skipBlank(source, i, end)
	j := at
	for j < end && isIdentByte(source[j]) {
		j++
	}
	if j == at {
		return "", 0, false
	}
	return string(source[at:j]), at, true
}

// skipBlank skips spaces, tabs and backslash-newline pairs.
func skipBlank(source []byte, i, end int) int {
	for i < end {
		switch c := source[i]; {
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == '\\' && i+1 < end && (source[i+1] == '\n' || source[i+1] == '\r'):
			i++
		case c == '\n' && i > 0 && (source[i-1] == '\\' || source[i-1] == '\r'):
			i++
		default:
			return i
		}
	}
	return i
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// String describes the directive for logs.
func (m *MacroSyntax) String() string {
	return fmt.Sprintf("%c%s", m.Marker, m.Keyword)
}
