package parsers

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	c "github.com/tree-sitter/tree-sitter-c/bindings/go"
)

// newCAdapter describes the C grammar.
func newCAdapter() *Adapter {
	return (&Adapter{
		Name:        "c",
		Extensions:  []string{".c", ".h"},
		Grammar:     sitter.NewLanguage(c.Language()),
		Rules:       cFamilyRules(),
		Transparent: cFamilyTransparent(),
		Ignored:     cFamilyIgnored(),
		Macros:      cPreprocessor,
	}).finalize()
}
