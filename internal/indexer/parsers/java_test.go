package parsers

import (
	"testing"

	"github.com/mvp-joe/cortex-positions/internal/symbols"
	"github.com/stretchr/testify/assert"
)

// Test Plan for Java Adapter:
// - Classes, interfaces, records and enums scope their members
// - Constructors are classified separately from methods
// - Multi-variable field declarations emit one field per name
// - Abstract and interface methods without bodies are declarations
// - Enum constants are members of their enum

func TestJavaAdapter_Fixture(t *testing.T) {
	t.Parallel()

	res := extractFixture(t, "java_positions.java")
	assert.Equal(t, "java", res.Language)

	root := []string{}
	outer := []string{"JavaPositions"}
	assertWants(t, res, []want{
		{"JavaPositions", symbols.KindClass, 7, 13, root, symbols.FormDefinition},
		{"privateField", symbols.KindField, 8, 16, outer, ""},
		{"a", symbols.KindField, 9, 18, outer, ""},
		{"b", symbols.KindField, 9, 21, outer, ""},
		{"LIMIT", symbols.KindField, 10, 21, outer, ""},
		{"JavaPositions", symbols.KindConstructor, 12, 11, outer, symbols.FormDefinition},
		{"JavaPositions", symbols.KindConstructor, 16, 11, outer, symbols.FormDefinition},
		{"simpleMethod", symbols.KindMethod, 20, 16, outer, ""},
		{"staticMethod", symbols.KindMethod, 23, 23, outer, ""},
		{"InnerClass", symbols.KindClass, 27, 10, outer, ""},
		{"innerMethod", symbols.KindMethod, 28, 20, []string{"JavaPositions", "InnerClass"}, ""},
		{"MyInterface", symbols.KindClass, 33, 10, root, ""},
		{"CONSTANT", symbols.KindField, 34, 8, []string{"MyInterface"}, ""},
		{"interfaceMethod", symbols.KindMethod, 35, 9, []string{"MyInterface"}, symbols.FormDeclaration},
		{"defaultMethod", symbols.KindMethod, 37, 17, []string{"MyInterface"}, symbols.FormDefinition},
		{"abstractMethod", symbols.KindMethod, 42, 25, []string{"AbstractClass"}, symbols.FormDeclaration},
		{"Color", symbols.KindEnum, 45, 5, root, ""},
		{"RED", symbols.KindEnumMember, 46, 4, []string{"Color"}, ""},
		{"BLUE", symbols.KindEnumMember, 48, 4, []string{"Color"}, ""},
		{"lower", symbols.KindMethod, 50, 18, []string{"Color"}, ""},
		{"Pair", symbols.KindClass, 55, 7, root, ""},
		{"sum", symbols.KindMethod, 56, 8, []string{"Pair"}, ""},
	})
}

func TestJavaAdapter_LocalVariablesSkipped(t *testing.T) {
	t.Parallel()

	src := "class A {\n    void run() {\n        int local = 1;\n        class Local {}\n    }\n}\n"
	res := extractSource(t, "java", src)

	assert.Len(t, res.Symbols, 2)
	assert.Empty(t, res.Diagnostics)
}
