package parsers

import (
	"testing"

	"github.com/mvp-joe/cortex-positions/internal/symbols"
	"github.com/mvp-joe/cortex-positions/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for C Adapter:
// - Every declaration in the fixture is emitted in source order with its kind,
//   column, scope path and form
// - Storage-class and inline qualifiers do not move the anchor off the name,
//   on the reference layout with simple_function at (7,5) and
//   static_function at (17,12)
// - Named typedef'd aggregates emit both the tag and the alias
// - Function-pointer typedefs anchor at the pointer declarator
// - Nested aggregates scope their members; plain enums do not open a scope
// - extern variables and prototypes are declarations
// - Preprocessor conditionals are walked through, macros come from the lexical scan

// qualifiedFunctions keeps the line layout of the reference C fixture.
const qualifiedFunctions = `// Test fixture for C tree-sitter position validation
// Line numbers and symbol positions are tested precisely

#include <stdio.h>
#include <stdlib.h>

void simple_function() {} // simple_function at position (line 7, col 5)

int function_with_return() { // function_with_return at position (line 9, col 4)
    return 42;
}

void function_with_params(int param1, char *param2) { // function_with_params at position (line 13, col 5)
    printf("%d %s\n", param1, param2);
}

static void static_function() { // static_function at position (line 17, col 12)
    printf("Static function\n");
}

extern void extern_function(); // extern_function at position (line 21, col 12)

inline int inline_function(int x) { // inline_function at position (line 23, col 11)
    return x * 2;
}
`

func TestCAdapter_QualifiedFunctionAnchors(t *testing.T) {
	t.Parallel()

	res := extractSource(t, "c", qualifiedFunctions)

	def, decl := symbols.FormDefinition, symbols.FormDeclaration
	root := []string{}
	assertWants(t, res, []want{
		{"simple_function", symbols.KindFunction, 7, 5, root, def},
		{"function_with_return", symbols.KindFunction, 9, 4, root, def},
		{"function_with_params", symbols.KindFunction, 13, 5, root, def},
		{"static_function", symbols.KindFunction, 17, 12, root, def},
		{"extern_function", symbols.KindFunction, 21, 12, root, decl},
		{"inline_function", symbols.KindFunction, 23, 11, root, def},
	})

	expected, err := validator.ParseFixture([]byte(qualifiedFunctions))
	require.NoError(t, err)
	require.Len(t, expected, 6)
	assert.Empty(t, validator.Compare(expected, res.Symbols))
}

func TestCAdapter_FixtureSymbols(t *testing.T) {
	t.Parallel()

	res := extractFixture(t, "c_positions.c")
	assert.Equal(t, "c", res.Language)

	def, decl := symbols.FormDefinition, symbols.FormDeclaration
	root := []string{}
	expected := []want{
		{"simple_function", symbols.KindFunction, 6, 5, root, def},
		{"function_with_return", symbols.KindFunction, 8, 4, root, def},
		{"static_function", symbols.KindFunction, 12, 12, root, def},
		{"extern_function", symbols.KindFunction, 17, 12, root, decl},
		{"inline_function", symbols.KindFunction, 19, 11, root, def},
		{"pointer_return", symbols.KindFunction, 23, 6, root, def},
		{"SimpleStruct", symbols.KindStruct, 27, 7, root, def},
		{"field1", symbols.KindField, 28, 8, []string{"SimpleStruct"}, def},
		{"field2", symbols.KindField, 29, 10, []string{"SimpleStruct"}, def},
		{"flags", symbols.KindField, 30, 13, []string{"SimpleStruct"}, def},
		{"x", symbols.KindField, 34, 8, []string{"Point"}, def},
		{"y", symbols.KindField, 35, 8, []string{"Point"}, def},
		{"Point", symbols.KindTypedef, 36, 2, root, def},
		{"NamedStruct", symbols.KindStruct, 38, 15, root, def},
		{"value", symbols.KindField, 39, 10, []string{"NamedStruct"}, def},
		{"NamedStructAlias", symbols.KindTypedef, 40, 2, root, def},
		{"NamedStructPtr", symbols.KindTypedef, 40, 21, root, def},
		{"SimpleUnion", symbols.KindUnion, 42, 6, root, def},
		{"i", symbols.KindField, 43, 8, []string{"SimpleUnion"}, def},
		{"f", symbols.KindField, 44, 10, []string{"SimpleUnion"}, def},
		{"c", symbols.KindField, 45, 9, []string{"SimpleUnion"}, def},
		{"Color", symbols.KindEnum, 48, 5, root, def},
		{"RED", symbols.KindEnumMember, 49, 4, root, def},
		{"GREEN", symbols.KindEnumMember, 50, 4, root, def},
		{"BLUE", symbols.KindEnumMember, 51, 4, root, def},
		{"SMALL", symbols.KindEnumMember, 55, 4, root, def},
		{"LARGE", symbols.KindEnumMember, 56, 4, root, def},
		{"Size", symbols.KindTypedef, 57, 2, root, def},
		{"FunctionPtr", symbols.KindTypedef, 59, 13, root, def},
		{"Outer", symbols.KindStruct, 61, 7, root, def},
		{"Inner", symbols.KindStruct, 62, 11, []string{"Outer"}, def},
		{"depth", symbols.KindField, 63, 12, []string{"Outer", "Inner"}, def},
		{"inner", symbols.KindField, 64, 6, []string{"Outer"}, def},
		{"callback", symbols.KindField, 65, 10, []string{"Outer"}, def},
		{"global_var", symbols.KindGlobalVariable, 68, 4, root, def},
		{"static_var", symbols.KindGlobalVariable, 69, 11, root, def},
		{"extern_var", symbols.KindGlobalVariable, 70, 11, root, decl},
		{"a", symbols.KindGlobalVariable, 71, 10, root, def},
		{"b", symbols.KindGlobalVariable, 71, 17, root, def},
		{"table", symbols.KindGlobalVariable, 72, 4, root, def},
		{"MAX_SIZE", symbols.KindMacro, 74, 8, root, def},
		{"SQUARE", symbols.KindMacro, 75, 8, root, def},
		{"DEBUG_PRINT", symbols.KindMacro, 77, 8, root, def},
		{"SPACED", symbols.KindMacro, 79, 10, root, def},
		{"extra_function", symbols.KindFunction, 82, 4, root, decl},
		{"fallback_function", symbols.KindFunction, 84, 4, root, decl},
		{"main", symbols.KindFunction, 87, 4, root, def},
	}

	require.Len(t, res.Symbols, len(expected))
	for i, w := range expected {
		got := res.Symbols[i]
		assert.Equal(t, w.name, got.Name, "symbol %d", i)
		assert.Equal(t, w.kind, got.Kind, "kind of %s", w.name)
		assert.Equal(t, w.line, got.Position.Line, "line of %s", w.name)
		assert.Equal(t, w.col, got.Position.Column, "column of %s", w.name)
		assert.Equal(t, w.scope, got.ScopePath, "scope of %s", w.name)
		assert.Equal(t, w.form, got.Form, "form of %s", w.name)
		assert.Equal(t, "c", got.Language)
	}
}

func TestCAdapter_LocalsAreNotSymbols(t *testing.T) {
	t.Parallel()

	res := extractSource(t, "c", "int main(void) {\n    int local = 0;\n    struct S { int z; } s;\n    return local;\n}\n")

	require.Len(t, res.Symbols, 1)
	assert.Equal(t, "main", res.Symbols[0].Name)
}

func TestCAdapter_ForwardDeclarations(t *testing.T) {
	t.Parallel()

	res := extractSource(t, "c", "struct Node;\nstruct Node *head;\nint (*handler)(int);\n")

	require.Len(t, res.Symbols, 3)
	assert.Equal(t, "Node", res.Symbols[0].Name)
	assert.Equal(t, symbols.KindStruct, res.Symbols[0].Kind)
	assert.Equal(t, symbols.FormDeclaration, res.Symbols[0].Form)

	assert.Equal(t, "head", res.Symbols[1].Name)
	assert.Equal(t, symbols.KindGlobalVariable, res.Symbols[1].Kind)
	assert.Equal(t, 13, res.Symbols[1].Position.Column)

	// A pointer to a function is a variable, not a prototype.
	assert.Equal(t, "handler", res.Symbols[2].Name)
	assert.Equal(t, symbols.KindGlobalVariable, res.Symbols[2].Kind)
	assert.Equal(t, 6, res.Symbols[2].Position.Column)
}

func TestCAdapter_AnonymousMembers(t *testing.T) {
	t.Parallel()

	src := "struct Value {\n    int tag;\n    union {\n        int i;\n        float f;\n    };\n};\n"
	res := extractSource(t, "c", src)

	assertWants(t, res, []want{
		{name: "Value", kind: symbols.KindStruct, line: 1, col: 7, scope: []string{}},
		{name: "tag", kind: symbols.KindField, line: 2, col: 8, scope: []string{"Value"}},
		{name: "i", kind: symbols.KindField, line: 4, col: 12, scope: []string{"Value"}},
		{name: "f", kind: symbols.KindField, line: 5, col: 14, scope: []string{"Value"}},
	})
	assert.Len(t, res.Symbols, 4)
}
