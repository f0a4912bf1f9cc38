package parsers

import (
	"unsafe"

	sitter "github.com/tree-sitter/go-tree-sitter"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/mvp-joe/cortex-positions/internal/symbols"
)

// newTypeScriptAdapter describes TypeScript. Plain JavaScript parses with the
// same grammar and gets its own adapter name.
func newTypeScriptAdapter() *Adapter {
	return newECMAScriptAdapter("typescript", []string{".ts", ".mts", ".cts"}, typescript.LanguageTypescript())
}

func newTSXAdapter() *Adapter {
	return newECMAScriptAdapter("tsx", []string{".tsx", ".jsx"}, typescript.LanguageTSX())
}

func newJavaScriptAdapter() *Adapter {
	return newECMAScriptAdapter("javascript", []string{".js", ".mjs", ".cjs"}, typescript.LanguageTypescript())
}

func newECMAScriptAdapter(name string, extensions []string, grammar unsafe.Pointer) *Adapter {
	classRule := Rule{Kind: symbols.KindClass, NameField: "name", BodyField: "body", Scope: true}
	variables := Rule{Kind: symbols.KindGlobalVariable, Expand: expandECMAVariables}

	return (&Adapter{
		Name:       name,
		Extensions: extensions,
		Grammar:    sitter.NewLanguage(grammar),
		Rules: map[string]Rule{
			"function_declaration":           {Kind: symbols.KindFunction, Expand: expandECMAFunction},
			"generator_function_declaration": {Kind: symbols.KindFunction, Expand: expandECMAFunction},
			"function_signature":             {Kind: symbols.KindFunction, Expand: expandECMAFunction},
			"class_declaration":              classRule,
			"abstract_class_declaration":     classRule,
			"interface_declaration":          classRule,
			"internal_module":                {Kind: symbols.KindNamespace, NameField: "name", BodyField: "body", Scope: true},
			"enum_declaration":               {Kind: symbols.KindEnum, Expand: expandECMAEnum},
			"type_alias_declaration":         {Kind: symbols.KindTypedef, NameField: "name"},
			"method_definition":              {Kind: symbols.KindMethod, Expand: expandECMAMethod},
			"method_signature":               {Kind: symbols.KindMethod, Expand: expandECMAMethod},
			"abstract_method_signature":      {Kind: symbols.KindMethod, Expand: expandECMAMethod},
			"public_field_definition":        {Kind: symbols.KindField, NameField: "name"},
			"property_signature":             {Kind: symbols.KindField, NameField: "name"},
			"lexical_declaration":            variables,
			"variable_declaration":           variables,
			"export_statement":               {Expand: expandECMAExport},
			"ambient_declaration":            {Expand: expandECMAAmbient},
			"module":                         {Kind: symbols.KindNamespace, NameField: "name", BodyField: "body", Scope: true},
			"expression_statement":           {Expand: expandECMAStatement},
		},
		Transparent: set(
			"program",
			"class_body",
			"interface_body",
			"object_type",
			"statement_block",
		),
		Ignored: set(
			"comment",
			"hash_bang_line",
			"import_statement",
			"empty_statement",
			"if_statement",
			"for_statement",
			"for_in_statement",
			"while_statement",
			"do_statement",
			"try_statement",
			"switch_statement",
			"return_statement",
			"throw_statement",
			"labeled_statement",
			"decorator",
			"class_static_block",
			"index_signature",
			"call_signature",
			"construct_signature",
			"import_alias",
		),
	}).finalize()
}

func expandECMAFunction(ctx *Context, n *sitter.Node) Expansion {
	var exp Expansion
	name := n.ChildByFieldName("name")
	form := symbols.FormDefinition
	if n.ChildByFieldName("body") == nil {
		form = symbols.FormDeclaration
	}
	exp.emit(Emit{Name: ctx.Text(name), Kind: symbols.KindFunction, Anchor: name, Form: form})
	return exp
}

// expandECMAMethod emits class and interface members. "constructor" is the
// class constructor.
func expandECMAMethod(ctx *Context, n *sitter.Node) Expansion {
	var exp Expansion
	name := n.ChildByFieldName("name")
	text := ctx.Text(name)

	kind := symbols.KindMethod
	if text == "constructor" {
		kind = symbols.KindConstructor
	}
	form := symbols.FormDefinition
	if n.ChildByFieldName("body") == nil {
		form = symbols.FormDeclaration
	}
	exp.emit(Emit{Name: text, Kind: kind, Anchor: name, Form: form})
	return exp
}

// expandECMAEnum emits the enum and its members, which are scoped to it.
func expandECMAEnum(ctx *Context, n *sitter.Node) Expansion {
	var exp Expansion
	name := n.ChildByFieldName("name")
	text := ctx.Text(name)
	exp.emit(Emit{Name: text, Kind: symbols.KindEnum, Anchor: name})

	for _, member := range namedChildren(n.ChildByFieldName("body")) {
		switch member.Kind() {
		case "enum_assignment":
			id := member.ChildByFieldName("name")
			exp.emit(Emit{Name: ctx.Text(id), Kind: symbols.KindEnumMember, Anchor: id, Qualifiers: []string{text}})
		case "property_identifier", "string":
			exp.emit(Emit{Name: ctx.Text(member), Kind: symbols.KindEnumMember, Anchor: member, Qualifiers: []string{text}})
		}
	}
	return exp
}

// expandECMAVariables emits let/const/var bindings declared outside functions.
// Destructuring patterns bind several names and are skipped.
func expandECMAVariables(ctx *Context, n *sitter.Node) Expansion {
	var exp Expansion
	if ctx.Scope.InFunction() {
		return exp
	}
	kind := symbols.KindVariable
	if ctx.AtFileScope() {
		kind = symbols.KindGlobalVariable
	}
	for _, decl := range namedChildren(n) {
		if decl.Kind() != "variable_declarator" {
			continue
		}
		name := decl.ChildByFieldName("name")
		if name == nil || name.Kind() != "identifier" {
			continue
		}
		exp.emit(Emit{Name: ctx.Text(name), Kind: kind, Anchor: name})
	}
	return exp
}

// expandECMAExport visits the exported declaration, if any.
func expandECMAExport(_ *Context, n *sitter.Node) Expansion {
	var exp Expansion
	exp.visit(n.ChildByFieldName("declaration"))
	return exp
}

// expandECMAStatement looks for "namespace X { }", which the grammar parses as
// an expression. Other expression statements declare nothing.
func expandECMAStatement(_ *Context, n *sitter.Node) Expansion {
	var exp Expansion
	for _, child := range namedChildren(n) {
		if child.Kind() == "internal_module" {
			exp.visit(child)
		}
	}
	return exp
}

// expandECMAAmbient visits the declaration following "declare".
func expandECMAAmbient(_ *Context, n *sitter.Node) Expansion {
	var exp Expansion
	for _, child := range namedChildren(n) {
		exp.visit(child)
	}
	return exp
}
