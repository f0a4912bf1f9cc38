package parsers

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	java "github.com/tree-sitter/tree-sitter-java/bindings/go"

	"github.com/mvp-joe/cortex-positions/internal/symbols"
)

// newJavaAdapter describes the Java grammar.
func newJavaAdapter() *Adapter {
	typeRule := func(kind symbols.Kind) Rule {
		return Rule{Kind: kind, NameField: "name", BodyField: "body", Scope: true}
	}

	return (&Adapter{
		Name:       "java",
		Extensions: []string{".java"},
		Grammar:    sitter.NewLanguage(java.Language()),
		Rules: map[string]Rule{
			"class_declaration":                   typeRule(symbols.KindClass),
			"interface_declaration":               typeRule(symbols.KindClass),
			"record_declaration":                  typeRule(symbols.KindClass),
			"annotation_type_declaration":         typeRule(symbols.KindClass),
			"enum_declaration":                    typeRule(symbols.KindEnum),
			"method_declaration":                  {Kind: symbols.KindMethod, Expand: expandJavaCallable(symbols.KindMethod)},
			"constructor_declaration":             {Kind: symbols.KindConstructor, Expand: expandJavaCallable(symbols.KindConstructor)},
			"compact_constructor_declaration":     {Kind: symbols.KindConstructor, Expand: expandJavaCallable(symbols.KindConstructor)},
			"annotation_type_element_declaration": {Kind: symbols.KindMethod, Expand: expandJavaCallable(symbols.KindMethod)},
			"field_declaration":                   {Kind: symbols.KindField, Expand: expandJavaField},
			"constant_declaration":                {Kind: symbols.KindField, Expand: expandJavaField},
			"enum_constant":                       {Kind: symbols.KindEnumMember, NameField: "name"},
		},
		Transparent: set(
			"program",
			"class_body",
			"interface_body",
			"annotation_type_body",
			"enum_body",
			"enum_body_declarations",
		),
		Ignored: set(
			"package_declaration",
			"import_declaration",
			"module_declaration",
			"line_comment",
			"block_comment",
			"static_initializer",
			"block",
		),
	}).finalize()
}

// expandJavaCallable emits a method or constructor. Bodies hold only locals
// and anonymous classes, so they are not visited.
func expandJavaCallable(kind symbols.Kind) ExpandFunc {
	return func(ctx *Context, n *sitter.Node) Expansion {
		var exp Expansion
		name := n.ChildByFieldName("name")
		form := symbols.FormDefinition
		if n.ChildByFieldName("body") == nil {
			form = symbols.FormDeclaration
		}
		exp.emit(Emit{Name: ctx.Text(name), Kind: kind, Anchor: name, Form: form})
		return exp
	}
}

// expandJavaField emits one Field per variable declarator.
func expandJavaField(ctx *Context, n *sitter.Node) Expansion {
	var exp Expansion
	for _, decl := range childrenByField(n, "declarator") {
		name := decl.ChildByFieldName("name")
		exp.emit(Emit{Name: ctx.Text(name), Kind: symbols.KindField, Anchor: name})
	}
	return exp
}
