package parsers

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"

	"github.com/mvp-joe/cortex-positions/internal/symbols"
)

// newRustAdapter describes the Rust grammar. Items inside impl blocks are
// scoped to the implemented type.
func newRustAdapter() *Adapter {
	return (&Adapter{
		Name:       "rust",
		Extensions: []string{".rs"},
		Grammar:    sitter.NewLanguage(rust.Language()),
		Rules: map[string]Rule{
			"function_item":           {Kind: symbols.KindFunction, Expand: expandRustFunction},
			"function_signature_item": {Kind: symbols.KindFunction, Expand: expandRustFunction},
			"struct_item":             {Kind: symbols.KindStruct, Expand: expandRustType(symbols.KindStruct)},
			"union_item":              {Kind: symbols.KindUnion, Expand: expandRustType(symbols.KindUnion)},
			"enum_item":               {Kind: symbols.KindEnum, Expand: expandRustType(symbols.KindEnum)},
			"trait_item":              {Kind: symbols.KindClass, NameField: "name", BodyField: "body", Scope: true},
			"mod_item":                {Kind: symbols.KindNamespace, NameField: "name", BodyField: "body", Scope: true},
			"impl_item":               {Expand: expandRustImpl},
			"foreign_mod_item":        {Expand: expandRustForeignMod},
			"field_declaration":       {Kind: symbols.KindField, NameField: "name"},
			"enum_variant":            {Kind: symbols.KindEnumMember, NameField: "name"},
			"const_item":              {Kind: symbols.KindGlobalVariable, Expand: expandRustItemVariable},
			"static_item":             {Kind: symbols.KindGlobalVariable, Expand: expandRustItemVariable},
			"type_item":               {Kind: symbols.KindTypedef, NameField: "name"},
			"associated_type":         {Kind: symbols.KindTypedef, Expand: expandRustAssociatedType},
			"macro_definition":        {Kind: symbols.KindMacro, NameField: "name"},
		},
		Transparent: set(
			"source_file",
			"declaration_list",
			"field_declaration_list",
			"enum_variant_list",
		),
		Ignored: set(
			"line_comment",
			"block_comment",
			"attribute_item",
			"inner_attribute_item",
			"use_declaration",
			"extern_crate_declaration",
			"macro_invocation",
			"expression_statement",
			"empty_statement",
			"ordered_field_declaration_list",
		),
	}).finalize()
}

// expandRustFunction emits a fn. Inside an impl or trait it is a method; a
// signature without a body is a declaration.
func expandRustFunction(ctx *Context, n *sitter.Node) Expansion {
	var exp Expansion
	name := n.ChildByFieldName("name")

	kind := symbols.KindFunction
	if _, ok := ctx.EnclosingType(); ok {
		kind = symbols.KindMethod
	}
	form := symbols.FormDefinition
	if n.ChildByFieldName("body") == nil {
		form = symbols.FormDeclaration
	}
	exp.emit(Emit{Name: ctx.Text(name), Kind: kind, Anchor: name, Form: form})
	return exp
}

// expandRustType emits a struct, union or enum. Unit and tuple structs have no
// named members but are still definitions.
func expandRustType(kind symbols.Kind) ExpandFunc {
	return func(ctx *Context, n *sitter.Node) Expansion {
		var exp Expansion
		name := n.ChildByFieldName("name")
		text := ctx.Text(name)
		exp.emit(Emit{Name: text, Kind: kind, Anchor: name})
		exp.visit(n.ChildByFieldName("body"), frameFor(text, kind))
		return exp
	}
}

// expandRustImpl walks an impl block under a frame named after the
// implemented type. The impl itself declares nothing.
func expandRustImpl(ctx *Context, n *sitter.Node) Expansion {
	var exp Expansion
	typ := n.ChildByFieldName("type")
	for typ != nil && typ.Kind() == "generic_type" {
		typ = typ.ChildByFieldName("type")
	}
	name := ""
	if typ != nil {
		name = ctx.Text(typ)
		if typ.Kind() == "scoped_type_identifier" {
			name = ctx.Text(typ.ChildByFieldName("name"))
		}
	}
	exp.visit(n.ChildByFieldName("body"), frameFor(name, symbols.KindClass))
	return exp
}

func expandRustForeignMod(_ *Context, n *sitter.Node) Expansion {
	var exp Expansion
	exp.visit(n.ChildByFieldName("body"))
	return exp
}

// expandRustItemVariable emits const and static items: globals at module
// level, associated constants inside impls and traits.
func expandRustItemVariable(ctx *Context, n *sitter.Node) Expansion {
	var exp Expansion
	name := n.ChildByFieldName("name")

	kind := symbols.KindVariable
	if _, ok := ctx.EnclosingType(); ok {
		kind = symbols.KindField
	} else if top, ok := ctx.Scope.Top(); !ok || top.Kind == symbols.KindNamespace {
		kind = symbols.KindGlobalVariable
	}
	exp.emit(Emit{Name: ctx.Text(name), Kind: kind, Anchor: name})
	return exp
}

func expandRustAssociatedType(ctx *Context, n *sitter.Node) Expansion {
	var exp Expansion
	name := n.ChildByFieldName("name")
	exp.emit(Emit{Name: ctx.Text(name), Kind: symbols.KindTypedef, Anchor: name, Form: symbols.FormDeclaration})
	return exp
}
