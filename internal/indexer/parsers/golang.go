package parsers

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	golang "github.com/tree-sitter/tree-sitter-go/bindings/go"

	"github.com/mvp-joe/cortex-positions/internal/symbols"
)

// newGoAdapter describes the Go grammar.
func newGoAdapter() *Adapter {
	return (&Adapter{
		Name:       "go",
		Extensions: []string{".go"},
		Grammar:    sitter.NewLanguage(golang.Language()),
		Rules: map[string]Rule{
			"function_declaration": {Kind: symbols.KindFunction, Expand: expandGoFunction},
			"method_declaration":   {Kind: symbols.KindMethod, Expand: expandGoMethod},
			"type_spec":            {Kind: symbols.KindTypedef, Expand: expandGoTypeSpec},
			"type_alias":           {Kind: symbols.KindTypedef, NameField: "name"},
			"field_declaration":    {Kind: symbols.KindField, Expand: expandGoNames(symbols.KindField)},
			"method_elem":          {Kind: symbols.KindMethod, Expand: expandGoInterfaceMethod},
			"method_spec":          {Kind: symbols.KindMethod, Expand: expandGoInterfaceMethod},
			"const_spec":           {Kind: symbols.KindGlobalVariable, Expand: expandGoNames(symbols.KindGlobalVariable)},
			"var_spec":             {Kind: symbols.KindGlobalVariable, Expand: expandGoNames(symbols.KindGlobalVariable)},
		},
		Transparent: set(
			"source_file",
			"type_declaration",
			"const_declaration",
			"var_declaration",
			"var_spec_list",
			"struct_type",
			"interface_type",
			"field_declaration_list",
		),
		Ignored: set(
			"package_clause",
			"import_declaration",
			"comment",
			"type_elem",
			"constraint_elem",
		),
	}).finalize()
}

func expandGoFunction(ctx *Context, n *sitter.Node) Expansion {
	var exp Expansion
	name := n.ChildByFieldName("name")
	form := symbols.FormDefinition
	if n.ChildByFieldName("body") == nil {
		form = symbols.FormDeclaration
	}
	exp.emit(Emit{Name: ctx.Text(name), Kind: symbols.KindFunction, Anchor: name, Form: form})
	return exp
}

// expandGoMethod emits a method scoped to its receiver type.
func expandGoMethod(ctx *Context, n *sitter.Node) Expansion {
	var exp Expansion
	name := n.ChildByFieldName("name")

	var quals []string
	if recv := receiverType(ctx, n.ChildByFieldName("receiver")); recv != "" {
		quals = []string{recv}
	}
	form := symbols.FormDefinition
	if n.ChildByFieldName("body") == nil {
		form = symbols.FormDeclaration
	}
	exp.emit(Emit{Name: ctx.Text(name), Kind: symbols.KindMethod, Anchor: name, Form: form, Qualifiers: quals})
	return exp
}

// receiverType returns the base type name of a receiver such as (s *Stack[T]).
func receiverType(ctx *Context, params *sitter.Node) string {
	for _, param := range namedChildren(params) {
		typ := param.ChildByFieldName("type")
		for typ != nil {
			switch typ.Kind() {
			case "pointer_type", "parenthesized_type":
				typ = typ.NamedChild(0)
			case "generic_type":
				typ = typ.ChildByFieldName("type")
			case "type_identifier", "qualified_type":
				return ctx.Text(typ)
			default:
				return ""
			}
		}
	}
	return ""
}

// expandGoTypeSpec emits a named type. Struct and interface bodies are walked
// under a frame named after the type.
func expandGoTypeSpec(ctx *Context, n *sitter.Node) Expansion {
	var exp Expansion
	name := n.ChildByFieldName("name")
	text := ctx.Text(name)
	typ := n.ChildByFieldName("type")

	kind := symbols.KindTypedef
	if typ != nil {
		switch typ.Kind() {
		case "struct_type":
			kind = symbols.KindStruct
		case "interface_type":
			kind = symbols.KindClass
		}
	}

	exp.emit(Emit{Name: text, Kind: kind, Anchor: name})
	if kind != symbols.KindTypedef {
		exp.visit(typ, symbols.Frame{Name: text, Kind: kind})
	}
	return exp
}

func expandGoInterfaceMethod(ctx *Context, n *sitter.Node) Expansion {
	var exp Expansion
	name := n.ChildByFieldName("name")
	exp.emit(Emit{Name: ctx.Text(name), Kind: symbols.KindMethod, Anchor: name, Form: symbols.FormDeclaration})
	return exp
}

// expandGoNames emits one symbol per name of a spec: "a, b int" declares two.
// Embedded struct fields have no name and emit nothing.
func expandGoNames(kind symbols.Kind) ExpandFunc {
	return func(ctx *Context, n *sitter.Node) Expansion {
		var exp Expansion
		for _, name := range childrenByField(n, "name") {
			exp.emit(Emit{Name: ctx.Text(name), Kind: kind, Anchor: name})
		}
		return exp
	}
}
