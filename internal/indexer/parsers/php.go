package parsers

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	php "github.com/tree-sitter/tree-sitter-php/bindings/go"

	"github.com/mvp-joe/cortex-positions/internal/symbols"
)

// newPHPAdapter describes the PHP grammar. Property names are anchored after
// the '$' sigil.
func newPHPAdapter() *Adapter {
	typeRule := func(kind symbols.Kind) Rule {
		return Rule{Kind: kind, NameField: "name", BodyField: "body", Scope: true}
	}

	return (&Adapter{
		Name:       "php",
		Extensions: []string{".php"},
		Grammar:    sitter.NewLanguage(php.LanguagePHP()),
		Rules: map[string]Rule{
			"namespace_definition":  {Kind: symbols.KindNamespace, Expand: expandPHPNamespace},
			"class_declaration":     typeRule(symbols.KindClass),
			"interface_declaration": typeRule(symbols.KindClass),
			"trait_declaration":     typeRule(symbols.KindClass),
			"enum_declaration":      typeRule(symbols.KindEnum),
			"enum_case":             {Kind: symbols.KindEnumMember, NameField: "name"},
			"function_definition":   {Kind: symbols.KindFunction, Expand: expandPHPFunction},
			"method_declaration":    {Kind: symbols.KindMethod, Expand: expandPHPFunction},
			"property_declaration":  {Kind: symbols.KindField, Expand: expandPHPProperties},
			"const_declaration":     {Kind: symbols.KindGlobalVariable, Expand: expandPHPConstants},
		},
		Transparent: set(
			"program",
			"declaration_list",
			"enum_declaration_list",
			"compound_statement",
		),
		Ignored: set(
			"comment",
			"php_tag",
			"text",
			"text_interpolation",
			"namespace_use_declaration",
			"use_declaration",
			"expression_statement",
			"echo_statement",
			"return_statement",
			"if_statement",
			"declare_statement",
			"attribute_list",
		),
	}).finalize()
}

// expandPHPNamespace emits one Namespace per segment of Foo\Bar. The
// bracketed form walks its body inside them; the statement form only names the
// namespace.
func expandPHPNamespace(ctx *Context, n *sitter.Node) Expansion {
	var exp Expansion
	var frames []symbols.Frame
	var quals []string
	if name := n.ChildByFieldName("name"); name != nil {
		for _, seg := range collectDescendants(name, "name") {
			text := ctx.Text(seg)
			exp.emit(Emit{Name: text, Kind: symbols.KindNamespace, Anchor: seg, Qualifiers: append([]string(nil), quals...)})
			quals = append(quals, text)
			frames = append(frames, symbols.Frame{Name: text, Kind: symbols.KindNamespace})
		}
	}
	exp.visit(n.ChildByFieldName("body"), frames...)
	return exp
}

// expandPHPFunction emits functions and methods. __construct and __destruct
// are the constructor and destructor; abstract methods are declarations.
func expandPHPFunction(ctx *Context, n *sitter.Node) Expansion {
	var exp Expansion
	name := n.ChildByFieldName("name")
	text := ctx.Text(name)

	kind := symbols.KindFunction
	if n.Kind() == "method_declaration" {
		switch text {
		case "__construct":
			kind = symbols.KindConstructor
		case "__destruct":
			kind = symbols.KindDestructor
		default:
			kind = symbols.KindMethod
		}
	}
	form := symbols.FormDefinition
	if n.ChildByFieldName("body") == nil {
		form = symbols.FormDeclaration
	}
	exp.emit(Emit{Name: text, Kind: kind, Anchor: name, Form: form})
	return exp
}

// expandPHPProperties emits one Field per property element.
func expandPHPProperties(ctx *Context, n *sitter.Node) Expansion {
	var exp Expansion
	for _, elem := range namedChildren(n) {
		if elem.Kind() != "property_element" {
			continue
		}
		variable := elem.ChildByFieldName("name")
		if variable == nil {
			variable = findChildByType(elem, "variable_name")
		}
		id := findChildByType(variable, "name")
		exp.emit(Emit{Name: ctx.Text(id), Kind: symbols.KindField, Anchor: id})
	}
	return exp
}

// expandPHPConstants emits class constants as fields and top-level constants
// as globals.
func expandPHPConstants(ctx *Context, n *sitter.Node) Expansion {
	var exp Expansion
	kind := symbols.KindVariable
	if _, ok := ctx.EnclosingType(); ok {
		kind = symbols.KindField
	} else if top, ok := ctx.Scope.Top(); !ok || top.Kind == symbols.KindNamespace {
		kind = symbols.KindGlobalVariable
	}
	for _, elem := range namedChildren(n) {
		if elem.Kind() != "const_element" {
			continue
		}
		id := findChildByType(elem, "name")
		exp.emit(Emit{Name: ctx.Text(id), Kind: kind, Anchor: id})
	}
	return exp
}
