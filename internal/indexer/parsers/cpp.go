package parsers

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"

	"github.com/mvp-joe/cortex-positions/internal/symbols"
)

// newCppAdapter describes the C++ grammar: the C tables plus classes,
// namespaces, templates and linkage blocks.
func newCppAdapter() *Adapter {
	rules := cFamilyRules()
	rules["class_specifier"] = Rule{Kind: symbols.KindClass, Expand: expandAggregate}
	rules["namespace_definition"] = Rule{Kind: symbols.KindNamespace, Expand: expandNamespace}
	rules["template_declaration"] = Rule{Kind: symbols.KindTemplate, Expand: expandTemplateDeclaration}
	rules["alias_declaration"] = Rule{Kind: symbols.KindTypedef, Expand: expandAliasDeclaration}
	rules["concept_definition"] = Rule{Kind: symbols.KindTemplate, NameField: "name"}
	rules["linkage_specification"] = Rule{Expand: expandLinkage}

	ignored := cFamilyIgnored()
	for _, kind := range []string{
		"access_specifier",
		"friend_declaration",
		"using_declaration",
		"static_assert_declaration",
		"namespace_alias_definition",
		"template_instantiation",
		"requires_clause",
		"explicit_function_specifier",
	} {
		ignored[kind] = true
	}

	return (&Adapter{
		Name:        "cpp",
		Extensions:  []string{".cc", ".cpp", ".cxx", ".hpp", ".hh", ".hxx"},
		Grammar:     sitter.NewLanguage(cpp.Language()),
		Rules:       rules,
		Transparent: cFamilyTransparent(),
		Ignored:     ignored,
		Macros:      cPreprocessor,
	}).finalize()
}

// expandNamespace emits one Namespace per segment of "a::b::c" and visits the
// body inside all of them. Anonymous namespaces only visit the body.
func expandNamespace(ctx *Context, n *sitter.Node) Expansion {
	var exp Expansion
	body := n.ChildByFieldName("body")

	var segments []*sitter.Node
	if name := n.ChildByFieldName("name"); name != nil {
		segments = collectDescendants(name, "namespace_identifier")
	}

	frames := make([]symbols.Frame, 0, len(segments))
	var quals []string
	for _, seg := range segments {
		name := ctx.Text(seg)
		exp.emit(Emit{
			Name:       name,
			Kind:       symbols.KindNamespace,
			Anchor:     seg,
			Qualifiers: append([]string(nil), quals...),
		})
		quals = append(quals, name)
		frames = append(frames, symbols.Frame{Name: name, Kind: symbols.KindNamespace})
	}
	exp.visit(body, frames...)
	return exp
}

// expandTemplateDeclaration visits the templated entity but not its parameters.
func expandTemplateDeclaration(_ *Context, n *sitter.Node) Expansion {
	var exp Expansion
	for _, child := range namedChildrenExcept(n, "parameters") {
		exp.visit(child)
	}
	return exp
}

// expandAliasDeclaration handles "using Name = Type;". Under a template it is
// an alias template.
func expandAliasDeclaration(ctx *Context, n *sitter.Node) Expansion {
	var exp Expansion
	kind := symbols.KindTypedef
	if parent := n.Parent(); parent != nil && parent.Kind() == "template_declaration" {
		kind = symbols.KindTemplate
	}
	name := n.ChildByFieldName("name")
	exp.emit(Emit{Name: ctx.Text(name), Kind: kind, Anchor: name})
	return exp
}

// expandLinkage walks through extern "C" blocks and single declarations.
func expandLinkage(_ *Context, n *sitter.Node) Expansion {
	var exp Expansion
	exp.visit(n.ChildByFieldName("body"))
	return exp
}
