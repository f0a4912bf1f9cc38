package parsers

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	ruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"

	"github.com/mvp-joe/cortex-positions/internal/symbols"
)

// newRubyAdapter describes the Ruby grammar. Modules are namespaces; methods
// defined in a class or module body are methods.
func newRubyAdapter() *Adapter {
	return (&Adapter{
		Name:       "ruby",
		Extensions: []string{".rb", ".rake"},
		Grammar:    sitter.NewLanguage(ruby.Language()),
		Rules: map[string]Rule{
			"class":            {Kind: symbols.KindClass, Expand: expandRubyContainer(symbols.KindClass)},
			"module":           {Kind: symbols.KindNamespace, Expand: expandRubyContainer(symbols.KindNamespace)},
			"method":           {Kind: symbols.KindMethod, Expand: expandRubyMethod},
			"singleton_method": {Kind: symbols.KindMethod, Expand: expandRubyMethod},
			"assignment":       {Kind: symbols.KindGlobalVariable, Expand: expandRubyAssignment},
		},
		Transparent: set("program", "body_statement"),
		Ignored: set(
			"comment",
			"call",
			"identifier",
			"constant",
			"string",
			"integer",
			"if",
			"unless",
			"while",
			"until",
			"for",
			"case",
			"begin",
			"return",
			"alias",
			"undef",
			"singleton_class",
			"operator_assignment",
			"uninterpreted",
		),
	}).finalize()
}

// expandRubyContainer emits a class or module and walks its body. A name like
// A::B is scoped to A.
func expandRubyContainer(kind symbols.Kind) ExpandFunc {
	return func(ctx *Context, n *sitter.Node) Expansion {
		var exp Expansion
		name := n.ChildByFieldName("name")

		var quals []string
		for name != nil && name.Kind() == "scope_resolution" {
			if scope := name.ChildByFieldName("scope"); scope != nil {
				quals = append(quals, ctx.Text(scope))
			}
			name = name.ChildByFieldName("name")
		}
		text := ctx.Text(name)
		exp.emit(Emit{Name: text, Kind: kind, Anchor: name, Qualifiers: quals})

		body := n.ChildByFieldName("body")
		if body == nil {
			body = findChildByType(n, "body_statement")
		}
		frames := make([]symbols.Frame, 0, len(quals)+1)
		for _, q := range quals {
			frames = append(frames, symbols.Frame{Name: q, Kind: symbols.KindNamespace})
		}
		frames = append(frames, frameFor(text, kind))
		exp.visit(body, frames...)
		return exp
	}
}

func inRubyContainer(ctx *Context) bool {
	top, ok := ctx.Scope.Top()
	return ok && (top.Kind == symbols.KindClass || top.Kind == symbols.KindNamespace)
}

// expandRubyMethod emits a def. initialize is the constructor.
func expandRubyMethod(ctx *Context, n *sitter.Node) Expansion {
	var exp Expansion
	name := n.ChildByFieldName("name")
	text := ctx.Text(name)

	kind := symbols.KindFunction
	if inRubyContainer(ctx) || n.Kind() == "singleton_method" {
		kind = symbols.KindMethod
		if text == "initialize" {
			kind = symbols.KindConstructor
		}
	}
	exp.emit(Emit{Name: text, Kind: kind, Anchor: name})
	return exp
}

// expandRubyAssignment emits constants and top-level variables. Instance and
// class variables are not declarations.
func expandRubyAssignment(ctx *Context, n *sitter.Node) Expansion {
	var exp Expansion
	left := n.ChildByFieldName("left")
	if left == nil {
		return exp
	}

	switch {
	case inRubyContainer(ctx) && left.Kind() == "constant":
		exp.emit(Emit{Name: ctx.Text(left), Kind: symbols.KindField, Anchor: left})
	case ctx.AtFileScope() && (left.Kind() == "constant" || left.Kind() == "identifier" || left.Kind() == "global_variable"):
		exp.emit(Emit{Name: ctx.Text(left), Kind: symbols.KindGlobalVariable, Anchor: left})
	}
	return exp
}
