package parsers

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/mvp-joe/cortex-positions/internal/symbols"
)

// newPythonAdapter describes the Python grammar.
func newPythonAdapter() *Adapter {
	return (&Adapter{
		Name:       "python",
		Extensions: []string{".py", ".pyi"},
		Grammar:    sitter.NewLanguage(python.Language()),
		Rules: map[string]Rule{
			"function_definition":  {Kind: symbols.KindFunction, Expand: expandPythonFunction},
			"class_definition":     {Kind: symbols.KindClass, NameField: "name", BodyField: "body", Scope: true},
			"decorated_definition": {Expand: expandDecorated},
			"expression_statement": {Kind: symbols.KindGlobalVariable, Expand: expandPythonAssignment},
		},
		Transparent: set("module", "block"),
		Ignored: set(
			"comment",
			"decorator",
			"import_statement",
			"import_from_statement",
			"future_import_statement",
			"pass_statement",
			"return_statement",
			"raise_statement",
			"assert_statement",
			"delete_statement",
			"global_statement",
			"nonlocal_statement",
			"break_statement",
			"continue_statement",
			"print_statement",
			"exec_statement",
			"if_statement",
			"for_statement",
			"while_statement",
			"try_statement",
			"with_statement",
			"match_statement",
			"type_alias_statement",
		),
	}).finalize()
}

// expandPythonFunction emits a def and walks its body under an anonymous
// function frame, so nested defs are found but locals are not.
func expandPythonFunction(ctx *Context, n *sitter.Node) Expansion {
	var exp Expansion
	name := n.ChildByFieldName("name")
	text := ctx.Text(name)

	kind := symbols.KindFunction
	if _, ok := ctx.EnclosingType(); ok {
		kind = symbols.KindMethod
		if text == "__init__" {
			kind = symbols.KindConstructor
		}
	}

	exp.emit(Emit{Name: text, Kind: kind, Anchor: name})
	exp.visit(n.ChildByFieldName("body"), symbols.Frame{Kind: kind, Anonymous: true})
	return exp
}

func expandDecorated(_ *Context, n *sitter.Node) Expansion {
	var exp Expansion
	exp.visit(n.ChildByFieldName("definition"))
	return exp
}

// expandPythonAssignment emits module-level variables and class attributes.
// Assignments inside function bodies declare locals and are skipped.
func expandPythonAssignment(ctx *Context, n *sitter.Node) Expansion {
	var exp Expansion

	var kind symbols.Kind
	switch _, inClass := ctx.EnclosingType(); {
	case inClass:
		kind = symbols.KindField
	case ctx.AtFileScope():
		kind = symbols.KindGlobalVariable
	default:
		return exp
	}

	for _, child := range namedChildren(n) {
		// a = b = 1 nests the second assignment as the right-hand side.
		for assign := child; assign != nil && assign.Kind() == "assignment"; assign = assign.ChildByFieldName("right") {
			for _, target := range assignmentTargets(assign.ChildByFieldName("left")) {
				exp.emit(Emit{Name: ctx.Text(target), Kind: kind, Anchor: target})
			}
		}
	}
	return exp
}

// assignmentTargets returns the plain names bound by an assignment target.
// Attribute and subscript targets bind nothing new.
func assignmentTargets(left *sitter.Node) []*sitter.Node {
	if left == nil {
		return nil
	}
	switch left.Kind() {
	case "identifier":
		return []*sitter.Node{left}
	case "pattern_list", "tuple_pattern", "list_pattern":
		var out []*sitter.Node
		for _, child := range namedChildren(left) {
			out = append(out, assignmentTargets(child)...)
		}
		return out
	}
	return nil
}
