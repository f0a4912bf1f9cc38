package parsers

import (
	"context"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// parseSource parses source with the adapter's grammar.
// The caller owns the returned tree and must Close it.
func parseSource(ctx context.Context, source []byte, adapter *Adapter) (*sitter.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(adapter.Grammar); err != nil {
		return nil, &ParseError{Language: adapter.Name, Reason: err.Error()}
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, &ParseError{Language: adapter.Name, Reason: "parser returned no tree"}
	}
	return tree, nil
}

// extractNodeText extracts the text content of a tree-sitter node.
func extractNodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if end > uint(len(source)) || start > end {
		return ""
	}
	return string(source[start:end])
}

// findChildByType finds the first child node with the given type.
func findChildByType(node *sitter.Node, nodeType string) *sitter.Node {
	if node == nil {
		return nil
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == nodeType {
			return child
		}
	}
	return nil
}

// hasChildOfType reports whether any direct child (named or not) has the given type.
// Keywords such as "extern" or "class" are matched this way.
func hasChildOfType(node *sitter.Node, nodeType string) bool {
	return findChildByType(node, nodeType) != nil
}

// childrenByField returns every child stored under a field name, in source order.
// Declarations with several declarators repeat the same field.
func childrenByField(node *sitter.Node, field string) []*sitter.Node {
	var results []*sitter.Node
	if node == nil {
		return results
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		if node.FieldNameForChild(uint32(i)) == field {
			if child := node.Child(i); child != nil {
				results = append(results, child)
			}
		}
	}
	return results
}

// namedChildren returns the named children of node.
func namedChildren(node *sitter.Node) []*sitter.Node {
	var results []*sitter.Node
	if node == nil {
		return results
	}

	for i := uint(0); i < node.NamedChildCount(); i++ {
		if child := node.NamedChild(i); child != nil {
			results = append(results, child)
		}
	}
	return results
}

// namedChildrenExcept returns the named children of node that are not stored
// under any of the given fields.
func namedChildrenExcept(node *sitter.Node, fields ...string) []*sitter.Node {
	var results []*sitter.Node
	if node == nil {
		return results
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || !child.IsNamed() {
			continue
		}
		skip := false
		name := node.FieldNameForChild(uint32(i))
		for _, f := range fields {
			if name == f {
				skip = true
				break
			}
		}
		if !skip {
			results = append(results, child)
		}
	}
	return results
}

// lastNamedChild returns the last named child, used for wrapper nodes whose
// inner declarator is not stored under a field.
func lastNamedChild(node *sitter.Node) *sitter.Node {
	if node == nil || node.NamedChildCount() == 0 {
		return nil
	}
	return node.NamedChild(node.NamedChildCount() - 1)
}

// collectDescendants gathers every descendant of the given type in pre-order.
func collectDescendants(node *sitter.Node, nodeType string) []*sitter.Node {
	var results []*sitter.Node
	if node == nil {
		return results
	}

	stack := []*sitter.Node{node}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.Kind() == nodeType {
			results = append(results, n)
			continue
		}
		for i := int(n.NamedChildCount()) - 1; i >= 0; i-- {
			if child := n.NamedChild(uint(i)); child != nil {
				stack = append(stack, child)
			}
		}
	}
	return results
}

// compactSpaces collapses runs of whitespace into single spaces.
func compactSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
