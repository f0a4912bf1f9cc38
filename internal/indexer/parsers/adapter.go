package parsers

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/cortex-positions/internal/symbols"
)

// Adapter is the static description of one language grammar: which node
// categories produce symbols, which are walked through, and which are skipped.
// Adapters are built once and shared read-only by every extraction.
type Adapter struct {
	Name       string
	Extensions []string
	Grammar    *sitter.Language

	// Rules maps a node category to its handler descriptor.
	Rules map[string]Rule

	// Transparent categories are descended into without emitting anything.
	Transparent map[string]bool

	// Ignored categories are skipped without descending and without a diagnostic.
	Ignored map[string]bool

	// Macros enables the lexical preprocessor scan. Nil for languages without one.
	Macros *MacroSyntax
}

// Rule describes how one node category contributes symbols.
//
// Simple constructs are described declaratively: the symbol is named by the
// NameField child and anchored there, and BodyField (if set) is visited under a
// frame named after the symbol when Scope is true. Constructs whose symbols
// depend on their shape provide Expand instead.
type Rule struct {
	Kind      symbols.Kind
	NameField string
	BodyField string
	Scope     bool
	Expand    ExpandFunc
}

// ExpandFunc inspects one node and reports what it declares and which children
// should be visited next.
type ExpandFunc func(ctx *Context, node *sitter.Node) Expansion

// Emit is one symbol produced by a rule. Anchor is the token whose start is
// reported as the symbol position.
type Emit struct {
	Name   string
	Kind   symbols.Kind
	Anchor *sitter.Node
	Form   symbols.Form

	// Qualifiers are appended to the active scope path, e.g. "Foo" for an
	// out-of-class definition of Foo::bar.
	Qualifiers []string
}

// Child is a node to visit after the current one, optionally inside new frames.
type Child struct {
	Node   *sitter.Node
	Frames []symbols.Frame
}

// Expansion is the result of applying a rule to a node.
type Expansion struct {
	Emits    []Emit
	Children []Child
}

func (e *Expansion) emit(em Emit) {
	if em.Anchor == nil || em.Name == "" {
		return
	}
	if em.Form == "" {
		em.Form = symbols.FormDefinition
	}
	e.Emits = append(e.Emits, em)
}

func (e *Expansion) visit(node *sitter.Node, frames ...symbols.Frame) {
	if node == nil {
		return
	}
	e.Children = append(e.Children, Child{Node: node, Frames: frames})
}

// Context is the read-only view of traversal state handed to rules.
type Context struct {
	Source []byte
	Scope  *symbols.ScopeStack

	// scopeKinds remembers the kind of every scope-introducing symbol emitted
	// so far, keyed by its qualified name, so qualified definitions can tell a
	// namespace from a class.
	scopeKinds map[string]symbols.Kind
}

// Text returns the source text of a node.
func (c *Context) Text(n *sitter.Node) string {
	return extractNodeText(n, c.Source)
}

// EnclosingType returns the innermost frame when it is a class-like aggregate.
func (c *Context) EnclosingType() (symbols.Frame, bool) {
	top, ok := c.Scope.Top()
	if !ok {
		return symbols.Frame{}, false
	}
	switch top.Kind {
	case symbols.KindClass, symbols.KindStruct, symbols.KindUnion:
		return top, true
	}
	return symbols.Frame{}, false
}

// AtFileScope reports whether no frame at all is active.
func (c *Context) AtFileScope() bool {
	return c.Scope.Depth() == 0
}

// KnownScopeKind reports the kind of a previously emitted scope named by the
// qualifier segments. The segments are looked up from the innermost active
// scope outwards, so "b::C" inside namespace a finds a::b::C before b::C.
func (c *Context) KnownScopeKind(segments ...string) (symbols.Kind, bool) {
	if len(segments) == 0 {
		return "", false
	}
	scope := c.Scope.Path()
	for i := len(scope); i >= 0; i-- {
		key := qualifiedKey(append(scope[:i:i], segments...))
		if k, ok := c.scopeKinds[key]; ok {
			return k, true
		}
	}
	return "", false
}

func (c *Context) recordScope(path []string, name string, kind symbols.Kind) {
	c.scopeKinds[qualifiedKey(append(path[:len(path):len(path)], name))] = kind
}

func qualifiedKey(segments []string) string {
	return strings.Join(segments, "::")
}

// expandDeclarative applies the declarative fields of a rule.
func expandDeclarative(rule Rule) ExpandFunc {
	return func(ctx *Context, n *sitter.Node) Expansion {
		var exp Expansion

		nameField := rule.NameField
		if nameField == "" {
			nameField = "name"
		}
		nameNode := n.ChildByFieldName(nameField)

		var body *sitter.Node
		form := symbols.FormDefinition
		if rule.BodyField != "" {
			body = n.ChildByFieldName(rule.BodyField)
			if body == nil {
				form = symbols.FormDeclaration
			}
		}

		name := ctx.Text(nameNode)
		exp.emit(Emit{Name: name, Kind: rule.Kind, Anchor: nameNode, Form: form})

		if body != nil {
			if rule.Scope {
				exp.visit(body, frameFor(name, rule.Kind))
			} else {
				exp.visit(body)
			}
		}
		return exp
	}
}

// frameFor returns a named frame, or an anonymous one when name is empty.
func frameFor(name string, kind symbols.Kind) symbols.Frame {
	if name == "" {
		return symbols.Frame{Kind: kind, Anonymous: true}
	}
	return symbols.Frame{Name: name, Kind: kind}
}

// finalize fills in Expand for declarative rules.
func (a *Adapter) finalize() *Adapter {
	for kind, rule := range a.Rules {
		if rule.Expand == nil {
			rule.Expand = expandDeclarative(rule)
			a.Rules[kind] = rule
		}
	}
	return a
}

func set(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}

var (
	registryOnce sync.Once
	registry     map[string]*Adapter
	byExtension  map[string]*Adapter
)

func loadRegistry() {
	registryOnce.Do(func() {
		registry = make(map[string]*Adapter)
		byExtension = make(map[string]*Adapter)
		for _, a := range []*Adapter{
			newCAdapter(),
			newCppAdapter(),
			newPythonAdapter(),
			newJavaAdapter(),
			newGoAdapter(),
			newRustAdapter(),
			newTypeScriptAdapter(),
			newTSXAdapter(),
			newJavaScriptAdapter(),
			newRubyAdapter(),
			newPHPAdapter(),
		} {
			registry[a.Name] = a
			for _, ext := range a.Extensions {
				byExtension[ext] = a
			}
		}
	})
}

// ForLanguage returns the adapter registered under a language name.
func ForLanguage(name string) (*Adapter, error) {
	loadRegistry()
	a, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, name)
	}
	return a, nil
}

// ForPath returns the adapter for a file, chosen by extension.
func ForPath(path string) (*Adapter, error) {
	loadRegistry()
	ext := strings.ToLower(filepath.Ext(path))
	a, ok := byExtension[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, path)
	}
	return a, nil
}

// DetectLanguage returns the language name for a path, or "unknown".
func DetectLanguage(path string) string {
	a, err := ForPath(path)
	if err != nil {
		return "unknown"
	}
	return a.Name
}

// Languages lists the registered language names in sorted order.
func Languages() []string {
	loadRegistry()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Extensions lists every registered file extension in sorted order.
func Extensions() []string {
	loadRegistry()
	exts := make([]string, 0, len(byExtension))
	for ext := range byExtension {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
