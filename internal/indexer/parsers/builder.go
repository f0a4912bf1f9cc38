package parsers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/cortex-positions/internal/position"
	"github.com/mvp-joe/cortex-positions/internal/symbols"
)

// Options tunes one extraction.
type Options struct {
	// Strict turns syntax errors in the tree into a ParseError instead of a
	// diagnostic.
	Strict bool

	// SkipMacros disables the lexical macro scan for preprocessor languages.
	SkipMacros bool
}

// Result is the symbol table of one file.
type Result struct {
	Path        string           `json:"path,omitempty"`
	Language    string           `json:"language"`
	Symbols     []symbols.Symbol `json:"symbols"`
	Diagnostics []Diagnostic     `json:"diagnostics,omitempty"`
	Lines       int              `json:"lines"`
}

// ParseFile reads a file, picks the adapter from its extension and extracts
// its symbols.
func ParseFile(ctx context.Context, filePath string, opts Options) (*Result, error) {
	adapter, err := ForPath(filePath)
	if err != nil {
		return nil, err
	}

	source, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	result, err := ParseAndExtract(ctx, source, adapter, opts)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = filePath
		}
		return nil, err
	}
	result.Path = filePath
	return result, nil
}

// ParseAndExtract parses source with the adapter's grammar and extracts its symbols.
func ParseAndExtract(ctx context.Context, source []byte, adapter *Adapter, opts Options) (*Result, error) {
	tree, err := parseSource(ctx, source, adapter)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	return Extract(source, tree, adapter, opts)
}

// Extract builds the symbol table for a tree parsed from source.
// It is a pure function of its inputs: every call owns its own position index,
// scope stack and symbol list.
func Extract(source []byte, tree *sitter.Tree, adapter *Adapter, opts Options) (*Result, error) {
	if tree == nil {
		return nil, &ParseError{Language: adapter.Name, Reason: "no syntax tree"}
	}

	idx := position.New(source)
	root := tree.RootNode()

	if opts.Strict && root.HasError() {
		pe := &ParseError{Language: adapter.Name, Reason: "syntax tree contains errors"}
		if bad := firstErrorNode(root); bad != nil {
			if pos, err := idx.Resolve(int(bad.StartByte())); err == nil {
				pe.Position = pos
			}
		}
		return nil, pe
	}

	b := &builder{
		adapter: adapter,
		index:   idx,
		ctx: &Context{
			Source:     source,
			Scope:      &symbols.ScopeStack{},
			scopeKinds: make(map[string]symbols.Kind),
		},
	}
	if err := b.run(root); err != nil {
		return nil, err
	}

	out := b.symbols
	if adapter.Macros != nil && !opts.SkipMacros {
		macros, diags := scanMacros(source, idx, adapter.Macros, adapter.Name)
		out = mergeByOffset(out, dropOpaque(macros, root, adapter.Macros))
		b.diagnostics = append(b.diagnostics, diags...)
	}

	return &Result{
		Language:    adapter.Name,
		Symbols:     out,
		Diagnostics: b.diagnostics,
		Lines:       idx.LineCount(),
	}, nil
}

type workKind int

const (
	workVisit workKind = iota
	workEmit
	workEnter
	workExit
)

type work struct {
	kind  workKind
	node  *sitter.Node
	emit  Emit
	frame symbols.Frame
}

// builder walks one tree iteratively with an explicit work stack and scope stack.
type builder struct {
	adapter     *Adapter
	index       *position.Index
	ctx         *Context
	symbols     []symbols.Symbol
	diagnostics []Diagnostic
	stack       []work
}

func (b *builder) run(root *sitter.Node) error {
	b.stack = append(b.stack[:0], work{kind: workVisit, node: root})

	for len(b.stack) > 0 {
		w := b.stack[len(b.stack)-1]
		b.stack = b.stack[:len(b.stack)-1]

		switch w.kind {
		case workEnter:
			b.ctx.Scope.Push(w.frame)
		case workExit:
			b.ctx.Scope.Pop()
		case workEmit:
			if err := b.emit(w.emit); err != nil {
				return err
			}
		case workVisit:
			b.visit(w.node)
		}
	}
	return nil
}

func (b *builder) visit(n *sitter.Node) {
	if n == nil || !n.IsNamed() {
		return
	}

	kind := n.Kind()
	switch {
	case n.IsError() || n.IsMissing():
		b.diagnose(DiagSyntaxError, n, "syntax error; node skipped")
	case b.adapter.Ignored[kind]:
	case b.adapter.Transparent[kind]:
		var exp Expansion
		for _, child := range namedChildren(n) {
			exp.visit(child)
		}
		b.schedule(exp)
	default:
		rule, ok := b.adapter.Rules[kind]
		if !ok {
			b.diagnose(DiagUnsupportedNode, n, fmt.Sprintf("no %s rule for %q; node skipped", b.adapter.Name, kind))
			return
		}
		b.schedule(rule.Expand(b.ctx, n))
	}
}

// schedule pushes an expansion onto the work stack so that its emissions and
// child visits run in source order.
func (b *builder) schedule(exp Expansion) {
	type item struct {
		offset uint
		emit   *Emit
		child  *Child
	}

	items := make([]item, 0, len(exp.Emits)+len(exp.Children))
	for i := range exp.Emits {
		items = append(items, item{offset: exp.Emits[i].Anchor.StartByte(), emit: &exp.Emits[i]})
	}
	for i := range exp.Children {
		items = append(items, item{offset: exp.Children[i].Node.StartByte(), child: &exp.Children[i]})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].offset < items[j].offset
	})

	// The stack is LIFO, so push in reverse.
	for i := len(items) - 1; i >= 0; i-- {
		it := items[i]
		if it.emit != nil {
			b.stack = append(b.stack, work{kind: workEmit, emit: *it.emit})
			continue
		}
		frames := it.child.Frames
		for range frames {
			b.stack = append(b.stack, work{kind: workExit})
		}
		b.stack = append(b.stack, work{kind: workVisit, node: it.child.Node})
		for f := len(frames) - 1; f >= 0; f-- {
			b.stack = append(b.stack, work{kind: workEnter, frame: frames[f]})
		}
	}
}

func (b *builder) emit(em Emit) error {
	offset := int(em.Anchor.StartByte())
	pos, err := b.index.Resolve(offset)
	if err != nil {
		return &AnchorError{NodeKind: em.Anchor.Kind(), Offset: offset, Err: err}
	}

	path := b.ctx.Scope.Path()
	path = append(path, em.Qualifiers...)

	if em.Kind.IsScope() {
		b.ctx.recordScope(path, em.Name, em.Kind)
	}

	b.symbols = append(b.symbols, symbols.Symbol{
		Name:      em.Name,
		Kind:      em.Kind,
		Position:  pos,
		ScopePath: path,
		Form:      em.Form,
		Language:  b.adapter.Name,
	})
	return nil
}

func (b *builder) diagnose(kind DiagnosticKind, n *sitter.Node, msg string) {
	pos, _ := b.index.Resolve(int(n.StartByte()))
	b.diagnostics = append(b.diagnostics, Diagnostic{
		Kind:     kind,
		NodeKind: n.Kind(),
		Position: pos,
		Message:  msg,
	})
}

// firstErrorNode finds the first ERROR or MISSING node in pre-order.
func firstErrorNode(root *sitter.Node) *sitter.Node {
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.IsError() || n.IsMissing() {
			return n
		}
		if !n.HasError() {
			continue
		}
		for i := int(n.ChildCount()) - 1; i >= 0; i-- {
			if child := n.Child(uint(i)); child != nil {
				stack = append(stack, child)
			}
		}
	}
	return nil
}

// mergeByOffset merges two offset-ordered symbol lists, keeping a before b on ties.
func mergeByOffset(a, b []symbols.Symbol) []symbols.Symbol {
	if len(b) == 0 {
		return a
	}
	out := make([]symbols.Symbol, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if b[j].Position.Offset < a[i].Position.Offset {
			out = append(out, b[j])
			j++
		} else {
			out = append(out, a[i])
			i++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}
