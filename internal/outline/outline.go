// Package outline arranges a file's flat symbol list into its scope tree.
package outline

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dominikbraun/graph"

	"github.com/mvp-joe/cortex-positions/internal/position"
	"github.com/mvp-joe/cortex-positions/internal/symbols"
)

const rootID = "scope:"

// Entry is one node of the outline.
// Implicit entries stand for scopes that are named in scope paths but never
// declared in the file, like the class of an out-of-line method definition.
type Entry struct {
	Name      string             `json:"name"`
	Kind      symbols.Kind       `json:"kind,omitempty"`
	Form      symbols.Form       `json:"form,omitempty"`
	Position  *position.Position `json:"position,omitempty"`
	Implicit  bool               `json:"implicit,omitempty"`
	Children  []*Entry           `json:"children,omitempty"`
	firstSeen int
}

type node struct {
	id    string
	entry *Entry
}

// Outline is the containment graph of one symbol list: an edge runs from each
// scope to every symbol declared directly inside it.
type Outline struct {
	g graph.Graph[string, *node]
}

// Build arranges symbols by scope path. A symbol whose qualified name matches
// a scope already in the graph is merged into that scope, so reopened
// namespaces, forward declarations and typedef-named aggregates become one entry.
func Build(syms []symbols.Symbol) (*Outline, error) {
	o := &Outline{
		g: graph.New(func(n *node) string { return n.id }, graph.Directed(), graph.Acyclic()),
	}
	if err := o.g.AddVertex(&node{id: rootID, entry: &Entry{}}); err != nil {
		return nil, err
	}

	for i, s := range syms {
		parent, err := o.ensureScope(s.ScopePath, s.Position.Offset)
		if err != nil {
			return nil, err
		}

		qualified := append(append([]string{}, s.ScopePath...), s.Name)
		existing, err := o.g.Vertex(scopeID(qualified))
		switch {
		case err == nil:
			existing.entry.attach(s)
			continue
		case !errors.Is(err, graph.ErrVertexNotFound):
			return nil, err
		}

		id := fmt.Sprintf("sym:%d", i)
		if s.Kind.IsScope() {
			id = scopeID(qualified)
		}
		entry := &Entry{Name: s.Name, firstSeen: s.Position.Offset}
		entry.attach(s)
		if err := o.add(parent, &node{id: id, entry: entry}); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// ensureScope returns the vertex of a scope path, creating implicit entries
// for any missing prefix.
func (o *Outline) ensureScope(path []string, offset int) (string, error) {
	if len(path) == 0 {
		return rootID, nil
	}
	id := scopeID(path)
	if _, err := o.g.Vertex(id); err == nil {
		return id, nil
	} else if !errors.Is(err, graph.ErrVertexNotFound) {
		return "", err
	}

	parent, err := o.ensureScope(path[:len(path)-1], offset)
	if err != nil {
		return "", err
	}
	entry := &Entry{Name: path[len(path)-1], Implicit: true, firstSeen: offset}
	return id, o.add(parent, &node{id: id, entry: entry})
}

func (o *Outline) add(parent string, n *node) error {
	if err := o.g.AddVertex(n); err != nil {
		return fmt.Errorf("failed to add %s: %w", n.id, err)
	}
	if err := o.g.AddEdge(parent, n.id); err != nil {
		return fmt.Errorf("failed to link %s to %s: %w", n.id, parent, err)
	}
	return nil
}

// attach records s on the entry. A definition wins over a declaration.
func (e *Entry) attach(s symbols.Symbol) {
	if !e.Implicit && e.Position != nil && (e.Form == symbols.FormDefinition || s.Form != symbols.FormDefinition) {
		return
	}
	pos := s.Position
	e.Kind = s.Kind
	e.Form = s.Form
	e.Position = &pos
	e.Implicit = false
}

// Roots returns the top-level entries with their children filled in, each
// level in source order.
func (o *Outline) Roots() ([]*Entry, error) {
	adj, err := o.g.AdjacencyMap()
	if err != nil {
		return nil, err
	}

	var build func(id string) ([]*Entry, error)
	build = func(id string) ([]*Entry, error) {
		var children []*Entry
		for childID := range adj[id] {
			n, err := o.g.Vertex(childID)
			if err != nil {
				return nil, err
			}
			grand, err := build(childID)
			if err != nil {
				return nil, err
			}
			n.entry.Children = grand
			children = append(children, n.entry)
		}
		sort.Slice(children, func(i, j int) bool {
			a, b := children[i], children[j]
			if a.order() != b.order() {
				return a.order() < b.order()
			}
			if a.Name != b.Name {
				return a.Name < b.Name
			}
			return a.Kind < b.Kind
		})
		return children, nil
	}
	return build(rootID)
}

// Size returns the number of entries, implicit ones included.
func (o *Outline) Size() (int, error) {
	n, err := o.g.Order()
	if err != nil {
		return 0, err
	}
	return n - 1, nil
}

// Render writes the outline as an indented tree.
func (o *Outline) Render(w io.Writer) error {
	roots, err := o.Roots()
	if err != nil {
		return err
	}
	var walk func(entries []*Entry, depth int) error
	walk = func(entries []*Entry, depth int) error {
		for _, e := range entries {
			if _, err := fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), e); err != nil {
				return err
			}
			if err := walk(e.Children, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(roots, 0)
}

// String formats one entry without its children.
func (e *Entry) String() string {
	if e.Implicit {
		return fmt.Sprintf("%s (implicit)", e.Name)
	}
	s := fmt.Sprintf("%s %s %s", e.Kind, e.Name, e.Position)
	if e.Form == symbols.FormDeclaration {
		s += " (declaration)"
	}
	return s
}

func (e *Entry) order() int {
	if e.Position != nil {
		return min(e.Position.Offset, e.firstSeen)
	}
	return e.firstSeen
}

func scopeID(path []string) string {
	return rootID + strings.Join(path, "::")
}
