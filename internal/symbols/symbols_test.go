package symbols

import (
	"encoding/json"
	"testing"

	"github.com/mvp-joe/cortex-positions/internal/position"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for symbols:
// - ScopeStack.Path skips anonymous frames and returns an independent copy
// - Pop on an empty stack is harmless
// - InFunction detects enclosing function frames
// - ParseKind accepts every kind and rejects unknown names
// - QualifiedName and JSON encoding use the expected shapes

func TestScopeStack_PathIsSnapshot(t *testing.T) {
	t.Parallel()

	var s ScopeStack
	s.Push(Frame{Name: "MyNamespace", Kind: KindNamespace})
	s.Push(Frame{Name: "NamespacedClass", Kind: KindClass})

	path := s.Path()
	require.Equal(t, []string{"MyNamespace", "NamespacedClass"}, path)

	s.Pop()
	s.Push(Frame{Name: "Other", Kind: KindClass})

	assert.Equal(t, []string{"MyNamespace", "NamespacedClass"}, path)
	assert.Equal(t, []string{"MyNamespace", "Other"}, s.Path())
}

func TestScopeStack_AnonymousFrames(t *testing.T) {
	t.Parallel()

	var s ScopeStack
	assert.Empty(t, s.Path())
	assert.NotNil(t, s.Path())

	s.Push(Frame{Name: "Outer", Kind: KindStruct})
	s.Push(Frame{Kind: KindStruct, Anonymous: true})
	assert.Equal(t, []string{"Outer"}, s.Path())
	assert.Equal(t, 2, s.Depth())

	top, ok := s.Top()
	require.True(t, ok)
	assert.True(t, top.Anonymous)
	assert.False(t, s.InFunction())

	s.Push(Frame{Kind: KindFunction, Anonymous: true})
	assert.True(t, s.InFunction())

	s.Pop()
	s.Pop()
	s.Pop()
	s.Pop()
	assert.Equal(t, 0, s.Depth())
	_, ok = s.Top()
	assert.False(t, ok)
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	for _, k := range AllKinds {
		got, err := ParseKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	got, err := ParseKind(" Destructor ")
	require.NoError(t, err)
	assert.Equal(t, KindDestructor, got)

	_, err = ParseKind("interface")
	assert.Error(t, err)
}

func TestKind_Classes(t *testing.T) {
	t.Parallel()

	assert.True(t, KindNamespace.IsScope())
	assert.False(t, KindField.IsScope())
	assert.True(t, KindOperator.IsCallable())
	assert.False(t, KindMacro.IsCallable())
}

func TestSymbol_Formatting(t *testing.T) {
	t.Parallel()

	sym := Symbol{
		Name:      "method",
		Kind:      KindMethod,
		Position:  position.Position{Line: 23, Column: 17, Offset: 400},
		ScopePath: []string{"MyNamespace", "NamespacedClass"},
		Form:      FormDefinition,
		Language:  "cpp",
	}

	assert.Equal(t, "MyNamespace::NamespacedClass::method", sym.QualifiedName())
	assert.Equal(t, "method MyNamespace::NamespacedClass::method at 23:17", sym.String())

	data, err := json.Marshal(sym)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"name": "method",
		"kind": "method",
		"position": {"line": 23, "column": 17, "offset": 400},
		"scope_path": ["MyNamespace", "NamespacedClass"],
		"form": "definition",
		"language": "cpp"
	}`, string(data))

	assert.True(t, SameScope([]string{"a"}, []string{"a"}))
	assert.False(t, SameScope([]string{"a"}, []string{"b"}))
	assert.False(t, SameScope(nil, []string{"a"}))
	assert.True(t, SameScope(nil, []string{}))
}
