package symbols

import (
	"fmt"
	"strings"

	"github.com/mvp-joe/cortex-positions/internal/position"
)

// Kind classifies a declared entity.
type Kind string

const (
	KindFunction       Kind = "function"
	KindVariable       Kind = "variable"
	KindGlobalVariable Kind = "global_variable"
	KindStruct         Kind = "struct"
	KindUnion          Kind = "union"
	KindEnum           Kind = "enum"
	KindEnumMember     Kind = "enum_member"
	KindField          Kind = "field"
	KindTypedef        Kind = "typedef"
	KindMacro          Kind = "macro"
	KindNamespace      Kind = "namespace"
	KindClass          Kind = "class"
	KindMethod         Kind = "method"
	KindConstructor    Kind = "constructor"
	KindDestructor     Kind = "destructor"
	KindOperator       Kind = "operator"
	KindTemplate       Kind = "template"
)

// AllKinds lists every kind in declaration order.
var AllKinds = []Kind{
	KindFunction, KindVariable, KindGlobalVariable, KindStruct, KindUnion, KindEnum,
	KindEnumMember, KindField, KindTypedef, KindMacro, KindNamespace, KindClass,
	KindMethod, KindConstructor, KindDestructor, KindOperator, KindTemplate,
}

// ParseKind converts a string into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllKinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown symbol kind %q", s)
}

// IsScope reports whether symbols of this kind open a named scope for their members.
func (k Kind) IsScope() bool {
	switch k {
	case KindNamespace, KindClass, KindStruct, KindUnion, KindEnum:
		return true
	}
	return false
}

// IsCallable reports whether the kind is a function-like declaration.
func (k Kind) IsCallable() bool {
	switch k {
	case KindFunction, KindMethod, KindConstructor, KindDestructor, KindOperator:
		return true
	}
	return false
}

// Form distinguishes full definitions from bare declarations.
type Form string

const (
	FormDeclaration Form = "declaration"
	FormDefinition  Form = "definition"
)

// Symbol is one declared entity found in one file.
// Symbols are created once during extraction and never mutated afterwards.
type Symbol struct {
	Name      string            `json:"name"`
	Kind      Kind              `json:"kind"`
	Position  position.Position `json:"position"`
	ScopePath []string          `json:"scope_path"`
	Form      Form              `json:"form"`
	Language  string            `json:"language"`
}

// QualifiedName joins the scope path and name with "::".
func (s Symbol) QualifiedName() string {
	if len(s.ScopePath) == 0 {
		return s.Name
	}
	return strings.Join(s.ScopePath, "::") + "::" + s.Name
}

// String formats the symbol for logs and test output.
func (s Symbol) String() string {
	return fmt.Sprintf("%s %s at %s", s.Kind, s.QualifiedName(), s.Position)
}

// SameScope reports whether two scope paths are element-wise equal.
func SameScope(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
