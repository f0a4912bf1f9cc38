package parsers

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/cortex-positions/internal/symbols"
)

// Rules shared by the C and C++ grammars. The C++ grammar extends the C one, so
// both adapters start from the same tables and C++ adds its own categories.

// declTarget is what a declarator chain resolves to.
type declTarget struct {
	name       string
	anchor     *sitter.Node
	qualifiers []string

	// function is set when the innermost wrapper around the name is a
	// function declarator, i.e. the declarator declares a callable and not a
	// pointer to one.
	function bool

	// special is Destructor or Operator when the name itself says so.
	special symbols.Kind

	// funcPointer is the pointer declarator of a "(*name)(...)" form.
	funcPointer *sitter.Node
}

// resolveDeclarator walks a declarator chain down to the declared name.
func resolveDeclarator(ctx *Context, n *sitter.Node) declTarget {
	var t declTarget

	// innermost tracks the last wrapper that changes what the name denotes.
	innermost := ""
	var trail []string

	for n != nil {
		kind := n.Kind()
		trail = append(trail, kind)

		switch kind {
		case "function_declarator":
			innermost = kind
			n = n.ChildByFieldName("declarator")

		case "pointer_declarator":
			if len(trail) >= 3 && trail[len(trail)-2] == "parenthesized_declarator" && trail[len(trail)-3] == "function_declarator" {
				t.funcPointer = n
			}
			innermost = kind
			n = n.ChildByFieldName("declarator")

		case "array_declarator":
			innermost = kind
			n = n.ChildByFieldName("declarator")

		case "reference_declarator":
			innermost = kind
			n = lastNamedChild(n)

		case "init_declarator":
			n = n.ChildByFieldName("declarator")

		case "parenthesized_declarator", "attributed_declarator":
			n = firstDeclaratorChild(n)

		case "qualified_identifier":
			if q := scopeQualifier(ctx, n.ChildByFieldName("scope")); q != "" {
				t.qualifiers = append(t.qualifiers, q)
			}
			n = n.ChildByFieldName("name")

		case "template_function", "template_method", "template_type":
			n = n.ChildByFieldName("name")

		case "destructor_name":
			id := n.NamedChild(0)
			t.name = ctx.Text(id)
			t.anchor = id
			t.special = symbols.KindDestructor
			n = nil

		case "operator_name":
			t.name = normalizeOperator(ctx.Text(n))
			t.anchor = n
			t.special = symbols.KindOperator
			n = nil

		case "operator_cast":
			t.name = "operator " + compactSpaces(ctx.Text(n.ChildByFieldName("type")))
			t.anchor = n
			t.special = symbols.KindOperator
			innermost = "function_declarator"
			n = nil

		case "identifier", "field_identifier", "type_identifier", "primitive_type":
			t.name = ctx.Text(n)
			t.anchor = n
			n = nil

		default:
			// Structured bindings and other forms without a single name.
			n = nil
		}
	}

	t.function = innermost == "function_declarator"
	return t
}

// firstDeclaratorChild skips attributes and calling-convention modifiers.
func firstDeclaratorChild(n *sitter.Node) *sitter.Node {
	for _, child := range namedChildren(n) {
		switch child.Kind() {
		case "attribute_specifier", "attribute_declaration", "ms_call_modifier", "gnu_asm_expression":
			continue
		}
		return child
	}
	return nil
}

// scopeQualifier names the scope part of a qualified identifier.
func scopeQualifier(ctx *Context, scope *sitter.Node) string {
	if scope == nil {
		return ""
	}
	switch scope.Kind() {
	case "template_type":
		return ctx.Text(scope.ChildByFieldName("name"))
	case "namespace_identifier", "type_identifier", "identifier":
		return ctx.Text(scope)
	}
	return compactSpaces(ctx.Text(scope))
}

// normalizeOperator spells an operator name the way it is usually written:
// "operator+" for symbols, "operator new" for keywords.
func normalizeOperator(text string) string {
	rest := strings.TrimSpace(strings.TrimPrefix(text, "operator"))
	if rest == "" {
		return "operator"
	}
	if c := rest[0]; c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '"' {
		return "operator " + compactSpaces(rest)
	}
	return "operator" + strings.Join(strings.Fields(rest), "")
}

// callableKind classifies a function-like declarator by where it appears.
func callableKind(ctx *Context, decl *sitter.Node, t declTarget) symbols.Kind {
	if t.special != "" {
		return t.special
	}

	enclosing, inType := ctx.EnclosingType()

	owner := enclosing.Name
	if len(t.qualifiers) > 0 {
		owner = t.qualifiers[len(t.qualifiers)-1]
	}
	if decl.ChildByFieldName("type") == nil && owner != "" && t.name == owner {
		return symbols.KindConstructor
	}

	if inType {
		return symbols.KindMethod
	}
	if len(t.qualifiers) > 0 {
		if k, ok := ctx.KnownScopeKind(t.qualifiers...); ok && k == symbols.KindNamespace {
			return symbols.KindFunction
		}
		return symbols.KindMethod
	}
	return symbols.KindFunction
}

func isAggregate(n *sitter.Node) bool {
	if n == nil {
		return false
	}
	switch n.Kind() {
	case "struct_specifier", "union_specifier", "enum_specifier", "class_specifier":
		return true
	}
	return false
}

func aggregateKind(n *sitter.Node) symbols.Kind {
	switch n.Kind() {
	case "union_specifier":
		return symbols.KindUnion
	case "enum_specifier":
		return symbols.KindEnum
	case "class_specifier":
		return symbols.KindClass
	}
	return symbols.KindStruct
}

// scopedEnum reports whether an enum_specifier is "enum class" or "enum struct".
func scopedEnum(n *sitter.Node) bool {
	return hasChildOfType(n, "class") || hasChildOfType(n, "struct")
}

// pushesFrame reports whether an aggregate's body opens a scope.
func pushesFrame(n *sitter.Node) bool {
	return n.Kind() != "enum_specifier" || scopedEnum(n)
}

func hasStorageClass(ctx *Context, n *sitter.Node, class string) bool {
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child != nil && child.Kind() == "storage_class_specifier" && ctx.Text(child) == class {
			return true
		}
	}
	return false
}

// expandAggregate handles struct, union, enum and class specifiers.
func expandAggregate(ctx *Context, n *sitter.Node) Expansion {
	var exp Expansion
	kind := aggregateKind(n)
	body := n.ChildByFieldName("body")

	name, anchor, quals := aggregateName(ctx, n.ChildByFieldName("name"))
	if anchor == nil {
		// Anonymous members belong to the enclosing scope.
		if body != nil {
			exp.visit(body)
		}
		return exp
	}
	if body == nil {
		exp.emit(Emit{Name: name, Kind: kind, Anchor: anchor, Form: symbols.FormDeclaration, Qualifiers: quals})
		return exp
	}

	exp.emit(Emit{Name: name, Kind: kind, Anchor: anchor, Qualifiers: quals})
	if !pushesFrame(n) {
		exp.visit(body)
		return exp
	}

	frames := make([]symbols.Frame, 0, len(quals)+1)
	for i, q := range quals {
		qk, ok := ctx.KnownScopeKind(quals[:i+1]...)
		if !ok {
			qk = symbols.KindNamespace
		}
		frames = append(frames, symbols.Frame{Name: q, Kind: qk})
	}
	frames = append(frames, frameFor(name, kind))
	exp.visit(body, frames...)
	return exp
}

// aggregateName resolves the tag of an aggregate, which may be qualified or a
// template specialization.
func aggregateName(ctx *Context, n *sitter.Node) (string, *sitter.Node, []string) {
	var quals []string
	for n != nil {
		switch n.Kind() {
		case "qualified_identifier":
			if q := scopeQualifier(ctx, n.ChildByFieldName("scope")); q != "" {
				quals = append(quals, q)
			}
			n = n.ChildByFieldName("name")
		case "template_type":
			n = n.ChildByFieldName("name")
		default:
			return ctx.Text(n), n, quals
		}
	}
	return "", nil, quals
}

// expandFunctionDefinition emits the defined callable. Bodies are not visited:
// locals are not symbols.
func expandFunctionDefinition(ctx *Context, n *sitter.Node) Expansion {
	var exp Expansion
	if typ := n.ChildByFieldName("type"); isAggregate(typ) && typ.ChildByFieldName("body") != nil {
		exp.visit(typ)
	}

	t := resolveDeclarator(ctx, n.ChildByFieldName("declarator"))
	exp.emit(Emit{
		Name:       t.name,
		Kind:       callableKind(ctx, n, t),
		Anchor:     t.anchor,
		Qualifiers: t.qualifiers,
	})
	return exp
}

// expandDeclaration handles prototypes and variables.
func expandDeclaration(ctx *Context, n *sitter.Node) Expansion {
	var exp Expansion
	if typ := n.ChildByFieldName("type"); isAggregate(typ) && typ.ChildByFieldName("body") != nil {
		exp.visit(typ)
	}

	extern := hasStorageClass(ctx, n, "extern")
	for _, d := range childrenByField(n, "declarator") {
		t := resolveDeclarator(ctx, d)
		if t.function {
			exp.emit(Emit{
				Name:       t.name,
				Kind:       callableKind(ctx, n, t),
				Anchor:     t.anchor,
				Form:       symbols.FormDeclaration,
				Qualifiers: t.qualifiers,
			})
			continue
		}
		if ctx.Scope.InFunction() {
			continue
		}

		kind := symbols.KindVariable
		if ctx.AtFileScope() {
			kind = symbols.KindGlobalVariable
		}
		form := symbols.FormDefinition
		if extern && d.Kind() != "init_declarator" {
			form = symbols.FormDeclaration
		}
		exp.emit(Emit{Name: t.name, Kind: kind, Anchor: t.anchor, Form: form, Qualifiers: t.qualifiers})
	}
	return exp
}

// expandTypeDefinition emits one Typedef per alias. An inline aggregate is
// visited first: a tagged one emits itself, an anonymous one lends the first
// alias name to its body frame.
func expandTypeDefinition(ctx *Context, n *sitter.Node) Expansion {
	var exp Expansion
	typ := n.ChildByFieldName("type")
	decls := childrenByField(n, "declarator")

	targets := make([]declTarget, 0, len(decls))
	for _, d := range decls {
		targets = append(targets, resolveDeclarator(ctx, d))
	}

	if isAggregate(typ) {
		if body := typ.ChildByFieldName("body"); body != nil {
			switch {
			case typ.ChildByFieldName("name") != nil:
				exp.visit(typ)
			case !pushesFrame(typ):
				exp.visit(body)
			default:
				alias := ""
				if len(targets) > 0 {
					alias = targets[0].name
				}
				exp.visit(body, frameFor(alias, aggregateKind(typ)))
			}
		}
	}

	for _, t := range targets {
		anchor := t.anchor
		if t.funcPointer != nil {
			anchor = t.funcPointer
		}
		exp.emit(Emit{Name: t.name, Kind: symbols.KindTypedef, Anchor: anchor})
	}
	return exp
}

// expandFieldDeclaration emits one Field per declarator, or a method
// declaration for function declarators inside a class.
func expandFieldDeclaration(ctx *Context, n *sitter.Node) Expansion {
	var exp Expansion
	typ := n.ChildByFieldName("type")
	decls := childrenByField(n, "declarator")

	// A nested aggregate, or a forward declaration with no declarator at all.
	if isAggregate(typ) && (typ.ChildByFieldName("body") != nil || len(decls) == 0) {
		exp.visit(typ)
	}

	for _, d := range decls {
		t := resolveDeclarator(ctx, d)
		if t.function {
			exp.emit(Emit{
				Name:       t.name,
				Kind:       callableKind(ctx, n, t),
				Anchor:     t.anchor,
				Form:       symbols.FormDeclaration,
				Qualifiers: t.qualifiers,
			})
			continue
		}
		exp.emit(Emit{Name: t.name, Kind: symbols.KindField, Anchor: t.anchor})
	}
	return exp
}

// expandPreprocConditional visits the branches of #if/#ifdef/#elif/#else but
// not the condition.
func expandPreprocConditional(_ *Context, n *sitter.Node) Expansion {
	var exp Expansion
	for _, child := range namedChildrenExcept(n, "condition", "name") {
		exp.visit(child)
	}
	return exp
}

// cFamilyRules returns the rule table shared by C and C++.
func cFamilyRules() map[string]Rule {
	aggregate := func(kind symbols.Kind) Rule {
		return Rule{Kind: kind, Expand: expandAggregate}
	}
	preproc := Rule{Expand: expandPreprocConditional}

	return map[string]Rule{
		"function_definition": {Kind: symbols.KindFunction, Expand: expandFunctionDefinition},
		"declaration":         {Kind: symbols.KindVariable, Expand: expandDeclaration},
		"type_definition":     {Kind: symbols.KindTypedef, Expand: expandTypeDefinition},
		"field_declaration":   {Kind: symbols.KindField, Expand: expandFieldDeclaration},
		"struct_specifier":    aggregate(symbols.KindStruct),
		"union_specifier":     aggregate(symbols.KindUnion),
		"enum_specifier":      aggregate(symbols.KindEnum),
		"enumerator":          {Kind: symbols.KindEnumMember, NameField: "name"},
		"preproc_if":          preproc,
		"preproc_ifdef":       preproc,
		"preproc_else":        preproc,
		"preproc_elif":        preproc,
		"preproc_elifdef":     preproc,
	}
}

func cFamilyTransparent() map[string]bool {
	return set(
		"translation_unit",
		"field_declaration_list",
		"enumerator_list",
		"declaration_list",
	)
}

func cFamilyIgnored() map[string]bool {
	return set(
		"comment",
		"preproc_include",
		"preproc_def",
		"preproc_function_def",
		"preproc_call",
		"expression_statement",
		"attribute_specifier",
		"attributed_statement",
		"macro_type_specifier",
		"primitive_type",
		"type_identifier",
		"sized_type_specifier",
	)
}
