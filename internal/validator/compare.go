// Package validator checks extracted symbols against expected positions.
package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mvp-joe/cortex-positions/internal/position"
	"github.com/mvp-joe/cortex-positions/internal/symbols"
)

// MismatchKind classifies one disagreement between expected and actual symbols.
type MismatchKind string

const (
	// MissingSymbol is an expected symbol nothing was paired with.
	MissingSymbol MismatchKind = "missing_symbol"

	// UnexpectedSymbol is an extracted symbol no expectation was paired with.
	UnexpectedSymbol MismatchKind = "unexpected_symbol"

	// PositionMismatch is a paired symbol reported at a different line or column.
	PositionMismatch MismatchKind = "position_mismatch"
)

// Severity of a mismatch.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Mismatch is one finding of Compare.
type Mismatch struct {
	Kind       MismatchKind `json:"kind"`
	Severity   Severity     `json:"severity"`
	Name       string       `json:"name"`
	SymbolKind symbols.Kind `json:"symbol_kind,omitempty"`
	ScopePath  []string     `json:"scope_path,omitempty"`

	// Expected is set for MissingSymbol and PositionMismatch.
	Expected *position.Position `json:"expected,omitempty"`

	// Actual is set for UnexpectedSymbol and PositionMismatch.
	Actual *position.Position `json:"actual,omitempty"`
}

// String formats the mismatch for reports.
func (m Mismatch) String() string {
	name := m.Name
	if m.SymbolKind != "" {
		name = fmt.Sprintf("%s (%s)", m.Name, m.SymbolKind)
	}
	switch m.Kind {
	case MissingSymbol:
		return fmt.Sprintf("[%s] missing %s, expected at %s", m.Severity, name, m.Expected)
	case UnexpectedSymbol:
		return fmt.Sprintf("[%s] unexpected %s at %s", m.Severity, name, m.Actual)
	default:
		return fmt.Sprintf("[%s] %s expected at %s, found at %s", m.Severity, name, m.Expected, m.Actual)
	}
}

// line returns the line used to order mismatches.
func (m Mismatch) line() (int, int) {
	p := m.Expected
	if p == nil {
		p = m.Actual
	}
	return p.Line, p.Column
}

// matches reports whether an actual symbol satisfies the key of an expected
// one. An empty expected kind or a nil expected scope path matches anything.
func matches(expected, actual symbols.Symbol) bool {
	if expected.Name != actual.Name {
		return false
	}
	if expected.Kind != "" && expected.Kind != actual.Kind {
		return false
	}
	if expected.ScopePath != nil && !symbols.SameScope(expected.ScopePath, actual.ScopePath) {
		return false
	}
	return true
}

func samePosition(a, b position.Position) bool {
	return a.Line == b.Line && a.Column == b.Column
}

// Compare pairs expected symbols with extracted ones and reports every
// disagreement. Both lists are taken in ascending line order and each
// expected symbol pairs with the first unpaired actual symbol of the same
// key, so overloads line up one to one.
func Compare(expected, actual []symbols.Symbol) []Mismatch {
	exp := sortedByPosition(expected)
	act := sortedByPosition(actual)

	pairedExp := make([]bool, len(exp))
	pairedAct := make([]bool, len(act))

	var out []Mismatch
	for i, e := range exp {
		for j, a := range act {
			if pairedAct[j] || !matches(e, a) {
				continue
			}
			pairedExp[i], pairedAct[j] = true, true
			if samePosition(e.Position, a.Position) {
				break
			}
			ep, ap := e.Position, a.Position
			out = append(out, Mismatch{
				Kind:       PositionMismatch,
				Severity:   SeverityError,
				Name:       a.Name,
				SymbolKind: a.Kind,
				ScopePath:  a.ScopePath,
				Expected:   &ep,
				Actual:     &ap,
			})
			break
		}
	}

	for i, e := range exp {
		if pairedExp[i] {
			continue
		}
		ep := e.Position
		out = append(out, Mismatch{
			Kind:       MissingSymbol,
			Severity:   SeverityError,
			Name:       e.Name,
			SymbolKind: e.Kind,
			ScopePath:  e.ScopePath,
			Expected:   &ep,
		})
	}

	for j, a := range act {
		if pairedAct[j] {
			continue
		}
		ap := a.Position
		out = append(out, Mismatch{
			Kind:       UnexpectedSymbol,
			Severity:   SeverityWarning,
			Name:       a.Name,
			SymbolKind: a.Kind,
			ScopePath:  a.ScopePath,
			Actual:     &ap,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		li, ci := out[i].line()
		lj, cj := out[j].line()
		if li != lj {
			return li < lj
		}
		return ci < cj
	})
	return out
}

func sortedByPosition(in []symbols.Symbol) []symbols.Symbol {
	out := make([]symbols.Symbol, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Position.Before(out[j].Position)
	})
	return out
}

// Report is the outcome of one validation run.
type Report struct {
	Path       string     `json:"path,omitempty"`
	Expected   int        `json:"expected"`
	Actual     int        `json:"actual"`
	Mismatches []Mismatch `json:"mismatches"`
}

// Check compares expected and actual symbols and wraps the result in a Report.
func Check(expected, actual []symbols.Symbol) *Report {
	return &Report{
		Expected:   len(expected),
		Actual:     len(actual),
		Mismatches: Compare(expected, actual),
	}
}

// HasErrors reports whether any mismatch has error severity.
func (r *Report) HasErrors() bool {
	return len(r.Errors()) > 0
}

// Errors returns the error-severity mismatches.
func (r *Report) Errors() []Mismatch {
	return r.filter(SeverityError)
}

// Warnings returns the warning-severity mismatches.
func (r *Report) Warnings() []Mismatch {
	return r.filter(SeverityWarning)
}

func (r *Report) filter(s Severity) []Mismatch {
	var out []Mismatch
	for _, m := range r.Mismatches {
		if m.Severity == s {
			out = append(out, m)
		}
	}
	return out
}

// String renders the report as a short human-readable summary.
func (r *Report) String() string {
	var b strings.Builder
	if r.Path != "" {
		fmt.Fprintf(&b, "%s: ", r.Path)
	}
	fmt.Fprintf(&b, "%d expected, %d extracted, %d errors, %d warnings\n",
		r.Expected, r.Actual, len(r.Errors()), len(r.Warnings()))
	for _, m := range r.Mismatches {
		fmt.Fprintf(&b, "  %s\n", m)
	}
	return b.String()
}
