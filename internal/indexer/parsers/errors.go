package parsers

import (
	"errors"
	"fmt"

	"github.com/mvp-joe/cortex-positions/internal/position"
)

// ErrUnsupportedLanguage is returned when no adapter matches a language or path.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// ParseError reports source the grammar could not turn into a usable tree.
// Extraction for that file stops; other files in a batch are unaffected.
type ParseError struct {
	Path     string
	Language string
	Reason   string
	Position position.Position
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	loc := e.Path
	if loc == "" {
		loc = "<source>"
	}
	if e.Position.Line > 0 {
		return fmt.Sprintf("parse error in %s (%s) at %s: %s", loc, e.Language, e.Position, e.Reason)
	}
	return fmt.Sprintf("parse error in %s (%s): %s", loc, e.Language, e.Reason)
}

// AnchorError reports an anchor offset that lies outside the source buffer.
// It means the tree and the text are out of sync, so the whole file is rejected.
type AnchorError struct {
	NodeKind string
	Offset   int
	Err      error
}

// Error implements the error interface.
func (e *AnchorError) Error() string {
	return fmt.Sprintf("cannot resolve anchor of %s at offset %d: %v", e.NodeKind, e.Offset, e.Err)
}

// Unwrap returns the underlying position error.
func (e *AnchorError) Unwrap() error {
	return e.Err
}

// DiagnosticKind classifies non-fatal findings.
type DiagnosticKind string

const (
	// DiagUnsupportedNode marks a node category no rule covers; it was skipped.
	DiagUnsupportedNode DiagnosticKind = "unsupported_node_type"

	// DiagMacroAmbiguity marks a directive whose line continuation runs off the
	// end of the file; it was merged best-effort.
	DiagMacroAmbiguity DiagnosticKind = "macro_scan_ambiguity"

	// DiagSyntaxError marks an ERROR node tolerated outside strict mode.
	DiagSyntaxError DiagnosticKind = "syntax_error"
)

// Diagnostic is a non-fatal finding attached to an extraction result.
type Diagnostic struct {
	Kind     DiagnosticKind    `json:"kind"`
	NodeKind string            `json:"node_kind,omitempty"`
	Position position.Position `json:"position"`
	Message  string            `json:"message"`
}

// String formats the diagnostic for logs.
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s at %s: %s", d.Kind, d.Position, d.Message)
}
