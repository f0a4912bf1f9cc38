package storage

import (
	"strings"
	"time"

	"github.com/mvp-joe/cortex-positions/internal/position"
	"github.com/mvp-joe/cortex-positions/internal/symbols"
)

// scopeSeparator joins scope path segments in the scope_path column.
const scopeSeparator = "::"

// Run is one export of a batch of extraction results.
type Run struct {
	ID          string    `json:"id"`
	Root        string    `json:"root"`
	Branch      string    `json:"branch,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	FileCount   int       `json:"file_count"`
	SymbolCount int       `json:"symbol_count"`
}

// FileRecord is one extracted file within a run.
type FileRecord struct {
	RunID           string `json:"run_id"`
	FilePath        string `json:"file_path"`
	Language        string `json:"language"`
	LineCount       int    `json:"line_count"`
	DiagnosticCount int    `json:"diagnostic_count"`
}

// SymbolRecord is a stored symbol together with the file it came from.
type SymbolRecord struct {
	FilePath string         `json:"file_path"`
	Symbol   symbols.Symbol `json:"symbol"`
}

func encodeScope(path []string) string {
	return strings.Join(path, scopeSeparator)
}

func decodeScope(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, scopeSeparator)
}

func symbolFromRow(name, kind string, line, col, offset int, scope, form, lang string) symbols.Symbol {
	return symbols.Symbol{
		Name:      name,
		Kind:      symbols.Kind(kind),
		Position:  position.Position{Line: line, Column: col, Offset: offset},
		ScopePath: decodeScope(scope),
		Form:      symbols.Form(form),
		Language:  lang,
	}
}
