package storage

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/mvp-joe/cortex-positions/internal/indexer/parsers"
)

// symbolBatchSize keeps multi-row inserts under SQLite's bound-variable limit.
const symbolBatchSize = 500

// SymbolWriter stores extraction results in SQLite.
type SymbolWriter struct {
	db  *sql.DB
	now func() time.Time
}

// NewSymbolWriter creates a SymbolWriter.
// DB must have schema already created via CreateSchema().
func NewSymbolWriter(db *sql.DB) *SymbolWriter {
	return &SymbolWriter{db: db, now: time.Now}
}

// WriteRun stores a batch of results as a new run and returns it. Branch
// records the checked-out revision of root and may be empty.
// The whole run is written in one transaction; nil results are skipped.
func (w *SymbolWriter) WriteRun(root, branch string, results []*parsers.Result) (*Run, error) {
	run := &Run{
		ID:        uuid.New().String(),
		Root:      root,
		Branch:    branch,
		StartedAt: w.now().UTC().Truncate(time.Second),
	}
	for _, r := range results {
		if r == nil {
			continue
		}
		run.FileCount++
		run.SymbolCount += len(r.Symbols)
	}

	tx, err := w.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = sq.Insert("runs").
		Columns(runColumns...).
		Values(run.ID, run.Root, run.Branch, run.StartedAt.Format(time.RFC3339), run.FileCount, run.SymbolCount).
		RunWith(tx).
		Exec()
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}

	for _, r := range results {
		if r == nil {
			continue
		}
		if err := writeFile(tx, run.ID, r); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit run: %w", err)
	}
	return run, nil
}

func writeFile(tx *sql.Tx, runID string, r *parsers.Result) error {
	_, err := sq.Insert("files").
		Columns("run_id", "file_path", "language", "line_count", "diagnostic_count").
		Values(runID, r.Path, r.Language, r.Lines, len(r.Diagnostics)).
		Options("OR REPLACE").
		RunWith(tx).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to insert file %s: %w", r.Path, err)
	}

	if len(r.Symbols) == 0 {
		return nil
	}

	for start := 0; start < len(r.Symbols); start += symbolBatchSize {
		end := min(start+symbolBatchSize, len(r.Symbols))

		insert := sq.Insert("symbols").
			Columns(
				"run_id", "file_path", "ordinal", "name", "qualified_name", "kind",
				"line", "col", "byte_offset", "scope_path", "form", "language",
			)
		for i := start; i < end; i++ {
			s := r.Symbols[i]
			insert = insert.Values(
				runID, r.Path, i, s.Name, s.QualifiedName(), string(s.Kind),
				s.Position.Line, s.Position.Column, s.Position.Offset,
				encodeScope(s.ScopePath), string(s.Form), s.Language,
			)
		}
		if _, err := insert.RunWith(tx).Exec(); err != nil {
			return fmt.Errorf("failed to insert symbols for %s: %w", r.Path, err)
		}
	}
	return nil
}

// DeleteRun removes a run together with its files and symbols.
func (w *SymbolWriter) DeleteRun(runID string) error {
	_, err := sq.Delete("runs").
		Where(sq.Eq{"id": runID}).
		RunWith(w.db).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", runID, err)
	}
	return nil
}
