package storage

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// SymbolReader queries exported runs.
type SymbolReader struct {
	db *sql.DB
}

// NewSymbolReader creates a SymbolReader.
// DB should have schema already created.
func NewSymbolReader(db *sql.DB) *SymbolReader {
	return &SymbolReader{db: db}
}

var runColumns = []string{"id", "root", "branch", "started_at", "file_count", "symbol_count"}

var symbolColumns = []string{
	"file_path", "name", "kind", "line", "col", "byte_offset", "scope_path", "form", "language",
}

// GetRun retrieves one run.
// Returns (nil, nil) if the run is not found.
func (r *SymbolReader) GetRun(runID string) (*Run, error) {
	run, err := scanRun(sq.Select(runColumns...).
		From("runs").
		Where(sq.Eq{"id": runID}).
		RunWith(r.db).
		QueryRow())
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", runID, err)
	}
	return run, nil
}

// LatestRun retrieves the most recently started run.
// Returns (nil, nil) if nothing has been exported yet.
func (r *SymbolReader) LatestRun() (*Run, error) {
	run, err := scanRun(sq.Select(runColumns...).
		From("runs").
		OrderBy("started_at DESC", "rowid DESC").
		Limit(1).
		RunWith(r.db).
		QueryRow())
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return run, nil
}

// ListRuns returns every run, oldest first.
func (r *SymbolReader) ListRuns() ([]*Run, error) {
	rows, err := sq.Select(runColumns...).
		From("runs").
		OrderBy("started_at", "rowid").
		RunWith(r.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetFiles returns the files of a run ordered by path.
func (r *SymbolReader) GetFiles(runID string) ([]*FileRecord, error) {
	rows, err := sq.Select("run_id", "file_path", "language", "line_count", "diagnostic_count").
		From("files").
		Where(sq.Eq{"run_id": runID}).
		OrderBy("file_path").
		RunWith(r.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query files for run %s: %w", runID, err)
	}
	defer rows.Close()

	var files []*FileRecord
	for rows.Next() {
		f := &FileRecord{}
		if err := rows.Scan(&f.RunID, &f.FilePath, &f.Language, &f.LineCount, &f.DiagnosticCount); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// SymbolsForFile returns the symbols of one file in extraction order.
func (r *SymbolReader) SymbolsForFile(runID, filePath string) ([]SymbolRecord, error) {
	return r.querySymbols(sq.Select(symbolColumns...).
		From("symbols").
		Where(sq.Eq{"run_id": runID, "file_path": filePath}).
		OrderBy("ordinal"))
}

// FindByName returns the symbols of a run with the given name, optionally
// restricted to one kind. Results are ordered by file and position.
func (r *SymbolReader) FindByName(runID, name, kind string) ([]SymbolRecord, error) {
	where := sq.Eq{"run_id": runID, "name": name}
	if kind != "" {
		where["kind"] = kind
	}
	return r.querySymbols(sq.Select(symbolColumns...).
		From("symbols").
		Where(where).
		OrderBy("file_path", "ordinal"))
}

func (r *SymbolReader) querySymbols(query sq.SelectBuilder) ([]SymbolRecord, error) {
	rows, err := query.RunWith(r.db).Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	defer rows.Close()

	var out []SymbolRecord
	for rows.Next() {
		var (
			path, name, kind, scope, form, lang string
			line, col, offset                   int
		)
		if err := rows.Scan(&path, &name, &kind, &line, &col, &offset, &scope, &form, &lang); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		out = append(out, SymbolRecord{
			FilePath: path,
			Symbol:   symbolFromRow(name, kind, line, col, offset, scope, form, lang),
		})
	}
	return out, rows.Err()
}

func scanRun(row sq.RowScanner) (*Run, error) {
	run := &Run{}
	var startedAt string
	if err := row.Scan(&run.ID, &run.Root, &run.Branch, &startedAt, &run.FileCount, &run.SymbolCount); err != nil {
		return nil, err
	}
	run.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
	return run, nil
}
