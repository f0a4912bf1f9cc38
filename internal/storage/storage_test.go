package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/cortex-positions/internal/indexer/parsers"
	"github.com/mvp-joe/cortex-positions/internal/position"
	"github.com/mvp-joe/cortex-positions/internal/symbols"
)

// Test Plan for storage:
// - CreateSchema is idempotent and records the schema version
// - WriteRun stores the run, its files and symbols in one transaction
// - Symbols round-trip with scope path, form and position intact
// - Nil results are skipped
// - FindByName filters by name and optionally kind
// - LatestRun returns the newest run; (nil, nil) on an empty database
// - DeleteRun cascades to files and symbols
// - Open creates the database file and its directory
// - Files with more symbols than one insert batch are stored completely

func sym(name string, kind symbols.Kind, line, col, offset int, scope ...string) symbols.Symbol {
	if scope == nil {
		scope = []string{}
	}
	return symbols.Symbol{
		Name:      name,
		Kind:      kind,
		Position:  position.Position{Line: line, Column: col, Offset: offset},
		ScopePath: scope,
		Form:      symbols.FormDefinition,
		Language:  "cpp",
	}
}

func sampleResults() []*parsers.Result {
	return []*parsers.Result{
		{
			Path:     "src/a.cpp",
			Language: "cpp",
			Lines:    20,
			Symbols: []symbols.Symbol{
				sym("MyNamespace", symbols.KindNamespace, 1, 10, 10),
				sym("Widget", symbols.KindClass, 2, 6, 30, "MyNamespace"),
				sym("draw", symbols.KindMethod, 3, 9, 50, "MyNamespace", "Widget"),
			},
			Diagnostics: []parsers.Diagnostic{{Kind: parsers.DiagUnsupportedNode, Message: "x"}},
		},
		nil,
		{
			Path:     "src/b.cpp",
			Language: "cpp",
			Lines:    5,
			Symbols: []symbols.Symbol{
				sym("draw", symbols.KindFunction, 1, 5, 5),
			},
		},
	}
}

func TestCreateSchema_Idempotent(t *testing.T) {
	t.Parallel()

	db := NewTestDB(t)
	require.NoError(t, CreateSchema(db))

	version, err := GetSchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)
}

func TestWriteRun_RoundTrip(t *testing.T) {
	t.Parallel()

	db := NewTestDB(t)
	writer := NewSymbolWriter(db)
	reader := NewSymbolReader(db)

	run, err := writer.WriteRun("/repo", "main", sampleResults())
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)
	assert.Equal(t, 2, run.FileCount)
	assert.Equal(t, 4, run.SymbolCount)

	got, err := reader.GetRun(run.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "/repo", got.Root)
	assert.Equal(t, "main", got.Branch)
	assert.Equal(t, run.StartedAt, got.StartedAt)

	files, err := reader.GetFiles(run.ID)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "src/a.cpp", files[0].FilePath)
	assert.Equal(t, 20, files[0].LineCount)
	assert.Equal(t, 1, files[0].DiagnosticCount)

	recs, err := reader.SymbolsForFile(run.ID, "src/a.cpp")
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, sampleResults()[0].Symbols[2], recs[2].Symbol)
	assert.Equal(t, []string{}, recs[0].Symbol.ScopePath)
}

func TestFindByName(t *testing.T) {
	t.Parallel()

	db := NewTestDB(t)
	run, err := NewSymbolWriter(db).WriteRun("/repo", "main", sampleResults())
	require.NoError(t, err)
	reader := NewSymbolReader(db)

	all, err := reader.FindByName(run.ID, "draw", "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "src/a.cpp", all[0].FilePath)
	assert.Equal(t, "src/b.cpp", all[1].FilePath)

	methods, err := reader.FindByName(run.ID, "draw", string(symbols.KindMethod))
	require.NoError(t, err)
	require.Len(t, methods, 1)
	assert.Equal(t, []string{"MyNamespace", "Widget"}, methods[0].Symbol.ScopePath)

	none, err := reader.FindByName(run.ID, "missing", "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLatestRun(t *testing.T) {
	t.Parallel()

	db := NewTestDB(t)
	reader := NewSymbolReader(db)

	latest, err := reader.LatestRun()
	require.NoError(t, err)
	assert.Nil(t, latest)

	writer := NewSymbolWriter(db)
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	writer.now = func() time.Time { return base }
	first, err := writer.WriteRun("/repo", "main", sampleResults())
	require.NoError(t, err)
	writer.now = func() time.Time { return base.Add(time.Hour) }
	second, err := writer.WriteRun("/repo", "main", sampleResults())
	require.NoError(t, err)

	latest, err = reader.LatestRun()
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second.ID, latest.ID)

	runs, err := reader.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, first.ID, runs[0].ID)
}

func TestDeleteRun_Cascades(t *testing.T) {
	t.Parallel()

	db := NewTestDB(t)
	writer := NewSymbolWriter(db)
	run, err := writer.WriteRun("/repo", "main", sampleResults())
	require.NoError(t, err)

	require.NoError(t, writer.DeleteRun(run.ID))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM symbols").Scan(&count))
	assert.Zero(t, count)
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM files").Scan(&count))
	assert.Zero(t, count)

	got, err := NewSymbolReader(db).GetRun(run.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestWriteRun_LargeFile(t *testing.T) {
	t.Parallel()

	db := NewTestDB(t)
	result := &parsers.Result{Path: "big.c", Language: "c", Lines: 2000}
	for i := 0; i < symbolBatchSize*2+7; i++ {
		result.Symbols = append(result.Symbols, sym("f", symbols.KindFunction, i+1, 0, i*10))
	}

	run, err := NewSymbolWriter(db).WriteRun("/repo", "main", []*parsers.Result{result})
	require.NoError(t, err)

	recs, err := NewSymbolReader(db).SymbolsForFile(run.ID, "big.c")
	require.NoError(t, err)
	require.Len(t, recs, len(result.Symbols))
	assert.Equal(t, len(result.Symbols), recs[len(recs)-1].Symbol.Position.Line)
}

func TestOpen_CreatesDatabase(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "symbols.db")
	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, path)
	version, err := GetSchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)
}
