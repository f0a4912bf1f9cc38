package indexer

import (
	"time"

	"github.com/mvp-joe/cortex-positions/internal/indexer/parsers"
)

// Config controls one batch extraction.
type Config struct {
	RootDir         string
	IncludePatterns []string
	IgnorePatterns  []string

	// Workers bounds the number of files extracted at once.
	Workers int

	// Options are passed to every per-file extraction.
	Options parsers.Options
}

// FileResult is the outcome for one input file: either Result or Err is set.
type FileResult struct {
	Path   string          `json:"path"`
	Result *parsers.Result `json:"result,omitempty"`
	Err    error           `json:"-"`
}

// ProcessingStats tracks statistics about one batch.
type ProcessingStats struct {
	FilesProcessed        int     `json:"files_processed"`
	FilesFailed           int     `json:"files_failed"`
	TotalSymbols          int     `json:"total_symbols"`
	TotalDiagnostics      int     `json:"total_diagnostics"`
	ProcessingTimeSeconds float64 `json:"processing_time_seconds"`
}

func (s *ProcessingStats) add(r FileResult) {
	if r.Err != nil {
		s.FilesFailed++
		return
	}
	s.FilesProcessed++
	s.TotalSymbols += len(r.Result.Symbols)
	s.TotalDiagnostics += len(r.Result.Diagnostics)
}

func (s *ProcessingStats) finish(start time.Time) {
	s.ProcessingTimeSeconds = time.Since(start).Seconds()
}
