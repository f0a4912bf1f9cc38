package indexer

import (
	"context"
	"errors"
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/mvp-joe/cortex-positions/internal/indexer/parsers"
)

// extractFunc extracts one file. It is parsers.ParseFile outside tests.
type extractFunc func(ctx context.Context, path string, opts parsers.Options) (*parsers.Result, error)

// Extractor runs per-file extraction over a batch with a bounded worker pool.
// Files are independent: one failing never affects the others.
type Extractor struct {
	config   *Config
	progress ProgressReporter
	extract  extractFunc
}

// NewExtractor creates an extractor. A nil progress reporter reports nothing.
func NewExtractor(config *Config, progress ProgressReporter) *Extractor {
	if progress == nil {
		progress = &NoOpProgressReporter{}
	}
	return &Extractor{
		config:   config,
		progress: progress,
		extract:  parsers.ParseFile,
	}
}

func (e *Extractor) workers() int {
	if e.config.Workers > 0 {
		return e.config.Workers
	}
	return runtime.NumCPU()
}

// Discover finds the source files under the configured root.
func (e *Extractor) Discover() ([]string, error) {
	e.progress.OnDiscoveryStart()
	fd, err := NewFileDiscovery(e.config.RootDir, e.config.IncludePatterns, e.config.IgnorePatterns)
	if err != nil {
		return nil, err
	}
	files, err := fd.DiscoverFiles()
	if err != nil {
		return nil, err
	}
	e.progress.OnDiscoveryComplete(len(files))
	return files, nil
}

// Run discovers files under the root and extracts all of them.
func (e *Extractor) Run(ctx context.Context) ([]FileResult, *ProcessingStats, error) {
	files, err := e.Discover()
	if err != nil {
		return nil, nil, err
	}
	results, stats := e.ExtractFiles(ctx, files)
	return results, stats, nil
}

// ExtractFiles extracts every file and returns one result per input, in input
// order. Once ctx is done no further files are started; those report ctx.Err().
func (e *Extractor) ExtractFiles(ctx context.Context, files []string) ([]FileResult, *ProcessingStats) {
	start := time.Now()
	stats := &ProcessingStats{}
	results := make([]FileResult, len(files))
	if len(files) == 0 {
		e.progress.OnComplete(stats)
		return results, stats
	}

	e.progress.OnFileProcessingStart(len(files))

	sem := make(chan struct{}, e.workers())
	var wg sync.WaitGroup

	for i, file := range files {
		results[i].Path = file

		select {
		case <-ctx.Done():
			results[i].Err = ctx.Err()
			continue
		case sem <- struct{}{}: // acquire
		}
		// Both cases can be ready at once; cancellation wins.
		if err := ctx.Err(); err != nil {
			<-sem
			results[i].Err = err
			continue
		}

		wg.Add(1)
		go func(i int, file string) {
			defer wg.Done()
			defer func() { <-sem }() // release

			res, err := e.extract(ctx, file, e.config.Options)
			results[i].Result = res
			results[i].Err = err
			e.progress.OnFileProcessed(file)
		}(i, file)
	}
	wg.Wait()

	for _, r := range results {
		if r.Err != nil && !errors.Is(r.Err, context.Canceled) && !errors.Is(r.Err, context.DeadlineExceeded) {
			log.Printf("Warning: failed to extract %s: %v\n", r.Path, r.Err)
		}
		stats.add(r)
	}
	stats.finish(start)
	e.progress.OnComplete(stats)
	return results, stats
}
