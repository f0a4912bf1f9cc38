package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/viper"

	"github.com/mvp-joe/cortex-positions/internal/config"
	"github.com/mvp-joe/cortex-positions/internal/indexer"
	"github.com/mvp-joe/cortex-positions/internal/indexer/parsers"
)

// ErrUnknownFormat is returned for an output format other than json or text.
var ErrUnknownFormat = errors.New("unknown output format")

const (
	formatText = "text"
	formatJSON = "json"
)

func checkFormat(format string) error {
	if format != formatText && format != formatJSON {
		return fmt.Errorf("%w %q (want json or text)", ErrUnknownFormat, format)
	}
	return nil
}

// project is the resolved root directory and its configuration.
type project struct {
	root string
	cfg  *config.Config
}

func loadProject() (*project, error) {
	root, err := filepath.Abs(viper.GetString("root"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}
	cfg, err := config.LoadConfigFromDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return &project{root: root, cfg: cfg}, nil
}

func (p *project) options() parsers.Options {
	return parsers.Options{
		Strict:     p.cfg.Extract.Strict,
		SkipMacros: !p.cfg.Extract.Macros,
	}
}

// extract runs the extractor over args, or over the whole project when args
// is empty. Directories in args are discovered with the configured patterns.
func (p *project) extract(ctx context.Context, args []string, opts parsers.Options, progress indexer.ProgressReporter) ([]indexer.FileResult, *indexer.ProcessingStats, error) {
	extractor := indexer.NewExtractor(&indexer.Config{
		RootDir:         p.root,
		IncludePatterns: p.cfg.Paths.Include,
		IgnorePatterns:  p.cfg.Paths.Ignore,
		Workers:         p.cfg.Extract.Workers,
		Options:         opts,
	}, progress)

	if len(args) == 0 {
		return extractor.Run(ctx)
	}

	files, err := indexer.CollectFiles(args, p.cfg.Paths.Include, p.cfg.Paths.Ignore)
	if err != nil {
		return nil, nil, err
	}
	progress.OnDiscoveryComplete(len(files))
	results, stats := extractor.ExtractFiles(ctx, files)
	return results, stats, nil
}

// relPath shortens path to be relative to the project root when it lies inside it.
func (p *project) relPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(p.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// fileFailure is a file that could not be extracted.
type fileFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// split separates successful results from failures, labelling both with
// root-relative paths.
func (p *project) split(results []indexer.FileResult) ([]*parsers.Result, []fileFailure) {
	var ok []*parsers.Result
	var failed []fileFailure
	for _, r := range results {
		path := p.relPath(r.Path)
		if r.Err != nil || r.Result == nil {
			msg := "no result"
			if r.Err != nil {
				msg = r.Err.Error()
			}
			failed = append(failed, fileFailure{Path: path, Error: msg})
			continue
		}
		labelled := *r.Result
		labelled.Path = path
		ok = append(ok, &labelled)
	}
	return ok, failed
}

// signalContext returns a context cancelled on Ctrl+C or SIGTERM.
func signalContext(stderr io.Writer) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(stderr, "\nInterrupted! Cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return nil
}
