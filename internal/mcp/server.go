// Package mcp exposes symbol extraction as Model Context Protocol tools.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/cortex-positions/internal/config"
	"github.com/mvp-joe/cortex-positions/internal/indexer"
	"github.com/mvp-joe/cortex-positions/internal/indexer/parsers"
	"github.com/mvp-joe/cortex-positions/internal/search"
	"github.com/mvp-joe/cortex-positions/internal/watcher"
)

// MCPServerConfig configures the MCP server.
type MCPServerConfig struct {
	RootDir         string
	IncludePatterns []string
	IgnorePatterns  []string
	Workers         int
	Options         parsers.Options

	// CacheCapacity bounds the result cache, counted in symbols.
	CacheCapacity int

	// Watch keeps the symbol index current as files change.
	Watch bool

	// Version is reported to clients.
	Version string
}

// DefaultMCPServerConfig returns a config for the current directory using the
// default discovery patterns.
func DefaultMCPServerConfig() *MCPServerConfig {
	defaults := config.Default()
	return &MCPServerConfig{
		RootDir:         ".",
		IncludePatterns: defaults.Paths.Include,
		IgnorePatterns:  defaults.Paths.Ignore,
		Workers:         defaults.Extract.Workers,
		CacheCapacity:   200_000,
		Watch:           true,
		Version:         "dev",
	}
}

// MCPServer manages the MCP server lifecycle.
type MCPServer struct {
	config    *MCPServerConfig
	service   *SymbolService
	cache     *ResultCache
	discovery *indexer.FileDiscovery
	watcher   watcher.FileWatcher
	mcp       *server.MCPServer
}

// NewMCPServer extracts every file under the root into a symbol index and
// registers the extract_symbols, find_symbols and symbol_outline tools.
func NewMCPServer(ctx context.Context, cfg *MCPServerConfig) (*MCPServer, error) {
	if cfg == nil {
		cfg = DefaultMCPServerConfig()
	}
	root, err := filepath.Abs(cfg.RootDir)
	if err != nil {
		return nil, err
	}

	discovery, err := indexer.NewFileDiscovery(root, cfg.IncludePatterns, cfg.IgnorePatterns)
	if err != nil {
		return nil, err
	}

	cache, err := NewResultCache(cfg.CacheCapacity)
	if err != nil {
		return nil, err
	}

	extractor := indexer.NewExtractor(&indexer.Config{
		RootDir:         root,
		IncludePatterns: cfg.IncludePatterns,
		IgnorePatterns:  cfg.IgnorePatterns,
		Workers:         cfg.Workers,
		Options:         cfg.Options,
	}, nil)
	results, stats, err := extractor.Run(ctx)
	if err != nil {
		cache.Close()
		return nil, fmt.Errorf("failed to extract project: %w", err)
	}
	log.Printf("Indexed %d files (%d symbols, %d failed)", stats.FilesProcessed, stats.TotalSymbols, stats.FilesFailed)

	index, err := search.NewSymbolIndex(ctx, relativeResults(root, results))
	if err != nil {
		cache.Close()
		return nil, fmt.Errorf("failed to build symbol index: %w", err)
	}

	s := &MCPServer{
		config:    cfg,
		service:   NewSymbolService(root, cfg.Options, cache, index),
		cache:     cache,
		discovery: discovery,
		mcp: server.NewMCPServer(
			"cortex-positions",
			cfg.Version,
			server.WithToolCapabilities(true),
		),
	}
	s.registerTools()

	if cfg.Watch {
		w, err := watcher.NewFileWatcher([]string{root}, watcher.Options{Extensions: parsers.Extensions()})
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to create file watcher: %w", err)
		}
		s.watcher = w
	}
	return s, nil
}

func (s *MCPServer) registerTools() {
	AddExtractSymbolsTool(s.mcp, s.service)
	AddFindSymbolsTool(s.mcp, s.service)
	AddSymbolOutlineTool(s.mcp, s.service)
}

// Serve starts the MCP server on stdio and blocks until shutdown.
func (s *MCPServer) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.watcher != nil {
		if err := s.watcher.Start(ctx, func(files []string) { s.reindex(ctx, files) }); err != nil {
			return fmt.Errorf("failed to start file watcher: %w", err)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting MCP server on stdio...")
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("MCP server error: %w", err)
		}
	}()

	select {
	case <-sigCh:
		log.Printf("Received shutdown signal, stopping gracefully...")
		return nil
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// reindex re-extracts changed files and drops deleted ones from the index.
func (s *MCPServer) reindex(ctx context.Context, files []string) {
	index := s.service.Index()
	if index == nil {
		return
	}

	var changed, removed []string
	for _, f := range files {
		rel, err := filepath.Rel(s.service.root, f)
		if err != nil {
			continue
		}
		rel = filepath.ToSlash(rel)
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			removed = append(removed, rel)
			continue
		}
		if s.discovery.Matches(rel) {
			changed = append(changed, f)
		}
	}

	extractor := indexer.NewExtractor(&indexer.Config{
		RootDir: s.service.root,
		Workers: s.config.Workers,
		Options: s.config.Options,
	}, nil)
	results, _ := extractor.ExtractFiles(ctx, changed)
	for _, r := range results {
		// A file that no longer extracts must not keep stale symbols.
		if r.Err != nil {
			if rel, err := filepath.Rel(s.service.root, r.Path); err == nil {
				removed = append(removed, filepath.ToSlash(rel))
			}
		}
	}

	if err := index.Update(ctx, relativeResults(s.service.root, results), removed); err != nil {
		log.Printf("Warning: failed to update symbol index: %v", err)
		return
	}
	log.Printf("Reindexed %d changed and %d removed files", len(changed), len(removed))
}

// relativeResults keeps successful results, labelled with root-relative paths.
func relativeResults(root string, results []indexer.FileResult) []*parsers.Result {
	out := make([]*parsers.Result, 0, len(results))
	for _, r := range results {
		if r.Err != nil || r.Result == nil {
			continue
		}
		rel, err := filepath.Rel(root, r.Path)
		if err != nil {
			rel = r.Path
		}
		out = append(out, withPath(r.Result, rel))
	}
	return out
}

// Close releases all resources.
func (s *MCPServer) Close() error {
	var errs []error
	if s.watcher != nil {
		errs = append(errs, s.watcher.Stop())
	}
	if index := s.service.Index(); index != nil {
		errs = append(errs, index.Close())
	}
	if s.cache != nil {
		s.cache.Close()
	}
	return errors.Join(errs...)
}
