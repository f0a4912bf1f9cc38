package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mvp-joe/cortex-positions/internal/indexer/parsers"
	"github.com/mvp-joe/cortex-positions/internal/search"
)

// SymbolService answers tool calls for one project root.
type SymbolService struct {
	root  string
	opts  parsers.Options
	cache *ResultCache

	mu    sync.RWMutex
	index *search.SymbolIndex
}

// NewSymbolService creates a service. cache and index may be nil.
func NewSymbolService(root string, opts parsers.Options, cache *ResultCache, index *search.SymbolIndex) *SymbolService {
	return &SymbolService{root: root, opts: opts, cache: cache, index: index}
}

// Index returns the current symbol index, or nil.
func (s *SymbolService) Index() *search.SymbolIndex {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// SetIndex replaces the symbol index.
func (s *SymbolService) SetIndex(index *search.SymbolIndex) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = index
}

// ExtractRequest is a file path under the root, or inline source with its language.
type ExtractRequest struct {
	Path     string
	Source   string
	Language string
	Options  parsers.Options
}

// Extract returns the symbol table for a request and whether it came from cache.
func (s *SymbolService) Extract(ctx context.Context, req ExtractRequest) (*parsers.Result, bool, error) {
	var (
		source  []byte
		adapter *parsers.Adapter
		err     error
	)

	switch {
	case req.Path != "":
		var abs string
		abs, err = s.resolve(req.Path)
		if err != nil {
			return nil, false, err
		}
		if adapter, err = parsers.ForPath(abs); err != nil {
			return nil, false, err
		}
		if source, err = os.ReadFile(abs); err != nil {
			return nil, false, fmt.Errorf("failed to read %s: %w", req.Path, err)
		}
	case req.Source != "":
		if req.Language == "" {
			return nil, false, fmt.Errorf("language is required with source")
		}
		if adapter, err = parsers.ForLanguage(req.Language); err != nil {
			return nil, false, err
		}
		source = []byte(req.Source)
	default:
		return nil, false, fmt.Errorf("either path or source is required")
	}

	key := cacheKey(adapter.Name, req.Options, source)
	if s.cache != nil {
		if r, ok := s.cache.Get(key); ok {
			return withPath(r, req.Path), true, nil
		}
	}

	r, err := parsers.ParseAndExtract(ctx, source, adapter, req.Options)
	if err != nil {
		return nil, false, err
	}
	if s.cache != nil {
		s.cache.Set(key, r)
	}
	return withPath(r, req.Path), false, nil
}

// resolve maps a root-relative path to an absolute one inside the root.
func (s *SymbolService) resolve(path string) (string, error) {
	root, err := filepath.Abs(s.root)
	if err != nil {
		return "", err
	}
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(root, path)
	}
	abs = filepath.Clean(abs)

	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s is outside the project root", path)
	}
	return abs, nil
}

// withPath returns a shallow copy of a shared result labelled with path.
func withPath(r *parsers.Result, path string) *parsers.Result {
	out := *r
	out.Path = filepath.ToSlash(path)
	return &out
}
