// Package search is an in-memory full-text index over extracted symbols.
package search

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/single"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/mvp-joe/cortex-positions/internal/indexer/parsers"
	"github.com/mvp-joe/cortex-positions/internal/symbols"
)

const (
	// identifierAnalyzer keeps a whole name as one lowercased token.
	identifierAnalyzer = "identifier"

	defaultLimit = 20
	maxLimit     = 200
	batchSize    = 1000
)

// Options narrows a search.
type Options struct {
	Kind     symbols.Kind
	Language string
	Limit    int
}

// Hit is one matching symbol.
type Hit struct {
	Path   string         `json:"path"`
	Symbol symbols.Symbol `json:"symbol"`
	Score  float64        `json:"score"`
}

// SymbolIndex finds symbols by name across many files.
//
// Names are indexed twice: whole (case-insensitive, for exact, prefix,
// wildcard and fuzzy matches) and split into words at underscores and case
// changes, so "parse" finds parseHeader and parse_header.
type SymbolIndex struct {
	mu      sync.RWMutex
	index   bleve.Index
	symbols map[string]Hit      // document id -> symbol
	byPath  map[string][]string // path -> document ids
}

// NewSymbolIndex builds an index over the given results. Nil results are skipped.
func NewSymbolIndex(ctx context.Context, results []*parsers.Result) (*SymbolIndex, error) {
	m, err := buildMapping()
	if err != nil {
		return nil, fmt.Errorf("failed to build index mapping: %w", err)
	}
	index, err := bleve.NewMemOnly(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create bleve index: %w", err)
	}

	x := &SymbolIndex{
		index:   index,
		symbols: make(map[string]Hit),
		byPath:  make(map[string][]string),
	}
	if err := x.Update(ctx, results, nil); err != nil {
		index.Close()
		return nil, err
	}
	return x, nil
}

func buildMapping() (*mapping.IndexMappingImpl, error) {
	indexMapping := bleve.NewIndexMapping()
	err := indexMapping.AddCustomAnalyzer(identifierAnalyzer, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     single.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, err
	}

	nameMapping := bleve.NewTextFieldMapping()
	nameMapping.Analyzer = identifierAnalyzer
	nameMapping.Store = false

	wordsMapping := bleve.NewTextFieldMapping()
	wordsMapping.Analyzer = "standard"
	wordsMapping.Store = false

	keywordMapping := bleve.NewTextFieldMapping()
	keywordMapping.Analyzer = "keyword"
	keywordMapping.Store = false

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("name", nameMapping)
	docMapping.AddFieldMappingsAt("qualified", nameMapping)
	docMapping.AddFieldMappingsAt("words", wordsMapping)
	docMapping.AddFieldMappingsAt("kind", keywordMapping)
	docMapping.AddFieldMappingsAt("language", keywordMapping)
	docMapping.AddFieldMappingsAt("path", keywordMapping)

	indexMapping.DefaultMapping = docMapping
	return indexMapping, nil
}

// Update removes every symbol of the removed paths and of the paths being
// re-indexed, then indexes the given results.
func (x *SymbolIndex) Update(ctx context.Context, results []*parsers.Result, removed []string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	batch := x.index.NewBatch()
	drop := func(path string) {
		for _, id := range x.byPath[path] {
			batch.Delete(id)
			delete(x.symbols, id)
		}
		delete(x.byPath, path)
	}
	for _, path := range removed {
		drop(path)
	}

	for _, r := range results {
		if r == nil {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		drop(r.Path)
		ids := make([]string, 0, len(r.Symbols))
		for i, s := range r.Symbols {
			id := fmt.Sprintf("%s#%d", r.Path, i)
			if err := batch.Index(id, toDocument(r.Path, s)); err != nil {
				return fmt.Errorf("failed to add %s to batch: %w", id, err)
			}
			x.symbols[id] = Hit{Path: r.Path, Symbol: s}
			ids = append(ids, id)

			if batch.Size() >= batchSize {
				if err := x.index.Batch(batch); err != nil {
					return fmt.Errorf("failed to execute batch: %w", err)
				}
				batch = x.index.NewBatch()
			}
		}
		x.byPath[r.Path] = ids
	}

	if batch.Size() > 0 {
		if err := x.index.Batch(batch); err != nil {
			return fmt.Errorf("failed to execute final batch: %w", err)
		}
	}
	return nil
}

func toDocument(path string, s symbols.Symbol) map[string]interface{} {
	return map[string]interface{}{
		"name":      s.Name,
		"qualified": s.QualifiedName(),
		"words":     strings.Join(SplitWords(s.Name), " "),
		"kind":      string(s.Kind),
		"language":  s.Language,
		"path":      path,
	}
}

// Search finds symbols matching q. A q containing '*' or '?' is a wildcard
// pattern over whole names; anything else matches exact names first, then
// prefixes, name words and near misses. Ties are broken by document order.
func (x *SymbolIndex) Search(ctx context.Context, q string, opts *Options) ([]Hit, error) {
	if opts == nil {
		opts = &Options{}
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)

	q = strings.TrimSpace(q)
	if q == "" {
		return nil, fmt.Errorf("empty query")
	}

	queries := []query.Query{nameQuery(q)}
	if opts.Kind != "" {
		kq := bleve.NewTermQuery(string(opts.Kind))
		kq.SetField("kind")
		queries = append(queries, kq)
	}
	if opts.Language != "" {
		lq := bleve.NewTermQuery(opts.Language)
		lq.SetField("language")
		queries = append(queries, lq)
	}

	var final query.Query = queries[0]
	if len(queries) > 1 {
		final = bleve.NewConjunctionQuery(queries...)
	}

	req := bleve.NewSearchRequestOptions(final, limit, 0, false)
	req.SortBy([]string{"-_score", "_id"})

	x.mu.RLock()
	defer x.mu.RUnlock()

	res, err := x.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit, ok := x.symbols[h.ID]
		if !ok {
			continue
		}
		hit.Score = h.Score
		hits = append(hits, hit)
	}
	return hits, nil
}

// Len returns the number of indexed symbols.
func (x *SymbolIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.symbols)
}

// Close releases the index.
func (x *SymbolIndex) Close() error {
	return x.index.Close()
}

func nameQuery(q string) query.Query {
	term := strings.ToLower(q)
	field := "name"
	if strings.Contains(term, "::") {
		field = "qualified"
	}

	if strings.ContainsAny(term, "*?") {
		wq := bleve.NewWildcardQuery(term)
		wq.SetField(field)
		return wq
	}

	exact := bleve.NewTermQuery(term)
	exact.SetField(field)
	exact.SetBoost(8)

	prefix := bleve.NewPrefixQuery(term)
	prefix.SetField(field)
	prefix.SetBoost(3)

	words := bleve.NewMatchQuery(strings.Join(SplitWords(q), " "))
	words.SetField("words")

	parts := []query.Query{exact, prefix, words}
	if len(term) >= 4 {
		fuzzy := bleve.NewFuzzyQuery(term)
		fuzzy.SetField(field)
		fuzzy.SetFuzziness(1)
		parts = append(parts, fuzzy)
	}
	return bleve.NewDisjunctionQuery(parts...)
}

// SplitWords breaks an identifier into its words at underscores, digits-to-letter
// boundaries and case changes: "parseHTTPHeader_v2" -> [parse HTTP Header v2].
func SplitWords(name string) []string {
	var words []string
	runes := []rune(name)
	start := -1
	flush := func(end int) {
		if start >= 0 && end > start {
			words = append(words, string(runes[start:end]))
		}
		start = -1
	}

	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush(i)
			continue
		}
		if start < 0 {
			start = i
			continue
		}
		prev := runes[i-1]
		switch {
		case unicode.IsUpper(r) && unicode.IsLower(prev):
			flush(i)
			start = i
		case unicode.IsUpper(r) && unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]):
			flush(i)
			start = i
		case unicode.IsLetter(r) && unicode.IsDigit(prev):
			flush(i)
			start = i
		}
	}
	flush(len(runes))
	return words
}
