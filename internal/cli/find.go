package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/cortex-positions/internal/search"
	"github.com/mvp-joe/cortex-positions/internal/symbols"
)

var (
	findKind     string
	findLanguage string
	findLimit    int
	findFormat   string
)

var findCmd = &cobra.Command{
	Use:   "find <query> [paths...]",
	Short: "Search symbols by name",
	Long: `Extract the project (or the given paths) and search the symbols by name.

Matching is case-insensitive. Exact names rank first, then prefixes, then words
inside identifiers ("header" finds parse_header and parseHeader), then near
misses. Use * and ? for wildcards and "Outer::inner" for qualified names.

Examples:
  cortex-positions find area
  cortex-positions find 'Shape::*' --kind method src/`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFind,
}

func init() {
	rootCmd.AddCommand(findCmd)
	findCmd.Flags().StringVar(&findKind, "kind", "", "Only symbols of this kind")
	findCmd.Flags().StringVar(&findLanguage, "language", "", "Only symbols of this language")
	findCmd.Flags().IntVarP(&findLimit, "limit", "n", 20, "Maximum number of results")
	findCmd.Flags().StringVarP(&findFormat, "format", "f", formatText, "Output format: json or text")
}

func runFind(cmd *cobra.Command, args []string) error {
	if err := checkFormat(findFormat); err != nil {
		return err
	}
	opts := &search.Options{Language: findLanguage, Limit: findLimit}
	if findKind != "" {
		k, err := symbols.ParseKind(findKind)
		if err != nil {
			return err
		}
		opts.Kind = k
	}

	ctx, cancel := signalContext(cmd.ErrOrStderr())
	defer cancel()

	p, err := loadProject()
	if err != nil {
		return err
	}
	results, _, err := p.extract(ctx, args[1:], p.options(), NewCLIProgressReporter(true))
	if err != nil {
		return err
	}
	ok, _ := p.split(results)

	index, err := search.NewSymbolIndex(ctx, ok)
	if err != nil {
		return err
	}
	defer index.Close()

	hits, err := index.Search(ctx, args[0], opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if findFormat == formatJSON {
		if hits == nil {
			hits = []search.Hit{}
		}
		return writeJSON(out, hits)
	}
	if len(hits) == 0 {
		fmt.Fprintf(out, "No symbols match %q\n", args[0])
		return nil
	}
	for _, h := range hits {
		fmt.Fprintf(out, "%s:%d:%d  %s %s\n",
			h.Path, h.Symbol.Position.Line, h.Symbol.Position.Column, h.Symbol.Kind, h.Symbol.QualifiedName())
	}
	return nil
}
