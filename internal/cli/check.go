package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/cortex-positions/internal/indexer/parsers"
	"github.com/mvp-joe/cortex-positions/internal/validator"
	"github.com/mvp-joe/cortex-positions/internal/watcher"
)

// ErrCheckFailed is returned when at least one fixture does not match.
var ErrCheckFailed = errors.New("fixture check failed")

var (
	checkFormatFlag string
	checkWatch      bool
	checkUnexpected bool
	checkStrict     bool
)

var checkCmd = &cobra.Command{
	Use:   "check <fixture...>",
	Short: "Validate extracted positions against fixture annotations",
	Long: `Extract each fixture file and compare its symbols with the positions its
comments expect. An annotation looks like:

  int area(int w); // area at position (line 3, col 4)

Missing symbols and wrong positions are errors. Extracted symbols without an
annotation are warnings unless --fail-on-unexpected (or
validate.fail_on_unexpected) is set.

With --watch the fixtures are re-checked whenever one of them changes.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVarP(&checkFormatFlag, "format", "f", formatText, "Output format: json or text")
	checkCmd.Flags().BoolVarP(&checkWatch, "watch", "w", false, "Re-check fixtures when they change")
	checkCmd.Flags().BoolVar(&checkUnexpected, "fail-on-unexpected", false, "Treat unannotated symbols as errors")
	checkCmd.Flags().BoolVar(&checkStrict, "strict", false, "Treat syntax errors as fatal for the file")
}

func runCheck(cmd *cobra.Command, args []string) error {
	if err := checkFormat(checkFormatFlag); err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.ErrOrStderr())
	defer cancel()

	p, err := loadProject()
	if err != nil {
		return err
	}
	c := &checker{
		opts:             p.options(),
		failOnUnexpected: checkUnexpected || p.cfg.Validate.FailOnUnexpected,
		format:           checkFormatFlag,
		out:              cmd.OutOrStdout(),
	}
	if checkStrict {
		c.opts.Strict = true
	}

	passed, err := c.run(ctx, args)
	if err != nil {
		return err
	}
	if !checkWatch {
		if !passed {
			return ErrCheckFailed
		}
		return nil
	}

	w, err := watcher.NewFileWatcher(args, watcher.Options{})
	if err != nil {
		return fmt.Errorf("failed to watch fixtures: %w", err)
	}
	defer w.Stop()

	err = w.Start(ctx, func(files []string) {
		w.Pause()
		defer w.Resume()
		fmt.Fprintf(cmd.ErrOrStderr(), "\n%d fixture(s) changed, re-checking...\n", len(files))
		if _, err := c.run(ctx, files); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "check failed: %v\n", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "Watching fixtures for changes (Ctrl+C to stop)...")
	<-ctx.Done()
	return nil
}

// checker validates fixtures one at a time.
type checker struct {
	opts             parsers.Options
	failOnUnexpected bool
	format           string
	out              io.Writer
}

// checkSummary is the JSON output of the check command.
type checkSummary struct {
	Reports []*validator.Report `json:"reports"`
	Passed  bool                `json:"passed"`
}

// run checks every fixture and prints the reports. It reports whether all
// fixtures passed; an error means a fixture could not be checked at all.
func (c *checker) run(ctx context.Context, fixtures []string) (bool, error) {
	summary := checkSummary{Passed: true}
	for _, path := range fixtures {
		report, err := c.checkFixture(ctx, path)
		if err != nil {
			return false, err
		}
		if c.failed(report) {
			summary.Passed = false
		}
		summary.Reports = append(summary.Reports, report)
	}

	if c.format == formatJSON {
		return summary.Passed, writeJSON(c.out, &summary)
	}
	for _, r := range summary.Reports {
		mark := "✓"
		if c.failed(r) {
			mark = "✗"
		}
		fmt.Fprintf(c.out, "%s %s", mark, r)
	}
	return summary.Passed, nil
}

func (c *checker) checkFixture(ctx context.Context, path string) (*validator.Report, error) {
	expected, err := validator.LoadFixture(path)
	if err != nil {
		return nil, err
	}
	result, err := parsers.ParseFile(ctx, path, c.opts)
	if err != nil {
		return nil, err
	}
	report := validator.Check(expected, result.Symbols)
	report.Path = path
	return report, nil
}

func (c *checker) failed(r *validator.Report) bool {
	if r.HasErrors() {
		return true
	}
	return c.failOnUnexpected && len(r.Warnings()) > 0
}
