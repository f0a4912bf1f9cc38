package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/cortex-positions/internal/storage"
	"github.com/mvp-joe/cortex-positions/internal/symbols"
)

var (
	runsDB     string
	runsFormat string
	lookupRun  string
	lookupKind string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List exported runs",
	Long: `List the runs stored in the export database, oldest first.

Subcommands look up symbols in a run or delete a run.`,
	Args: cobra.NoArgs,
	RunE: runRunsList,
}

var runsLookupCmd = &cobra.Command{
	Use:   "lookup <name>",
	Short: "Find exported symbols by exact name",
	Long: `Find symbols with the given name in an exported run (the latest run
unless --run is given), optionally restricted to one kind.

Example:
  cortex-positions runs lookup area --kind function`,
	Args: cobra.ExactArgs(1),
	RunE: runRunsLookup,
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete an exported run and its symbols",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsDelete,
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsLookupCmd)
	runsCmd.AddCommand(runsDeleteCmd)

	runsCmd.PersistentFlags().StringVar(&runsDB, "db", "", "SQLite database path (default: storage.db_path)")
	runsCmd.PersistentFlags().StringVarP(&runsFormat, "format", "f", formatText, "Output format: json or text")
	runsLookupCmd.Flags().StringVar(&lookupRun, "run", "", "Run ID (default: latest run)")
	runsLookupCmd.Flags().StringVar(&lookupKind, "kind", "", "Only symbols of this kind")
}

func runRunsList(cmd *cobra.Command, args []string) error {
	if err := checkFormat(runsFormat); err != nil {
		return err
	}
	p, err := loadProject()
	if err != nil {
		return err
	}
	db, _, err := p.openDB(runsDB)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := storage.NewSymbolReader(db).ListRuns()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if runsFormat == formatJSON {
		if runs == nil {
			runs = []*storage.Run{}
		}
		return writeJSON(out, runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs exported yet")
		return nil
	}
	for _, r := range runs {
		branch := r.Branch
		if branch == "" {
			branch = "-"
		}
		fmt.Fprintf(out, "%s  %s  %6s files  %8s symbols  %s (%s)\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime),
			formatNumber(r.FileCount), formatNumber(r.SymbolCount), r.Root, branch)
	}
	return nil
}

func runRunsLookup(cmd *cobra.Command, args []string) error {
	if err := checkFormat(runsFormat); err != nil {
		return err
	}
	var kind string
	if lookupKind != "" {
		k, err := symbols.ParseKind(lookupKind)
		if err != nil {
			return err
		}
		kind = string(k)
	}

	p, err := loadProject()
	if err != nil {
		return err
	}
	db, _, err := p.openDB(runsDB)
	if err != nil {
		return err
	}
	defer db.Close()

	reader := storage.NewSymbolReader(db)
	var run *storage.Run
	if lookupRun != "" {
		run, err = reader.GetRun(lookupRun)
	} else {
		run, err = reader.LatestRun()
	}
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("no exported run found")
	}

	records, err := reader.FindByName(run.ID, args[0], kind)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if runsFormat == formatJSON {
		if records == nil {
			records = []storage.SymbolRecord{}
		}
		return writeJSON(out, records)
	}
	for _, rec := range records {
		s := rec.Symbol
		scope := strings.Join(s.ScopePath, "::")
		if scope == "" {
			scope = "-"
		}
		fmt.Fprintf(out, "%s:%d:%d  %s %s  %s\n",
			rec.FilePath, s.Position.Line, s.Position.Column, s.Kind, s.Name, scope)
	}
	if len(records) == 0 {
		fmt.Fprintf(out, "No symbols named %q in run %s\n", args[0], run.ID)
	}
	return nil
}

func runRunsDelete(cmd *cobra.Command, args []string) error {
	p, err := loadProject()
	if err != nil {
		return err
	}
	db, _, err := p.openDB(runsDB)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := storage.NewSymbolWriter(db).DeleteRun(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted run %s\n", args[0])
	return nil
}
