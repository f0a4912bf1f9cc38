package cli

import (
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/cortex-positions/internal/git"
	"github.com/mvp-joe/cortex-positions/internal/storage"
)

// gitOps records the branch of exported runs.
var gitOps = git.NewOperations()

var (
	exportDB    string
	exportQuiet bool
)

var exportCmd = &cobra.Command{
	Use:   "export [paths...]",
	Short: "Write extracted symbols into a SQLite database",
	Long: `Extract symbols and store them as a new run in a SQLite database, for
navigation tools that query positions without re-parsing.

Every export adds a run; older runs are kept until removed with
"cortex-positions runs delete". The database defaults to storage.db_path
(.cortex-positions/symbols.db) under the project root.

Example:
  cortex-positions export --db /tmp/symbols.db src/`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportDB, "db", "", "SQLite database path (default: storage.db_path)")
	exportCmd.Flags().BoolVarP(&exportQuiet, "quiet", "q", false, "Disable progress output")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.ErrOrStderr())
	defer cancel()

	p, err := loadProject()
	if err != nil {
		return err
	}

	results, _, err := p.extract(ctx, args, p.options(), NewCLIProgressReporter(exportQuiet))
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	ok, failed := p.split(results)

	db, dbPath, err := p.openDB(exportDB)
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := storage.NewSymbolWriter(db).WriteRun(p.root, gitOps.CurrentBranch(p.root), ok)
	if err != nil {
		return fmt.Errorf("failed to export symbols: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Exported %s symbols from %s files to %s\n",
		formatNumber(run.SymbolCount), formatNumber(run.FileCount), dbPath)
	fmt.Fprintf(out, "  Run: %s\n", run.ID)
	if run.Branch != "" {
		fmt.Fprintf(out, "  Branch: %s\n", run.Branch)
	}
	if len(failed) > 0 {
		fmt.Fprintf(out, "  Skipped %d files that failed to extract\n", len(failed))
	}
	return nil
}

// openDB opens the export database, resolving a relative path against the
// project root. An empty path selects storage.db_path.
func (p *project) openDB(path string) (*sql.DB, string, error) {
	if path == "" {
		path = p.cfg.Storage.DBPath
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(p.root, path)
	}
	db, err := storage.Open(path)
	if err != nil {
		return nil, "", err
	}
	return db, path, nil
}
