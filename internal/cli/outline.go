package cli

import (
	"github.com/spf13/cobra"

	"github.com/mvp-joe/cortex-positions/internal/indexer/parsers"
	"github.com/mvp-joe/cortex-positions/internal/outline"
)

var outlineFormat string

var outlineCmd = &cobra.Command{
	Use:   "outline <file>",
	Short: "Show the symbols of a file as a tree of scopes",
	Long: `Extract one file and print its symbols nested under the namespaces, classes,
structs, unions and enums that contain them. Scopes that are only named, like
the class of an out-of-line method definition, are marked implicit.`,
	Args: cobra.ExactArgs(1),
	RunE: runOutline,
}

func init() {
	rootCmd.AddCommand(outlineCmd)
	outlineCmd.Flags().StringVarP(&outlineFormat, "format", "f", formatText, "Output format: json or text")
}

func runOutline(cmd *cobra.Command, args []string) error {
	if err := checkFormat(outlineFormat); err != nil {
		return err
	}
	p, err := loadProject()
	if err != nil {
		return err
	}

	result, err := parsers.ParseFile(cmd.Context(), args[0], p.options())
	if err != nil {
		return err
	}
	o, err := outline.Build(result.Symbols)
	if err != nil {
		return err
	}

	if outlineFormat == formatText {
		return o.Render(cmd.OutOrStdout())
	}
	roots, err := o.Roots()
	if err != nil {
		return err
	}
	if roots == nil {
		roots = []*outline.Entry{}
	}
	return writeJSON(cmd.OutOrStdout(), roots)
}
