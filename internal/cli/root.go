package cli

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	rootDir string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cortex-positions",
	Short: "Extract declared symbols with exact source positions",
	Long: `cortex-positions walks tree-sitter syntax trees and reports every declared
symbol (functions, types, fields, macros, namespaces, methods, ...) with the
line, column and byte offset of its name.

Project settings are read from .cortex-positions/config.yml under --root and
can be overridden with CORTEX_POSITIONS_* environment variables.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initLogging)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", ".", "project root holding .cortex-positions/config.yml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	viper.BindPFlag("root", rootCmd.PersistentFlags().Lookup("root"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initLogging sends log output to stderr so stdout stays machine-readable.
// Warnings about individual files are only shown with --verbose.
func initLogging() {
	log.SetFlags(0)
	if viper.GetBool("verbose") {
		log.SetOutput(os.Stderr)
		return
	}
	log.SetOutput(io.Discard)
}
