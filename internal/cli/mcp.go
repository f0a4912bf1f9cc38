package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/cortex-positions/internal/mcp"
)

var (
	mcpWatch         bool
	mcpCacheCapacity int
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for symbol positions",
	Long: `Start the Model Context Protocol (MCP) server so coding assistants can ask
for exact symbol positions.

The MCP server:
- Extracts the project once and keeps a symbol index in memory
- Provides extract_symbols, find_symbols and symbol_outline tools
- Re-extracts changed files while it runs (disable with --watch=false)
- Communicates via stdio (standard MCP transport)

Example:
  cortex-positions mcp --root /path/to/project`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().BoolVar(&mcpWatch, "watch", true, "Keep the symbol index current as files change")
	mcpCmd.Flags().IntVar(&mcpCacheCapacity, "cache-capacity", 200_000, "Result cache size, counted in symbols")
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	p, err := loadProject()
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "cortex-positions MCP Server\n")
	fmt.Fprintf(os.Stderr, "Project Root: %s\n", p.root)
	fmt.Fprintf(os.Stderr, "\n")

	server, err := mcp.NewMCPServer(ctx, &mcp.MCPServerConfig{
		RootDir:         p.root,
		IncludePatterns: p.cfg.Paths.Include,
		IgnorePatterns:  p.cfg.Paths.Ignore,
		Workers:         p.cfg.Extract.Workers,
		Options:         p.options(),
		CacheCapacity:   mcpCacheCapacity,
		Watch:           mcpWatch,
		Version:         Version,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer server.Close()

	// Serve (blocks until shutdown)
	if err := server.Serve(ctx); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}

	return nil
}
