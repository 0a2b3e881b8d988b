package cmd

import (
	"github.com/huangsam/scorecard/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Scorecard MCP server",
	Long: `Launch an MCP server over stdio so AI agents can read scorecards via
standard tools. Every tool takes the caller's access code, so agents only see
the rows their role allows.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager)
	},
}
