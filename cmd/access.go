package cmd

import (
	"fmt"

	"github.com/huangsam/scorecard/core"
	"github.com/huangsam/scorecard/core/access"
	"github.com/huangsam/scorecard/internal/contract"
	"github.com/spf13/cobra"
)

// accessCmd groups access code helpers.
var accessCmd = &cobra.Command{
	Use:   "access",
	Short: "Check or hash access codes",
	Long: `Work with the 4-digit access codes that map callers to roles.

Subcommands:
  check - Resolve the configured access code to its role
  hash  - Print a bcrypt hash for use as code_hash in access.yaml`,
}

// accessCheckCmd resolves the configured access code.
var accessCheckCmd = &cobra.Command{
	Use:     "check",
	Short:   "Resolve the configured access code to a role",
	PreRunE: configSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteAccessCheck(rootCtx, cfg, nil); err != nil {
			contract.LogFatal("Access check failed", err)
		}
	},
}

// accessHashCmd hashes a code for the access table.
var accessHashCmd = &cobra.Command{
	Use:   "hash <code>",
	Short: "Print a bcrypt hash of a 4-digit access code",
	Long: `Hash an access code so access.yaml can store code_hash instead of the
plaintext code.

Examples:
  scorecard access hash 1947`,
	Args: cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		hash, err := access.HashCode(args[0])
		if err != nil {
			contract.LogFatal("Cannot hash access code", err)
		}
		fmt.Println(hash)
	},
}
