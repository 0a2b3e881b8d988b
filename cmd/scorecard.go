package cmd

import (
	"github.com/huangsam/scorecard/core"
	"github.com/huangsam/scorecard/internal/contract"
	"github.com/spf13/cobra"
)

// showCmd renders one segment's scorecard.
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the scorecard of one segment for your role.",
	Long: `Filter the segment's evaluations and score every configured metric.

The access code decides which rows you see: branch roles only see their own
branch, while Admin sees everything. Each metric group is led by its
"{group} OVERALL" row when the export carries a weight variable for it.

Any filter left at Overall does not narrow the data. Months accept several
values; a visit matches when its month is one of them.

Examples:
  # Scorecard of the branch segment for the configured access code
  SCORECARD_ACCESS_CODE=1947 scorecard show

  # Contact centre scores for two months
  scorecard show --segment contact-centre --month January --month February

  # Export one branch to CSV
  scorecard show --branch Dubai --output csv --output-file dubai.csv`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteShow(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot build scorecard", err)
		}
	},
}

// combinedCmd prints every segment's unfiltered rows in one table.
var combinedCmd = &cobra.Command{
	Use:   "combined",
	Short: "Show the long-form score table of every segment.",
	Long: `Score each segment without filters and stack the results in one
long-form table, in segment display order.

Examples:
  scorecard combined --output json`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteCombined(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot build combined scores", err)
		}
	},
}

// optionsCmd lists the filter choices of a segment.
var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "List the filter values available for a segment.",
	Long: `List every month, branch, appointment type, nationality and evaluator
found in the rows your role can see. Overall is always the first choice.

Examples:
  scorecard options --segment website`,
	PreRunE: configSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteOptions(rootCtx, cfg, nil); err != nil {
			contract.LogFatal("Cannot list filter options", err)
		}
	},
}

// segmentsCmd lists the configured segments.
var segmentsCmd = &cobra.Command{
	Use:   "segments",
	Short: "List configured segments and how many rows your role sees.",
	Long: `List every configured segment with its source file, visible row count
and the months present. A segment whose export is missing shows 0 rows.`,
	PreRunE: configSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteSegments(rootCtx, cfg, nil); err != nil {
			contract.LogFatal("Cannot list segments", err)
		}
	},
}

// groupsCmd lists the metric groups of a segment.
var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List the metric groups configured for a segment.",
	Long: `Show each metric group of the segment in display order, with its
weight variable and the metrics it scores. No access code is needed.`,
	PreRunE: configSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteGroups(rootCtx, cfg, nil); err != nil {
			contract.LogFatal("Cannot list metric groups", err)
		}
	},
}
