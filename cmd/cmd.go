// Package cmd defines the command-line interface for scorecard.
package cmd

import (
	"github.com/huangsam/scorecard/internal/contract"
	"github.com/huangsam/scorecard/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(combinedCmd)
	rootCmd.AddCommand(optionsCmd)
	rootCmd.AddCommand(segmentsCmd)
	rootCmd.AddCommand(groupsCmd)
	rootCmd.AddCommand(accessCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the access subcommands to the parent access command
	accessCmd.AddCommand(accessCheckCmd)
	accessCmd.AddCommand(accessHashCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("data-dir", contract.DefaultDataDir, "Directory holding the segment CSV exports")
	rootCmd.PersistentFlags().String("config-dir", "", "Directory with YAML overrides for the built-in configuration")
	rootCmd.PersistentFlags().String("access-code", "", "4-digit access code selecting the role (prefer SCORECARD_ACCESS_CODE)")
	rootCmd.PersistentFlags().StringP("segment", "s", string(schema.BranchSegment), "Segment: branch or contact-centre or website or social-media or combined-contact-centre")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("log-level", contract.DefaultLogLevel, "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or redis or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Connection string for mysql/postgresql/redis (e.g., redis://localhost:6379/0)")
	rootCmd.PersistentFlags().String("history-backend", "", "Run history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Connection string for run history (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of showCmd to Viper
	showCmd.Flags().String("branch", schema.OverallSelection, "Branch to score, or Overall")
	showCmd.Flags().String("appointment", schema.OverallSelection, "Appointment type to score, or Overall")
	showCmd.Flags().StringSlice("month", nil, "Months to score (repeatable or comma-separated); empty means Overall")
	showCmd.Flags().String("nationality", schema.OverallSelection, "Nationality to score, or Overall")
	showCmd.Flags().String("evaluator", schema.OverallSelection, "Evaluator to score, or Overall")
	if err := viper.BindPFlags(showCmd.Flags()); err != nil {
		contract.LogFatal("Error binding show flags", err)
	}

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
