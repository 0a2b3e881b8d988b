package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"

	"github.com/huangsam/scorecard/internal/iocache"
	"github.com/huangsam/scorecard/internal/registry"
	"github.com/huangsam/scorecard/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// buildInfo describes the binary and the defaults compiled into it.
type buildInfo struct {
	Version       string           `json:"version"`
	Commit        string           `json:"commit"`
	Built         string           `json:"built"`
	Runtime       string           `json:"runtime"`
	HistorySchema uint             `json:"history_schema"`
	ConfigDigest  string           `json:"config_digest"`
	Segments      []schema.Segment `json:"segments"`
}

func collectBuildInfo() (buildInfo, error) {
	info := buildInfo{Version: version, Commit: commit, Built: date, Runtime: runtime.Version()}
	v, err := iocache.LatestHistoryVersion()
	if err != nil {
		return info, fmt.Errorf("read history migrations: %w", err)
	}
	info.HistorySchema = v
	reg, err := registry.LoadDefault()
	if err != nil {
		return info, fmt.Errorf("load embedded config: %w", err)
	}
	info.ConfigDigest = reg.Fingerprint()[:12]
	info.Segments = reg.Segments()
	return info, nil
}

func writeBuildInfo(w io.Writer, info buildInfo, mode schema.OutputMode) error {
	if mode == schema.JSONOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	_, err := fmt.Fprintf(w, "scorecard CLI\n  Version: %s\n  Commit:  %s\n  Built:   %s\n  Runtime: %s\n  Schema:  v%d\n  Config:  %s (%d segments)\n",
		info.Version, info.Commit, info.Built, info.Runtime, info.HistorySchema, info.ConfigDigest, len(info.Segments))
	return err
}

// versionCmd shows the verbose version for diagnostic purposes.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of scorecard.",
	Long: `Display version information including build details.

Besides the release, commit and Go runtime it reports the history schema
version the binary migrates to and a digest of the embedded default
configuration, so reports can be matched to the build that produced them.
Use --output json for machine-readable output.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		info, err := collectBuildInfo()
		if err != nil {
			return err
		}
		return writeBuildInfo(cmd.OutOrStdout(), info, schema.OutputMode(viper.GetString("output")))
	},
}
