package contract

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/huangsam/scorecard/schema"
	"github.com/redis/go-redis/v9"
)

// Default values for configuration.
const (
	DefaultDataDir  = "data"
	DefaultLogLevel = "warn"
	AccessCodeLen   = 4
)

// Config holds the runtime configuration for a scorecard request.
// This struct is the "final, validated" config.
type Config struct {
	DataDir    string
	ConfigDir  string // Empty means the embedded defaults
	AccessCode string // Please use env var as this is plaintext

	Segment   schema.Segment
	Selection schema.Selection

	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool
	LogLevel   slog.Level

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	DataDir          string `mapstructure:"data-dir"`
	ConfigDir        string `mapstructure:"config-dir"`
	AccessCode       string `mapstructure:"access-code"`
	Output           string `mapstructure:"output"`
	OutputFile       string `mapstructure:"output-file"`
	Width            int    `mapstructure:"width"`
	Color            string `mapstructure:"color"`
	LogLevel         string `mapstructure:"log-level"`
	CacheBackend     string `mapstructure:"cache-backend"`
	CacheDBConnect   string `mapstructure:"cache-db-connect"`
	HistoryBackend   string `mapstructure:"history-backend"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`

	// --- Fields from the segment-scoped commands ---
	Segment string `mapstructure:"segment"`

	// --- Fields from showCmd.Flags() ---
	Branch      string   `mapstructure:"branch"`
	Appointment string   `mapstructure:"appointment"`
	Months      []string `mapstructure:"month"`
	Nationality string   `mapstructure:"nationality"`
	Evaluator   string   `mapstructure:"evaluator"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Selection.Months != nil {
		clone.Selection.Months = slices.Clone(c.Selection.Months)
	}
	return &clone
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processSegment(cfg, input); err != nil {
		return err
	}
	processSelection(cfg, input)
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for the networked backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend, "":
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	case schema.RedisBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if _, err := redis.ParseURL(connStr); err != nil {
			return fmt.Errorf("invalid Redis URL (expected redis://[:password@]host:port/db): %w", err)
		}
	}
	return nil
}

// ParseLogLevel parses a slog level name such as "debug" or "WARN".
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		s = DefaultLogLevel
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, fmt.Errorf("invalid log level '%s'. must be debug, info, warn, error", s)
	}
	return level, nil
}

// validateSimpleInputs processes and validates all non-backend fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.AccessCode = strings.TrimSpace(input.AccessCode)

	// Parse color flag
	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	level, err := ParseLogLevel(input.LogLevel)
	if err != nil {
		return err
	}
	cfg.LogLevel = level

	// --- 1. Directories ---
	dataDir := input.DataDir
	if dataDir == "" {
		dataDir = DefaultDataDir
	}
	cfg.DataDir = filepath.Clean(dataDir)
	if input.ConfigDir != "" {
		cfg.ConfigDir = filepath.Clean(input.ConfigDir)
	}

	// --- 2. Width and Output Validation ---
	if input.Width < 0 {
		return fmt.Errorf("width cannot be negative (received %d)", input.Width)
	}

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if cfg.Output == "" {
		cfg.Output = schema.TextOut
	}
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("--output-file is required for parquet output")
	}

	return nil
}

// processSegment validates the segment selector.
func processSegment(cfg *Config, input *ConfigRawInput) error {
	cfg.Segment = schema.Segment(strings.ToLower(strings.TrimSpace(input.Segment)))
	if cfg.Segment == "" {
		cfg.Segment = schema.BranchSegment
	}
	if _, ok := schema.ValidSegments[cfg.Segment]; !ok {
		return fmt.Errorf("invalid segment '%s'. must be branch, contact-centre, website, social-media, combined-contact-centre", input.Segment)
	}
	return nil
}

// processSelection fills the filter selection, defaulting every dimension to Overall.
func processSelection(cfg *Config, input *ConfigRawInput) {
	orOverall := func(s string) string {
		if s = strings.TrimSpace(s); s == "" {
			return schema.OverallSelection
		}
		return s
	}

	var months []string
	for _, m := range input.Months {
		if m = strings.TrimSpace(m); m != "" {
			months = append(months, m)
		}
	}
	if len(months) == 0 {
		months = []string{schema.OverallSelection}
	}

	cfg.Selection = schema.Selection{
		Branch:          orOverall(input.Branch),
		AppointmentType: orOverall(input.Appointment),
		Months:          months,
		Nationality:     orOverall(input.Nationality),
		Evaluator:       orOverall(input.Evaluator),
	}
}

// validateBackendConfigs validates cache and history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = schema.SQLiteBackend
	}
	if _, ok := schema.ValidCacheBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, redis, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// --- History Backend Validation ---
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(input.HistoryBackend))
	if cfg.HistoryBackend == "" {
		return nil
	}
	if _, ok := schema.ValidHistoryBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	if err := ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return err
	}

	// Cache and history must not share a SQLite file
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.HistoryBackend == schema.SQLiteBackend {
		cacheDBPath := cfg.CacheDBConnect
		if cacheDBPath == "" {
			cacheDBPath = GetCacheDBFilePath()
		}
		historyDBPath := cfg.HistoryDBConnect
		if historyDBPath == "" {
			historyDBPath = GetHistoryDBFilePath()
		}
		if cacheDBPath == historyDBPath {
			return fmt.Errorf("cache and history storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}

	return nil
}
