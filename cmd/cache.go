package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/scorecard/internal/contract"
	"github.com/huangsam/scorecard/internal/iocache"
	"github.com/huangsam/scorecard/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cacheSetup loads minimal configuration needed for cache operations.
// This is used by commands that need cache access without full shared setup.
func cacheSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	// Get cache-related config values
	backend := schema.DatabaseBackend(viper.GetString("cache-backend"))
	connStr := viper.GetString("cache-db-connect")
	if _, ok := schema.ValidCacheBackends[backend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'", backend)
	}

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// Initialize caching with the loaded config (no history tracking for cache commands)
	if err := iocache.InitStores(backend, connStr, "", ""); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr

	return nil
}

// sqliteFilePath returns the SQLite file named by connStr, or fallback when it is empty.
func sqliteFilePath(connStr, fallback string) string {
	if connStr != "" {
		return connStr
	}
	return fallback
}

// cacheSetupWrapper wraps cacheSetup to provide PreRunE for cache commands.
func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheSetup()
}

// cacheCmd focused on cache management.
//
// Note: Cache subcommands use minimal initialization (cacheSetup) instead of
// the full sharedSetup. This skips access codes and data loading for simple
// cache operations.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the scorecard cache (improves performance)",
	Long: `Manage the cache of computed scorecards.

Scorecard caches each computed scorecard under a key made of the role, the
segment, the selection and fingerprints of the configuration and data files.
Changing any of them produces a new key, so stale entries are never served.

Supported backends: SQLite (default), MySQL, PostgreSQL, Redis, or None

Subcommands:
  status - Show cache statistics and connection info
  clear  - Remove all cached data

Examples:
  # Check cache status
  scorecard cache status

  # Clear cache
  scorecard cache clear`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached scorecards",
	Long: `Delete all cached scorecards from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache table
For Redis: Deletes every key under the cache prefix

Examples:
  # Clear SQLite cache (default)
  scorecard cache clear

  # Clear Redis cache (set connection string via env variable)
  SCORECARD_CACHE_BACKEND=redis SCORECARD_CACHE_DB_CONNECT="redis://localhost:6379/0" scorecard cache clear`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		// Release the store's own handle before removing its file or keys
		iocache.CloseCaching()
		dbPath := sqliteFilePath(cfg.CacheDBConnect, contract.GetCacheDBFilePath())
		if err := iocache.ClearCache(cfg.CacheBackend, dbPath, cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show detailed information about the scorecard cache.

Displays:
- Backend type and connection status
- Total number of cached scorecards
- Last and oldest cache entry timestamps
- Cache storage size

Examples:
  # Check cache status
  scorecard cache status`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iocache.Manager.GetScoreStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(os.Stdout, status)
	},
}
