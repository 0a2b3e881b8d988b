package iocache

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/huangsam/scorecard/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetGlobals lets a test call InitStores again.
func resetGlobals(t *testing.T) {
	t.Helper()
	initOnce = sync.Once{}
	closeOnce = sync.Once{}
	Manager = &CacheStoreManager{}
	t.Cleanup(func() {
		initOnce = sync.Once{}
		closeOnce = sync.Once{}
		Manager = &CacheStoreManager{}
	})
}

func TestInitStores(t *testing.T) {
	t.Run("cache and history on separate files", func(t *testing.T) {
		resetGlobals(t)
		dir := t.TempDir()
		cachePath := filepath.Join(dir, "cache.db")
		historyPath := filepath.Join(dir, "history.db")

		err := InitStores(schema.SQLiteBackend, cachePath, schema.SQLiteBackend, historyPath)
		require.NoError(t, err)
		assert.NotNil(t, Manager.GetScoreStore())
		assert.NotNil(t, Manager.GetHistoryStore())

		CloseCaching()
		CloseCaching() // second close is a no-op

		_, err = os.Stat(cachePath)
		assert.NoError(t, err, "cache database file should be created")
		_, err = os.Stat(historyPath)
		assert.NoError(t, err, "history database file should be created")
	})

	t.Run("empty backends disable stores", func(t *testing.T) {
		resetGlobals(t)
		require.NoError(t, InitStores("", "", "", ""))
		assert.Nil(t, Manager.GetScoreStore())
		assert.Nil(t, Manager.GetHistoryStore())
	})

	t.Run("idempotent setup", func(t *testing.T) {
		resetGlobals(t)
		require.NoError(t, InitStores(schema.SQLiteBackend, ":memory:", "", ""))
		first := Manager.GetScoreStore()
		require.NoError(t, InitStores(schema.SQLiteBackend, ":memory:", "", ""))
		assert.Same(t, first, Manager.GetScoreStore())
		CloseCaching()
	})

	t.Run("connection failure is reported", func(t *testing.T) {
		resetGlobals(t)
		err := InitStores(schema.MySQLBackend, "invalid://connection", "", "")
		assert.Error(t, err)
		assert.Nil(t, Manager.GetScoreStore())
	})
}

func TestValidateTableName(t *testing.T) {
	tests := []struct {
		name      string
		tableName string
		wantErr   bool
	}{
		{"valid simple name", "scorecard_cache", false},
		{"valid name with numbers", "scorecard_cache_2", false},
		{"valid name starting with underscore", "_cache", false},
		{"valid mixed case", "ScoreCache", false},
		{"empty name", "", true},
		{"starts with number", "2cache", true},
		{"contains dash", "score-cache", true},
		{"contains space", "score cache", true},
		{"sql injection attempt", "t'; DROP TABLE users; --", true},
		{"contains dot", "db.cache", true},
		{"too long", "a2345678901234567890123456789012345678901234567890123456789012345", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTableName(tt.tableName)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, `"scorecard_cache"`, quoteTableName("scorecard_cache", schema.SQLiteBackend))
	assert.Equal(t, "`scorecard_cache`", quoteTableName("scorecard_cache", schema.MySQLBackend))
	assert.Equal(t, `"scorecard_cache"`, quoteTableName("scorecard_cache", schema.PostgreSQLBackend))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "?", placeholder(schema.SQLiteBackend, 3))
	assert.Equal(t, "$3", placeholder(schema.PostgreSQLBackend, 3))
	assert.Equal(t, "?, ?, ?", placeholders(schema.MySQLBackend, 3))
	assert.Equal(t, "$1, $2", placeholders(schema.PostgreSQLBackend, 2))
}

func TestParseTime(t *testing.T) {
	want := time.Date(2026, 1, 15, 10, 30, 0, 123000000, time.UTC)

	got, err := parseTime(want.Format(time.RFC3339Nano))
	require.NoError(t, err)
	assert.True(t, want.Equal(got))

	got, err = parseTime([]byte("2026-01-15 10:30:00.123"))
	require.NoError(t, err)
	assert.True(t, want.Equal(got))

	got, err = parseTime(want)
	require.NoError(t, err)
	assert.True(t, want.Equal(got))

	_, err = parseTime(42)
	assert.Error(t, err)
	_, err = parseTime("yesterday")
	assert.Error(t, err)
}

func TestGetUpsertQuery(t *testing.T) {
	sqlite := &CacheStoreImpl{tableName: scoreTable, backend: schema.SQLiteBackend}
	assert.Contains(t, sqlite.getUpsertQuery(), `INSERT OR REPLACE INTO "scorecard_cache"`)

	mysql := &CacheStoreImpl{tableName: scoreTable, backend: schema.MySQLBackend}
	assert.Contains(t, mysql.getUpsertQuery(), "ON DUPLICATE KEY UPDATE")

	postgres := &CacheStoreImpl{tableName: scoreTable, backend: schema.PostgreSQLBackend}
	assert.Contains(t, postgres.getUpsertQuery(), "ON CONFLICT (cache_key) DO UPDATE")
}

func TestGetCreateTableQuery(t *testing.T) {
	assert.Contains(t, getCreateTableQuery(scoreTable, schema.SQLiteBackend), "cache_value BLOB")
	assert.Contains(t, getCreateTableQuery(scoreTable, schema.MySQLBackend), "cache_value MEDIUMBLOB")
	assert.Contains(t, getCreateTableQuery(scoreTable, schema.PostgreSQLBackend), "cache_value BYTEA")
}

func TestSQLiteCacheStore(t *testing.T) {
	store, err := NewCacheStore(scoreTable, schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	t.Run("miss", func(t *testing.T) {
		_, _, _, err := store.Get("absent")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, store.Set("k1", []byte(`{"role":"Dubai"}`), 1, 1700000000))
		value, version, ts, err := store.Get("k1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"role":"Dubai"}`, string(value))
		assert.Equal(t, 1, version)
		assert.Equal(t, int64(1700000000), ts)
	})

	t.Run("set replaces", func(t *testing.T) {
		require.NoError(t, store.Set("k1", []byte(`{"role":"Admin"}`), 2, 1700000100))
		value, version, ts, err := store.Get("k1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"role":"Admin"}`, string(value))
		assert.Equal(t, 2, version)
		assert.Equal(t, int64(1700000100), ts)
	})

	t.Run("status", func(t *testing.T) {
		require.NoError(t, store.Set("k2", []byte("{}"), 1, 1600000000))
		status, err := store.GetStatus()
		require.NoError(t, err)
		assert.Equal(t, "sqlite", status.Backend)
		assert.True(t, status.Connected)
		assert.Equal(t, 2, status.TotalEntries)
		assert.Equal(t, time.Unix(1700000100, 0), status.LastEntryTime)
		assert.Equal(t, time.Unix(1600000000, 0), status.OldestEntryTime)
		assert.Greater(t, status.TableSizeBytes, int64(0))
	})
}

func TestNoneCacheStore(t *testing.T) {
	store, err := NewCacheStore(scoreTable, schema.NoneBackend, "")
	require.NoError(t, err)

	_, _, _, err = store.Get("k")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, store.Set("k", []byte("v"), 1, 1))

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "none", status.Backend)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestNewCacheStoreErrors(t *testing.T) {
	_, err := NewCacheStore("invalid-name", schema.SQLiteBackend, ":memory:")
	assert.Error(t, err)

	_, err = NewCacheStore(scoreTable, "unsupported", "")
	assert.Error(t, err)

	_, err = NewCacheStore(scoreTable, schema.RedisBackend, "not a url")
	assert.Error(t, err)
}

func TestClearCache(t *testing.T) {
	t.Run("SQLite backend", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "cache.db")
		store, err := NewCacheStore(scoreTable, schema.SQLiteBackend, dbPath)
		require.NoError(t, err)
		require.NoError(t, store.Close())

		require.NoError(t, ClearCache(schema.SQLiteBackend, dbPath, ""))
		_, err = os.Stat(dbPath)
		assert.True(t, os.IsNotExist(err), "database file should be removed")
	})

	t.Run("SQLite backend - non-existent file", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "missing.db")
		assert.NoError(t, ClearCache(schema.SQLiteBackend, dbPath, ""))
	})

	t.Run("empty dbFilePath for SQLite", func(t *testing.T) {
		assert.Error(t, ClearCache(schema.SQLiteBackend, "", ""))
	})

	t.Run("NoneBackend", func(t *testing.T) {
		assert.NoError(t, ClearCache(schema.NoneBackend, "", ""))
	})

	t.Run("unsupported backend", func(t *testing.T) {
		assert.Error(t, ClearCache("unsupported", "", ""))
	})
}

func TestCacheStoreManagerConcurrency(t *testing.T) {
	resetGlobals(t)
	require.NoError(t, InitStores(schema.SQLiteBackend, ":memory:", "", ""))
	defer CloseCaching()

	const numGoroutines = 10
	var wg sync.WaitGroup
	for i := range numGoroutines {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			store := Manager.GetScoreStore()
			if store == nil {
				t.Errorf("goroutine %d: GetScoreStore returned nil", id)
				return
			}
			if err := store.Set("concurrent_key", []byte("value"), 1, int64(1000+id)); err != nil {
				t.Errorf("goroutine %d: Set failed: %v", id, err)
			}
		}(i)
	}
	wg.Wait()

	_, version, _, err := Manager.GetScoreStore().Get("concurrent_key")
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}
