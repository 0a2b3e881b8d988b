package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/scorecard/internal/contract"
	"github.com/huangsam/scorecard/schema"
)

// Table names for run history.
const (
	runsTable   = "scorecard_runs"
	scoresTable = "scorecard_scores"
)

// HistoryStoreImpl implements the HistoryStore interface.
type HistoryStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// NewHistoryStore creates a new HistoryStore with the specified backend.
func NewHistoryStore(backend schema.DatabaseBackend, connStr string) (contract.HistoryStore, error) {
	switch backend {
	case schema.NoneBackend:
		// Return a no-op store for disabled tracking
		return &HistoryStoreImpl{backend: backend}, nil
	case schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend:
	default:
		return nil, fmt.Errorf("unsupported history backend: %s", backend)
	}

	db, err := openSQL(backend, connStr, GetHistoryDBFilePath())
	if err != nil {
		return nil, err
	}

	// Create the table schemas
	if err := createHistoryTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history tables: %w", err)
	}

	return &HistoryStoreImpl{db: db, backend: backend}, nil
}

// createHistoryTables creates the run history tables.
func createHistoryTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{runsTable, getCreateRunsQuery(backend)},
		{scoresTable, getCreateScoresQuery(backend)},
	}
	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

// getCreateRunsQuery returns the CREATE TABLE query for scorecard_runs.
func getCreateRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(runsTable, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				run_key CHAR(36) NOT NULL UNIQUE,
				role VARCHAR(100) NOT NULL,
				segment VARCHAR(64) NOT NULL,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				visit_count INT NOT NULL DEFAULT 0,
				selection TEXT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				run_key UUID NOT NULL UNIQUE,
				role TEXT NOT NULL,
				segment TEXT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				visit_count INT NOT NULL DEFAULT 0,
				selection TEXT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_key TEXT NOT NULL UNIQUE,
				role TEXT NOT NULL,
				segment TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				visit_count INTEGER NOT NULL DEFAULT 0,
				selection TEXT
			);
		`, quotedTableName)
	}
}

// getCreateScoresQuery returns the CREATE TABLE query for scorecard_scores.
func getCreateScoresQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(scoresTable, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				position INT NOT NULL,
				segment VARCHAR(64) NOT NULL,
				group_name VARCHAR(255) NOT NULL,
				metric_id VARCHAR(128) NOT NULL,
				metric_label VARCHAR(512) NOT NULL,
				score INT NOT NULL,
				is_group_score BOOLEAN NOT NULL,
				no_data BOOLEAN NOT NULL,
				monthly_json TEXT,
				PRIMARY KEY (run_id, position)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				position INT NOT NULL,
				segment TEXT NOT NULL,
				group_name TEXT NOT NULL,
				metric_id TEXT NOT NULL,
				metric_label TEXT NOT NULL,
				score INT NOT NULL,
				is_group_score BOOLEAN NOT NULL,
				no_data BOOLEAN NOT NULL,
				monthly_json TEXT,
				PRIMARY KEY (run_id, position)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER NOT NULL,
				position INTEGER NOT NULL,
				segment TEXT NOT NULL,
				group_name TEXT NOT NULL,
				metric_id TEXT NOT NULL,
				metric_label TEXT NOT NULL,
				score INTEGER NOT NULL,
				is_group_score INTEGER NOT NULL,
				no_data INTEGER NOT NULL,
				monthly_json TEXT,
				PRIMARY KEY (run_id, position)
			);
		`, quotedTableName)
	}
}

// BeginRun creates a new run and returns its ID.
func (hs *HistoryStoreImpl) BeginRun(startTime time.Time, role string, segment schema.Segment, selection schema.Selection) (int64, error) {
	// Skip for NoneBackend
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return 0, nil
	}

	selectionJSON, err := json.Marshal(selection)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal selection: %w", err)
	}

	quotedTableName := quoteTableName(runsTable, hs.backend)
	args := []any{uuid.NewString(), role, string(segment), formatTime(startTime, hs.backend), string(selectionJSON)}

	var runID int64
	switch hs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (run_key, role, segment, start_time, selection) VALUES ($1, $2, $3, $4, $5) RETURNING run_id`, quotedTableName)
		err = hs.db.QueryRow(query, args...).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (run_key, role, segment, start_time, selection) VALUES (?, ?, ?, ?, ?)`, quotedTableName)
		var result sql.Result
		result, err = hs.db.Exec(query, args...)
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// EndRun records the end time, duration and visit count of a run.
func (hs *HistoryStoreImpl) EndRun(runID int64, endTime time.Time, visitCount int) error {
	// Skip for NoneBackend
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return nil
	}

	quotedTableName := quoteTableName(runsTable, hs.backend)

	// First, get the start_time to calculate duration
	var rawStart any
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, quotedTableName, placeholder(hs.backend, 1))
	if err := hs.db.QueryRow(query, runID).Scan(&rawStart); err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}
	startTime, err := parseTime(rawStart)
	if err != nil {
		return fmt.Errorf("failed to parse start_time: %w", err)
	}
	durationMs := endTime.Sub(startTime).Milliseconds()

	updateQuery := fmt.Sprintf(`UPDATE %s SET end_time = %s, run_duration_ms = %s, visit_count = %s WHERE run_id = %s`,
		quotedTableName,
		placeholder(hs.backend, 1), placeholder(hs.backend, 2), placeholder(hs.backend, 3), placeholder(hs.backend, 4))
	if _, err := hs.db.Exec(updateQuery, formatTime(endTime, hs.backend), durationMs, visitCount, runID); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// RecordScores stores the long-form rows of a run in one transaction.
func (hs *HistoryStoreImpl) RecordScores(runID int64, rows []schema.ScoreRow) error {
	// Skip for NoneBackend
	if hs.backend == schema.NoneBackend || hs.db == nil || len(rows) == 0 {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO %s (run_id, position, segment, group_name, metric_id, metric_label,
			score, is_group_score, no_data, monthly_json) VALUES (%s)`,
		quoteTableName(scoresTable, hs.backend), placeholders(hs.backend, 10))

	tx, err := hs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	stmt, err := tx.Prepare(query)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare score insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, r := range rows {
		monthly, err := json.Marshal(r.MonthlyScores)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to marshal monthly scores of %s: %w", r.MetricID, err)
		}
		if _, err := stmt.Exec(runID, i, string(r.Segment), r.Group, r.MetricID, r.MetricLabel,
			r.Score, r.IsGroupScore, r.NoData, string(monthly)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert score %s: %w", r.MetricID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit scores: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (hs *HistoryStoreImpl) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the history store.
func (hs *HistoryStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(hs.backend),
		Connected:  hs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return status, nil
	}

	quotedRuns := quoteTableName(runsTable, hs.backend)

	// Get total runs
	if err := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quotedRuns)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		// Get last run info
		var rawLast any
		row := hs.db.QueryRow(fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1", quotedRuns))
		if err := row.Scan(&status.LastRunID, &rawLast); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		lastRunTime, err := parseTime(rawLast)
		if err != nil {
			return status, fmt.Errorf("failed to parse last run time: %w", err)
		}
		status.LastRunTime = lastRunTime

		// Get oldest run time
		var rawOldest any
		row = hs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", quotedRuns))
		if err := row.Scan(&rawOldest); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		oldestRunTime, err := parseTime(rawOldest)
		if err != nil {
			return status, fmt.Errorf("failed to parse oldest run time: %w", err)
		}
		status.OldestRunTime = oldestRunTime

		// Get total visits seen
		row = hs.db.QueryRow(fmt.Sprintf("SELECT COALESCE(SUM(visit_count), 0) FROM %s", quotedRuns))
		if err := row.Scan(&status.TotalVisitsSeen); err != nil {
			return status, fmt.Errorf("failed to get total visits: %w", err)
		}
	}

	// Get table sizes
	for _, table := range []string{runsTable, scoresTable} {
		var count int64
		row := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, hs.backend)))
		if err := row.Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	return status, nil
}

// GetAllRuns retrieves all runs ordered by ID.
func (hs *HistoryStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	// Skip for NoneBackend
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, run_key, role, segment, start_time, end_time, run_duration_ms, visit_count, selection
		FROM %s ORDER BY run_id`, quoteTableName(runsTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var record schema.RunRecord
		var rawStart, rawEnd any
		if err := rows.Scan(&record.RunID, &record.RunKey, &record.Role, &record.Segment, &rawStart, &rawEnd,
			&record.RunDurationMs, &record.VisitCount, &record.Selection); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if record.StartTime, err = parseTime(rawStart); err != nil {
			return nil, fmt.Errorf("failed to parse start_time: %w", err)
		}
		if rawEnd != nil {
			endTime, err := parseTime(rawEnd)
			if err != nil {
				return nil, fmt.Errorf("failed to parse end_time: %w", err)
			}
			record.EndTime = &endTime
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetAllScores retrieves all recorded score rows ordered by run and position.
func (hs *HistoryStoreImpl) GetAllScores() ([]schema.ScoreRecord, error) {
	// Skip for NoneBackend
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, segment, group_name, metric_id, metric_label, score, is_group_score, no_data, monthly_json
		FROM %s ORDER BY run_id, position`, quoteTableName(scoresTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query scores: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.ScoreRecord
	for rows.Next() {
		var record schema.ScoreRecord
		if err := rows.Scan(&record.RunID, &record.Segment, &record.GroupName, &record.MetricID, &record.MetricLabel,
			&record.Score, &record.IsGroupScore, &record.NoData, &record.MonthlyJSON); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scores: %w", err)
	}
	return results, nil
}
