package database

import (
	"fmt"
	"time"

	"github.com/thinkscotty/wikichat/internal/models"
)

// RecordQuery appends one accepted query to the journal.
func (db *DB) RecordQuery(entry models.QueryLog) error {
	created := entry.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := db.conn.Exec(`
		INSERT INTO queries (id, query, title, outcome, words, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Query, entry.Title, entry.Outcome, entry.Words, entry.LatencyMs,
		created.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("insert query %s: %w", entry.ID, err)
	}
	return nil
}

// RecentQueries returns the N most recent journal entries, newest first.
func (db *DB) RecentQueries(limit int) ([]models.QueryLog, error) {
	rows, err := db.conn.Query(`
		SELECT id, query, title, outcome, words, latency_ms, created_at
		FROM queries
		ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.QueryLog
	for rows.Next() {
		var entry models.QueryLog
		var createdAt string
		if err := rows.Scan(&entry.ID, &entry.Query, &entry.Title, &entry.Outcome,
			&entry.Words, &entry.LatencyMs, &createdAt); err != nil {
			return nil, err
		}
		entry.CreatedAt, _ = parseTime(createdAt)
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

func (db *DB) GetStats() (models.Stats, error) {
	var s models.Stats

	err := db.conn.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(words), 0),
		       COALESCE(AVG(latency_ms), 0)
		FROM queries`,
		models.OutcomeFound, models.OutcomeNotFound, models.OutcomeError,
	).Scan(&s.TotalQueries, &s.FoundQueries, &s.NotFoundQueries, &s.FailedQueries,
		&s.TotalWords, &s.AverageLatencyMs)
	if err != nil {
		return s, fmt.Errorf("query stats: %w", err)
	}

	size, _ := db.DatabaseSizeBytes()
	s.DatabaseSizeBytes = size

	return s, nil
}

// CleanOldQueries removes journal entries older than the given number of
// days and returns how many were deleted.
func (db *DB) CleanOldQueries(days int) (int64, error) {
	res, err := db.conn.Exec(`DELETE FROM queries WHERE created_at < datetime('now', ?)`,
		fmt.Sprintf("-%d days", days))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
