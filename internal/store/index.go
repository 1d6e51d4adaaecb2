package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"chatnerd/internal/logging"

	_ "modernc.org/sqlite"
)

// Index is the SQLite ledger of capture events, kept at
// .chatnerd/index.db. One row per processed capture: which record file was
// touched, what the reconciler decided, and how many messages came in.
// It backs `chatnerd records list` and `records history`; the record files
// themselves remain the source of truth.
type Index struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// CaptureEvent is one row of the ledger.
type CaptureEvent struct {
	ID           int64
	RecordPath   string
	Decision     string
	MessageCount int
	NewMessages  int
	CapturedAt   time.Time
}

// OpenIndex opens (or creates) the capture index at the given path.
func OpenIndex(path string) (*Index, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}

	idx := &Index{db: db, dbPath: path}
	if err := idx.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

// initialize creates the required tables.
func (ix *Index) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS captures (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		record_path TEXT NOT NULL,
		decision TEXT NOT NULL,
		message_count INTEGER NOT NULL,
		new_messages INTEGER NOT NULL DEFAULT 0,
		captured_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_captures_record ON captures(record_path);
	CREATE INDEX IF NOT EXISTS idx_captures_time ON captures(captured_at);
	`
	if _, err := ix.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize index schema: %w", err)
	}
	return nil
}

// RecordCapture appends one capture event to the ledger.
func (ix *Index) RecordCapture(recordPath, decision string, messageCount, newMessages int) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	logging.StoreDebug("indexing capture: path=%s decision=%s messages=%d new=%d",
		recordPath, decision, messageCount, newMessages)

	_, err := ix.db.Exec(
		`INSERT INTO captures (record_path, decision, message_count, new_messages)
		 VALUES (?, ?, ?, ?)`,
		recordPath, decision, messageCount, newMessages,
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to index capture for %s: %v", recordPath, err)
		return err
	}
	return nil
}

// History returns the most recent capture events, newest first.
func (ix *Index) History(limit int) ([]CaptureEvent, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Index.History")
	defer timer.Stop()

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	rows, err := ix.db.Query(
		`SELECT id, record_path, decision, message_count, new_messages, captured_at
		 FROM captures
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}

// RecordHistory returns the capture events for one record file, newest first.
func (ix *Index) RecordHistory(recordPath string, limit int) ([]CaptureEvent, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	rows, err := ix.db.Query(
		`SELECT id, record_path, decision, message_count, new_messages, captured_at
		 FROM captures
		 WHERE record_path = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		recordPath, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]CaptureEvent, error) {
	var events []CaptureEvent
	for rows.Next() {
		var ev CaptureEvent
		var capturedAt string
		if err := rows.Scan(&ev.ID, &ev.RecordPath, &ev.Decision, &ev.MessageCount, &ev.NewMessages, &capturedAt); err != nil {
			logging.Get(logging.CategoryStore).Warn("Failed to scan capture row: %v", err)
			continue
		}
		if ts, err := time.Parse("2006-01-02 15:04:05", capturedAt); err == nil {
			ev.CapturedAt = ts
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Close closes the underlying database.
func (ix *Index) Close() error {
	return ix.db.Close()
}
