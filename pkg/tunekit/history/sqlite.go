package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists dispatch records to SQLite.
// It is suitable for single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore creates a new SQLite history store.
// The path should be a file path (e.g., "./history.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS dispatches (
			id TEXT PRIMARY KEY,
			event TEXT NOT NULL,
			prepositions TEXT NOT NULL,
			outcome TEXT NOT NULL,
			results INTEGER NOT NULL,
			error TEXT NOT NULL,
			started_at TEXT NOT NULL,
			duration_ns INTEGER NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_dispatches_event
		ON dispatches(event, started_at)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Record implements Recorder.
func (s *SQLiteStore) Record(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dispatches (id, event, prepositions, outcome, results, error, started_at, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			outcome = excluded.outcome,
			results = excluded.results,
			error = excluded.error,
			duration_ns = excluded.duration_ns
	`, rec.ID, rec.Event, rec.Prepositions, string(rec.Outcome), rec.Results,
		rec.Error, rec.StartedAt.UTC().Format(time.RFC3339Nano), rec.Duration.Nanoseconds())

	if err != nil {
		return fmt.Errorf("record dispatch: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return Record{}, ErrStoreClosed
	}

	var rec Record
	var outcome, startedAt string
	var durationNs int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, event, prepositions, outcome, results, error, started_at, duration_ns
		FROM dispatches WHERE id = ?
	`, id).Scan(&rec.ID, &rec.Event, &rec.Prepositions, &outcome, &rec.Results,
		&rec.Error, &startedAt, &durationNs)

	if err == sql.ErrNoRows {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get dispatch record: %w", err)
	}

	rec.Outcome = Outcome(outcome)
	rec.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
	rec.Duration = time.Duration(durationNs)
	return rec, nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context, eventName string, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	query := `
		SELECT id, event, prepositions, outcome, results, error, started_at, duration_ns
		FROM dispatches
	`
	args := []any{}
	if eventName != "" {
		query += " WHERE event = ?"
		args = append(args, eventName)
	}
	query += " ORDER BY started_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list dispatch records: %w", err)
	}
	defer rows.Close()

	recs := []Record{}
	for rows.Next() {
		var rec Record
		var outcome, startedAt string
		var durationNs int64
		if err := rows.Scan(&rec.ID, &rec.Event, &rec.Prepositions, &outcome,
			&rec.Results, &rec.Error, &startedAt, &durationNs); err != nil {
			return nil, fmt.Errorf("scan dispatch record: %w", err)
		}
		rec.Outcome = Outcome(outcome)
		rec.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		rec.Duration = time.Duration(durationNs)
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dispatch records: %w", err)
	}
	return recs, nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM dispatches WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete dispatch record: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}
