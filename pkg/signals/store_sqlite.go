package signals

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore records behavioral events and serves bounded windows.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create signals db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) init() error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA busy_timeout=5000;`,
		`CREATE TABLE IF NOT EXISTS signal_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			check_in TEXT NOT NULL DEFAULT '',
			value REAL NOT NULL DEFAULT 0,
			created_at_ms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS signal_events_user_idx ON signal_events(user_id, created_at_ms DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init signals schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Record(ctx context.Context, ev Event) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO signal_events(user_id, kind, check_in, value, created_at_ms)
		 VALUES(?, ?, ?, ?, ?)`,
		ev.UserID, string(ev.Kind), string(ev.CheckIn), ev.Value, ev.Timestamp.UnixMilli())
	if err != nil {
		return fmt.Errorf("record signal event: %w", err)
	}
	return nil
}

// WindowFor assembles the bounded lookback window for one user, ordered
// oldest first. An empty result is valid (new user).
func (s *SQLiteStore) WindowFor(ctx context.Context, userID string, lookback time.Duration, now time.Time) (Window, error) {
	from := now.Add(-lookback)
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, check_in, value, created_at_ms
		 FROM signal_events
		 WHERE user_id = ? AND created_at_ms >= ? AND created_at_ms <= ?
		 ORDER BY created_at_ms ASC`,
		userID, from.UnixMilli(), now.UnixMilli())
	if err != nil {
		return Window{}, fmt.Errorf("load signal window: %w", err)
	}
	defer rows.Close()

	w := Window{UserID: userID, From: from, To: now}
	for rows.Next() {
		var kind, checkIn string
		var value float64
		var createdMS int64
		if err := rows.Scan(&kind, &checkIn, &value, &createdMS); err != nil {
			return Window{}, err
		}
		w.Events = append(w.Events, Event{
			UserID:    userID,
			Kind:      EventKind(kind),
			CheckIn:   CheckInValue(checkIn),
			Value:     value,
			Timestamp: time.UnixMilli(createdMS),
		})
	}
	return w, rows.Err()
}
