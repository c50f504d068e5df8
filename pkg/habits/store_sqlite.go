package habits

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists habit suggestion cooldowns, one row per user.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create habits db dir: %w", err)
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
		`CREATE TABLE IF NOT EXISTS habit_suggestions (
			user_id TEXT PRIMARY KEY,
			habit_id TEXT NOT NULL,
			suggested_at_ms INTEGER NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init habits schema: %w", err)
		}
	}
	return nil
}

// LastSuggestion returns the zero time when the user has never been nudged.
func (s *SQLiteStore) LastSuggestion(ctx context.Context, userID string) (string, time.Time, error) {
	var habitID string
	var suggestedMS int64
	err := s.db.QueryRowContext(ctx,
		`SELECT habit_id, suggested_at_ms FROM habit_suggestions WHERE user_id = ?`,
		userID).Scan(&habitID, &suggestedMS)
	if err == sql.ErrNoRows {
		return "", time.Time{}, nil
	}
	if err != nil {
		return "", time.Time{}, fmt.Errorf("load habit suggestion: %w", err)
	}
	return habitID, time.UnixMilli(suggestedMS), nil
}

func (s *SQLiteStore) RecordSuggestion(ctx context.Context, userID, habitID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO habit_suggestions(user_id, habit_id, suggested_at_ms)
		 VALUES(?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET habit_id = excluded.habit_id, suggested_at_ms = excluded.suggested_at_ms`,
		userID, habitID, at.UnixMilli())
	if err != nil {
		return fmt.Errorf("save habit suggestion: %w", err)
	}
	return nil
}
