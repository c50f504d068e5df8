package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no profile exists for a user id.
var ErrNotFound = errors.New("profile not found")

// SQLiteStore persists user profiles. The core treats it as read-only;
// Upsert exists for onboarding and tests.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create profile db dir: %w", err)
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
		`CREATE TABLE IF NOT EXISTS profiles (
			user_id TEXT PRIMARY KEY,
			life_stage TEXT NOT NULL,
			display_name TEXT NOT NULL,
			channel TEXT NOT NULL DEFAULT '',
			chat_id TEXT NOT NULL DEFAULT '',
			comm_mode TEXT NOT NULL DEFAULT 'text',
			timezone TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init profile schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, userID string) (UserProfile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, life_stage, display_name, channel, chat_id, comm_mode, timezone
		 FROM profiles WHERE user_id = ?`, userID)

	var p UserProfile
	var stage, mode string
	err := row.Scan(&p.ID, &stage, &p.DisplayName, &p.Channel, &p.ChatID, &mode, &p.Timezone)
	if errors.Is(err, sql.ErrNoRows) {
		return UserProfile{}, fmt.Errorf("%w: %s", ErrNotFound, userID)
	}
	if err != nil {
		return UserProfile{}, fmt.Errorf("load profile %s: %w", userID, err)
	}
	p.LifeStage = LifeStage(stage)
	p.CommMode = CommMode(mode)
	return p, nil
}

func (s *SQLiteStore) Upsert(ctx context.Context, p UserProfile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles(user_id, life_stage, display_name, channel, chat_id, comm_mode, timezone)
		 VALUES(?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			life_stage = excluded.life_stage,
			display_name = excluded.display_name,
			channel = excluded.channel,
			chat_id = excluded.chat_id,
			comm_mode = excluded.comm_mode,
			timezone = excluded.timezone`,
		p.ID, string(p.LifeStage), p.DisplayName, p.Channel, p.ChatID, string(p.CommMode), p.Timezone)
	if err != nil {
		return fmt.Errorf("upsert profile %s: %w", p.ID, err)
	}
	return nil
}

// ListIDs returns every known user id, for the proactive sweep.
func (s *SQLiteStore) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id FROM profiles ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
