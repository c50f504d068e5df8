package memory

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists conversation turns per user.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create memory db dir: %w", err)
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
		`CREATE TABLE IF NOT EXISTS conversation_turns (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at_ms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS conversation_turns_user_idx ON conversation_turns(user_id, id DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init memory schema: %w", err)
		}
	}
	return nil
}

// Append records one turn. The decision engine never writes here on the
// silent path; only dispatched replies and inbound user messages land.
func (s *SQLiteStore) Append(ctx context.Context, userID string, turn Turn) error {
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversation_turns(user_id, role, content, created_at_ms)
		 VALUES(?, ?, ?, ?)`,
		userID, turn.Role, turn.Content, turn.Timestamp.UnixMilli())
	if err != nil {
		return fmt.Errorf("append conversation turn: %w", err)
	}
	return nil
}

// SnapshotFor returns the most recent depth turns, oldest first. A user
// with no history gets an empty snapshot, not an error.
func (s *SQLiteStore) SnapshotFor(ctx context.Context, userID string, depth int) (Snapshot, error) {
	if depth <= 0 {
		depth = 5
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content, created_at_ms FROM conversation_turns
		 WHERE user_id = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		userID, depth)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load conversation snapshot: %w", err)
	}
	defer rows.Close()

	var reversed []Turn
	for rows.Next() {
		var role, content string
		var createdMS int64
		if err := rows.Scan(&role, &content, &createdMS); err != nil {
			return Snapshot{}, err
		}
		reversed = append(reversed, Turn{
			Role:      role,
			Content:   content,
			Timestamp: time.UnixMilli(createdMS),
		})
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, err
	}

	turns := make([]Turn, 0, len(reversed))
	for i := len(reversed) - 1; i >= 0; i-- {
		turns = append(turns, reversed[i])
	}
	return Snapshot{UserID: userID, Turns: turns}, nil
}
