// Package sqlite provides a SQLite-backed session store for single-process play.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cory-johannsen/dungeonmaster/internal/game/session"
)

const schema = `
CREATE TABLE IF NOT EXISTS game_sessions (
    id            TEXT    PRIMARY KEY,
    state         TEXT    NOT NULL,
    battle_active INTEGER NOT NULL DEFAULT 0,
    created_at    INTEGER NOT NULL,
    updated_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_game_sessions_updated_at ON game_sessions (updated_at);
`

// pragmas are applied by the modernc driver to every new connection.
const pragmas = "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

// SessionStore persists game states in SQLite. It implements session.Store.
type SessionStore struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// Open opens a SQLite session store at path and ensures the schema exists.
func Open(path string) (*SessionStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	sqlDB, err := sql.Open("sqlite", filepath.Clean(path)+pragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SessionStore{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *SessionStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Ping checks that the database file is still usable.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.sqlDB.PingContext(ctx)
}

// Load implements session.Store.
func (s *SessionStore) Load(ctx context.Context, id string) (*session.GameState, error) {
	var raw string
	err := s.sqlDB.QueryRowContext(ctx, `SELECT state FROM game_sessions WHERE id = ?`, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("query session %s: %w", id, err)
	}
	g, err := session.Unmarshal([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return g, nil
}

// Save implements session.Store.
func (s *SessionStore) Save(ctx context.Context, g *session.GameState) error {
	if strings.TrimSpace(g.ID) == "" {
		return fmt.Errorf("session id is required")
	}
	raw, err := g.Marshal()
	if err != nil {
		return err
	}
	active := 0
	if g.Battle.Active {
		active = 1
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO game_sessions (id, state, battle_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   state = excluded.state,
		   battle_active = excluded.battle_active,
		   updated_at = excluded.updated_at`,
		g.ID, string(raw), active, toMillis(g.CreatedAt), toMillis(g.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save session %s: %w", g.ID, err)
	}
	return nil
}

// Delete implements session.Store.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM game_sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

// Recent implements session.Lister.
func (s *SessionStore) Recent(ctx context.Context, limit int) ([]session.Summary, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, battle_active, updated_at FROM game_sessions
		 ORDER BY updated_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []session.Summary
	for rows.Next() {
		var (
			sum    session.Summary
			active int
			millis int64
		)
		if err := rows.Scan(&sum.ID, &active, &millis); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sum.BattleActive = active != 0
		sum.UpdatedAt = time.UnixMilli(millis).UTC()
		out = append(out, sum)
	}
	return out, rows.Err()
}
