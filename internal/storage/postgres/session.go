package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cory-johannsen/dungeonmaster/internal/game/session"
)

// ErrSessionNotFound is returned when a session lookup yields no results.
// It matches session.ErrNotFound under errors.Is.
var ErrSessionNotFound = fmt.Errorf("postgres: %w", session.ErrNotFound)

// Load implements session.Store.
//
// Postcondition: Returns the decoded state, or ErrSessionNotFound.
func (s *SessionStore) Load(ctx context.Context, id string) (*session.GameState, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT state FROM game_sessions WHERE id = $1`, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("querying session %s: %w", id, err)
	}
	g, err := session.Unmarshal(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", id, err)
	}
	return g, nil
}

// Save implements session.Store, inserting or replacing the row for g.ID.
//
// Precondition: g.ID must be non-empty.
func (s *SessionStore) Save(ctx context.Context, g *session.GameState) error {
	raw, err := g.Marshal()
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO game_sessions (id, state, battle_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE
		 SET state = EXCLUDED.state,
		     battle_active = EXCLUDED.battle_active,
		     updated_at = EXCLUDED.updated_at`,
		g.ID, raw, g.Battle.Active, g.CreatedAt, g.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving session %s: %w", g.ID, err)
	}
	return nil
}

// Delete implements session.Store.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM game_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	return nil
}

// Recent implements session.Lister.
func (s *SessionStore) Recent(ctx context.Context, limit int) ([]session.Summary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, battle_active, updated_at
		 FROM game_sessions
		 ORDER BY updated_at DESC, id
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var out []session.Summary
	for rows.Next() {
		var sum session.Summary
		if err := rows.Scan(&sum.ID, &sum.BattleActive, &sum.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}
