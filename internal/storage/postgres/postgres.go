// Package postgres persists game sessions in PostgreSQL using pgx v5.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/dungeonmaster/internal/config"
)

// ApplicationName tags every connection so sessions show up in pg_stat_activity.
const ApplicationName = "dungeonmaster"

// SessionStore stores game states as JSONB rows in game_sessions and owns
// the connection pool behind them. It implements session.Store and
// session.Lister.
type SessionStore struct {
	pool *pgxpool.Pool
}

// poolConfig translates cfg into pgx pool settings.
func poolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	poolCfg.ConnConfig.RuntimeParams["application_name"] = ApplicationName
	return poolCfg, nil
}

// OpenSessionStore connects to the database described by cfg.
//
// Precondition: cfg must contain valid connection parameters and the
// game_sessions migration must have been applied.
// Postcondition: Returns a SessionStore whose database answered a ping, or
// a non-nil error. The caller must Close the store.
func OpenSessionStore(ctx context.Context, cfg config.DatabaseConfig) (*SessionStore, error) {
	poolCfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &SessionStore{pool: pool}, nil
}

// Health pings the database; ctx bounds the wait.
func (s *SessionStore) Health(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases every pooled connection.
//
// Postcondition: The store is no longer usable.
func (s *SessionStore) Close() {
	s.pool.Close()
}

// DB exposes the pool for schema setup in tests and tooling.
func (s *SessionStore) DB() *pgxpool.Pool {
	return s.pool
}
