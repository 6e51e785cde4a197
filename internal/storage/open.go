// Package storage selects the session store named by configuration.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeonmaster/internal/config"
	"github.com/cory-johannsen/dungeonmaster/internal/game/session"
	"github.com/cory-johannsen/dungeonmaster/internal/storage/postgres"
	"github.com/cory-johannsen/dungeonmaster/internal/storage/sqlite"
)

// HealthTimeout bounds one store health check.
const HealthTimeout = 5 * time.Second

// SessionStore is an opened session.Store together with its lifecycle.
type SessionStore struct {
	session.Store
	Backend string

	ping  func(ctx context.Context) error
	close func()
}

// Health reports whether the backing database answers within HealthTimeout.
// The memory store is always healthy.
func (s *SessionStore) Health(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, HealthTimeout)
	defer cancel()
	return s.ping(ctx)
}

// Recent lists up to limit stored sessions, most recently updated first.
func (s *SessionStore) Recent(ctx context.Context, limit int) ([]session.Summary, error) {
	l, ok := s.Store.(session.Lister)
	if !ok {
		return nil, fmt.Errorf("%s session store cannot list sessions", s.Backend)
	}
	return l.Recent(ctx, limit)
}

// Close releases the backing database, if any.
func (s *SessionStore) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenSessionStore opens the store selected by cfg.Session.Store.
//
// Precondition: cfg must be valid.
// Postcondition: Returns a ready SessionStore the caller must Close, or a non-nil error.
func OpenSessionStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (*SessionStore, error) {
	switch cfg.Session.Store {
	case config.StoreMemory:
		logger.Info("using in-memory session store")
		return &SessionStore{Store: session.NewMemoryStore(), Backend: config.StoreMemory}, nil

	case config.StoreSQLite:
		if dir := filepath.Dir(cfg.Session.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating sqlite directory: %w", err)
			}
		}
		store, err := sqlite.Open(cfg.Session.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("using sqlite session store", zap.String("path", cfg.Session.SQLitePath))
		return &SessionStore{
			Store:   store,
			Backend: config.StoreSQLite,
			ping:    store.Ping,
			close: func() {
				if err := store.Close(); err != nil {
					logger.Warn("closing sqlite session store", zap.Error(err))
				}
			},
		}, nil

	case config.StorePostgres:
		start := time.Now()
		store, err := postgres.OpenSessionStore(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		logger.Info("using postgres session store",
			zap.String("host", cfg.Database.Host),
			zap.Int("port", cfg.Database.Port),
			zap.String("database", cfg.Database.Name),
			zap.Duration("elapsed", time.Since(start)),
		)
		return &SessionStore{
			Store:   store,
			Backend: config.StorePostgres,
			ping:    store.Health,
			close:   store.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Session.Store)
	}
}
