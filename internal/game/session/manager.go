package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Manager serializes all updates to a session: at most one Update runs per
// session id at a time, while different sessions proceed in parallel.
// All methods are safe for concurrent use.
type Manager struct {
	store  Store
	logger *zap.Logger

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	sem  chan struct{}
	refs int
}

// NewManager creates a Manager over store.
//
// Precondition: store and logger must be non-nil.
func NewManager(store Store, logger *zap.Logger) *Manager {
	return &Manager{store: store, logger: logger, locks: make(map[string]*sessionLock)}
}

func (m *Manager) acquire(ctx context.Context, id string) (func(), error) {
	m.mu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &sessionLock{sem: make(chan struct{}, 1)}
		m.locks[id] = l
	}
	l.refs++
	m.mu.Unlock()

	release := func() {
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, id)
		}
		m.mu.Unlock()
	}

	select {
	case l.sem <- struct{}{}:
		return func() {
			<-l.sem
			release()
		}, nil
	case <-ctx.Done():
		release()
		return nil, ctx.Err()
	}
}

// Update loads the state for id (a fresh state if none exists), applies fn
// and saves the result. If fn returns an error nothing is saved.
//
// Precondition: id must be non-empty; fn must be non-nil.
// Postcondition: Returns the saved state, or an error.
func (m *Manager) Update(ctx context.Context, id string, fn func(*GameState) error) (*GameState, error) {
	if id == "" {
		return nil, errors.New("session id must not be empty")
	}
	unlock, err := m.acquire(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("waiting for session %s: %w", id, err)
	}
	defer unlock()

	g, err := m.store.Load(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		m.logger.Debug("creating session", zap.String("session_id", id))
		g = New(id)
	case err != nil:
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}

	if err := fn(g); err != nil {
		return nil, err
	}
	g.ID = id
	g.UpdatedAt = time.Now().UTC()
	if err := m.store.Save(ctx, g); err != nil {
		return nil, fmt.Errorf("saving session %s: %w", id, err)
	}
	return g, nil
}

// Get returns the stored state for id.
func (m *Manager) Get(ctx context.Context, id string) (*GameState, error) {
	return m.store.Load(ctx, id)
}

// Delete removes the session id.
func (m *Manager) Delete(ctx context.Context, id string) error {
	unlock, err := m.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()
	return m.store.Delete(ctx, id)
}
