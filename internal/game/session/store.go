package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrNotFound is returned by a Store when no state exists for an id.
var ErrNotFound = errors.New("session: not found")

// Store persists GameStates between invocations.
type Store interface {
	// Load returns the state for id, or an error wrapping ErrNotFound.
	Load(ctx context.Context, id string) (*GameState, error)
	// Save creates or replaces the state for g.ID.
	Save(ctx context.Context, g *GameState) error
	// Delete removes the state for id. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
}

// Summary describes a stored session without its transcript or roster.
type Summary struct {
	ID           string
	BattleActive bool
	UpdatedAt    time.Time
}

// Lister is implemented by stores that can enumerate their sessions.
type Lister interface {
	// Recent returns up to limit summaries, most recently updated first.
	Recent(ctx context.Context, limit int) ([]Summary, error)
}

// MemoryStore keeps encoded states in memory. States are stored as JSON so
// callers never share mutable structure with the store.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context, id string) (*GameState, error) {
	m.mu.RLock()
	raw, ok := m.data[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return Unmarshal(raw)
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, g *GameState) error {
	raw, err := g.Marshal()
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[g.ID] = raw
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

// Recent implements Lister.
func (m *MemoryStore) Recent(_ context.Context, limit int) ([]Summary, error) {
	m.mu.RLock()
	out := make([]Summary, 0, len(m.data))
	for id, raw := range m.data {
		g, err := Unmarshal(raw)
		if err != nil {
			m.mu.RUnlock()
			return nil, err
		}
		out = append(out, Summary{ID: id, BattleActive: g.Battle.Active, UpdatedAt: g.UpdatedAt})
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
