package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/dungeonmaster/internal/config"
	"github.com/cory-johannsen/dungeonmaster/internal/game/session"
	"github.com/cory-johannsen/dungeonmaster/internal/storage"
)

func baseConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.LoadFromViper(config.NewViper())
	require.NoError(t, err)
	return cfg
}

func TestOpenSessionStore_Memory(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Session.Store = config.StoreMemory

	store, err := storage.OpenSessionStore(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, config.StoreMemory, store.Backend)
	assert.NoError(t, store.Health(context.Background()))
	_, err = store.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestOpenSessionStore_SQLiteCreatesDirectory(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Session.Store = config.StoreSQLite
	cfg.Session.SQLitePath = filepath.Join(t.TempDir(), "nested", "sessions.db")
	ctx := context.Background()

	store, err := storage.OpenSessionStore(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, config.StoreSQLite, store.Backend)
	assert.NoError(t, store.Health(ctx))

	g := session.New("table")
	g.AddMessage(session.RoleUser, "hello")
	require.NoError(t, store.Save(ctx, g))
	loaded, err := store.Load(ctx, "table")
	require.NoError(t, err)
	require.Len(t, loaded.Messages, 1)
	assert.Equal(t, "hello", loaded.Messages[0].Content)

	recent, err := store.Recent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "table", recent[0].ID)
}

func TestOpenSessionStore_MemoryListsRecent(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Session.Store = config.StoreMemory
	ctx := context.Background()

	store, err := storage.OpenSessionStore(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(ctx, session.New("a")))
	recent, err := store.Recent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "a", recent[0].ID)
}

func TestOpenSessionStore_PostgresUnreachable(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Session.Store = config.StorePostgres
	cfg.Database.Host = "127.0.0.1"
	cfg.Database.Port = 1
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := storage.OpenSessionStore(ctx, cfg, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestOpenSessionStore_UnknownBackend(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Session.Store = "redis"
	_, err := storage.OpenSessionStore(context.Background(), cfg, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "redis")
}
