package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/dungeonmaster/internal/game/combat"
	"github.com/cory-johannsen/dungeonmaster/internal/game/session"
	"github.com/cory-johannsen/dungeonmaster/internal/storage/sqlite"
)

func openStore(t *testing.T) (*sqlite.SessionStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sessions.db")
	s, err := sqlite.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := sqlite.Open("  ")
	assert.Error(t, err)
}

func TestOpen_EnablesWriteAheadLog(t *testing.T) {
	s, path := openStore(t)
	require.NoError(t, s.Close())

	raw, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer raw.Close()
	var mode string
	require.NoError(t, raw.QueryRow(`PRAGMA journal_mode`).Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestSessionStore_RoundTrip(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()

	g := session.New("s1")
	g.AddMessage(session.RoleUser, "我拔出长剑冲向兽人")
	g.Battle = combat.State{
		Order:               []combat.Combatant{{ID: "enemy_0_Orc", Name: "Orc", Faction: combat.FactionEnemy, HP: 15, MaxHP: 15, AC: 13}},
		Active:              true,
		Round:               2,
		TurnsThisRound:      1,
		Log:                 []string{"----- Round 2 -----"},
		AwaitingPlayerInput: false,
	}
	require.NoError(t, s.Save(ctx, g))

	got, err := s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, g.Battle, got.Battle)
	assert.Equal(t, "我拔出长剑冲向兽人", got.Messages[0].Content)
}

func TestSessionStore_PersistsAcrossReopen(t *testing.T) {
	s, path := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, session.New("old")))
	newer := session.New("new")
	newer.UpdatedAt = time.Now().Add(time.Minute)
	newer.Battle.Active = true
	require.NoError(t, s.Save(ctx, newer))
	require.NoError(t, s.Close())

	reopened, err := sqlite.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	_, err = reopened.Load(ctx, "old")
	require.NoError(t, err)
	recent, err := reopened.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "new", recent[0].ID)
	assert.True(t, recent[0].BattleActive)
	assert.Equal(t, newer.UpdatedAt.UnixMilli(), recent[0].UpdatedAt.UnixMilli())
	assert.Equal(t, "old", recent[1].ID)
	assert.False(t, recent[1].BattleActive)

	limited, err := reopened.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSessionStore_NotFoundAndDelete(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()

	_, err := s.Load(ctx, "missing")
	assert.ErrorIs(t, err, session.ErrNotFound)
	recent, err := s.Recent(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, recent)

	require.NoError(t, s.Save(ctx, session.New("gone")))
	require.NoError(t, s.Delete(ctx, "gone"))
	_, err = s.Load(ctx, "gone")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestSessionStore_WithManager(t *testing.T) {
	s, _ := openStore(t)
	mgr := session.NewManager(s, zaptest.NewLogger(t))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := mgr.Update(ctx, "s1", func(g *session.GameState) error {
			g.AddMessage(session.RoleUser, "hello")
			return nil
		})
		require.NoError(t, err)
	}
	g, err := s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, g.Messages, 3)
}
