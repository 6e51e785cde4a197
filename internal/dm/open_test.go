package dm_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/dungeonmaster/internal/config"
	"github.com/cory-johannsen/dungeonmaster/internal/dm"
	"github.com/cory-johannsen/dungeonmaster/internal/game/session"
)

func offlineConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.LoadFromViper(config.NewViper())
	require.NoError(t, err)
	cfg.LLM.APIKey = ""
	cfg.Combat.SkillsDir = filepath.Join("..", "..", "content", "skills")
	cfg.Combat.ClassesDir = filepath.Join("..", "..", "content", "classes")
	cfg.Combat.TacticsDir = filepath.Join("..", "..", "content", "tactics")
	cfg.Retrieval.IndexPath = filepath.Join(t.TempDir(), "missing.db")
	return cfg
}

func TestOpen_LoadsShippedContentOffline(t *testing.T) {
	m, err := dm.Open(offlineConfig(t), session.NewMemoryStore(), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, m.Close()) })

	assert.ElementsMatch(t, []string{"Mage", "Paladin", "Rogue", "Warrior"}, m.Classes())

	p, err := m.Join(context.Background(), "table", "u1", "Sera", "paladin")
	require.NoError(t, err)
	assert.Equal(t, 17, p.AC)
}

func TestOpen_MissingContentFallsBackToDefaults(t *testing.T) {
	cfg := offlineConfig(t)
	cfg.Combat.SkillsDir = filepath.Join(t.TempDir(), "nope")
	cfg.Combat.ClassesDir = ""
	cfg.Combat.TacticsDir = filepath.Join(t.TempDir(), "nope")

	m, err := dm.Open(cfg, session.NewMemoryStore(), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, m.Close()) })
	assert.ElementsMatch(t, []string{"Warrior", "Mage", "Rogue"}, m.Classes())
}
