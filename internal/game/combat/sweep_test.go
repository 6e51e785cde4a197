package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dungeonmaster/internal/game/combat"
)

func drawRoster(rt *rapid.T, f combat.Faction, label string, minAlive int) []combat.Combatant {
	n := rapid.IntRange(1, 6).Draw(rt, label+"_n")
	out := make([]combat.Combatant, n)
	for i := range out {
		hp := rapid.IntRange(-5, 30).Draw(rt, label+"_hp")
		if i < minAlive && hp <= 0 {
			hp = 1
		}
		out[i] = combat.Combatant{ID: label + string(rune('a'+i)), Faction: f, HP: hp}
	}
	return out
}

func TestDeathSweep_ContinuesWhileBothFactionsLive(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		roster := append(drawRoster(rt, combat.FactionAlly, "ally", 1), drawRoster(rt, combat.FactionEnemy, "enemy", 1)...)
		res := combat.DeathSweep(roster)
		assert.False(rt, res.Ended)
		assert.Equal(rt, combat.OutcomeNone, res.Outcome)
		assert.Equal(rt, len(roster), len(res.Survivors)+len(res.Fallen))
		for _, c := range res.Survivors {
			assert.True(rt, c.IsAlive())
		}
	})
}

func TestDeathSweep_EndsWhenFactionWiped(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		wipedEnemies := rapid.Bool().Draw(rt, "wiped_enemies")
		allies := drawRoster(rt, combat.FactionAlly, "ally", 1)
		enemies := drawRoster(rt, combat.FactionEnemy, "enemy", 1)
		wiped, want := enemies, combat.OutcomeVictory
		if !wipedEnemies {
			wiped, want = allies, combat.OutcomeDefeat
		}
		for i := range wiped {
			wiped[i].HP = rapid.IntRange(-10, 0).Draw(rt, "dead_hp")
		}
		res := combat.DeathSweep(append(allies, enemies...))
		assert.True(rt, res.Ended)
		assert.Equal(rt, want, res.Outcome)
	})
}

func TestRotate(t *testing.T) {
	a, b, c := combat.Combatant{ID: "a"}, combat.Combatant{ID: "b"}, combat.Combatant{ID: "c"}
	assert.Equal(t, []combat.Combatant{b, c, a}, combat.Rotate([]combat.Combatant{a, b, c}))
	assert.Equal(t, []combat.Combatant{a}, combat.Rotate([]combat.Combatant{a}))
	assert.Empty(t, combat.Rotate(nil))

	in := []combat.Combatant{a, b}
	_ = combat.Rotate(in)
	assert.Equal(t, "a", in[0].ID, "input is not modified")
}

func TestRotate_Property_FullCycleIsIdentity(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 10).Draw(rt, "n")
		order := make([]combat.Combatant, n)
		for i := range order {
			order[i] = combat.Combatant{ID: string(rune('a' + i))}
		}
		got := order
		for i := 0; i < n; i++ {
			got = combat.Rotate(got)
		}
		assert.Equal(rt, len(order), len(got))
		for i := range order {
			assert.Equal(rt, order[i].ID, got[i].ID)
		}
	})
}
