package combat_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/dungeonmaster/internal/game/combat"
	"github.com/cory-johannsen/dungeonmaster/internal/game/dice"
)

type skillTable map[string]int

func (s skillTable) Bonus(name string) int { return s[strings.ToLower(strings.TrimSpace(name))] }

func (s skillTable) Names() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s skillTable) Default() string { return "basic attack" }

var testSkills = skillTable{"basic attack": 0, "bash": 3, "fireball": 8}

func hero() combat.Combatant {
	return combat.Combatant{
		ID: "hero", Name: "Hero", Faction: combat.FactionAlly, Controller: combat.ControllerPlayer,
		HP: 20, MaxHP: 20, AC: 14, Stats: map[string]int{"STR": 10, "DEX": 14}, DamageDice: "1d10",
	}
}

func goblin() combat.Combatant {
	return combat.Combatant{
		ID: "goblin", Name: "Goblin", Faction: combat.FactionEnemy, Controller: combat.ControllerNPC,
		HP: 7, MaxHP: 7, AC: 12, Stats: map[string]int{"STR": 10, "DEX": 12}, DamageDice: "1d6",
	}
}

func newResolver(t *testing.T, src dice.Source) *combat.Resolver {
	logger := zaptest.NewLogger(t)
	return combat.NewResolver(dice.NewLoggedRoller(src, logger), testSkills, logger)
}

type stubExtractor struct {
	chars []combat.ExtractedCharacter
	err   error
	calls int
}

func (s *stubExtractor) ExtractCharacters(context.Context, []string) ([]combat.ExtractedCharacter, error) {
	s.calls++
	return s.chars, s.err
}

type stubDecider struct {
	sentence string
	err      error
	calls    int
}

func (s *stubDecider) DecideNPC(context.Context, combat.Decision) (string, error) {
	s.calls++
	return s.sentence, s.err
}

var errCollaborator = errors.New("collaborator unavailable")

func newEngine(t *testing.T, src dice.Source, cfg combat.EngineConfig, collab combat.Collaborators) *combat.Engine {
	if collab.Extractor == nil {
		collab.Extractor = &stubExtractor{}
	}
	if collab.Parser == nil {
		collab.Parser = combat.PatternParser{}
	}
	return combat.NewEngine(cfg, newResolver(t, src), src, collab, zap.NewNop())
}
