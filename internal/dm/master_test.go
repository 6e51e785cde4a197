package dm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/dungeonmaster/internal/dm"
	"github.com/cory-johannsen/dungeonmaster/internal/game/combat"
	"github.com/cory-johannsen/dungeonmaster/internal/game/dice"
	"github.com/cory-johannsen/dungeonmaster/internal/game/ruleset"
	"github.com/cory-johannsen/dungeonmaster/internal/game/session"
	"github.com/cory-johannsen/dungeonmaster/internal/llm"
)

type fixedClassifier struct{ intent llm.Intent }

func (f fixedClassifier) Classify(context.Context, []string, string) (llm.Intent, error) {
	return f.intent, nil
}

type scriptedStory struct {
	replies []llm.Story
	err     error
	inputs  []llm.StoryInput
}

func (s *scriptedStory) Tell(_ context.Context, in llm.StoryInput) (llm.Story, error) {
	s.inputs = append(s.inputs, in)
	if s.err != nil {
		return llm.Story{}, s.err
	}
	if len(s.replies) == 0 {
		return llm.Story{Text: "Nothing else happens."}, nil
	}
	out := s.replies[0]
	s.replies = s.replies[1:]
	return out, nil
}

type echoNarrator struct{ calls int }

func (n *echoNarrator) Narrate(_ context.Context, summary string, _ []string) string {
	n.calls++
	return "NARRATION\n" + summary
}

type fixedRules struct {
	text    string
	queries []string
}

func (r *fixedRules) Context(_ context.Context, query string) string {
	r.queries = append(r.queries, query)
	return r.text
}

type goblinExtractor struct{}

func (goblinExtractor) ExtractCharacters(context.Context, []string) ([]combat.ExtractedCharacter, error) {
	return []combat.ExtractedCharacter{{Name: "Goblin", Faction: "enemy", HP: 7, MaxHP: 7, AC: 12, Dex: 12, DamageDice: "1d6"}}, nil
}

type fixture struct {
	master   *dm.Master
	sessions *session.Manager
	story    *scriptedStory
	narrator *echoNarrator
	rules    *fixedRules
}

func newFixture(t *testing.T, intent llm.Intent, faces ...int) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	catalog, err := ruleset.LoadCatalog("", "")
	require.NoError(t, err)

	src := dice.NewScriptedSource(faces...)
	roller := dice.NewLoggedRoller(src, logger)
	engine := combat.NewEngine(combat.EngineConfig{},
		combat.NewResolver(roller, catalog.Skills, logger), src,
		combat.Collaborators{Extractor: goblinExtractor{}, Parser: combat.PatternParser{}},
		logger)

	f := &fixture{
		sessions: session.NewManager(session.NewMemoryStore(), logger),
		story:    &scriptedStory{},
		narrator: &echoNarrator{},
		rules:    &fixedRules{text: "[ref 1] Stealth uses DEX."},
	}
	f.master = dm.New(dm.Deps{
		Sessions: f.sessions,
		Engine:   engine,
		Catalog:  catalog,
		Router:   fixedClassifier{intent: intent},
		Story:    f.story,
		Narrator: f.narrator,
		Rules:    f.rules,
		Roller:   roller,
	}, logger)
	return f
}

func TestHandleTurn_RejectsEmptyInputAndUnknownPlayers(t *testing.T) {
	f := newFixture(t, llm.IntentExplore)
	ctx := context.Background()

	_, err := f.master.HandleTurn(ctx, "s1", "u1", "   ")
	assert.ErrorIs(t, err, dm.ErrEmptyInput)

	_, err = f.master.HandleTurn(ctx, "s1", "u1", "look around")
	assert.ErrorIs(t, err, dm.ErrNotJoined)
}

func TestJoin(t *testing.T) {
	f := newFixture(t, llm.IntentExplore)
	ctx := context.Background()

	_, err := f.master.Join(ctx, "s1", "u1", "Bram", "bard")
	assert.ErrorIs(t, err, dm.ErrUnknownClass)

	first, err := f.master.Join(ctx, "s1", "u1", "Bram", "warrior")
	require.NoError(t, err)
	assert.Equal(t, "Bram", first.Name)
	assert.Equal(t, 32, first.MaxHP)

	again, err := f.master.Join(ctx, "s1", "u1", "Someone Else", "Mage")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "Bram", again.Name)

	status, err := f.master.Status(ctx, "s1")
	require.NoError(t, err)
	assert.Contains(t, status, "Bram (warrior, level 1) HP 32/32 AC 16")
	assert.ElementsMatch(t, []string{"Warrior", "Mage", "Rogue"}, f.master.Classes())
}

func TestHandleTurn_StoryWithAbilityCheck(t *testing.T) {
	f := newFixture(t, llm.IntentSkillCheck, 15)
	ctx := context.Background()
	_, err := f.master.Join(ctx, "s1", "u1", "Bram", "warrior")
	require.NoError(t, err)

	f.story.replies = []llm.Story{
		{Text: "You scan the shadows.", Roll: &llm.RollRequest{Type: "skill_check", Skill: "Perception", DC: 12}},
		{Text: "A key glints under the altar."},
	}
	reply, err := f.master.HandleTurn(ctx, "s1", "u1", "I search the chapel")
	require.NoError(t, err)

	assert.Equal(t, dm.ModeStory, reply.Mode)
	require.NotNil(t, reply.Check)
	assert.Equal(t, combat.WIS, reply.Check.Ability)
	assert.Equal(t, 15, reply.Check.Roll)
	assert.Equal(t, 15, reply.Check.Total)
	assert.True(t, reply.Check.Success)
	assert.Contains(t, reply.Text, "You scan the shadows.")
	assert.Contains(t, reply.Text, "Perception (WIS) check: d20=15 +0 = 15 vs DC 12, success")
	assert.Contains(t, reply.Text, "A key glints under the altar.")

	require.Len(t, f.story.inputs, 2)
	assert.Empty(t, f.story.inputs[0].RollResult)
	assert.Equal(t, reply.Check.String(), f.story.inputs[1].RollResult)
	assert.Equal(t, "[ref 1] Stealth uses DEX.", f.story.inputs[0].Rules)
	assert.Equal(t, []string{"I search the chapel"}, f.rules.queries)

	g, err := f.sessions.Get(ctx, "s1")
	require.NoError(t, err)
	last := g.Messages[len(g.Messages)-1]
	assert.Equal(t, session.RoleAssistant, last.Role)
	assert.Equal(t, reply.Text, last.Content)
}

func TestHandleTurn_ExploreSkipsRules(t *testing.T) {
	f := newFixture(t, llm.IntentExplore)
	ctx := context.Background()
	_, err := f.master.Join(ctx, "s1", "u1", "Bram", "warrior")
	require.NoError(t, err)

	f.story.replies = []llm.Story{{Text: "The corridor stretches on."}}
	reply, err := f.master.HandleTurn(ctx, "s1", "u1", "walk north")
	require.NoError(t, err)
	assert.Equal(t, "The corridor stretches on.", reply.Text)
	assert.Nil(t, reply.Check)
	assert.Empty(t, f.rules.queries)
}

func TestHandleTurn_StoryFailureDegrades(t *testing.T) {
	f := newFixture(t, llm.IntentTalk)
	ctx := context.Background()
	_, err := f.master.Join(ctx, "s1", "u1", "Bram", "warrior")
	require.NoError(t, err)

	f.story.err = errors.New("model offline")
	reply, err := f.master.HandleTurn(ctx, "s1", "u1", "hello innkeeper")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "[system]")
}

func TestHandleTurn_CombatToVictory(t *testing.T) {
	// Initiative: goblin d20=1, Bram d20=20. Attack: natural 20, then 2d10 → 10, 10.
	f := newFixture(t, llm.IntentStartCombat, 1, 20, 20, 10, 10)
	ctx := context.Background()
	_, err := f.master.Join(ctx, "s1", "u1", "Bram", "warrior")
	require.NoError(t, err)

	reply, err := f.master.HandleTurn(ctx, "s1", "u1", "I draw my sword and attack the goblin")
	require.NoError(t, err)
	assert.Equal(t, dm.ModeCombat, reply.Mode)
	assert.Equal(t, combat.HaltWaitingForPlayer, reply.Halt)
	name, waiting := reply.WaitingOn()
	assert.True(t, waiting)
	assert.Equal(t, "Bram", name)
	assert.Contains(t, reply.Events, "===== Combat begins =====")

	reply, err = f.master.HandleTurn(ctx, "s1", "u1", "attack goblin")
	require.NoError(t, err)
	assert.Equal(t, combat.HaltEnded, reply.Halt)
	assert.Equal(t, combat.OutcomeVictory, reply.Battle.Result)
	assert.Contains(t, reply.Events, "Goblin is defeated!")
	assert.Contains(t, reply.Text, "NARRATION")
	assert.Equal(t, 2, f.narrator.calls)

	g, err := f.sessions.Get(ctx, "s1")
	require.NoError(t, err)
	p, ok := g.Player("u1")
	require.True(t, ok)
	assert.Equal(t, 32, p.HP)
	assert.Empty(t, g.Fighters)
	assert.False(t, g.Battle.Active)
}

func TestHandleTurn_OnlyCurrentPlayerMayAct(t *testing.T) {
	// Initiative: goblin 1, Ada 20, Bram 2.
	f := newFixture(t, llm.IntentAttack, 1, 20, 2)
	ctx := context.Background()
	_, err := f.master.Join(ctx, "s1", "u-a", "Ada", "rogue")
	require.NoError(t, err)
	_, err = f.master.Join(ctx, "s1", "u-b", "Bram", "warrior")
	require.NoError(t, err)

	reply, err := f.master.HandleTurn(ctx, "s1", "u-a", "attack!")
	require.NoError(t, err)
	name, _ := reply.WaitingOn()
	require.Equal(t, "Ada", name)

	reply, err = f.master.HandleTurn(ctx, "s1", "u-b", "attack goblin")
	require.NoError(t, err)
	assert.Equal(t, "[system] It is Ada's turn.", reply.Text)

	g, err := f.sessions.Get(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, g.Battle.AwaitingPlayerInput)
	assert.ElementsMatch(t, []string{g.Players["u-a"].ID, g.Players["u-b"].ID}, g.Fighters)
}

func TestHandleTurn_FallenPlayerCannotStartCombat(t *testing.T) {
	f := newFixture(t, llm.IntentStartCombat)
	ctx := context.Background()
	_, err := f.master.Join(ctx, "s1", "u1", "Bram", "warrior")
	require.NoError(t, err)
	_, err = f.sessions.Update(ctx, "s1", func(g *session.GameState) error {
		g.Players["u1"].HP = 0
		return nil
	})
	require.NoError(t, err)

	reply, err := f.master.HandleTurn(ctx, "s1", "u1", "attack")
	require.NoError(t, err)
	assert.Equal(t, "[system] Bram has fallen and cannot fight.", reply.Text)
	assert.False(t, reply.Battle.Active)
}
