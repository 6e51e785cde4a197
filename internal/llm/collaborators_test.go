package llm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/dungeonmaster/internal/game/combat"
	"github.com/cory-johannsen/dungeonmaster/internal/llm"
)

func TestExtractor_WrappedAndBareForms(t *testing.T) {
	ctx := context.Background()
	c := newScripted(
		`{"characters": [{"name": "Aria", "faction": "ally", "is_player": true, "hp": 30, "max_hp": 30, "ac": 16, "dex": 14, "damage_dice": "1d8"}, {"name": " ", "faction": "enemy"}]}`,
		"```json\n[{\"name\": \"Goblin\", \"faction\": \"enemy\"}]\n```",
	)
	e := llm.NewExtractor(c, zaptest.NewLogger(t))

	chars, err := e.ExtractCharacters(ctx, []string{"user: I draw my sword on the goblin"})
	require.NoError(t, err)
	require.Len(t, chars, 1, "blank names are dropped")
	assert.Equal(t, "Aria", chars[0].Name)
	assert.True(t, chars[0].IsPlayer)
	assert.Equal(t, 16, chars[0].AC)
	assert.Contains(t, c.last().Messages[0].Content, "I draw my sword on the goblin")

	chars, err = e.ExtractCharacters(ctx, nil)
	require.NoError(t, err)
	require.Len(t, chars, 1)
	assert.Equal(t, "Goblin", chars[0].Name)
}

func TestExtractor_Errors(t *testing.T) {
	e := llm.NewExtractor(newScripted("no idea"), zaptest.NewLogger(t))
	_, err := e.ExtractCharacters(context.Background(), nil)
	assert.ErrorIs(t, err, llm.ErrNoJSON)

	e = llm.NewExtractor(llm.Disabled{}, zaptest.NewLogger(t))
	_, err = e.ExtractCharacters(context.Background(), nil)
	assert.ErrorIs(t, err, llm.ErrDisabled)
}

func TestCommandParser_PatternFirst(t *testing.T) {
	c := newScripted()
	p := llm.NewCommandParser(c, zaptest.NewLogger(t))
	cmd, err := p.ParseCommand(context.Background(), "使用火球术攻击哥布林", nil)
	require.NoError(t, err)
	assert.Equal(t, combat.Command{Skill: "火球术", Defender: "哥布林"}, cmd)
	assert.Zero(t, c.calls(), "pattern hits never reach the model")
}

func TestCommandParser_FallsBackToModel(t *testing.T) {
	c := newScripted(`{"success": true, "attacker": "玩家", "defender": "the Goblin", "skill": "fireball", "error": null}`)
	p := llm.NewCommandParser(c, zaptest.NewLogger(t))
	order := []combat.Combatant{{Name: "Aria"}, {Name: "Goblin"}}

	cmd, err := p.ParseCommand(context.Background(), "I hurl a ball of flame at that goblin", order)
	require.NoError(t, err)
	assert.Equal(t, combat.Command{Skill: "fireball", Defender: "Goblin"}, cmd)
	assert.Contains(t, c.last().Messages[0].Content, "Aria, Goblin")
}

func TestCommandParser_ModelRejects(t *testing.T) {
	c := newScripted(`{"success": false, "attacker": null, "defender": null, "skill": null, "error": {"code": "INVALID_COMBAT_INTENT", "message": "not combat"}}`)
	p := llm.NewCommandParser(c, zaptest.NewLogger(t))
	_, err := p.ParseCommand(context.Background(), "what a nice day", nil)
	assert.ErrorIs(t, err, combat.ErrMalformedCommand)
	assert.ErrorContains(t, err, "not combat")
}

func TestCommandParser_ModelUnavailable(t *testing.T) {
	p := llm.NewCommandParser(llm.Disabled{}, zaptest.NewLogger(t))
	_, err := p.ParseCommand(context.Background(), "hmm", nil)
	assert.ErrorIs(t, err, combat.ErrMalformedCommand)
}

func TestDecider(t *testing.T) {
	c := newScripted("\n\"Goblin uses bash on Aria\"\nBecause Aria is weakest.")
	d := llm.NewDecider(c)
	dec := combat.Decision{
		Actor:   combat.Combatant{Name: "Goblin", Faction: combat.FactionEnemy, HP: 7, MaxHP: 7},
		Targets: []combat.Combatant{{Name: "Aria", HP: 3, MaxHP: 30, AC: 16}},
		Skills:  []string{"普通攻击", "bash"},
		Summary: "Round 2",
	}
	s, err := d.DecideNPC(context.Background(), dec)
	require.NoError(t, err)
	assert.Equal(t, "Goblin uses bash on Aria", s)

	system := c.last().System
	assert.Contains(t, system, "Round 2")
	assert.Contains(t, system, "- Aria: HP 3/30, AC 16")
	assert.Contains(t, system, "普通攻击, bash")

	_, err = llm.NewDecider(newScripted("   \n  ")).DecideNPC(context.Background(), dec)
	assert.ErrorIs(t, err, llm.ErrEmptyCompletion)
}

func TestNarrator_FallsBackToSummary(t *testing.T) {
	n := llm.NewNarrator(newScripted("The goblin staggers."), zaptest.NewLogger(t))
	assert.Equal(t, "The goblin staggers.", n.Narrate(context.Background(), "Round 1", nil))

	n = llm.NewNarrator(llm.Disabled{}, zaptest.NewLogger(t))
	assert.Equal(t, "Round 1", n.Narrate(context.Background(), "Round 1", nil))
}

func TestIntentRouter(t *testing.T) {
	r := llm.NewIntentRouter(newScripted(`{"action": "skill_check"}`), zaptest.NewLogger(t))
	intent, err := r.Classify(context.Background(), []string{"assistant: A locked door."}, "I look for traps")
	require.NoError(t, err)
	assert.Equal(t, llm.IntentSkillCheck, intent)
	assert.True(t, intent.NeedsRules())
	assert.False(t, intent.StartsCombat())
}

func TestIntentRouter_FallsBackToKeywords(t *testing.T) {
	r := llm.NewIntentRouter(newScripted(`{"action": "dance"}`), zaptest.NewLogger(t))
	intent, err := r.Classify(context.Background(), nil, "I attack the orc")
	assert.Error(t, err)
	assert.Equal(t, llm.IntentStartCombat, intent)

	r = llm.NewIntentRouter(llm.Disabled{}, zaptest.NewLogger(t))
	intent, err = r.Classify(context.Background(), nil, "我继续往森林深处走")
	assert.ErrorIs(t, err, llm.ErrDisabled)
	assert.Equal(t, llm.IntentExplore, intent)
}

func TestParseIntent(t *testing.T) {
	i, ok := llm.ParseIntent(" Start_Combat ")
	assert.True(t, ok)
	assert.Equal(t, llm.IntentStartCombat, i)
	assert.True(t, i.StartsCombat())

	_, ok = llm.ParseIntent("fly")
	assert.False(t, ok)
}

func TestStoryTeller(t *testing.T) {
	c := newScripted(
		`{"story_text": "The door is stuck.", "roll_request": {"type": "skill_check", "skill": "athletics", "ability": "STR", "dc": 12, "reason": "forcing the door"}}`,
		`{"story_text": "It bursts open.", "roll_request": {"type": "skill_check", "skill": "athletics", "dc": 12}}`,
		"Plain prose reply.",
	)
	s := llm.NewStoryTeller(c)
	ctx := context.Background()

	story, err := s.Tell(ctx, llm.StoryInput{Input: "I shove the door", Intent: llm.IntentSkillCheck, Rules: "[ref 1] Athletics..."})
	require.NoError(t, err)
	assert.Equal(t, "The door is stuck.", story.Text)
	require.NotNil(t, story.Roll)
	assert.Equal(t, 12, story.Roll.DC)
	assert.Equal(t, "STR", story.Roll.Ability)
	assert.Contains(t, c.last().Messages[0].Content, "[ref 1] Athletics")

	story, err = s.Tell(ctx, llm.StoryInput{Input: "I shove the door", RollResult: "athletics 15 vs DC 12: success"})
	require.NoError(t, err)
	assert.Equal(t, "It bursts open.", story.Text)
	assert.Nil(t, story.Roll, "no new roll once a result is supplied")

	story, err = s.Tell(ctx, llm.StoryInput{Input: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "Plain prose reply.", story.Text)

	c.err = errors.New("boom")
	_, err = s.Tell(ctx, llm.StoryInput{Input: "hello"})
	assert.Error(t, err)
}
