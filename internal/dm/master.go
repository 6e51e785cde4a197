// Package dm is the dungeon master: it routes each player message to the
// story engine or the combat engine and keeps the session state current.
package dm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeonmaster/internal/game/character"
	"github.com/cory-johannsen/dungeonmaster/internal/game/combat"
	"github.com/cory-johannsen/dungeonmaster/internal/game/dice"
	"github.com/cory-johannsen/dungeonmaster/internal/game/ruleset"
	"github.com/cory-johannsen/dungeonmaster/internal/game/session"
	"github.com/cory-johannsen/dungeonmaster/internal/llm"
	"github.com/cory-johannsen/dungeonmaster/internal/observability"
)

var (
	// ErrEmptyInput is returned for a blank player message.
	ErrEmptyInput = errors.New("dm: empty input")
	// ErrNotJoined is returned when a user acts before creating a character.
	ErrNotJoined = errors.New("dm: player has not joined the session")
	// ErrUnknownClass is returned by Join for a class missing from the catalog.
	ErrUnknownClass = errors.New("dm: unknown class")
)

// Mode says which engine produced a Reply.
type Mode string

// Reply modes.
const (
	ModeStory  Mode = "story"
	ModeCombat Mode = "combat"
)

// Reply is the dungeon master's answer to one player message.
type Reply struct {
	Mode   Mode
	Intent llm.Intent
	// Text is the prose shown to the player.
	Text string
	// Events are the battle log lines appended during this turn.
	Events []string
	// Halt is why the combat engine stopped; meaningful in ModeCombat only.
	Halt combat.Halt
	// Check is the ability check resolved during a story turn, if any.
	Check *Check
	// Battle is the battle state after the turn.
	Battle combat.State
}

// WaitingOn returns the name of the player whose action the battle awaits.
func (r Reply) WaitingOn() (string, bool) {
	if r.Mode != ModeCombat || r.Halt != combat.HaltWaitingForPlayer {
		return "", false
	}
	cur, ok := r.Battle.Current()
	if !ok || !cur.IsPlayer() {
		return "", false
	}
	return cur.Name, true
}

// Classifier decides the intent of a player message.
type Classifier interface {
	Classify(ctx context.Context, history []string, text string) (llm.Intent, error)
}

// Storyteller continues the narrative outside combat.
type Storyteller interface {
	Tell(ctx context.Context, in llm.StoryInput) (llm.Story, error)
}

// Narrator describes a battle snapshot.
type Narrator interface {
	Narrate(ctx context.Context, summary string, history []string) string
}

// RulesSource supplies rules text relevant to a query.
type RulesSource interface {
	Context(ctx context.Context, query string) string
}

// Battle advances a battle state.
type Battle interface {
	Run(ctx context.Context, s combat.State, in combat.Input) (combat.State, combat.Halt)
}

// Deps are the collaborators a Master orchestrates.
type Deps struct {
	Sessions *session.Manager
	Engine   Battle
	Catalog  *ruleset.Catalog
	Router   Classifier
	Story    Storyteller
	Narrator Narrator
	Rules    RulesSource
	Roller   *dice.Roller
	// HistoryWindow is how many conversation turns the collaborators see.
	HistoryWindow int
}

// Master handles player turns. It holds no per-session state; all of it
// lives in the session store and is serialized by the session manager.
type Master struct {
	deps    Deps
	logger  *zap.Logger
	closers []func() error
}

// New creates a Master.
//
// Precondition: every Deps field except Rules must be non-nil; logger must be non-nil.
func New(deps Deps, logger *zap.Logger) *Master {
	if deps.HistoryWindow <= 0 {
		deps.HistoryWindow = 5
	}
	return &Master{deps: deps, logger: logger}
}

// Close releases resources acquired by Open.
func (m *Master) Close() error {
	var errs []error
	for i := len(m.closers) - 1; i >= 0; i-- {
		if err := m.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Classes lists the names of the playable classes.
func (m *Master) Classes() []string {
	out := make([]string, 0, len(m.deps.Catalog.Classes))
	for _, c := range m.deps.Catalog.Classes {
		out = append(out, c.Name)
	}
	return out
}

// Join adds a level 1 character for userID to the session. Joining twice
// returns the existing character unchanged.
//
// Postcondition: Returns the user's player record, or an error wrapping
// ErrUnknownClass or the builder's validation error.
func (m *Master) Join(ctx context.Context, sessionID, userID, name, class string) (*character.Player, error) {
	cl, ok := m.deps.Catalog.Class(strings.TrimSpace(class))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownClass, class)
	}

	var out *character.Player
	_, err := m.deps.Sessions.Update(ctx, sessionID, func(g *session.GameState) error {
		if p, ok := g.Player(userID); ok {
			out = p
			return nil
		}
		p, err := character.Build(name, cl)
		if err != nil {
			return err
		}
		g.SetPlayer(userID, p)
		g.AddMessage(session.RoleSystem, fmt.Sprintf("%s the %s joins the party.", p.Name, cl.Name))
		out = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("joining session %s: %w", sessionID, err)
	}
	observability.ForSession(m.logger, sessionID, userID).Info("player joined",
		zap.String("name", out.Name), zap.String("class", out.Class))
	return out, nil
}

// Status describes the session: the battle summary during combat,
// otherwise the party.
func (m *Master) Status(ctx context.Context, sessionID string) (string, error) {
	g, err := m.deps.Sessions.Get(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if g.Battle.Active {
		return combat.Summary(g.Battle, m.deps.HistoryWindow), nil
	}
	party := g.Party()
	if party == "" {
		return "No one has joined yet.", nil
	}
	return "Party:\n" + party, nil
}

// HandleTurn processes one player message. During a battle the message is
// the player's combat action; otherwise its intent decides between the story
// engine and starting a battle. Collaborator failures degrade the reply and
// are logged; only session and input errors are returned.
//
// Precondition: userID must have joined sessionID.
// Postcondition: The updated session state is saved before HandleTurn returns.
func (m *Master) HandleTurn(ctx context.Context, sessionID, userID, text string) (Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{}, ErrEmptyInput
	}
	logger := observability.ForSession(m.logger, sessionID, userID)

	var reply Reply
	_, err := m.deps.Sessions.Update(ctx, sessionID, func(g *session.GameState) error {
		p, ok := g.Player(userID)
		if !ok {
			return ErrNotJoined
		}
		g.AddMessage(session.RoleUser, fmt.Sprintf("%s: %s", p.Name, text))

		if g.Battle.Active {
			reply = m.combatTurn(ctx, g, p, text, llm.IntentAttack, logger)
			return nil
		}

		intent, err := m.deps.Router.Classify(ctx, g.History(m.deps.HistoryWindow), text)
		if err != nil {
			logger.Debug("intent classification degraded", zap.Error(err))
		}
		logger.Debug("turn routed", zap.String("intent", string(intent)))

		if intent.StartsCombat() {
			if !p.IsAlive() {
				reply = Reply{Mode: ModeStory, Intent: intent, Battle: g.Battle,
					Text: fmt.Sprintf("[system] %s has fallen and cannot fight.", p.Name)}
				return nil
			}
			g.Battle = combat.State{}
			g.Fighters = nil
			reply = m.combatTurn(ctx, g, p, text, intent, logger)
			return nil
		}
		reply = m.storyTurn(ctx, g, p, text, intent, logger)
		return nil
	})
	if err != nil {
		return Reply{}, err
	}
	return reply, nil
}

// combatTurn runs the engine once against the session's battle.
func (m *Master) combatTurn(ctx context.Context, g *session.GameState, p *character.Player, text string, intent llm.Intent, logger *zap.Logger) Reply {
	if cur, ok := g.Battle.Current(); ok && g.Battle.AwaitingPlayerInput && cur.IsPlayer() && cur.ID != p.ID {
		return Reply{
			Mode:   ModeCombat,
			Intent: intent,
			Halt:   combat.HaltWaitingForPlayer,
			Battle: g.Battle,
			Text:   fmt.Sprintf("[system] It is %s's turn.", cur.Name),
		}
	}

	wasActive := g.Battle.Active
	before := len(g.Battle.Log)
	state, halt := m.deps.Engine.Run(ctx, g.Battle, combat.Input{
		Text:    text,
		History: g.History(m.deps.HistoryWindow),
		Players: g.PlayerCombatants(),
	})
	g.Battle = state
	events := append([]string(nil), state.Log[before:]...)
	logger.Debug("combat advanced", zap.Stringer("halt", halt), zap.Int("events", len(events)))

	if !wasActive && state.Active {
		g.Fighters = nil
		for _, c := range state.Order {
			if c.IsPlayer() {
				g.Fighters = append(g.Fighters, c.ID)
			}
		}
	}
	if halt == combat.HaltEnded {
		m.syncFighters(g)
	}

	reply := Reply{Mode: ModeCombat, Intent: intent, Events: events, Halt: halt, Battle: state}
	switch halt {
	case combat.HaltInitFailed, combat.HaltCanceled:
		reply.Text = strings.Join(events, "\n")
	default:
		reply.Text = m.deps.Narrator.Narrate(ctx, combat.Summary(state, m.deps.HistoryWindow), g.History(m.deps.HistoryWindow))
	}
	g.AddMessage(session.RoleAssistant, reply.Text)
	return reply
}

// syncFighters writes HP back to every player who took part in the battle.
func (m *Master) syncFighters(g *session.GameState) {
	for _, id := range g.Fighters {
		for _, p := range g.Players {
			if p != nil && p.ID == id {
				p.SyncFromBattle(g.Battle.Order)
			}
		}
	}
	g.Fighters = nil
}

// storyTurn continues the narrative, resolving at most one ability check.
func (m *Master) storyTurn(ctx context.Context, g *session.GameState, p *character.Player, text string, intent llm.Intent, logger *zap.Logger) Reply {
	in := llm.StoryInput{
		History: g.History(m.deps.HistoryWindow),
		Input:   text,
		Intent:  intent,
		Party:   g.Party(),
	}
	if intent.NeedsRules() && m.deps.Rules != nil {
		in.Rules = m.deps.Rules.Context(ctx, text)
	}

	reply := Reply{Mode: ModeStory, Intent: intent, Battle: g.Battle}
	story, err := m.deps.Story.Tell(ctx, in)
	if err != nil {
		logger.Warn("story engine failed", zap.Error(err))
		reply.Text = "[system] The story pauses; the dungeon master is unavailable. Try again."
		return reply
	}

	parts := []string{story.Text}
	if story.Roll != nil {
		check := m.resolveCheck(p, *story.Roll)
		reply.Check = &check
		parts = append(parts, check.String())
		logger.Info("ability check", zap.String("check", check.String()))

		in.RollResult = check.String()
		follow, err := m.deps.Story.Tell(ctx, in)
		if err != nil {
			logger.Warn("story engine failed after check", zap.Error(err))
		} else if follow.Text != "" {
			parts = append(parts, follow.Text)
		}
	}
	reply.Text = strings.Join(parts, "\n\n")
	g.AddMessage(session.RoleAssistant, reply.Text)
	return reply
}
