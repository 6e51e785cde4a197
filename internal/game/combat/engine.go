package combat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeonmaster/internal/game/dice"
)

// Halt says why Run returned.
type Halt int

const (
	// HaltWaitingForPlayer: a player-controlled combatant is at the head and
	// the state awaits their input.
	HaltWaitingForPlayer Halt = iota
	// HaltEnded: one faction has been wiped out.
	HaltEnded
	// HaltTurnCap: the NPC turn cap for one invocation was reached.
	HaltTurnCap
	// HaltInitFailed: no battle could be started.
	HaltInitFailed
	// HaltCanceled: the context was canceled between turns.
	HaltCanceled
)

// String returns the halt reason.
func (h Halt) String() string {
	switch h {
	case HaltWaitingForPlayer:
		return "waiting_for_player"
	case HaltEnded:
		return "ended"
	case HaltTurnCap:
		return "turn_cap"
	case HaltInitFailed:
		return "init_failed"
	case HaltCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// EngineConfig bounds one Run invocation.
type EngineConfig struct {
	// MaxNPCTurns caps the NPC turns resolved in one invocation.
	MaxNPCTurns int
	// HistoryWindow is how many log lines summaries include.
	HistoryWindow int
}

// Collaborators are the external capabilities the engine consults.
// Extractor and Parser are required; a nil Decider means NPCs always attack
// the nearest opponent with the default skill.
type Collaborators struct {
	Extractor CharacterExtractor
	Parser    CommandParser
	Decider   NPCDecider
}

// Input is one invocation's external input.
type Input struct {
	// Text is the player's free-text action, if any.
	Text string
	// History is the recent conversation, used only to initialize.
	History []string
	// Players are the session's player characters, merged into the roster at init.
	Players []Combatant
}

// Engine drives the battle loop for one session state at a time. It holds
// no per-session state and is safe for concurrent use across sessions.
type Engine struct {
	cfg      EngineConfig
	resolver *Resolver
	src      dice.Source
	collab   Collaborators
	logger   *zap.Logger
}

// NewEngine creates an Engine.
//
// Precondition: resolver, src, collab.Extractor, collab.Parser and logger must be non-nil.
func NewEngine(cfg EngineConfig, resolver *Resolver, src dice.Source, collab Collaborators, logger *zap.Logger) *Engine {
	if cfg.MaxNPCTurns <= 0 {
		cfg.MaxNPCTurns = 100
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 5
	}
	return &Engine{cfg: cfg, resolver: resolver, src: src, collab: collab, logger: logger}
}

// Initialize builds the roster and sorts it by initiative.
//
// It is a no-op when s.Order is already populated. On failure the battle
// stays inactive and the reason is appended to the log.
//
// Postcondition: on success result.Active, result.Round == 1 and the order is
// initiative-sorted.
func (e *Engine) Initialize(ctx context.Context, s State, history []string, players []Combatant) State {
	if len(s.Order) > 0 {
		e.logger.Debug("combat already initialized", zap.Int("combatants", len(s.Order)))
		return s
	}

	extracted, err := e.collab.Extractor.ExtractCharacters(ctx, history)
	if err != nil {
		e.logger.Warn("character extraction failed", zap.Error(err))
		return s.Apply(Patch{
			Active: Ptr(false),
			Log:    []string{fmt.Sprintf("[system] Could not start combat: %v", err)},
		})
	}

	roster := make([]Combatant, 0, len(extracted))
	for i, x := range extracted {
		if strings.TrimSpace(x.Name) == "" {
			continue
		}
		roster = append(roster, x.ToCombatant(i))
	}
	roster = MergePlayers(roster, players)
	if len(roster) == 0 {
		return s.Apply(Patch{
			Active: Ptr(false),
			Log:    []string{"[system] Could not start combat: no combatants found."},
		})
	}

	order, rolls := SortByInitiative(roster, e.src)
	lines := []string{"===== Combat begins =====", "Initiative order:"}
	for i, r := range rolls {
		lines = append(lines, fmt.Sprintf("  %d. %s [%s] initiative %d (d20=%d %+d)",
			i+1, order[i].Name, order[i].Faction, r.Total, r.Roll, r.Modifier))
	}
	lines = append(lines, "----- Round 1 -----")

	e.logger.Info("combat initialized", zap.Int("combatants", len(order)))
	return s.Apply(Patch{
		Order:          &order,
		Active:         Ptr(true),
		Round:          Ptr(1),
		TurnsThisRound: Ptr(0),
		Awaiting:       Ptr(false),
		Pending:        Ptr(""),
		ClearCommand:   true,
		Result:         Ptr(OutcomeNone),
		Log:            lines,
	})
}

// Run advances the battle until it must wait for a player, ends, hits the
// NPC turn cap or fails to start.
//
// If the state is awaiting player input and in.Text is non-empty, the text
// becomes the pending action. Awaiting with no input halts without
// re-prompting.
func (e *Engine) Run(ctx context.Context, s State, in Input) (State, Halt) {
	if s.AwaitingPlayerInput && strings.TrimSpace(in.Text) != "" {
		s = s.Apply(Patch{Pending: Ptr(strings.TrimSpace(in.Text))})
	}

	npcTurns := 0
	initTried := false
	for {
		if err := ctx.Err(); err != nil {
			e.logger.Debug("combat run canceled", zap.Error(err))
			return s, HaltCanceled
		}

		step := Route(s)
		e.logger.Debug("combat route", zap.Stringer("step", step), zap.Int("round", s.Round))

		switch step {
		case StepEnded:
			return s, HaltEnded

		case StepNeedsInit:
			if initTried {
				return s, HaltInitFailed
			}
			initTried = true
			s = e.Initialize(ctx, s, in.History, in.Players)
			if !s.Active {
				return s, HaltInitFailed
			}
			continue

		case StepWaitForPlayer:
			cur, _ := s.Current()
			s = s.Apply(Patch{
				Awaiting: Ptr(true),
				Log:      []string{fmt.Sprintf("[system] %s's turn. Waiting for an action.", cur.Name)},
			})
			return s, HaltWaitingForPlayer

		case StepPlayerActionReady:
			if s.PendingAction == "" {
				return s, HaltWaitingForPlayer
			}
			var ok bool
			s, ok = e.playerTurn(ctx, s)
			if !ok {
				return s, HaltWaitingForPlayer
			}

		case StepNPCDecide:
			if npcTurns >= e.cfg.MaxNPCTurns {
				e.logger.Warn("npc turn cap reached", zap.Int("cap", e.cfg.MaxNPCTurns))
				return s, HaltTurnCap
			}
			npcTurns++
			s = e.npcTurn(ctx, s)
		}

		var ended bool
		s, ended = e.advance(s)
		if ended {
			return s, HaltEnded
		}
	}
}

// playerTurn resolves the pending action of the player at the head. It
// returns false when the action could not be resolved; the player keeps the
// turn and may retry.
func (e *Engine) playerTurn(ctx context.Context, s State) (State, bool) {
	actor, _ := s.Current()
	text := s.PendingAction

	cmd, err := e.collab.Parser.ParseCommand(ctx, text, s.Order)
	if err != nil {
		e.logger.Debug("player command rejected", zap.String("text", text), zap.Error(err))
		return s.Apply(Patch{
			Pending:  Ptr(""),
			Awaiting: Ptr(true),
			Log: []string{
				fmt.Sprintf("[system] Could not understand %q. Try \"attack <target>\" or \"use <skill> on <target>\".", text),
			},
		}), false
	}

	if cmd.Attacker != "" {
		if i, ok := FindByName(s.Order, cmd.Attacker); ok && s.Order[i].ID != actor.ID {
			return s.Apply(Patch{
				Pending:  Ptr(""),
				Awaiting: Ptr(true),
				Command:  &cmd,
				Log:      []string{fmt.Sprintf("[system] It is %s's turn, not %s's.", actor.Name, s.Order[i].Name)},
			}), false
		}
	}

	res := e.resolver.Resolve(s.Order, Request{AttackerID: actor.ID, Defender: cmd.Defender, Skill: cmd.Skill})
	if res.Err != nil {
		return s.Apply(Patch{
			Pending:  Ptr(""),
			Awaiting: Ptr(true),
			Command:  &cmd,
			Log:      res.Lines,
		}), false
	}

	return s.Apply(Patch{
		Order:        &res.Order,
		Pending:      Ptr(""),
		Awaiting:     Ptr(false),
		ClearCommand: true,
		Log:          res.Lines,
	}), true
}

// npcTurn decides and resolves the head NPC's action. Any collaborator
// failure falls back to attacking the nearest opponent.
func (e *Engine) npcTurn(ctx context.Context, s State) State {
	actor, ok := s.Current()
	if !ok {
		return s
	}
	targets := Living(s.Order, actor.Faction.Opposing())
	if len(targets) == 0 {
		return s.Apply(Patch{Log: []string{fmt.Sprintf("[system] %s has no one to attack and waits.", actor.Name)}})
	}

	cmd := e.decide(ctx, s, actor, targets)
	res := e.resolver.Resolve(s.Order, Request{AttackerID: actor.ID, Defender: cmd.Defender, Skill: cmd.Skill})
	if errors.Is(res.Err, ErrActorNotFound) && cmd.Defender != "" {
		e.logger.Debug("npc target unresolved, attacking nearest",
			zap.String("actor", actor.ID), zap.String("defender", cmd.Defender))
		res = e.resolver.Resolve(s.Order, Request{AttackerID: actor.ID, Skill: cmd.Skill})
	}
	if res.Err != nil {
		return s.Apply(Patch{Log: res.Lines})
	}
	return s.Apply(Patch{Order: &res.Order, Log: res.Lines})
}

func (e *Engine) decide(ctx context.Context, s State, actor Combatant, targets []Combatant) Command {
	if e.collab.Decider == nil {
		return Command{}
	}
	sentence, err := e.collab.Decider.DecideNPC(ctx, Decision{
		Actor:   actor,
		Targets: targets,
		Skills:  e.resolver.Skills().Names(),
		Summary: Summary(s, e.cfg.HistoryWindow),
	})
	if err != nil {
		e.logger.Warn("npc decision failed, attacking nearest", zap.String("actor", actor.ID), zap.Error(err))
		return Command{}
	}
	cmd, err := e.collab.Parser.ParseCommand(ctx, sentence, s.Order)
	if err != nil {
		e.logger.Warn("npc decision unparseable, attacking nearest",
			zap.String("actor", actor.ID), zap.String("sentence", sentence), zap.Error(err))
		return Command{}
	}
	return cmd
}

// advance runs the death sweep and, if the battle continues, rotates the
// order and updates the advisory round counter.
func (e *Engine) advance(s State) (State, bool) {
	sweep := DeathSweep(s.Order)
	var lines []string
	for _, c := range sweep.Fallen {
		lines = append(lines, fmt.Sprintf("[system] %s is removed from the battle.", c.Name))
	}

	if sweep.Ended {
		lines = append(lines, fmt.Sprintf("===== Combat ends: %s =====", sweep.Outcome))
		e.logger.Info("combat ended", zap.String("result", string(sweep.Outcome)), zap.Int("round", s.Round))
		return s.Apply(Patch{
			Order:    &sweep.Survivors,
			Active:   Ptr(false),
			Awaiting: Ptr(false),
			Pending:  Ptr(""),
			Result:   Ptr(sweep.Outcome),
			Log:      lines,
		}), true
	}

	order := Rotate(sweep.Survivors)
	round, turns := s.Round, s.TurnsThisRound+1
	if turns >= len(order) {
		round++
		turns = 0
		lines = append(lines, fmt.Sprintf("----- Round %d -----", round))
	}
	return s.Apply(Patch{
		Order:          &order,
		Round:          &round,
		TurnsThisRound: &turns,
		Log:            lines,
	}), false
}
