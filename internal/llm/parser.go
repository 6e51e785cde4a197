package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeonmaster/internal/game/combat"
)

// CommandParser parses combat commands with the deterministic pattern
// parser first and falls back to the model for free-form text.
type CommandParser struct {
	c      Completer
	logger *zap.Logger
}

// NewCommandParser creates a CommandParser.
//
// Precondition: c and logger must be non-nil.
func NewCommandParser(c Completer, logger *zap.Logger) *CommandParser {
	return &CommandParser{c: c, logger: logger}
}

type combatIntent struct {
	Success  bool   `json:"success"`
	Attacker string `json:"attacker"`
	Defender string `json:"defender"`
	Skill    string `json:"skill"`
	Error    *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseCommand implements combat.CommandParser.
//
// Postcondition: on failure the error wraps combat.ErrMalformedCommand.
func (p *CommandParser) ParseCommand(ctx context.Context, text string, order []combat.Combatant) (combat.Command, error) {
	cmd, patternErr := combat.ParsePattern(text)
	if patternErr == nil {
		return cmd, nil
	}

	names := make([]string, 0, len(order))
	for _, c := range order {
		names = append(names, c.Name)
	}
	prompt := fmt.Sprintf("Combatants: %s\nInput: %s", strings.Join(names, ", "), text)
	reply, err := p.c.Complete(ctx, UserTurn(commandPrompt, prompt))
	if err != nil {
		if !errors.Is(err, ErrDisabled) {
			p.logger.Warn("llm command parse failed", zap.Error(err))
		}
		return combat.Command{}, patternErr
	}

	var intent combatIntent
	if err := DecodeJSON(reply, &intent); err != nil {
		return combat.Command{}, fmt.Errorf("%w: %v", combat.ErrMalformedCommand, err)
	}
	if !intent.Success {
		msg := "not a combat command"
		if intent.Error != nil && intent.Error.Message != "" {
			msg = intent.Error.Message
		}
		return combat.Command{}, fmt.Errorf("%w: %s", combat.ErrMalformedCommand, msg)
	}
	return combat.Command{Attacker: intent.Attacker, Defender: intent.Defender, Skill: intent.Skill}.Normalize()
}
