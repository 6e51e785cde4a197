package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cory-johannsen/dungeonmaster/internal/game/combat"
)

// Decider asks the model which skill and target an NPC uses.
type Decider struct {
	c Completer
}

// NewDecider creates a Decider.
func NewDecider(c Completer) *Decider {
	return &Decider{c: c}
}

// DecideNPC implements combat.NPCDecider. The reply is a single sentence
// such as "Goblin uses bash on Aria".
func (d *Decider) DecideNPC(ctx context.Context, dec combat.Decision) (string, error) {
	var targets strings.Builder
	for _, t := range dec.Targets {
		fmt.Fprintf(&targets, "- %s: HP %d/%d, AC %d\n", t.Name, t.HP, t.MaxHP, t.AC)
	}
	prompt := fmt.Sprintf(npcPrompt,
		dec.Summary,
		dec.Actor.Name, dec.Actor.Faction, dec.Actor.HP, dec.Actor.MaxHP,
		strings.Join(dec.Skills, ", "),
		strings.TrimRight(targets.String(), "\n"),
		dec.Actor.Name,
	)

	reply, err := d.c.Complete(ctx, Request{
		System:    prompt,
		Messages:  []Message{{Role: RoleUser, Content: "Choose the action."}},
		MaxTokens: 64,
	})
	if err != nil {
		return "", fmt.Errorf("deciding for %s: %w", dec.Actor.Name, err)
	}
	line := firstLine(reply)
	if line == "" {
		return "", ErrEmptyCompletion
	}
	return line, nil
}
