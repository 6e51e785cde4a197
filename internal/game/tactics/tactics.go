// Package tactics provides NPC decision makers that do not need the LLM:
// Lua tactic scripts and an ordered fallback chain.
package tactics

import (
	"context"
	"errors"
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeonmaster/internal/game/combat"
	"github.com/cory-johannsen/dungeonmaster/internal/scripting"
)

// ErrNoDecision is returned when a decider has nothing to say for an actor.
var ErrNoDecision = errors.New("tactics: no decision")

// DecideFunc is the Lua global a tactics script must define:
//
//	function decide(actor, targets, skills, summary) -> sentence | {skill=, target=} | nil
const DecideFunc = "decide"

// ScriptDecider asks a Lua tactics script what an NPC does.
type ScriptDecider struct {
	mgr    *scripting.Manager
	vm     string
	logger *zap.Logger
}

// NewScriptDecider creates a decider calling DecideFunc in VM vm of mgr.
//
// Precondition: mgr and logger must be non-nil.
func NewScriptDecider(mgr *scripting.Manager, vm string, logger *zap.Logger) *ScriptDecider {
	return &ScriptDecider{mgr: mgr, vm: vm, logger: logger}
}

// DecideNPC implements combat.NPCDecider.
func (d *ScriptDecider) DecideNPC(ctx context.Context, dec combat.Decision) (string, error) {
	if !d.mgr.Has(d.vm, DecideFunc) {
		return "", fmt.Errorf("%w: vm %q defines no %s()", ErrNoDecision, d.vm, DecideFunc)
	}
	ret, err := d.mgr.Call(ctx, d.vm, DecideFunc, func(L *lua.LState) []lua.LValue {
		targets := L.NewTable()
		for _, t := range dec.Targets {
			targets.Append(combatantTable(L, t))
		}
		skills := L.NewTable()
		for _, s := range dec.Skills {
			skills.Append(lua.LString(s))
		}
		return []lua.LValue{combatantTable(L, dec.Actor), targets, skills, lua.LString(dec.Summary)}
	})
	if err != nil {
		return "", err
	}

	switch v := ret.(type) {
	case lua.LString:
		if s := strings.TrimSpace(string(v)); s != "" {
			return s, nil
		}
	case *lua.LTable:
		target := strings.TrimSpace(lua.LVAsString(v.RawGetString("target")))
		skill := strings.TrimSpace(lua.LVAsString(v.RawGetString("skill")))
		if target != "" {
			if skill == "" {
				return fmt.Sprintf("%s attacks %s", dec.Actor.Name, target), nil
			}
			return fmt.Sprintf("%s uses %s on %s", dec.Actor.Name, skill, target), nil
		}
	}
	d.logger.Debug("tactics script made no decision", zap.String("actor", dec.Actor.ID))
	return "", ErrNoDecision
}

func combatantTable(L *lua.LState, c combat.Combatant) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "id", lua.LString(c.ID))
	L.SetField(t, "name", lua.LString(c.Name))
	L.SetField(t, "faction", lua.LString(c.Faction))
	L.SetField(t, "hp", lua.LNumber(c.HP))
	L.SetField(t, "max_hp", lua.LNumber(c.MaxHP))
	L.SetField(t, "ac", lua.LNumber(c.AC))
	L.SetField(t, "damage_dice", lua.LString(c.DamageDice))
	stats := L.NewTable()
	for _, k := range combat.AbilityKeys {
		L.SetField(stats, k, lua.LNumber(c.Ability(k)))
	}
	L.SetField(t, "stats", stats)
	return t
}

// Chain tries each decider in order and returns the first decision.
type Chain struct {
	deciders []combat.NPCDecider
	logger   *zap.Logger
}

// NewChain creates a Chain over deciders; nil entries are skipped.
func NewChain(logger *zap.Logger, deciders ...combat.NPCDecider) *Chain {
	c := &Chain{logger: logger}
	for _, d := range deciders {
		if d != nil {
			c.deciders = append(c.deciders, d)
		}
	}
	return c
}

// DecideNPC implements combat.NPCDecider. It returns the joined errors of
// every decider when none produced a decision.
func (c *Chain) DecideNPC(ctx context.Context, dec combat.Decision) (string, error) {
	var errs []error
	for i, d := range c.deciders {
		s, err := d.DecideNPC(ctx, dec)
		if err == nil {
			return s, nil
		}
		c.logger.Debug("npc decider failed, trying next",
			zap.Int("position", i), zap.String("actor", dec.Actor.ID), zap.Error(err))
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return "", ErrNoDecision
	}
	return "", errors.Join(errs...)
}
