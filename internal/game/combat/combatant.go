// Package combat implements the initiative-ordered turn-resolution engine:
// roster, initiative, routing, attack resolution, death sweep and rotation.
package combat

import (
	"fmt"
	"strings"
)

// Faction is one of the two opposing sides of a battle.
type Faction string

const (
	FactionAlly  Faction = "ally"
	FactionEnemy Faction = "enemy"
)

// Opposing returns the other faction.
//
// Postcondition: Opposing(Opposing(f)) == f for f in {FactionAlly, FactionEnemy}.
func (f Faction) Opposing() Faction {
	if f == FactionAlly {
		return FactionEnemy
	}
	return FactionAlly
}

// ParseFaction maps free-form faction labels onto a Faction. Anything that is
// not recognisably friendly is treated as an enemy.
func ParseFaction(s string) Faction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ally", "allies", "friend", "friendly", "player", "party", "友方", "我方", "队友":
		return FactionAlly
	default:
		return FactionEnemy
	}
}

// Controller says who chooses a combatant's action.
type Controller string

const (
	ControllerPlayer Controller = "player"
	ControllerNPC    Controller = "npc"
)

// Ability score keys.
const (
	STR = "STR"
	DEX = "DEX"
	CON = "CON"
	INT = "INT"
	WIS = "WIS"
	CHA = "CHA"
)

// AbilityKeys lists the six ability scores in display order.
var AbilityKeys = []string{STR, DEX, CON, INT, WIS, CHA}

// DefaultAbilityScore is used for any ability missing from a stat block.
const DefaultAbilityScore = 10

// Combatant is one participant in a battle.
//
// Combatants are values: every update produces a new Combatant that replaces
// the old one in the order.
type Combatant struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Faction     Faction        `json:"faction"`
	Controller  Controller     `json:"controller"`
	HP          int            `json:"hp"`
	MaxHP       int            `json:"max_hp"`
	AC          int            `json:"ac"`
	Stats       map[string]int `json:"stats,omitempty"`
	DamageDice  string         `json:"damage_dice"`
	Description string         `json:"description,omitempty"`
}

// IsAlive reports whether the combatant still has hit points.
//
// Postcondition: Returns true iff HP > 0.
func (c Combatant) IsAlive() bool { return c.HP > 0 }

// IsPlayer reports whether a human chooses this combatant's actions.
func (c Combatant) IsPlayer() bool { return c.Controller == ControllerPlayer }

// Ability returns the named ability score, or DefaultAbilityScore if absent.
func (c Combatant) Ability(key string) int {
	if v, ok := c.Stats[strings.ToUpper(key)]; ok {
		return v
	}
	return DefaultAbilityScore
}

// Dexterity returns the DEX score, defaulting to 10.
func (c Combatant) Dexterity() int { return c.Ability(DEX) }

// InitiativeModifier returns floor((DEX-10)/2).
func (c Combatant) InitiativeModifier() int { return AbilityMod(c.Dexterity()) }

// AttackBonus returns floor((STR-10)/2). All attacks use strength.
func (c Combatant) AttackBonus() int { return AbilityMod(c.Ability(STR)) }

// WithDamage returns a copy of c with amount subtracted from HP.
//
// Precondition: amount >= 0.
// Postcondition: result.HP == max(0, c.HP-amount); c is unchanged.
func (c Combatant) WithDamage(amount int) Combatant {
	out := c.Clone()
	out.HP -= amount
	if out.HP < 0 {
		out.HP = 0
	}
	return out
}

// Clone returns a deep copy of c.
func (c Combatant) Clone() Combatant {
	out := c
	if c.Stats != nil {
		out.Stats = make(map[string]int, len(c.Stats))
		for k, v := range c.Stats {
			out.Stats[k] = v
		}
	}
	return out
}

// AbilityMod computes the standard ability modifier using floor division: floor((score - 10) / 2).
// Postcondition: Returns floor((score - 10) / 2).
func AbilityMod(score int) int {
	diff := score - 10
	if diff < 0 {
		return (diff - 1) / 2
	}
	return diff / 2
}

// CombatantID builds the roster id for the index-th extracted character.
func CombatantID(f Faction, index int, name string) string {
	return fmt.Sprintf("%s_%d_%s", f, index, name)
}
