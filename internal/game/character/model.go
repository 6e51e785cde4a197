// Package character defines the player record carried across encounters and
// its conversion into a combatant.
package character

import (
	"strings"
	"time"

	"github.com/cory-johannsen/dungeonmaster/internal/game/combat"
)

// Item is an inventory entry.
type Item struct {
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	Description string `json:"description,omitempty"`
}

// Player is a player character's persistent state.
type Player struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Class       string          `json:"class"`
	Level       int             `json:"level"`
	HP          int             `json:"hp"`
	MaxHP       int             `json:"max_hp"`
	AC          int             `json:"ac"`
	Abilities   map[string]int  `json:"abilities"`
	DamageDice  string          `json:"damage_dice"`
	Skills      []string        `json:"skills,omitempty"`
	Description string          `json:"description,omitempty"`
	Inventory   []Item          `json:"inventory,omitempty"`
	PlotFlags   map[string]bool `json:"plot_flags,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// IsAlive reports whether the player has hit points left.
func (p *Player) IsAlive() bool { return p.HP > 0 }

// ToCombatant returns the player as an ally, player-controlled combatant.
//
// Postcondition: result.ID == p.ID; result.Controller == combat.ControllerPlayer.
func (p *Player) ToCombatant() combat.Combatant {
	stats := make(map[string]int, len(combat.AbilityKeys))
	for _, k := range combat.AbilityKeys {
		stats[k] = combat.DefaultAbilityScore
	}
	for k, v := range p.Abilities {
		stats[strings.ToUpper(k)] = v
	}
	return combat.Combatant{
		ID:          p.ID,
		Name:        p.Name,
		Faction:     combat.FactionAlly,
		Controller:  combat.ControllerPlayer,
		HP:          p.HP,
		MaxHP:       p.MaxHP,
		AC:          p.AC,
		Stats:       stats,
		DamageDice:  p.DamageDice,
		Description: p.Description,
	}
}

// SyncFromBattle writes the player's HP back from a finished roster. A player
// missing from the roster fell in battle and is set to 0 HP.
//
// Postcondition: 0 <= p.HP <= p.MaxHP.
func (p *Player) SyncFromBattle(order []combat.Combatant) {
	i, ok := combat.IndexByID(order, p.ID)
	if !ok {
		p.HP = 0
		return
	}
	p.HP = order[i].HP
	if p.HP > p.MaxHP {
		p.HP = p.MaxHP
	}
	if p.HP < 0 {
		p.HP = 0
	}
}

// AddItem adds qty of name to the inventory, merging with an existing stack.
//
// Precondition: qty > 0.
func (p *Player) AddItem(name string, qty int) {
	for i := range p.Inventory {
		if strings.EqualFold(p.Inventory[i].Name, name) {
			p.Inventory[i].Quantity += qty
			return
		}
	}
	p.Inventory = append(p.Inventory, Item{Name: name, Quantity: qty})
}

// SetFlag records a plot flag.
func (p *Player) SetFlag(flag string, v bool) {
	if p.PlotFlags == nil {
		p.PlotFlags = make(map[string]bool)
	}
	p.PlotFlags[flag] = v
}
