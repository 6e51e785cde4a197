package combat

import (
	"sort"

	"github.com/cory-johannsen/dungeonmaster/internal/game/dice"
)

// InitiativeRoll records one combatant's initiative check.
type InitiativeRoll struct {
	CombatantID string
	Name        string
	Roll        int // natural d20
	Modifier    int // DEX modifier
	Total       int
}

// SortByInitiative rolls 1d20 + floor((DEX-10)/2) for every combatant and
// returns a new order sorted by total, highest first. Ties keep input order.
//
// Precondition: src must be non-nil.
// Postcondition: len(result) == len(cs); rolls[i] belongs to result[i]; cs is unchanged.
func SortByInitiative(cs []Combatant, src dice.Source) ([]Combatant, []InitiativeRoll) {
	type entry struct {
		c    Combatant
		roll InitiativeRoll
	}
	entries := make([]entry, len(cs))
	for i, c := range cs {
		d20 := src.Intn(20) + 1
		mod := c.InitiativeModifier()
		entries[i] = entry{
			c: c.Clone(),
			roll: InitiativeRoll{
				CombatantID: c.ID,
				Name:        c.Name,
				Roll:        d20,
				Modifier:    mod,
				Total:       d20 + mod,
			},
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].roll.Total > entries[j].roll.Total
	})

	order := make([]Combatant, len(entries))
	rolls := make([]InitiativeRoll, len(entries))
	for i, e := range entries {
		order[i] = e.c
		rolls[i] = e.roll
	}
	return order, rolls
}
