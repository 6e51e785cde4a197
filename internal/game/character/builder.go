package character

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/dungeonmaster/internal/game/combat"
	"github.com/cory-johannsen/dungeonmaster/internal/game/ruleset"
)

// Build constructs a new level 1 Player of the given class. HP is the class
// hit points plus the CON modifier, at least 1.
//
// Precondition: name must be non-empty; class must be non-nil.
// Postcondition: Returns a Player at full HP with a fresh id, or a non-nil error.
func Build(name string, class *ruleset.Class) (*Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("character name must not be empty")
	}
	if class == nil {
		return nil, errors.New("class must not be nil")
	}

	abilities := make(map[string]int, len(combat.AbilityKeys))
	for _, k := range combat.AbilityKeys {
		abilities[k] = combat.DefaultAbilityScore
	}
	for k, v := range class.Abilities {
		abilities[strings.ToUpper(k)] = v
	}

	maxHP := class.HitPoints + combat.AbilityMod(abilities[combat.CON])
	if maxHP < 1 {
		maxHP = 1
	}
	skills := make([]string, len(class.Skills))
	copy(skills, class.Skills)

	return &Player{
		ID:         uuid.NewString(),
		Name:       name,
		Class:      class.ID,
		Level:      1,
		HP:         maxHP,
		MaxHP:      maxHP,
		AC:         class.ArmorClass,
		Abilities:  abilities,
		DamageDice: class.DamageDice,
		Skills:     skills,
		CreatedAt:  time.Now().UTC(),
	}, nil
}
