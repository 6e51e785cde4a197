package combat

import (
	"context"
	"strings"

	"github.com/cory-johannsen/dungeonmaster/internal/game/dice"
)

// Defaults applied to extracted characters with missing vitals.
const (
	DefaultHP         = 20
	DefaultAC         = 12
	DefaultDamageDice = "1d6"
)

var defaultDamage = dice.MustParse(DefaultDamageDice)

// ExtractedCharacter is a participant pulled out of the narrative by the
// character-extraction collaborator.
type ExtractedCharacter struct {
	Name        string `json:"name"`
	Faction     string `json:"faction"`
	IsPlayer    bool   `json:"is_player"`
	HP          int    `json:"hp"`
	MaxHP       int    `json:"max_hp"`
	AC          int    `json:"ac"`
	Dex         int    `json:"dex"`
	DamageDice  string `json:"damage_dice"`
	Description string `json:"description"`
}

// ToCombatant converts e into the index-th roster entry, filling defaults.
//
// Damage dice that are missing or do not parse within the dice bounds are
// replaced by DefaultDamageDice.
//
// Postcondition: result.HP > 0, result.MaxHP >= result.HP, result.DamageDice parses.
func (e ExtractedCharacter) ToCombatant(index int) Combatant {
	f := ParseFaction(e.Faction)
	hp := e.HP
	if hp <= 0 {
		hp = DefaultHP
	}
	maxHP := e.MaxHP
	if maxHP < hp {
		maxHP = hp
	}
	ac := e.AC
	if ac <= 0 {
		ac = DefaultAC
	}
	dex := e.Dex
	if dex <= 0 {
		dex = DefaultAbilityScore
	}
	dmg := strings.TrimSpace(e.DamageDice)
	if _, err := dice.Parse(dmg); err != nil {
		dmg = defaultDamage.Raw
	}
	ctrl := ControllerNPC
	if e.IsPlayer {
		ctrl = ControllerPlayer
	}
	name := strings.TrimSpace(e.Name)
	return Combatant{
		ID:         CombatantID(f, index, name),
		Name:       name,
		Faction:    f,
		Controller: ctrl,
		HP:         hp,
		MaxHP:      maxHP,
		AC:         ac,
		Stats: map[string]int{
			STR: DefaultAbilityScore,
			DEX: dex,
			CON: DefaultAbilityScore,
			INT: DefaultAbilityScore,
			WIS: DefaultAbilityScore,
			CHA: DefaultAbilityScore,
		},
		DamageDice:  dmg,
		Description: e.Description,
	}
}

// CharacterExtractor reads recent conversation turns and lists the
// characters taking part in the fight.
type CharacterExtractor interface {
	ExtractCharacters(ctx context.Context, history []string) ([]ExtractedCharacter, error)
}

// CommandParser turns free text into an attack Command. order is the current
// roster, available for name disambiguation.
type CommandParser interface {
	ParseCommand(ctx context.Context, text string, order []Combatant) (Command, error)
}

// NPCDecider produces a short imperative sentence naming a skill and a target
// for an NPC. The sentence is re-parsed by a CommandParser.
type NPCDecider interface {
	DecideNPC(ctx context.Context, d Decision) (string, error)
}

// Decision is the input handed to an NPCDecider.
type Decision struct {
	Actor   Combatant
	Targets []Combatant
	Skills  []string
	Summary string
}
