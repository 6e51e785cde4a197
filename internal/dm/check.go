package dm

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeonmaster/internal/game/character"
	"github.com/cory-johannsen/dungeonmaster/internal/game/combat"
	"github.com/cory-johannsen/dungeonmaster/internal/llm"
)

// Check is a resolved ability check.
type Check struct {
	Skill    string
	Ability  string
	DC       int
	Roll     int
	Modifier int
	Total    int
	Success  bool
}

// String renders the check for the player and for the story prompt.
func (c Check) String() string {
	outcome := "failure"
	if c.Success {
		outcome = "success"
	}
	label := c.Ability
	if c.Skill != "" {
		label = fmt.Sprintf("%s (%s)", c.Skill, c.Ability)
	}
	return fmt.Sprintf("%s check: d20=%d %+d = %d vs DC %d, %s",
		label, c.Roll, c.Modifier, c.Total, c.DC, outcome)
}

var skillAbilities = map[string]string{
	"athletics":       combat.STR,
	"acrobatics":      combat.DEX,
	"sleight of hand": combat.DEX,
	"stealth":         combat.DEX,
	"arcana":          combat.INT,
	"history":         combat.INT,
	"investigation":   combat.INT,
	"nature":          combat.INT,
	"religion":        combat.INT,
	"animal handling": combat.WIS,
	"insight":         combat.WIS,
	"medicine":        combat.WIS,
	"perception":      combat.WIS,
	"survival":        combat.WIS,
	"deception":       combat.CHA,
	"intimidation":    combat.CHA,
	"performance":     combat.CHA,
	"persuasion":      combat.CHA,
}

// abilityFor names the ability a check uses: the requested ability when it
// is recognisable ("dex", "Dexterity"), else the skill's ability, else DEX.
func abilityFor(req llm.RollRequest) string {
	a := strings.ToUpper(strings.TrimSpace(req.Ability))
	if len(a) >= 3 {
		for _, k := range combat.AbilityKeys {
			if a[:3] == k {
				return k
			}
		}
	}
	if k, ok := skillAbilities[strings.ToLower(strings.TrimSpace(req.Skill))]; ok {
		return k
	}
	return combat.DEX
}

// resolveCheck rolls d20 plus the player's ability modifier against the DC.
func (m *Master) resolveCheck(p *character.Player, req llm.RollRequest) Check {
	ability := abilityFor(req)
	score := combat.DefaultAbilityScore
	for k, v := range p.Abilities {
		if strings.EqualFold(k, ability) {
			score = v
		}
	}
	mod := combat.AbilityMod(score)
	roll, err := m.deps.Roller.RollExpr("1d20")
	if err != nil {
		m.logger.Error("rolling ability check", zap.Error(err))
	}
	total := roll.Total() + mod
	return Check{
		Skill:    strings.TrimSpace(req.Skill),
		Ability:  ability,
		DC:       req.DC,
		Roll:     roll.Total(),
		Modifier: mod,
		Total:    total,
		Success:  total >= req.DC,
	}
}
