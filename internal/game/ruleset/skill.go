package ruleset

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultSkillName is the skill used when an attack names none.
const DefaultSkillName = "普通攻击"

// Skill is an attack technique with a flat damage bonus.
//
// Precondition: ID and Name must be non-empty after loading.
type Skill struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Aliases     []string `yaml:"aliases"`
	Class       string   `yaml:"class"`
	MinLevel    int      `yaml:"min_level"`
	DamageBonus int      `yaml:"damage_bonus"`
	Description string   `yaml:"description"`
}

// DefaultSkills returns the built-in skill table.
func DefaultSkills() []*Skill {
	return []*Skill{
		{ID: "basic_attack", Name: "普通攻击", Aliases: []string{"basic attack", "attack", "strike"}, DamageBonus: 0, Description: "A plain weapon attack."},
		{ID: "holy_smite", Name: "至圣斩", Aliases: []string{"holy smite", "smite"}, Class: "paladin", MinLevel: 3, DamageBonus: 10, Description: "A blow charged with radiant power."},
		{ID: "heavy_strike", Name: "重击", Aliases: []string{"heavy strike"}, Class: "warrior", DamageBonus: 5, Description: "A slow, crushing swing."},
		{ID: "bash", Name: "猛击", Aliases: []string{"bash"}, DamageBonus: 3, Description: "A shield or pommel bash."},
		{ID: "fireball", Name: "火球术", Aliases: []string{"fireball"}, Class: "mage", MinLevel: 3, DamageBonus: 8, Description: "An exploding sphere of flame."},
		{ID: "frost_bolt", Name: "冰霜箭", Aliases: []string{"frost bolt", "frostbolt"}, Class: "mage", DamageBonus: 6, Description: "A shard of conjured ice."},
	}
}

// LoadSkills reads all .yaml files in dir and parses each as a Skill.
//
// Precondition: dir must be a readable directory path.
// Postcondition: Returns all parsed skills (may be empty slice) or a non-nil error.
func LoadSkills(dir string) ([]*Skill, error) {
	return loadAll[Skill](dir, "skill")
}

// SkillSet indexes skills by lowercase name, alias and id.
type SkillSet struct {
	skills []*Skill
	index  map[string]*Skill
	def    string
}

// NewSkillSet builds a SkillSet. defaultName must resolve to one of skills
// when skills is non-empty.
//
// Postcondition: Returns an error if any skill lacks an id or name, or two
// skills share a key.
func NewSkillSet(skills []*Skill, defaultName string) (*SkillSet, error) {
	s := &SkillSet{index: make(map[string]*Skill)}
	var errs []string
	for _, sk := range skills {
		if sk.ID == "" || sk.Name == "" {
			errs = append(errs, fmt.Sprintf("skill %q: id and name are required", sk.ID+sk.Name))
			continue
		}
		keys := append([]string{sk.ID, sk.Name}, sk.Aliases...)
		for _, k := range keys {
			key := skillKey(k)
			if key == "" {
				continue
			}
			if prev, ok := s.index[key]; ok && prev != sk {
				errs = append(errs, fmt.Sprintf("skill key %q used by both %s and %s", k, prev.ID, sk.ID))
				continue
			}
			s.index[key] = sk
		}
		s.skills = append(s.skills, sk)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid skills: %s", strings.Join(errs, "; "))
	}
	if len(s.skills) > 0 {
		d, ok := s.index[skillKey(defaultName)]
		if !ok {
			d = s.skills[0]
		}
		s.def = d.Name
	}
	return s, nil
}

func skillKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Lookup finds a skill by name, alias or id, case-insensitively.
func (s *SkillSet) Lookup(name string) (*Skill, bool) {
	sk, ok := s.index[skillKey(name)]
	return sk, ok
}

// Bonus returns the flat damage bonus for name, 0 for unknown skills.
func (s *SkillSet) Bonus(name string) int {
	if sk, ok := s.Lookup(name); ok {
		return sk.DamageBonus
	}
	return 0
}

// Names returns every skill's display name in definition order.
func (s *SkillSet) Names() []string {
	out := make([]string, len(s.skills))
	for i, sk := range s.skills {
		out[i] = sk.Name
	}
	return out
}

// Default returns the default skill's display name.
func (s *SkillSet) Default() string { return s.def }

// Available lists the skills a character of class at level may use, sorted by bonus.
func (s *SkillSet) Available(class string, level int) []*Skill {
	var out []*Skill
	for _, sk := range s.skills {
		if sk.Class != "" && !strings.EqualFold(sk.Class, class) {
			continue
		}
		if level < sk.MinLevel {
			continue
		}
		out = append(out, sk)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DamageBonus < out[j].DamageBonus })
	return out
}
