package ruleset_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dungeonmaster/internal/game/ruleset"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestDefaultSkills_BonusTable(t *testing.T) {
	set, err := ruleset.NewSkillSet(ruleset.DefaultSkills(), ruleset.DefaultSkillName)
	require.NoError(t, err)

	want := map[string]int{
		"普通攻击": 0, "至圣斩": 10, "重击": 5, "猛击": 3, "火球术": 8, "冰霜箭": 6,
		"Holy Smite": 10, "FIREBALL": 8, "frost bolt": 6, "bash": 3, "heavy_strike": 5,
		"unknown move": 0, "": 0,
	}
	for name, bonus := range want {
		assert.Equal(t, bonus, set.Bonus(name), "skill %q", name)
	}
	assert.Equal(t, "普通攻击", set.Default())
	assert.Len(t, set.Names(), 6)
}

func TestSkillSet_RejectsDuplicateKeys(t *testing.T) {
	_, err := ruleset.NewSkillSet([]*ruleset.Skill{
		{ID: "a", Name: "Slash"},
		{ID: "b", Name: "Cut", Aliases: []string{"slash"}},
		{ID: "", Name: "Nameless"},
	}, "Slash")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slash")
	assert.Contains(t, err.Error(), "id and name are required")
}

func TestSkillSet_DefaultFallsBackToFirst(t *testing.T) {
	set, err := ruleset.NewSkillSet([]*ruleset.Skill{{ID: "jab", Name: "Jab"}}, "missing")
	require.NoError(t, err)
	assert.Equal(t, "Jab", set.Default())
}

func TestSkillSet_Available(t *testing.T) {
	set, err := ruleset.NewSkillSet(ruleset.DefaultSkills(), ruleset.DefaultSkillName)
	require.NoError(t, err)

	names := func(ss []*ruleset.Skill) []string {
		out := make([]string, len(ss))
		for i, s := range ss {
			out[i] = s.ID
		}
		return out
	}
	assert.Equal(t, []string{"basic_attack", "bash", "frost_bolt"}, names(set.Available("mage", 1)))
	assert.Equal(t, []string{"basic_attack", "bash", "frost_bolt", "fireball"}, names(set.Available("Mage", 3)))
	assert.Equal(t, []string{"basic_attack", "bash", "heavy_strike"}, names(set.Available("warrior", 1)))
}

func TestSkillSet_Property_UnknownIsZero(t *testing.T) {
	set, err := ruleset.NewSkillSet(ruleset.DefaultSkills(), ruleset.DefaultSkillName)
	require.NoError(t, err)
	rapid.Check(t, func(rt *rapid.T) {
		name := rapid.StringMatching(`zz[a-z]{1,12}`).Draw(rt, "name")
		assert.Equal(rt, 0, set.Bonus(name))
	})
}

func TestLoadSkills_ParsesYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "cleave.yaml"), `
id: cleave
name: "Cleave"
aliases: ["劈砍"]
class: warrior
min_level: 2
damage_bonus: 4
description: "A wide arcing cut."
`)
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")

	skills, err := ruleset.LoadSkills(dir)
	require.NoError(t, err)
	require.Len(t, skills, 1)
	s := skills[0]
	assert.Equal(t, "cleave", s.ID)
	assert.Equal(t, []string{"劈砍"}, s.Aliases)
	assert.Equal(t, 2, s.MinLevel)
	assert.Equal(t, 4, s.DamageBonus)
}

func TestLoadClasses_ParsesYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "paladin.yml"), `
id: paladin
name: "Paladin"
hit_points: 28
armor_class: 17
damage_dice: "1d8+2"
abilities:
  STR: 15
  CHA: 14
skills: ["普通攻击", "至圣斩"]
`)
	classes, err := ruleset.LoadClasses(dir)
	require.NoError(t, err)
	require.Len(t, classes, 1)
	c := classes[0]
	require.NoError(t, c.Validate())
	assert.Equal(t, 28, c.HitPoints)
	assert.Equal(t, 15, c.Abilities["STR"])
	assert.Equal(t, []string{"普通攻击", "至圣斩"}, c.Skills)
}

func TestLoadClasses_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bad.yaml"), "id: [unterminated")
	_, err := ruleset.LoadClasses(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing class file")
}

func TestClass_ValidateCollectsAllErrors(t *testing.T) {
	err := (&ruleset.Class{}).Validate()
	require.Error(t, err)
	for _, want := range []string{"id is required", "name is required", "hit_points", "armor_class", "damage_dice"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoadCatalog(t *testing.T) {
	cat, err := ruleset.LoadCatalog("", "")
	require.NoError(t, err)
	assert.Equal(t, 8, cat.Skills.Bonus("火球术"))
	c, ok := cat.Class("MAGE")
	require.True(t, ok)
	assert.Equal(t, "mage", c.ID)

	_, err = ruleset.LoadCatalog(filepath.Join(t.TempDir(), "missing"), "")
	assert.Error(t, err)
}
