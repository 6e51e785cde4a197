package ruleset

import (
	"errors"
	"fmt"
	"strings"
)

// Class defines a playable character class: starting vitals, ability scores
// and damage dice for a new player record.
//
// Precondition: ID, Name and DamageDice must be non-empty; HitPoints and
// ArmorClass must be positive.
type Class struct {
	ID          string         `yaml:"id"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	HitPoints   int            `yaml:"hit_points"`
	ArmorClass  int            `yaml:"armor_class"`
	DamageDice  string         `yaml:"damage_dice"`
	Abilities   map[string]int `yaml:"abilities"`
	Skills      []string       `yaml:"skills"`
}

// Validate reports every missing or invalid field.
func (c *Class) Validate() error {
	var errs []string
	if c.ID == "" {
		errs = append(errs, "id is required")
	}
	if c.Name == "" {
		errs = append(errs, "name is required")
	}
	if c.HitPoints <= 0 {
		errs = append(errs, "hit_points must be positive")
	}
	if c.ArmorClass <= 0 {
		errs = append(errs, "armor_class must be positive")
	}
	if strings.TrimSpace(c.DamageDice) == "" {
		errs = append(errs, "damage_dice is required")
	}
	if len(errs) > 0 {
		return fmt.Errorf("class %q: %w", c.ID, errors.New(strings.Join(errs, "; ")))
	}
	return nil
}

// DefaultClasses returns the built-in classes.
func DefaultClasses() []*Class {
	return []*Class{
		{
			ID: "warrior", Name: "Warrior", Description: "A front-line fighter.",
			HitPoints: 30, ArmorClass: 16, DamageDice: "1d10+2",
			Abilities: map[string]int{"STR": 16, "DEX": 12, "CON": 14, "INT": 8, "WIS": 10, "CHA": 10},
			Skills:    []string{"普通攻击", "重击", "猛击"},
		},
		{
			ID: "mage", Name: "Mage", Description: "A scholar of destructive magic.",
			HitPoints: 18, ArmorClass: 12, DamageDice: "1d6",
			Abilities: map[string]int{"STR": 8, "DEX": 14, "CON": 10, "INT": 16, "WIS": 12, "CHA": 10},
			Skills:    []string{"普通攻击", "冰霜箭", "火球术"},
		},
		{
			ID: "rogue", Name: "Rogue", Description: "A quick and cunning skirmisher.",
			HitPoints: 22, ArmorClass: 14, DamageDice: "1d8+1",
			Abilities: map[string]int{"STR": 10, "DEX": 17, "CON": 12, "INT": 12, "WIS": 10, "CHA": 12},
			Skills:    []string{"普通攻击", "猛击"},
		},
	}
}

// LoadClasses reads all .yaml files in dir and parses each as a Class.
//
// Precondition: dir must be a readable directory path.
// Postcondition: Returns all parsed classes (may be empty slice) or a non-nil error.
func LoadClasses(dir string) ([]*Class, error) {
	return loadAll[Class](dir, "class")
}
