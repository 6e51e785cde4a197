package combat

// SkillBook is the flat damage-bonus lookup keyed by skill name.
type SkillBook interface {
	// Bonus returns the flat damage bonus for skill, 0 if unknown.
	Bonus(skill string) int
	// Names lists the skills an NPC may choose from.
	Names() []string
	// Default is the skill used when a command names none.
	Default() string
}
