package combat

// Outcome is how a finished battle ended.
type Outcome string

const (
	OutcomeNone    Outcome = ""
	OutcomeVictory Outcome = "victory"
	OutcomeDefeat  Outcome = "defeat"
)

// SweepResult is the result of a death sweep.
type SweepResult struct {
	Survivors []Combatant
	Fallen    []Combatant
	Ended     bool
	Outcome   Outcome
}

// DeathSweep removes defeated combatants and reports whether either faction
// has been wiped out. Victory is checked before defeat.
//
// Postcondition: every Survivor IsAlive; Ended is true iff at least one
// faction has no survivors; Outcome is victory when no enemy survives,
// otherwise defeat when no ally survives.
func DeathSweep(order []Combatant) SweepResult {
	var res SweepResult
	allies, enemies := 0, 0
	for _, c := range order {
		if !c.IsAlive() {
			res.Fallen = append(res.Fallen, c)
			continue
		}
		res.Survivors = append(res.Survivors, c)
		switch c.Faction {
		case FactionAlly:
			allies++
		case FactionEnemy:
			enemies++
		}
	}
	switch {
	case enemies == 0:
		res.Ended, res.Outcome = true, OutcomeVictory
	case allies == 0:
		res.Ended, res.Outcome = true, OutcomeDefeat
	}
	return res
}

// Rotate moves the head of order to the tail.
//
// Postcondition: Rotate([a b c]) == [b c a]; orders shorter than two are
// returned as copies of themselves; order is never modified.
func Rotate(order []Combatant) []Combatant {
	out := make([]Combatant, len(order))
	if len(order) < 2 {
		copy(out, order)
		return out
	}
	copy(out, order[1:])
	out[len(out)-1] = order[0]
	return out
}
