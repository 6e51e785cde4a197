package dice

import "fmt"

// AttackResult is the outcome of one d20 attack roll against an armor class.
type AttackResult struct {
	Roll     int // natural d20 face
	Bonus    int
	Total    int // Roll + Bonus
	TargetAC int
	Hit      bool
	Critical bool // natural 20
	Fumble   bool // natural 1
}

// String renders the roll for the battle log, e.g. "d20=14 +2 = 16 vs AC 13".
func (a AttackResult) String() string {
	return fmt.Sprintf("d20=%d %+d = %d vs AC %d", a.Roll, a.Bonus, a.Total, a.TargetAC)
}

// AttackRoll rolls a d20 against targetAC.
//
// A natural 20 always hits and is critical; a natural 1 always misses and is a
// fumble; otherwise the attack hits iff roll+bonus >= targetAC.
//
// Precondition: src must be non-nil.
func AttackRoll(src Source, bonus, targetAC int) AttackResult {
	roll := src.Intn(20) + 1
	a := AttackResult{
		Roll:     roll,
		Bonus:    bonus,
		Total:    roll + bonus,
		TargetAC: targetAC,
	}
	switch roll {
	case 20:
		a.Hit, a.Critical = true, true
	case 1:
		a.Hit, a.Fumble = false, true
	default:
		a.Hit = a.Total >= targetAC
	}
	return a
}
