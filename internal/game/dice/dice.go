// Package dice provides the randomness abstraction, dice expressions and
// roll-result types used by the combat resolver.
package dice

import (
	"errors"
	"fmt"
)

// ErrInvalidExpression is returned (wrapped) for any malformed dice expression.
var ErrInvalidExpression = errors.New("dice: invalid expression")

// RollResult holds the full audit trail for a single dice roll evaluation.
//
// Postcondition: Total() == sum(Dice) + Modifier.
type RollResult struct {
	Expression string // original expression string, e.g. "2d6+3"
	Dice       []int  // individual die results before modifier
	Modifier   int    // flat modifier (may be negative)
	Critical   bool   // die count was doubled for a critical hit
}

// Total returns the sum of all die results plus the modifier.
//
// Postcondition: return value == sum(r.Dice) + r.Modifier.
func (r RollResult) Total() int {
	total := r.Modifier
	for _, d := range r.Dice {
		total += d
	}
	return total
}

// IsZero reports whether r is the zero-result sentinel produced for a
// malformed expression.
func (r RollResult) IsZero() bool {
	return r.Expression == "" && len(r.Dice) == 0 && r.Modifier == 0
}

// String returns a human-readable audit string in the format:
//
//	"2d6+3 → [4 5] +3 = 12"
//
// A critical roll is suffixed with " (critical)".
//
// Precondition: r.Expression is non-empty.
func (r RollResult) String() string {
	if r.Expression == "" {
		panic("dice: RollResult.String() precondition violated: Expression must be non-empty")
	}
	s := fmt.Sprintf("%s → %v %+d = %d", r.Expression, r.Dice, r.Modifier, r.Total())
	if r.Critical {
		s += " (critical)"
	}
	return s
}

// Source is the randomness provider for dice rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}
