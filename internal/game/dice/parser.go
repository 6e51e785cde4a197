package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// Bounds of the dice grammar. Expressions come from model replies and
// scripts, so anything larger is rejected rather than rolled.
const (
	MaxDice     = 100
	MaxSides    = 1000
	MaxModifier = 1000
	// MaxCriticalDice is the largest die count Roll accepts: MaxDice doubled.
	MaxCriticalDice = 2 * MaxDice
)

// Expression represents a parsed dice expression ready to be rolled.
// Precondition: 1 <= Count <= MaxDice, 1 <= Sides <= MaxSides after successful Parse.
type Expression struct {
	Raw      string // original input string
	Count    int    // number of dice
	Sides    int    // faces per die
	Modifier int    // flat modifier (may be negative)
}

// Critical returns a copy of e with the die count doubled. The modifier is
// not doubled. A count above MaxDice is capped first.
//
// Postcondition: result.Count == 2*min(e.Count, MaxDice) <= MaxCriticalDice;
// result.Modifier == e.Modifier.
func (e Expression) Critical() Expression {
	if e.Count > MaxDice {
		e.Count = MaxDice
	}
	e.Count *= 2
	return e
}

// Parse parses a dice expression string into an Expression.
// Grammar: [count] "d" sides [("+"|"-") modifier]. Count defaults to 1 and
// may not exceed MaxDice; sides may not exceed MaxSides; |modifier| may not
// exceed MaxModifier.
// Supported forms: "d20", "1d20", "2d6", "2d6+3", "4d8-2", "d100".
// Whitespace inside the expression is ignored ("1d8 + 2" == "1d8+2").
//
// Postcondition: Returns an Expression or an error wrapping ErrInvalidExpression.
func Parse(expr string) (Expression, error) {
	raw := strings.TrimSpace(expr)
	s := strings.ToLower(strings.Join(strings.Fields(raw), ""))
	if s == "" {
		return Expression{}, fmt.Errorf("%w: empty expression", ErrInvalidExpression)
	}

	dIdx := strings.IndexByte(s, 'd')
	if dIdx < 0 {
		return Expression{}, fmt.Errorf("%w: missing 'd' in %q", ErrInvalidExpression, raw)
	}

	count := 1
	if countStr := s[:dIdx]; countStr != "" {
		n, err := strconv.Atoi(countStr)
		if err != nil || n < 1 || strings.ContainsAny(countStr, "+-") {
			return Expression{}, fmt.Errorf("%w: invalid die count in %q", ErrInvalidExpression, raw)
		}
		if n > MaxDice {
			return Expression{}, fmt.Errorf("%w: die count %d in %q exceeds %d", ErrInvalidExpression, n, raw, MaxDice)
		}
		count = n
	}

	rest := s[dIdx+1:]
	modIdx := strings.IndexAny(rest, "+-")
	sidesStr, modStr := rest, ""
	if modIdx >= 0 {
		sidesStr, modStr = rest[:modIdx], rest[modIdx:]
	}

	sides, err := strconv.Atoi(sidesStr)
	if err != nil || sides < 1 {
		return Expression{}, fmt.Errorf("%w: invalid die sides in %q", ErrInvalidExpression, raw)
	}
	if sides > MaxSides {
		return Expression{}, fmt.Errorf("%w: die sides %d in %q exceed %d", ErrInvalidExpression, sides, raw, MaxSides)
	}

	modifier := 0
	if modStr != "" {
		// strconv accepts "+3" and "-2"; a bare sign or a second sign is rejected.
		modifier, err = strconv.Atoi(modStr)
		if err != nil || len(modStr) < 2 {
			return Expression{}, fmt.Errorf("%w: invalid modifier in %q", ErrInvalidExpression, raw)
		}
		if modifier > MaxModifier || modifier < -MaxModifier {
			return Expression{}, fmt.Errorf("%w: modifier %d in %q exceeds %d", ErrInvalidExpression, modifier, raw, MaxModifier)
		}
	}

	return Expression{
		Raw:      raw,
		Count:    count,
		Sides:    sides,
		Modifier: modifier,
	}, nil
}

// MustParse parses expr and panics on error. Useful for package-level constants.
//
// Precondition: expr must be a valid dice expression.
func MustParse(expr string) Expression {
	e, err := Parse(expr)
	if err != nil {
		panic("dice: MustParse failed for expression " + expr + ": " + err.Error())
	}
	return e
}
