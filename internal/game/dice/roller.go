package dice

// Roll evaluates an Expression using the given Source and returns a RollResult.
//
// An Expression outside the Parse bounds (Count in [1, MaxCriticalDice],
// Sides in [1, MaxSides]) rolls the zero result: no dice and no modifier.
//
// Precondition: src must be non-nil.
// Postcondition: len(result.Dice) == expr.Count for an in-bounds expr;
// result.Total() == sum(result.Dice) + result.Modifier.
func Roll(expr Expression, src Source) RollResult {
	if expr.Count < 1 || expr.Count > MaxCriticalDice || expr.Sides < 1 || expr.Sides > MaxSides {
		return RollResult{Expression: expr.Raw}
	}
	rolled := make([]int, expr.Count)
	for i := range rolled {
		rolled[i] = src.Intn(expr.Sides) + 1
	}
	return RollResult{
		Expression: expr.Raw,
		Dice:       rolled,
		Modifier:   expr.Modifier,
	}
}

// RollExpr parses expr and rolls it using src in a single call.
//
// A malformed expression yields the zero RollResult (Total() == 0) together
// with the parse error, so callers that only want a number can ignore err.
func RollExpr(expr string, src Source) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return Roll(e, src), nil
}

// RollDamage rolls a damage expression, doubling the die count when critical
// is true. The modifier is applied once.
//
// Postcondition: on success len(result.Dice) == Count (or 2*Count when critical)
// and result.Critical == critical.
func RollDamage(expr string, critical bool, src Source) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	if critical {
		e = e.Critical()
	}
	r := Roll(e, src)
	r.Critical = critical
	return r, nil
}
