package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger to provide logged dice rolling.
// All rolls are logged at debug level with expression, dice values, modifier, and total.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs each roll to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Source returns the underlying randomness source.
func (r *Roller) Source() Source {
	return r.src
}

func (r *Roller) log(result RollResult) {
	r.logger.Debug("dice roll",
		zap.String("expression", result.Expression),
		zap.Ints("dice", result.Dice),
		zap.Int("modifier", result.Modifier),
		zap.Int("total", result.Total()),
		zap.Bool("critical", result.Critical),
	)
}

// Roll evaluates expr and logs the result at debug level.
//
// Precondition: expr must come from Parse.
func (r *Roller) Roll(expr Expression) RollResult {
	result := Roll(expr, r.src)
	r.log(result)
	return result
}

// RollExpr parses expr and rolls it, logging the result.
//
// Postcondition: Returns a RollResult or a parse error.
func (r *Roller) RollExpr(expr string) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		r.logger.Warn("invalid dice expression", zap.String("expression", expr), zap.Error(err))
		return RollResult{}, err
	}
	return r.Roll(e), nil
}

// Damage rolls a damage expression, doubling dice on a critical, and logs it.
// A malformed expression logs a warning and returns the zero result with the error.
func (r *Roller) Damage(expr string, critical bool) (RollResult, error) {
	result, err := RollDamage(expr, critical, r.src)
	if err != nil {
		r.logger.Warn("invalid damage expression", zap.String("expression", expr), zap.Error(err))
		return RollResult{}, err
	}
	r.log(result)
	return result, nil
}

// Attack rolls a d20 attack and logs the outcome at debug level.
func (r *Roller) Attack(bonus, targetAC int) AttackResult {
	a := AttackRoll(r.src, bonus, targetAC)
	r.logger.Debug("attack roll",
		zap.Int("roll", a.Roll),
		zap.Int("bonus", a.Bonus),
		zap.Int("target_ac", a.TargetAC),
		zap.Bool("hit", a.Hit),
		zap.Bool("critical", a.Critical),
		zap.Bool("fumble", a.Fumble),
	)
	return a
}
