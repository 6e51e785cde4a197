package combat

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeonmaster/internal/game/dice"
)

// Request names the participants of one attack. AttackerID, when set, takes
// precedence over the Attacker name reference.
type Request struct {
	AttackerID string
	Attacker   string
	Defender   string
	Skill      string
}

// Resolution is the outcome of one attack.
//
// When Err is non-nil Order is the unchanged input order and Lines holds the
// diagnostic to append to the battle log.
type Resolution struct {
	Lines       []string
	Order       []Combatant
	AttackerID  string
	TargetID    string
	Skill       string
	Attack      dice.AttackResult
	Damage      dice.RollResult
	DamageDealt int
	Defeated    bool
	Err         error
}

// Resolver performs attack roll, damage roll and HP mutation for one action.
type Resolver struct {
	roller *dice.Roller
	skills SkillBook
	logger *zap.Logger
}

// NewResolver creates a Resolver.
//
// Precondition: roller, skills and logger must be non-nil.
func NewResolver(roller *dice.Roller, skills SkillBook, logger *zap.Logger) *Resolver {
	return &Resolver{roller: roller, skills: skills, logger: logger}
}

// Skills returns the resolver's skill book.
func (r *Resolver) Skills() SkillBook { return r.skills }

// Resolve executes req against order.
//
// The attacker is looked up among living combatants; the defender among the
// attacker's living opponents, defaulting to the first of them when
// req.Defender is empty. On a hit, damage is the attacker's damage dice
// (doubled on a critical) plus the skill bonus, clamped at zero, and the
// defender is replaced with a damaged copy.
//
// Postcondition: the input order is never modified.
func (r *Resolver) Resolve(order []Combatant, req Request) Resolution {
	res := Resolution{Order: order}

	ai, ok := r.findAttacker(order, req)
	if !ok {
		ref := req.Attacker
		if ref == "" {
			ref = req.AttackerID
		}
		return r.fail(res, fmt.Errorf("%w: attacker %q", ErrActorNotFound, ref),
			fmt.Sprintf("[system] Attacker %q not found.", ref))
	}
	attacker := order[ai]
	res.AttackerID = attacker.ID

	var di int
	if strings.TrimSpace(req.Defender) == "" {
		di, ok = FirstLivingOpponent(order, attacker)
		if !ok {
			return r.fail(res, fmt.Errorf("%w: %s", ErrNoTargets, attacker.Name),
				fmt.Sprintf("[system] %s has no one left to attack.", attacker.Name))
		}
	} else {
		di, ok = FindLivingOpponent(order, attacker, req.Defender)
		if !ok {
			return r.fail(res, fmt.Errorf("%w: defender %q", ErrActorNotFound, req.Defender),
				fmt.Sprintf("[system] Target %q not found. Available targets: %s.",
					req.Defender, joinNames(Living(order, attacker.Faction.Opposing()))))
		}
	}
	defender := order[di]
	res.TargetID = defender.ID

	skill := strings.TrimSpace(req.Skill)
	if skill == "" {
		skill = r.skills.Default()
	}
	res.Skill = skill

	atk := r.roller.Attack(attacker.AttackBonus(), defender.AC)
	res.Attack = atk
	res.Lines = append(res.Lines, fmt.Sprintf("%s uses %s on %s. Attack roll %s.", attacker.Name, skill, defender.Name, atk))

	if !atk.Hit {
		if atk.Fumble {
			res.Lines = append(res.Lines, fmt.Sprintf("Fumble! %s misses %s badly.", attacker.Name, defender.Name))
		} else {
			res.Lines = append(res.Lines, fmt.Sprintf("%s misses %s.", attacker.Name, defender.Name))
		}
		return res
	}

	dmg, err := r.roller.Damage(attacker.DamageDice, atk.Critical)
	if err != nil {
		res.Lines = append(res.Lines, fmt.Sprintf("[system] %s has invalid damage dice %q; the hit deals no dice damage.", attacker.Name, attacker.DamageDice))
	}
	res.Damage = dmg
	bonus := r.skills.Bonus(skill)
	total := dmg.Total() + bonus
	if total < 0 {
		total = 0
	}
	res.DamageDealt = total

	updated := defender.WithDamage(total)
	next := make([]Combatant, len(order))
	copy(next, order)
	next[di] = updated
	res.Order = next

	if atk.Critical {
		res.Lines = append(res.Lines, fmt.Sprintf("Critical hit! %s strikes %s.", attacker.Name, defender.Name))
	} else {
		res.Lines = append(res.Lines, fmt.Sprintf("%s hits %s.", attacker.Name, defender.Name))
	}
	res.Lines = append(res.Lines, fmt.Sprintf("Damage: %s %+d (%s) = %d. %s HP %d/%d.",
		damageText(dmg, attacker.DamageDice), bonus, skill, total, updated.Name, updated.HP, updated.MaxHP))
	if !updated.IsAlive() {
		res.Defeated = true
		res.Lines = append(res.Lines, fmt.Sprintf("%s is defeated!", updated.Name))
	}

	r.logger.Debug("attack resolved",
		zap.String("attacker", attacker.ID),
		zap.String("defender", defender.ID),
		zap.String("skill", skill),
		zap.Bool("hit", atk.Hit),
		zap.Bool("critical", atk.Critical),
		zap.Int("damage", total),
		zap.Int("defender_hp", updated.HP),
	)
	return res
}

func (r *Resolver) findAttacker(order []Combatant, req Request) (int, bool) {
	if req.AttackerID != "" {
		i, ok := IndexByID(order, req.AttackerID)
		if ok && order[i].IsAlive() {
			return i, true
		}
		return -1, false
	}
	return findWhere(order, req.Attacker, Combatant.IsAlive)
}

func (r *Resolver) fail(res Resolution, err error, line string) Resolution {
	r.logger.Debug("attack not resolved", zap.Error(err))
	res.Err = err
	res.Lines = append(res.Lines, line)
	return res
}

func damageText(r dice.RollResult, expr string) string {
	if r.IsZero() {
		return fmt.Sprintf("%s → 0", expr)
	}
	return r.String()
}

func joinNames(cs []Combatant) string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.Name
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}
