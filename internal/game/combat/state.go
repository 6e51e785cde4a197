package combat

// State is the persisted battle state of one session.
type State struct {
	Order               []Combatant `json:"combat_order"`
	Active              bool        `json:"is_combat_active"`
	Round               int         `json:"current_round"`
	TurnsThisRound      int         `json:"turn_in_round"`
	Log                 []string    `json:"combat_log"`
	AwaitingPlayerInput bool        `json:"awaiting_player_input"`
	PendingAction       string      `json:"pending_player_action,omitempty"`
	Command             *Command    `json:"combat_command,omitempty"`
	Result              Outcome     `json:"result,omitempty"`
}

// Current returns the combatant at the head of the order.
func (s State) Current() (Combatant, bool) {
	if len(s.Order) == 0 {
		return Combatant{}, false
	}
	return s.Order[0], true
}

// Finished reports whether a battle has run to completion.
func (s State) Finished() bool {
	return !s.Active && s.Result != OutcomeNone
}

// Patch is a sparse update to a State. Nil fields leave the state unchanged;
// Log lines are appended.
type Patch struct {
	Order          *[]Combatant
	Active         *bool
	Round          *int
	TurnsThisRound *int
	Awaiting       *bool
	Pending        *string
	Command        *Command
	ClearCommand   bool
	Result         *Outcome
	Log            []string
}

// Apply merges p into s and returns the new state. New values win; log lines append.
//
// Postcondition: s is unchanged; len(result.Log) == len(s.Log)+len(p.Log).
func (s State) Apply(p Patch) State {
	out := s
	if p.Order != nil {
		out.Order = CloneOrder(*p.Order)
		if out.Order == nil {
			out.Order = []Combatant{}
		}
	}
	if p.Active != nil {
		out.Active = *p.Active
	}
	if p.Round != nil {
		out.Round = *p.Round
	}
	if p.TurnsThisRound != nil {
		out.TurnsThisRound = *p.TurnsThisRound
	}
	if p.Awaiting != nil {
		out.AwaitingPlayerInput = *p.Awaiting
	}
	if p.Pending != nil {
		out.PendingAction = *p.Pending
	}
	if p.ClearCommand {
		out.Command = nil
	}
	if p.Command != nil {
		c := *p.Command
		out.Command = &c
	}
	if p.Result != nil {
		out.Result = *p.Result
	}
	if len(p.Log) > 0 {
		log := make([]string, 0, len(s.Log)+len(p.Log))
		log = append(log, s.Log...)
		out.Log = append(log, p.Log...)
	}
	return out
}

// Ptr returns a pointer to v, for building Patches.
func Ptr[T any](v T) *T { return &v }

// Step is the Turn Router's decision for the next stage.
type Step int

const (
	StepNeedsInit Step = iota
	StepWaitForPlayer
	StepPlayerActionReady
	StepNPCDecide
	StepEnded
)

// String returns the step name.
func (s Step) String() string {
	switch s {
	case StepNeedsInit:
		return "needs_init"
	case StepWaitForPlayer:
		return "wait_for_player"
	case StepPlayerActionReady:
		return "player_action_ready"
	case StepNPCDecide:
		return "npc_decide"
	case StepEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Route decides what the engine does next for state s.
//
// A finished battle routes to StepEnded; an empty inactive order needs
// initialization; an active battle with no current actor takes the NPC path.
// A player at the head waits for input unless input is already awaited.
func Route(s State) Step {
	if s.Finished() {
		return StepEnded
	}
	cur, ok := s.Current()
	if !ok {
		if s.Active {
			return StepNPCDecide
		}
		return StepNeedsInit
	}
	if !s.Active {
		return StepNeedsInit
	}
	if cur.IsPlayer() {
		if s.AwaitingPlayerInput {
			return StepPlayerActionReady
		}
		return StepWaitForPlayer
	}
	return StepNPCDecide
}
