package combat

import "strings"

// FindByName returns the index of the first combatant in order whose name
// matches ref by case-insensitive substring in either direction.
//
// An empty ref matches nothing.
// Postcondition: ok is false iff no entry matches; idx is -1 in that case.
func FindByName(order []Combatant, ref string) (idx int, ok bool) {
	return findWhere(order, ref, func(Combatant) bool { return true })
}

// FindLivingOpponent resolves ref among the living members of the faction
// opposing attacker.
func FindLivingOpponent(order []Combatant, attacker Combatant, ref string) (int, bool) {
	want := attacker.Faction.Opposing()
	return findWhere(order, ref, func(c Combatant) bool {
		return c.IsAlive() && c.Faction == want
	})
}

func findWhere(order []Combatant, ref string, keep func(Combatant) bool) (int, bool) {
	needle := normalizeName(ref)
	if needle == "" {
		return -1, false
	}
	// Exact matches win over substring matches so "Goblin" does not resolve
	// to "Goblin Chief" when both are present.
	for i, c := range order {
		if keep(c) && normalizeName(c.Name) == needle {
			return i, true
		}
	}
	for i, c := range order {
		if !keep(c) {
			continue
		}
		name := normalizeName(c.Name)
		if name == "" {
			continue
		}
		if strings.Contains(name, needle) || strings.Contains(needle, name) {
			return i, true
		}
	}
	return -1, false
}

// IndexByID returns the index of the combatant with the given id.
func IndexByID(order []Combatant, id string) (int, bool) {
	for i, c := range order {
		if c.ID == id {
			return i, true
		}
	}
	return -1, false
}

// Living returns the living members of faction f, preserving order.
func Living(order []Combatant, f Faction) []Combatant {
	var out []Combatant
	for _, c := range order {
		if c.Faction == f && c.IsAlive() {
			out = append(out, c)
		}
	}
	return out
}

// FirstLivingOpponent returns the first living member of the faction opposing
// attacker, the attack-nearest heuristic.
func FirstLivingOpponent(order []Combatant, attacker Combatant) (int, bool) {
	want := attacker.Faction.Opposing()
	for i, c := range order {
		if c.Faction == want && c.IsAlive() {
			return i, true
		}
	}
	return -1, false
}

// MergePlayers appends the session's player combatants to extracted, dropping
// any extracted entry that shares an id or a case-insensitive name with a player.
// The player record always wins.
//
// Postcondition: every player appears exactly once in the result.
func MergePlayers(extracted, players []Combatant) []Combatant {
	out := make([]Combatant, 0, len(extracted)+len(players))
	for _, e := range extracted {
		dup := false
		for _, p := range players {
			if (e.ID != "" && e.ID == p.ID) || strings.EqualFold(strings.TrimSpace(e.Name), strings.TrimSpace(p.Name)) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, e.Clone())
		}
	}
	for _, p := range players {
		out = append(out, p.Clone())
	}
	return out
}

// CloneOrder deep-copies an order.
func CloneOrder(order []Combatant) []Combatant {
	if order == nil {
		return nil
	}
	out := make([]Combatant, len(order))
	for i, c := range order {
		out[i] = c.Clone()
	}
	return out
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
