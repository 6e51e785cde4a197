package combat

import (
	"fmt"
	"strings"
)

// Summary renders the battle snapshot handed to the narrator and NPC
// deciders: the round, the order with the current actor marked ">>>",
// each combatant's faction, HP and AC, and the last window log lines.
func Summary(s State, window int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Round %d\n", s.Round)
	b.WriteString("Turn order:\n")
	for i, c := range s.Order {
		marker := "   "
		if i == 0 {
			marker = ">>>"
		}
		status := ""
		if !c.IsAlive() {
			status = " (down)"
		}
		fmt.Fprintf(&b, "%s %d. %s [%s, %s] HP %d/%d AC %d%s\n",
			marker, i+1, c.Name, c.Faction, c.Controller, c.HP, c.MaxHP, c.AC, status)
	}
	if s.Result != OutcomeNone {
		fmt.Fprintf(&b, "Result: %s\n", s.Result)
	}
	recent := Recent(s.Log, window)
	if len(recent) > 0 {
		b.WriteString("Recent events:\n")
		for _, line := range recent {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Recent returns the last n entries of log.
func Recent(log []string, n int) []string {
	if n <= 0 || len(log) <= n {
		return log
	}
	return log[len(log)-n:]
}
