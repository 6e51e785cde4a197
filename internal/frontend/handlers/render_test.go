package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cory-johannsen/dungeonmaster/internal/dm"
	"github.com/cory-johannsen/dungeonmaster/internal/frontend/telnet"
	"github.com/cory-johannsen/dungeonmaster/internal/game/combat"
)

func TestRenderEvent_Styles(t *testing.T) {
	cases := map[string]string{
		"===== Combat begins =====":  telnet.Bold + telnet.BrightYellow,
		"----- Round 2 -----":        telnet.Cyan,
		"[system] Target not found.": telnet.Yellow,
		"Critical hit! Bram strikes": telnet.Bold + telnet.BrightRed,
		"Goblin is defeated!":        telnet.BrightRed,
		"Fumble! Goblin misses.":     telnet.Magenta,
	}
	for line, style := range cases {
		assert.Equal(t, telnet.Colorize(style, line), RenderEvent(line), line)
	}
	assert.Equal(t, "Bram hits Goblin.", RenderEvent("Bram hits Goblin."))
}

func TestRenderReply_InitFailureShowsEventsOnce(t *testing.T) {
	line := "[system] Could not start combat: no combatants found."
	out := telnet.StripANSI(RenderReply(dm.Reply{
		Mode:   dm.ModeCombat,
		Halt:   combat.HaltInitFailed,
		Events: []string{line},
		Text:   line,
	}))
	assert.Equal(t, line+"\n", out)
}

func TestRenderReply_TurnRefusal(t *testing.T) {
	out := RenderReply(dm.Reply{Mode: dm.ModeCombat, Halt: combat.HaltWaitingForPlayer, Text: "[system] It is Ada's turn."})
	assert.Contains(t, out, telnet.Colorize(telnet.Yellow, "[system] It is Ada's turn."))
}

func TestRenderReply_StoryCheck(t *testing.T) {
	check := &dm.Check{Ability: combat.WIS, DC: 10, Roll: 12, Total: 12, Success: true}
	out := RenderReply(dm.Reply{
		Mode:  dm.ModeStory,
		Text:  "You listen.\n\n" + check.String() + "\n\nFootsteps approach.",
		Check: check,
	})
	assert.Contains(t, out, telnet.Colorize(telnet.Green, check.String()))
	assert.Equal(t, "You listen.\n\n"+check.String()+"\n\nFootsteps approach.\n", telnet.StripANSI(out))
}

func TestRenderClasses(t *testing.T) {
	assert.Equal(t, "  1. Warrior\n  2. Mage\n", telnet.StripANSI(RenderClasses([]string{"Warrior", "Mage"})))
}
