package handlers

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/dungeonmaster/internal/dm"
	"github.com/cory-johannsen/dungeonmaster/internal/frontend/telnet"
	"github.com/cory-johannsen/dungeonmaster/internal/game/combat"
)

// RenderEvent styles one battle log line by what it reports.
func RenderEvent(line string) string {
	switch {
	case strings.HasPrefix(line, "====="):
		return telnet.Colorize(telnet.Bold+telnet.BrightYellow, line)
	case strings.HasPrefix(line, "-----"):
		return telnet.Colorize(telnet.Cyan, line)
	case strings.HasPrefix(line, "[system]"):
		return telnet.Colorize(telnet.Yellow, line)
	case strings.HasPrefix(line, "Critical hit"):
		return telnet.Colorize(telnet.Bold+telnet.BrightRed, line)
	case strings.HasSuffix(line, "is defeated!"):
		return telnet.Colorize(telnet.BrightRed, line)
	case strings.HasPrefix(line, "Fumble"):
		return telnet.Colorize(telnet.Magenta, line)
	default:
		return line
	}
}

// RenderReply formats a dungeon master reply for display. Combat replies
// show the new battle events before the narration and end with a turn
// prompt when a player must act.
func RenderReply(r dm.Reply) string {
	var b strings.Builder
	switch r.Mode {
	case dm.ModeCombat:
		for _, e := range r.Events {
			b.WriteString(RenderEvent(e))
			b.WriteByte('\n')
		}
		switch {
		case r.Text == "" || r.Halt == combat.HaltInitFailed || r.Halt == combat.HaltCanceled:
		case strings.HasPrefix(r.Text, "[system]"):
			b.WriteString(RenderEvent(r.Text))
			b.WriteByte('\n')
		default:
			if len(r.Events) > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(telnet.Colorize(telnet.BrightWhite, r.Text))
			b.WriteByte('\n')
		}
		if name, ok := r.WaitingOn(); ok {
			b.WriteString(telnet.Colorf(telnet.BrightCyan, "%s, what do you do?", name))
			b.WriteByte('\n')
		}
	default:
		text := r.Text
		if r.Check != nil {
			style := telnet.Red
			if r.Check.Success {
				style = telnet.Green
			}
			line := r.Check.String()
			text = strings.Replace(text, line, telnet.Colorize(style, line), 1)
		}
		if strings.HasPrefix(text, "[system]") {
			text = RenderEvent(text)
		}
		b.WriteString(text)
		b.WriteByte('\n')
	}
	return b.String()
}

// Prompt is the input prompt shown to a player.
func Prompt(name string) string {
	return telnet.Colorf(telnet.BrightCyan, "[%s]> ", name)
}

// RenderClasses lists the playable classes, numbered from 1.
func RenderClasses(classes []string) string {
	var b strings.Builder
	for i, c := range classes {
		fmt.Fprintf(&b, "  %s %s\n", telnet.Colorf(telnet.BrightYellow, "%d.", i+1), c)
	}
	return b.String()
}
