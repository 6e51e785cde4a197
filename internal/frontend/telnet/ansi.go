// Package telnet serves the play surface over Telnet with ANSI styling.
package telnet

import (
	"fmt"
	"regexp"
)

// ANSI styles used by the renderers.
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Cyan    = "\033[36m"
	White   = "\033[37m"
	Magenta = "\033[35m"

	BrightRed    = "\033[91m"
	BrightYellow = "\033[93m"
	BrightCyan   = "\033[96m"
	BrightWhite  = "\033[97m"
)

// Colorize wraps text in style and a reset. An empty style returns text unchanged.
func Colorize(style, text string) string {
	if style == "" {
		return text
	}
	return style + text + Reset
}

// Colorf formats and then colorizes.
func Colorf(style, format string, args ...any) string {
	return Colorize(style, fmt.Sprintf(format, args...))
}

var ansiSeq = regexp.MustCompile("\033\\[[0-9;]*m")

// StripANSI removes SGR escape sequences.
func StripANSI(s string) string {
	return ansiSeq.ReplaceAllString(s, "")
}
