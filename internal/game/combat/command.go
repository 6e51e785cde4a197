package combat

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrMalformedCommand is returned when free text cannot be read as an attack.
	ErrMalformedCommand = errors.New("combat: malformed command")
	// ErrActorNotFound is reported when an attacker or defender reference
	// matches no eligible combatant.
	ErrActorNotFound = errors.New("combat: actor not found")
	// ErrNoTargets is reported when the attacker has no living opponents.
	ErrNoTargets = errors.New("combat: no living targets")
)

// Command is a parsed attack request. Every field is optional: an empty
// Attacker means the current actor, an empty Defender means the nearest
// opponent and an empty Skill means the default skill.
type Command struct {
	Attacker string `json:"attacker,omitempty"`
	Defender string `json:"defender,omitempty"`
	Skill    string `json:"skill,omitempty"`
}

var (
	cnUseSkill  = regexp.MustCompile(`^(.*?)使用(.+?)攻击(.+)$`)
	cnAttack    = regexp.MustCompile(`^(.*?)攻击(.+)$`)
	enUseSkill  = regexp.MustCompile(`(?i)^(?:(.+?)\s+)?uses?\s+(.+?)\s+(?:on|against|to attack|at)\s+(.+)$`)
	enAttack    = regexp.MustCompile(`(?i)^(?:(.+?)\s+)?attacks?\s+(.+?)(?:\s+(?:with|using)\s+(.+))?$`)
	selfAliases = map[string]bool{"i": true, "me": true, "我": true, "玩家": true, "player": true}
)

// ParsePattern reads the fixed sentence shapes players and NPC deciders use:
//
//	使用<skill>攻击<target>, <attacker>使用<skill>攻击<target>, 攻击<target>,
//	attack <target> [with <skill>], use <skill> on <target>,
//	<attacker> uses <skill> to attack <target>.
//
// Postcondition: on success Defender is non-empty; otherwise the error wraps ErrMalformedCommand.
func ParsePattern(text string) (Command, error) {
	s := strings.TrimSpace(text)
	s = strings.TrimRight(s, "。.!！?？ ")
	if s == "" {
		return Command{}, fmt.Errorf("%w: empty input", ErrMalformedCommand)
	}

	var cmd Command
	switch {
	case cnUseSkill.MatchString(s):
		m := cnUseSkill.FindStringSubmatch(s)
		cmd = Command{Attacker: m[1], Skill: m[2], Defender: m[3]}
	case cnAttack.MatchString(s):
		m := cnAttack.FindStringSubmatch(s)
		cmd = Command{Attacker: m[1], Defender: m[2]}
	case enUseSkill.MatchString(s):
		m := enUseSkill.FindStringSubmatch(s)
		cmd = Command{Attacker: m[1], Skill: m[2], Defender: m[3]}
	case enAttack.MatchString(s):
		m := enAttack.FindStringSubmatch(s)
		cmd = Command{Attacker: m[1], Defender: m[2], Skill: m[3]}
	default:
		return Command{}, fmt.Errorf("%w: %q", ErrMalformedCommand, text)
	}

	return cmd.Normalize()
}

// Normalize trims quotes and articles from every reference and clears a
// first-person attacker so the current actor is assumed.
//
// Postcondition: on success Defender is non-empty; otherwise the error wraps ErrMalformedCommand.
func (c Command) Normalize() (Command, error) {
	c.Attacker = cleanRef(c.Attacker)
	c.Defender = cleanRef(c.Defender)
	c.Skill = cleanRef(c.Skill)
	if selfAliases[strings.ToLower(c.Attacker)] {
		c.Attacker = ""
	}
	if c.Defender == "" {
		return Command{}, fmt.Errorf("%w: no target", ErrMalformedCommand)
	}
	return c, nil
}

func cleanRef(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"'“”‘’「」《》,，:：")
	lower := strings.ToLower(s)
	for _, article := range []string{"the ", "a ", "an "} {
		if strings.HasPrefix(lower, article) {
			s = s[len(article):]
			break
		}
	}
	return strings.TrimSpace(s)
}

// PatternParser is a CommandParser backed by ParsePattern.
type PatternParser struct{}

// ParseCommand implements CommandParser.
func (PatternParser) ParseCommand(_ context.Context, text string, _ []Combatant) (Command, error) {
	return ParsePattern(text)
}
