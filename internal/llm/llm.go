// Package llm wraps the language model behind a small Completer interface
// and builds the dungeon master's collaborators on top of it: character
// extraction, combat command parsing, NPC decisions, narration, intent
// routing and story telling.
package llm

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNoJSON is returned when a completion carries no JSON value.
	ErrNoJSON = errors.New("llm: no JSON in completion")
	// ErrEmptyCompletion is returned when the model produced no text.
	ErrEmptyCompletion = errors.New("llm: empty completion")
	// ErrDisabled is returned by the offline completer.
	ErrDisabled = errors.New("llm: disabled")
)

// Role is the speaker of a conversation message.
type Role string

// Conversation roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation turn sent to the model.
type Message struct {
	Role    Role
	Content string
}

// Request is a single completion request.
type Request struct {
	System   string
	Messages []Message
	// MaxTokens overrides the completer's default when positive.
	MaxTokens int
}

// Completer produces a text completion.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Disabled is the Completer used when no API key is configured.
type Disabled struct{}

// Complete always fails with ErrDisabled.
func (Disabled) Complete(context.Context, Request) (string, error) { return "", ErrDisabled }

// UserTurn builds a single-message request.
func UserTurn(system, content string) Request {
	return Request{System: system, Messages: []Message{{Role: RoleUser, Content: content}}}
}

// historyBlock renders conversation lines for inclusion in a prompt.
func historyBlock(history []string) string {
	if len(history) == 0 {
		return "(no conversation yet)"
	}
	return strings.Join(history, "\n")
}

// firstLine returns the first non-blank line of s with list markers and
// surrounding quotes removed.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*> ")
		line = strings.Trim(line, "\"'`“”")
		if line != "" {
			return line
		}
	}
	return ""
}
