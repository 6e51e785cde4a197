package llm

import (
	"context"

	"go.uber.org/zap"
)

// Narrator turns a battle summary into prose.
type Narrator struct {
	c      Completer
	logger *zap.Logger
}

// NewNarrator creates a Narrator.
//
// Precondition: c and logger must be non-nil.
func NewNarrator(c Completer, logger *zap.Logger) *Narrator {
	return &Narrator{c: c, logger: logger}
}

// Narrate describes summary, using the last conversation turns for tone.
// It never fails: when the model is unavailable the summary itself is returned.
func (n *Narrator) Narrate(ctx context.Context, summary string, history []string) string {
	req := Request{
		System: narratorPrompt,
		Messages: []Message{
			{Role: RoleUser, Content: "Conversation so far:\n" + historyBlock(history) + "\n\nBattle report:\n" + summary},
		},
	}
	text, err := n.c.Complete(ctx, req)
	if err != nil {
		n.logger.Debug("narration unavailable, using raw summary", zap.Error(err))
		return summary
	}
	return text
}
