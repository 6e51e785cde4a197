package llm

import (
	"context"
	"fmt"
	"strings"
)

// RollRequest asks the engine for an ability check.
type RollRequest struct {
	Type    string `json:"type"`
	Skill   string `json:"skill"`
	Ability string `json:"ability"`
	DC      int    `json:"dc"`
	Reason  string `json:"reason"`
}

// Story is one story-engine reply.
type Story struct {
	Text string       `json:"story_text"`
	Roll *RollRequest `json:"roll_request"`
}

// StoryInput is everything the story engine sees for one turn.
type StoryInput struct {
	History []string
	Input   string
	Intent  Intent
	// Party describes the player characters.
	Party string
	// Rules is formatted rules context, possibly empty.
	Rules string
	// RollResult describes a resolved check, possibly empty.
	RollResult string
}

// StoryTeller continues the narrative outside combat.
type StoryTeller struct {
	c Completer
}

// NewStoryTeller creates a StoryTeller.
func NewStoryTeller(c Completer) *StoryTeller {
	return &StoryTeller{c: c}
}

// Tell continues the story. A reply that is not JSON is used verbatim as
// the story text.
//
// Postcondition: on success Text is non-empty; Roll is nil when in.RollResult is set.
func (s *StoryTeller) Tell(ctx context.Context, in StoryInput) (Story, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Conversation so far:\n%s\n\n", historyBlock(in.History))
	if in.Party != "" {
		fmt.Fprintf(&b, "Party:\n%s\n\n", in.Party)
	}
	if in.Rules != "" {
		fmt.Fprintf(&b, "Rules context:\n%s\n\n", in.Rules)
	}
	fmt.Fprintf(&b, "Intent: %s\nPlayer action: %s\n", in.Intent, in.Input)
	if in.RollResult != "" {
		fmt.Fprintf(&b, "roll_result: %s\n", in.RollResult)
	}

	reply, err := s.c.Complete(ctx, UserTurn(storyPrompt, b.String()))
	if err != nil {
		return Story{}, fmt.Errorf("telling story: %w", err)
	}

	var story Story
	if err := DecodeJSON(reply, &story); err != nil || strings.TrimSpace(story.Text) == "" {
		return Story{Text: strings.TrimSpace(reply)}, nil
	}
	story.Text = strings.TrimSpace(story.Text)
	if in.RollResult != "" || (story.Roll != nil && story.Roll.DC <= 0) {
		story.Roll = nil
	}
	return story, nil
}
