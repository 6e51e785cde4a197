package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeonmaster/internal/game/combat"
)

// Extractor lists the combatants mentioned in recent conversation.
type Extractor struct {
	c      Completer
	logger *zap.Logger
}

// NewExtractor creates an Extractor.
//
// Precondition: c and logger must be non-nil.
func NewExtractor(c Completer, logger *zap.Logger) *Extractor {
	return &Extractor{c: c, logger: logger}
}

// ExtractCharacters implements combat.CharacterExtractor.
//
// Postcondition: every returned character has a non-empty name.
func (e *Extractor) ExtractCharacters(ctx context.Context, history []string) ([]combat.ExtractedCharacter, error) {
	text, err := e.c.Complete(ctx, UserTurn(extractPrompt, "Recent conversation:\n"+historyBlock(history)))
	if err != nil {
		return nil, fmt.Errorf("extracting characters: %w", err)
	}

	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, fmt.Errorf("extracting characters: %w", err)
	}
	var chars []combat.ExtractedCharacter
	if strings.HasPrefix(raw, "[") {
		err = DecodeJSON(raw, &chars)
	} else {
		var wrapper struct {
			Characters []combat.ExtractedCharacter `json:"characters"`
		}
		err = DecodeJSON(raw, &wrapper)
		chars = wrapper.Characters
	}
	if err != nil {
		return nil, fmt.Errorf("extracting characters: %w", err)
	}

	out := chars[:0]
	for _, c := range chars {
		if strings.TrimSpace(c.Name) != "" {
			out = append(out, c)
		}
	}
	e.logger.Debug("characters extracted", zap.Int("count", len(out)))
	return out, nil
}
