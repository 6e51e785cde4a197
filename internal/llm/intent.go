package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Intent is the kind of action a player message expresses.
type Intent string

// Intents recognised by the router.
const (
	IntentExplore     Intent = "explore"
	IntentTalk        Intent = "talk"
	IntentSkillCheck  Intent = "skill_check"
	IntentAttack      Intent = "attack"
	IntentCastSpell   Intent = "cast_spell"
	IntentStartCombat Intent = "start_combat"
	IntentStore       Intent = "store"
)

// StartsCombat reports whether i begins a battle.
func (i Intent) StartsCombat() bool { return i == IntentAttack || i == IntentStartCombat }

// NeedsRules reports whether i benefits from rules context.
func (i Intent) NeedsRules() bool { return i == IntentSkillCheck || i == IntentCastSpell }

// ParseIntent maps s onto a known Intent.
func ParseIntent(s string) (Intent, bool) {
	switch i := Intent(strings.ToLower(strings.TrimSpace(s))); i {
	case IntentExplore, IntentTalk, IntentSkillCheck, IntentAttack, IntentCastSpell, IntentStartCombat, IntentStore:
		return i, true
	}
	return "", false
}

var combatKeywords = []string{"attack", "fight", "draw my sword", "charge", "攻击", "战斗", "拔剑", "砍"}

// ClassifyKeywords is the offline classifier: combat words start a fight,
// anything else is exploration.
func ClassifyKeywords(text string) Intent {
	lower := strings.ToLower(text)
	for _, k := range combatKeywords {
		if strings.Contains(lower, k) {
			return IntentStartCombat
		}
	}
	return IntentExplore
}

// IntentRouter classifies the latest player message.
type IntentRouter struct {
	c      Completer
	logger *zap.Logger
}

// NewIntentRouter creates an IntentRouter.
//
// Precondition: c and logger must be non-nil.
func NewIntentRouter(c Completer, logger *zap.Logger) *IntentRouter {
	return &IntentRouter{c: c, logger: logger}
}

// Classify returns the intent of text. When the model is unavailable or its
// reply is unusable the keyword classifier decides and the error is returned
// alongside for logging.
func (r *IntentRouter) Classify(ctx context.Context, history []string, text string) (Intent, error) {
	msgs := make([]Message, 0, 2)
	if len(history) > 0 {
		msgs = append(msgs, Message{Role: RoleUser, Content: "Earlier conversation:\n" + historyBlock(history)})
		msgs = append(msgs, Message{Role: RoleAssistant, Content: "Understood."})
	}
	msgs = append(msgs, Message{Role: RoleUser, Content: text})

	reply, err := r.c.Complete(ctx, Request{System: intentPrompt, Messages: msgs, MaxTokens: 32})
	if err != nil {
		return ClassifyKeywords(text), fmt.Errorf("classifying intent: %w", err)
	}
	var out struct {
		Action string `json:"action"`
	}
	if err := DecodeJSON(reply, &out); err != nil {
		return ClassifyKeywords(text), fmt.Errorf("classifying intent: %w", err)
	}
	intent, ok := ParseIntent(out.Action)
	if !ok {
		return ClassifyKeywords(text), fmt.Errorf("classifying intent: unknown action %q", out.Action)
	}
	r.logger.Debug("intent classified", zap.String("intent", string(intent)))
	return intent, nil
}
