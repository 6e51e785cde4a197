// Package session holds the per-session game state and serializes updates
// to it.
package session

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cory-johannsen/dungeonmaster/internal/game/character"
	"github.com/cory-johannsen/dungeonmaster/internal/game/combat"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one conversation turn.
type Message struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// GameState is everything persisted for one play session.
type GameState struct {
	ID        string                       `json:"id"`
	Messages  []Message                    `json:"messages"`
	Players   map[string]*character.Player `json:"players"`
	Battle    combat.State                 `json:"battle"`
	Fighters  []string                     `json:"fighters,omitempty"`
	Scene     string                       `json:"scene,omitempty"`
	Plot      []string                     `json:"plot,omitempty"`
	CreatedAt time.Time                    `json:"created_at"`
	UpdatedAt time.Time                    `json:"updated_at"`
}

// New returns an empty state for session id.
func New(id string) *GameState {
	now := time.Now().UTC()
	return &GameState{
		ID:        id,
		Players:   make(map[string]*character.Player),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddMessage appends a conversation turn.
func (g *GameState) AddMessage(role, content string) {
	g.Messages = append(g.Messages, Message{Role: role, Content: content, At: time.Now().UTC()})
}

// History returns the last n messages formatted as "role: content".
func (g *GameState) History(n int) []string {
	msgs := g.Messages
	if n > 0 && len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = fmt.Sprintf("%s: %s", m.Role, m.Content)
	}
	return out
}

// Player returns the player record for userID.
func (g *GameState) Player(userID string) (*character.Player, bool) {
	p, ok := g.Players[userID]
	return p, ok
}

// SetPlayer stores the player record for userID.
func (g *GameState) SetPlayer(userID string, p *character.Player) {
	if g.Players == nil {
		g.Players = make(map[string]*character.Player)
	}
	g.Players[userID] = p
}

// PlayerCombatants returns the living players as combatants, ordered by user id.
func (g *GameState) PlayerCombatants() []combat.Combatant {
	ids := make([]string, 0, len(g.Players))
	for id := range g.Players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var out []combat.Combatant
	for _, id := range ids {
		if p := g.Players[id]; p != nil && p.IsAlive() {
			out = append(out, p.ToCombatant())
		}
	}
	return out
}

// Party describes every player, one per line, ordered by user id.
func (g *GameState) Party() string {
	ids := make([]string, 0, len(g.Players))
	for id := range g.Players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var b strings.Builder
	for _, id := range ids {
		p := g.Players[id]
		if p == nil {
			continue
		}
		fmt.Fprintf(&b, "%s (%s, level %d) HP %d/%d AC %d\n", p.Name, p.Class, p.Level, p.HP, p.MaxHP, p.AC)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Marshal encodes the state as JSON.
func (g *GameState) Marshal() ([]byte, error) {
	return json.Marshal(g)
}

// Unmarshal decodes a JSON-encoded state.
func Unmarshal(data []byte) (*GameState, error) {
	var g GameState
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("decoding session state: %w", err)
	}
	if g.Players == nil {
		g.Players = make(map[string]*character.Player)
	}
	return &g, nil
}
