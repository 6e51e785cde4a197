// Package handlers implements the interactive play session shared by the
// Telnet server and the console client.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeonmaster/internal/dm"
	"github.com/cory-johannsen/dungeonmaster/internal/frontend/telnet"
	"github.com/cory-johannsen/dungeonmaster/internal/game/character"
)

// RandomNames are offered when a player answers "random" to the name prompt.
var RandomNames = []string{
	"Aldric", "Brenna", "Corwin", "Dagny", "Elowen",
	"Fenwick", "Gwendolyn", "Hale", "Isolde", "Jory",
	"Kestrel", "Lorcan", "Maren", "Nyx", "Osric",
}

// MaxTableCode bounds a table code's length.
const MaxTableCode = 36

// Master is the dungeon master surface a play session drives.
type Master interface {
	Classes() []string
	Join(ctx context.Context, sessionID, userID, name, class string) (*character.Player, error)
	HandleTurn(ctx context.Context, sessionID, userID, text string) (dm.Reply, error)
	Status(ctx context.Context, sessionID string) (string, error)
}

// LineIO is a line-oriented terminal: a Telnet connection or the console.
type LineIO interface {
	ReadLine() (string, error)
	WriteText(text string) error
	WritePrompt(prompt string) error
}

// PlayHandler runs one player's session: choose a table, create a
// character, then play until "quit".
type PlayHandler struct {
	master Master
	logger *zap.Logger
	newID  func() string
}

// NewPlayHandler creates a PlayHandler.
//
// Precondition: master and logger must be non-nil.
func NewPlayHandler(master Master, logger *zap.Logger) *PlayHandler {
	return &PlayHandler{master: master, logger: logger, newID: uuid.NewString}
}

// HandleSession implements telnet.SessionHandler.
func (h *PlayHandler) HandleSession(ctx context.Context, conn *telnet.Conn) error {
	return h.Play(ctx, conn, "")
}

// Play runs a session over term. A non-empty table joins that table directly;
// otherwise the player is asked for a table code.
//
// Postcondition: Returns nil when the player quits, or the I/O or context error that ended the session.
func (h *PlayHandler) Play(ctx context.Context, term LineIO, table string) error {
	userID := h.newID()
	logger := h.logger.With(zap.String("user_id", userID))

	if err := term.WriteText(telnet.Colorize(telnet.Bold+telnet.BrightYellow, "Welcome, adventurer, to the Dungeon Master's table.") + "\n"); err != nil {
		return err
	}

	if table == "" {
		code, err := h.ask(ctx, term, "Table code (blank for a new table): ")
		if err != nil {
			return err
		}
		table = normalizeTable(code)
		if table == "" {
			table = strings.SplitN(h.newID(), "-", 2)[0]
			if err := term.WriteText(fmt.Sprintf("Your table code is %s. Share it so friends can join.\n",
				telnet.Colorize(telnet.BrightCyan, table))); err != nil {
				return err
			}
		}
	}
	logger = logger.With(zap.String("session_id", table))

	player, err := h.createCharacter(ctx, term, table, userID)
	if err != nil {
		return err
	}
	logger.Info("player seated", zap.String("name", player.Name))

	if err := term.WriteText(fmt.Sprintf("%s the %s, level %d. HP %d/%d, AC %d.\nType %s for commands.\n",
		player.Name, player.Class, player.Level, player.HP, player.MaxHP, player.AC,
		telnet.Colorize(telnet.BrightWhite, "help"))); err != nil {
		return err
	}

	for {
		line, err := h.ask(ctx, term, Prompt(player.Name))
		if err != nil {
			return err
		}
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit":
			return term.WriteText("Farewell.\n")
		case "help":
			if err := term.WriteText(helpText); err != nil {
				return err
			}
			continue
		case "status":
			status, err := h.master.Status(ctx, table)
			if err != nil {
				logger.Warn("status failed", zap.Error(err))
				status = "No status available."
			}
			if err := term.WriteText(status + "\n"); err != nil {
				return err
			}
			continue
		}

		reply, err := h.master.HandleTurn(ctx, table, userID, line)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("turn failed", zap.Error(err))
			if err := term.WriteText(telnet.Colorize(telnet.Red, "The dungeon master is confused; try again.") + "\n"); err != nil {
				return err
			}
			continue
		}
		if err := term.WriteText(RenderReply(reply)); err != nil {
			return err
		}
	}
}

const helpText = `Describe what your character does in plain words.
In combat, on your turn: "attack <target>", "attack <target> with <skill>",
"use <skill> on <target>", or the same in Chinese (攻击哥布林, 使用火球术攻击哥布林).
Commands: status, help, quit.
`

// createCharacter asks for a name and class and joins the table.
func (h *PlayHandler) createCharacter(ctx context.Context, term LineIO, table, userID string) (*character.Player, error) {
	var name string
	for name == "" {
		answer, err := h.ask(ctx, term, "Name your character (or \"random\"): ")
		if err != nil {
			return nil, err
		}
		name = answer
		if strings.EqualFold(name, "random") {
			name = RandomNames[rand.IntN(len(RandomNames))]
		}
	}

	classes := h.master.Classes()
	if err := term.WriteText("Choose a class:\n" + RenderClasses(classes)); err != nil {
		return nil, err
	}
	for {
		answer, err := h.ask(ctx, term, "Class: ")
		if err != nil {
			return nil, err
		}
		class := answer
		if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(classes) {
			class = classes[n-1]
		}
		p, err := h.master.Join(ctx, table, userID, name, class)
		if errors.Is(err, dm.ErrUnknownClass) {
			if err := term.WriteText(telnet.Colorf(telnet.Red, "Unknown class %q.", answer) + "\n"); err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}

// ask writes prompt and returns the trimmed answer.
func (h *PlayHandler) ask(ctx context.Context, term LineIO, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := term.WritePrompt(prompt); err != nil {
		return "", err
	}
	line, err := term.ReadLine()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// normalizeTable lowercases a table code and drops anything but letters,
// digits and hyphens.
func normalizeTable(code string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(code) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
		if b.Len() >= MaxTableCode {
			break
		}
	}
	return b.String()
}
