package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cory-johannsen/dungeonmaster/internal/game/session"
)

// printRecent writes the n most recently played tables to w, one per line.
func printRecent(ctx context.Context, w io.Writer, store session.Lister, n int) error {
	recent, err := store.Recent(ctx, n)
	if err != nil {
		return err
	}
	if len(recent) == 0 {
		_, err := fmt.Fprintln(w, "no saved tables")
		return err
	}
	for _, s := range recent {
		status := "idle"
		if s.BattleActive {
			status = "in battle"
		}
		if _, err := fmt.Fprintf(w, "%-24s %-9s %s\n", s.ID, status, s.UpdatedAt.UTC().Format(time.RFC3339)); err != nil {
			return err
		}
	}
	return nil
}
