// Package main plays the dungeon master at the local terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeonmaster/internal/config"
	"github.com/cory-johannsen/dungeonmaster/internal/dm"
	"github.com/cory-johannsen/dungeonmaster/internal/frontend/handlers"
	"github.com/cory-johannsen/dungeonmaster/internal/observability"
	"github.com/cory-johannsen/dungeonmaster/internal/storage"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	envFile := flag.String("env", ".env", "optional dotenv file with DM_ overrides")
	table := flag.String("table", "", "table code to join (blank asks at startup)")
	noColor := flag.Bool("no-color", false, "disable ANSI colors")
	verbose := flag.Bool("verbose", false, "log at the configured level instead of warn")
	list := flag.Int("list", 0, "print the N most recently played tables and exit")
	flag.Parse()

	_ = godotenv.Load(*envFile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	cfg.Server.Mode = "cli"
	if !*verbose {
		cfg.Logging.Level = "warn"
		cfg.Logging.Format = "console"
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.OpenSessionStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("opening session store", zap.Error(err))
	}
	defer store.Close()

	if *list > 0 {
		if err := printRecent(ctx, os.Stdout, store, *list); err != nil {
			logger.Fatal("listing tables", zap.Error(err))
		}
		return
	}

	master, err := dm.Open(cfg, store, logger)
	if err != nil {
		logger.Fatal("building dungeon master", zap.Error(err))
	}
	defer master.Close()

	console := handlers.NewConsole(os.Stdin, os.Stdout, !*noColor)
	err = handlers.NewPlayHandler(master, logger).Play(ctx, console, *table)
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "session ended: %v\n", err)
	}
}
