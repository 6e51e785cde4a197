// Package main runs the dungeon master as a Telnet server.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeonmaster/internal/config"
	"github.com/cory-johannsen/dungeonmaster/internal/dm"
	"github.com/cory-johannsen/dungeonmaster/internal/frontend/handlers"
	"github.com/cory-johannsen/dungeonmaster/internal/frontend/telnet"
	"github.com/cory-johannsen/dungeonmaster/internal/observability"
	"github.com/cory-johannsen/dungeonmaster/internal/server"
	"github.com/cory-johannsen/dungeonmaster/internal/storage"
)

const (
	storeComponent     = "session-store"
	storeCheckInterval = 30 * time.Second
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	envFile := flag.String("env", ".env", "optional dotenv file with DM_ overrides")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil {
		log.Printf("no env file loaded from %s: %v", *envFile, err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting dungeon master",
		zap.String("name", cfg.Server.Name),
		zap.String("telnet_addr", cfg.Telnet.Addr()),
		zap.String("health_addr", cfg.Health.Addr()),
		zap.String("session_store", cfg.Session.Store),
	)

	ctx := context.Background()
	store, err := storage.OpenSessionStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("opening session store", zap.Error(err))
	}
	defer store.Close()

	master, err := dm.Open(cfg, store, logger)
	if err != nil {
		logger.Fatal("building dungeon master", zap.Error(err))
	}
	defer func() {
		if err := master.Close(); err != nil {
			logger.Warn("closing dungeon master", zap.Error(err))
		}
	}()

	acceptor := telnet.NewAcceptor(cfg.Telnet, handlers.NewPlayHandler(master, logger), logger)
	health := server.NewHealthService(cfg.Health.Addr(), logger)

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("health", health)
	lifecycle.Add("session-store", &server.FuncService{
		StartFn: func(ctx context.Context) error {
			ticker := time.NewTicker(storeCheckInterval)
			defer ticker.Stop()
			for {
				err := store.Health(ctx)
				if err != nil && ctx.Err() == nil {
					logger.Warn("session store health check failed", zap.String("backend", store.Backend), zap.Error(err))
				}
				health.SetServing(storeComponent, err == nil)
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
				}
			}
		},
	})
	lifecycle.Add("telnet", &server.FuncService{
		StartFn: func(ctx context.Context) error {
			go func() {
				select {
				case <-acceptor.Ready():
					health.SetServing(cfg.Server.Name, true)
				case <-ctx.Done():
				}
			}()
			return acceptor.Start(ctx)
		},
		StopFn: func(ctx context.Context) {
			health.SetServing(cfg.Server.Name, false)
			acceptor.Stop(ctx)
		},
	})

	logger.Info("dungeon master initialized", zap.Duration("startup", time.Since(start)))

	if err := lifecycle.Run(ctx); err != nil {
		logger.Error("server error", zap.Error(err))
	}
}
