// Package main builds the rules retrieval index from the rules corpus.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeonmaster/internal/config"
	"github.com/cory-johannsen/dungeonmaster/internal/observability"
	"github.com/cory-johannsen/dungeonmaster/internal/rules"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	corpusDir := flag.String("corpus", "", "corpus directory (overrides retrieval.corpus_dir)")
	indexPath := flag.String("index", "", "index database path (overrides retrieval.index_path)")
	query := flag.String("query", "", "after building, print the top matches for this query")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *corpusDir != "" {
		cfg.Retrieval.CorpusDir = *corpusDir
	}
	if *indexPath != "" {
		cfg.Retrieval.IndexPath = *indexPath
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	docs, err := rules.LoadCorpus(cfg.Retrieval.CorpusDir)
	if err != nil {
		logger.Fatal("loading corpus", zap.String("dir", cfg.Retrieval.CorpusDir), zap.Error(err))
	}
	if len(docs) == 0 {
		logger.Fatal("corpus is empty", zap.String("dir", cfg.Retrieval.CorpusDir))
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Retrieval.IndexPath), 0o755); err != nil {
		logger.Fatal("creating index directory", zap.Error(err))
	}
	idx, err := rules.OpenIndex(cfg.Retrieval.IndexPath, logger)
	if err != nil {
		logger.Fatal("opening index", zap.Error(err))
	}
	defer idx.Close()

	ctx := context.Background()
	n, err := idx.Build(ctx, docs, cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap)
	if err != nil {
		logger.Fatal("building index", zap.Error(err))
	}
	fmt.Fprintf(os.Stdout, "indexed %d documents into %d chunks at %s [%s]\n",
		len(docs), n, cfg.Retrieval.IndexPath, time.Since(start))

	if *query == "" {
		return
	}
	results, err := idx.SearchWithScore(ctx, *query, cfg.Retrieval.TopK)
	if err != nil {
		logger.Fatal("searching index", zap.Error(err))
	}
	for i, r := range results {
		fmt.Fprintf(os.Stdout, "%d. [%s p.%d score %.2f] %s\n", i+1, r.Source, r.Page, r.Score, r.Text)
	}
}
