package dm

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeonmaster/internal/config"
	"github.com/cory-johannsen/dungeonmaster/internal/game/combat"
	"github.com/cory-johannsen/dungeonmaster/internal/game/dice"
	"github.com/cory-johannsen/dungeonmaster/internal/game/ruleset"
	"github.com/cory-johannsen/dungeonmaster/internal/game/session"
	"github.com/cory-johannsen/dungeonmaster/internal/game/tactics"
	"github.com/cory-johannsen/dungeonmaster/internal/llm"
	"github.com/cory-johannsen/dungeonmaster/internal/rules"
	"github.com/cory-johannsen/dungeonmaster/internal/scripting"
)

// TacticsVM is the scripting VM holding the NPC tactics scripts.
const TacticsVM = "tactics"

// Open wires a Master from configuration over store. Content directories
// that do not exist fall back to built-in defaults; a missing rules index
// disables retrieval. Without an API key the model-backed collaborators run
// offline.
//
// Precondition: cfg must be valid; store and logger must be non-nil.
// Postcondition: Returns a Master the caller must Close, or an error.
func Open(cfg config.Config, store session.Store, logger *zap.Logger) (*Master, error) {
	catalog, err := ruleset.LoadCatalog(
		existingDir(cfg.Combat.SkillsDir, "skills", logger),
		existingDir(cfg.Combat.ClassesDir, "classes", logger),
	)
	if err != nil {
		return nil, fmt.Errorf("loading rules content: %w", err)
	}

	src := dice.NewCryptoSource()
	roller := dice.NewLoggedRoller(src, logger)

	scripts := scripting.NewManager(roller, logger)
	if dir := existingDir(cfg.Combat.TacticsDir, "tactics", logger); dir != "" {
		if err := scripts.LoadDir(TacticsVM, dir, cfg.Combat.ScriptInstructionLimit); err != nil {
			scripts.Close()
			return nil, fmt.Errorf("loading tactics scripts: %w", err)
		}
	}

	completer := llm.NewCompleter(cfg.LLM, logger)
	var modelDecider combat.NPCDecider
	if cfg.LLM.Enabled() {
		modelDecider = llm.NewDecider(completer)
	} else {
		logger.Warn("llm api key not set; running offline")
	}
	decider := tactics.NewChain(logger, npcDeciders(cfg.Combat.NPCDecider,
		tactics.NewScriptDecider(scripts, TacticsVM, logger), modelDecider)...)

	engine := combat.NewEngine(
		combat.EngineConfig{MaxNPCTurns: cfg.Combat.MaxNPCTurns, HistoryWindow: cfg.Combat.HistoryWindow},
		combat.NewResolver(roller, catalog.Skills, logger),
		src,
		combat.Collaborators{
			Extractor: llm.NewExtractor(completer, logger),
			Parser:    llm.NewCommandParser(completer, logger),
			Decider:   decider,
		},
		logger,
	)

	retriever, err := rules.OpenRetriever(cfg.Retrieval.IndexPath, cfg.Retrieval.TopK, cfg.Retrieval.MaxContextChars, logger)
	if err != nil {
		scripts.Close()
		return nil, fmt.Errorf("opening rules index: %w", err)
	}

	m := New(Deps{
		Sessions:      session.NewManager(store, logger),
		Engine:        engine,
		Catalog:       catalog,
		Router:        llm.NewIntentRouter(completer, logger),
		Story:         llm.NewStoryTeller(completer),
		Narrator:      llm.NewNarrator(completer, logger),
		Rules:         retriever,
		Roller:        roller,
		HistoryWindow: cfg.Combat.HistoryWindow,
	}, logger)
	m.closers = append(m.closers,
		func() error { scripts.Close(); return nil },
		retriever.Close,
	)
	logger.Info("dungeon master ready",
		zap.Int("skills", len(catalog.Skills.Names())),
		zap.Int("classes", len(catalog.Classes)),
		zap.Bool("llm", cfg.LLM.Enabled()),
		zap.Bool("retrieval", retriever.Available()),
	)
	return m, nil
}

// npcDeciders orders the script and model deciders for mode. A nil model
// (offline) leaves the scripts alone in the chain.
func npcDeciders(mode string, script, model combat.NPCDecider) []combat.NPCDecider {
	if model == nil {
		return []combat.NPCDecider{script}
	}
	if mode == config.DeciderScript {
		return []combat.NPCDecider{script, model}
	}
	return []combat.NPCDecider{model, script}
}

// existingDir returns dir when it exists, otherwise "" so the caller uses
// built-in defaults.
func existingDir(dir, kind string, logger *zap.Logger) string {
	if dir == "" {
		return ""
	}
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		logger.Info("content directory missing, using defaults", zap.String("kind", kind), zap.String("dir", dir))
		return ""
	}
	return dir
}
