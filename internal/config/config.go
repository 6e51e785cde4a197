// Package config provides Viper-based configuration loading for the dungeon master.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds top-level server settings.
type ServerConfig struct {
	// Mode is the play surface: "telnet" or "cli".
	Mode string `mapstructure:"mode"`
	// Name identifies this instance in logs.
	Name string `mapstructure:"name"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// Session store backends.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// SessionConfig selects where game sessions are persisted.
type SessionConfig struct {
	// Store is one of "memory", "sqlite" or "postgres".
	Store string `mapstructure:"store"`
	// SQLitePath is the database file used when Store is "sqlite".
	SQLitePath string `mapstructure:"sqlite_path"`
}

// TelnetConfig holds Telnet acceptor settings.
type TelnetConfig struct {
	// Host is the bind address for the Telnet listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the Telnet listener.
	Port int `mapstructure:"port"`
	// ReadTimeout is the per-read timeout for Telnet connections.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the per-write timeout for Telnet connections.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (t TelnetConfig) Addr() string {
	return fmt.Sprintf("%s:%d", t.Host, t.Port)
}

// HealthConfig holds the gRPC health endpoint settings.
type HealthConfig struct {
	GRPCHost string `mapstructure:"grpc_host"`
	GRPCPort int    `mapstructure:"grpc_port"`
}

// Addr returns the "host:port" gRPC address.
func (h HealthConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.GRPCHost, h.GRPCPort)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// LLMConfig holds the language model settings. An empty APIKey runs the
// dungeon master offline: commands are parsed by pattern only and nothing
// is narrated.
type LLMConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Temperature float64       `mapstructure:"temperature"`
	// HistoryMessages is how many recent conversation turns are sent with a prompt.
	HistoryMessages int `mapstructure:"history_messages"`
}

// Enabled reports whether an API key is configured.
func (l LLMConfig) Enabled() bool { return strings.TrimSpace(l.APIKey) != "" }

// RetrievalConfig holds rules-corpus retrieval settings.
type RetrievalConfig struct {
	CorpusDir       string `mapstructure:"corpus_dir"`
	IndexPath       string `mapstructure:"index_path"`
	ChunkSize       int    `mapstructure:"chunk_size"`
	ChunkOverlap    int    `mapstructure:"chunk_overlap"`
	TopK            int    `mapstructure:"top_k"`
	MaxContextChars int    `mapstructure:"max_context_chars"`
}

// NPC decider orderings for CombatConfig.NPCDecider.
const (
	// DeciderAuto consults the model first when it is enabled, then the scripts.
	DeciderAuto = "auto"
	// DeciderModel consults the model first, then the scripts.
	DeciderModel = "model"
	// DeciderScript consults the scripts first, then the model.
	DeciderScript = "script"
)

// CombatConfig holds combat engine and content settings.
type CombatConfig struct {
	MaxNPCTurns            int    `mapstructure:"max_npc_turns"`
	HistoryWindow          int    `mapstructure:"history_window"`
	SkillsDir              string `mapstructure:"skills_dir"`
	ClassesDir             string `mapstructure:"classes_dir"`
	TacticsDir             string `mapstructure:"tactics_dir"`
	ScriptInstructionLimit int    `mapstructure:"script_instruction_limit"`
	NPCDecider             string `mapstructure:"npc_decider"`
}

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Session   SessionConfig   `mapstructure:"session"`
	Telnet    TelnetConfig    `mapstructure:"telnet"`
	Health    HealthConfig    `mapstructure:"health"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Combat    CombatConfig    `mapstructure:"combat"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	for _, err := range []error{
		validateServer(c.Server),
		validateDatabase(c.Database),
		validateSession(c.Session),
		validateTelnet(c.Telnet),
		validateHealth(c.Health),
		validateLogging(c.Logging),
		validateLLM(c.LLM),
		validateRetrieval(c.Retrieval),
		validateCombat(c.Combat),
	} {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func joined(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.New(strings.Join(errs, "; "))
}

func validateServer(s ServerConfig) error {
	validModes := map[string]bool{"telnet": true, "cli": true}
	if !validModes[s.Mode] {
		return fmt.Errorf("server.mode must be one of [telnet, cli], got %q", s.Mode)
	}
	if s.Name == "" {
		return errors.New("server.name must not be empty")
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	return joined(errs)
}

func validateSession(s SessionConfig) error {
	switch s.Store {
	case StoreMemory, StorePostgres:
		return nil
	case StoreSQLite:
		if s.SQLitePath == "" {
			return errors.New("session.sqlite_path must not be empty when session.store is sqlite")
		}
		return nil
	default:
		return fmt.Errorf("session.store must be one of [memory, sqlite, postgres], got %q", s.Store)
	}
}

func validateTelnet(t TelnetConfig) error {
	var errs []string
	if t.Port < 1 || t.Port > 65535 {
		errs = append(errs, fmt.Sprintf("telnet.port must be 1-65535, got %d", t.Port))
	}
	if t.ReadTimeout < 0 {
		errs = append(errs, "telnet.read_timeout must not be negative")
	}
	if t.WriteTimeout < 0 {
		errs = append(errs, "telnet.write_timeout must not be negative")
	}
	return joined(errs)
}

func validateHealth(h HealthConfig) error {
	var errs []string
	if h.GRPCHost == "" {
		errs = append(errs, "health.grpc_host must not be empty")
	}
	if h.GRPCPort < 1 || h.GRPCPort > 65535 {
		errs = append(errs, fmt.Sprintf("health.grpc_port must be 1-65535, got %d", h.GRPCPort))
	}
	return joined(errs)
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateLLM(l LLMConfig) error {
	var errs []string
	if l.Enabled() && l.Model == "" {
		errs = append(errs, "llm.model must not be empty when llm.api_key is set")
	}
	if l.MaxTokens < 1 {
		errs = append(errs, fmt.Sprintf("llm.max_tokens must be >= 1, got %d", l.MaxTokens))
	}
	if l.Timeout < 0 {
		errs = append(errs, "llm.timeout must not be negative")
	}
	if l.Temperature < 0 || l.Temperature > 1 {
		errs = append(errs, fmt.Sprintf("llm.temperature must be within [0, 1], got %g", l.Temperature))
	}
	if l.HistoryMessages < 1 {
		errs = append(errs, fmt.Sprintf("llm.history_messages must be >= 1, got %d", l.HistoryMessages))
	}
	return joined(errs)
}

func validateRetrieval(r RetrievalConfig) error {
	var errs []string
	if r.ChunkSize < 1 {
		errs = append(errs, fmt.Sprintf("retrieval.chunk_size must be >= 1, got %d", r.ChunkSize))
	}
	if r.ChunkOverlap < 0 || r.ChunkOverlap >= r.ChunkSize {
		errs = append(errs, fmt.Sprintf("retrieval.chunk_overlap must be within [0, chunk_size), got %d", r.ChunkOverlap))
	}
	if r.TopK < 1 {
		errs = append(errs, fmt.Sprintf("retrieval.top_k must be >= 1, got %d", r.TopK))
	}
	if r.MaxContextChars < 1 {
		errs = append(errs, fmt.Sprintf("retrieval.max_context_chars must be >= 1, got %d", r.MaxContextChars))
	}
	return joined(errs)
}

func validateCombat(c CombatConfig) error {
	var errs []string
	if c.MaxNPCTurns < 1 {
		errs = append(errs, fmt.Sprintf("combat.max_npc_turns must be >= 1, got %d", c.MaxNPCTurns))
	}
	if c.HistoryWindow < 1 {
		errs = append(errs, fmt.Sprintf("combat.history_window must be >= 1, got %d", c.HistoryWindow))
	}
	if c.ScriptInstructionLimit < 0 {
		errs = append(errs, "combat.script_instruction_limit must not be negative")
	}
	switch c.NPCDecider {
	case "", DeciderAuto, DeciderModel, DeciderScript:
	default:
		errs = append(errs, fmt.Sprintf("combat.npc_decider must be one of auto, model, script; got %q", c.NPCDecider))
	}
	return joined(errs)
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with DM_ prefix
	v.SetEnvPrefix("DM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// NewViper returns a Viper instance carrying every default and the DM_
// environment binding, without a config file.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("DM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.mode", "telnet")
	v.SetDefault("server.name", "dungeonmaster")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "dm")
	v.SetDefault("database.password", "dm")
	v.SetDefault("database.name", "dungeonmaster")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("session.store", StoreMemory)
	v.SetDefault("session.sqlite_path", "data/sessions.db")

	v.SetDefault("telnet.host", "0.0.0.0")
	v.SetDefault("telnet.port", 4000)
	v.SetDefault("telnet.read_timeout", "30m")
	v.SetDefault("telnet.write_timeout", "30s")

	v.SetDefault("health.grpc_host", "127.0.0.1")
	v.SetDefault("health.grpc_port", 50051)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "claude-sonnet-4-5")
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.history_messages", 5)

	v.SetDefault("retrieval.corpus_dir", "content/rules")
	v.SetDefault("retrieval.index_path", "data/rules.db")
	v.SetDefault("retrieval.chunk_size", 256)
	v.SetDefault("retrieval.chunk_overlap", 50)
	v.SetDefault("retrieval.top_k", 3)
	v.SetDefault("retrieval.max_context_chars", 2000)

	v.SetDefault("combat.max_npc_turns", 100)
	v.SetDefault("combat.history_window", 5)
	v.SetDefault("combat.skills_dir", "content/skills")
	v.SetDefault("combat.classes_dir", "content/classes")
	v.SetDefault("combat.tactics_dir", "content/tactics")
	v.SetDefault("combat.script_instruction_limit", 100000)
	v.SetDefault("combat.npc_decider", DeciderAuto)
}
