// Package config holds the configuration structures for the graphrag engine.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the full runtime configuration for the engine.
type Config struct {
	// Store backend selection: "surrealdb" or "sqlite".
	StoreBackend string `mapstructure:"store-backend"`
	DbPath       string `mapstructure:"db-path"`

	SurrealDBURL       string `mapstructure:"surrealdb-url"`
	SurrealDBUser      string `mapstructure:"surrealdb-user"`
	SurrealDBPass      string `mapstructure:"surrealdb-pass"`
	SurrealDBNamespace string `mapstructure:"surrealdb-namespace"`
	SurrealDBDatabase  string `mapstructure:"surrealdb-database"`

	OllamaURL   string `mapstructure:"ollama-url"`
	OllamaModel string `mapstructure:"ollama-model"`

	OpenAIKey   string `mapstructure:"openai-key"`
	OpenAIURL   string `mapstructure:"openai-url"`
	OpenAIModel string `mapstructure:"openai-model"`

	LLMOllamaModel  string `mapstructure:"llm-ollama-model"`
	LLMOpenAIModel  string `mapstructure:"llm-openai-model"`
	AnthropicKey    string `mapstructure:"anthropic-key"`
	AnthropicModel  string `mapstructure:"anthropic-model"`
	LLMTemperature  float64 `mapstructure:"llm-temperature"`

	ScopeID       string `mapstructure:"scope-id"`
	ScopeType     string `mapstructure:"scope-type"`
	ScopeName     string `mapstructure:"scope-name"`

	SimilarityThreshold float64 `mapstructure:"similarity-threshold"`
	DefaultStrategy     string  `mapstructure:"default-strategy"`
	DefaultMaxDepth     int     `mapstructure:"default-max-depth"`

	LogFile          string `mapstructure:"log"`
	DisableOutputLog bool   `mapstructure:"disable-output-log"`
}

// Load loads the configuration from CLI flags, an optional YAML file, and
// environment variables (prefix GRAPHRAG_).
func Load() (*Config, error) {
	pflag.String("config", "", "Path to YAML configuration file")

	pflag.String("store-backend", "sqlite", "Graph/vector store backend: sqlite or surrealdb")
	pflag.String("db-path", "./graphrag.db", "Path to the embedded SQLite database")
	pflag.String("surrealdb-url", "", "URL for the remote SurrealDB instance")
	pflag.String("surrealdb-user", "root", "Username for SurrealDB")
	pflag.String("surrealdb-pass", "root", "Password for SurrealDB")
	pflag.String("surrealdb-namespace", "graphrag", "Namespace for SurrealDB")
	pflag.String("surrealdb-database", "graphrag", "Database for SurrealDB")

	pflag.String("ollama-url", "http://localhost:11434", "URL for the Ollama server")
	pflag.String("ollama-model", "", "Ollama model to use for embeddings")
	pflag.String("openai-key", "", "OpenAI API key")
	pflag.String("openai-url", "https://api.openai.com/v1", "OpenAI base URL")
	pflag.String("openai-model", "text-embedding-3-large", "OpenAI model to use for embeddings")

	pflag.String("llm-ollama-model", "", "Ollama model to use for generation")
	pflag.String("llm-openai-model", "gpt-4o-mini", "OpenAI model to use for generation")
	pflag.String("anthropic-key", "", "Anthropic API key")
	pflag.String("anthropic-model", "claude-3-5-sonnet-latest", "Anthropic model to use for generation")
	pflag.Float64("llm-temperature", 0.2, "Sampling temperature setting; not passed to the engine, whose extraction and answer calls use fixed temperatures of 0.3 and 0.2")

	pflag.String("scope-id", "", "Tenant scope id; learn fails if unset")
	pflag.String("scope-type", "", "Tenant scope type")
	pflag.String("scope-name", "", "Tenant scope display name")

	pflag.Float64("similarity-threshold", 0.7, "Default similarity threshold floor for Ask")
	pflag.String("default-strategy", "both", "Default Ask retrieval strategy: documents, entities, or both")
	pflag.Int("default-max-depth", 2, "Default subgraph expansion depth for Ask")

	pflag.String("log", "", "Path to the log file (logs will be written to both stdout and file)")
	pflag.Bool("disable-output-log", false, "Disable logging to stdout/stderr; only write to log file if configured")

	flag.Bool("version", false, "Print version and exit")
	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)
	pflag.Parse()

	if ver := pflag.Lookup("version"); ver != nil && ver.Value.String() == "true" {
		fmt.Println("graphrag (development build)")
		os.Exit(0)
	}

	v := viper.New()

	configPath := pflag.Lookup("config").Value.String()
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		configFound := false
		if homeDir, err := os.UserHomeDir(); err == nil {
			var standardConfigPath string
			if runtime.GOOS == "darwin" {
				standardConfigPath = filepath.Join(homeDir, "Library", "Application Support", "graphrag", "config.yaml")
			} else {
				standardConfigPath = filepath.Join(homeDir, ".config", "graphrag", "config.yaml")
			}
			if _, err := os.Stat(standardConfigPath); err == nil {
				v.SetConfigFile(standardConfigPath)
				if err := v.ReadInConfig(); err == nil {
					configFound = true
					slog.Info("using configuration file from standard location", "path", standardConfigPath)
				}
			}
		}
		if !configFound {
			slog.Info("no configuration file found, using environment variables and defaults")
		}
	}

	if err := v.BindPFlags(pflag.CommandLine); err != nil {
		return nil, fmt.Errorf("failed to bind pflags: %w", err)
	}

	v.SetEnvPrefix("GRAPHRAG")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks local invariants needed before the engine can start.
func (c *Config) Validate() error {
	if c.OllamaModel == "" && c.OpenAIKey == "" {
		return errors.New("at least one embedder (Ollama or OpenAI) must be configured")
	}
	switch c.StoreBackend {
	case "sqlite":
		if c.DbPath == "" {
			return errors.New("db-path must be set when store-backend is sqlite")
		}
	case "surrealdb":
		if c.SurrealDBURL == "" {
			return errors.New("surrealdb-url must be set when store-backend is surrealdb")
		}
	default:
		return fmt.Errorf("unknown store-backend %q: want sqlite or surrealdb", c.StoreBackend)
	}
	return nil
}

// ValidationResult is the pure, non-fatal configuration report returned by
// ValidateConfig — distinct from Validate, which a binary would call
// before startup to fail fast.
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// ValidateConfig reports missing store credentials, missing LLM/embedding
// keys when those sections are present, missing scope fields when a scope
// is provided, and warns on unexpected URI schemes. It never mutates cfg
// and never exits the process.
func ValidateConfig(cfg *Config) ValidationResult {
	var errs, warns []string

	switch cfg.StoreBackend {
	case "sqlite":
		if cfg.DbPath == "" {
			errs = append(errs, "store: db-path is required for the sqlite backend")
		}
	case "surrealdb":
		if cfg.SurrealDBURL == "" {
			errs = append(errs, "store: surrealdb-url is required for the surrealdb backend")
		} else if u, err := url.Parse(cfg.SurrealDBURL); err != nil || u.Host == "" ||
			!map[string]bool{"ws": true, "wss": true, "http": true, "https": true}[strings.ToLower(u.Scheme)] {
			warns = append(warns, "store: surrealdb-url does not look like a ws(s)/http(s) URI")
		}
		if cfg.SurrealDBUser == "" || cfg.SurrealDBPass == "" {
			errs = append(errs, "store: surrealdb-user and surrealdb-pass are required for the surrealdb backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("store: unknown backend %q", cfg.StoreBackend))
	}

	if cfg.OllamaModel == "" && cfg.OpenAIKey == "" {
		errs = append(errs, "embedding: either ollama-model or openai-key must be configured")
	}
	if cfg.OllamaURL != "" && !isValidURL(cfg.OllamaURL) {
		warns = append(warns, "embedding: ollama-url does not look like a valid URI")
	}

	if cfg.LLMOllamaModel == "" && cfg.OpenAIKey == "" && cfg.AnthropicKey == "" {
		errs = append(errs, "llm: one of llm-ollama-model, openai-key, or anthropic-key must be configured")
	}

	if cfg.ScopeID == "" && (cfg.ScopeType != "" || cfg.ScopeName != "") {
		errs = append(errs, "scope: scope-id is required when scope-type or scope-name is set")
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs, Warnings: warns}
}

func isValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}
	return true
}

// Getenv reads an environment variable or returns a default value.
func Getenv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// SetupLogging configures slog output to stdout/stderr and, optionally, a
// log file.
func (c *Config) SetupLogging() error {
	var writers []io.Writer

	if !c.DisableOutputLog {
		writers = append(writers, os.Stderr)
	}

	if c.LogFile != "" {
		logFile, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", c.LogFile, err)
		}
		writers = append(writers, logFile)
	}

	if len(writers) == 0 {
		writers = append(writers, io.Discard)
	}

	multiWriter := io.MultiWriter(writers...)
	handler := slog.NewTextHandler(multiWriter, &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: false,
	})
	slog.SetDefault(slog.New(handler))

	return nil
}
