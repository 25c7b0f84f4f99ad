// Package main is the entry point for the graphrag CLI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/madeindigio/graphrag/internal/config"
	"github.com/madeindigio/graphrag/internal/docloader"
	"github.com/madeindigio/graphrag/internal/engine"
	"github.com/madeindigio/graphrag/internal/storage"
	"github.com/madeindigio/graphrag/internal/storage/sqlite"
	"github.com/madeindigio/graphrag/internal/storage/surrealdb"
	"github.com/madeindigio/graphrag/internal/telemetry"
	"github.com/madeindigio/graphrag/pkg/embedder"
	"github.com/madeindigio/graphrag/pkg/llm"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: graphrag <learn|ask|health> [flags]")
		os.Exit(2)
	}
	command := os.Args[1]
	os.Args = append(os.Args[:1], os.Args[2:]...)

	// Subcommand flags must be registered before config.Load() parses
	// pflag.CommandLine, or it rejects them as unknown.
	var learnFlags *learnFlagSet
	var askFlags *askFlagSet
	switch command {
	case "learn":
		learnFlags = registerLearnFlags()
	case "ask":
		askFlags = registerAskFlags()
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.SetupLogging(); err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up logging: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng, shutdown, err := buildEngine(ctx, cfg)
	if err != nil {
		color.Red("failed to initialize engine: %v", err)
		os.Exit(1)
	}
	defer shutdown(context.Background())

	switch command {
	case "learn":
		err = runLearn(ctx, eng, learnFlags)
	case "ask":
		err = runAsk(ctx, eng, cfg, askFlags)
	case "health":
		err = runHealth(ctx, eng)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q: want learn, ask, or health\n", command)
		os.Exit(2)
	}
	if err != nil {
		color.Red("%v", err)
		os.Exit(1)
	}
}

// buildEngine wires the storage backend, embedder, LLM, and telemetry
// provider selected by cfg into a ready-to-use Engine. The returned
// shutdown func flushes metrics and disconnects the store; always defer
// it even on error paths that still return a non-nil engine.
func buildEngine(ctx context.Context, cfg *config.Config) (*engine.Engine, func(context.Context), error) {
	metricsShutdown, err := telemetry.InitProvider(ctx, telemetry.ProviderConfig{ServiceName: "graphrag"})
	if err != nil {
		return nil, nil, fmt.Errorf("telemetry: %w", err)
	}

	store, err := newStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	embedCfg := &embedder.Config{
		OpenAIKey:     cfg.OpenAIKey,
		OpenAIBaseURL: cfg.OpenAIURL,
		OpenAIModel:   cfg.OpenAIModel,
	}
	if cfg.OllamaModel != "" {
		embedCfg.OllamaURL = cfg.OllamaURL
		embedCfg.OllamaModel = cfg.OllamaModel
	}
	embed, err := embedder.NewFromConfig(embedCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("embedder: %w", err)
	}

	llmCfg := &llm.Config{
		OpenAIKey:      cfg.OpenAIKey,
		OpenAIBaseURL:  cfg.OpenAIURL,
		OpenAIModel:    cfg.LLMOpenAIModel,
		AnthropicKey:   cfg.AnthropicKey,
		AnthropicModel: cfg.AnthropicModel,
	}
	if cfg.LLMOllamaModel != "" {
		llmCfg.OllamaURL = cfg.OllamaURL
		llmCfg.OllamaModel = cfg.LLMOllamaModel
	}
	model, err := llm.NewFromConfig(llmCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("llm: %w", err)
	}

	eng, err := engine.New(engine.Dependencies{
		Store:   store,
		Embed:   embed,
		Model:   model,
		ScopeID: cfg.ScopeID,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := eng.Initialize(ctx); err != nil {
		return nil, nil, fmt.Errorf("engine: initialize: %w", err)
	}

	shutdown := func(shutdownCtx context.Context) {
		if err := eng.Cleanup(shutdownCtx); err != nil {
			slog.Warn("engine cleanup failed", "error", err)
		}
		if err := metricsShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown failed", "error", err)
		}
	}
	return eng, shutdown, nil
}

func newStore(cfg *config.Config) (storage.Provider, error) {
	switch cfg.StoreBackend {
	case "sqlite":
		return sqlite.New(sqlite.Config{Path: cfg.DbPath}), nil
	case "surrealdb":
		return surrealdb.New(surrealdb.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
		}), nil
	default:
		return nil, fmt.Errorf("unknown store-backend %q", cfg.StoreBackend)
	}
}

// learnFlagSet holds the learn subcommand's flags, registered on the
// global pflag.CommandLine before config.Load() parses it.
type learnFlagSet struct {
	file        *string
	contextID   *string
	contextName *string
}

func registerLearnFlags() *learnFlagSet {
	return &learnFlagSet{
		file:        pflag.String("file", "", "Path to a .pdf/.xlsx/.xls/.txt file to ingest instead of stdin"),
		contextID:   pflag.String("context-id", "", "Context id to stamp onto created nodes"),
		contextName: pflag.String("context-name", "", "Human-readable context name"),
	}
}

func runLearn(ctx context.Context, eng *engine.Engine, flags *learnFlagSet) error {
	text, err := readLearnInput(*flags.file)
	if err != nil {
		return err
	}

	chunks := docloader.Chunk(text, 8000)
	if len(chunks) == 0 {
		return fmt.Errorf("learn: no text to ingest")
	}

	for i, chunk := range chunks {
		result, err := eng.Learn(ctx, chunk, engine.LearnOptions{
			ContextID:   *flags.contextID,
			ContextName: *flags.contextName,
		})
		if err != nil {
			return fmt.Errorf("learn: chunk %d/%d: %w", i+1, len(chunks), err)
		}
		color.Green("chunk %d/%d: document=%s entities=%d relationships=%d",
			i+1, len(chunks), result.Document.ID, len(result.Entities), len(result.Relationships))
		for _, w := range result.Warnings {
			color.Yellow("  warning: %s", w)
		}
	}
	return nil
}

func readLearnInput(file string) (string, error) {
	if file == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("learn: reading stdin: %w", err)
		}
		return string(data), nil
	}
	if strings.HasSuffix(strings.ToLower(file), ".pdf") ||
		strings.HasSuffix(strings.ToLower(file), ".xlsx") ||
		strings.HasSuffix(strings.ToLower(file), ".xls") {
		return docloader.Load(file)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("learn: reading %s: %w", file, err)
	}
	return string(data), nil
}

// askFlagSet holds the ask subcommand's flags. Defaults for strategy and
// max-depth come from cfg (read only after config.Load() parses), so the
// flags themselves default to the zero value and runAsk backfills from
// cfg when the user didn't pass one explicitly.
type askFlagSet struct {
	strategy *string
	maxDepth *int
	stats    *bool
}

func registerAskFlags() *askFlagSet {
	return &askFlagSet{
		strategy: pflag.String("strategy", "", "Retrieval strategy: documents, entities, or both"),
		maxDepth: pflag.Int("max-depth", 0, "Subgraph expansion depth"),
		stats:    pflag.Bool("stats", false, "Include per-stage timing/counts in the output"),
	}
}

func runAsk(ctx context.Context, eng *engine.Engine, cfg *config.Config, flags *askFlagSet) error {
	strategy := *flags.strategy
	if strategy == "" {
		strategy = cfg.DefaultStrategy
	}
	maxDepth := *flags.maxDepth
	if maxDepth == 0 {
		maxDepth = cfg.DefaultMaxDepth
	}

	query := strings.Join(pflag.Args(), " ")
	if query == "" {
		return fmt.Errorf("ask: a question is required, e.g. graphrag ask \"who founded Acme?\"")
	}

	result, err := eng.Ask(ctx, query, engine.AskOptions{
		Strategy:            engine.Strategy(strategy),
		MaxDepth:            maxDepth,
		SimilarityThreshold: cfg.SimilarityThreshold,
		IncludeStats:        *flags.stats,
	})
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}

	color.Cyan("%s", result.Answer)
	if result.Stats != nil {
		enc, _ := json.MarshalIndent(result.Stats, "", "  ")
		fmt.Fprintln(os.Stderr, string(enc))
	}
	return nil
}

func runHealth(ctx context.Context, eng *engine.Engine) error {
	health := eng.HealthCheck(ctx)
	enc, err := json.MarshalIndent(health, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(enc))
	switch health.Status {
	case engine.HealthHealthy:
		color.Green("status: %s", health.Status)
	case engine.HealthDegraded:
		color.Yellow("status: %s", health.Status)
	default:
		color.Red("status: %s", health.Status)
	}
	return nil
}
