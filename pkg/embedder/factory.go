package embedder

import (
	"fmt"
	"strings"
)

// Config is the configuration needed to build an Embedder.
type Config struct {
	OllamaURL   string
	OllamaModel string

	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
}

// NewFromConfig builds an Embedder from cfg. Priority: Ollama (if URL is
// set) then OpenAI (if an API key is set).
func NewFromConfig(cfg *Config) (Embedder, error) {
	if cfg == nil {
		return nil, fmt.Errorf("embedder: configuration is required")
	}

	if cfg.OllamaURL != "" {
		if cfg.OllamaModel == "" {
			return nil, fmt.Errorf("embedder: ollama URL provided but model is missing")
		}
		return NewOllamaEmbedder(cfg.OllamaURL, cfg.OllamaModel)
	}

	if cfg.OpenAIKey != "" {
		model := cfg.OpenAIModel
		if model == "" {
			model = "text-embedding-3-large"
		}
		return NewOpenAIEmbedder(cfg.OpenAIKey, cfg.OpenAIBaseURL, model)
	}

	return nil, fmt.Errorf("embedder: no valid configuration found: either OllamaURL or OpenAIKey must be set")
}

// ValidateConfig checks that cfg describes at least one usable embedder.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("embedder: configuration cannot be nil")
	}

	hasOllama := cfg.OllamaURL != ""
	hasOpenAI := cfg.OpenAIKey != ""

	if !hasOllama && !hasOpenAI {
		return fmt.Errorf("embedder: at least one of Ollama or OpenAI must be configured")
	}

	if hasOllama {
		if cfg.OllamaModel == "" {
			return fmt.Errorf("embedder: ollama model is required when ollama URL is provided")
		}
		if !isValidURL(cfg.OllamaURL) {
			return fmt.Errorf("embedder: invalid ollama URL: %s", cfg.OllamaURL)
		}
	}

	if hasOpenAI {
		if cfg.OpenAIBaseURL != "" && !isValidURL(cfg.OpenAIBaseURL) {
			return fmt.Errorf("embedder: invalid openai base URL: %s", cfg.OpenAIBaseURL)
		}
	}

	return nil
}

// TypeOf reports which backend NewFromConfig would select for cfg.
func TypeOf(cfg *Config) string {
	if cfg == nil {
		return "none"
	}
	if cfg.OllamaURL != "" {
		return "ollama"
	}
	if cfg.OpenAIKey != "" {
		return "openai"
	}
	return "none"
}

func isValidURL(url string) bool {
	if url == "" {
		return false
	}
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}
