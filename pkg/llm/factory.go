package llm

import (
	"fmt"
	"strings"
)

// Config is the configuration needed to build a Model.
type Config struct {
	OllamaURL   string
	OllamaModel string

	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string

	AnthropicKey   string
	AnthropicModel string
}

// NewFromConfig builds a Model from cfg. Priority: Ollama, then OpenAI,
// then Anthropic.
func NewFromConfig(cfg *Config) (Model, error) {
	if cfg == nil {
		return nil, fmt.Errorf("llm: configuration is required")
	}

	if cfg.OllamaURL != "" {
		if cfg.OllamaModel == "" {
			return nil, fmt.Errorf("llm: ollama URL provided but model is missing")
		}
		return NewOllamaModel(cfg.OllamaURL, cfg.OllamaModel)
	}

	if cfg.OpenAIKey != "" {
		model := cfg.OpenAIModel
		if model == "" {
			model = "gpt-4o-mini"
		}
		return NewOpenAIModel(cfg.OpenAIKey, cfg.OpenAIBaseURL, model)
	}

	if cfg.AnthropicKey != "" {
		model := cfg.AnthropicModel
		if model == "" {
			model = "claude-3-5-sonnet-latest"
		}
		return NewAnthropicModel(cfg.AnthropicKey, model)
	}

	return nil, fmt.Errorf("llm: no valid configuration found: one of Ollama, OpenAI, or Anthropic must be set")
}

// ValidateConfig checks that cfg describes at least one usable model.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("llm: configuration cannot be nil")
	}

	hasOllama := cfg.OllamaURL != ""
	hasOpenAI := cfg.OpenAIKey != ""
	hasAnthropic := cfg.AnthropicKey != ""

	if !hasOllama && !hasOpenAI && !hasAnthropic {
		return fmt.Errorf("llm: at least one of Ollama, OpenAI, or Anthropic must be configured")
	}

	if hasOllama {
		if cfg.OllamaModel == "" {
			return fmt.Errorf("llm: ollama model is required when ollama URL is provided")
		}
		if !isValidURL(cfg.OllamaURL) {
			return fmt.Errorf("llm: invalid ollama URL: %s", cfg.OllamaURL)
		}
	}

	if hasOpenAI && cfg.OpenAIBaseURL != "" && !isValidURL(cfg.OpenAIBaseURL) {
		return fmt.Errorf("llm: invalid openai base URL: %s", cfg.OpenAIBaseURL)
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
	if cfg.AnthropicKey != "" {
		return "anthropic"
	}
	return "none"
}

func isValidURL(url string) bool {
	if url == "" {
		return false
	}
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}
