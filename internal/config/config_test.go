package config

import "testing"

func TestValidateConfigMissingEmbedder(t *testing.T) {
	cfg := &Config{
		StoreBackend: "sqlite",
		DbPath:       "./test.db",
	}
	res := ValidateConfig(cfg)
	if res.Valid {
		t.Fatal("ValidateConfig() valid = true, want false when no embedder is configured")
	}
	found := false
	for _, e := range res.Errors {
		if e == "embedding: either ollama-model or openai-key must be configured" {
			found = true
		}
	}
	if !found {
		t.Errorf("ValidateConfig() errors = %v, want embedding error", res.Errors)
	}
}

func TestValidateConfigSurrealDBRequiresURL(t *testing.T) {
	cfg := &Config{
		StoreBackend: "surrealdb",
		OllamaModel:  "nomic-embed-text",
		LLMOllamaModel: "llama3",
	}
	res := ValidateConfig(cfg)
	if res.Valid {
		t.Fatal("ValidateConfig() valid = true, want false when surrealdb-url is missing")
	}
}

func TestValidateConfigScopeRequiresID(t *testing.T) {
	cfg := &Config{
		StoreBackend:   "sqlite",
		DbPath:         "./test.db",
		OllamaModel:    "nomic-embed-text",
		LLMOllamaModel: "llama3",
		ScopeName:      "Acme",
	}
	res := ValidateConfig(cfg)
	if res.Valid {
		t.Fatal("ValidateConfig() valid = true, want false when scope-name is set without scope-id")
	}
}

func TestValidateConfigWarnsOnBadOllamaURL(t *testing.T) {
	cfg := &Config{
		StoreBackend:   "sqlite",
		DbPath:         "./test.db",
		OllamaModel:    "nomic-embed-text",
		LLMOllamaModel: "llama3",
		OllamaURL:      "not-a-url",
	}
	res := ValidateConfig(cfg)
	if !res.Valid {
		t.Fatalf("ValidateConfig() valid = false, want true; errors: %v", res.Errors)
	}
	if len(res.Warnings) == 0 {
		t.Error("ValidateConfig() warnings = empty, want a warning about ollama-url")
	}
}

func TestValidateConfigHappyPath(t *testing.T) {
	cfg := &Config{
		StoreBackend:   "sqlite",
		DbPath:         "./test.db",
		OllamaModel:    "nomic-embed-text",
		LLMOllamaModel: "llama3",
		ScopeID:        "tenant-1",
		ScopeName:      "Acme",
	}
	res := ValidateConfig(cfg)
	if !res.Valid {
		t.Fatalf("ValidateConfig() valid = false, want true; errors: %v", res.Errors)
	}
	if len(res.Errors) != 0 {
		t.Errorf("ValidateConfig() errors = %v, want none", res.Errors)
	}
}
