package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `llm:
  provider: ollama
  model: qwen2.5:14b
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.BaseURL == "" {
		t.Error("ollama base_url default not applied")
	}
	if cfg.Retrieval.VectorWeight != 0.6 || cfg.Retrieval.GraphWeight != 0.4 {
		t.Errorf("retrieval weight defaults not applied: %+v", cfg.Retrieval)
	}
	if cfg.Workflow.MinDuration != 20 || cfg.Workflow.MaxDuration != 180 {
		t.Errorf("workflow duration defaults not applied: %+v", cfg.Workflow)
	}
}

func TestLoadRejectsInvalidWeights(t *testing.T) {
	path := writeConfig(t, `llm:
  provider: ollama
  model: m
retrieval:
  vector_weight: 1.5
  graph_weight: 0.4
`)
	if _, err := Load(path); err == nil {
		t.Error("expected error for weight above 1")
	}
}

func TestLoadRejectsOpenAIWithoutKey(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	path := writeConfig(t, `llm:
  provider: openai
  model: gpt-4o-mini
`)
	if _, err := Load(path); err == nil {
		t.Error("expected error for openai without api key")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LLM_MODEL", "env-model")
	t.Setenv("LLM_BASE_URL", "http://envhost:11434")

	path := writeConfig(t, `llm:
  provider: ollama
  model: file-model
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.Model != "env-model" {
		t.Errorf("model = %s, want env override", cfg.LLM.Model)
	}
	if cfg.LLM.BaseURL != "http://envhost:11434" {
		t.Errorf("base_url = %s, want env override", cfg.LLM.BaseURL)
	}
}

func TestLoadOrDefaultFallsBack(t *testing.T) {
	cfg := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	if cfg.LLM.Provider != "ollama" {
		t.Errorf("provider = %s, want default", cfg.LLM.Provider)
	}
	if err := cfg.validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadRejectsInvalidDurationBounds(t *testing.T) {
	path := writeConfig(t, `llm:
  provider: ollama
  model: m
workflow:
  min_duration: 100
  max_duration: 30
`)
	if _, err := Load(path); err == nil {
		t.Error("expected error for inverted duration bounds")
	}
}
