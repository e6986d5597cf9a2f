package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hugo-lorenzo-mato/ralph/internal/core"
)

func TestLoader_MissingFileUsesDefaults(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "config.json"))
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !loader.FileMissing() {
		t.Error("FileMissing() = false, want true")
	}
	if cfg.LLM.Provider != "auto" {
		t.Errorf("LLM.Provider = %q, want %q", cfg.LLM.Provider, "auto")
	}
	if cfg.LLM.Model != "llama3.1" {
		t.Errorf("LLM.Model = %q, want %q", cfg.LLM.Model, "llama3.1")
	}
	if cfg.LLM.APIKey != "" {
		t.Errorf("LLM.APIKey = %q, want empty", cfg.LLM.APIKey)
	}
	if cfg.LLM.OllamaURL != "http://localhost:11434" {
		t.Errorf("LLM.OllamaURL = %q, want default", cfg.LLM.OllamaURL)
	}
	if cfg.Loop.MaxIterations != 10 {
		t.Errorf("Loop.MaxIterations = %d, want 10", cfg.Loop.MaxIterations)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}
}

func TestLoader_ReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{
  "llm": {
    "provider": "claude",
    "model": "claude-3-5-sonnet-20241022",
    "apiKey": "test-key",
    "ollamaUrl": "http://ollama.internal:11434"
  },
  "loop": {"max_iterations": 25, "pacing": "500ms"}
}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(path)
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loader.FileMissing() {
		t.Error("FileMissing() = true, want false")
	}
	if cfg.LLM.Provider != "claude" {
		t.Errorf("LLM.Provider = %q, want %q", cfg.LLM.Provider, "claude")
	}
	if cfg.LLM.Model != "claude-3-5-sonnet-20241022" {
		t.Errorf("LLM.Model = %q", cfg.LLM.Model)
	}
	if cfg.LLM.APIKey != "test-key" {
		t.Errorf("LLM.APIKey = %q, want %q", cfg.LLM.APIKey, "test-key")
	}
	if cfg.LLM.OllamaURL != "http://ollama.internal:11434" {
		t.Errorf("LLM.OllamaURL = %q", cfg.LLM.OllamaURL)
	}
	if cfg.Loop.MaxIterations != 25 {
		t.Errorf("Loop.MaxIterations = %d, want 25", cfg.Loop.MaxIterations)
	}
	if got := cfg.Loop.PacingDelay(); got != 500*time.Millisecond {
		t.Errorf("PacingDelay() = %v, want 500ms", got)
	}
}

func TestLoader_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"llm": {"model": "qwen2.5-coder"}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LLM.Model != "qwen2.5-coder" {
		t.Errorf("LLM.Model = %q, want %q", cfg.LLM.Model, "qwen2.5-coder")
	}
	if cfg.LLM.Provider != "auto" {
		t.Errorf("LLM.Provider = %q, want default %q", cfg.LLM.Provider, "auto")
	}
	if cfg.LLM.OllamaURL != "http://localhost:11434" {
		t.Errorf("LLM.OllamaURL = %q, want default", cfg.LLM.OllamaURL)
	}
}

func TestLoader_MalformedJSONIsFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"llm": {`), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewLoader(path).Load()
	if err == nil {
		t.Fatal("Load() with malformed JSON should fail")
	}

	var domErr *core.DomainError
	if !errors.As(err, &domErr) {
		t.Fatalf("error type = %T, want *core.DomainError", err)
	}
	if domErr.Code != core.CodeConfigParseFailed {
		t.Errorf("Code = %q, want %q", domErr.Code, core.CodeConfigParseFailed)
	}
}

func TestLoader_EnvOverride(t *testing.T) {
	t.Setenv("RALPH_LLM_MODEL", "mistral")
	t.Setenv("RALPH_LOOP_MAX_ITERATIONS", "3")

	loader := NewLoader(filepath.Join(t.TempDir(), "config.json"))
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LLM.Model != "mistral" {
		t.Errorf("LLM.Model = %q, want env override %q", cfg.LLM.Model, "mistral")
	}
	if cfg.Loop.MaxIterations != 3 {
		t.Errorf("Loop.MaxIterations = %d, want env override 3", cfg.Loop.MaxIterations)
	}
}

func TestLoopConfig_PacingDelayFallback(t *testing.T) {
	tests := []struct {
		pacing string
		want   time.Duration
	}{
		{"2s", 2 * time.Second},
		{"150ms", 150 * time.Millisecond},
		{"", 2 * time.Second},
		{"garbage", 2 * time.Second},
		{"-5s", 2 * time.Second},
	}
	for _, tt := range tests {
		got := LoopConfig{Pacing: tt.pacing}.PacingDelay()
		if got != tt.want {
			t.Errorf("PacingDelay(%q) = %v, want %v", tt.pacing, got, tt.want)
		}
	}
}
