package config

import "time"

// Config holds all application configuration.
type Config struct {
	LLM  LLMConfig  `mapstructure:"llm"`
	Log  LogConfig  `mapstructure:"log"`
	Loop LoopConfig `mapstructure:"loop"`
}

// LLMConfig configures provider selection and the providers themselves.
// Immutable once loaded.
type LLMConfig struct {
	// Provider is "auto" or a pinned provider name (ollama, claude, amp).
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"apiKey"`
	// OllamaURL is the base URL of the local Ollama service.
	OllamaURL string `mapstructure:"ollamaUrl"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoopConfig configures iteration behavior.
type LoopConfig struct {
	MaxIterations int    `mapstructure:"max_iterations"`
	Pacing        string `mapstructure:"pacing"`
}

// PacingDelay parses the pacing duration, falling back to the default on
// malformed values. Pacing is best-effort tuning, not correctness.
func (c LoopConfig) PacingDelay() time.Duration {
	d, err := time.ParseDuration(c.Pacing)
	if err != nil || d < 0 {
		return 2 * time.Second
	}
	return d
}
