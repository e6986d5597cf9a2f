// Package llm provides the provider adapters for obtaining model responses:
// a local Ollama service, the hosted Anthropic API, and the amp CLI.
package llm

import (
	"github.com/hugo-lorenzo-mato/ralph/internal/config"
	"github.com/hugo-lorenzo-mato/ralph/internal/core"
	"github.com/hugo-lorenzo-mato/ralph/internal/logging"
)

// Build constructs all provider adapters in detection priority order:
// ollama first, then claude, then amp. The selector probes them in slice
// order, so ordering here is load-bearing.
func Build(cfg config.LLMConfig, logger *logging.Logger) []core.Provider {
	return []core.Provider{
		NewOllamaProvider(cfg, logger),
		NewClaudeProvider(cfg, logger),
		NewAmpProvider("", logger),
	}
}
