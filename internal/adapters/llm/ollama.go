package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hugo-lorenzo-mato/ralph/internal/config"
	"github.com/hugo-lorenzo-mato/ralph/internal/core"
	"github.com/hugo-lorenzo-mato/ralph/internal/logging"
)

// OllamaProvider implements core.Provider against a local Ollama service.
type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
	logger  *logging.Logger
}

// NewOllamaProvider creates a new Ollama provider.
func NewOllamaProvider(cfg config.LLMConfig, logger *logging.Logger) *OllamaProvider {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &OllamaProvider{
		baseURL: strings.TrimRight(cfg.OllamaURL, "/"),
		model:   cfg.Model,
		client:  &http.Client{},
		logger:  logger.WithProvider(core.ProviderOllama),
	}
}

// Name returns the provider identifier.
func (p *OllamaProvider) Name() string {
	return core.ProviderOllama
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Probe checks that the service is reachable and the configured model is
// present in its listing. I/O failures mean "unavailable", never an error.
func (p *OllamaProvider) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Debug("ollama probe failed", "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.logger.Debug("ollama probe failed", "status", resp.StatusCode)
		return false
	}

	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		p.logger.Debug("ollama probe failed", "error", err)
		return false
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return modelListed(p.model, names)
}

// modelListed reports whether the configured model matches any listed model:
// exact name, name with an implicit :latest suffix, or name as the component
// before a ":" tag separator ("llama3.1" matches "llama3.1:8b" but not
// "llama3" or "codellama3.1").
func modelListed(model string, names []string) bool {
	for _, name := range names {
		if name == model {
			return true
		}
		if name == model+":latest" {
			return true
		}
		if strings.HasPrefix(name, model+":") {
			return true
		}
	}
	return false
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
}

// Chat sends the prompt as a single user message and returns the reply text.
func (p *OllamaProvider) Chat(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(ollamaChatRequest{
		Model:    p.model,
		Messages: []ollamaMessage{{Role: "user", Content: prompt}},
		Stream:   false,
	})
	if err != nil {
		return "", core.ErrProviderCall(core.ProviderOllama, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", core.ErrProviderCall(core.ProviderOllama, err)
	}
	req.Header.Set("Content-Type", "application/json")

	p.logger.Debug("ollama: sending chat request", "model", p.model, "prompt_length", len(prompt))

	resp, err := p.client.Do(req)
	if err != nil {
		return "", core.ErrProviderCall(core.ProviderOllama, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", core.ErrProviderCall(core.ProviderOllama,
			fmt.Errorf("unexpected status %d from %s", resp.StatusCode, p.baseURL+"/api/chat"))
	}

	var chat ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return "", core.ErrProviderCall(core.ProviderOllama, fmt.Errorf("decoding response: %w", err))
	}

	return chat.Message.Content, nil
}
