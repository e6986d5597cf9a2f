package llm

import (
	"context"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hugo-lorenzo-mato/ralph/internal/config"
	"github.com/hugo-lorenzo-mato/ralph/internal/core"
	"github.com/hugo-lorenzo-mato/ralph/internal/logging"
)

// apiKeyEnv is the well-known environment variable consulted when the config
// carries no key.
const apiKeyEnv = "ANTHROPIC_API_KEY"

// claudeMaxTokens bounds a single reply. The loop keys off a marker
// substring, not long-form output.
const claudeMaxTokens = 4096

// ClaudeProvider implements core.Provider against the hosted Anthropic API.
type ClaudeProvider struct {
	apiKey     string
	model      string
	logger     *logging.Logger
	clientOpts []option.RequestOption
}

// NewClaudeProvider creates a new Claude provider. Extra request options are
// applied to the API client, which lets tests point it at a local server.
func NewClaudeProvider(cfg config.LLMConfig, logger *logging.Logger, opts ...option.RequestOption) *ClaudeProvider {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ClaudeProvider{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		logger:     logger.WithProvider(core.ProviderClaude),
		clientOpts: opts,
	}
}

// Name returns the provider identifier.
func (p *ClaudeProvider) Name() string {
	return core.ProviderClaude
}

// resolveKey returns the configured key, falling back to the environment.
func (p *ClaudeProvider) resolveKey() string {
	if p.apiKey != "" {
		return p.apiKey
	}
	return os.Getenv(apiKeyEnv)
}

// Probe reports whether an API key is available. No network call is made;
// an invalid key surfaces later as a per-iteration chat failure.
func (p *ClaudeProvider) Probe(_ context.Context) bool {
	return p.resolveKey() != ""
}

// Chat sends the prompt as a single user message and returns the
// concatenation of the text-typed content blocks in the reply. Non-text
// blocks are ignored.
func (p *ClaudeProvider) Chat(ctx context.Context, prompt string) (string, error) {
	opts := append([]option.RequestOption{option.WithAPIKey(p.resolveKey())}, p.clientOpts...)
	client := anthropic.NewClient(opts...)

	p.logger.Debug("claude: sending message", "model", p.model, "prompt_length", len(prompt))

	resp, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: claudeMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", core.ErrProviderCall(core.ProviderClaude, err)
	}

	var text string
	for _, block := range resp.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			text += tb.Text
		}
	}
	return text, nil
}
