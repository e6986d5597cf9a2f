package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/ralph/internal/config"
)

func TestClaudeProvider_Probe(t *testing.T) {
	t.Run("key from config", func(t *testing.T) {
		t.Setenv(apiKeyEnv, "")
		p := NewClaudeProvider(config.LLMConfig{APIKey: "cfg-key"}, nil)
		assert.True(t, p.Probe(context.Background()))
	})

	t.Run("key from environment", func(t *testing.T) {
		t.Setenv(apiKeyEnv, "env-key")
		p := NewClaudeProvider(config.LLMConfig{}, nil)
		assert.True(t, p.Probe(context.Background()))
	})

	t.Run("no key anywhere", func(t *testing.T) {
		t.Setenv(apiKeyEnv, "")
		p := NewClaudeProvider(config.LLMConfig{}, nil)
		assert.False(t, p.Probe(context.Background()))
	})

	t.Run("config key wins over environment", func(t *testing.T) {
		t.Setenv(apiKeyEnv, "env-key")
		p := NewClaudeProvider(config.LLMConfig{APIKey: "cfg-key"}, nil)
		assert.Equal(t, "cfg-key", p.resolveKey())
	})
}

func TestClaudeProvider_ChatConcatenatesTextBlocks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		// Non-text blocks must be ignored by the provider.
		_, _ = w.Write([]byte(`{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-sonnet-20241022",
			"content": [
				{"type": "text", "text": "part one "},
				{"type": "tool_use", "id": "tu_01", "name": "noop", "input": {}},
				{"type": "text", "text": "part two"}
			],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 5, "output_tokens": 7}
		}`))
	}))
	defer server.Close()

	p := NewClaudeProvider(
		config.LLMConfig{APIKey: "test-key", Model: "claude-3-5-sonnet-20241022"},
		nil,
		option.WithBaseURL(server.URL),
	)

	got, err := p.Chat(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "part one part two", got)
}

func TestClaudeProvider_ChatErrorIsTyped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer server.Close()

	p := NewClaudeProvider(
		config.LLMConfig{APIKey: "bad-key", Model: "claude-3-5-sonnet-20241022"},
		nil,
		option.WithBaseURL(server.URL),
		option.WithMaxRetries(0),
	)

	_, err := p.Chat(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "claude")
}
