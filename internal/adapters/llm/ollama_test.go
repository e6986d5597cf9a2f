package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hugo-lorenzo-mato/ralph/internal/config"
	"github.com/hugo-lorenzo-mato/ralph/internal/core"
)

func ollamaConfig(url, model string) config.LLMConfig {
	return config.LLMConfig{Model: model, OllamaURL: url}
}

func TestModelListed(t *testing.T) {
	tests := []struct {
		name   string
		model  string
		listed []string
		want   bool
	}{
		{"exact", "llama3.1", []string{"llama3.1"}, true},
		{"latest suffix", "llama3.1", []string{"llama3.1:latest"}, true},
		{"sized tag", "llama3.1", []string{"llama3.1:8b"}, true},
		{"among others", "llama3.1", []string{"mistral:7b", "llama3.1:8b"}, true},
		{"shorter name", "llama3.1", []string{"llama3"}, false},
		{"prefixed name", "llama3.1", []string{"codellama3.1"}, false},
		{"prefixed with tag", "llama3.1", []string{"codellama3.1:latest"}, false},
		{"empty listing", "llama3.1", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := modelListed(tt.model, tt.listed); got != tt.want {
				t.Errorf("modelListed(%q, %v) = %v, want %v", tt.model, tt.listed, got, tt.want)
			}
		})
	}
}

func TestOllamaProvider_Probe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]string{
				{"name": "llama3.1:latest"},
				{"name": "qwen2.5-coder:7b"},
			},
		})
	}))
	defer server.Close()

	p := NewOllamaProvider(ollamaConfig(server.URL, "llama3.1"), nil)
	if !p.Probe(context.Background()) {
		t.Error("Probe() = false, want true for listed model")
	}

	p = NewOllamaProvider(ollamaConfig(server.URL, "llama3"), nil)
	if p.Probe(context.Background()) {
		t.Error("Probe() = true, want false for unlisted model")
	}
}

func TestOllamaProvider_ProbeUnreachable(t *testing.T) {
	// Port from a closed server: connection refused must mean unavailable,
	// not an error.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	p := NewOllamaProvider(ollamaConfig(server.URL, "llama3.1"), nil)
	if p.Probe(context.Background()) {
		t.Error("Probe() = true for unreachable service")
	}
}

func TestOllamaProvider_ProbeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	p := NewOllamaProvider(ollamaConfig(server.URL, "llama3.1"), nil)
	if p.Probe(context.Background()) {
		t.Error("Probe() = true for 500 response")
	}
}

func TestOllamaProvider_Chat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req ollamaChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Stream {
			http.Error(w, "streaming not expected", http.StatusBadRequest)
			return
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			http.Error(w, "want exactly one user message", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(ollamaChatResponse{
			Message: ollamaMessage{Role: "assistant", Content: "done: " + req.Messages[0].Content},
		})
	}))
	defer server.Close()

	p := NewOllamaProvider(ollamaConfig(server.URL, "llama3.1"), nil)
	got, err := p.Chat(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if got != "done: hello" {
		t.Errorf("Chat() = %q, want %q", got, "done: hello")
	}
}

func TestOllamaProvider_ChatErrorIsTyped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	p := NewOllamaProvider(ollamaConfig(server.URL, "llama3.1"), nil)
	_, err := p.Chat(context.Background(), "hello")
	if err == nil {
		t.Fatal("Chat() error = nil, want provider call error")
	}

	var domErr *core.DomainError
	if !errors.As(err, &domErr) {
		t.Fatalf("error type = %T, want *core.DomainError", err)
	}
	if domErr.Code != core.CodeProviderCallFailed {
		t.Errorf("Code = %q, want %q", domErr.Code, core.CodeProviderCallFailed)
	}
}

func TestOllamaProvider_ChatContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewOllamaProvider(ollamaConfig(server.URL, "llama3.1"), nil)
	if _, err := p.Chat(ctx, "hello"); err == nil {
		t.Error("Chat() with cancelled context should fail")
	}
}
