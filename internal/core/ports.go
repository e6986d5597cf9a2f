package core

import "context"

// =============================================================================
// Provider Port
// =============================================================================

// Provider defines the contract for LLM provider adapters. Each adapter wraps
// one way of obtaining a model response (local Ollama service, hosted Claude
// API, amp CLI).
type Provider interface {
	// Name returns the provider identifier (e.g., "ollama", "claude", "amp").
	Name() string

	// Probe reports whether the provider is usable right now. Expected
	// absence (service down, missing key, binary not installed) returns
	// false; Probe never fails the run.
	Probe(ctx context.Context) bool

	// Chat sends the full prompt as a single message and returns the full
	// response text. Transport, auth, and protocol failures surface as a
	// provider-call DomainError; Chat does not retry internally.
	Chat(ctx context.Context, prompt string) (string, error)
}

// Provider names form a closed set. Selection logic operates over the
// Provider interface; these constants exist for config pinning and priority
// ordering only.
const (
	ProviderOllama = "ollama"
	ProviderClaude = "claude"
	ProviderAmp    = "amp"
)

// ProviderAuto is the config value requesting automatic provider detection.
const ProviderAuto = "auto"

// CompletionMarker is the literal substring whose presence in a response
// ends the loop successfully. Matched verbatim; never parsed.
const CompletionMarker = "<promise>COMPLETE</promise>"

// IterationResult carries the outcome of one loop pass. Exactly one of
// Output/Err is meaningful: a failed exchange yields Err and an empty
// Output, and is treated by the loop as a non-completing iteration.
type IterationResult struct {
	Output   string
	Complete bool
	Err      error
}
