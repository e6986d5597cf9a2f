package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/hugo-lorenzo-mato/ralph/internal/core"
	"github.com/hugo-lorenzo-mato/ralph/internal/logging"
)

// Selector picks the provider for a run: an explicit pin is honored
// verbatim, otherwise providers are probed in priority order. The choice is
// memoized for the lifetime of the run.
type Selector struct {
	providers []core.Provider
	pinned    string
	logger    *logging.Logger

	once   sync.Once
	chosen core.Provider
	err    error
}

// NewSelector creates a selector over providers in probe priority order.
// pinned is a provider name, or "auto"/"" for detection.
func NewSelector(providers []core.Provider, pinned string, logger *logging.Logger) *Selector {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Selector{
		providers: providers,
		pinned:    pinned,
		logger:    logger,
	}
}

// Select returns the provider for this run. Computed once; later calls
// return the cached result, including a cached failure.
func (s *Selector) Select(ctx context.Context) (core.Provider, error) {
	s.once.Do(func() {
		s.chosen, s.err = s.detect(ctx)
	})
	return s.chosen, s.err
}

func (s *Selector) detect(ctx context.Context) (core.Provider, error) {
	if s.pinned != "" && s.pinned != core.ProviderAuto {
		for _, p := range s.providers {
			if p.Name() == s.pinned {
				s.logger.Info("provider pinned by config", "provider", s.pinned)
				return p, nil
			}
		}
		return nil, core.ErrValidation(core.CodeUnknownProvider,
			fmt.Sprintf("unknown provider %q: expected one of ollama, claude, amp", s.pinned))
	}

	for _, p := range s.providers {
		if p.Probe(ctx) {
			s.logger.Info("provider detected", "provider", p.Name())
			return p, nil
		}
		s.logger.Debug("provider unavailable", "provider", p.Name())
	}

	return nil, core.ErrNoProvider()
}
