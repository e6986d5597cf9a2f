// Package service holds the run session: provider selection and the bounded
// iteration loop.
package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/hugo-lorenzo-mato/ralph/internal/config"
	"github.com/hugo-lorenzo-mato/ralph/internal/core"
	"github.com/hugo-lorenzo-mato/ralph/internal/diagnostics"
	"github.com/hugo-lorenzo-mato/ralph/internal/logging"
	"github.com/hugo-lorenzo-mato/ralph/internal/runstate"
)

var (
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Border(lipgloss.DoubleBorder(), true, false).
			Padding(0, 2)

	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("10"))

	failStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("9"))
)

// Runner is the run session, constructed once at startup: resolved config,
// run-state manager, and the memoized provider selector. No package-level
// mutable state.
type Runner struct {
	cfg      *config.Config
	state    *runstate.Manager
	selector *Selector
	logger   *logging.Logger
	runID    string

	// out receives status lines (stdout); rawOut receives provider output
	// and diagnostics (stderr).
	out    io.Writer
	rawOut io.Writer

	// sleep is swapped out by tests to observe pacing without waiting.
	sleep  func(time.Duration)
	pacing time.Duration

	// preflight gathers host resource warnings; nil disables the check.
	preflight func(string) diagnostics.PreflightResult
}

// NewRunner creates a runner for one loop session.
func NewRunner(cfg *config.Config, state *runstate.Manager, selector *Selector, logger *logging.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	runID := uuid.NewString()
	return &Runner{
		cfg:       cfg,
		state:     state,
		selector:  selector,
		logger:    logger.WithRun(runID),
		runID:     runID,
		out:       os.Stdout,
		rawOut:    os.Stderr,
		sleep:     time.Sleep,
		pacing:    cfg.Loop.PacingDelay(),
		preflight: diagnostics.RunPreflight,
	}
}

// Run executes the loop: setup, provider detection, then up to maxIterations
// prompt/response exchanges. Returns the terminal status; err carries detail
// for non-completed outcomes that had a cause beyond budget exhaustion.
func (r *Runner) Run(ctx context.Context, maxIterations int) (core.RunStatus, error) {
	if maxIterations < 1 {
		return core.RunStartupFailed, core.ErrValidation("BAD_ITERATIONS",
			fmt.Sprintf("max iterations must be positive, got %d", maxIterations))
	}

	if err := r.state.Setup(); err != nil {
		r.logger.Error("run setup failed", "error", err)
		return core.RunStartupFailed, err
	}

	if r.preflight != nil {
		for _, w := range r.preflight(r.state.Dir()).Warnings {
			r.logger.Warn("preflight warning", "warning", w)
		}
	}

	provider, err := r.selector.Select(ctx)
	if err != nil {
		r.logger.Error("provider detection failed", "error", err)
		fmt.Fprintln(r.rawOut, failStyle.Render("Error: ")+err.Error())
		return core.RunStartupFailed, err
	}

	r.logger.Info("starting loop",
		"provider", provider.Name(),
		"model", r.cfg.LLM.Model,
		"max_iterations", maxIterations,
	)
	fmt.Fprintf(r.out, "Starting Ralph - Max iterations: %d\n", maxIterations)
	fmt.Fprintf(r.out, "Using provider: %s (model: %s)\n\n", provider.Name(), r.cfg.LLM.Model)

	for i := 1; i <= maxIterations; i++ {
		fmt.Fprintln(r.out, bannerStyle.Render(fmt.Sprintf("Ralph Iteration %d of %d", i, maxIterations)))

		result := r.runIteration(ctx, provider)

		switch {
		case result.Err != nil:
			// Contained at iteration granularity: report, then keep going
			// as a non-completing iteration.
			r.logger.WithIteration(i).Error("iteration failed",
				"error", result.Err,
				"category", core.GetCategory(result.Err),
			)
			fmt.Fprintf(r.rawOut, "Error in iteration %d: %+v\n", i, result.Err)
		case result.Complete:
			fmt.Fprintln(r.out, successStyle.Render("Ralph completed all tasks!"))
			fmt.Fprintf(r.out, "Completed at iteration %d of %d\n", i, maxIterations)
			r.logger.Info("completion marker observed", "iteration", i)
			return core.RunCompleted, nil
		default:
			fmt.Fprintf(r.out, "Iteration %d complete. Continuing...\n", i)
		}

		if ctx.Err() != nil {
			r.logger.Info("run cancelled", "iteration", i)
			return core.RunExhausted, ctx.Err()
		}
		if i < maxIterations {
			r.sleep(r.pacing)
		}
	}

	fmt.Fprintln(r.out, failStyle.Render(
		fmt.Sprintf("Ralph reached max iterations (%d) without completing all tasks.", maxIterations)))
	fmt.Fprintf(r.out, "Check %s for status.\n", r.state.ProgressPath())
	r.logger.Info("iteration budget exhausted", "max_iterations", maxIterations)
	return core.RunExhausted, nil
}

// runIteration performs a single prompt/response exchange. All failure modes
// land in the result; the loop decides what survives them.
func (r *Runner) runIteration(ctx context.Context, provider core.Provider) core.IterationResult {
	prompt, err := r.state.ReadPrompt()
	if err != nil {
		return core.IterationResult{Err: err}
	}

	output, err := provider.Chat(ctx, prompt)
	if err != nil {
		return core.IterationResult{Err: err}
	}

	// Raw output goes to stderr for observability; the progress log is the
	// model's to write, not ours.
	fmt.Fprintln(r.rawOut, output)

	return core.IterationResult{
		Output:   output,
		Complete: strings.Contains(output, core.CompletionMarker),
	}
}

// RunID returns the unique identifier of this session.
func (r *Runner) RunID() string {
	return r.runID
}
