package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/ralph/internal/adapters/llm"
	"github.com/hugo-lorenzo-mato/ralph/internal/core"
	"github.com/hugo-lorenzo-mato/ralph/internal/runstate"
	"github.com/hugo-lorenzo-mato/ralph/internal/service"
)

func runLoop(cmd *cobra.Command, args []string) error {
	cfg, loader, err := loadConfig()
	if err != nil {
		return err
	}

	logger := buildLogger(cmd, cfg)
	if loader.FileMissing() {
		logger.Warn("config file not found, using defaults", "path", loader.ConfigFile())
	}

	maxIterations := cfg.Loop.MaxIterations
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return core.ErrValidation("BAD_ITERATIONS",
				fmt.Sprintf("max_iterations must be an integer, got %q", args[0]))
		}
		maxIterations = n
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	state := runstate.NewManager(runDir, logger)
	selector := service.NewSelector(llm.Build(cfg.LLM, logger), cfg.LLM.Provider, logger)
	runner := service.NewRunner(cfg, state, selector, logger)

	status, err := runner.Run(ctx, maxIterations)
	if err != nil {
		return err
	}
	if status != core.RunCompleted {
		return fmt.Errorf("completion marker not observed within %d iterations", maxIterations)
	}
	return nil
}
