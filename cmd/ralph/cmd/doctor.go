package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hugo-lorenzo-mato/ralph/internal/adapters/llm"
	"github.com/hugo-lorenzo-mato/ralph/internal/diagnostics"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check provider availability and host resources",
	Long: `Probes each LLM provider (Ollama, Claude API, amp CLI) and reports
which ones are usable, along with a snapshot of host memory, disk, and load.`,
	RunE: runDoctor,
}

var doctorProbeTimeout = 5 * time.Second

var (
	okStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	badStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	cfg, loader, err := loadConfig()
	if err != nil {
		return err
	}

	logger := buildLogger(cmd, cfg)
	if loader.FileMissing() {
		logger.Warn("config file not found, using defaults", "path", loader.ConfigFile())
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, headStyle.Render("Providers"))

	providers := llm.Build(cfg.LLM, logger)
	available := make([]bool, len(providers))

	// Probes are independent and read-only; run them concurrently.
	g, ctx := errgroup.WithContext(cmd.Context())
	for i, p := range providers {
		g.Go(func() error {
			probeCtx, cancel := context.WithTimeout(ctx, doctorProbeTimeout)
			defer cancel()
			available[i] = p.Probe(probeCtx)
			return nil
		})
	}
	_ = g.Wait()

	anyAvailable := false
	for i, p := range providers {
		mark := badStyle.Render("unavailable")
		if available[i] {
			mark = okStyle.Render("available")
			anyAvailable = true
		}
		fmt.Fprintf(out, "  %-8s %s\n", p.Name(), mark)
	}
	if !anyAvailable {
		fmt.Fprintln(out, dimStyle.Render("  no provider usable: configure Ollama, set an API key, or install amp"))
	}

	snap := diagnostics.Collect(runDir)
	fmt.Fprintln(out)
	fmt.Fprintln(out, headStyle.Render("Host"))
	fmt.Fprintf(out, "  memory   %d/%d MB available (%.1f%% used)\n",
		snap.MemoryAvailableMB, snap.MemoryTotalMB, snap.MemoryUsedPercent)
	fmt.Fprintf(out, "  disk     %d MB free (%.1f%% used)\n", snap.DiskFreeMB, snap.DiskUsedPercent)
	fmt.Fprintf(out, "  cpu      %d cores, load %.2f\n", snap.CPUCores, snap.LoadAvg1)

	for _, w := range diagnostics.RunPreflight(runDir).Warnings {
		fmt.Fprintln(out, badStyle.Render("  warning: ")+w)
	}

	return nil
}
