package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	runDir    string
	logLevel  string
	logFormat string
	noColor   bool

	// Version info - set via SetVersion()
	appVersion string
	appCommit  string
	appDate    string
)

var rootCmd = &cobra.Command{
	Use:   "ralph [max_iterations]",
	Short: "Long-running AI agent loop",
	Long: `ralph repeatedly feeds a task prompt to an AI model until the response
contains the completion marker <promise>COMPLETE</promise> or the iteration
budget runs out.

The provider is auto-detected (Ollama, then the Claude API, then the amp CLI)
unless pinned in config.json. When the active branch in prd.json changes
between runs, the previous run's artifacts are archived and the progress log
is reset.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if noColor {
			lipgloss.SetColorProfile(termenv.Ascii)
		}
	},
	RunE: runLoop,
}

// Execute runs the root command, reporting errors on stderr.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

// SetVersion injects build metadata.
func SetVersion(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: <dir>/config.json)")
	rootCmd.PersistentFlags().StringVarP(&runDir, "dir", "d", ".",
		"run directory holding prd.json, prompt.md, and progress.txt")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "auto",
		"log format (auto, text, json)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false,
		"disable colored output")
}
