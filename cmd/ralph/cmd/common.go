package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/ralph/internal/config"
	"github.com/hugo-lorenzo-mato/ralph/internal/logging"
)

// loadConfig resolves and loads the config file. A missing file is tolerated
// (defaults are substituted); malformed JSON is a hard failure.
func loadConfig() (*config.Config, *config.Loader, error) {
	path := cfgFile
	if path == "" {
		path = filepath.Join(runDir, config.DefaultConfigFile)
	}
	loader := config.NewLoader(path)
	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, err
	}
	return cfg, loader, nil
}

// buildLogger creates the logger, letting explicitly-set flags override the
// config file.
func buildLogger(cmd *cobra.Command, cfg *config.Config) *logging.Logger {
	level := cfg.Log.Level
	format := cfg.Log.Format
	if cmd.Flags().Changed("log-level") {
		level = logLevel
	}
	if cmd.Flags().Changed("log-format") {
		format = logFormat
	}
	// The pretty handler writes ANSI escapes directly, so it is bypassed
	// entirely when color is off.
	if noColor && format == "auto" {
		format = "text"
	}
	return logging.New(logging.Config{Level: level, Format: format})
}
