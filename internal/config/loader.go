package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"

	"github.com/hugo-lorenzo-mato/ralph/internal/core"
)

// DefaultConfigFile is the config file name resolved relative to the run
// directory when no --config override is given.
const DefaultConfigFile = "config.json"

// Loader handles configuration loading from file, environment, and defaults.
type Loader struct {
	v          *viper.Viper
	configFile string
	envPrefix  string
	missing    bool
}

// NewLoader creates a new configuration loader for the given config file.
func NewLoader(configFile string) *Loader {
	if configFile == "" {
		configFile = DefaultConfigFile
	}
	return &Loader{
		v:          viper.New(),
		configFile: configFile,
		envPrefix:  "RALPH",
	}
}

// WithEnvPrefix sets the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Load loads configuration from all sources.
// Precedence (highest to lowest):
// 1. Environment variables (RALPH_*)
// 2. Config file (config.json)
// 3. Defaults
//
// A missing config file is recovered with defaults (FileMissing reports it so
// the caller can warn). Malformed JSON is a fatal config parse error.
func (l *Loader) Load() (*Config, error) {
	l.setDefaults()

	l.v.SetEnvPrefix(l.envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	l.v.SetConfigFile(l.configFile)
	l.v.SetConfigType("json")

	if err := l.v.ReadInConfig(); err != nil {
		var parseErr viper.ConfigParseError
		switch {
		case errors.As(err, &parseErr):
			return nil, core.ErrConfigParse(l.configFile, err)
		case errors.Is(err, fs.ErrNotExist):
			l.missing = true
		default:
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				l.missing = true
				break
			}
			return nil, core.ErrConfigParse(l.configFile, err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values.
func (l *Loader) setDefaults() {
	l.v.SetDefault("llm.provider", core.ProviderAuto)
	l.v.SetDefault("llm.model", "llama3.1")
	l.v.SetDefault("llm.apiKey", "")
	l.v.SetDefault("llm.ollamaUrl", "http://localhost:11434")

	l.v.SetDefault("log.level", "info")
	l.v.SetDefault("log.format", "auto")

	l.v.SetDefault("loop.max_iterations", 10)
	l.v.SetDefault("loop.pacing", "2s")
}

// FileMissing reports whether the config file was absent and defaults were
// substituted.
func (l *Loader) FileMissing() bool {
	return l.missing
}

// ConfigFile returns the config file path this loader reads.
func (l *Loader) ConfigFile() string {
	return l.configFile
}
