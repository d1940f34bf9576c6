// Package config loads run settings from defaults, an optional squeeze.yaml
// and command-line flags (highest precedence), and validates them before any
// work starts.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const (
	MinQuality = 1
	MaxQuality = 100
)

// TUIMode controls the interactive progress display.
type TUIMode string

const (
	TUIAuto   TUIMode = "auto"   // on when stdout is a terminal
	TUIAlways TUIMode = "always" // always on
	TUINever  TUIMode = "never"  // plain log output only
)

// Config holds every setting of a run.
type Config struct {
	Inputs      []string      `mapstructure:"inputs"`
	Output      string        `mapstructure:"output"`
	Quality     int           `mapstructure:"quality"`
	Overwrite   bool          `mapstructure:"overwrite"`
	BatchSize   int           `mapstructure:"batch_size"`
	Concurrency int           `mapstructure:"concurrency"`
	Recursive   bool          `mapstructure:"recursive"`
	ImagesOnly  bool          `mapstructure:"images_only"`
	RetryFailed bool          `mapstructure:"retry_failed"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Ledger      string        `mapstructure:"ledger"`
	ReportDir   string        `mapstructure:"report_dir"`
	RunLog      string        `mapstructure:"run_log"`
	TUI         TUIMode       `mapstructure:"tui"`
	Log         struct {
		Level string `mapstructure:"level"`
		File  string `mapstructure:"file"`
	} `mapstructure:"log"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("output", "output")
	v.SetDefault("quality", 70)
	v.SetDefault("overwrite", false)
	v.SetDefault("batch_size", 10)
	v.SetDefault("concurrency", 4)
	v.SetDefault("recursive", true)
	v.SetDefault("images_only", false)
	v.SetDefault("retry_failed", false)
	v.SetDefault("timeout", 2*time.Minute)
	v.SetDefault("ledger", "./log.csv")
	v.SetDefault("report_dir", ".")
	v.SetDefault("run_log", "./log.txt")
	v.SetDefault("tui", string(TUIAuto))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
}

// Load reads configFile, or squeeze.yaml from the working directory or
// $HOME/.squeeze when configFile is empty, on top of the defaults. A missing
// default config file is not an error.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix("SQUEEZE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("squeeze")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.squeeze")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, &Error{Field: "config", Reason: err.Error()}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &Error{Field: "config", Reason: err.Error()}
	}
	return &cfg, nil
}

// Error is a configuration problem found before any work starts.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// Validate checks cfg against fs. Input directories must exist.
func (c *Config) Validate(fs afero.Fs) error {
	if c.Quality < MinQuality || c.Quality > MaxQuality {
		return &Error{Field: "quality", Reason: fmt.Sprintf("%d is outside %d-%d", c.Quality, MinQuality, MaxQuality)}
	}
	if c.BatchSize < 1 {
		return &Error{Field: "batch_size", Reason: fmt.Sprintf("%d must be at least 1", c.BatchSize)}
	}
	if c.Concurrency < 1 {
		return &Error{Field: "concurrency", Reason: fmt.Sprintf("%d must be at least 1", c.Concurrency)}
	}
	if c.Timeout < 0 {
		return &Error{Field: "timeout", Reason: "must not be negative"}
	}
	if len(c.Inputs) == 0 {
		return &Error{Field: "inputs", Reason: "at least one input directory is required"}
	}
	if !c.Overwrite && c.Output == "" {
		return &Error{Field: "output", Reason: "an output directory is required unless overwrite is set"}
	}
	switch c.TUI {
	case TUIAuto, TUIAlways, TUINever:
	case "":
		c.TUI = TUIAuto
	default:
		return &Error{Field: "tui", Reason: fmt.Sprintf("%q is not one of auto, always, never", c.TUI)}
	}
	if c.Ledger == "" {
		return &Error{Field: "ledger", Reason: "a ledger path is required"}
	}

	for _, in := range c.Inputs {
		info, err := fs.Stat(in)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return &Error{Field: "inputs", Reason: fmt.Sprintf("input directory %s does not exist", in)}
			}
			return &Error{Field: "inputs", Reason: err.Error()}
		}
		if !info.IsDir() {
			return &Error{Field: "inputs", Reason: fmt.Sprintf("%s is not a directory", in)}
		}
	}
	return nil
}
