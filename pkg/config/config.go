// Package config loads the optional YAML configuration for the Konserve
// front-end.
package config

import (
	"os"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// Config carries front-end defaults. All fields are optional; zero values
// mean "use the built-in default".
type Config struct {
	// OutputDir is the default destination directory for new archives.
	OutputDir string `yaml:"outputDir"`

	// Compress enables gzip compression for new archives.
	Compress bool `yaml:"compress"`

	// LogLevel selects the logging verbosity: debug, info, warn or error.
	LogLevel string `yaml:"logLevel"`

	// PollInterval is how often the front-end polls progress, in
	// milliseconds.
	PollIntervalMS int `yaml:"pollIntervalMs"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		OutputDir:      ".",
		LogLevel:       "info",
		PollIntervalMS: 100,
	}
}

// Load reads a YAML config file, layering it over the defaults. A missing
// file is not an error; the defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrapf(err, "reading config %s", path)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing config %s", path)
	}

	if cfg.PollIntervalMS <= 0 {
		cfg.PollIntervalMS = Default().PollIntervalMS
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = Default().OutputDir
	}

	return cfg, nil
}
