// Package config loads the default options of the rescale command from a
// TOML or YAML file.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config represents the options which can be preset in a config file.
// Command line flags override them.
type Config struct {
	Width      int    `toml:"width" yaml:"width"`
	Height     int    `toml:"height" yaml:"height"`
	Quality    int    `toml:"quality" yaml:"quality"`
	Lossless   bool   `toml:"lossless" yaml:"lossless"`
	Filter     string `toml:"filter" yaml:"filter"`
	Format     string `toml:"format" yaml:"format"`
	Perm       string `toml:"perm" yaml:"perm"`
	AutoOrient bool   `toml:"orient" yaml:"orient"`
	Workers    int    `toml:"workers" yaml:"workers"`
	LogLevel   string `toml:"log_level" yaml:"log_level"`
}

// Load reads and parses the configuration file. The decoder is chosen by
// the file extension: .toml, .yaml or .yml.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config")
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config")
		}
	default:
		return nil, errors.Errorf("unsupported config file type %q", ext)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return &cfg, nil
}

// Validate checks the value ranges of the configuration.
func (c *Config) Validate() error {
	if c.Width < 0 || c.Height < 0 {
		return errors.New("width and height cannot be negative")
	}
	if c.Quality < 0 || c.Quality > 100 {
		return errors.New("quality should be between 1 and 100")
	}
	if c.Workers < 0 {
		return errors.New("workers cannot be negative")
	}
	if _, err := c.FileMode(); err != nil {
		return err
	}
	if c.LogLevel != "" {
		if _, err := ParseLogLevel(c.LogLevel); err != nil {
			return err
		}
	}
	return nil
}

// ParseLogLevel maps a level name (trace, debug, info, warn, error, off)
// to its hclog level. Unknown names are rejected.
func ParseLogLevel(s string) (hclog.Level, error) {
	level := hclog.LevelFromString(s)
	if level == hclog.NoLevel {
		return level, errors.Errorf("unknown log level %q, valid levels: trace, debug, info, warn, error, off", s)
	}
	return level, nil
}

// FileMode parses Perm as an octal permission. An empty Perm gives 0.
func (c *Config) FileMode() (os.FileMode, error) {
	if c.Perm == "" {
		return 0, nil
	}
	return ParsePerm(c.Perm)
}

// ParsePerm parses an octal file permission such as "0666" or "644".
func ParsePerm(s string) (os.FileMode, error) {
	n, err := strconv.ParseUint(s, 8, 32)
	if err != nil || n > 0777 {
		return 0, errors.Errorf("invalid permission %q", s)
	}
	return os.FileMode(n), nil
}
