package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/pvcast/core/metrics"
)

// EnvPrefix marks environment overrides; "__" separates nested keys, e.g.
// PVCAST_EVALUATOR__BATCH_SIZE=16.
const EnvPrefix = "PVCAST_"

type Config struct {
	Evaluator  EvaluatorConfig  `json:"evaluator"`
	Stream     StreamConfig     `json:"stream"`
	Validation ValidationConfig `json:"validation"`
	History    HistoryConfig    `json:"history"`
	Metrics    metrics.Config   `json:"metrics"`
}

// Load reads the optional file at path (YAML or JSON; empty path skips it),
// applies environment overrides, then defaults and validation.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("%w: unsupported config format: %s", ErrInvalidConfig, ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file or override is given.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Evaluator.SetDefaults()
	c.Stream.SetDefaults()
	c.Validation.SetDefaults()
	c.History.SetDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Evaluator.Validate(); err != nil {
		return err
	}
	if err := c.Stream.Validate(); err != nil {
		return err
	}
	if c.History.Enabled {
		if err := c.History.Validate(); err != nil {
			return err
		}
	}
	return nil
}
