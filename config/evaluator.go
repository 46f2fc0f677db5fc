package config

import (
	"fmt"
	"os"
	"strings"
)

// StreamsEnv names the directory the platform polls for the output sink.
const StreamsEnv = "DOXA_STREAMS"

// EvaluatorConfig selects the model and how batches are formed.
type EvaluatorConfig struct {
	BatchSize int          `json:"batch_size"`
	Device    string       `json:"device"`
	Predictor PluginConfig `json:"predictor"`
}

// SetDefaults applies the starter kit defaults.
func (c *EvaluatorConfig) SetDefaults() {
	if c.BatchSize == 0 {
		c.BatchSize = 32
	}
	if c.Device == "" {
		c.Device = "auto"
	}
	if c.Predictor.Type == "" {
		c.Predictor.Type = "cnn"
	}
}

// Validate checks mandatory fields.
func (c EvaluatorConfig) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: evaluator.batch_size must be positive, got %d", ErrInvalidConfig, c.BatchSize)
	}
	switch strings.ToLower(c.Device) {
	case "auto", "cpu":
	default:
		return fmt.Errorf("%w: evaluator.device %q is not supported", ErrInvalidConfig, c.Device)
	}
	return nil
}

// StreamConfig locates the live-mode output sink.
type StreamConfig struct {
	// Directory holding the sink. Empty means $DOXA_STREAMS, then ".".
	Directory string `json:"directory"`
	File      string `json:"file"`
	Delimiter string `json:"delimiter"`
}

// SetDefaults applies the platform defaults.
func (c *StreamConfig) SetDefaults() {
	if c.File == "" {
		c.File = "out"
	}
	if c.Delimiter == "" {
		c.Delimiter = ","
	}
}

// Validate checks mandatory fields.
func (c StreamConfig) Validate() error {
	if strings.ContainsAny(c.File, `/\`) {
		return fmt.Errorf("%w: stream.file must be a bare file name, got %q", ErrInvalidConfig, c.File)
	}
	return nil
}

// Dir resolves the sink directory.
func (c StreamConfig) Dir() string {
	if c.Directory != "" {
		return c.Directory
	}
	if d := os.Getenv(StreamsEnv); d != "" {
		return d
	}
	return "."
}

// ValidationConfig locates the local validation data.
type ValidationConfig struct {
	DataPath string `json:"data_path"`
	Targets  string `json:"targets"`
}

// SetDefaults applies the starter kit layout.
func (c *ValidationConfig) SetDefaults() {
	if c.DataPath == "" {
		c.DataPath = "data/validation/data.hdf5"
	}
	if c.Targets == "" {
		c.Targets = "targets"
	}
}
