package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/leapstack-labs/loincgraph/internal/cli/output"
	"github.com/leapstack-labs/loincgraph/internal/diag"
	"github.com/leapstack-labs/loincgraph/pkg/sink"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.InputDir == "" {
		return fmt.Errorf("input_dir is required")
	}
	if c.Output.Format == "" {
		return fmt.Errorf("output.format is required")
	}
	if !sink.IsRegistered(c.Output.Format) {
		return &sink.UnknownSinkError{Format: c.Output.Format, Available: sink.List()}
	}
	if c.ProgressInterval < 0 {
		return fmt.Errorf("progress_interval must not be negative, got %d", c.ProgressInterval)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	if !output.IsValidMode(c.Display) {
		return fmt.Errorf("display must be one of %s, got %q", strings.Join(output.Modes(), "|"), c.Display)
	}
	if _, err := c.FailOnKinds(); err != nil {
		return err
	}
	return nil
}

// FailOnKinds returns fail_on as anomaly kinds.
func (c *Config) FailOnKinds() ([]diag.Kind, error) {
	kinds := make([]diag.Kind, 0, len(c.FailOn))
	for _, name := range c.FailOn {
		kind, err := diag.ParseKind(strings.ToLower(name))
		if err != nil {
			return nil, fmt.Errorf("fail_on: %w\nHint: valid kinds are %s", err, kindNames())
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

func kindNames() string {
	kinds := diag.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

// ValidateInputDir checks that the input directory exists.
func (c *Config) ValidateInputDir() error {
	info, err := os.Stat(c.InputDir)
	if os.IsNotExist(err) {
		return fmt.Errorf("input directory does not exist: %s\nHint: Use --input to point at an unpacked release", c.InputDir)
	}
	if err != nil {
		return fmt.Errorf("input directory %s: %w", c.InputDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("input path is not a directory: %s", c.InputDir)
	}
	return nil
}
