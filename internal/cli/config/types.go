// Package config provides layered configuration for the loincgraph CLI.
//
// Values are merged from defaults, loincgraph.yaml, LOINCGRAPH_* environment
// variables and explicitly set command-line flags, in increasing precedence.
package config

import (
	"time"

	"github.com/leapstack-labs/loincgraph/internal/engine"
)

// Config holds all CLI configuration options.
type Config struct {
	InputDir         string          `koanf:"input_dir"`
	Output           OutputConfig    `koanf:"output"`
	Namespace        string          `koanf:"namespace"`
	ProgressInterval int             `koanf:"progress_interval"`
	SkipColumns      []string        `koanf:"skip_columns"`
	ClassMapFile     string          `koanf:"class_map_file"`
	StatusMap        map[string]bool `koanf:"status_map"`
	FailOn           []string        `koanf:"fail_on"`
	SummaryFile      string          `koanf:"summary_file"`
	ConverterVersion string          `koanf:"converter_version"`
	Timeout          time.Duration   `koanf:"timeout"`
	Verbose          bool            `koanf:"verbose"`
	LogFormat        string          `koanf:"log_format"`
	Display          string          `koanf:"display"`
}

// OutputConfig selects and configures the sink.
type OutputConfig struct {
	Format  string            `koanf:"format"`
	Path    string            `koanf:"path"`
	DSN     string            `koanf:"dsn"`
	Options map[string]string `koanf:"options"`
}

// Default configuration values.
const (
	DefaultInputDir  = "."
	DefaultFormat    = "jsonl"
	DefaultNamespace = "gov.va.med.term.loinc"
	DefaultLogFormat = "text"
	DefaultDisplay   = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)

// DefaultProgressInterval mirrors the engine default.
const DefaultProgressInterval = engine.DefaultProgressInterval

// ConfigFileNames are searched in the working directory when --config is not given.
var ConfigFileNames = []string{"loincgraph.yaml", "loincgraph.yml"}
