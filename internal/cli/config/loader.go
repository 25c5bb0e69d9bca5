package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "LOINCGRAPH_"

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config // Stores the loaded config for access by commands
)

// flagKeys maps flag names whose config key differs from the snake_case flag name.
var flagKeys = map[string]string{
	"input":       "input_dir",
	"format":      "output.format",
	"output":      "output.path",
	"dsn":         "output.dsn",
	"option":      "output.options",
	"summary":     "summary_file",
	"skip-column": "skip_columns",
	"class-map":   "class_map_file",
	"status":      "status_map",
}

// nestedSections are config sections whose env variables use a single
// underscore after the section name (LOINCGRAPH_OUTPUT_FORMAT -> output.format).
var nestedSections = []string{"output"}

// findConfigFile finds the config file to use.
// Priority: explicit path > loincgraph.yaml > loincgraph.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range ConfigFileNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// defaults returns the lowest configuration layer.
func defaults() map[string]any {
	return map[string]any{
		"input_dir":         DefaultInputDir,
		"output.format":     DefaultFormat,
		"namespace":         DefaultNamespace,
		"progress_interval": DefaultProgressInterval,
		"timeout":           "0s",
		"verbose":           false,
		"log_format":        DefaultLogFormat,
		"display":           DefaultDisplay,
	}
}

// envKey transforms LOINCGRAPH_OUTPUT_FORMAT into output.format and
// LOINCGRAPH_FAIL_ON into fail_on.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, section := range nestedSections {
		if strings.HasPrefix(key, section+"_") {
			return section + "." + strings.TrimPrefix(key, section+"_")
		}
	}
	return key
}

// flagKey transforms a flag name into its config key.
func flagKey(name string) string {
	if key, ok := flagKeys[name]; ok {
		return key
	}
	return strings.ReplaceAll(name, "-", "_")
}

// LoadConfig loads configuration from defaults, file, environment variables and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// Reset koanf for fresh load
	k = koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Load config file
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Load environment variables (LOINCGRAPH_ prefix)
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			if f.Name == "config" {
				return "", nil
			}
			key := flagKey(f.Name)
			if f.Value.Type() == "stringToString" {
				return key, stringMapFlag(flags, f.Name)
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	cfg, err := decode(k)
	if err != nil {
		return nil, err
	}

	expandConfigEnvVars(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	currentConfig = cfg
	return cfg, nil
}

// decode unmarshals the merged layers. Durations may be written as "30s";
// list keys accept a comma-separated string, which is how they arrive from the environment.
func decode(ko *koanf.Koanf) (*Config, error) {
	var cfg Config
	if err := ko.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			Result:           &cfg,
			WeaklyTypedInput: true,
			TagName:          "koanf",
		},
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.SkipColumns = trimList(cfg.SkipColumns)
	cfg.FailOn = trimList(cfg.FailOn)
	return &cfg, nil
}

// stringMapFlag returns the KEY=VALUE pairs of a repeated flag such as --status or --option.
func stringMapFlag(flags *pflag.FlagSet, name string) map[string]any {
	out := make(map[string]any)
	values, err := flags.GetStringToString(name)
	if err != nil {
		return out
	}
	for key, v := range values {
		out[key] = v
	}
	return out
}

func trimList(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// This is available after LoadConfig is called.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Return original if not found
	})
}

// expandConfigEnvVars expands environment variables in connection settings.
func expandConfigEnvVars(c *Config) {
	c.Output.DSN = expandEnvVars(c.Output.DSN)
	for key, v := range c.Output.Options {
		c.Output.Options[key] = expandEnvVars(v)
	}
}
