package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/loincgraph/internal/cli/config"
	"github.com/leapstack-labs/loincgraph/internal/cli/output"
	"github.com/leapstack-labs/loincgraph/internal/engine"
	"github.com/leapstack-labs/loincgraph/pkg/sink"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the loaded configuration.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg, err := getConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := config.GetLogger(cmd.Context())
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.Display))

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}, nil
}

// getConfig returns the configuration loaded by the root command, loading it
// from the command's flags when the command runs on its own.
func getConfig(cmd *cobra.Command) (*config.Config, error) {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg, nil
	}
	return config.LoadConfig("", cmd.Flags())
}

// engineConfig maps CLI configuration onto the engine.
func engineConfig(cfg *config.Config, logger *slog.Logger) (engine.Config, error) {
	failOn, err := cfg.FailOnKinds()
	if err != nil {
		return engine.Config{}, err
	}
	return engine.Config{
		InputDir: cfg.InputDir,
		Format:   cfg.Output.Format,
		Output: sink.Options{
			Path:   cfg.Output.Path,
			DSN:    cfg.Output.DSN,
			Params: cfg.Output.Options,
		},
		Namespace:        cfg.Namespace,
		ProgressInterval: cfg.ProgressInterval,
		SkipColumns:      cfg.SkipColumns,
		ClassMapFile:     cfg.ClassMapFile,
		StatusMap:        cfg.StatusMap,
		FailOn:           failOn,
		ConverterVersion: cfg.ConverterVersion,
		SummaryFile:      cfg.SummaryFile,
		Logger:           logger,
	}, nil
}

func createEngine(cfg *config.Config, logger *slog.Logger) (*engine.Engine, error) {
	if err := cfg.ValidateInputDir(); err != nil {
		return nil, err
	}
	engineCfg, err := engineConfig(cfg, logger)
	if err != nil {
		return nil, err
	}
	return engine.New(engineCfg)
}
