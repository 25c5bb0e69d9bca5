package cli

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/loincgraph/internal/cli/config"
)

func TestNewRootCmd_Subcommands(t *testing.T) {
	root := NewRootCmd()

	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"convert", "inspect", "version", "completion"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}

	for _, flag := range []string{"config", "input", "verbose", "log-format", "display"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		verbose   bool
		format    string
		wantDebug bool
		contains  string
	}{
		{name: "text info", format: "text", contains: "msg=hello"},
		{name: "text debug", verbose: true, format: "text", wantDebug: true, contains: "msg=hello"},
		{name: "json", format: "JSON", contains: `"msg":"hello"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := new(bytes.Buffer)
			logger := NewLogger(buf, tt.verbose, tt.format)

			assert.Equal(t, tt.wantDebug, logger.Enabled(context.Background(), slog.LevelDebug))
			logger.Info("hello")
			assert.Contains(t, buf.String(), tt.contains)
		})
	}
}

func TestCompletionCommand(t *testing.T) {
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetArgs([]string{"completion", "bash"})

	require.NoError(t, root.Execute())
	assert.Contains(t, buf.String(), "loincgraph")
}

func TestCompletionCommand_RejectsUnknownShell(t *testing.T) {
	root := NewRootCmd()
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"completion", "tcsh"})

	assert.Error(t, root.Execute())
}
