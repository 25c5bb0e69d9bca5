package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/loincgraph/internal/builder"
	"github.com/leapstack-labs/loincgraph/internal/cli/config"
	"github.com/leapstack-labs/loincgraph/internal/cli/testutil"
	"github.com/leapstack-labs/loincgraph/internal/diag"
	"github.com/leapstack-labs/loincgraph/internal/engine"
	"github.com/leapstack-labs/loincgraph/internal/report"

	_ "github.com/leapstack-labs/loincgraph/pkg/sinks/jsonl"
)

func TestNewConvertCommand(t *testing.T) {
	cmd := NewConvertCommand()

	assert.Equal(t, "convert", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")
	assert.Contains(t, cmd.Aliases, "run")

	flags := []string{"format", "output", "dsn", "option", "summary", "fail-on", "skip-column", "status", "class-map", "namespace", "progress-interval", "timeout"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
	assert.Contains(t, cmd.Flags().Lookup("format").Usage, "jsonl")
}

func TestNewInspectCommand(t *testing.T) {
	cmd := NewInspectCommand()

	assert.Equal(t, "inspect", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotNil(t, cmd.Flags().Lookup("skip-column"))
}

func sampleSummary() *report.Summary {
	return &report.Summary{
		Version:     "2.48",
		ReleaseDate: "June 2014",
		Tier:        4,
		ClassMap:    "classMappings-2.48.txt",
		Builder:     builder.Stats{DataRows: 2, Concepts: 2},
		Emitted:     12,
		Elapsed:     1500 * time.Millisecond,
		Gaps:        []report.Gap{{Source: "2-6", Target: "abc", Type: "MAP_TO"}},
		Anomalies: map[diag.Kind]int{
			diag.KindReferentialGap: 1,
			diag.KindUnmappedColumn: 1,
		},
	}
}

func TestRenderSummary(t *testing.T) {
	t.Run("markdown", func(t *testing.T) {
		tr := testutil.NewTestRendererMarkdown()
		require.NoError(t, renderSummary(tr.Renderer, sampleSummary()))

		out := tr.Output()
		testutil.AssertNoANSI(t, out)
		testutil.AssertValidMarkdown(t, out)
		assert.Contains(t, out, "## Conversion summary")
		assert.Contains(t, out, "- **Version:** 2.48")
		assert.Contains(t, out, "## Anomalies")
		assert.Contains(t, out, "| referential_gap | 1 |")
		assert.Contains(t, out, "## Referential gaps")
		assert.Contains(t, out, "| 2-6 | MAP_TO | abc |")
	})

	t.Run("text", func(t *testing.T) {
		tr := testutil.NewTestRendererText()
		require.NoError(t, renderSummary(tr.Renderer, sampleSummary()))

		out := tr.Output()
		assert.Contains(t, strings.ToLower(out), "conversion summary")
		assert.Contains(t, out, "unmapped_column")
		assert.NotContains(t, out, "## ")
	})

	t.Run("json", func(t *testing.T) {
		tr := testutil.NewTestRendererJSON()
		require.NoError(t, renderSummary(tr.Renderer, sampleSummary()))

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(tr.Out.Bytes(), &decoded))
		assert.Equal(t, "2.48", decoded["version"])
		assert.EqualValues(t, 12, decoded["emitted"])
	})

	t.Run("truncates gaps", func(t *testing.T) {
		s := sampleSummary()
		s.Gaps = nil
		for i := 0; i < maxGapRows+5; i++ {
			s.Gaps = append(s.Gaps, report.Gap{Source: "x", Target: "y", Type: "MAP_TO"})
		}
		tr := testutil.NewTestRendererMarkdown()
		require.NoError(t, renderSummary(tr.Renderer, s))
		assert.Contains(t, tr.Output(), "... and 5 more")
	})
}

func TestRenderInspection(t *testing.T) {
	info := &engine.Inspection{
		Primary:      "/in/loinc.csv",
		Format:       "csv",
		Version:      "2.48",
		ReleaseDate:  "June 2014",
		Tier:         4,
		KnownRelease: true,
		ClassMap:     "classMappings-2.48.txt",
		ClassNames:   300,
		Columns: []engine.ColumnInfo{
			{Name: "LOINC_NUM", Category: "identifier", Active: true, Property: "p1"},
			{Name: "EXTRA_COLUMN", Category: engine.Unmapped},
		},
		Unmapped: []string{"EXTRA_COLUMN"},
	}

	tr := testutil.NewTestRendererMarkdown()
	require.NoError(t, renderInspection(tr.Renderer, info))

	out := tr.Output()
	testutil.AssertValidMarkdown(t, out)
	assert.Contains(t, out, "- **Class map:** classMappings-2.48.txt (300 names)")
	assert.Contains(t, out, "| LOINC_NUM | identifier | true | p1 |")
	assert.Contains(t, out, "| EXTRA_COLUMN | UNMAPPED |  |  |")
	assert.Contains(t, tr.ErrorOutput(), "1 unmapped column(s): EXTRA_COLUMN")
}

// execute runs cmd standalone with args and the given environment.
func execute(t *testing.T, cmd *cobra.Command, env map[string]string, args ...string) (string, error) {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)
	for k, v := range env {
		t.Setenv(k, v)
	}

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestConvertCommand_EndToEnd(t *testing.T) {
	dir := testutil.WriteRelease(t)
	out := filepath.Join(t.TempDir(), "loinc.jsonl")
	summaryPath := filepath.Join(t.TempDir(), "summary.yaml")

	stdout, err := execute(t, NewConvertCommand(),
		map[string]string{"LOINCGRAPH_INPUT_DIR": dir},
		"--format", "jsonl", "--output", out, "--summary", summaryPath)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Conversion summary")
	assert.Contains(t, stdout, "unmapped_column")
	assert.Contains(t, stdout, "referential_gap")
	assert.FileExists(t, summaryPath)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Greater(t, len(lines), 3)
	assert.Contains(t, lines[len(lines)-1], `"type":"grouping"`)
}

func TestConvertCommand_FailOn(t *testing.T) {
	dir := testutil.WriteRelease(t)
	out := filepath.Join(t.TempDir(), "loinc.jsonl")

	stdout, err := execute(t, NewConvertCommand(),
		map[string]string{"LOINCGRAPH_INPUT_DIR": dir},
		"--output", out, "--fail-on", "referential_gap")
	require.Error(t, err)
	assert.True(t, errors.Is(err, diag.ErrAnomaliesPromoted))

	// The summary and the output are still produced.
	assert.Contains(t, stdout, "Conversion summary")
	assert.FileExists(t, out)
}

func TestConvertCommand_MissingInput(t *testing.T) {
	_, err := execute(t, NewConvertCommand(),
		map[string]string{"LOINCGRAPH_INPUT_DIR": filepath.Join(t.TempDir(), "nope")},
		"--output", filepath.Join(t.TempDir(), "out.jsonl"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input directory does not exist")
}

func TestConvertCommand_BadFailOnKind(t *testing.T) {
	_, err := execute(t, NewConvertCommand(),
		map[string]string{"LOINCGRAPH_INPUT_DIR": testutil.WriteRelease(t)},
		"--output", filepath.Join(t.TempDir(), "out.jsonl"), "--fail-on", "bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown anomaly kind")
}

func TestInspectCommand_JSON(t *testing.T) {
	dir := testutil.WriteRelease(t)

	stdout, err := execute(t, NewInspectCommand(),
		map[string]string{"LOINCGRAPH_INPUT_DIR": dir, "LOINCGRAPH_DISPLAY": "json"})
	require.NoError(t, err)

	var info engine.Inspection
	require.NoError(t, json.Unmarshal([]byte(stdout), &info))
	assert.Equal(t, "2.48", info.Version)
	assert.Equal(t, 4, info.Tier)
	assert.Equal(t, []string{"EXTRA_COLUMN"}, info.Unmapped)
}
