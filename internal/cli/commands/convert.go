package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/loincgraph/internal/cli/output"
	"github.com/leapstack-labs/loincgraph/internal/report"
	"github.com/leapstack-labs/loincgraph/pkg/sink"
)

// maxGapRows bounds the referential gaps listed on screen; the summary file has them all.
const maxGapRows = 20

// NewConvertCommand creates the convert command.
func NewConvertCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a release into a concept graph",
		Long: `Read the release files in the input directory, build the concept graph and
write it to the configured output.

The run fails on structural problems such as a missing hierarchy file or an
unparseable date. Data-quality anomalies are reported in the summary; kinds
listed in fail_on (or --fail-on) make the command exit non-zero after the
output has been written.`,
		Example: `  # Convert into JSON lines
  loincgraph convert --input ./Loinc_2.48 --output loinc.jsonl

  # Convert into SQLite and keep a YAML run report
  loincgraph convert -i ./Loinc_2.48 --format sqlite --output loinc.db --summary report.yaml

  # Load Neo4j, failing when a relationship points at a missing concept
  loincgraph convert -i ./Loinc_2.48 --format neo4j --dsn bolt://localhost:7687 \
    --option user=neo4j --option password=secret --fail-on referential_gap`,
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConvert(cmd)
		},
	}

	f := cmd.Flags()
	f.String("format", "", fmt.Sprintf("Output format (%s)", formatList()))
	f.StringP("output", "o", "", "Output file path for file-backed formats")
	f.String("dsn", "", "Connection string for server-backed formats")
	f.StringToString("option", nil, "Sink option KEY=VALUE (repeatable)")
	f.String("summary", "", "Write the YAML run report to this file")
	f.StringSlice("fail-on", nil, "Anomaly kinds that fail the run")
	f.StringSlice("skip-column", nil, "Columns to ignore")
	f.StringToString("status", nil, "Status activity override CODE=true|false (repeatable)")
	f.String("class-map", "", "Class name table replacing the bundled one")
	f.String("namespace", "", "Seed for deterministic concept identifiers")
	f.Int("progress-interval", 0, "Rows between progress log records")
	f.Duration("timeout", 0, "Abort the run after this long (0 disables)")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return sink.List(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func formatList() string {
	return strings.Join(sink.List(), "|")
}

func runConvert(cmd *cobra.Command) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	eng, err := createEngine(cc.Cfg, cc.Logger)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if cc.Cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cc.Cfg.Timeout)
		defer cancel()
	}

	summary, runErr := eng.Run(ctx)
	if summary != nil {
		if err := renderSummary(cc.Renderer, summary); err != nil {
			return err
		}
	}
	return runErr
}

// renderSummary prints the run report in the renderer's mode.
func renderSummary(r *output.Renderer, s *report.Summary) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(s)
	}

	r.KeyValues("Conversion summary", s.Rows())

	if kinds := s.AnomalyKinds(); len(kinds) > 0 {
		rows := make([][]string, 0, len(kinds))
		for _, k := range kinds {
			rows = append(rows, []string{string(k), strconv.Itoa(s.Anomalies[k])})
		}
		r.Println("")
		if r.EffectiveMode() == output.ModeMarkdown {
			r.Println(output.FormatHeader(2, "Anomalies"))
			r.Println("")
		}
		r.Table([]string{"Kind", "Count"}, rows)
	}

	if len(s.Gaps) > 0 {
		shown := s.Gaps
		if len(shown) > maxGapRows {
			shown = shown[:maxGapRows]
		}
		rows := make([][]string, 0, len(shown))
		for _, g := range shown {
			rows = append(rows, []string{g.Source, g.Type, g.Target})
		}
		r.Println("")
		if r.EffectiveMode() == output.ModeMarkdown {
			r.Println(output.FormatHeader(2, "Referential gaps"))
			r.Println("")
		}
		r.Table([]string{"Source", "Relationship", "Missing target"}, rows)
		if hidden := len(s.Gaps) - len(shown); hidden > 0 {
			r.Printf("... and %d more\n", hidden)
		}
	}
	return nil
}
