package commands

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/loincgraph/internal/cli/output"
	"github.com/leapstack-labs/loincgraph/internal/engine"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show release metadata and column classification",
		Long: `Open the primary release file and report its version, release date, the
selected release tier and class name table, and how every header column is
classified. Nothing is converted and no output is written.`,
		Example: `  # Inspect a release directory
  loincgraph inspect --input ./Loinc_2.48

  # Machine-readable output
  loincgraph inspect -i ./Loinc_2.48 --display json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInspect(cmd)
		},
	}

	cmd.Flags().StringSlice("skip-column", nil, "Columns to ignore")
	cmd.Flags().String("class-map", "", "Class name table replacing the bundled one")

	return cmd
}

func runInspect(cmd *cobra.Command) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	eng, err := createEngine(cc.Cfg, cc.Logger)
	if err != nil {
		return err
	}

	info, err := eng.Inspect()
	if err != nil {
		return err
	}
	return renderInspection(cc.Renderer, info)
}

// renderInspection prints an inspection in the renderer's mode.
func renderInspection(r *output.Renderer, info *engine.Inspection) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(info)
	}

	pairs := [][2]string{
		{"Primary", info.Primary},
		{"Layout", info.Format},
		{"Hierarchy", info.Hierarchy},
		{"Version", info.Version},
		{"Release date", info.ReleaseDate},
		{"Tier", strconv.Itoa(info.Tier)},
		{"Class map", info.ClassMap + " (" + strconv.Itoa(info.ClassNames) + " names)"},
	}
	if info.CrossRef != "" {
		pairs = append(pairs, [2]string{"Cross references", info.CrossRef})
	}
	if info.SourceOrg != "" {
		pairs = append(pairs, [2]string{"Source organizations", info.SourceOrg})
	}
	if !info.KnownRelease {
		pairs = append(pairs, [2]string{"Note", "untested release version, newest tables assumed"})
	}
	r.KeyValues("Release", pairs)
	r.Println("")

	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println(output.FormatHeader(2, "Columns"))
		r.Println("")
	}
	rows := make([][]string, 0, len(info.Columns))
	for _, c := range info.Columns {
		active := ""
		if c.Category != engine.Unmapped {
			active = strconv.FormatBool(c.Active)
		}
		rows = append(rows, []string{c.Name, c.Category, active, c.Property})
	}
	r.Table([]string{"Column", "Category", "Active", "Property"}, rows)

	if len(info.Unmapped) > 0 {
		r.Warnf("%d unmapped column(s): %s", len(info.Unmapped), strings.Join(info.Unmapped, ", "))
	}
	return nil
}
