// Package report holds the end-of-run summary of a conversion.
package report

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/loincgraph/internal/builder"
	"github.com/leapstack-labs/loincgraph/internal/diag"
	"github.com/leapstack-labs/loincgraph/internal/hierarchy"
)

// Gap is a relationship whose target concept was never built.
type Gap struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
	Type   string `json:"type" yaml:"type"`
}

// Summary is the run report.
type Summary struct {
	Version          string `json:"version" yaml:"version"`
	ReleaseDate      string `json:"release_date" yaml:"release_date"`
	Tier             int    `json:"tier" yaml:"tier"`
	KnownRelease     bool   `json:"known_release" yaml:"known_release"`
	ClassMap         string `json:"class_map" yaml:"class_map"`
	ConverterVersion string `json:"converter_version,omitempty" yaml:"converter_version,omitempty"`

	InputDir      string `json:"input_dir" yaml:"input_dir"`
	PrimaryFile   string `json:"primary_file" yaml:"primary_file"`
	HierarchyFile string `json:"hierarchy_file" yaml:"hierarchy_file"`
	Format        string `json:"output_format" yaml:"output_format"`
	Output        string `json:"output,omitempty" yaml:"output,omitempty"`

	StartedAt  time.Time     `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time     `json:"finished_at" yaml:"finished_at"`
	Elapsed    time.Duration `json:"elapsed" yaml:"elapsed"`

	Builder         builder.Stats   `json:"builder" yaml:"builder"`
	Hierarchy       hierarchy.Stats `json:"hierarchy" yaml:"hierarchy"`
	CrossReferences int             `json:"cross_references" yaml:"cross_references"`
	Concepts        int             `json:"concepts" yaml:"concepts"`
	Relationships   int             `json:"relationships" yaml:"relationships"`
	HierarchyDepth  int             `json:"hierarchy_depth" yaml:"hierarchy_depth"`
	Emitted         int             `json:"emitted" yaml:"emitted"`

	Gaps      []Gap             `json:"referential_gaps,omitempty" yaml:"referential_gaps,omitempty"`
	Anomalies map[diag.Kind]int `json:"anomalies,omitempty" yaml:"anomalies,omitempty"`
	Entries   []diag.Anomaly    `json:"anomaly_entries,omitempty" yaml:"anomaly_entries,omitempty"`
}

// AnomalyKinds returns the recorded kinds in sorted order.
func (s *Summary) AnomalyKinds() []diag.Kind {
	kinds := make([]diag.Kind, 0, len(s.Anomalies))
	for k := range s.Anomalies {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// TotalAnomalies sums the anomaly counts, excluding expected skips.
func (s *Summary) TotalAnomalies() int {
	n := 0
	for k, c := range s.Anomalies {
		if k == diag.KindDeletedWithoutNameSkip {
			continue
		}
		n += c
	}
	return n
}

// Rows returns the headline counts as label/value pairs in display order.
func (s *Summary) Rows() [][2]string {
	return [][2]string{
		{"Version", s.Version},
		{"Release date", s.ReleaseDate},
		{"Tier", fmt.Sprintf("%d", s.Tier)},
		{"Class map", s.ClassMap},
		{"Rows read", fmt.Sprintf("%d", s.Builder.DataRows)},
		{"Hierarchy rows", fmt.Sprintf("%d", s.Hierarchy.Rows)},
		{"Hierarchy depth", fmt.Sprintf("%d", s.HierarchyDepth)},
		{"Cross references", fmt.Sprintf("%d", s.CrossReferences)},
		{"Concepts emitted", fmt.Sprintf("%d", s.Emitted)},
		{"Relationships", fmt.Sprintf("%d", s.Relationships)},
		{"Duplicates", fmt.Sprintf("%d", s.Builder.Duplicates)},
		{"Skipped deletions", fmt.Sprintf("%d", s.Builder.SkippedDeleted)},
		{"Unmapped columns", fmt.Sprintf("%d", s.Anomalies[diag.KindUnmappedColumn])},
		{"Referential gaps", fmt.Sprintf("%d", len(s.Gaps))},
		{"Anomalies", fmt.Sprintf("%d", s.TotalAnomalies())},
		{"Elapsed", s.Elapsed.Round(time.Millisecond).String()},
	}
}

// WriteYAML writes the summary to path.
func (s *Summary) WriteYAML(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write summary %s: %w", path, err)
	}
	return nil
}
