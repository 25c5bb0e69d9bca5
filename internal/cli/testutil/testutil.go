// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/loincgraph/internal/cli/output"
)

// PrimaryCSV is the loinc.csv written by WriteRelease.
const PrimaryCSV = `"LOINC_NUM","COMPONENT","PROPERTY","SYSTEM","SCALE_TYP","CLASS","STATUS","DATE_LAST_CHANGED","LONG_COMMON_NAME","EXTRA_COLUMN"
"1-8","Acyclovir","Susc","Isolate","OrdQn","ABXBACT","ACTIVE","20140101","Acyclovir [Susceptibility]","x"
"2-6","Amikacin","Susc","Isolate","OrdQn","ABXBACT","DEPRECATED","","Amikacin [Susceptibility]",""
`

// ReleaseNotes is the release notes sidecar written by WriteRelease.
const ReleaseNotes = "LOINC Version 2.48\nReleased June 2014\n"

// HierarchyCSV is the multi-axial hierarchy written by WriteRelease.
const HierarchyCSV = `"PATH_TO_ROOT","SEQUENCE","IMMEDIATE_PARENT","CODE","CODE_TEXT"
"","1","","LP29693-9","Laboratory"
"LP29693-9","1","LP29693-9","1-8","Acyclovir [Susceptibility]"
`

// MapToCSV is the cross-reference table written by WriteRelease.
const MapToCSV = `"LOINC","MAP_TO","COMMENT"
"2-6","1-8","Use 1-8"
"2-6","99-9",""
`

// WriteRelease creates a small CSV release in a temporary directory and returns it.
// The release has one unmapped column and one referential gap.
func WriteRelease(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	files := map[string]string{
		"Loinc.csv":                           PrimaryCSV,
		"loinc_releasenotes.txt":              ReleaseNotes,
		"LOINC_248_multi-axial_hierarchy.csv": HierarchyCSV,
		"map_to.csv":                          MapToCSV,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0600); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
	}
	return dir
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.OutputMode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// NewTestRendererText creates a new test renderer in text mode (simulated TTY).
func NewTestRendererText() *TestRenderer {
	return NewTestRenderer(output.ModeText, true)
}

// NewTestRendererMarkdown creates a new test renderer in markdown mode.
func NewTestRendererMarkdown() *TestRenderer {
	return NewTestRenderer(output.ModeMarkdown, false)
}

// NewTestRendererJSON creates a new test renderer in JSON mode.
func NewTestRendererJSON() *TestRenderer {
	return NewTestRenderer(output.ModeJSON, false)
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown performs basic markdown validation.
// It checks for unclosed code fences and empty headers.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	fenceCount := strings.Count(md, "```")
	if fenceCount%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", fenceCount)
	}

	lines := strings.Split(md, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}
