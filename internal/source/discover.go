package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leapstack-labs/loincgraph/internal/diag"
)

// Format identifies the physical layout of the primary file.
type Format int

const (
	// FormatCSV is loinc.csv with a release-notes sidecar.
	FormatCSV Format = iota
	// FormatTXT is the tab-delimited loincdb.txt export.
	FormatTXT
)

// String returns the format name.
func (f Format) String() string {
	if f == FormatTXT {
		return "txt"
	}
	return "csv"
}

// Well-known release file names, matched case-insensitively.
const (
	PrimaryCSVName   = "loinc.csv"
	PrimaryTXTName   = "loincdb.txt"
	CrossRefName     = "map_to.csv"
	SourceOrgName    = "source_organization.csv"
	HierarchySuffix  = "multi-axial_hierarchy.csv"
	ReleaseNotesName = "loinc_releasenotes.txt"
)

// Inputs lists the release files found in an input directory.
// Optional files are "" when absent.
type Inputs struct {
	Dir           string
	Primary       string
	PrimaryFormat Format
	Hierarchy     string
	CrossRef      string
	SourceOrg     string
	ReleaseNotes  string
}

// Discover scans dir for release files. The primary file and the multi-axial
// hierarchy are required; when both primary layouts are present, the last one in
// lexical order wins.
func Discover(dir string) (*Inputs, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, diag.Fatal(fmt.Errorf("%w: %v", diag.ErrMissingInput, err), dir, 0)
	}
	if !info.IsDir() {
		return nil, diag.Fatalf(diag.ErrMissingInput, dir, 0, "not a directory")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir %s: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	in := &Inputs{Dir: dir}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		switch name := strings.ToLower(e.Name()); {
		case name == PrimaryTXTName:
			in.Primary, in.PrimaryFormat = path, FormatTXT
		case name == PrimaryCSVName:
			in.Primary, in.PrimaryFormat = path, FormatCSV
		case name == CrossRefName:
			in.CrossRef = path
		case name == SourceOrgName:
			in.SourceOrg = path
		case name == ReleaseNotesName:
			in.ReleaseNotes = path
		case strings.HasSuffix(name, HierarchySuffix):
			in.Hierarchy = path
		}
	}

	if in.Primary == "" {
		return nil, diag.Fatalf(diag.ErrMissingInput, dir, 0, "no %s or %s", PrimaryCSVName, PrimaryTXTName)
	}
	if in.Hierarchy == "" {
		return nil, diag.Fatalf(diag.ErrMissingInput, dir, 0, "no *%s", HierarchySuffix)
	}
	return in, nil
}

// OpenPrimary opens the primary file in its layout. For the CSV layout the
// release-notes sidecar is required and supplies version and release date.
func (in *Inputs) OpenPrimary() (Reader, error) {
	if in.PrimaryFormat == FormatTXT {
		return OpenTXT(in.Primary)
	}

	notes := in.ReleaseNotes
	if notes == "" {
		notes = filepath.Join(in.Dir, ReleaseNotesName)
	}
	r, err := OpenCSV(in.Primary)
	if err != nil {
		return nil, err
	}
	if err := r.LoadReleaseNotes(notes); err != nil {
		_ = r.Close()
		return nil, err
	}
	return r, nil
}
