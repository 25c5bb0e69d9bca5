package engine

import (
	"io"

	"github.com/leapstack-labs/loincgraph/internal/diag"
	"github.com/leapstack-labs/loincgraph/internal/property"
	"github.com/leapstack-labs/loincgraph/internal/source"
)

// Unmapped is the category label of a column no property claims.
const Unmapped = "UNMAPPED"

// ColumnInfo describes how one header column will be treated.
type ColumnInfo struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Active   bool   `json:"active"`
	Property string `json:"property_id,omitempty"`
}

// Inspection describes a release directory without building the graph.
type Inspection struct {
	InputDir     string       `json:"input_dir"`
	Primary      string       `json:"primary"`
	Format       string       `json:"format"`
	Hierarchy    string       `json:"hierarchy"`
	CrossRef     string       `json:"cross_reference,omitempty"`
	SourceOrg    string       `json:"source_organization,omitempty"`
	Version      string       `json:"version"`
	ReleaseDate  string       `json:"release_date"`
	Tier         int          `json:"tier"`
	KnownRelease bool         `json:"known_release"`
	ClassMap     string       `json:"class_map"`
	ClassNames   int          `json:"class_names"`
	Columns      []ColumnInfo `json:"columns"`
	Unmapped     []string     `json:"unmapped,omitempty"`
}

// Inspect opens the primary file and reports its release metadata and the
// classification of every header column.
func (e *Engine) Inspect() (info *Inspection, err error) {
	inputs, err := source.Discover(e.cfg.InputDir)
	if err != nil {
		return nil, err
	}
	primary, err := inputs.OpenPrimary()
	if err != nil {
		return nil, err
	}
	defer func() { err = closeAll(err, []io.Closer{primary}) }()

	if _, err := ParseReleaseDate(primary.ReleaseDate()); err != nil {
		return nil, err
	}

	ledger := diag.NewLedger(e.logger)
	rel := property.SelectRelease(primary.Version())
	names, err := e.loadNames(rel, ledger)
	if err != nil {
		return nil, err
	}
	classes := e.classifier(rel, ledger)

	info = &Inspection{
		InputDir:     inputs.Dir,
		Primary:      inputs.Primary,
		Format:       inputs.PrimaryFormat.String(),
		Hierarchy:    inputs.Hierarchy,
		CrossRef:     inputs.CrossRef,
		SourceOrg:    inputs.SourceOrg,
		Version:      primary.Version(),
		ReleaseDate:  primary.ReleaseDate(),
		Tier:         int(rel.Tier),
		KnownRelease: rel.Known,
		ClassMap:     names.Name(),
		ClassNames:   names.Len(),
	}
	for _, name := range primary.Columns().Names() {
		p, ok := classes.Classify(name)
		if !ok {
			info.Columns = append(info.Columns, ColumnInfo{Name: name, Category: Unmapped})
			continue
		}
		info.Columns = append(info.Columns, ColumnInfo{
			Name:     name,
			Category: p.Category.String(),
			Active:   p.Active(),
			Property: p.ID.String(),
		})
	}
	info.Unmapped = classes.Unresolved(primary.Columns().Names())
	return info, nil
}
