// Package builder turns release rows into concepts of the terminology graph.
//
// A Builder owns the structural scaffolding (dataset root, axis and class
// categories, source organizations) and the data pass over the primary file.
// Every data row becomes one concept carrying its identifiers, descriptions,
// attributes and relationships; axis and class values become shared grouping
// concepts that are created on first sight.
package builder

import (
	"log/slog"
	"time"

	"github.com/leapstack-labs/loincgraph/internal/crossref"
	"github.com/leapstack-labs/loincgraph/internal/diag"
	"github.com/leapstack-labs/loincgraph/internal/graph"
	"github.com/leapstack-labs/loincgraph/internal/namemap"
	"github.com/leapstack-labs/loincgraph/internal/property"
	"github.com/leapstack-labs/loincgraph/pkg/concept"
)

// Options configures a Builder.
type Options struct {
	Namespaces concept.Namespaces
	// DefaultTime stamps concepts whose row has no last-changed date.
	DefaultTime time.Time
	Status      StatusPolicy
	Logger      *slog.Logger
	Ledger      *diag.Ledger
}

// Stats counts what the builder did.
type Stats struct {
	DataRows       int `json:"data_rows" yaml:"data_rows"`
	Concepts       int `json:"data_concepts" yaml:"data_concepts"`
	Groupings      int `json:"grouping_concepts" yaml:"grouping_concepts"`
	SourceOrgs     int `json:"source_organizations" yaml:"source_organizations"`
	Duplicates     int `json:"duplicates" yaml:"duplicates"`
	SkippedDeleted int `json:"skipped_deleted" yaml:"skipped_deleted"`
	SkippedFields  int `json:"skipped_fields" yaml:"skipped_fields"`
	UnmappedFields int `json:"unmapped_fields" yaml:"unmapped_fields"`
	CrossRefEdges  int `json:"cross_reference_edges" yaml:"cross_reference_edges"`
}

// Builder builds data, grouping and structural concepts into a graph.
type Builder struct {
	ns          concept.Namespaces
	defaultTime time.Time
	status      StatusPolicy
	logger      *slog.Logger
	ledger      *diag.Ledger

	graph   *graph.Graph
	classes *property.Classifier
	names   *namemap.Map
	xref    *crossref.Table

	root  *concept.Concept
	stats Stats
}

// New creates a builder writing into g. A nil xref behaves as an empty table and a nil
// names map passes class values through unchanged.
func New(g *graph.Graph, classes *property.Classifier, names *namemap.Map, xref *crossref.Table, opts Options) *Builder {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Ledger == nil {
		opts.Ledger = diag.NewLedger(opts.Logger)
	}
	if opts.Status == nil {
		opts.Status = DefaultStatusPolicy()
	}
	if xref == nil {
		xref = crossref.New()
	}
	return &Builder{
		ns:          opts.Namespaces,
		defaultTime: opts.DefaultTime,
		status:      opts.Status,
		logger:      opts.Logger,
		ledger:      opts.Ledger,
		graph:       g,
		classes:     classes,
		names:       names,
		xref:        xref,
	}
}

// Graph returns the graph the builder writes into.
func (b *Builder) Graph() *graph.Graph {
	return b.graph
}

// Root returns the dataset root, or nil before AddRoot.
func (b *Builder) Root() *concept.Concept {
	return b.root
}

// Stats returns the counters collected so far.
func (b *Builder) Stats() Stats {
	return b.stats
}

func (b *Builder) newConcept(role concept.Role, key string, t time.Time) *concept.Concept {
	return concept.New(b.ns.ID(role, key), key, role, t)
}

// describe gives c a preferred name taken from a named property.
func (b *Builder) describe(c *concept.Concept, text, prop string) {
	c.AddDescriptions([]concept.Candidate{{Text: text, Property: b.classes.Ref(prop)}})
}
