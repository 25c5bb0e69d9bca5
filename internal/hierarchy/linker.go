// Package hierarchy links multi-axial hierarchy rows into the concept graph.
//
// Each row names a code, its display text, its immediate parent and the full
// dot-separated path from the root. The linker creates the concept when the data
// pass did not, then walks the path from the nearest ancestor back toward the root,
// adding a parent edge at each step that lacks one. Walking stops with a fatal
// error when an ancestor on the path has no concept.
package hierarchy

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/leapstack-labs/loincgraph/internal/diag"
	"github.com/leapstack-labs/loincgraph/internal/graph"
	"github.com/leapstack-labs/loincgraph/internal/property"
	"github.com/leapstack-labs/loincgraph/internal/source"
	"github.com/leapstack-labs/loincgraph/pkg/concept"
)

// Stats counts what the linker did.
type Stats struct {
	Rows       int `json:"rows" yaml:"rows"`
	Created    int `json:"created" yaml:"created"`
	EdgesAdded int `json:"path_edges_added" yaml:"path_edges_added"`
}

// Options configures a Linker.
type Options struct {
	Namespaces  concept.Namespaces
	Root        uuid.UUID
	DefaultTime time.Time
	Ledger      *diag.Ledger
}

type layout struct {
	path, sequence, parent, code, text int
}

// Linker applies hierarchy rows to a graph.
type Linker struct {
	graph   *graph.Graph
	classes *property.Classifier
	ns      concept.Namespaces
	root    uuid.UUID
	time    time.Time
	ledger  *diag.Ledger

	src    string
	layout layout
	bound  bool
	stats  Stats
}

// NewLinker returns a linker writing into g.
func NewLinker(g *graph.Graph, classes *property.Classifier, opts Options) *Linker {
	if opts.Ledger == nil {
		opts.Ledger = diag.NewLedger(nil)
	}
	return &Linker{
		graph:   g,
		classes: classes,
		ns:      opts.Namespaces,
		root:    opts.Root,
		time:    opts.DefaultTime,
		ledger:  opts.Ledger,
	}
}

// Bind resolves the hierarchy columns of a header. Every column is required.
func (l *Linker) Bind(cols *source.Columns, name string) error {
	idx := func(col string) (int, error) {
		i, ok := cols.Index(col)
		if !ok {
			return 0, diag.Fatalf(diag.ErrMissingColumn, name, 0, "no %s column", col)
		}
		return i, nil
	}

	var err error
	var lo layout
	if lo.path, err = idx(property.ColPathToRoot); err != nil {
		return err
	}
	if lo.sequence, err = idx(property.ColSequence); err != nil {
		return err
	}
	if lo.parent, err = idx(property.ColImmediateParent); err != nil {
		return err
	}
	if lo.code, err = idx(property.ColHierarchyCode); err != nil {
		return err
	}
	if lo.text, err = idx(property.ColCodeText); err != nil {
		return err
	}
	l.layout = lo
	l.src = name
	l.bound = true
	return nil
}

// Stats returns the counters collected so far.
func (l *Linker) Stats() Stats {
	return l.stats
}

// AddRow applies one hierarchy row. line is used in diagnostics.
func (l *Linker) AddRow(row []string, line int) error {
	if !l.bound {
		l.layout = layout{path: 0, sequence: 1, parent: 2, code: 3, text: 4}
		l.bound = true
	}
	l.stats.Rows++

	field := func(i int) string {
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	pathText := field(l.layout.path)
	sequence := field(l.layout.sequence)
	parent := field(l.layout.parent)
	code := field(l.layout.code)
	text := field(l.layout.text)

	if code == "" || text == "" {
		l.ledger.Record(diag.KindHierarchyMissingField, "hierarchy row is missing code or text",
			"source", l.src, "line", line, "code", code, "text", text)
	}
	if code == "" {
		return nil
	}

	c, ok := l.graph.Get(l.ns.DataID(code))
	if !ok {
		c = l.create(code, text, sequence, parent, pathText)
	}
	return l.LinkPath(c, SplitPath(pathText), line)
}

func (l *Linker) create(code, text, sequence, parent, pathText string) *concept.Concept {
	c := concept.New(l.ns.DataID(code), code, concept.RoleData, l.time)
	if sequence != "" {
		c.AddAttribute(l.classes.Ref(property.ColSequence), sequence, true)
	}
	if parent != "" {
		c.AddAttribute(l.classes.Ref(property.ColImmediateParent), parent, true)
	}
	name := text
	if name == "" {
		name = code
	}
	c.AddDescriptions([]concept.Candidate{{Text: name, Property: l.classes.Ref(property.ColCodeText)}})

	target := l.root
	if parent != "" {
		target = l.ns.DataID(parent)
	}
	c.AddRelationship(target, l.classes.Ref(property.RelMultiaxialChild))

	if pathText != "" {
		c.AddAttribute(l.classes.Ref(property.ColPathToRoot), pathText, true)
	}
	c.AddIdentifier(l.classes.Ref(property.ColHierarchyCode), code, true)

	l.graph.Put(c)
	l.stats.Created++
	return c
}

// LinkPath makes sure c and every ancestor on path are chained by parent edges.
// path runs from the root to the immediate parent. Existing edges of any type to the
// next ancestor are reused, so applying the same path twice adds nothing.
func (l *Linker) LinkPath(c *concept.Concept, path []string, line int) error {
	current := c
	for i := len(path) - 1; i >= 0; i-- {
		target := l.ns.DataID(path[i])
		if !current.HasRelationship(target) {
			current.AddRelationship(target, l.classes.Ref(property.RelMultiaxialChild))
			l.stats.EdgesAdded++
		}
		next, ok := l.graph.Get(target)
		if !ok {
			return diag.Fatalf(diag.ErrMissingAncestor, l.src, line, "ancestor %s of %s has no concept", path[i], c.Key)
		}
		current = next
	}
	return nil
}

// SplitPath splits a dot-separated path. An empty path has no elements.
func SplitPath(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ".")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
