package hierarchy

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/loincgraph/internal/diag"
	"github.com/leapstack-labs/loincgraph/internal/graph"
	"github.com/leapstack-labs/loincgraph/internal/property"
	"github.com/leapstack-labs/loincgraph/internal/source"
	"github.com/leapstack-labs/loincgraph/internal/testutil"
	"github.com/leapstack-labs/loincgraph/pkg/concept"
)

var hierarchyHeader = []string{"PATH_TO_ROOT", "SEQUENCE", "IMMEDIATE_PARENT", "CODE", "CODE_TEXT"}

type fixture struct {
	g      *graph.Graph
	l      *Linker
	ns     concept.Namespaces
	root   *concept.Concept
	ledger *diag.Ledger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ns := concept.NewNamespaces("")
	g := graph.New()
	root := concept.New(ns.MetadataID("LOINC"), "LOINC", concept.RoleMetadata, time.Time{})
	g.Put(root)

	ledger := diag.NewLedger(testutil.NewTestLogger(t))
	classes := property.NewClassifier(property.Options{Tier: 4, Namespaces: ns})
	l := NewLinker(g, classes, Options{Namespaces: ns, Root: root.ID, Ledger: ledger})
	require.NoError(t, l.Bind(source.NewColumns(hierarchyHeader), "hierarchy.csv"))
	return &fixture{g: g, l: l, ns: ns, root: root, ledger: ledger}
}

func (f *fixture) get(t *testing.T, code string) *concept.Concept {
	t.Helper()
	c, ok := f.g.Get(f.ns.DataID(code))
	require.True(t, ok, "concept %s", code)
	return c
}

func (f *fixture) load(t *testing.T, rows ...[]string) {
	t.Helper()
	for i, r := range rows {
		require.NoError(t, f.l.AddRow(r, i+2))
	}
}

func childEdges(c *concept.Concept) int {
	n := 0
	for _, r := range c.Relationships {
		if r.Type.Name == property.RelMultiaxialChild {
			n++
		}
	}
	return n
}

func TestAddRow_EmptyParentLinksToRoot(t *testing.T) {
	f := newFixture(t)
	f.load(t, []string{"", "1", "", "LP29693-9", "Lab"})

	c := f.get(t, "LP29693-9")
	assert.True(t, c.HasRelationship(f.root.ID))
	assert.Equal(t, 1, childEdges(c))
	assert.Equal(t, "Lab", c.PreferredName())
	require.Len(t, c.Identifiers, 1)
	assert.Equal(t, "CODE", c.Identifiers[0].Property.Name)
}

func TestAddRow_BuildsChain(t *testing.T) {
	f := newFixture(t)
	f.load(t,
		[]string{"", "1", "", "A", "Alpha"},
		[]string{"A", "1", "A", "B", "Beta"},
		[]string{"A.B", "1", "B", "C", "Gamma"},
	)

	a, b, c := f.get(t, "A"), f.get(t, "B"), f.get(t, "C")
	assert.True(t, b.HasRelationship(a.ID))
	assert.True(t, c.HasRelationship(b.ID))
	assert.False(t, c.HasRelationship(a.ID), "only the immediate step is linked from each concept")
	assert.Equal(t, 1, childEdges(c))

	var attrs []string
	for _, at := range c.Attributes {
		attrs = append(attrs, at.Property.Name+"="+at.Value)
	}
	assert.ElementsMatch(t, []string{"SEQUENCE=1", "IMMEDIATE_PARENT=B", "PATH_TO_ROOT=A.B"}, attrs)
	assert.Equal(t, 3, f.l.Stats().Created)
}

func TestAddRow_Idempotent(t *testing.T) {
	f := newFixture(t)
	rows := [][]string{
		{"", "1", "", "A", "Alpha"},
		{"A", "1", "A", "B", "Beta"},
		{"A.B", "1", "B", "C", "Gamma"},
	}
	f.load(t, rows...)

	before := f.g.Relationships()
	f.load(t, rows...)

	assert.Equal(t, before, f.g.Relationships())
	assert.Equal(t, 3, f.g.Len()-1)
}

func TestAddRow_ExistingConceptGetsPathEdges(t *testing.T) {
	f := newFixture(t)
	f.load(t, []string{"", "1", "", "LP1", "Parent"})

	data := concept.New(f.ns.DataID("2345-7"), "2345-7", concept.RoleData, time.Time{})
	data.AddDescriptions([]concept.Candidate{{Text: "Glucose", Property: concept.Property{Name: "LONG_COMMON_NAME"}}})
	f.g.Put(data)

	f.load(t, []string{"LP1", "5", "LP1", "2345-7", "Glucose text"})

	c := f.get(t, "2345-7")
	assert.Same(t, data, c, "existing concepts are reused")
	assert.Equal(t, "Glucose", c.PreferredName())
	assert.True(t, c.HasRelationship(f.ns.DataID("LP1")))
	assert.Empty(t, c.Attributes, "reused concepts are not re-annotated")
	assert.Equal(t, 1, f.l.Stats().EdgesAdded)
}

func TestAddRow_MissingAncestorIsFatal(t *testing.T) {
	f := newFixture(t)
	f.load(t, []string{"", "1", "", "A", "Alpha"})

	err := f.l.AddRow([]string{"A.X", "1", "X", "C", "Gamma"}, 9)
	require.Error(t, err)
	assert.True(t, diag.IsFatal(err))
	assert.True(t, errors.Is(err, diag.ErrMissingAncestor))
	assert.Contains(t, err.Error(), "hierarchy.csv:9")
}

func TestAddRow_MissingFields(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.l.AddRow([]string{"", "1", "", "", "no code"}, 2))
	require.NoError(t, f.l.AddRow([]string{"", "1", "", "D", ""}, 3))

	assert.Equal(t, 2, f.ledger.Count(diag.KindHierarchyMissingField))
	assert.Equal(t, "D", f.get(t, "D").PreferredName())
	assert.Equal(t, 2, f.g.Len())
}

func TestBind_MissingColumn(t *testing.T) {
	f := newFixture(t)
	err := f.l.Bind(source.NewColumns([]string{"PATH_TO_ROOT", "CODE"}), "h.csv")
	assert.True(t, errors.Is(err, diag.ErrMissingColumn))
}

func TestSplitPath(t *testing.T) {
	assert.Nil(t, SplitPath(""))
	assert.Equal(t, []string{"A", "B"}, SplitPath("A.B"))
	assert.Equal(t, []string{"A", "B"}, SplitPath("A..B."))
}
