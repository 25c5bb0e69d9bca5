package neo4j

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/loincgraph/pkg/concept"
	"github.com/leapstack-labs/loincgraph/pkg/sink"
)

type call struct {
	cypher string
	params map[string]any
}

type recorder struct {
	calls []call
	err   error
}

func (r *recorder) run(_ context.Context, cypher string, params map[string]any) error {
	r.calls = append(r.calls, call{cypher: cypher, params: params})
	return r.err
}

func newTestSink(batch int) (*Sink, *recorder) {
	rec := &recorder{}
	s := New(nil)
	s.batchSize = batch
	s.run = rec.run
	return s, rec
}

func dataConcept(ns concept.Namespaces, code string) *concept.Concept {
	c := concept.New(ns.DataID(code), code, concept.RoleData, time.Date(2014, 6, 1, 0, 0, 0, 0, time.UTC))
	c.AddDescriptions([]concept.Candidate{{Text: "Name " + code, Priority: 0}, {Text: "Syn " + code, Priority: 1}})
	return c
}

func TestNodeParams(t *testing.T) {
	ns := concept.NewNamespaces("")
	c := dataConcept(ns, "1-8")
	c.Status = "ACTIVE"
	c.AddAttribute(concept.Property{Name: "STATUS"}, "ACTIVE", true)

	node, err := nodeParams(sink.NewRecord(c))
	require.NoError(t, err)

	assert.Equal(t, c.ID.String(), node["id"])
	assert.Equal(t, "1-8", node["code"])
	assert.Equal(t, "Name 1-8", node["preferred_name"])
	assert.Equal(t, []string{"Syn 1-8"}, node["synonyms"])
	assert.Equal(t, "2014-06-01T00:00:00Z", node["changed_at"])
	assert.Contains(t, node["attributes_json"], `"value":"ACTIVE"`)
}

func TestRelParams(t *testing.T) {
	ns := concept.NewNamespaces("")
	c := dataConcept(ns, "1-8")
	c.AddRelationship(ns.DataID("2-6"), concept.Property{Name: "MAP_TO"},
		concept.Attribute{Property: concept.Property{Name: "COMMENT"}, Value: "replaced", Active: true})
	c.AddRelationship(ns.MetadataID("LOINC"), concept.Property{Name: "Is a"})

	rels, err := relParams(sink.NewRecord(c))
	require.NoError(t, err)
	require.Len(t, rels, 2)

	assert.Equal(t, ns.DataID("2-6").String(), rels[0]["to_id"])
	assert.Equal(t, "MAP_TO", rels[0]["type"])
	assert.Equal(t, int64(0), rels[0]["ordinal"])
	assert.Contains(t, rels[0]["annotations_json"], "replaced")
	assert.Equal(t, "", rels[1]["annotations_json"])
	assert.Equal(t, int64(1), rels[1]["ordinal"])
}

func TestSink_BatchesConcepts(t *testing.T) {
	ctx := context.Background()
	ns := concept.NewNamespaces("")
	s, rec := newTestSink(2)

	a := dataConcept(ns, "a")
	a.AddRelationship(ns.DataID("b"), concept.Property{Name: "MAP_TO"})
	require.NoError(t, s.WriteConcept(ctx, a))
	assert.Empty(t, rec.calls)

	require.NoError(t, s.WriteConcept(ctx, dataConcept(ns, "b")))
	require.Len(t, rec.calls, 2)
	assert.Equal(t, upsertNodes, rec.calls[0].cypher)
	assert.Len(t, rec.calls[0].params["nodes"], 2)
	assert.Equal(t, upsertRels, rec.calls[1].cypher)
	assert.Len(t, rec.calls[1].params["rels"], 1)

	require.NoError(t, s.WriteConcept(ctx, dataConcept(ns, "c")))
	require.NoError(t, s.Close())
	require.Len(t, rec.calls, 3)
	assert.Len(t, rec.calls[2].params["nodes"], 1)
	assert.Equal(t, 3, s.written)
}

func TestSink_WriteGrouping(t *testing.T) {
	ctx := context.Background()
	ns := concept.NewNamespaces("")
	s, rec := newTestSink(2)

	require.NoError(t, s.WriteConcept(ctx, dataConcept(ns, "a")))
	g := sink.Grouping{
		ID:      ns.MetadataID("grouping:all"),
		Name:    "All",
		Members: []uuid.UUID{ns.DataID("a"), ns.DataID("b"), ns.DataID("c")},
	}
	require.NoError(t, s.WriteGrouping(ctx, g))

	require.Len(t, rec.calls, 4)
	assert.Equal(t, upsertNodes, rec.calls[0].cypher)
	assert.Equal(t, upsertGrouping, rec.calls[1].cypher)
	assert.Equal(t, "All", rec.calls[1].params["name"])
	assert.Equal(t, []string{ns.DataID("a").String(), ns.DataID("b").String()}, rec.calls[2].params["members"])
	assert.Equal(t, []string{ns.DataID("c").String()}, rec.calls[3].params["members"])
}

func TestSink_RunErrorsAreWrapped(t *testing.T) {
	ctx := context.Background()
	s, rec := newTestSink(1)
	rec.err = errors.New("connection reset")

	err := s.WriteConcept(ctx, dataConcept(concept.NewNamespaces(""), "a"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write concepts")
	assert.ErrorIs(t, err, rec.err)
}

func TestSink_NotOpen(t *testing.T) {
	s := New(nil)
	assert.Error(t, s.WriteConcept(context.Background(), dataConcept(concept.NewNamespaces(""), "a")))
	assert.Error(t, s.WriteGrouping(context.Background(), sink.Grouping{}))
	assert.NoError(t, s.Close())
	assert.Error(t, s.Open(context.Background(), sink.Options{}))
}

func TestRegistered(t *testing.T) {
	assert.True(t, sink.IsRegistered("neo4j"))
}
