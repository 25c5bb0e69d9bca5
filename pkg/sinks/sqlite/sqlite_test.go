package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/loincgraph/internal/testutil"
	"github.com/leapstack-labs/loincgraph/pkg/concept"
	"github.com/leapstack-labs/loincgraph/pkg/sink"
)

func count(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestSink_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "loinc.db")
	ns := concept.NewNamespaces("")

	s := New(testutil.NewTestLogger(t))
	require.NoError(t, s.Open(ctx, sink.Options{Path: path}))

	a := concept.New(ns.DataID("1-8"), "1-8", concept.RoleData, time.Date(2014, 6, 1, 0, 0, 0, 0, time.UTC))
	a.Status = "ACTIVE"
	a.AddDescriptions([]concept.Candidate{
		{Text: "Acyclovir", Priority: 0},
		{Text: "ACV", Priority: 1},
	})
	a.AddAttribute(concept.Property{Name: "STATUS"}, "ACTIVE", true)
	a.AddIdentifier(concept.Property{Name: "LOINC_NUM"}, "1-8", true)

	b := concept.New(ns.DataID("2-6"), "2-6", concept.RoleData, time.Date(2014, 6, 1, 0, 0, 0, 0, time.UTC))
	b.AddRelationship(a.ID, concept.Property{Name: "MAP_TO"},
		concept.Attribute{Property: concept.Property{Name: "COMMENT"}, Value: "replaced", Active: true})

	require.NoError(t, s.WriteConcept(ctx, a))
	require.NoError(t, s.WriteConcept(ctx, b))
	require.NoError(t, s.WriteGrouping(ctx, sink.Grouping{ID: ns.MetadataID("all"), Name: "All", Members: []uuid.UUID{a.ID, b.ID}}))

	db := s.DB
	assert.Equal(t, 2, count(t, db, "concepts"))
	assert.Equal(t, 2, count(t, db, "descriptions"))
	assert.Equal(t, 1, count(t, db, "attributes"))
	assert.Equal(t, 1, count(t, db, "identifiers"))
	assert.Equal(t, 1, count(t, db, "relationships"))
	assert.Equal(t, 1, count(t, db, "relationship_annotations"))
	assert.Equal(t, 1, count(t, db, "groupings"))
	assert.Equal(t, 2, count(t, db, "grouping_members"))

	var name string
	require.NoError(t, db.QueryRow("SELECT preferred_name FROM concepts WHERE code = ?", "1-8").Scan(&name))
	assert.Equal(t, "Acyclovir", name)

	var target string
	require.NoError(t, db.QueryRow("SELECT target_id FROM relationships WHERE concept_id = ?", b.ID.String()).Scan(&target))
	assert.Equal(t, a.ID.String(), target)

	require.NoError(t, s.Close())
	assert.Nil(t, s.DB)
}

func TestSink_DuplicateConceptFailsAndRollsBack(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	require.NoError(t, s.Open(ctx, sink.Options{Path: filepath.Join(t.TempDir(), "dup.db")}))
	defer s.Close()

	c := concept.New(uuid.New(), "x", concept.RoleData, time.Now().UTC())
	c.AddDescriptions([]concept.Candidate{{Text: "X"}})
	require.NoError(t, s.WriteConcept(ctx, c))

	err := s.WriteConcept(ctx, c)
	require.Error(t, err)
	assert.Equal(t, 1, count(t, s.DB, "descriptions"))
}

func TestSink_OpenRequiresPath(t *testing.T) {
	assert.Error(t, New(nil).Open(context.Background(), sink.Options{}))
}

func TestRegistered(t *testing.T) {
	assert.True(t, sink.IsRegistered("sqlite"))
}
