package sink

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/loincgraph/pkg/concept"
)

type nopSink struct{}

func (nopSink) Open(context.Context, Options) error                  { return nil }
func (nopSink) WriteConcept(context.Context, *concept.Concept) error { return nil }
func (nopSink) WriteGrouping(context.Context, Grouping) error        { return nil }
func (nopSink) Close() error                                         { return nil }

func TestRegistry(t *testing.T) {
	Register("test-nop", func(*slog.Logger) Sink { return nopSink{} })

	assert.True(t, IsRegistered("test-nop"))
	assert.Contains(t, List(), "test-nop")

	s, err := New("test-nop", nil)
	require.NoError(t, err)
	assert.NotNil(t, s)

	_, err = New("", nil)
	assert.Error(t, err)

	_, err = New("carrier-pigeon", nil)
	var unknown *UnknownSinkError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "carrier-pigeon", unknown.Format)
	assert.Contains(t, unknown.Available, "test-nop")
	assert.Contains(t, err.Error(), "output.format")
}

func TestOptions_Params(t *testing.T) {
	o := Options{Params: map[string]string{"batch_size": "250", "bad": "x", "user": "neo4j"}}
	assert.Equal(t, 250, o.IntParam("batch_size", 500))
	assert.Equal(t, 500, o.IntParam("bad", 500))
	assert.Equal(t, 500, o.IntParam("missing", 500))
	assert.Equal(t, "neo4j", o.Param("user", "default"))
	assert.Equal(t, "default", o.Param("password", "default"))
}

func TestRebind(t *testing.T) {
	assert.Equal(t, "INSERT INTO t (a, b) VALUES ($1, $2)", Rebind("INSERT INTO t (a, b) VALUES (?, ?)"))
	assert.Equal(t, "SELECT 1", Rebind("SELECT 1"))
}

func sampleConcept() *concept.Concept {
	ns := concept.NewNamespaces("")
	c := concept.New(ns.DataID("1-8"), "1-8", concept.RoleData, time.Date(2014, 1, 3, 0, 0, 0, 0, time.UTC))
	c.Status = "ACTIVE"
	c.AddDescriptions([]concept.Candidate{{Text: "Acyclovir", Property: concept.Property{ID: ns.MetadataID("property:LONG_COMMON_NAME"), Name: "LONG_COMMON_NAME"}}})
	c.AddAttribute(concept.Property{Name: "STATUS"}, "ACTIVE", true)
	c.AddIdentifier(concept.Property{Name: "LOINC_NUM"}, "1-8", true)
	c.AddRelationship(ns.DataID("2-6"), concept.Property{Name: "MAP_TO"},
		concept.Attribute{Property: concept.Property{Name: "COMMENT"}, Value: "see 2-6", Active: true})
	return c
}

func TestNewRecord(t *testing.T) {
	c := sampleConcept()
	r := NewRecord(c)

	assert.Equal(t, c.ID.String(), r.ID)
	assert.Equal(t, "1-8", r.Code)
	assert.Equal(t, "data", r.Role)
	assert.Equal(t, "Acyclovir", r.PreferredName)
	require.Len(t, r.Descriptions, 1)
	assert.Equal(t, "preferred_name", r.Descriptions[0].Kind)
	require.Len(t, r.Relationships, 1)
	assert.Equal(t, "MAP_TO", r.Relationships[0].Type)
	require.Len(t, r.Relationships[0].Annotations, 1)
	assert.Equal(t, "see 2-6", r.Relationships[0].Annotations[0].Value)
}

func TestBaseSQLSink_WriteConcept(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	s := &BaseSQLSink{DB: db, Logger: slog.New(slog.DiscardHandler), Placeholder: PlaceholderDollar}
	c := sampleConcept()
	id := c.ID.String()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO concepts (id, code, role, changed_at, status, active, preferred_name) VALUES ($1, $2, $3, $4, $5, $6, $7)")).
		WithArgs(id, "1-8", "data", c.Time, "ACTIVE", true, "Acyclovir").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO descriptions").
		WithArgs(id, 0, "Acyclovir", "preferred_name", sqlmock.AnyArg(), "LONG_COMMON_NAME").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO attributes").
		WithArgs(id, 0, sqlmock.AnyArg(), "STATUS", "ACTIVE", true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO identifiers").
		WithArgs(id, 0, sqlmock.AnyArg(), "LOINC_NUM", "1-8", true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO relationships").
		WithArgs(id, 0, sqlmock.AnyArg(), sqlmock.AnyArg(), "MAP_TO").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO relationship_annotations").
		WithArgs(id, 0, 0, sqlmock.AnyArg(), "COMMENT", "see 2-6", true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.WriteConcept(context.Background(), c))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBaseSQLSink_WriteConceptRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	s := &BaseSQLSink{DB: db}
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO concepts").WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	err = s.WriteConcept(context.Background(), sampleConcept())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert concept 1-8")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBaseSQLSink_WriteGrouping(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	ns := concept.NewNamespaces("")
	g := Grouping{ID: ns.MetadataID("grouping:all"), Name: "All", Members: []uuid.UUID{ns.DataID("a"), ns.DataID("b")}}
	s := &BaseSQLSink{DB: db}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO groupings (id, name) VALUES (?, ?)")).
		WithArgs(g.ID.String(), "All").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO grouping_members").
		WithArgs(g.ID.String(), g.Members[0].String()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO grouping_members").
		WithArgs(g.ID.String(), g.Members[1].String()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.WriteGrouping(context.Background(), g))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBaseSQLSink_NotConnected(t *testing.T) {
	s := &BaseSQLSink{}
	assert.Error(t, s.WriteConcept(context.Background(), sampleConcept()))
	assert.Error(t, s.WriteGrouping(context.Background(), Grouping{}))
	assert.NoError(t, s.Close())
}

func TestSchemaMatchesMigration(t *testing.T) {
	up, err := migrations.ReadFile("migrations/00001_concept_graph.sql")
	require.NoError(t, err)
	assert.Contains(t, string(up), Schema())
}
