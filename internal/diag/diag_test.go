package diag

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/loincgraph/internal/testutil"
)

func TestClassifiedError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{
			name:    "with source and line",
			err:     Fatal(ErrTooManyFields, "loinc.csv", 12),
			wantMsg: "fatal: loinc.csv:12: row has more fields than the header",
		},
		{
			name:    "with source only",
			err:     Fatal(ErrMissingInput, "map_to.csv", 0),
			wantMsg: "fatal: map_to.csv: required input missing",
		},
		{
			name:    "bare",
			err:     Fatal(ErrBadDate, "", 0),
			wantMsg: "fatal: unparseable date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
			assert.True(t, IsFatal(tt.err))
		})
	}
}

func TestFatalf_WrapsSentinel(t *testing.T) {
	err := Fatalf(ErrMissingAncestor, "hierarchy.csv", 3, "ancestor %s of %s", "LP1", "LP2")
	wrapped := fmt.Errorf("hierarchy pass: %w", err)

	assert.True(t, errors.Is(wrapped, ErrMissingAncestor))
	assert.True(t, IsFatal(wrapped))
	assert.Contains(t, err.Error(), "ancestor LP1 of LP2")
	assert.False(t, IsFatal(errors.New("plain")))
}

func TestLedger_RecordAndCount(t *testing.T) {
	l := NewLedger(testutil.NewTestLogger(t))

	l.Record(KindUnknownStatus, "unknown status", "code", "1-8", "status", "PENDING")
	l.Record(KindUnknownStatus, "unknown status", "code", "2-6", "status", "PENDING")
	l.Expect(KindDeletedWithoutNameSkip, "skipping deleted code", "code", "3-4")

	assert.Equal(t, 2, l.Count(KindUnknownStatus))
	assert.Equal(t, 1, l.Count(KindDeletedWithoutNameSkip))
	assert.Equal(t, 3, l.Total())

	entries := l.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "code=1-8 status=PENDING", entries[0].Detail)
}

func TestLedger_KeepsBoundedEntries(t *testing.T) {
	l := NewLedger(nil)
	for i := 0; i < maxKeptPerKind+10; i++ {
		l.Record(KindReferentialGap, "gap")
	}
	assert.Equal(t, maxKeptPerKind+10, l.Count(KindReferentialGap))
	assert.Len(t, l.Entries(), maxKeptPerKind)
}

func TestLedger_Promote(t *testing.T) {
	l := NewLedger(nil)
	l.Record(KindDuplicateConcept, "duplicate")

	assert.NoError(t, l.Promote([]Kind{KindReferentialGap}))

	err := l.Promote([]Kind{KindReferentialGap, KindDuplicateConcept})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAnomaliesPromoted))
	assert.Contains(t, err.Error(), "duplicate_concept=1")
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("referential_gap")
	require.NoError(t, err)
	assert.Equal(t, KindReferentialGap, k)

	_, err = ParseKind("nope")
	assert.Error(t, err)
}
