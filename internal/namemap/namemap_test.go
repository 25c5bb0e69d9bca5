package namemap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/loincgraph/internal/testutil"
)

func TestParse(t *testing.T) {
	m, err := Parse("test", strings.NewReader(testutil.Lines(
		"# comment",
		"",
		"CHEM",
		"  Chemistry  ",
		"# between pairs",
		"hem/bc",
		"Hematology/Blood count",
		"DANGLING",
	)))
	require.NoError(t, err)

	tests := []struct {
		key       string
		wantMatch bool
		want      string
	}{
		{key: "CHEM", wantMatch: true, want: "Chemistry"},
		{key: "chem", wantMatch: true, want: "Chemistry"},
		{key: "HEM/BC", wantMatch: true, want: "Hematology/Blood count"},
		{key: "UNKNOWN", wantMatch: false, want: "UNKNOWN"},
		{key: "DANGLING", wantMatch: false, want: "DANGLING"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.wantMatch, m.HasMatch(tt.key))
			assert.Equal(t, tt.want, m.Lookup(tt.key))
		})
	}
	assert.Equal(t, 2, m.Len())
	assert.Empty(t, m.Conflicts())
}

func TestParse_Conflicts(t *testing.T) {
	m, err := Parse("test", strings.NewReader(testutil.Lines(
		"CHEM", "Chemistry",
		"chem", "Chemistry",
		"Chem", "Clinical chemistry",
	)))
	require.NoError(t, err)

	conflicts := m.Conflicts()
	require.Len(t, conflicts, 1)
	assert.Equal(t, Conflict{Key: "Chem", Previous: "Chemistry", Value: "Clinical chemistry"}, conflicts[0])
	assert.Equal(t, "Clinical chemistry", m.Lookup("CHEM"))
}

func TestLoadEmbedded(t *testing.T) {
	for _, name := range []string{
		"classMappings-2.36.txt",
		"classMappings-2.40.txt",
		"classMappings-2.44.txt",
		"classMappings-2.46.txt",
		"classMappings-2.48.txt",
	} {
		t.Run(name, func(t *testing.T) {
			m, err := LoadEmbedded(name)
			require.NoError(t, err)
			assert.Equal(t, name, m.Name())
			assert.Equal(t, "Chemistry", m.Lookup("CHEM"))
			assert.Empty(t, m.Conflicts())
		})
	}

	_, err := LoadEmbedded("classMappings-9.99.txt")
	assert.Error(t, err)
	assert.Len(t, Embedded(), 5)
}

func TestLoadFile(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "local.txt", testutil.Lines("X", "Extended"))
	m, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Extended", m.Lookup("x"))
	assert.Equal(t, "local.txt", m.Name())

	_, err = LoadFile(path + ".missing")
	assert.Error(t, err)
}
