package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMode(t *testing.T) {
	tests := []struct {
		in   string
		want OutputMode
	}{
		{"", ModeAuto},
		{"auto", ModeAuto},
		{"TEXT", ModeText},
		{"markdown", ModeMarkdown},
		{"md", ModeMarkdown},
		{"json", ModeJSON},
		{"xml", ModeAuto},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Mode(tt.in))
		})
	}

	assert.True(t, IsValidMode(""))
	assert.True(t, IsValidMode("Json"))
	assert.False(t, IsValidMode("xml"))
}

func TestEffectiveMode(t *testing.T) {
	var out, errOut bytes.Buffer

	assert.Equal(t, ModeText, NewRendererWithTTY(&out, &errOut, true, ModeAuto).EffectiveMode())
	assert.Equal(t, ModeMarkdown, NewRendererWithTTY(&out, &errOut, false, ModeAuto).EffectiveMode())
	assert.Equal(t, ModeJSON, NewRendererWithTTY(&out, &errOut, true, ModeJSON).EffectiveMode())
	assert.Equal(t, ModeMarkdown, NewRendererWithTTY(&out, &errOut, false, "").EffectiveMode())

	// A buffer is never a terminal.
	assert.False(t, NewRenderer(&out, &errOut, ModeAuto).IsTTY())
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "# Title", FormatHeader(1, "Title"))
	assert.Equal(t, "### Sub", FormatHeader(3, "Sub"))
	assert.Equal(t, "# Zero", FormatHeader(0, "Zero"))
	assert.Equal(t, "- **Version:** 2.48", FormatKeyValue("Version", "2.48"))
}

func TestTable(t *testing.T) {
	header := []string{"Column", "Category"}
	rows := [][]string{{"LOINC_NUM", "identifier"}, {"MYSTERY", "UNMAPPED"}}

	t.Run("markdown", func(t *testing.T) {
		var out bytes.Buffer
		r := NewRendererWithTTY(&out, &bytes.Buffer{}, false, ModeMarkdown)
		r.Table(header, rows)

		s := out.String()
		assert.Contains(t, s, "| Column | Category |")
		assert.Contains(t, s, "| LOINC_NUM | identifier |")
		assert.Contains(t, s, "| --- | --- |")
	})

	t.Run("text", func(t *testing.T) {
		var out bytes.Buffer
		r := NewRendererWithTTY(&out, &bytes.Buffer{}, true, ModeText)
		r.Table(header, rows)

		s := out.String()
		assert.Contains(t, s, "┌")
		assert.Contains(t, s, "MYSTERY")
		assert.Contains(t, s, "COLUMN")
	})
}

func TestKeyValues(t *testing.T) {
	pairs := [][2]string{{"Version", "2.48"}, {"Tier", "4"}}

	var md bytes.Buffer
	NewRendererWithTTY(&md, &bytes.Buffer{}, false, ModeAuto).KeyValues("Release", pairs)
	assert.Equal(t, "## Release\n\n- **Version:** 2.48\n- **Tier:** 4\n", md.String())

	var text bytes.Buffer
	NewRendererWithTTY(&text, &bytes.Buffer{}, true, ModeAuto).KeyValues("Release", pairs)
	assert.Contains(t, strings.ToLower(text.String()), "release")
	assert.Contains(t, text.String(), "2.48")
	assert.NotContains(t, text.String(), "**")
}

func TestJSONAndWarn(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRendererWithTTY(&out, &errOut, false, ModeJSON)

	require.NoError(t, r.JSON(map[string]int{"concepts": 2}))
	assert.Equal(t, "{\n  \"concepts\": 2\n}\n", out.String())

	r.Warnf("%d anomalies", 3)
	assert.Equal(t, "warning: 3 anomalies\n", errOut.String())
	assert.True(t, strings.HasSuffix(errOut.String(), "\n"))
}
