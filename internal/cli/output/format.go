package output

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// FormatHeader returns a markdown header of the given level.
func FormatHeader(level int, text string) string {
	if level < 1 {
		level = 1
	}
	return strings.Repeat("#", level) + " " + text
}

// FormatKeyValue returns a markdown list item "- **key:** value".
func FormatKeyValue(key, value string) string {
	return fmt.Sprintf("- **%s:** %s", key, value)
}

// Table renders header and rows to stdout. Text mode draws a light box table,
// markdown mode a pipe table. JSON mode is the caller's concern and falls back to markdown.
func (r *Renderer) Table(header []string, rows [][]string) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)

	if len(header) > 0 {
		hr := make(table.Row, len(header))
		for i, h := range header {
			hr[i] = h
		}
		t.AppendHeader(hr)
	}
	for _, row := range rows {
		tr := make(table.Row, len(row))
		for i, v := range row {
			tr[i] = v
		}
		t.AppendRow(tr)
	}

	if r.EffectiveMode() == ModeText {
		t.Render()
		return
	}
	t.RenderMarkdown()
}

// KeyValues renders label/value pairs: a two-column table in text mode,
// a markdown list otherwise.
func (r *Renderer) KeyValues(title string, pairs [][2]string) {
	if r.EffectiveMode() == ModeText {
		t := table.NewWriter()
		t.SetOutputMirror(r.out)
		t.SetStyle(table.StyleLight)
		if title != "" {
			t.SetTitle(title)
		}
		for _, p := range pairs {
			t.AppendRow(table.Row{p[0], p[1]})
		}
		t.Render()
		return
	}

	if title != "" {
		r.Println(FormatHeader(2, title))
		r.Println("")
	}
	for _, p := range pairs {
		r.Println(FormatKeyValue(p[0], p[1]))
	}
}
