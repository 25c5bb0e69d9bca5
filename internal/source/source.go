// Package source reads tabular LOINC release files.
//
// Two physical layouts are supported behind the Reader interface: the comma-separated
// release (loinc.csv plus a loinc_releasenotes.txt sidecar carrying version and date)
// and the legacy tab-delimited export (loincdb.txt, version and date on its first two
// lines, data after a marker line). Both strip a leading byte-order mark and surrounding
// quotes, and both fix the column count from the header: shorter rows are padded with
// empty values, longer rows are fatal.
package source

import (
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/leapstack-labs/loincgraph/internal/diag"
)

// Reader is a forward-only cursor over the rows of one release file.
type Reader interface {
	// Columns returns the header of the file.
	Columns() *Columns
	// Version returns the release version, or "" when the file does not carry one.
	Version() string
	// ReleaseDate returns the release date text, or "" when the file does not carry one.
	ReleaseDate() string
	// Next returns the next row padded to the header width. It returns io.EOF after the last row.
	Next() ([]string, error)
	// Line returns the physical line number of the row most recently returned by Next.
	Line() int
	// Name returns the file name used in diagnostics.
	Name() string
	Close() error
}

// Columns maps header names to positions.
type Columns struct {
	names []string
	index map[string]int
}

// NewColumns indexes a header. When a name repeats, the first position wins.
func NewColumns(names []string) *Columns {
	c := &Columns{names: names, index: make(map[string]int, len(names))}
	for i, n := range names {
		if _, ok := c.index[n]; !ok {
			c.index[n] = i
		}
	}
	return c
}

// Names returns the header in file order.
func (c *Columns) Names() []string {
	return c.names
}

// Len returns the number of columns.
func (c *Columns) Len() int {
	return len(c.names)
}

// Name returns the name of column i.
func (c *Columns) Name(i int) string {
	return c.names[i]
}

// Index returns the position of a named column.
func (c *Columns) Index(name string) (int, bool) {
	i, ok := c.index[name]
	return i, ok
}

// Value returns the field for a named column, or "" when the column is absent.
func (c *Columns) Value(row []string, name string) string {
	i, ok := c.index[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// fit pads row to width or fails when it is wider than the header.
func fit(row []string, width int, name string, line int) ([]string, error) {
	switch {
	case len(row) == width:
		return row, nil
	case len(row) > width:
		return nil, diag.Fatalf(diag.ErrTooManyFields, name, line, "got %d fields, header has %d", len(row), width)
	default:
		padded := make([]string, width)
		copy(padded, row)
		return padded, nil
	}
}

// unquote strips one pair of surrounding double quotes.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// stripBOM decodes r as UTF-8, dropping a leading byte-order mark.
func stripBOM(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}
