// Package crossref loads the MAP_TO table: replacement links from retired codes to
// the codes that supersede them, each with an optional comment.
package crossref

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/leapstack-labs/loincgraph/internal/diag"
	"github.com/leapstack-labs/loincgraph/internal/source"
)

// Entry is one outgoing link of a source code.
type Entry struct {
	Target  string
	Comment string
}

// Table maps source codes to their targets.
type Table struct {
	entries map[string]map[string]string
	count   int
}

// New returns an empty table.
func New() *Table {
	return &Table{entries: make(map[string]map[string]string)}
}

// Load reads every row of r. The first three columns are source, target and comment.
// Rows with a blank source or target are ignored; a repeated (source, target) pair is fatal.
func Load(r source.Reader) (*Table, error) {
	t := New()
	if r.Columns().Len() < 2 {
		return nil, diag.Fatalf(diag.ErrMissingColumn, r.Name(), 0, "expected source and target columns, got %v", r.Columns().Names())
	}
	for {
		row, err := r.Next()
		if errors.Is(err, io.EOF) {
			return t, nil
		}
		if err != nil {
			return nil, err
		}

		from := strings.TrimSpace(row[0])
		to := strings.TrimSpace(row[1])
		if from == "" || to == "" {
			continue
		}
		comment := ""
		if len(row) > 2 {
			comment = strings.TrimSpace(row[2])
		}
		if err := t.Add(from, to, comment); err != nil {
			return nil, diag.Fatal(err, r.Name(), r.Line())
		}
	}
}

// Add records a link. It fails when the pair is already present.
func (t *Table) Add(from, to, comment string) error {
	targets, ok := t.entries[from]
	if !ok {
		targets = make(map[string]string)
		t.entries[from] = targets
	}
	if _, dup := targets[to]; dup {
		return fmt.Errorf("%w: %s -> %s", diag.ErrDuplicateCrossRef, from, to)
	}
	targets[to] = comment
	t.count++
	return nil
}

// Targets returns the links of code sorted by target. It returns nil for unknown codes.
func (t *Table) Targets(code string) []Entry {
	targets := t.entries[code]
	if len(targets) == 0 {
		return nil
	}
	out := make([]Entry, 0, len(targets))
	for to, comment := range targets {
		out = append(out, Entry{Target: to, Comment: comment})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Target < out[j].Target })
	return out
}

// Len returns the number of links.
func (t *Table) Len() int {
	return t.count
}

// Sources returns the number of distinct source codes.
func (t *Table) Sources() int {
	return len(t.entries)
}
