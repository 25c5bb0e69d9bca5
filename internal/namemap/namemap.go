// Package namemap expands abbreviated class codes into display names.
//
// A map file lists keys and values on alternating non-blank lines; lines starting
// with '#' are comments. Lookups are case-insensitive and unknown keys pass through
// unchanged.
package namemap

import (
	"bufio"
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
)

//go:embed tables/*.txt
var tablesFS embed.FS

// Conflict records a key defined twice with different values. The later value wins.
type Conflict struct {
	Key      string
	Previous string
	Value    string
}

// Map is an immutable key to display-name table.
type Map struct {
	name      string
	fold      cases.Caser
	entries   map[string]string
	conflicts []Conflict
}

// Parse reads a map file from r. name is used in diagnostics.
func Parse(name string, r io.Reader) (*Map, error) {
	m := &Map{
		name:    name,
		fold:    cases.Fold(),
		entries: make(map[string]string),
	}

	sc := bufio.NewScanner(r)
	var key string
	haveKey := false
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !haveKey {
			key, haveKey = line, true
			continue
		}
		m.put(key, line)
		haveKey = false
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read name map %s: %w", name, err)
	}
	return m, nil
}

func (m *Map) put(key, value string) {
	k := m.fold.String(key)
	if old, ok := m.entries[k]; ok && old != value {
		m.conflicts = append(m.conflicts, Conflict{Key: key, Previous: old, Value: value})
	}
	m.entries[k] = value
}

// LoadEmbedded parses one of the bundled class map tables by file name.
func LoadEmbedded(fileName string) (*Map, error) {
	f, err := tablesFS.Open("tables/" + fileName)
	if err != nil {
		return nil, fmt.Errorf("bundled name map %s: %w", fileName, err)
	}
	defer f.Close()
	return Parse(fileName, f)
}

// LoadFile parses a map file from disk.
func LoadFile(path string) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open name map: %w", err)
	}
	defer f.Close()
	return Parse(filepath.Base(path), f)
}

// Embedded lists the bundled table names.
func Embedded() []string {
	entries, err := tablesFS.ReadDir("tables")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// HasMatch reports whether key has a mapping.
func (m *Map) HasMatch(key string) bool {
	_, ok := m.entries[m.fold.String(key)]
	return ok
}

// Lookup returns the mapped value for key, or key itself when unmapped.
func (m *Map) Lookup(key string) string {
	if v, ok := m.entries[m.fold.String(key)]; ok {
		return v
	}
	return key
}

// Name returns the map's file name.
func (m *Map) Name() string {
	return m.name
}

// Len returns the number of keys.
func (m *Map) Len() int {
	return len(m.entries)
}

// Conflicts returns keys that were defined more than once with different values.
func (m *Map) Conflicts() []Conflict {
	return append([]Conflict(nil), m.conflicts...)
}
