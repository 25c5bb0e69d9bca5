package source

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/loincgraph/internal/diag"
)

// CSVReader reads a comma-separated release file.
type CSVReader struct {
	name    string
	file    *os.File
	csv     *csv.Reader
	columns *Columns
	line    int
	version string
	release string
}

// OpenCSV opens path and reads its header row.
func OpenCSV(path string) (*CSVReader, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, diag.Fatal(fmt.Errorf("%w: %v", diag.ErrMissingInput, err), filepath.Base(path), 0)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	cr := csv.NewReader(stripBOM(bufio.NewReader(f)))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	r := &CSVReader{name: filepath.Base(path), file: f, csv: cr}

	header, err := cr.Read()
	if err != nil {
		_ = f.Close()
		if errors.Is(err, io.EOF) {
			return nil, diag.Fatalf(diag.ErrMissingInput, r.name, 0, "file has no header row")
		}
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	r.line, _ = cr.FieldPos(0)
	for i := range header {
		header[i] = strings.TrimSpace(unquote(header[i]))
	}
	r.columns = NewColumns(header)
	return r, nil
}

// LoadReleaseNotes reads version and release date from a release-notes sidecar.
// The first line containing "Version" supplies the version and the first line
// containing "Released" supplies the date; reading stops at the date.
func (r *CSVReader) LoadReleaseNotes(path string) error {
	version, release, err := ReadReleaseNotes(path)
	if err != nil {
		return err
	}
	r.version = version
	r.release = release
	return nil
}

// ReadReleaseNotes parses a loinc_releasenotes.txt sidecar.
func ReadReleaseNotes(path string) (version, release string, err error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", "", diag.Fatal(fmt.Errorf("%w: %v", diag.ErrMissingInput, err), filepath.Base(path), 0)
		}
		return "", "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(stripBOM(f))
	for sc.Scan() {
		line := sc.Text()
		if version == "" {
			if v, ok := labelValue(line, "Version"); ok {
				version = v
			}
		}
		if v, ok := labelValue(line, "Released"); ok {
			release = v
			break
		}
	}
	if err := sc.Err(); err != nil {
		return "", "", fmt.Errorf("read %s: %w", path, err)
	}
	return version, release, nil
}

// labelValue returns the text following label, with '|' separators blanked out.
func labelValue(line, label string) (string, bool) {
	i := strings.Index(line, label)
	if i < 0 {
		return "", false
	}
	v := line[i+len(label):]
	v = strings.ReplaceAll(v, "|", " ")
	return strings.TrimSpace(v), true
}

// Columns implements Reader.
func (r *CSVReader) Columns() *Columns { return r.columns }

// Version implements Reader.
func (r *CSVReader) Version() string { return r.version }

// ReleaseDate implements Reader.
func (r *CSVReader) ReleaseDate() string { return r.release }

// Line implements Reader.
func (r *CSVReader) Line() int { return r.line }

// Name implements Reader.
func (r *CSVReader) Name() string { return r.name }

// Next implements Reader.
func (r *CSVReader) Next() ([]string, error) {
	row, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, diag.Fatal(err, r.name, r.line+1)
	}
	r.line, _ = r.csv.FieldPos(0)
	return fit(row, r.columns.Len(), r.name, r.line)
}

// Close implements Reader.
func (r *CSVReader) Close() error {
	return r.file.Close()
}
