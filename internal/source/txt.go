package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/loincgraph/internal/diag"
)

// DataMarker separates the preamble of a tab-delimited export from its header row.
const DataMarker = "<----Clip Here for Data----->"

// markerScanLimit is how many preamble lines are searched for DataMarker.
const markerScanLimit = 500

// maxLineSize bounds one physical line of a tab-delimited export.
const maxLineSize = 4 << 20

// TXTReader reads the legacy tab-delimited export.
type TXTReader struct {
	name    string
	file    *os.File
	scanner *bufio.Scanner
	columns *Columns
	line    int
	version string
	release string
	done    bool
}

// OpenTXT opens path, reads the version and date lines, skips the preamble up to
// DataMarker and reads the header row that follows it.
func OpenTXT(path string) (*TXTReader, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, diag.Fatal(fmt.Errorf("%w: %v", diag.ErrMissingInput, err), filepath.Base(path), 0)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	sc := bufio.NewScanner(stripBOM(f))
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	r := &TXTReader{name: filepath.Base(path), file: f, scanner: sc}

	if err := r.readPreamble(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return r, nil
}

func (r *TXTReader) readPreamble() error {
	var ok bool
	if r.version, ok = r.scan(); !ok {
		return r.eofError("missing version line")
	}
	r.version = strings.TrimSpace(r.version)
	if r.release, ok = r.scan(); !ok {
		return r.eofError("missing release date line")
	}
	r.release = strings.TrimSpace(r.release)

	found := false
	for i := 0; i < markerScanLimit; i++ {
		line, ok := r.scan()
		if !ok {
			break
		}
		if strings.HasPrefix(line, DataMarker) {
			found = true
			break
		}
	}
	if !found {
		if err := r.scanner.Err(); err != nil {
			return fmt.Errorf("read %s: %w", r.name, err)
		}
		return diag.Fatalf(diag.ErrMarkerNotFound, r.name, r.line, "no %q within %d lines", DataMarker, markerScanLimit)
	}

	header, ok := r.scan()
	if !ok {
		return r.eofError("missing header after data marker")
	}
	names := splitFields(header)
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
	}
	r.columns = NewColumns(names)
	return nil
}

func (r *TXTReader) eofError(msg string) error {
	if err := r.scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", r.name, err)
	}
	return diag.Fatalf(diag.ErrMissingInput, r.name, r.line, "%s", msg)
}

func (r *TXTReader) scan() (string, bool) {
	if !r.scanner.Scan() {
		return "", false
	}
	r.line++
	return strings.TrimSuffix(r.scanner.Text(), "\r"), true
}

// splitFields splits a tab-delimited line, stripping surrounding quotes from each field.
func splitFields(line string) []string {
	fields := strings.Split(line, "\t")
	for i, f := range fields {
		fields[i] = unquote(f)
	}
	return fields
}

// Columns implements Reader.
func (r *TXTReader) Columns() *Columns { return r.columns }

// Version implements Reader.
func (r *TXTReader) Version() string { return r.version }

// ReleaseDate implements Reader.
func (r *TXTReader) ReleaseDate() string { return r.release }

// Line implements Reader.
func (r *TXTReader) Line() int { return r.line }

// Name implements Reader.
func (r *TXTReader) Name() string { return r.name }

// Next implements Reader. A blank line ends the data section.
func (r *TXTReader) Next() ([]string, error) {
	if r.done {
		return nil, io.EOF
	}
	line, ok := r.scan()
	if !ok || line == "" {
		r.done = true
		if err := r.scanner.Err(); err != nil {
			return nil, fmt.Errorf("read %s: %w", r.name, err)
		}
		return nil, io.EOF
	}
	return fit(splitFields(line), r.columns.Len(), r.name, r.line)
}

// Close implements Reader.
func (r *TXTReader) Close() error {
	return r.file.Close()
}
