// Package jsonl writes concepts as newline-delimited JSON.
package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/loincgraph/pkg/concept"
	"github.com/leapstack-labs/loincgraph/pkg/sink"
)

// Line is one output line. Exactly one of Concept or Grouping is set.
type Line struct {
	Type     string          `json:"type"`
	Concept  *sink.Record    `json:"concept,omitempty"`
	Grouping *GroupingRecord `json:"grouping,omitempty"`
}

// GroupingRecord is the serialized form of a grouping.
type GroupingRecord struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// Sink writes one line per concept followed by grouping lines.
type Sink struct {
	logger *slog.Logger
	path   string
	file   *os.File
	buf    *bufio.Writer
	enc    *json.Encoder
	lines  int
}

// New creates a JSONL sink.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sink{logger: logger}
}

// Open creates (or truncates) the output file.
func (s *Sink) Open(_ context.Context, opts sink.Options) error {
	if opts.Path == "" {
		return fmt.Errorf("jsonl output requires output.path")
	}
	f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", opts.Path, err)
	}
	s.path = opts.Path
	s.file = f
	s.buf = bufio.NewWriter(f)
	s.enc = json.NewEncoder(s.buf)
	s.enc.SetEscapeHTML(false)
	s.logger.Debug("opened jsonl output", slog.String("path", opts.Path))
	return nil
}

// WriteConcept appends c as one line.
func (s *Sink) WriteConcept(_ context.Context, c *concept.Concept) error {
	r := sink.NewRecord(c)
	return s.write(Line{Type: "concept", Concept: &r})
}

// WriteGrouping appends g as one line.
func (s *Sink) WriteGrouping(_ context.Context, g sink.Grouping) error {
	members := make([]string, len(g.Members))
	for i, m := range g.Members {
		members[i] = m.String()
	}
	return s.write(Line{Type: "grouping", Grouping: &GroupingRecord{ID: g.ID.String(), Name: g.Name, Members: members}})
}

func (s *Sink) write(l Line) error {
	if s.enc == nil {
		return fmt.Errorf("jsonl output not open")
	}
	if err := s.enc.Encode(l); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	s.lines++
	return nil
}

// Close flushes and closes the file.
func (s *Sink) Close() error {
	if s.file == nil {
		return nil
	}
	flushErr := s.buf.Flush()
	closeErr := s.file.Close()
	s.file, s.buf, s.enc = nil, nil, nil
	if flushErr != nil {
		return fmt.Errorf("failed to flush %s: %w", s.path, flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close %s: %w", s.path, closeErr)
	}
	s.logger.Debug("closed jsonl output", slog.String("path", s.path), slog.Int("lines", s.lines))
	return nil
}
