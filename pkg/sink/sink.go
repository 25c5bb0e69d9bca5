// Package sink defines where converted concepts are written.
//
// A Sink receives every concept of the graph, one at a time and in emission order,
// followed by the groupings (named concept sets) of the run. Sinks register
// themselves by name from init functions; the converter selects one by the
// configured output format.
package sink

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"github.com/leapstack-labs/loincgraph/pkg/concept"
)

// Options configures an output.
type Options struct {
	// Path is a file or directory path for file-backed sinks.
	Path string
	// DSN is a connection string for server-backed sinks.
	DSN string
	// Params holds sink-specific settings (credentials, batch size, database name).
	Params map[string]string
}

// Param returns a parameter or def when unset.
func (o Options) Param(key, def string) string {
	if v, ok := o.Params[key]; ok && v != "" {
		return v
	}
	return def
}

// IntParam returns an integer parameter or def when unset or malformed.
func (o Options) IntParam(key string, def int) int {
	v, err := strconv.Atoi(o.Param(key, ""))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// Grouping is a named set of concepts written after every concept.
type Grouping struct {
	ID      uuid.UUID
	Name    string
	Members []uuid.UUID
}

// Sink writes concepts to an output.
type Sink interface {
	// Open prepares the output.
	Open(ctx context.Context, opts Options) error
	// WriteConcept writes one concept with all of its components.
	WriteConcept(ctx context.Context, c *concept.Concept) error
	// WriteGrouping writes a named concept set.
	WriteGrouping(ctx context.Context, g Grouping) error
	// Close flushes pending output and releases resources.
	Close() error
}
