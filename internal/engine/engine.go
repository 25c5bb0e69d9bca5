// Package engine runs a conversion: it discovers the release files, builds the
// concept graph in the fixed phase order and streams the result to a sink.
package engine

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/leapstack-labs/loincgraph/internal/builder"
	"github.com/leapstack-labs/loincgraph/internal/diag"
	"github.com/leapstack-labs/loincgraph/internal/namemap"
	"github.com/leapstack-labs/loincgraph/internal/property"
	"github.com/leapstack-labs/loincgraph/pkg/concept"
	"github.com/leapstack-labs/loincgraph/pkg/sink"
)

// DefaultProgressInterval is the number of rows between progress records.
const DefaultProgressInterval = 1000

// ReleaseDateLayout parses release dates such as "June 2014".
const ReleaseDateLayout = "January 2006"

// Config holds engine configuration.
type Config struct {
	// InputDir is the directory holding the release files.
	InputDir string
	// Format is the registered sink name.
	Format string
	// Output configures the sink.
	Output sink.Options
	// Namespace seeds the deterministic concept identifiers.
	Namespace string
	// ProgressInterval is the number of rows between progress records.
	ProgressInterval int
	// SkipColumns are routed to the Skip category.
	SkipColumns []string
	// ClassMapFile replaces the embedded class name table when set.
	ClassMapFile string
	// StatusMap overrides the status code to active flag policy.
	StatusMap map[string]bool
	// FailOn lists anomaly kinds that fail the run after output is written.
	FailOn []diag.Kind
	// ConverterVersion is recorded on the dataset root.
	ConverterVersion string
	// SummaryFile receives the YAML run report when set.
	SummaryFile string
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Engine converts one release directory.
type Engine struct {
	cfg    Config
	logger *slog.Logger
	ns     concept.Namespaces
}

// New validates cfg and creates an engine.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.InputDir == "" {
		return nil, fmt.Errorf("input directory is required")
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = DefaultProgressInterval
	}

	logger.Debug("initializing engine", "input_dir", cfg.InputDir, "format", cfg.Format)

	return &Engine{
		cfg:    cfg,
		logger: logger,
		ns:     concept.NewNamespaces(cfg.Namespace),
	}, nil
}

// ParseReleaseDate parses a release date such as "June 2014" or "Released June 2014".
func ParseReleaseDate(s string) (time.Time, error) {
	v := strings.TrimSpace(s)
	v = strings.TrimSpace(strings.TrimPrefix(v, "Released"))
	t, err := time.Parse(ReleaseDateLayout, v)
	if err != nil {
		return time.Time{}, diag.Fatalf(diag.ErrBadDate, "", 0, "release date %q", s)
	}
	return t, nil
}

// loadNames loads the class name table for rel, or the configured override file.
func (e *Engine) loadNames(rel property.Release, ledger *diag.Ledger) (*namemap.Map, error) {
	var (
		names *namemap.Map
		err   error
	)
	if e.cfg.ClassMapFile != "" {
		names, err = namemap.LoadFile(e.cfg.ClassMapFile)
	} else {
		names, err = namemap.LoadEmbedded(rel.ClassMapFile)
	}
	if err != nil {
		return nil, err
	}
	for _, c := range names.Conflicts() {
		ledger.Record(diag.KindNameMapConflict, "class name defined twice, later value wins",
			"table", names.Name(), "key", c.Key, "previous", c.Previous, "value", c.Value)
	}
	return names, nil
}

// classifier builds the property classifier for rel, recording duplicate claims.
func (e *Engine) classifier(rel property.Release, ledger *diag.Ledger) *property.Classifier {
	classes := property.NewClassifier(property.Options{
		Tier:        rel.Tier,
		Namespaces:  e.ns,
		SkipColumns: e.cfg.SkipColumns,
	})
	for _, c := range classes.Conflicts() {
		ledger.Record(diag.KindDuplicateProperty, "column claimed by two categories, later claim wins",
			"column", c.Name, "existing", c.Existing.String(), "incoming", c.Incoming.String())
	}
	return classes
}

// statusPolicy merges configured overrides into the default policy.
func (e *Engine) statusPolicy() builder.StatusPolicy {
	return builder.DefaultStatusPolicy().Merge(e.cfg.StatusMap)
}

// closeAll closes every closer in reverse order. Close errors are returned on
// the normal path and joined onto err otherwise.
func closeAll(err error, closers []io.Closer) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if cerr := closers[i].Close(); cerr != nil {
			errs = append(errs, cerr)
		}
	}
	if len(errs) == 0 {
		return err
	}
	return errors.Join(append([]error{err}, errs...)...)
}
