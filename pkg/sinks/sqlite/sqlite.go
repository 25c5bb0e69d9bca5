// Package sqlite writes concepts into a SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/loincgraph/pkg/sink"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

// Sink writes the relational layout into SQLite.
type Sink struct {
	sink.BaseSQLSink
}

// New creates a SQLite sink.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sink{
		BaseSQLSink: sink.BaseSQLSink{Logger: logger, Placeholder: sink.PlaceholderQuestion},
	}
}

// Open opens (or creates) the database at opts.Path and applies migrations.
func (s *Sink) Open(ctx context.Context, opts sink.Options) error {
	if opts.Path == "" {
		return fmt.Errorf("sqlite output requires output.path")
	}
	dsn := opts.Path
	if opts.Path != ":memory:" {
		dsn = opts.Path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if opts.Path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	if err := sink.Migrate(db, "sqlite"); err != nil {
		_ = db.Close()
		return err
	}

	s.DB = db
	s.Logger.Debug("opened sqlite output", slog.String("path", opts.Path))
	return nil
}
