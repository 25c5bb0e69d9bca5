// Package postgres writes concepts into a PostgreSQL database.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver

	"github.com/leapstack-labs/loincgraph/pkg/sink"
)

// Sink writes the relational layout into PostgreSQL.
type Sink struct {
	sink.BaseSQLSink
}

// New creates a PostgreSQL sink.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sink{
		BaseSQLSink: sink.BaseSQLSink{Logger: logger, Placeholder: sink.PlaceholderDollar},
	}
}

// Open connects and applies migrations.
func (s *Sink) Open(ctx context.Context, opts sink.Options) error {
	dsn := buildPostgresDSN(opts)

	s.Logger.Debug("connecting to postgres",
		slog.String("host", opts.Param("host", "localhost")),
		slog.String("database", opts.Param("database", "")))

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}
	if err := sink.Migrate(db, "postgres"); err != nil {
		_ = db.Close()
		return err
	}

	s.DB = db
	return nil
}

// buildPostgresDSN returns opts.DSN when set, otherwise a key=value
// connection string built from the host, port, database, user, password
// and sslmode parameters.
func buildPostgresDSN(opts sink.Options) string {
	if opts.DSN != "" {
		return opts.DSN
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		opts.Param("host", "localhost"),
		opts.IntParam("port", 5432),
		opts.Param("database", "loinc"),
		opts.Param("sslmode", "disable"))

	if user := opts.Param("user", ""); user != "" {
		dsn += fmt.Sprintf(" user=%s", user)
	}
	if password := opts.Param("password", ""); password != "" {
		dsn += fmt.Sprintf(" password=%s", password)
	}
	return dsn
}
