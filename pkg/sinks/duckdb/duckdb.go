// Package duckdb writes concepts into a DuckDB database file.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver

	"github.com/leapstack-labs/loincgraph/pkg/sink"
)

// settingKeys are the Options.Params applied as session settings.
var settingKeys = []string{"memory_limit", "threads", "preserve_insertion_order"}

// Sink writes the relational layout into DuckDB.
type Sink struct {
	sink.BaseSQLSink
}

// New creates a DuckDB sink.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sink{
		BaseSQLSink: sink.BaseSQLSink{Logger: logger, Placeholder: sink.PlaceholderQuestion},
	}
}

// Open opens the database and creates the tables.
// Use ":memory:" as the path for an in-memory database.
func (s *Sink) Open(ctx context.Context, opts sink.Options) error {
	path := opts.Path
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	for _, stmt := range settingStatements(opts) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to apply setting: %w", err)
		}
	}
	for _, stmt := range splitStatements(sink.Schema()) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	s.DB = db
	s.Logger.Debug("opened duckdb output", slog.String("path", path))
	return nil
}

func settingStatements(opts sink.Options) []string {
	var stmts []string
	for _, key := range settingKeys {
		if v := opts.Param(key, ""); v != "" {
			stmts = append(stmts, fmt.Sprintf("SET %s = '%s'", key, strings.ReplaceAll(v, "'", "''")))
		}
	}
	sort.Strings(stmts)
	return stmts
}

// splitStatements splits DDL on semicolons, dropping empty statements.
func splitStatements(ddl string) []string {
	var stmts []string
	for _, part := range strings.Split(ddl, ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
