package duckdb

import (
	"log/slog"

	"github.com/leapstack-labs/loincgraph/pkg/sink"
)

func init() {
	sink.Register("duckdb", func(logger *slog.Logger) sink.Sink { return New(logger) })
}
