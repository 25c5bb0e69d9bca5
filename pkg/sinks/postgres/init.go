package postgres

import (
	"log/slog"

	"github.com/leapstack-labs/loincgraph/pkg/sink"
)

func init() {
	sink.Register("postgres", func(logger *slog.Logger) sink.Sink { return New(logger) })
}
