package sqlite

import (
	"log/slog"

	"github.com/leapstack-labs/loincgraph/pkg/sink"
)

func init() {
	sink.Register("sqlite", func(logger *slog.Logger) sink.Sink { return New(logger) })
}
