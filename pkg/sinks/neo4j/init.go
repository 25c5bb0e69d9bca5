package neo4j

import (
	"log/slog"

	"github.com/leapstack-labs/loincgraph/pkg/sink"
)

func init() {
	sink.Register("neo4j", func(logger *slog.Logger) sink.Sink { return New(logger) })
}
