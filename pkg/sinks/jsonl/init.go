package jsonl

import (
	"log/slog"

	"github.com/leapstack-labs/loincgraph/pkg/sink"
)

func init() {
	sink.Register("jsonl", func(logger *slog.Logger) sink.Sink { return New(logger) })
}
