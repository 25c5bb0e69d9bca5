package diag

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Kind names a category of recoverable anomaly.
type Kind string

// Anomaly kinds.
const (
	KindUnmappedColumn         Kind = "unmapped_column"
	KindDuplicateConcept       Kind = "duplicate_concept"
	KindUnknownStatus          Kind = "unknown_status"
	KindHierarchyMissingField  Kind = "hierarchy_missing_field"
	KindHierarchyCycle         Kind = "hierarchy_cycle"
	KindDuplicateProperty      Kind = "duplicate_property"
	KindMissingDescription     Kind = "missing_description"
	KindMissingCode            Kind = "missing_code"
	KindReferentialGap         Kind = "referential_gap"
	KindUnknownVersion         Kind = "unknown_version"
	KindNameMapConflict        Kind = "name_map_conflict"
	KindDeletedWithoutNameSkip Kind = "deleted_without_name"
)

// Kinds lists every anomaly kind in a stable order.
func Kinds() []Kind {
	return []Kind{
		KindUnmappedColumn,
		KindDuplicateConcept,
		KindUnknownStatus,
		KindHierarchyMissingField,
		KindHierarchyCycle,
		KindDuplicateProperty,
		KindMissingDescription,
		KindMissingCode,
		KindReferentialGap,
		KindUnknownVersion,
		KindNameMapConflict,
		KindDeletedWithoutNameSkip,
	}
}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown anomaly kind %q", s)
}

// maxKeptPerKind bounds how many anomalies of one kind are retained for the run report.
// Every occurrence is still counted and logged.
const maxKeptPerKind = 50

// Anomaly is one recorded irregularity.
type Anomaly struct {
	Kind    Kind   `json:"kind" yaml:"kind"`
	Message string `json:"message" yaml:"message"`
	Detail  string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Ledger records anomalies and expected skips. It is not safe for concurrent use.
type Ledger struct {
	logger  *slog.Logger
	counts  map[Kind]int
	entries []Anomaly
}

// NewLedger returns an empty ledger logging through logger. A nil logger discards output.
func NewLedger(logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Ledger{
		logger: logger,
		counts: make(map[Kind]int),
	}
}

// Record logs an anomaly at warn level and counts it. args are slog key/value pairs.
func (l *Ledger) Record(kind Kind, msg string, args ...any) {
	l.logger.Warn(msg, append([]any{"kind", string(kind)}, args...)...)
	l.keep(kind, msg, args)
}

// Expect counts an expected condition, logging it at debug level only.
func (l *Ledger) Expect(kind Kind, msg string, args ...any) {
	l.logger.Debug(msg, append([]any{"kind", string(kind)}, args...)...)
	l.keep(kind, msg, args)
}

func (l *Ledger) keep(kind Kind, msg string, args []any) {
	l.counts[kind]++
	if l.counts[kind] > maxKeptPerKind {
		return
	}
	l.entries = append(l.entries, Anomaly{Kind: kind, Message: msg, Detail: formatArgs(args)})
}

// Count returns how many times kind was recorded.
func (l *Ledger) Count(kind Kind) int {
	return l.counts[kind]
}

// Total returns the number of recorded anomalies of every kind.
func (l *Ledger) Total() int {
	n := 0
	for _, c := range l.counts {
		n += c
	}
	return n
}

// Counts returns a copy of the per-kind counts.
func (l *Ledger) Counts() map[Kind]int {
	out := make(map[Kind]int, len(l.counts))
	for k, v := range l.counts {
		out[k] = v
	}
	return out
}

// Entries returns the retained anomalies in recording order.
func (l *Ledger) Entries() []Anomaly {
	return append([]Anomaly(nil), l.entries...)
}

// Promote returns a fatal error when any of the given kinds were recorded.
func (l *Ledger) Promote(kinds []Kind) error {
	var hit []string
	for _, k := range kinds {
		if n := l.counts[k]; n > 0 {
			hit = append(hit, fmt.Sprintf("%s=%d", k, n))
		}
	}
	if len(hit) == 0 {
		return nil
	}
	sort.Strings(hit)
	return Fatalf(ErrAnomaliesPromoted, "", 0, "%s", strings.Join(hit, ", "))
}

func formatArgs(args []any) string {
	if len(args) == 0 {
		return ""
	}
	parts := make([]string, 0, len(args)/2+1)
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			parts = append(parts, fmt.Sprint(args[i]))
			break
		}
		parts = append(parts, fmt.Sprintf("%v=%v", args[i], args[i+1]))
	}
	return strings.Join(parts, " ")
}
