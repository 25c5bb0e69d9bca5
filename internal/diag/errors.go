// Package diag classifies conversion failures and collects recoverable data-quality anomalies.
//
// A conversion distinguishes three outcomes for every irregularity it meets:
// fatal errors abort the run, anomalies are logged and counted while processing
// continues, and expected conditions (such as deleted codes without names) are
// only counted.
package diag

import (
	"errors"
	"fmt"
)

// Class represents how an irregularity is handled.
type Class int

const (
	// ClassFatal aborts the conversion.
	ClassFatal Class = iota
	// ClassAnomaly is logged, counted and skipped.
	ClassAnomaly
	// ClassExpected is counted without a warning.
	ClassExpected
)

// String returns the string representation of Class.
func (c Class) String() string {
	switch c {
	case ClassFatal:
		return "fatal"
	case ClassAnomaly:
		return "anomaly"
	case ClassExpected:
		return "expected"
	default:
		return "unknown"
	}
}

// Sentinel errors wrapped by fatal ClassifiedErrors.
var (
	ErrMissingInput      = errors.New("required input missing")
	ErrTooManyFields     = errors.New("row has more fields than the header")
	ErrMarkerNotFound    = errors.New("data marker not found")
	ErrMissingAncestor   = errors.New("hierarchy ancestor not found")
	ErrBadDate           = errors.New("unparseable date")
	ErrDuplicateCrossRef = errors.New("duplicate cross-reference")
	ErrMissingColumn     = errors.New("required column missing")
	ErrAnomaliesPromoted = errors.New("anomalies promoted to failure")
)

// ClassifiedError carries the class of an error and where it happened.
type ClassifiedError struct {
	Class  Class
	Err    error
	Source string
	Line   int
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	switch {
	case e.Source != "" && e.Line > 0:
		return fmt.Sprintf("%s: %s:%d: %v", e.Class, e.Source, e.Line, e.Err)
	case e.Source != "":
		return fmt.Sprintf("%s: %s: %v", e.Class, e.Source, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Class, e.Err)
	}
}

// Unwrap returns the underlying error.
func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// Fatal wraps err as a fatal error located at source:line. A zero line omits the position.
func Fatal(err error, source string, line int) error {
	return &ClassifiedError{Class: ClassFatal, Err: err, Source: source, Line: line}
}

// Fatalf wraps a sentinel with a formatted detail message.
func Fatalf(sentinel error, source string, line int, format string, args ...any) error {
	return Fatal(fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...)), source, line)
}

// IsFatal reports whether err is, or wraps, a fatal ClassifiedError.
func IsFatal(err error) bool {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ClassFatal
	}
	return false
}
