package sink

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]func(*slog.Logger) Sink)
)

// Register adds a sink factory to the registry.
// Called by sink implementations in their init() functions.
func Register(name string, factory func(*slog.Logger) Sink) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Get retrieves a sink factory by name.
func Get(name string) (func(*slog.Logger) Sink, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// New creates a sink by registered name.
// The logger parameter is passed to the sink constructor (nil uses discard logger).
func New(name string, logger *slog.Logger) (Sink, error) {
	if name == "" {
		return nil, fmt.Errorf("output format not specified")
	}

	factory, ok := Get(name)
	if !ok {
		return nil, &UnknownSinkError{
			Format:    name,
			Available: List(),
		}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return factory(logger), nil
}

// List returns all registered sink names (sorted).
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a sink name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}

// UnknownSinkError is returned when an unknown output format is requested.
type UnknownSinkError struct {
	Format    string
	Available []string
}

func (e *UnknownSinkError) Error() string {
	return fmt.Sprintf("unknown output format %q\nAvailable formats: %v\nHint: Check output.format in loincgraph.yaml", e.Format, e.Available)
}
