package xpu

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// Factory creates an initialized backend from cfg.
type Factory func(cfg *Config) (Backend, error)

var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
	// Priority order for OpenDefault (first that opens wins).
	backendPriority = []string{BackendGPU, BackendCPU}
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// A factory registered under an existing name replaces it.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = factory
}

// Unregister removes a backend from the registry.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Available returns the registered backend names in sorted order.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered reports whether a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}

// Open creates and initializes the named backend.
func Open(name string, opts ...Option) (Backend, error) {
	registryMu.RLock()
	factory, ok := factories[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotRegistered, name)
	}

	b, err := factory(NewConfig(opts...))
	if err != nil {
		return nil, fmt.Errorf("xpu: open %s: %w", name, err)
	}
	return b, nil
}

// OpenDefault opens the first backend in priority order (gpu, then cpu) that
// initializes successfully, then any other registered backend. If all fail,
// the returned error joins every failure.
func OpenDefault(opts ...Option) (Backend, error) {
	names := Available()
	slices.SortStableFunc(names, func(a, b string) int {
		return priorityOf(a) - priorityOf(b)
	})

	var errs []error
	for _, name := range names {
		b, err := Open(name, opts...)
		if err == nil {
			return b, nil
		}
		Logger().Warn("backend not available, trying next", "backend", name, "err", err)
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, ErrBackendNotRegistered
	}
	return nil, errors.Join(errs...)
}

func priorityOf(name string) int {
	if i := slices.Index(backendPriority, name); i >= 0 {
		return i
	}
	return len(backendPriority)
}
