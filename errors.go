package xpu

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by a backend matches exactly one of
// these with errors.Is.
var (
	// ErrInitialization reports that a backend could not be brought up:
	// device acquisition, kernel loading, compilation or linking failed.
	// The backend instance must not be used afterwards.
	ErrInitialization = errors.New("xpu: initialization failed")

	// ErrPrecondition reports an operation invoked in the wrong lifecycle
	// state. The call had no effect.
	ErrPrecondition = errors.New("xpu: precondition violated")

	// ErrResource reports a device resource failure such as a buffer that
	// cannot be mapped or an allocation beyond device limits.
	ErrResource = errors.New("xpu: resource failure")
)

// Precondition refinements.
var (
	ErrNotInitialized     = fmt.Errorf("%w: backend not initialized", ErrPrecondition)
	ErrAlreadyInitialized = fmt.Errorf("%w: backend already initialized", ErrPrecondition)
	ErrNoResidentData     = fmt.Errorf("%w: no data resident on device", ErrPrecondition)
)

// ErrBackendNotRegistered is returned by Open for unknown backend names.
var ErrBackendNotRegistered = errors.New("xpu: backend not registered")
