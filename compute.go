package xpu

// Registered backend names.
const (
	BackendCPU = "cpu"
	BackendGPU = "gpu"
)

// Compute is the single capability every backend provides.
//
// Process applies [Kernel] to every element of data in place. The length of
// data is never changed. Process returns only after the result is visible
// in data.
type Compute interface {
	Process(data []float32) error
}

// Backend is a named Compute that owns releasable resources.
type Backend interface {
	Compute

	// Name returns the registry name of the backend.
	Name() string

	// Close releases backend resources. It is safe to call more than once.
	Close() error
}
