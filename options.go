package xpu

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Option configures a backend during creation.
//
// Example:
//
//	b, err := xpu.Open(xpu.BackendCPU, xpu.WithThreads(4))
type Option func(*Config)

// Executor runs a batch of independent work items and returns when all of
// them have completed.
type Executor interface {
	ExecuteAll(work []func())
}

// Config holds the resolved options. Backends read the fields relevant to
// them and ignore the rest.
type Config struct {
	// ShaderPath is the WGSL kernel file loaded by the GPU backend.
	ShaderPath string

	// Threads overrides hardware thread detection in the CPU backend.
	// Zero or negative means detect at every Process call.
	Threads int

	// Executor runs CPU ranges on a persistent pool instead of
	// per-call goroutines.
	Executor Executor

	// PowerPreference selects the GPU adapter.
	PowerPreference gputypes.PowerPreference

	// ForceFallbackAdapter requests the software adapter.
	ForceFallbackAdapter bool

	// DeviceProvider shares an existing GPU device instead of creating one.
	// The device is not destroyed on shutdown.
	DeviceProvider gpucontext.DeviceProvider
}

func defaultConfig() Config {
	return Config{
		PowerPreference: gputypes.PowerPreferenceHighPerformance,
	}
}

// NewConfig applies opts over the defaults.
func NewConfig(opts ...Option) *Config {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &cfg
}

// WithShaderPath sets the path of the WGSL kernel source.
func WithShaderPath(path string) Option {
	return func(c *Config) {
		c.ShaderPath = path
	}
}

// WithThreads fixes the number of CPU ranges per Process call.
func WithThreads(n int) Option {
	return func(c *Config) {
		c.Threads = n
	}
}

// WithExecutor runs CPU ranges on e. The caller owns e and closes it.
func WithExecutor(e Executor) Option {
	return func(c *Config) {
		c.Executor = e
	}
}

// WithPowerPreference selects between low-power and high-performance adapters.
func WithPowerPreference(p gputypes.PowerPreference) Option {
	return func(c *Config) {
		c.PowerPreference = p
	}
}

// WithForceFallbackAdapter forces the software GPU adapter. Useful on
// machines without a GPU driver.
func WithForceFallbackAdapter(force bool) Option {
	return func(c *Config) {
		c.ForceFallbackAdapter = force
	}
}

// WithDeviceProvider makes the GPU backend dispatch on the device owned by p.
//
// Example:
//
//	// Share the device of a gogpu application:
//	b, err := xpu.Open(xpu.BackendGPU,
//	    xpu.WithShaderPath("shaders/elementwise.wgsl"),
//	    xpu.WithDeviceProvider(app.GPUContextProvider()))
func WithDeviceProvider(p gpucontext.DeviceProvider) Option {
	return func(c *Config) {
		c.DeviceProvider = p
	}
}
