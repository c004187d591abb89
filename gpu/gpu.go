//go:build !nogpu

// Package gpu registers the WebGPU compute backend under the name "gpu".
//
// The backend runs the elementwise kernel from a WGSL file on the first
// adapter wgpu selects (Vulkan, Metal, DX12, GLES or the software
// fallback). Opening it through the registry initializes it with the
// kernel named by xpu.WithShaderPath:
//
//	import _ "github.com/gogpu/xpu/gpu"
//
//	b, err := xpu.Open(xpu.BackendGPU, xpu.WithShaderPath("shaders/elementwise.wgsl"))
//	if err != nil { ... } // wraps xpu.ErrInitialization
//	defer b.Close()
//	err = b.Process(data)
//
// For the upload, dispatch and download steps individually, create the
// backend with New and call Init directly.
//
// Build with -tags nogpu to leave the GPU backend out of the binary.
package gpu

import (
	"github.com/gogpu/xpu"
	gpuimpl "github.com/gogpu/xpu/internal/gpu"
)

// Backend is the GPU compute backend.
type Backend = gpuimpl.Backend

// State is the lifecycle state of a Backend.
type State = gpuimpl.State

// Grid is the workgroup grid of a dispatch.
type Grid = gpuimpl.Grid

// Lifecycle states.
const (
	StateUninitialized = gpuimpl.StateUninitialized
	StateInitialized   = gpuimpl.StateInitialized
	StateShutDown      = gpuimpl.StateShutDown
)

// WorkgroupSize is the kernel's local size.
const WorkgroupSize = gpuimpl.WorkgroupSize

func init() {
	xpu.RegisterLoggerSetter(xpu.LoggerSetterFunc(gpuimpl.SetLogger))
	xpu.Register(xpu.BackendGPU, open)
}

// New creates an uninitialized GPU backend. Call Init with the kernel path
// before use.
func New(opts ...xpu.Option) *Backend {
	return gpuimpl.New(opts...)
}

// ComputeGrid returns the 2D grid that covers count elements when at most
// limit workgroups fit in one dimension.
func ComputeGrid(count uint64, limit uint32) (Grid, error) {
	return gpuimpl.ComputeGrid(count, limit)
}

func open(cfg *xpu.Config) (xpu.Backend, error) {
	b := gpuimpl.NewWithConfig(cfg, nil)
	if err := b.Init(cfg.ShaderPath); err != nil {
		return nil, err
	}
	return b, nil
}
