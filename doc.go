// Package xpu runs one elementwise float32 transform on interchangeable
// compute backends.
//
// # Overview
//
// Every backend implements [Compute]: Process transforms a caller-owned
// buffer in place with [Kernel]. Two backends ship with the module:
//
//   - cpu: splits the buffer into contiguous ranges, one goroutine per
//     hardware thread, and joins before returning.
//   - gpu: uploads the buffer to a storage buffer, dispatches a WGSL compute
//     kernel through gogpu/wgpu, and reads the result back.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/xpu"
//	    _ "github.com/gogpu/xpu/cpu"
//	    _ "github.com/gogpu/xpu/gpu"
//	)
//
//	b, err := xpu.Open(xpu.BackendGPU, xpu.WithShaderPath("shaders/elementwise.wgsl"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer b.Close()
//
//	data := make([]float32, 1<<20)
//	if err := b.Process(data); err != nil {
//	    log.Fatal(err)
//	}
//
// # Step-wise GPU access
//
// The gpu backend also exposes UploadData, Dispatch and DownloadData so a
// caller can upload once and time dispatches alone. See package gpu.
//
// # Errors
//
// Failures are reported with [ErrInitialization], [ErrPrecondition] and
// [ErrResource]; test them with errors.Is.
package xpu
