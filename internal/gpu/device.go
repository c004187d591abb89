// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpu implements the compute backend on a WebGPU device.
//
// The backend talks to the GPU through the narrow Device interface: one
// compute program, storage buffers addressed by ID, a dispatch that ends its
// compute pass (the memory barrier), and submission-index fences. The
// production implementation is backed by gogpu/wgpu; tests substitute a
// host-side fake.
package gpu

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// WorkgroupSize is the fixed local size of the kernel's x dimension.
// It must match @workgroup_size in shaders/elementwise.wgsl.
const WorkgroupSize = 256

// BufferID identifies a storage buffer created by a Device.
type BufferID uint64

// ProgramID identifies a linked compute program created by a Device.
type ProgramID uint64

// InvalidID is never returned for a live resource.
const InvalidID = 0

// SubmissionIndex orders work submitted to a device queue. Waiting on an
// index waits for that submission and every earlier one.
type SubmissionIndex uint64

// ProgramDescriptor describes a compute program.
type ProgramDescriptor struct {
	Label      string
	Source     string // WGSL
	EntryPoint string
}

// DispatchCommand is one kernel launch over a storage buffer.
type DispatchCommand struct {
	Program ProgramID
	Buffer  BufferID
	GroupsX uint32
	GroupsY uint32
	// Count is the number of valid elements; invocations past it exit.
	Count uint32
}

// Device is the subset of a GPU device the compute backend drives.
//
// Device methods are called from a single goroutine.
type Device interface {
	// AdapterInfo describes the physical adapter.
	AdapterInfo() gpucontext.AdapterInfo

	// Limits returns the device limits in effect.
	Limits() gputypes.Limits

	// CreateProgram links a compute pipeline from WGSL source. The program
	// layout is binding 0 = read-write storage, binding 1 = uniform params.
	CreateProgram(desc *ProgramDescriptor) (ProgramID, error)
	DestroyProgram(id ProgramID)

	// CreateBuffer allocates a storage buffer of size bytes usable as a
	// write target, a dispatch binding and a copy source.
	CreateBuffer(label string, size uint64) (BufferID, error)
	DestroyBuffer(id BufferID)

	// WriteBuffer copies data into the buffer at offset. The write is
	// ordered before any later submission.
	WriteBuffer(id BufferID, offset uint64, data []byte) error

	// Dispatch records and submits one compute pass. Writes made by the
	// pass are visible to every later submission. Dispatch does not wait.
	Dispatch(cmd *DispatchCommand) (SubmissionIndex, error)

	// Wait blocks until the submission has completed on the device.
	Wait(idx SubmissionIndex) error

	// ReadBuffer copies the first len(dst) bytes of the buffer into dst
	// through a mappable staging buffer. It waits for prior submissions.
	// Errors from mapping wrap ErrMapFailed.
	ReadBuffer(id BufferID, dst []byte) error

	// Destroy releases the device. Programs and buffers must be destroyed
	// first.
	Destroy()
}
