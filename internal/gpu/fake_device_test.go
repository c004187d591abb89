// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/xpu"
)

// fakeDevice runs the kernel on the host, emulating the WGSL indexing of
// shaders/elementwise.wgsl. Submitted work is only applied when a fence is
// waited on or a readback happens, so a missing wait shows up as stale data.
type fakeDevice struct {
	limits gputypes.Limits

	nextID   uint64
	programs map[ProgramID]bool
	buffers  map[BufferID][]float32

	pending   []DispatchCommand
	submitted SubmissionIndex
	completed SubmissionIndex

	allocations int
	writes      int
	dispatches  int
	waits       int
	destroyed   bool

	failMap     bool
	failProgram error
}

func newFakeDevice() *fakeDevice {
	limits := gputypes.DefaultLimits()
	return &fakeDevice{
		limits:   limits,
		programs: make(map[ProgramID]bool),
		buffers:  make(map[BufferID][]float32),
	}
}

// opener returns a DeviceOpener that always hands out d.
func (d *fakeDevice) opener() DeviceOpener {
	return func(*xpu.Config) (Device, error) { return d, nil }
}

func (d *fakeDevice) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "fake", Type: gpucontext.AdapterTypeSoftware}
}

func (d *fakeDevice) Limits() gputypes.Limits { return d.limits }

func (d *fakeDevice) CreateProgram(desc *ProgramDescriptor) (ProgramID, error) {
	if d.failProgram != nil {
		return InvalidID, fmt.Errorf("%w: %w", ErrProgramLink, d.failProgram)
	}
	if desc.EntryPoint != kernelEntryPoint {
		return InvalidID, fmt.Errorf("%w: entry point %q", ErrProgramLink, desc.EntryPoint)
	}
	d.nextID++
	id := ProgramID(d.nextID)
	d.programs[id] = true
	return id, nil
}

func (d *fakeDevice) DestroyProgram(id ProgramID) { delete(d.programs, id) }

func (d *fakeDevice) CreateBuffer(_ string, size uint64) (BufferID, error) {
	d.nextID++
	id := BufferID(d.nextID)
	d.buffers[id] = make([]float32, size/bytesPerElement)
	d.allocations++
	return id, nil
}

func (d *fakeDevice) DestroyBuffer(id BufferID) { delete(d.buffers, id) }

func (d *fakeDevice) WriteBuffer(id BufferID, offset uint64, data []byte) error {
	buf, ok := d.buffers[id]
	if !ok {
		return ErrUnknownResource
	}
	if offset+uint64(len(data)) > uint64(len(buf))*bytesPerElement {
		return fmt.Errorf("fake: write past end of buffer %d", id)
	}
	for i := 0; i+bytesPerElement <= len(data); i += bytesPerElement {
		bits := uint32(data[i]) | uint32(data[i+1])<<8 | uint32(data[i+2])<<16 | uint32(data[i+3])<<24
		buf[(offset+uint64(i))/bytesPerElement] = math.Float32frombits(bits)
	}
	d.writes++
	return nil
}

func (d *fakeDevice) Dispatch(cmd *DispatchCommand) (SubmissionIndex, error) {
	if !d.programs[cmd.Program] {
		return 0, ErrUnknownResource
	}
	if _, ok := d.buffers[cmd.Buffer]; !ok {
		return 0, ErrUnknownResource
	}
	if cmd.GroupsX > d.limits.MaxComputeWorkgroupsPerDimension ||
		cmd.GroupsY > d.limits.MaxComputeWorkgroupsPerDimension {
		return 0, fmt.Errorf("fake: grid %dx%d over limit", cmd.GroupsX, cmd.GroupsY)
	}
	d.pending = append(d.pending, *cmd)
	d.submitted++
	d.dispatches++
	return d.submitted, nil
}

func (d *fakeDevice) Wait(idx SubmissionIndex) error {
	if idx > d.submitted {
		return fmt.Errorf("fake: submission %d never issued", idx)
	}
	d.waits++
	d.flush()
	return nil
}

func (d *fakeDevice) ReadBuffer(id BufferID, dst []byte) error {
	buf, ok := d.buffers[id]
	if !ok {
		return ErrUnknownResource
	}
	if d.failMap {
		return fmt.Errorf("%w: injected", ErrMapFailed)
	}
	d.flush()
	for i := 0; i+bytesPerElement <= len(dst); i += bytesPerElement {
		bits := math.Float32bits(buf[i/bytesPerElement])
		dst[i] = byte(bits)
		dst[i+1] = byte(bits >> 8)
		dst[i+2] = byte(bits >> 16)
		dst[i+3] = byte(bits >> 24)
	}
	return nil
}

func (d *fakeDevice) Destroy() { d.destroyed = true }

// flush executes every pending dispatch the way the GPU would: one
// invocation per (group, local index) with the shader's bounds check.
func (d *fakeDevice) flush() {
	for _, cmd := range d.pending {
		buf := d.buffers[cmd.Buffer]
		for y := uint32(0); y < cmd.GroupsY; y++ {
			for x := uint32(0); x < cmd.GroupsX; x++ {
				for lid := uint32(0); lid < WorkgroupSize; lid++ {
					i := (uint64(y)*uint64(cmd.GroupsX)+uint64(x))*WorkgroupSize + uint64(lid)
					if i >= uint64(cmd.Count) {
						continue
					}
					buf[i] = xpu.Kernel(buf[i])
				}
			}
		}
	}
	d.pending = d.pending[:0]
	d.completed = d.submitted
}

// live reports how many programs and buffers are still allocated.
func (d *fakeDevice) live() int { return len(d.programs) + len(d.buffers) }

var errInjected = errors.New("injected")
