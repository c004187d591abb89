// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"
	"unsafe"
)

// bytesPerElement is the size of one float32 element on the device.
const bytesPerElement = 4

// bufferManager owns the device storage buffer and its residency.
//
// The remembered capacity always equals the size of the current allocation
// (zero means no allocation). An upload of the same byte size writes into
// the existing buffer; any other size reallocates.
type bufferManager struct {
	dev      Device
	id       BufferID
	capacity uint64
	resident bool
	maxSize  uint64
}

func newBufferManager(dev Device) *bufferManager {
	limits := dev.Limits()
	maxSize := limits.MaxBufferSize
	if b := limits.MaxStorageBufferBindingSize; b > 0 && (maxSize == 0 || b < maxSize) {
		maxSize = b
	}
	return &bufferManager{dev: dev, maxSize: maxSize}
}

// upload copies data to the device, reallocating only on a size change.
// It returns whether a reallocation happened.
func (m *bufferManager) upload(data []float32) (bool, error) {
	size := uint64(len(data)) * bytesPerElement
	if m.maxSize > 0 && size > m.maxSize {
		return false, fmt.Errorf("%w: %d bytes, limit %d", ErrBufferTooLarge, size, m.maxSize)
	}

	realloc := size != m.capacity
	if realloc {
		m.resident = false
		m.release()
		if size > 0 {
			id, err := m.dev.CreateBuffer("xpu-data", size)
			if err != nil {
				return false, fmt.Errorf("gpu: allocate %d byte buffer: %w", size, err)
			}
			m.id = id
		}
		m.capacity = size
		slogger().Debug("gpu: storage buffer reallocated", "bytes", size)
	} else {
		slogger().Debug("gpu: storage buffer reused", "bytes", size)
	}

	if size > 0 {
		if err := m.dev.WriteBuffer(m.id, 0, float32Bytes(data)); err != nil {
			return realloc, fmt.Errorf("gpu: write %d bytes: %w", size, err)
		}
	}
	m.resident = true
	return realloc, nil
}

// download copies the first len(out) elements of the buffer into out.
// Residency is cleared only on success.
func (m *bufferManager) download(out []float32) error {
	size := uint64(len(out)) * bytesPerElement
	if size > m.capacity {
		return fmt.Errorf("%w: want %d bytes, buffer holds %d", ErrCountExceedsBuffer, size, m.capacity)
	}
	if size > 0 {
		if err := m.dev.ReadBuffer(m.id, float32Bytes(out)); err != nil {
			return err
		}
	}
	m.resident = false
	return nil
}

// elements returns how many float32 values the allocation holds.
func (m *bufferManager) elements() uint64 {
	return m.capacity / bytesPerElement
}

// release destroys the allocation and forgets its capacity.
func (m *bufferManager) release() {
	if m.id != InvalidID {
		m.dev.DestroyBuffer(m.id)
		m.id = InvalidID
	}
	m.capacity = 0
}

// float32Bytes views data as bytes in host order without copying. Every
// platform wgpu supports is little-endian, matching WGSL's f32 layout.
func float32Bytes(data []float32) []byte {
	if len(data) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(data))), len(data)*bytesPerElement) //nolint:gosec // float32 slice view
}
