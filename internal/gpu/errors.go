// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import "errors"

// Errors produced below the backend. The backend wraps them into the
// xpu.ErrInitialization, xpu.ErrPrecondition and xpu.ErrResource categories.
var (
	// ErrEmptyShaderPath is returned when Init is called with "".
	ErrEmptyShaderPath = errors.New("gpu: shader path is empty")

	// ErrEmptyShaderSource is returned when the kernel file has no content.
	ErrEmptyShaderSource = errors.New("gpu: shader source is empty")

	// ErrShaderCompile wraps the compiler diagnostic of a rejected kernel.
	ErrShaderCompile = errors.New("gpu: compute shader compilation failed")

	// ErrProgramLink wraps the diagnostic of a failed pipeline creation.
	ErrProgramLink = errors.New("gpu: compute program linking failed")

	// ErrNoAdapter is returned when no GPU adapter can be acquired.
	ErrNoAdapter = errors.New("gpu: no GPU adapter available")

	// ErrUnsupportedProvider is returned when a DeviceProvider does not
	// expose gogpu/wgpu handles.
	ErrUnsupportedProvider = errors.New("gpu: device provider does not expose a wgpu device")

	// ErrMapFailed is returned when a readback buffer cannot be mapped.
	ErrMapFailed = errors.New("gpu: buffer map failed")

	// ErrBufferTooLarge is returned when an upload exceeds the device's
	// buffer or storage binding size limit.
	ErrBufferTooLarge = errors.New("gpu: buffer exceeds device limit")

	// ErrDispatchTooLarge is returned when the folded workgroup grid does
	// not fit the device's per-dimension limit.
	ErrDispatchTooLarge = errors.New("gpu: dispatch exceeds device workgroup limit")

	// ErrCountExceedsBuffer is returned when a dispatch covers more
	// elements than the resident buffer holds.
	ErrCountExceedsBuffer = errors.New("gpu: element count exceeds device buffer")

	// ErrUnknownResource is returned by a Device for a stale or foreign ID.
	ErrUnknownResource = errors.New("gpu: unknown resource id")
)
