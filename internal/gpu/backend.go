// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/xpu"
)

// State is the lifecycle state of a Backend.
type State int

const (
	// StateUninitialized is the state of a new Backend.
	StateUninitialized State = iota

	// StateInitialized means Init succeeded and device resources are live.
	StateInitialized

	// StateShutDown means Shutdown released the resources. Init may be
	// called again explicitly.
	StateShutDown
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateInitialized:
		return "Initialized"
	case StateShutDown:
		return "ShutDown"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// DeviceOpener acquires the Device a Backend runs on.
type DeviceOpener func(cfg *xpu.Config) (Device, error)

// defaultOpener opens a wgpu device according to cfg.
func defaultOpener(cfg *xpu.Config) (Device, error) {
	return OpenDevice(OpenOptions{
		PowerPreference:      cfg.PowerPreference,
		ForceFallbackAdapter: cfg.ForceFallbackAdapter,
		Provider:             cfg.DeviceProvider,
	})
}

// resources is everything a live Backend owns on the device. It exists
// exactly while the Backend is Initialized.
type resources struct {
	dev        Device
	program    ProgramID
	buffers    *bufferManager
	dispatcher *dispatcher
}

// release frees the bundle in reverse order of acquisition. Fields that were
// never set are skipped, so it also undoes a partial Init.
func (r *resources) release() {
	if r.dispatcher != nil {
		if err := r.dispatcher.wait(); err != nil {
			slogger().Warn("gpu: wait before release failed", "err", err)
		}
	}
	if r.buffers != nil {
		r.buffers.release()
	}
	if r.program != InvalidID {
		r.dev.DestroyProgram(r.program)
		r.program = InvalidID
	}
	if r.dev != nil {
		r.dev.Destroy()
		r.dev = nil
	}
}

// Backend runs the elementwise kernel on a GPU.
//
// Besides the Process contract it exposes the individual steps so a caller
// can upload once and time dispatches alone:
//
//	b := gpu.New()
//	if err := b.Init("shaders/elementwise.wgsl"); err != nil { ... }
//	defer b.Shutdown()
//	b.UploadData(data)
//	b.Dispatch(len(data), true) // timed
//	b.DownloadData(data)
//
// Lifecycle:
//
//	Uninitialized -> Init -> Initialized -> Shutdown -> ShutDown
//
// Backend is not safe for concurrent use; one goroutine drives it.
type Backend struct {
	cfg      xpu.Config
	open     DeviceOpener
	state    State
	res      *resources
	lastGrid Grid
}

var _ xpu.Backend = (*Backend)(nil)

// New creates an uninitialized Backend. Relevant options are
// xpu.WithPowerPreference, xpu.WithForceFallbackAdapter and
// xpu.WithDeviceProvider.
func New(opts ...xpu.Option) *Backend {
	return NewWithConfig(xpu.NewConfig(opts...), nil)
}

// NewWithConfig creates an uninitialized Backend from cfg. A nil open uses
// the wgpu device.
func NewWithConfig(cfg *xpu.Config, open DeviceOpener) *Backend {
	if open == nil {
		open = defaultOpener
	}
	return &Backend{cfg: *cfg, open: open}
}

// Name returns "gpu".
func (b *Backend) Name() string { return xpu.BackendGPU }

// State returns the current lifecycle state.
func (b *Backend) State() State { return b.state }

// Init loads and compiles the WGSL kernel at path, acquires the device,
// links the program and records the device workgroup limit. The device
// buffer starts empty.
//
// Every failure wraps xpu.ErrInitialization and carries the underlying
// diagnostic; whatever was acquired before the failure is released.
func (b *Backend) Init(path string) (err error) {
	if b.state == StateInitialized {
		return xpu.ErrAlreadyInitialized
	}

	src, err := loadKernelSource(path)
	if err != nil {
		return initError(err)
	}
	if err := compileKernel(src); err != nil {
		return initError(fmt.Errorf("%s: %w", path, err))
	}

	dev, err := b.open(&b.cfg)
	if err != nil {
		return initError(err)
	}
	res := &resources{dev: dev}
	defer func() {
		if err != nil {
			res.release()
		}
	}()

	res.program, err = dev.CreateProgram(&ProgramDescriptor{
		Label:      "xpu-elementwise",
		Source:     src,
		EntryPoint: kernelEntryPoint,
	})
	if err != nil {
		return initError(err)
	}
	res.buffers = newBufferManager(dev)
	res.dispatcher = newDispatcher(dev, res.program)

	b.res = res
	b.state = StateInitialized
	b.lastGrid = Grid{}

	info := dev.AdapterInfo()
	slogger().Info("gpu: backend initialized",
		"adapter", info.Name,
		"type", info.Type.String(),
		"max_workgroups", res.dispatcher.limit,
		"kernel", path)
	return nil
}

// UploadData copies data into the device buffer. A size equal to the
// current capacity reuses the allocation; any other size reallocates.
// On success the data is resident.
func (b *Backend) UploadData(data []float32) error {
	if b.state != StateInitialized {
		return xpu.ErrNotInitialized
	}
	if _, err := b.res.buffers.upload(data); err != nil {
		return resourceError(err)
	}
	return nil
}

// Dispatch runs the kernel over the first count resident elements.
//
// The work is folded into a 2D grid of 256-wide workgroups within the
// device limit. With wait set, Dispatch blocks until the device finishes;
// otherwise it returns once the work is submitted and a later
// DownloadData waits for it. Residency is unchanged.
func (b *Backend) Dispatch(count int, wait bool) error {
	if b.state != StateInitialized {
		return xpu.ErrNotInitialized
	}
	if !b.res.buffers.resident {
		return xpu.ErrNoResidentData
	}
	if count < 0 {
		return fmt.Errorf("%w: negative element count %d", xpu.ErrPrecondition, count)
	}
	if n := b.res.buffers.elements(); uint64(count) > n {
		return resourceError(fmt.Errorf("%w: %d > %d", ErrCountExceedsBuffer, count, n))
	}

	grid, err := b.res.dispatcher.dispatch(b.res.buffers.id, uint64(count), wait)
	if err != nil {
		return resourceError(err)
	}
	b.lastGrid = grid
	return nil
}

// DownloadData waits for outstanding device work, then copies len(out)
// elements of the device buffer into out and clears residency. If the
// readback fails the data stays resident so the call can be retried.
func (b *Backend) DownloadData(out []float32) error {
	if b.state != StateInitialized {
		return xpu.ErrNotInitialized
	}
	if !b.res.buffers.resident {
		return xpu.ErrNoResidentData
	}
	if err := b.res.dispatcher.wait(); err != nil {
		return resourceError(err)
	}
	if err := b.res.buffers.download(out); err != nil {
		return resourceError(err)
	}
	return nil
}

// Process uploads data, dispatches the kernel without waiting and downloads
// the result into data. The download's fence wait guarantees completion.
func (b *Backend) Process(data []float32) error {
	if b.state != StateInitialized {
		return xpu.ErrNotInitialized
	}
	if err := b.UploadData(data); err != nil {
		return err
	}
	if err := b.Dispatch(len(data), false); err != nil {
		return err
	}
	return b.DownloadData(data)
}

// Shutdown releases the buffer, program and device and resets the
// remembered capacity. It is a no-op unless the backend is Initialized.
func (b *Backend) Shutdown() {
	if b.state != StateInitialized {
		return
	}
	b.res.release()
	b.res = nil
	b.state = StateShutDown
	slogger().Info("gpu: backend shut down")
}

// Close implements xpu.Backend by calling Shutdown.
func (b *Backend) Close() error {
	b.Shutdown()
	return nil
}

// Capacity returns the byte size of the current device allocation.
func (b *Backend) Capacity() uint64 {
	if b.res == nil {
		return 0
	}
	return b.res.buffers.capacity
}

// Resident reports whether device data is valid for download.
func (b *Backend) Resident() bool {
	return b.res != nil && b.res.buffers.resident
}

// MaxWorkgroupsPerDimension returns the device dispatch limit, or 0 when
// not initialized.
func (b *Backend) MaxWorkgroupsPerDimension() uint32 {
	if b.res == nil {
		return 0
	}
	return b.res.dispatcher.limit
}

// LastGrid returns the workgroup grid of the most recent dispatch.
func (b *Backend) LastGrid() Grid { return b.lastGrid }

// AdapterInfo describes the adapter in use. ok is false when not
// initialized.
func (b *Backend) AdapterInfo() (info gpucontext.AdapterInfo, ok bool) {
	if b.res == nil {
		return gpucontext.AdapterInfo{}, false
	}
	return b.res.dev.AdapterInfo(), true
}

func initError(err error) error {
	return fmt.Errorf("%w: %w", xpu.ErrInitialization, err)
}

func resourceError(err error) error {
	return fmt.Errorf("%w: %w", xpu.ErrResource, err)
}
