// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"

	// Register the platform HAL backends (Vulkan, Metal, DX12, GLES) and
	// the software fallback.
	_ "github.com/gogpu/wgpu/hal/allbackends"
)

// paramsSize is the byte size of the kernel's Params uniform:
// groups_x, count and two u32 of padding.
const paramsSize = 16

// OpenOptions selects how a wgpu device is acquired.
type OpenOptions struct {
	PowerPreference      gputypes.PowerPreference
	ForceFallbackAdapter bool
	// Provider, when set, supplies an existing device; the other fields
	// are ignored and the device is not released by Destroy.
	Provider gpucontext.DeviceProvider
}

// wgpuProgram is the pipeline bundle behind a ProgramID.
type wgpuProgram struct {
	module   *wgpu.ShaderModule
	bgLayout *wgpu.BindGroupLayout
	plLayout *wgpu.PipelineLayout
	pipeline *wgpu.ComputePipeline
	params   *wgpu.Buffer

	// bindGroup binds boundBuffer and params; rebuilt when the storage
	// buffer changes.
	bindGroup   *wgpu.BindGroup
	boundBuffer BufferID
}

func (p *wgpuProgram) release() {
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	if p.params != nil {
		p.params.Release()
		p.params = nil
	}
	if p.pipeline != nil {
		p.pipeline.Release()
		p.pipeline = nil
	}
	if p.plLayout != nil {
		p.plLayout.Release()
		p.plLayout = nil
	}
	if p.bgLayout != nil {
		p.bgLayout.Release()
		p.bgLayout = nil
	}
	if p.module != nil {
		p.module.Release()
		p.module = nil
	}
}

// wgpuDevice implements Device on gogpu/wgpu.
type wgpuDevice struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	info     gpucontext.AdapterInfo
	external bool

	nextID   uint64
	programs map[ProgramID]*wgpuProgram
	buffers  map[BufferID]*wgpu.Buffer
}

var _ Device = (*wgpuDevice)(nil)

// OpenDevice acquires a wgpu device, either from opts.Provider or by
// creating an instance, selecting an adapter and requesting a device with
// the adapter's full limits.
func OpenDevice(opts OpenOptions) (Device, error) {
	if opts.Provider != nil {
		return adoptProvider(opts.Provider)
	}

	instance, err := wgpu.CreateInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("gpu: create instance: %w", err)
	}
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference:      opts.PowerPreference,
		ForceFallbackAdapter: opts.ForceFallbackAdapter,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("%w: %w", ErrNoAdapter, err)
	}
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label:          "xpu",
		RequiredLimits: adapter.Limits(),
	})
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("gpu: request device: %w", err)
	}

	d := newWGPUDevice(device, toAdapterInfo(adapter.Info()))
	d.instance = instance
	d.adapter = adapter
	slogger().Info("gpu: device acquired",
		"adapter", d.info.Name,
		"type", d.info.Type.String(),
		"backend", adapter.Info().Backend.String())
	return d, nil
}

func adoptProvider(p gpucontext.DeviceProvider) (Device, error) {
	device, ok := p.Device().(*wgpu.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: got %T", ErrUnsupportedProvider, p.Device())
	}
	d := newWGPUDevice(device, p.AdapterInfo())
	d.external = true
	slogger().Info("gpu: using shared device", "adapter", d.info.Name)
	return d, nil
}

func newWGPUDevice(device *wgpu.Device, info gpucontext.AdapterInfo) *wgpuDevice {
	return &wgpuDevice{
		device:   device,
		queue:    device.Queue(),
		info:     info,
		programs: make(map[ProgramID]*wgpuProgram),
		buffers:  make(map[BufferID]*wgpu.Buffer),
	}
}

func toAdapterInfo(info gputypes.AdapterInfo) gpucontext.AdapterInfo {
	t := gpucontext.AdapterTypeUnknown
	switch info.DeviceType {
	case gputypes.DeviceTypeDiscreteGPU:
		t = gpucontext.AdapterTypeDiscrete
	case gputypes.DeviceTypeIntegratedGPU:
		t = gpucontext.AdapterTypeIntegrated
	case gputypes.DeviceTypeCPU:
		t = gpucontext.AdapterTypeSoftware
	}
	return gpucontext.AdapterInfo{Name: info.Name, Type: t}
}

func (d *wgpuDevice) id() uint64 {
	d.nextID++
	return d.nextID
}

func (d *wgpuDevice) AdapterInfo() gpucontext.AdapterInfo { return d.info }

func (d *wgpuDevice) Limits() gputypes.Limits { return d.device.Limits() }

// CreateProgram builds module, layouts, pipeline and the params uniform.
// Partially created objects are released on failure.
func (d *wgpuDevice) CreateProgram(desc *ProgramDescriptor) (_ ProgramID, err error) {
	p := &wgpuProgram{}
	defer func() {
		if err != nil {
			p.release()
		}
	}()

	p.module, err = d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: desc.Label,
		WGSL:  desc.Source,
	})
	if err != nil {
		return InvalidID, fmt.Errorf("%w: %w", ErrShaderCompile, err)
	}

	p.bgLayout, err = d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: desc.Label + "_bgl",
		Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: wgpu.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
			{Binding: 1, Visibility: wgpu.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
		},
	})
	if err != nil {
		return InvalidID, fmt.Errorf("%w: bind group layout: %w", ErrProgramLink, err)
	}

	p.plLayout, err = d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label + "_pl",
		BindGroupLayouts: []*wgpu.BindGroupLayout{p.bgLayout},
	})
	if err != nil {
		return InvalidID, fmt.Errorf("%w: pipeline layout: %w", ErrProgramLink, err)
	}

	p.pipeline, err = d.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:      desc.Label,
		Layout:     p.plLayout,
		Module:     p.module,
		EntryPoint: desc.EntryPoint,
	})
	if err != nil {
		return InvalidID, fmt.Errorf("%w: compute pipeline: %w", ErrProgramLink, err)
	}

	p.params, err = d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: desc.Label + "_params",
		Size:  paramsSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return InvalidID, fmt.Errorf("gpu: create params buffer: %w", err)
	}

	id := ProgramID(d.id())
	d.programs[id] = p
	slogger().Debug("gpu: program linked", "label", desc.Label, "shader_bytes", len(desc.Source))
	return id, nil
}

func (d *wgpuDevice) DestroyProgram(id ProgramID) {
	if p, ok := d.programs[id]; ok {
		p.release()
		delete(d.programs, id)
	}
}

func (d *wgpuDevice) CreateBuffer(label string, size uint64) (BufferID, error) {
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		return InvalidID, err
	}
	id := BufferID(d.id())
	d.buffers[id] = buf
	return id, nil
}

func (d *wgpuDevice) DestroyBuffer(id BufferID) {
	buf, ok := d.buffers[id]
	if !ok {
		return
	}
	for _, p := range d.programs {
		if p.boundBuffer == id && p.bindGroup != nil {
			p.bindGroup.Release()
			p.bindGroup = nil
			p.boundBuffer = InvalidID
		}
	}
	buf.Release()
	delete(d.buffers, id)
}

func (d *wgpuDevice) WriteBuffer(id BufferID, offset uint64, data []byte) error {
	buf, ok := d.buffers[id]
	if !ok {
		return fmt.Errorf("%w: buffer %d", ErrUnknownResource, id)
	}
	return d.queue.WriteBuffer(buf, offset, data)
}

// Dispatch writes the params uniform, encodes a single compute pass and
// submits it. Ending the pass closes its usage scope, so the storage writes
// are visible to the next submission.
func (d *wgpuDevice) Dispatch(cmd *DispatchCommand) (SubmissionIndex, error) {
	p, ok := d.programs[cmd.Program]
	if !ok {
		return 0, fmt.Errorf("%w: program %d", ErrUnknownResource, cmd.Program)
	}
	buf, ok := d.buffers[cmd.Buffer]
	if !ok {
		return 0, fmt.Errorf("%w: buffer %d", ErrUnknownResource, cmd.Buffer)
	}

	if err := d.bind(p, cmd.Buffer, buf); err != nil {
		return 0, err
	}

	var params [paramsSize]byte
	binary.LittleEndian.PutUint32(params[0:4], cmd.GroupsX)
	binary.LittleEndian.PutUint32(params[4:8], cmd.Count)
	if err := d.queue.WriteBuffer(p.params, 0, params[:]); err != nil {
		return 0, fmt.Errorf("write params: %w", err)
	}

	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		return 0, fmt.Errorf("create command encoder: %w", err)
	}
	pass, err := encoder.BeginComputePass(nil)
	if err != nil {
		encoder.DiscardEncoding()
		return 0, fmt.Errorf("begin compute pass: %w", err)
	}
	pass.SetPipeline(p.pipeline)
	pass.SetBindGroup(0, p.bindGroup, nil)
	pass.Dispatch(cmd.GroupsX, cmd.GroupsY, 1)
	if err := pass.End(); err != nil {
		encoder.DiscardEncoding()
		return 0, fmt.Errorf("end compute pass: %w", err)
	}
	cmdBuf, err := encoder.Finish()
	if err != nil {
		return 0, fmt.Errorf("finish encoder: %w", err)
	}
	idx, err := d.queue.Submit(cmdBuf)
	if err != nil {
		return 0, fmt.Errorf("submit: %w", err)
	}
	return SubmissionIndex(idx), nil
}

func (d *wgpuDevice) bind(p *wgpuProgram, id BufferID, buf *wgpu.Buffer) error {
	if p.bindGroup != nil && p.boundBuffer == id {
		return nil
	}
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	bg, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "xpu-data-bg",
		Layout: p.bgLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: buf, Size: buf.Size()},
			{Binding: 1, Buffer: p.params, Size: paramsSize},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	p.bindGroup = bg
	p.boundBuffer = id
	return nil
}

// Wait returns once the queue reports idx completed, blocking on the
// device otherwise.
func (d *wgpuDevice) Wait(idx SubmissionIndex) error {
	if d.queue.Poll() >= uint64(idx) {
		return nil
	}
	if err := d.device.WaitIdle(); err != nil {
		return err
	}
	if done := d.queue.Poll(); done < uint64(idx) {
		return fmt.Errorf("submission %d not complete after idle wait (completed %d)", idx, done)
	}
	return nil
}

// ReadBuffer copies the buffer into a MapRead staging buffer, maps it and
// copies len(dst) bytes out.
func (d *wgpuDevice) ReadBuffer(id BufferID, dst []byte) error {
	src, ok := d.buffers[id]
	if !ok {
		return fmt.Errorf("%w: buffer %d", ErrUnknownResource, id)
	}
	size := uint64(len(dst))

	staging, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "xpu-readback",
		Size:  size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("%w: create staging buffer: %w", ErrMapFailed, err)
	}
	defer staging.Release()

	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	encoder.CopyBufferToBuffer(src, 0, staging, 0, size)
	cmdBuf, err := encoder.Finish()
	if err != nil {
		return fmt.Errorf("finish readback encoder: %w", err)
	}
	if _, err := d.queue.Submit(cmdBuf); err != nil {
		return fmt.Errorf("submit readback: %w", err)
	}

	if err := staging.Map(context.Background(), wgpu.MapModeRead, 0, size); err != nil {
		return fmt.Errorf("%w: %w", ErrMapFailed, err)
	}
	rng, err := staging.MappedRange(0, size)
	if err != nil {
		return errors.Join(fmt.Errorf("%w: %w", ErrMapFailed, err), staging.Unmap())
	}
	copy(dst, rng.Bytes())
	if err := staging.Unmap(); err != nil {
		return fmt.Errorf("%w: unmap: %w", ErrMapFailed, err)
	}
	return nil
}

// Destroy releases every program and buffer still alive, then the device
// unless it belongs to a provider.
func (d *wgpuDevice) Destroy() {
	for id := range d.programs {
		d.DestroyProgram(id)
	}
	for id := range d.buffers {
		d.DestroyBuffer(id)
	}
	if d.external {
		return
	}
	if d.device != nil {
		d.device.Release()
		d.device = nil
	}
	if d.adapter != nil {
		d.adapter.Release()
		d.adapter = nil
	}
	if d.instance != nil {
		d.instance.Release()
		d.instance = nil
	}
}
