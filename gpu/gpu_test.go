//go:build !nogpu

package gpu

import (
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/xpu"
)

func TestRegistered(t *testing.T) {
	if !slices.Contains(xpu.Available(), xpu.BackendGPU) {
		t.Fatalf("Available() = %v, missing %q", xpu.Available(), xpu.BackendGPU)
	}
}

func TestOpenBadShaderPath(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "missing.wgsl")} {
		b, err := xpu.Open(xpu.BackendGPU, xpu.WithShaderPath(path))
		if !errors.Is(err, xpu.ErrInitialization) {
			t.Errorf("Open(shader=%q) = %v, want ErrInitialization", path, err)
		}
		if b != nil {
			t.Errorf("Open(shader=%q) returned a backend on failure", path)
			b.Close()
		}
	}
}

func TestNewUninitialized(t *testing.T) {
	b := New()
	if b.State() != StateUninitialized {
		t.Fatalf("State() = %v", b.State())
	}
	if err := b.Process(make([]float32, 4)); !errors.Is(err, xpu.ErrNotInitialized) {
		t.Errorf("Process before Init = %v, want ErrNotInitialized", err)
	}
	// Shutdown on a never-initialized backend is a no-op.
	b.Shutdown()
	if b.State() != StateUninitialized {
		t.Errorf("State() = %v after no-op Shutdown", b.State())
	}
}

func TestOpenProcess(t *testing.T) {
	b, err := xpu.Open(xpu.BackendGPU, xpu.WithShaderPath("../shaders/elementwise.wgsl"))
	if err != nil {
		t.Skipf("GPU not available: %v", err)
	}
	defer b.Close()
	if info, _ := b.(*Backend).AdapterInfo(); info.Type == gpucontext.AdapterTypeSoftware {
		t.Skipf("software adapter %q", info.Name)
	}

	data := make([]float32, 1024)
	for i := range data {
		data[i] = 64
	}
	if err := b.Process(data); err != nil {
		t.Fatalf("Process: %v", err)
	}
	want := xpu.Kernel(64)
	for i, v := range data {
		if d := v - want; d > 1e-3 || d < -1e-3 {
			t.Fatalf("data[%d] = %v, want %v", i, v, want)
		}
	}
}
