// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeKernel(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kernel.wgsl")
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadKernelSource(t *testing.T) {
	src, err := loadKernelSource(testKernelPath)
	if err != nil {
		t.Fatalf("loadKernelSource: %v", err)
	}
	if !strings.Contains(src, "@workgroup_size(256)") {
		t.Error("kernel source does not declare the 256 workgroup size")
	}

	if _, err := loadKernelSource(""); !errors.Is(err, ErrEmptyShaderPath) {
		t.Errorf("empty path = %v, want ErrEmptyShaderPath", err)
	}
	if _, err := loadKernelSource(filepath.Join(t.TempDir(), "missing.wgsl")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file = %v, want os.ErrNotExist", err)
	}
	if _, err := loadKernelSource(writeKernel(t, " \n\t\n")); !errors.Is(err, ErrEmptyShaderSource) {
		t.Errorf("blank file = %v, want ErrEmptyShaderSource", err)
	}
}

func TestCompileKernel(t *testing.T) {
	src, err := loadKernelSource(testKernelPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := compileKernel(src); err != nil {
		t.Fatalf("compileKernel(elementwise.wgsl): %v", err)
	}
}

func TestCompileKernelRejects(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		substr string
	}{
		{
			name: "syntax",
			src:  "@compute @workgroup_size(256) fn main( {",
		},
		{
			name: "workgroup size",
			src: `@group(0) @binding(0) var<storage, read_write> data: array<f32>;
@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
    data[id.x] = 1.0;
}
`,
			substr: "workgroup size",
		},
		{
			name: "entry point name",
			src: `@group(0) @binding(0) var<storage, read_write> data: array<f32>;
@compute @workgroup_size(256)
fn run(@builtin(global_invocation_id) id: vec3<u32>) {
    data[id.x] = 1.0;
}
`,
			substr: `"main"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := compileKernel(tt.src)
			if !errors.Is(err, ErrShaderCompile) {
				t.Fatalf("compileKernel = %v, want ErrShaderCompile", err)
			}
			if err.Error() == ErrShaderCompile.Error() {
				t.Error("error carries no diagnostic")
			}
			if tt.substr != "" && !strings.Contains(err.Error(), tt.substr) {
				t.Errorf("error %q does not mention %s", err, tt.substr)
			}
		})
	}
}
