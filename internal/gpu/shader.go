// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"
	"os"
	"strings"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
)

// kernelEntryPoint is the compute entry point every kernel must export.
const kernelEntryPoint = "main"

// loadKernelSource reads the WGSL kernel at path.
func loadKernelSource(path string) (string, error) {
	if path == "" {
		return "", ErrEmptyShaderPath
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("gpu: failed to open shader file %q: %w", path, err)
	}
	if strings.TrimSpace(string(src)) == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyShaderSource, path)
	}
	return string(src), nil
}

// compileKernel runs the WGSL front end and validator over src and checks
// that it exports a compute entry point with the expected workgroup size.
// The returned error carries the compiler diagnostic.
func compileKernel(src string) error {
	ast, err := naga.Parse(src)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrShaderCompile, err)
	}
	module, err := naga.LowerWithSource(ast, src)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrShaderCompile, err)
	}
	diags, err := naga.Validate(module)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrShaderCompile, err)
	}
	if len(diags) > 0 {
		return fmt.Errorf("%w: %w", ErrShaderCompile, &diags[0])
	}
	return checkEntryPoint(module)
}

func checkEntryPoint(module *ir.Module) error {
	for _, ep := range module.EntryPoints {
		if ep.Name != kernelEntryPoint {
			continue
		}
		if ep.Stage != ir.StageCompute {
			return fmt.Errorf("%w: entry point %q is not a compute shader", ErrShaderCompile, ep.Name)
		}
		if ep.Workgroup != [3]uint32{WorkgroupSize, 1, 1} {
			return fmt.Errorf("%w: entry point %q has workgroup size %v, want (%d, 1, 1)",
				ErrShaderCompile, ep.Name, ep.Workgroup, WorkgroupSize)
		}
		return nil
	}
	return fmt.Errorf("%w: no compute entry point %q", ErrShaderCompile, kernelEntryPoint)
}
