package cpu

import (
	"runtime"
	"strings"

	"golang.org/x/sys/cpu"

	"github.com/gogpu/xpu/internal/parallel"
)

// HostFeatures describes the host the CPU backend runs on.
type HostFeatures struct {
	Architecture string
	Threads      int
	HasSSE2      bool
	HasAVX       bool
	HasAVX2      bool
	HasAVX512    bool
	HasFMA       bool
	HasNEON      bool
}

// Features reports the available CPU features for the current process.
func Features() HostFeatures {
	return HostFeatures{
		Architecture: runtime.GOARCH,
		Threads:      parallel.HardwareThreads(),
		HasSSE2:      cpu.X86.HasSSE2,
		HasAVX:       cpu.X86.HasAVX,
		HasAVX2:      cpu.X86.HasAVX2,
		HasAVX512:    cpu.X86.HasAVX512F,
		HasFMA:       cpu.X86.HasFMA || runtime.GOARCH == "arm64",
		HasNEON:      cpu.ARM64.HasASIMD,
	}
}

// String lists the detected SIMD extensions, e.g. "amd64 sse2 avx avx2 fma".
func (f HostFeatures) String() string {
	parts := []string{f.Architecture}
	for _, ext := range []struct {
		name string
		ok   bool
	}{
		{"sse2", f.HasSSE2},
		{"avx", f.HasAVX},
		{"avx2", f.HasAVX2},
		{"avx512", f.HasAVX512},
		{"fma", f.HasFMA},
		{"neon", f.HasNEON},
	} {
		if ext.ok {
			parts = append(parts, ext.name)
		}
	}
	return strings.Join(parts, " ")
}
