package cpu

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/xpu"
)

func filled(n int, v float32) []float32 {
	data := make([]float32, n)
	for i := range data {
		data[i] = v
	}
	return data
}

func TestProcessMatchesExpected(t *testing.T) {
	const n = 1 << 10
	data := filled(n, 64)

	require.NoError(t, New().Process(data))

	want := xpu.Kernel(64)
	require.Len(t, data, n)
	for i, v := range data {
		require.InDeltaf(t, want, v, 1e-5, "element %d", i)
	}
	assert.InDelta(t, 9.298, float64(data[0]), 1e-3)
}

func TestProcessMixedValues(t *testing.T) {
	data := make([]float32, 4097)
	for i := range data {
		data[i] = float32(i) * 0.25
	}
	want := make([]float32, len(data))
	copy(want, data)
	xpu.KernelSlice(want)

	require.NoError(t, New(xpu.WithThreads(6)).Process(data))
	for i := range data {
		require.InDeltaf(t, want[i], data[i], 1e-5, "element %d", i)
	}
}

func TestProcessShapePreserved(t *testing.T) {
	for _, n := range []int{0, 1, 3, 255, 256, 257, 10000} {
		for _, threads := range []int{1, 2, 8, 64} {
			data := filled(n, 1)
			require.NoError(t, New(xpu.WithThreads(threads)).Process(data))
			assert.Lenf(t, data, n, "n=%d threads=%d", n, threads)
			for i, v := range data {
				require.InDeltaf(t, xpu.Kernel(1), v, 1e-6, "n=%d threads=%d element %d", n, threads, i)
			}
		}
	}
}

func TestProcessEmpty(t *testing.T) {
	b := New()
	assert.NoError(t, b.Process(nil))
	assert.NoError(t, b.Process([]float32{}))
}

func TestProcessEachElementOnce(t *testing.T) {
	// Kernel(0) == 1 and Kernel(1) != 1: any element transformed twice or
	// never would stand out.
	data := filled(1001, 0)
	require.NoError(t, New(xpu.WithThreads(7)).Process(data))
	for i, v := range data {
		require.Equalf(t, float32(1), v, "element %d", i)
	}
}

func TestThreads(t *testing.T) {
	assert.Equal(t, 5, New(xpu.WithThreads(5)).Threads())
	assert.GreaterOrEqual(t, New().Threads(), 1)
	assert.GreaterOrEqual(t, New(xpu.WithThreads(-1)).Threads(), 1)
}

func TestProcessWithPool(t *testing.T) {
	pool := NewPool(3)
	defer pool.Close()
	assert.Equal(t, 3, pool.Workers())

	b := New(xpu.WithThreads(8), xpu.WithExecutor(pool))
	for range 3 {
		data := filled(5000, 64)
		require.NoError(t, b.Process(data))
		for i, v := range data {
			require.InDeltaf(t, xpu.Kernel(64), v, 1e-5, "element %d", i)
		}
	}
}

func TestProcessWithClosedPool(t *testing.T) {
	pool := NewPool(2)
	pool.Close()

	data := filled(100, 4)
	require.NoError(t, New(xpu.WithExecutor(pool)).Process(data))
	assert.InDelta(t, xpu.Kernel(4), data[99], 1e-6)
}

func TestRegistered(t *testing.T) {
	require.True(t, xpu.IsRegistered(xpu.BackendCPU))

	b, err := xpu.Open(xpu.BackendCPU, xpu.WithThreads(2))
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, "cpu", b.Name())
	data := filled(10, 64)
	require.NoError(t, b.Process(data))
	assert.False(t, math.IsNaN(float64(data[0])))
}

func TestCloseIsNoop(t *testing.T) {
	b := New()
	assert.NoError(t, b.Close())
	assert.NoError(t, b.Close())
	assert.NoError(t, b.Process(filled(4, 1)))
}

func TestFeatures(t *testing.T) {
	f := Features()
	assert.NotEmpty(t, f.Architecture)
	assert.GreaterOrEqual(t, f.Threads, 1)
	assert.True(t, strings.HasPrefix(f.String(), f.Architecture))
}

func TestFeaturesString(t *testing.T) {
	f := HostFeatures{Architecture: "amd64", HasSSE2: true, HasAVX2: true}
	assert.Equal(t, "amd64 sse2 avx2", f.String())
}

func TestOpenUnknownDoesNotAffectCPU(t *testing.T) {
	_, err := xpu.Open("does-not-exist")
	assert.True(t, errors.Is(err, xpu.ErrBackendNotRegistered))
}
