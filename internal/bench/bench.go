// Package bench times the CPU and GPU backends against each other.
//
// A run fills one buffer per backend with a constant, uploads the GPU copy
// once, then for each iteration times a full CPU Process next to a GPU
// dispatch that waits for completion. The final GPU download is timed
// separately and the leading elements of both buffers are compared.
package bench

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gogpu/xpu"
)

// DefaultElements is 1<<29 float32 values (2 GiB).
const DefaultElements = 1 << 29

// Device is the step-wise GPU surface the harness drives.
type Device interface {
	UploadData(data []float32) error
	Dispatch(count int, wait bool) error
	DownloadData(out []float32) error
}

// Config describes one benchmark run.
type Config struct {
	Elements   int
	Iterations int
	Value      float32
	// Samples is how many leading elements are reported and compared.
	Samples int
}

// DefaultConfig returns the parameters of the reference benchmark.
func DefaultConfig() Config {
	return Config{
		Elements:   DefaultElements,
		Iterations: 2,
		Value:      64,
		Samples:    5,
	}
}

func (c Config) validate() error {
	switch {
	case c.Elements < 0:
		return fmt.Errorf("bench: negative element count %d", c.Elements)
	case c.Iterations < 1:
		return fmt.Errorf("bench: need at least one iteration, got %d", c.Iterations)
	case c.Samples < 0:
		return fmt.Errorf("bench: negative sample count %d", c.Samples)
	}
	return nil
}

// Iteration holds the timings of one loop pass. GPU is zero when no GPU
// device takes part.
type Iteration struct {
	CPU time.Duration
	GPU time.Duration
}

// Result is the outcome of Run.
type Result struct {
	Config     Config
	Iterations []Iteration
	Upload     time.Duration
	Download   time.Duration

	CPUSamples []float32
	GPUSamples []float32

	// MaxDiff is the largest absolute difference over the sampled elements.
	MaxDiff float64
}

// HasGPU reports whether the run included a GPU device.
func (r *Result) HasGPU() bool { return r.GPUSamples != nil }

// Bytes returns the size of one buffer.
func (r *Result) Bytes() uint64 { return uint64(r.Config.Elements) * 4 }

// Runner executes a benchmark. GPU may be nil for a CPU-only run.
type Runner struct {
	CPU xpu.Compute
	GPU Device

	// OnIteration, if set, is called after each completed iteration.
	OnIteration func(i int, it Iteration)

	// now is replaced in tests.
	now func() time.Time
}

func (r *Runner) clock() func() time.Time {
	if r.now != nil {
		return r.now
	}
	return time.Now
}

// Run executes cfg. Each iteration re-applies the kernel to the previous
// output on both sides, so the buffers stay comparable.
func (r *Runner) Run(cfg Config) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if r.CPU == nil {
		return nil, errors.New("bench: no CPU backend")
	}
	now := r.clock()
	res := &Result{Config: cfg, Iterations: make([]Iteration, 0, cfg.Iterations)}

	cpuData := fill(cfg.Elements, cfg.Value)
	var gpuData []float32
	if r.GPU != nil {
		gpuData = fill(cfg.Elements, cfg.Value)
		start := now()
		if err := r.GPU.UploadData(gpuData); err != nil {
			return nil, fmt.Errorf("bench: upload: %w", err)
		}
		res.Upload = now().Sub(start)
	}

	for i := range cfg.Iterations {
		var it Iteration

		start := now()
		if err := r.CPU.Process(cpuData); err != nil {
			return nil, fmt.Errorf("bench: iteration %d: cpu: %w", i, err)
		}
		it.CPU = now().Sub(start)

		if r.GPU != nil {
			start = now()
			if err := r.GPU.Dispatch(len(gpuData), true); err != nil {
				return nil, fmt.Errorf("bench: iteration %d: gpu: %w", i, err)
			}
			it.GPU = now().Sub(start)
		}

		res.Iterations = append(res.Iterations, it)
		xpu.Logger().Debug("bench: iteration done", "i", i, "cpu", it.CPU, "gpu", it.GPU)
		if r.OnIteration != nil {
			r.OnIteration(i, it)
		}
	}

	n := min(cfg.Samples, cfg.Elements)
	res.CPUSamples = append([]float32{}, cpuData[:n]...)

	if r.GPU != nil {
		start := now()
		if err := r.GPU.DownloadData(gpuData); err != nil {
			return nil, fmt.Errorf("bench: download: %w", err)
		}
		res.Download = now().Sub(start)
		res.GPUSamples = append([]float32{}, gpuData[:n]...)
		res.MaxDiff = maxAbsDiff(res.CPUSamples, res.GPUSamples)
	}
	return res, nil
}

func fill(n int, v float32) []float32 {
	data := make([]float32, n)
	for i := range data {
		data[i] = v
	}
	return data
}

func maxAbsDiff(a, b []float32) float64 {
	var m float64
	for i := range min(len(a), len(b)) {
		m = math.Max(m, math.Abs(float64(a[i])-float64(b[i])))
	}
	return m
}
