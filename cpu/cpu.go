// Package cpu provides the multi-threaded host backend.
//
// Importing the package registers it under the name "cpu":
//
//	import _ "github.com/gogpu/xpu/cpu"
//
//	b, err := xpu.Open(xpu.BackendCPU)
package cpu

import (
	"github.com/gogpu/xpu"
	"github.com/gogpu/xpu/internal/parallel"
)

func init() {
	xpu.Register(xpu.BackendCPU, func(cfg *xpu.Config) (xpu.Backend, error) {
		return newBackend(cfg), nil
	})
}

// Backend applies the kernel on host threads. Every Process call splits the
// buffer into one contiguous range per thread; the last range absorbs the
// remainder. Ranges are disjoint, so workers share no mutable state.
//
// Backend holds no per-call state and is safe for concurrent use on
// distinct buffers.
type Backend struct {
	threads int
	exec    xpu.Executor
}

// New creates a CPU backend. Relevant options are xpu.WithThreads and
// xpu.WithExecutor.
func New(opts ...xpu.Option) *Backend {
	return newBackend(xpu.NewConfig(opts...))
}

func newBackend(cfg *xpu.Config) *Backend {
	return &Backend{threads: cfg.Threads, exec: cfg.Executor}
}

// Name returns "cpu".
func (b *Backend) Name() string { return xpu.BackendCPU }

// Threads returns the number of ranges the next Process call will use.
func (b *Backend) Threads() int {
	if b.threads > 0 {
		return b.threads
	}
	return parallel.HardwareThreads()
}

// Process applies xpu.Kernel to data in place and returns when every range
// is done. An empty buffer is a no-op.
func (b *Backend) Process(data []float32) error {
	if len(data) == 0 {
		return nil
	}

	ranges := parallel.Partition(len(data), b.Threads())
	apply := func(r parallel.Range) {
		xpu.KernelSlice(data[r.Start:r.End])
	}

	if b.exec == nil {
		parallel.ForkJoin(ranges, apply)
		return nil
	}

	work := make([]func(), len(ranges))
	for i, r := range ranges {
		work[i] = func() { apply(r) }
	}
	b.exec.ExecuteAll(work)
	return nil
}

// Close is a no-op; a pool passed with xpu.WithExecutor stays owned by the
// caller.
func (b *Backend) Close() error { return nil }

// Pool is a persistent worker pool usable with xpu.WithExecutor. It avoids
// spawning goroutines on every Process call in tight benchmark loops.
type Pool struct {
	wp *parallel.WorkerPool
}

// NewPool starts a pool with the given number of workers; 0 means one per
// hardware thread.
func NewPool(workers int) *Pool {
	return &Pool{wp: parallel.NewWorkerPool(workers)}
}

// ExecuteAll implements xpu.Executor.
func (p *Pool) ExecuteAll(work []func()) { p.wp.ExecuteAll(work) }

// Workers returns the number of pool goroutines.
func (p *Pool) Workers() int { return p.wp.Workers() }

// Close stops the pool. Later ExecuteAll calls run on the caller.
func (p *Pool) Close() { p.wp.Close() }
