// Command xpubench times the elementwise kernel on the CPU and GPU backends.
//
// It fills one buffer per backend with a constant, uploads the GPU copy
// once, runs a number of timed iterations (CPU Process against a GPU
// dispatch that waits for completion), downloads the GPU result and prints
// the timings with the leading elements of both buffers.
//
// Usage:
//
//	xpubench -n 536870912 -iterations 2 -shader shaders/elementwise.wgsl
//	xpubench -cpu-only -threads 8 -pool
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/gogpu/xpu"
	"github.com/gogpu/xpu/cpu"
	"github.com/gogpu/xpu/gpu"
	"github.com/gogpu/xpu/internal/bench"
)

func main() {
	def := bench.DefaultConfig()
	var (
		elements   = flag.Int("n", def.Elements, "number of float32 elements per buffer")
		iterations = flag.Int("iterations", def.Iterations, "timed iterations")
		value      = flag.Float64("value", float64(def.Value), "initial value of every element")
		samples    = flag.Int("samples", def.Samples, "leading elements to print and compare")
		shader     = flag.String("shader", "shaders/elementwise.wgsl", "WGSL kernel file")
		threads    = flag.Int("threads", 0, "CPU ranges per call (0 = hardware threads)")
		usePool    = flag.Bool("pool", false, "run CPU ranges on a persistent worker pool")
		cpuOnly    = flag.Bool("cpu-only", false, "skip the GPU backend")
		fallback   = flag.Bool("fallback", false, "force the software GPU adapter")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	xpu.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(runConfig{
		bench: bench.Config{
			Elements:   *elements,
			Iterations: *iterations,
			Value:      float32(*value),
			Samples:    *samples,
		},
		shader:   *shader,
		threads:  *threads,
		usePool:  *usePool,
		cpuOnly:  *cpuOnly,
		fallback: *fallback,
	}); err != nil {
		slog.Error("xpubench failed", "err", err)
		os.Exit(1)
	}
}

type runConfig struct {
	bench    bench.Config
	shader   string
	threads  int
	usePool  bool
	cpuOnly  bool
	fallback bool
}

func run(rc runConfig) error {
	opts := []xpu.Option{
		xpu.WithThreads(rc.threads),
		xpu.WithShaderPath(rc.shader),
		xpu.WithForceFallbackAdapter(rc.fallback),
	}
	if rc.usePool {
		pool := cpu.NewPool(rc.threads)
		defer pool.Close()
		opts = append(opts, xpu.WithExecutor(pool))
	}

	cpuBackend := cpu.New(opts...)
	fmt.Printf("CPU: %s, %d threads\n", cpu.Features(), cpuBackend.Threads())

	runner := &bench.Runner{CPU: cpuBackend}
	if !rc.cpuOnly {
		g := gpu.New(opts...)
		if err := g.Init(rc.shader); err != nil {
			return fmt.Errorf("%w (use -cpu-only to skip the GPU)", err)
		}
		defer g.Shutdown()
		info, _ := g.AdapterInfo()
		fmt.Printf("GPU: %s (%s), %d workgroups per dimension\n",
			info.Name, info.Type, g.MaxWorkgroupsPerDimension())
		runner.GPU = g
	}

	bar := progressbar.NewOptions(rc.bench.Iterations,
		progressbar.OptionSetDescription("iterations"),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	runner.OnIteration = func(int, bench.Iteration) { _ = bar.Add(1) }

	res, err := runner.Run(rc.bench)
	_ = bar.Finish()
	if err != nil {
		return err
	}
	return res.WriteReport(os.Stdout)
}
