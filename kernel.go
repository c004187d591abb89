package xpu

import "math"

// KernelDecay is the coefficient of the exponential term in [Kernel].
const KernelDecay float32 = 0.001

// Kernel returns sqrt(x) + sin(x)*cos(x) + exp(-x*0.001) in single precision.
//
// Every term is rounded to float32 before it is combined, which matches the
// per-operation float32 evaluation of the GPU kernel in shaders/elementwise.wgsl.
// x must be non-negative; negative inputs yield NaN.
func Kernel(x float32) float32 {
	v := float64(x)
	s := float32(math.Sqrt(v))
	sc := float32(math.Sin(v)) * float32(math.Cos(v))
	e := float32(math.Exp(float64(-x * KernelDecay)))
	return s + sc + e
}

// KernelSlice applies Kernel to every element of data in place.
func KernelSlice(data []float32) {
	for i, x := range data {
		data[i] = Kernel(x)
	}
}
