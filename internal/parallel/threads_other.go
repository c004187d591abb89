//go:build !linux

package parallel

// HardwareThreads returns the number of logical CPUs, at least 1.
func HardwareThreads() int {
	return numCPU()
}
