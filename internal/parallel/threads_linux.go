//go:build linux

package parallel

import "golang.org/x/sys/unix"

// HardwareThreads returns the number of hardware threads this process may
// run on. On linux it honors the scheduler affinity mask, so a process
// pinned with taskset or a cgroup cpuset sees only its allowed CPUs.
// The result is at least 1.
func HardwareThreads() int {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err == nil {
		if n := set.Count(); n > 0 {
			return n
		}
	}
	return numCPU()
}
