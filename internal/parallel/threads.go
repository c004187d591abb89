package parallel

import "runtime"

func numCPU() int {
	return max(runtime.NumCPU(), 1)
}
