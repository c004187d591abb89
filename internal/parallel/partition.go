// Package parallel partitions index spaces across hardware threads and runs
// the parts concurrently.
package parallel

import "sync"

// Range is the half-open index interval [Start, End).
type Range struct {
	Start, End int
}

// Len returns the number of indices in r.
func (r Range) Len() int {
	return r.End - r.Start
}

// Partition splits [0, n) into exactly t contiguous ranges of n/t indices.
// The last range also takes the n%t remainder, so when t > n every range
// but the last is empty. A t below 1 is treated as 1.
func Partition(n, t int) []Range {
	t = max(t, 1)
	n = max(n, 0)

	chunk := n / t
	ranges := make([]Range, t)
	for i := range t {
		start := i * chunk
		end := start + chunk
		if i == t-1 {
			end = n
		}
		ranges[i] = Range{Start: start, End: end}
	}
	return ranges
}

// ForkJoin runs fn for every range on its own goroutine and waits for all
// of them.
func ForkJoin(ranges []Range, fn func(Range)) {
	var wg sync.WaitGroup
	for _, r := range ranges {
		wg.Go(func() { fn(r) })
	}
	wg.Wait()
}
