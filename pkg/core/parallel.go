package core

import (
	"runtime"
	"sync"
)

// ParallelRanges splits [0, n) into contiguous index ranges and runs fn on
// each range concurrently. Workers write only into their own range, so the
// combined result is independent of scheduling order. workers <= 0 selects
// the CPU count.
func ParallelRanges(n, workers int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}
	if workers == 1 {
		fn(0, n)
		return
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}
