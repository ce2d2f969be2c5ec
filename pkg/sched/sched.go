package sched

import (
	"runtime"

	"github.com/sourcegraph/conc"
)

// Workers resolves a requested worker count: n when positive, otherwise
// runtime.GOMAXPROCS(0).
func Workers(n int) int {
	if n > 0 {
		return n
	}
	return runtime.GOMAXPROCS(0)
}

// OnEach runs fn once on each of Workers(workers) goroutines, passing the
// worker id in [0, total) and total itself, and waits for all of them.
// A panic in any worker is re-raised in the caller after every worker has
// returned.
func OnEach(workers int, fn func(id, total int)) {
	total := Workers(workers)
	if total == 1 {
		fn(0, 1)
		return
	}
	var wg conc.WaitGroup
	for id := range total {
		wg.Go(func() { fn(id, total) })
	}
	wg.Wait()
}

// ForRange splits [0, n) into at most Workers(workers) contiguous blocks and
// calls fn(lo, hi) for each block in parallel.
func ForRange(workers, n int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	total := min(Workers(workers), n)
	OnEach(total, func(id, total int) {
		lo, hi := Block(id, total, n)
		if lo < hi {
			fn(lo, hi)
		}
	})
}

// Block returns the half-open range of [0, n) owned by block id out of total
// when n is split as evenly as possible.
func Block(id, total, n int) (lo, hi int) {
	size, rem := n/total, n%total
	lo = id*size + min(id, rem)
	hi = lo + size
	if id < rem {
		hi++
	}
	return lo, hi
}
