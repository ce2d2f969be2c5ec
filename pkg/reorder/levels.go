package reorder

import (
	"sync/atomic"

	"github.com/sourcegraph/conc/pool"
	"golang.org/x/sys/cpu"

	"github.com/matzehuels/bandorder/pkg/sched"
)

// cursor is a write offset kept on its own cache line.
type cursor struct {
	_ cpu.CacheLinePad
	v atomic.Uint32
	_ cpu.CacheLinePad
}

// OffsetTable holds where each level starts in the permutation and how far
// it has been filled.
//
// Read[n] is the first slot of level n and never changes. The write cursor of
// level n starts at Read[n] and only grows; it reaches Read[n]+count[n] once
// level n is complete. One extra cursor past the last level absorbs the
// (empty) publication made by the owner of the last level.
type OffsetTable struct {
	Read  []uint32
	write []cursor
}

func newOffsetTable(counts []uint32) *OffsetTable {
	t := &OffsetTable{
		Read:  make([]uint32, len(counts)),
		write: make([]cursor, len(counts)+1),
	}
	var sum uint32
	for n, c := range counts {
		t.Read[n] = sum
		t.write[n].v.Store(sum)
		sum += c
	}
	t.write[len(counts)].v.Store(sum)
	return t
}

// Write returns the published write cursor of level n.
func (t *OffsetTable) Write(n int) uint32 { return t.write[n].v.Load() }

func (t *OffsetTable) publish(n int, end uint32) { t.write[n].v.Store(end) }

// levelPartial is one worker's share of the histogram.
type levelPartial struct {
	counts []uint32
	max    uint32
}

// countLevels builds the per-level histogram, the maximum distance and the
// offset table from the assigned distances.
func countLevels(ctx *Context) {
	n := len(ctx.dist)
	chunks := max(1, min(ctx.workers, n))
	p := pool.NewWithResults[levelPartial]().WithMaxGoroutines(chunks)
	for id := range chunks {
		lo, hi := sched.Block(id, chunks, n)
		p.Go(func() levelPartial {
			var part levelPartial
			for i := lo; i < hi; i++ {
				d := ctx.dist[i].Load()
				if d == Infinity {
					continue
				}
				if int(d) >= len(part.counts) {
					part.counts = append(part.counts, make([]uint32, int(d)+1-len(part.counts))...)
				}
				part.counts[d]++
				part.max = max(part.max, d)
			}
			return part
		})
	}

	var counts []uint32
	var maxDist uint32
	for _, part := range p.Wait() {
		if len(part.counts) > len(counts) {
			counts = append(counts, make([]uint32, len(part.counts)-len(counts))...)
		}
		for d, c := range part.counts {
			counts[d] += c
		}
		maxDist = max(maxDist, part.max)
	}

	ctx.levels = counts
	ctx.maxDist = maxDist
	ctx.offsets = newOffsetTable(counts)
}
