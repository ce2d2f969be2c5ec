package sched

import (
	"sync"

	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/emirpasic/gods/utils"
)

// Item is a unit of work in an ordered worklist.
type Item[T any] struct {
	Value    T
	Priority uint64
}

// ForEachOrdered runs fn for every seed and for every item pushed by fn,
// using Workers(workers) goroutines. Pending items are served lowest priority
// first. It returns when no items remain and all calls to fn have returned.
//
// push may only be called while the fn invocation that received it is
// running.
func ForEachOrdered[T any](workers int, seeds []Item[T], fn func(it Item[T], push func(Item[T]))) {
	wl := newWorklist[T]()
	for _, it := range seeds {
		wl.put(it)
	}
	wl.pending = len(seeds)
	if wl.pending == 0 {
		return
	}

	OnEach(workers, func(int, int) {
		for {
			it, ok := wl.take()
			if !ok {
				return
			}
			wl.run(it, fn)
		}
	})
}

// worklist is a priority-bucketed queue shared by all workers. Buckets live in
// a red-black tree keyed by priority so the lowest bucket is found in
// O(log buckets).
type worklist[T any] struct {
	mu      sync.Mutex
	cond    *sync.Cond
	buckets *redblacktree.Tree // uint64 -> []Item[T]
	pending int                // queued plus running items
}

func newWorklist[T any]() *worklist[T] {
	wl := &worklist[T]{buckets: redblacktree.NewWith(utils.UInt64Comparator)}
	wl.cond = sync.NewCond(&wl.mu)
	return wl
}

// put queues it. The caller must hold mu or own wl exclusively.
func (wl *worklist[T]) put(it Item[T]) {
	if v, found := wl.buckets.Get(it.Priority); found {
		wl.buckets.Put(it.Priority, append(v.([]Item[T]), it))
		return
	}
	wl.buckets.Put(it.Priority, []Item[T]{it})
}

func (wl *worklist[T]) push(it Item[T]) {
	wl.mu.Lock()
	wl.put(it)
	wl.pending++
	wl.mu.Unlock()
	wl.cond.Signal()
}

// take blocks until an item is available or the worklist has drained.
func (wl *worklist[T]) take() (Item[T], bool) {
	wl.mu.Lock()
	defer wl.mu.Unlock()
	for wl.buckets.Empty() {
		if wl.pending == 0 {
			return Item[T]{}, false
		}
		wl.cond.Wait()
	}

	node := wl.buckets.Left()
	bucket := node.Value.([]Item[T])
	it := bucket[len(bucket)-1]
	if len(bucket) == 1 {
		wl.buckets.Remove(node.Key)
	} else {
		wl.buckets.Put(node.Key, bucket[:len(bucket)-1])
	}
	return it, true
}

func (wl *worklist[T]) run(it Item[T], fn func(Item[T], func(Item[T]))) {
	defer wl.done()
	fn(it, wl.push)
}

func (wl *worklist[T]) done() {
	wl.mu.Lock()
	wl.pending--
	drained := wl.pending == 0
	wl.mu.Unlock()
	if drained {
		wl.cond.Broadcast()
	}
}
