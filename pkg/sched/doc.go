// Package sched runs work across a fixed set of goroutines.
//
// Two execution shapes are provided:
//
//   - [OnEach] starts exactly one goroutine per worker id and waits for all of
//     them. Callers that partition work statically (striping, chunking) use it
//     directly or through [ForRange].
//   - [ForEachOrdered] drains a dynamic worklist whose items carry an integer
//     priority. Workers always take an item from the lowest priority bucket
//     currently queued, and may push new items while they run. It returns once
//     the worklist is empty and no worker is still running.
//
// Order between items of equal priority is unspecified, and with more than
// one worker items of different priority may run concurrently. Callers must
// tolerate items that turn out to be stale when popped.
package sched
