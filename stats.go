package uthread

import (
	"fmt"
	"sync/atomic"
)

// atomicCounter is a monotonic counter safe to read without holding the
// scheduler lock, per spec.md §5's "statistics counters may be read
// without critical section; values are best-effort snapshots."
// Grounded on the teacher's metrics.go atomic-counter style, trimmed
// down from latency-distribution tracking (P-Square percentiles) to
// plain counts, since spec.md's statistics surface is exact counters
// only, not latency distributions.
type atomicCounter struct {
	v atomic.Int64
}

func (c *atomicCounter) add(delta int64) { c.v.Add(delta) }
func (c *atomicCounter) load() int64     { return c.v.Load() }

// Stats is a snapshot of runtime statistics, per spec.md §6's
// "get/reset stats" operation.
type Stats struct {
	Invocations  int64
	Yields       int64
	Preempts     int64
	ContextSwaps int64
	ThreadsLive  int
	ThreadsTotal int64
}

// Stats returns a best-effort snapshot of the runtime's counters.
func (sched *Scheduler) Stats() Stats {
	sched.mu.Lock()
	live := sched.table.len()
	sched.mu.Unlock()
	return Stats{
		Invocations:  sched.invocations.load(),
		Yields:       sched.yields.load(),
		Preempts:     sched.preempts.load(),
		ContextSwaps: sched.contextSwaps.load(),
		ThreadsLive:  live,
		ThreadsTotal: nextThreadID.Load(),
	}
}

// ResetStats zeroes every counter except the live thread-ID allocator.
func (sched *Scheduler) ResetStats() {
	sched.invocations.v.Store(0)
	sched.yields.v.Store(0)
	sched.preempts.v.Store(0)
	sched.contextSwaps.v.Store(0)
}

// DebugDump renders a human-readable snapshot of scheduler state,
// mirroring the teacher's DebugDump-style diagnostics.
func (sched *Scheduler) DebugDump() string {
	s := sched.Stats()
	return fmt.Sprintf(
		"uthread runtime: policy=%s threads=%d/%d invocations=%d yields=%d preempts=%d switches=%d",
		sched.policyName, s.ThreadsLive, sched.table.capacity(), s.Invocations, s.Yields, s.Preempts, s.ContextSwaps,
	)
}
