package uthread

import "sync/atomic"

// ThreadState is one of {ready, running, blocked, terminated} per spec.md
// §3.
type ThreadState int32

const (
	StateReady ThreadState = iota
	StateRunning
	StateBlocked
	StateTerminated
)

func (s ThreadState) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateBlocked:
		return "blocked"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// EntryFunc is the function a user thread begins execution at.
type EntryFunc func(arg any) any

// tcb is the Thread Control Block: one per user thread, laid out per
// spec.md §3's data model table. Fields are only ever mutated while
// holding sched.mu (this runtime's critical section; see scheduler.go).
type tcb struct {
	id    int64
	name  string // bounded to maxNameLen runes by create and SetName
	state ThreadState

	// context is the goroutine-based context-switch handle; see context.go.
	ctx *goContext

	stackBase  []byte
	guardBase  []byte // non-nil only when a real guard page was mapped
	stackSize  int

	entry  EntryFunc
	arg    any
	retval any

	priority int32
	nice     int32
	weight   uint64
	vruntime uint64

	startTime         int64 // ns, set at each dispatch
	totalRuntime       int64 // ns, accumulated across dispatches
	timesliceRemaining int64 // ns, saturating counter

	detached  bool
	exited    bool
	tableSlot int32

	// preemptRequested is only ever touched by the preemption handler
	// (requestPreemptCheck, under sched.mu) and by this thread's own
	// goroutine consuming the request (honorPendingPreempt); see
	// scheduler.go.
	preemptRequested bool

	joiner    *tcb // back reference: who is waiting to join us
	waitingOn *tcb // back reference: who we are waiting to join

	// queue links for whichever FIFO currently holds this TCB (run queue
	// or wait queue) - never both at once, per spec.md's TCB invariants.
	qPrev, qNext *tcb
	onQueue      *waitQueue // non-nil while linked into a waitQueue

	// fair-policy tree links; only meaningful while owned by the fair
	// policy's heap (see policy_fair.go).
	heapIndex int

	// priority-policy level link; only meaningful while owned by the
	// fixed-priority policy.
	level int32
}

// runnable reports whether the thread can still be scheduled.
func (t *tcb) runnable() bool {
	return t.state == StateReady || t.state == StateRunning
}

var nextThreadID atomic.Int64

func allocThreadID() int64 {
	return nextThreadID.Add(1)
}
