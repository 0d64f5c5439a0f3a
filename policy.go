package uthread

// PolicyName identifies one of the three scheduling policies spec.md §4
// requires.
type PolicyName int32

const (
	PolicyRoundRobin PolicyName = iota
	PolicyFixedPriority
	PolicyFair
)

func (p PolicyName) String() string {
	switch p {
	case PolicyRoundRobin:
		return "round-robin"
	case PolicyFixedPriority:
		return "fixed-priority"
	case PolicyFair:
		return "fair"
	default:
		return "unknown"
	}
}

// schedPolicy is the vtable every scheduling policy implements, named
// directly after spec.md §4.3's operation list. Every method is called
// with the scheduler's lock held by the caller; policies must not block
// or acquire locks of their own.
type schedPolicy interface {
	name() PolicyName

	// init/shutdown bracket the policy's lifetime, mirroring the
	// scheduler's own Init/Shutdown.
	initPolicy()
	shutdownPolicy()

	// enqueue makes t eligible for dispatch; t.state is already
	// StateReady.
	enqueue(t *tcb)

	// dequeue picks and removes the next thread to run, or nil if none
	// is ready.
	dequeue() *tcb

	// remove extracts a specific ready thread without dispatching it.
	remove(t *tcb) bool

	// onYield is invoked when the running thread voluntarily yields,
	// before it is re-enqueued.
	onYield(t *tcb)

	// onTick is invoked once per scheduler tick for the running thread,
	// with the nanoseconds elapsed since its last dispatch.
	onTick(t *tcb, elapsedNs int64)

	// shouldPreempt reports whether the running thread should be forced
	// to yield right now.
	shouldPreempt(t *tcb) bool

	// updatePriority is called after a thread's priority or nice value
	// changes.
	updatePriority(t *tcb)

	// empty and len report on the ready set as a whole.
	empty() bool
	len() int
}

func newPolicy(name PolicyName, priorityLevels int, timeslice int64) schedPolicy {
	switch name {
	case PolicyFixedPriority:
		return newPriorityPolicy(priorityLevels, timeslice)
	case PolicyFair:
		return newFairPolicy()
	default:
		return newRoundRobinPolicy(timeslice)
	}
}
