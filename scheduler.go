package uthread

import "sync"

// Scheduler is the runtime's global singleton state, per spec.md §4.3:
// policy, current thread, idle TCB, thread table, counters, timer
// configuration, preemption-enabled flag, and in-scheduler flag.
//
// mu serializes every mutation of scheduler-owned state (thread table,
// ready/wait queues, policy internals). It is the Go-idiomatic stand-in
// for the spec's single-core "preemption suppressed" discipline: on a
// single core that discipline IS mutual exclusion, so a real mutex here
// is a faithful generalization to the case where more than one OS
// thread might be driving the runtime (e.g. one goroutine running a
// user thread's body while another calls Create concurrently).
type Scheduler struct {
	mu sync.Mutex

	policy         schedPolicy
	policyName     PolicyName
	current        *tcb
	idle           *tcb
	table          *threadTable
	sleepq         *sleepQueue
	timeslice      int64
	preemptEnabled bool
	inScheduler    bool

	timer       *preemptTimer
	readyNotify chan struct{}

	invocations  atomicCounter
	yields       atomicCounter
	preempts     atomicCounter
	contextSwaps atomicCounter

	initialized bool
}

func newScheduler(cfg *runtimeOptions) *Scheduler {
	s := &Scheduler{
		policyName:     cfg.policyName,
		table:          newThreadTable(cfg.maxThreads),
		sleepq:         newSleepQueue(),
		timeslice:      int64(cfg.timeslice),
		preemptEnabled: true,
		readyNotify:    make(chan struct{}, 1),
	}
	s.policy = newPolicy(cfg.policyName, cfg.priorityLevels, s.timeslice)
	s.policy.initPolicy()
	s.idle = newIdleTCB()
	s.current = s.idle
	s.initialized = true
	go s.idleLoop()
	return s
}

func (sched *Scheduler) shutdown() {
	sched.mu.Lock()
	defer sched.mu.Unlock()
	if sched.timer != nil {
		sched.timer.stop()
	}
	sched.policy.shutdownPolicy()
	sched.initialized = false
}

// schedule implements spec.md §4.3's schedule(): pick the next runnable
// thread (falling back to idle), update states, and context-switch.
// Caller must hold sched.mu.
func (sched *Scheduler) schedule() {
	sched.invocations.add(1)
	sched.inScheduler = true
	defer func() { sched.inScheduler = false }()

	next := sched.policy.dequeue()
	if next == nil {
		next = sched.idle
	}

	if next == sched.current {
		return
	}

	prev := sched.current
	if prev != nil && prev.state == StateRunning {
		prev.state = StateReady
	}
	ts := now()
	if prev != nil && prev.startTime != 0 {
		prev.totalRuntime += ts - prev.startTime
	}
	next.state = StateRunning
	next.startTime = ts
	sched.current = next
	sched.contextSwaps.add(1)

	sched.switchContext(prev, next)
}

// yield implements spec.md §4.3's yield(): the calling thread gives up
// the CPU but remains runnable.
func (sched *Scheduler) Yield() {
	sched.mu.Lock()
	defer sched.mu.Unlock()
	sched.yieldLocked()
}

func (sched *Scheduler) yieldLocked() {
	sched.honorPendingPreempt()
	cur := sched.current
	if cur == nil || cur == sched.idle {
		return
	}
	sched.yields.add(1)
	sched.policy.onYield(cur)
	cur.state = StateReady
	sched.policy.enqueue(cur)
	sched.schedule()
}

// block implements spec.md §4.3's block(wq): mark current blocked, add
// to wq, schedule. Caller must hold sched.mu.
func (sched *Scheduler) block(wq *waitQueue) {
	sched.honorPendingPreempt()
	cur := sched.current
	cur.state = StateBlocked
	wq.add(cur)
	sched.schedule()
}

// unblock implements spec.md §4.3's unblock(t): mark t ready and
// re-enqueue. Caller must hold sched.mu.
//
// A TCB is linked into at most one queue at a time (see tcb.go), but
// wakeDueSleepers races exactly this invariant against a primitive's
// own wakeOne/wakeAll: a timed wait links t into both the primitive's
// wait queue and sched.sleepq, and whichever side reaches t first
// under sched.mu wins. wakeOne already detaches t from the primitive
// queue before calling unblock, so the defensive check below is a
// no-op on that path; on the sleep-deadline path t is still linked
// into the primitive's wait queue, so it must be detached here before
// handing t to the policy, or policy.enqueue (which, for round-robin
// and fixed-priority, reuses the same waitQueue type as its ready
// queue) would panic re-linking an already-linked TCB.
func (sched *Scheduler) unblock(t *tcb) {
	if t.onQueue != nil {
		t.onQueue.removeSpecific(t)
	}
	t.state = StateReady
	sched.policy.enqueue(t)
	sched.notifyReady()
}

// tick implements spec.md §4.3's tick(): called on the current thread's
// own goroutine (the only goroutine allowed to invoke schedule()), it
// accounts elapsed time and, if the policy says so, immediately
// reschedules. Caller must hold sched.mu.
func (sched *Scheduler) tick() {
	cur := sched.current
	if cur == nil || cur == sched.idle {
		return
	}
	elapsed := now() - cur.startTime
	sched.policy.onTick(cur, elapsed)
	if sched.preemptEnabled && sched.policy.shouldPreempt(cur) {
		sched.preempts.add(1)
		cur.state = StateReady
		sched.policy.enqueue(cur)
		sched.schedule()
	}
}

// requestPreemptCheck runs the accounting half of spec.md §4.7's timer
// decision tree. It is safe to call from any goroutine (in particular
// the preemption timer's own), because unlike tick() it never calls
// schedule() itself - it only flags the current thread for preemption
// (preemptRequested), leaving the actual reschedule to honorPendingPreempt
// on the affected thread's own goroutine. That split, not a separate
// nesting counter, is this runtime's realization of spec.md §4.7's
// suppression rule: the timer can run concurrently with a mutation of
// scheduler state under sched.mu (it blocks on the same lock, see
// preempt.go), but it can never force a reschedule mid-mutation, because
// only the mutating thread's own goroutine ever calls schedule(). Caller
// must hold sched.mu.
func (sched *Scheduler) requestPreemptCheck() {
	cur := sched.current
	if cur == nil || cur == sched.idle {
		sched.wakeDueSleepers()
		return
	}
	elapsed := now() - cur.startTime
	sched.policy.onTick(cur, elapsed)
	if sched.preemptEnabled && sched.policy.shouldPreempt(cur) {
		cur.preemptRequested = true
	}
	sched.wakeDueSleepers()
}

// honorPendingPreempt performs the deferred reschedule, if one is
// pending for the current thread. It must only be called from the
// current thread's own goroutine (every exported blocking entry point
// qualifies). Caller must hold sched.mu.
func (sched *Scheduler) honorPendingPreempt() {
	cur := sched.current
	if cur == nil || cur == sched.idle || !cur.preemptRequested {
		return
	}
	cur.preemptRequested = false
	sched.preempts.add(1)
	cur.state = StateReady
	sched.policy.enqueue(cur)
	sched.schedule()
}

func newIdleTCB() *tcb {
	return &tcb{
		id:    idleThreadID,
		name:  "idle",
		state: StateRunning,
		ctx:   newGoContext(),
	}
}
