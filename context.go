package uthread

import "time"

// goContext is this runtime's substitute for spec.md §4.8's literal
// "save/restore register set, resume on arbitrary stack" context
// primitive. Go gives no portable, unsafe-free way to save and restore
// an arbitrary machine register set or to resume a goroutine on a
// caller-supplied stack, so each user thread instead gets its own real
// goroutine, permanently parked on an unbuffered channel except while it
// is the one "running" - only one such goroutine is ever unparked at a
// time, which reproduces the single-threaded-execution invariant
// spec.md §5 requires even though multiple goroutines exist.
//
// Grounded on the Park/Ready rendezvous shape of the alphadose-ZenQ
// thread_parker (a goroutine blocks on a channel receive until another
// goroutine sends it a wakeup), but deliberately not on that package's
// runtime-internal go:linkname trick (goready/gopark): that pins the
// design to a specific Go runtime version and is only appropriate
// inside that queue's own internals. A plain channel handoff gets the
// same rendezvous using only the public language, at the cost of one
// extra real goroutine and channel op per context switch.
//
// A consequence worth being explicit about: the preemption timer in
// this runtime (see preempt.go) cannot literally suspend a running
// goroutine mid-instruction the way a real OS signal suspends a thread
// on arbitrary machine code. It can only request a preemption; the
// request is honored the next time the running thread calls a blocking
// uthread operation (mutex lock, semaphore wait, rwlock acquire, yield)
// or the explicit CheckPreempt poll; non-blocking calls such as Unlock,
// Post or Signal do not honor it. For Go programs that structure their threads as
// a loop of cooperative library calls - which any program using this
// runtime's sync primitives naturally does - this recovers preemptive
// behavior at every practical suspension point; it does not recover it
// inside an unbroken tight loop of pure computation, which no portable
// Go mechanism can interrupt from outside.
type goContext struct {
	resume chan struct{}
}

func newGoContext() *goContext {
	return &goContext{resume: make(chan struct{})}
}

// switchContext hands control from prev to next. Caller holds sched.mu;
// it is released for the duration of the handoff and re-acquired
// before returning. prev being nil or the idle thread (the bootstrap
// case, and the case of the idle driver's own dispatch loop) skips the
// parking half: there is nothing to resume later at that call site.
func (sched *Scheduler) switchContext(prev, next *tcb) {
	sched.mu.Unlock()
	defer sched.mu.Lock()

	next.ctx.resume <- struct{}{}

	if prev != nil && prev != sched.idle {
		<-prev.ctx.resume
	}
}

// idleLoop is the idle pseudo-thread's driver goroutine. Unlike a real
// user thread it has no entry function; its job is simply to notice
// when some thread becomes ready and dispatch it, parking itself on a
// short ticker otherwise so an unblock() from any source is picked up
// promptly without busy-spinning the host CPU.
func (sched *Scheduler) idleLoop() {
	for {
		<-sched.idle.ctx.resume
		sched.mu.Lock()
		for sched.current == sched.idle {
			if !sched.policy.empty() {
				sched.schedule()
				break
			}
			if due, ok := sched.sleepq.nextDeadline(); ok {
				wait := time.Duration(due-now()) * time.Nanosecond
				if wait < 0 {
					wait = 0
				}
				sched.mu.Unlock()
				select {
				case <-sched.readyNotify:
				case <-time.After(wait):
				}
				sched.mu.Lock()
				sched.wakeDueSleepers()
				continue
			}
			sched.mu.Unlock()
			select {
			case <-sched.readyNotify:
			case <-time.After(idlePollInterval):
			}
			sched.mu.Lock()
		}
		sched.mu.Unlock()
	}
}

const idlePollInterval = 5 * time.Millisecond

// wakeDueSleepers moves every thread whose sleep deadline has elapsed
// back onto the ready set. Caller holds sched.mu.
func (sched *Scheduler) wakeDueSleepers() {
	for _, t := range sched.sleepq.due(now()) {
		sched.unblock(t)
	}
}

// notifyReady pings the idle loop's select without blocking, used
// whenever a thread is unblocked so idle doesn't wait out its full poll
// interval unnecessarily.
func (sched *Scheduler) notifyReady() {
	select {
	case sched.readyNotify <- struct{}{}:
	default:
	}
}
