// Package uthread implements a userspace M:1 cooperative-and-preemptive
// thread runtime: many in-process "user threads", only one of which runs
// at a time, scheduled through a policy-pluggable scheduler and an
// optional timer-driven preemption request.
//
// # Architecture
//
// The runtime is built around a [Scheduler] core that owns process-global
// state (the current thread, the idle thread, the thread table, and the
// preemption timer) and delegates every scheduling decision to one of three
// interchangeable policies: round-robin ([PolicyRoundRobin]), fixed-priority
// ([PolicyFixedPriority]), and virtual-runtime fair share ([PolicyFair]).
// Four blocking synchronization primitives ([Mutex], [Cond], [Sem],
// [RWLock]) are built on top of the scheduler's wait-queue abstraction
// ([waitQueue]).
//
// # Concurrency model
//
// At most one user thread executes at any instant. A user thread gives up
// the CPU at an explicit [Yield], at any blocking call (mutex lock,
// condvar wait, semaphore wait, rwlock acquire, join, sleep), or, when
// preemption is enabled with [WithPreemption], at its next lock, wait,
// yield or [CheckPreempt] call after the preemption timer has flagged it.
// Every mutation of
// scheduler, queue, or synchronization state happens under the scheduler's
// own lock, and the preemption timer never forces a reschedule directly:
// it only flags the running thread, which acts on that flag the next time
// it enters the scheduler on its own goroutine. See Scheduler.
// requestPreemptCheck and Scheduler.honorPendingPreempt in scheduler.go.
//
// Go offers no portable way to save an arbitrary register set and resume it
// on a different stack without per-architecture assembly. This runtime's
// context-switch primitive therefore represents a "user thread" as a real
// goroutine parked on an unbuffered handoff channel: exactly one goroutine
// ever proceeds past its channel receive at a time, which is sufficient to
// satisfy every ordering and mutual-exclusion guarantee this package makes.
// See context.go for the full rationale.
//
// # Usage
//
//	if _, err := uthread.Init(uthread.WithPolicy(uthread.PolicyFair)); err != nil {
//	    log.Fatal(err)
//	}
//	defer uthread.Shutdown()
//
//	h, err := uthread.Create(nil, func(arg any) any {
//	    fmt.Println("hello from a user thread")
//	    return nil
//	}, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	uthread.Join(h)
package uthread
