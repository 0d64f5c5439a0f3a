package uthread

// create implements spec.md §4.8's create(): validate attr, allocate a
// TCB and stack, wire its goroutine, insert into the thread table and
// policy, and return its handle.
func (sched *Scheduler) create(attr *ThreadAttr, entry EntryFunc, arg any) (*tcb, error) {
	if entry == nil {
		return nil, newErr("create", CodeInvalidArgument)
	}
	if attr == nil {
		attr = DefaultThreadAttr()
	}
	if err := attr.validate(); err != nil {
		return nil, err
	}

	sched.mu.Lock()
	defer sched.mu.Unlock()

	stack := allocStack(attr.StackSize)

	t := &tcb{
		id:        allocThreadID(),
		name:      truncateName(attr.Name),
		state:     StateReady,
		ctx:       newGoContext(),
		stackBase: stack.usable,
		guardBase: stack.guard,
		stackSize: attr.StackSize,
		entry:     entry,
		arg:       arg,
		priority:  attr.Priority,
		nice:      attr.Nice,
		detached:  attr.Detached,
		heapIndex: -1,
	}

	slot, ok := sched.table.insert(t)
	if !ok {
		stack.free()
		return nil, newErr("create", CodeOutOfMemory)
	}
	t.tableSlot = slot

	go sched.runThread(t)

	sched.policy.enqueue(t)
	sched.notifyReady()
	logf(LevelDebug, "thread", t.id, "created")
	return t, nil
}

// runThread is the goroutine body for every spawned user thread. It
// parks until first dispatched, runs the entry function, then performs
// the exit protocol. It never returns control normally; the last thing
// it does is park forever inside exit's schedule() call once the
// thread table slot (if joinable) has been freed by the joiner, or
// immediately if detached.
func (sched *Scheduler) runThread(t *tcb) {
	<-t.ctx.resume
	ret := t.entry(t.arg)
	sched.exit(t, ret)
}

func truncateName(name string) string {
	r := []rune(name)
	if len(r) > maxNameLen {
		r = r[:maxNameLen]
	}
	return string(r)
}

// exit implements spec.md §4.8's exit(retval).
func (sched *Scheduler) exit(t *tcb, retval any) {
	sched.mu.Lock()
	t.retval = retval
	t.exited = true
	t.state = StateTerminated
	sched.policy.remove(t)
	if t.joiner != nil {
		sched.unblock(t.joiner)
	}
	if t.detached {
		sched.table.release(t.tableSlot)
	}
	sched.schedule()
	sched.mu.Unlock()
	// schedule() parks this goroutine forever via switchContext's
	// `<-prev.ctx.resume`, which is never signaled again once a thread
	// is terminated, so execution never actually reaches this point;
	// it is unreachable but left for clarity that exit never returns.
	//
	// That permanently parked goroutine is a real, intentional resource
	// cost of the goroutine-per-thread substitution (see context.go):
	// every exited thread leaves one goroutine blocked forever, exactly
	// mirroring a real OS thread's kernel resources not being reclaimed
	// until something collects it - here there is nothing left to
	// collect it with, since this runtime has no equivalent of
	// pthread_join freeing an OS-level stack out from under a parked
	// thread. Long-running hosts that create and exit very many threads
	// over their lifetime should budget for this.
}

// join implements spec.md §4.8's join(h, out_retval).
func (sched *Scheduler) join(target *tcb) (any, error) {
	if target == nil {
		return nil, newErr("join", CodeInvalidArgument)
	}

	sched.mu.Lock()
	self := sched.current
	if target == self {
		sched.mu.Unlock()
		return nil, newErr("join", CodeDeadlock)
	}
	if target.detached {
		sched.mu.Unlock()
		return nil, newErr("join", CodeInvalidArgument)
	}
	if target.joiner != nil && target.joiner != self {
		sched.mu.Unlock()
		return nil, newErr("join", CodeInvalidArgument)
	}

	for !target.exited {
		target.joiner = self
		self.waitingOn = target
		self.state = StateBlocked
		sched.schedule()
		// Re-check target.exited on resume: guards against any spurious
		// wakeup per spec.md §4.8.
	}
	self.waitingOn = nil

	retval := target.retval
	sched.table.release(target.tableSlot)
	sched.mu.Unlock()
	return retval, nil
}

// detach implements spec.md §4.8's detach(h).
func (sched *Scheduler) detach(target *tcb) error {
	sched.mu.Lock()
	defer sched.mu.Unlock()
	if target.detached {
		return newErr("detach", CodeInvalidArgument)
	}
	if target.joiner != nil {
		return newErr("detach", CodeInvalidArgument)
	}
	target.detached = true
	if target.exited {
		sched.table.release(target.tableSlot)
	}
	return nil
}

// sleep implements spec.md §4.8's sleep(ms): the §9 Open Question
// resolution adopted here is a deadline-ordered sleep queue rather than
// busy-yield, per the spec's own suggestion that this is a permitted
// refinement.
func (sched *Scheduler) sleep(durationNs int64) {
	if durationNs <= 0 {
		sched.Yield()
		return
	}
	deadline := now() + durationNs
	sched.mu.Lock()
	cur := sched.current
	sched.sleepq.add(cur, deadline)
	cur.state = StateBlocked
	sched.schedule()
	sched.mu.Unlock()
}
