package uthread

// Cond implements spec.md §4.10's condition variable. Like Mutex, the
// waiter queue is lazily allocated on first use, and a Cond must come
// from NewCond: calling its methods on a zero Cond panics with a nil
// dereference.
type Cond struct {
	rt       *Runtime
	waiters  *waitQueue
	sequence uint64
	destroyed bool
}

func NewCond() (*Cond, error) {
	rt, err := currentRuntime()
	if err != nil {
		return nil, err
	}
	return &Cond{rt: rt}, nil
}

func (c *Cond) ensureInit() {
	if c.waiters == nil {
		c.waiters = &waitQueue{}
	}
	if c.rt == nil {
		c.rt, _ = currentRuntime()
	}
}

// Wait implements spec.md §4.10's wait(cv, mtx). Precondition: mtx is
// owned by the calling thread.
func (c *Cond) Wait(mtx *Mutex) error {
	sched := c.rt.sched
	sched.mu.Lock()
	c.ensureInit()

	self := sched.current
	if mtx.owner != self {
		sched.mu.Unlock()
		return newErr("Cond.Wait", CodePermission)
	}

	c.waiters.add(self)
	releaseMutexLocked(mtx, sched)
	self.state = StateBlocked
	sched.schedule()
	sched.mu.Unlock()

	return reacquireMutex(mtx)
}

// TimedWait implements spec.md §4.10's timedwait(cv, mtx, abs_deadline):
// as Wait, but removes itself and returns timed-out if deadlineNs
// (absolute, per now()) passes before being signaled.
func (c *Cond) TimedWait(mtx *Mutex, deadlineNs int64) error {
	sched := c.rt.sched
	sched.mu.Lock()
	c.ensureInit()

	self := sched.current
	if mtx.owner != self {
		sched.mu.Unlock()
		return newErr("Cond.TimedWait", CodePermission)
	}

	c.waiters.add(self)
	releaseMutexLocked(mtx, sched)
	self.state = StateBlocked
	sched.sleepq.add(self, deadlineNs)
	sched.schedule()

	// By the time self resumes it is already unlinked from c.waiters
	// either way: Signal/Broadcast's wakeOne does it directly, and
	// Scheduler.unblock does it defensively when wakeDueSleepers gets
	// there first. So c.waiters membership can no longer distinguish
	// the two; sleepq.cancel can, since wakeDueSleepers consumes the
	// sleep entry itself before waking self, while Signal/Broadcast
	// leaves it pending. A still-pending entry means the deadline
	// never fired and the signal is authoritative, per spec.md §9's
	// resolution of the timed-wait race.
	expired := !sched.sleepq.cancel(self)
	sched.mu.Unlock()

	if err := reacquireMutex(mtx); err != nil {
		return err
	}
	if expired {
		return newErr("Cond.TimedWait", CodeTimedOut)
	}
	return nil
}

// Signal implements spec.md §4.10's signal: increment sequence, wake
// one waiter.
func (c *Cond) Signal() error {
	sched := c.rt.sched
	sched.mu.Lock()
	defer sched.mu.Unlock()
	c.ensureInit()
	c.sequence++
	sched.wakeOne(c.waiters)
	return nil
}

// Broadcast implements spec.md §4.10's broadcast: increment sequence,
// wake all waiters.
func (c *Cond) Broadcast() error {
	sched := c.rt.sched
	sched.mu.Lock()
	defer sched.mu.Unlock()
	c.ensureInit()
	c.sequence++
	sched.wakeAll(c.waiters)
	return nil
}

// Destroy implements spec.md §4.10's destroy: fails if waiters
// non-empty.
func (c *Cond) Destroy() error {
	sched := c.rt.sched
	sched.mu.Lock()
	defer sched.mu.Unlock()
	if c.waiters != nil && !c.waiters.empty() {
		return newErr("Cond.Destroy", CodeBusy)
	}
	c.destroyed = true
	return nil
}

// releaseMutexLocked releases mtx on behalf of a condvar wait, waking
// one of its waiters if present. Caller holds sched.mu.
func releaseMutexLocked(mtx *Mutex, sched *Scheduler) {
	mtx.ensureInit()
	if mtx.kind == MutexRecursive {
		mtx.count = 0
	}
	mtx.owner = nil
	sched.wakeOne(mtx.waiters)
}

// reacquireMutex loops the same claim/block protocol Lock uses,
// per spec.md §4.10's "reacquire mtx (loop over the same claim/block
// protocol)".
func reacquireMutex(mtx *Mutex) error {
	return mtx.Lock()
}
