package uthread

// Sem implements spec.md §4.11's counting semaphore.
type Sem struct {
	rt        *Runtime
	value     int64
	waiters   *waitQueue
	destroyed bool
}

// NewSem constructs a semaphore with the given initial value.
func NewSem(initial int64) (*Sem, error) {
	rt, err := currentRuntime()
	if err != nil {
		return nil, err
	}
	return &Sem{rt: rt, value: initial}, nil
}

func (s *Sem) ensureInit() {
	if s.waiters == nil {
		s.waiters = &waitQueue{}
	}
	if s.rt == nil {
		s.rt, _ = currentRuntime()
	}
}

// Wait implements spec.md §4.11's wait: block while value <= 0.
func (s *Sem) Wait() error {
	sched := s.rt.sched
	sched.mu.Lock()
	s.ensureInit()
	sched.honorPendingPreempt()
	for s.value <= 0 {
		sched.block(s.waiters)
	}
	s.value--
	sched.mu.Unlock()
	return nil
}

// TryWait implements spec.md §4.11's trywait: never blocks.
func (s *Sem) TryWait() error {
	sched := s.rt.sched
	sched.mu.Lock()
	defer sched.mu.Unlock()
	s.ensureInit()
	if s.value <= 0 {
		return newErr("Sem.TryWait", CodeTryAgain)
	}
	s.value--
	return nil
}

// TimedWait implements spec.md §4.11's timedwait: aborts with
// CodeTimedOut if deadlineNs (absolute, per now()) passes first,
// ensuring removal from the waiter queue either way.
func (s *Sem) TimedWait(deadlineNs int64) error {
	sched := s.rt.sched
	sched.mu.Lock()
	s.ensureInit()
	self := sched.current

	for s.value <= 0 {
		sched.sleepq.add(self, deadlineNs)
		sched.block(s.waiters)

		// By the time self resumes it is already unlinked from
		// s.waiters either way: Post's wakeOne does it directly, and
		// Scheduler.unblock does it defensively when wakeDueSleepers
		// gets there first. So membership in s.waiters can no longer
		// tell us which happened; sleepq.cancel can, since only one of
		// Post/wakeDueSleepers ever runs first under sched.mu and
		// wakeDueSleepers consumes the sleep entry itself. If the
		// entry is still pending, the deadline never fired and Post is
		// what woke us - the wakeup is authoritative, per spec.md §9's
		// resolution of the timed-wait race.
		if !sched.sleepq.cancel(self) {
			sched.mu.Unlock()
			return newErr("Sem.TimedWait", CodeTimedOut)
		}
		// Woken by Post: loop to recheck value, per spec.md §4.11.
	}
	s.value--
	sched.mu.Unlock()
	return nil
}

// Post implements spec.md §4.11's post: increment value, wake one
// waiter.
func (s *Sem) Post() error {
	sched := s.rt.sched
	sched.mu.Lock()
	defer sched.mu.Unlock()
	s.ensureInit()
	s.value++
	sched.wakeOne(s.waiters)
	return nil
}

// GetValue implements spec.md §4.11's getvalue: a snapshot under the
// critical section.
func (s *Sem) GetValue() int64 {
	sched := s.rt.sched
	sched.mu.Lock()
	defer sched.mu.Unlock()
	return s.value
}

// Destroy implements spec.md §4.11's destroy: fails if waiters
// non-empty.
func (s *Sem) Destroy() error {
	sched := s.rt.sched
	sched.mu.Lock()
	defer sched.mu.Unlock()
	if s.waiters != nil && !s.waiters.empty() {
		return newErr("Sem.Destroy", CodeBusy)
	}
	s.destroyed = true
	return nil
}
