package uthread

// RWLock implements spec.md §4.12's writer-preferring read-write lock.
type RWLock struct {
	rt             *Runtime
	readers        int32
	writer         bool
	writerOwner    *tcb
	pendingWriters int32
	readerWaiters  *waitQueue
	writerWaiters  *waitQueue
	destroyed      bool
}

// NewRWLock constructs an unheld read-write lock.
func NewRWLock() (*RWLock, error) {
	rt, err := currentRuntime()
	if err != nil {
		return nil, err
	}
	return &RWLock{rt: rt}, nil
}

func (l *RWLock) ensureInit() {
	if l.readerWaiters == nil {
		l.readerWaiters = &waitQueue{}
	}
	if l.writerWaiters == nil {
		l.writerWaiters = &waitQueue{}
	}
	if l.rt == nil {
		l.rt, _ = currentRuntime()
	}
}

// RLock implements spec.md §4.12's rdlock.
func (l *RWLock) RLock() error {
	sched := l.rt.sched
	sched.mu.Lock()
	l.ensureInit()
	sched.honorPendingPreempt()
	for l.writer || l.pendingWriters > 0 {
		sched.block(l.readerWaiters)
	}
	l.readers++
	sched.mu.Unlock()
	return nil
}

// TryRLock implements spec.md §4.12's tryrdlock.
func (l *RWLock) TryRLock() error {
	sched := l.rt.sched
	sched.mu.Lock()
	defer sched.mu.Unlock()
	l.ensureInit()
	if l.writer || l.pendingWriters > 0 {
		return newErr("RWLock.TryRLock", CodeBusy)
	}
	l.readers++
	return nil
}

// WLock implements spec.md §4.12's wrlock.
func (l *RWLock) WLock() error {
	sched := l.rt.sched
	sched.mu.Lock()
	l.ensureInit()
	sched.honorPendingPreempt()
	l.pendingWriters++
	for l.readers > 0 || l.writer {
		sched.block(l.writerWaiters)
	}
	l.pendingWriters--
	l.writer = true
	l.writerOwner = sched.current
	sched.mu.Unlock()
	return nil
}

// TryWLock implements spec.md §4.12's trywrlock.
func (l *RWLock) TryWLock() error {
	sched := l.rt.sched
	sched.mu.Lock()
	defer sched.mu.Unlock()
	l.ensureInit()
	if l.readers > 0 || l.writer || l.pendingWriters > 0 {
		return newErr("RWLock.TryWLock", CodeBusy)
	}
	l.writer = true
	l.writerOwner = sched.current
	return nil
}

// Unlock implements spec.md §4.12's unlock: writer-preferring wakeup
// order (one writer if any is waiting, else all readers), permission
// error for a caller holding neither mode.
func (l *RWLock) Unlock() error {
	sched := l.rt.sched
	sched.mu.Lock()
	defer sched.mu.Unlock()
	l.ensureInit()
	self := sched.current

	if l.writer && l.writerOwner == self {
		l.writer = false
		l.writerOwner = nil
		if !l.writerWaiters.empty() {
			sched.wakeOne(l.writerWaiters)
		} else {
			sched.wakeAll(l.readerWaiters)
		}
		return nil
	}

	if l.readers > 0 {
		l.readers--
		if l.readers == 0 {
			sched.wakeOne(l.writerWaiters)
		}
		return nil
	}

	return newErr("RWLock.Unlock", CodePermission)
}

// Destroy implements spec.md §4.12's destroy: fails if held or queues
// non-empty.
func (l *RWLock) Destroy() error {
	sched := l.rt.sched
	sched.mu.Lock()
	defer sched.mu.Unlock()
	if l.writer || l.readers > 0 || l.pendingWriters > 0 {
		return newErr("RWLock.Destroy", CodeBusy)
	}
	if (l.readerWaiters != nil && !l.readerWaiters.empty()) || (l.writerWaiters != nil && !l.writerWaiters.empty()) {
		return newErr("RWLock.Destroy", CodeBusy)
	}
	l.destroyed = true
	return nil
}
