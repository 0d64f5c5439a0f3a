package uthread

// MutexType selects one of the three lock disciplines spec.md §4.9
// requires.
type MutexType int32

const (
	// MutexNormal deadlocks (blocks forever) on self-relock, matching
	// spec.md's "implementation-defined deadlock" for the normal type.
	MutexNormal MutexType = iota
	// MutexRecursive allows the owner to relock, tracking a recursion
	// count.
	MutexRecursive
	// MutexErrorCheck returns CodeDeadlock on self-relock and
	// CodePermission on unlock by a non-owner.
	MutexErrorCheck
)

// Mutex implements spec.md §4.9. The waiter queue is allocated lazily,
// under the scheduler lock, on the first Lock, TryLock or Unlock. A
// Mutex must come from NewMutex: the methods read the mutex's runtime
// before initializing anything, so calling them on a zero Mutex panics
// with a nil dereference.
type Mutex struct {
	rt       *Runtime
	kind     MutexType
	owner    *tcb
	count    int32
	waiters  *waitQueue
	destroyed bool
}

// NewMutex constructs a mutex of the given type against the default
// runtime.
func NewMutex(kind MutexType) (*Mutex, error) {
	rt, err := currentRuntime()
	if err != nil {
		return nil, err
	}
	return &Mutex{rt: rt, kind: kind}, nil
}

func (m *Mutex) ensureInit() {
	if m.waiters == nil {
		m.waiters = &waitQueue{}
	}
	if m.rt == nil {
		m.rt, _ = currentRuntime()
	}
}

// Lock implements spec.md §4.9's lock operation.
func (m *Mutex) Lock() error {
	sched := m.rt.sched
	sched.mu.Lock()
	m.ensureInit()
	sched.honorPendingPreempt()

	self := sched.current
	for {
		if m.owner == self {
			switch m.kind {
			case MutexRecursive:
				m.count++
				sched.mu.Unlock()
				return nil
			case MutexErrorCheck:
				sched.mu.Unlock()
				return newErr("Mutex.Lock", CodeDeadlock)
			default: // MutexNormal: block forever, per spec.
				sched.block(m.waiters)
				continue
			}
		}
		if m.owner == nil {
			m.owner = self
			m.count = 1
			sched.mu.Unlock()
			return nil
		}
		sched.block(m.waiters)
		// Re-acquire and retry the claim protocol on resume.
	}
}

// TryLock implements spec.md §4.9's trylock operation: same ownership
// rules as Lock but never blocks.
func (m *Mutex) TryLock() error {
	sched := m.rt.sched
	sched.mu.Lock()
	defer sched.mu.Unlock()
	m.ensureInit()

	self := sched.current
	if m.owner == self {
		switch m.kind {
		case MutexRecursive:
			m.count++
			return nil
		case MutexErrorCheck:
			return newErr("Mutex.TryLock", CodeBusy)
		default:
			return newErr("Mutex.TryLock", CodeBusy)
		}
	}
	if m.owner == nil {
		m.owner = self
		m.count = 1
		return nil
	}
	return newErr("Mutex.TryLock", CodeBusy)
}

// Unlock implements spec.md §4.9's unlock operation.
func (m *Mutex) Unlock() error {
	sched := m.rt.sched
	sched.mu.Lock()
	defer sched.mu.Unlock()
	m.ensureInit()

	self := sched.current
	if m.kind == MutexErrorCheck && m.owner != self {
		return newErr("Mutex.Unlock", CodePermission)
	}
	if m.owner != self {
		return newErr("Mutex.Unlock", CodePermission)
	}
	if m.kind == MutexRecursive {
		m.count--
		if m.count > 0 {
			return nil
		}
	}
	m.owner = nil
	m.count = 0
	sched.wakeOne(m.waiters)
	return nil
}

// Destroy implements spec.md §4.9's destroy operation.
func (m *Mutex) Destroy() error {
	sched := m.rt.sched
	sched.mu.Lock()
	defer sched.mu.Unlock()
	if m.owner != nil || (m.waiters != nil && !m.waiters.empty()) {
		return newErr("Mutex.Destroy", CodeBusy)
	}
	m.destroyed = true
	return nil
}
