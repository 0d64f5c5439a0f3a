package uthread

import (
	"sync"
	"time"
)

// Runtime is the public handle to an initialized userspace threading
// runtime, wrapping a Scheduler plus the calling goroutine's own "main"
// thread bootstrap. Init returns the Runtime it installs as the
// package-level default; the package's free functions (Create, Yield,
// Sleep, ...) all operate on that default, and only one Runtime is
// installed at a time.
type Runtime struct {
	sched *Scheduler
	main  *tcb
}

var (
	defaultMu      sync.Mutex
	defaultRuntime *Runtime
)

// Init creates and installs the package-level default runtime. It must
// be called by the goroutine that will act as the runtime's "main"
// thread: that goroutine becomes thread ID equal to the first
// allocated ID and runs on its own native stack without a guard page,
// per spec.md §5.
func Init(opts ...RuntimeOption) (*Runtime, error) {
	cfg, err := resolveRuntimeOptions(opts)
	if err != nil {
		return nil, err
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultRuntime != nil {
		return nil, newErr("Init", CodeInvalidArgument)
	}

	rt := newRuntime(cfg)
	defaultRuntime = rt
	return rt, nil
}

func newRuntime(cfg *runtimeOptions) *Runtime {
	sched := newScheduler(cfg)

	main := &tcb{
		id:        allocThreadID(),
		name:      "main",
		state:     StateRunning,
		ctx:       newGoContext(),
		priority:  defaultPriority,
		heapIndex: -1,
	}
	slot, _ := sched.table.insert(main)
	main.tableSlot = slot
	main.startTime = now()

	// Bootstrap: main becomes current directly, bypassing the normal
	// schedule()/switchContext handoff, because nothing has run yet and
	// there is no prior "prev" goroutine to park.
	sched.current = main

	if cfg.preemption {
		sched.timer = newPreemptTimer(sched, cfg.timeslice)
		sched.timer.start()
	}

	return &Runtime{sched: sched, main: main}
}

// Shutdown tears down the package-level default runtime.
func Shutdown() error {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultRuntime == nil {
		return newErr("Shutdown", CodeInvalidArgument)
	}
	defaultRuntime.sched.shutdown()
	defaultRuntime = nil
	return nil
}

// IsInitialized reports whether the default runtime is installed.
func IsInitialized() bool {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultRuntime != nil
}

// GetPolicy reports the default runtime's active scheduling policy.
func GetPolicy() (PolicyName, error) {
	rt, err := currentRuntime()
	if err != nil {
		return 0, err
	}
	return rt.sched.policyName, nil
}

func currentRuntime() (*Runtime, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultRuntime == nil {
		return nil, newErr("currentRuntime", CodeInvalidArgument)
	}
	return defaultRuntime, nil
}

// Handle identifies a created thread; returned by Create, consumed by
// Join/Detach and the thread-local accessors.
type Handle struct {
	t *tcb
}

// Create spawns a new user thread, per spec.md §4.8/§6.
func Create(attr *ThreadAttr, entry EntryFunc, arg any) (Handle, error) {
	rt, err := currentRuntime()
	if err != nil {
		return Handle{}, err
	}
	t, err := rt.sched.create(attr, entry, arg)
	if err != nil {
		return Handle{}, err
	}
	return Handle{t: t}, nil
}

// Join blocks until h's thread exits, returning its retval.
func Join(h Handle) (any, error) {
	rt, err := currentRuntime()
	if err != nil {
		return nil, err
	}
	return rt.sched.join(h.t)
}

// Detach marks h's thread so its resources are reclaimed automatically
// on exit, forfeiting the ability to Join it.
func Detach(h Handle) error {
	rt, err := currentRuntime()
	if err != nil {
		return err
	}
	return rt.sched.detach(h.t)
}

// Yield gives up the remainder of the calling thread's timeslice.
func Yield() error {
	rt, err := currentRuntime()
	if err != nil {
		return err
	}
	rt.sched.Yield()
	return nil
}

// Sleep blocks the calling thread for at least d.
func Sleep(d time.Duration) error {
	rt, err := currentRuntime()
	if err != nil {
		return err
	}
	rt.sched.sleep(d.Nanoseconds())
	return nil
}

// Self returns a Handle to the calling thread.
func Self() (Handle, error) {
	rt, err := currentRuntime()
	if err != nil {
		return Handle{}, err
	}
	rt.sched.mu.Lock()
	cur := rt.sched.current
	rt.sched.mu.Unlock()
	return Handle{t: cur}, nil
}

// Equal reports whether two handles refer to the same thread.
func Equal(a, b Handle) bool { return a.t == b.t }

// GetTID returns h's externally visible thread ID.
func GetTID(h Handle) int64 { return h.t.id }

// SetName/GetName implement spec.md §6's name accessors.
func SetName(h Handle, name string) error {
	if len([]rune(name)) > maxNameLen {
		return newErr("SetName", CodeInvalidArgument)
	}
	rt, err := currentRuntime()
	if err != nil {
		return err
	}
	rt.sched.mu.Lock()
	defer rt.sched.mu.Unlock()
	h.t.name = name
	return nil
}

func GetName(h Handle) string { return h.t.name }

// SetPriority/GetPriority/SetNice/GetNice implement spec.md §6's
// dynamic priority/nice changes.
func SetPriority(h Handle, priority int32) error {
	if priority < minPriority || priority > maxPriority {
		return newErr("SetPriority", CodeInvalidArgument)
	}
	rt, err := currentRuntime()
	if err != nil {
		return err
	}
	rt.sched.mu.Lock()
	defer rt.sched.mu.Unlock()
	h.t.priority = priority
	rt.sched.policy.updatePriority(h.t)
	return nil
}

func GetPriority(h Handle) int32 { return h.t.priority }

func SetNice(h Handle, nice int32) error {
	if nice < minNice || nice > maxNice {
		return newErr("SetNice", CodeInvalidArgument)
	}
	rt, err := currentRuntime()
	if err != nil {
		return err
	}
	rt.sched.mu.Lock()
	defer rt.sched.mu.Unlock()
	h.t.nice = nice
	h.t.weight = 0 // recomputed lazily by the fair policy
	rt.sched.policy.updatePriority(h.t)
	return nil
}

func GetNice(h Handle) int32 { return h.t.nice }

// SetTimeslice/GetTimeslice implement spec.md §6's scheduler-control
// timeslice accessors.
func SetTimeslice(d time.Duration) error {
	rt, err := currentRuntime()
	if err != nil {
		return err
	}
	if d < minTimeslice {
		return newErr("SetTimeslice", CodeInvalidArgument)
	}
	rt.sched.mu.Lock()
	defer rt.sched.mu.Unlock()
	rt.sched.timeslice = d.Nanoseconds()
	return nil
}

func GetTimeslice() (time.Duration, error) {
	rt, err := currentRuntime()
	if err != nil {
		return 0, err
	}
	rt.sched.mu.Lock()
	defer rt.sched.mu.Unlock()
	return time.Duration(rt.sched.timeslice), nil
}

// EnablePreemption/DisablePreemption toggle the preemption-enabled flag
// without stopping the underlying timer.
func EnablePreemption() error {
	rt, err := currentRuntime()
	if err != nil {
		return err
	}
	rt.sched.mu.Lock()
	defer rt.sched.mu.Unlock()
	rt.sched.preemptEnabled = true
	return nil
}

func DisablePreemption() error {
	rt, err := currentRuntime()
	if err != nil {
		return err
	}
	rt.sched.mu.Lock()
	defer rt.sched.mu.Unlock()
	rt.sched.preemptEnabled = false
	return nil
}

// GetStats/ResetStats expose the statistics group of spec.md §6.
func GetStats() (Stats, error) {
	rt, err := currentRuntime()
	if err != nil {
		return Stats{}, err
	}
	return rt.sched.Stats(), nil
}

func ResetStats() error {
	rt, err := currentRuntime()
	if err != nil {
		return err
	}
	rt.sched.ResetStats()
	return nil
}

// DebugDump renders a diagnostic snapshot of the default runtime.
func DebugDump() (string, error) {
	rt, err := currentRuntime()
	if err != nil {
		return "", err
	}
	return rt.sched.DebugDump(), nil
}

// CheckPreempt is the cooperative preemption safe point documented on
// goContext: long-running computation that never otherwise calls into
// this package can call CheckPreempt periodically to give the
// preemption timer's pending request somewhere to be honored.
func CheckPreempt() error {
	rt, err := currentRuntime()
	if err != nil {
		return err
	}
	rt.sched.mu.Lock()
	rt.sched.honorPendingPreempt()
	rt.sched.mu.Unlock()
	return nil
}
