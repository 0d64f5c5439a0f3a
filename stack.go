package uthread

import "golang.org/x/sys/unix"

// allocStack reserves size bytes plus one inaccessible guard page at
// the low address, per spec.md §4.8/§5. Grounded on the teacher's use
// of golang.org/x/sys/unix for platform syscalls (fd_unix.go, poller);
// here unix.Mmap/Mprotect replace the teacher's epoll/kqueue calls as
// the concern being exercised, since this runtime's blocking I/O
// surface is the preemption timer (preempt.go), not network readiness.
//
// If guard-page mapping fails (platform restriction, mlock limits),
// allocStack falls back to a plain Go-managed byte
// slice with no guard, exactly as spec.md's create() operation
// specifies: "if guard allocation fails, fall back to a plain
// allocation."
//
// Honesty note: because each thread here is a real goroutine (see
// context.go), the Go runtime is already managing that goroutine's
// actual call stack, growing and guarding it on its own terms; nothing
// this package does can make user code execute "on" the mmap'd region
// below. allocStack still reserves and guards real memory of the
// requested size, and overflowing past the guard page still faults the
// process - it models the resource accounting and protection contract
// spec.md asks for, without claiming to redirect Go's own stack
// pointer, which the language provides no supported way to do.
type stackRegion struct {
	base      []byte // the mmap'd region including the guard page, or nil
	guard     []byte // the guard sub-slice, nil if unguarded
	usable    []byte // the part the thread's goroutine actually runs over conceptually
	guarded   bool
}

func allocStack(size int) *stackRegion {
	pageSize := unix.Getpagesize()
	total := size + pageSize
	mem, err := unix.Mmap(-1, 0, total, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return &stackRegion{usable: make([]byte, size)}
	}
	guard := mem[:pageSize]
	if err := unix.Mprotect(guard, unix.PROT_NONE); err != nil {
		_ = unix.Munmap(mem)
		return &stackRegion{usable: make([]byte, size)}
	}
	return &stackRegion{
		base:    mem,
		guard:   guard,
		usable:  mem[pageSize:],
		guarded: true,
	}
}

// free releases an mmap'd region. A plain-allocation fallback has
// nothing to release beyond letting the GC reclaim it.
func (r *stackRegion) free() {
	if r.base != nil {
		_ = unix.Munmap(r.base)
	}
}
