//go:build darwin

package uthread

import (
	"time"

	"golang.org/x/sys/unix"
)

// kqueueBackend backs the preemption timer with a kqueue EVFILT_TIMER,
// grounded on the teacher's poller_darwin.go/wakeup_darwin.go kqueue
// usage, repurposing the same event source for a timer instead of
// socket/pipe readiness.
type kqueueBackend struct {
	kq int
}

func newPreemptBackend(interval time.Duration) preemptBackend {
	kq, err := unix.Kqueue()
	if err != nil {
		return newTickerBackend(interval)
	}
	ev := unix.Kevent_t{
		Ident:  1,
		Filter: unix.EVFILT_TIMER,
		Flags:  unix.EV_ADD | unix.EV_ENABLE,
		Data:   interval.Milliseconds(),
	}
	if _, err := unix.Kevent(kq, []unix.Kevent_t{ev}, nil, nil); err != nil {
		_ = unix.Close(kq)
		return newTickerBackend(interval)
	}
	return &kqueueBackend{kq: kq}
}

func (b *kqueueBackend) wait(stop <-chan struct{}) bool {
	events := make([]unix.Kevent_t, 1)
	done := make(chan bool)
	go func() {
		n, err := unix.Kevent(b.kq, nil, events, nil)
		done <- err == nil && n > 0
	}()
	select {
	case <-stop:
		return false
	case ok := <-done:
		return ok
	}
}

func (b *kqueueBackend) close() {
	_ = unix.Close(b.kq)
}
