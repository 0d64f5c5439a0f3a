//go:build linux

package uthread

import (
	"time"

	"golang.org/x/sys/unix"
)

// timerfdBackend backs the preemption timer with a Linux timerfd,
// grounded on the teacher's fd_unix.go/poller_linux.go use of
// golang.org/x/sys/unix for epoll readiness; here the fd being waited
// on is CLOCK_MONOTONIC timerfd rather than a socket.
type timerfdBackend struct {
	fd int
}

func newPreemptBackend(interval time.Duration) preemptBackend {
	fd, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, 0)
	if err != nil {
		return newTickerBackend(interval)
	}
	spec := unix.ItimerSpec{
		Interval: unix.NsecToTimespec(interval.Nanoseconds()),
		Value:    unix.NsecToTimespec(interval.Nanoseconds()),
	}
	if err := unix.TimerfdSettime(fd, 0, &spec, nil); err != nil {
		_ = unix.Close(fd)
		return newTickerBackend(interval)
	}
	return &timerfdBackend{fd: fd}
}

func (b *timerfdBackend) wait(stop <-chan struct{}) bool {
	buf := make([]byte, 8)
	done := make(chan struct{})
	var n int
	var err error
	go func() {
		n, err = unix.Read(b.fd, buf)
		close(done)
	}()
	select {
	case <-stop:
		_ = unix.Close(b.fd)
		return false
	case <-done:
		return err == nil && n == 8
	}
}

func (b *timerfdBackend) close() {
	_ = unix.Close(b.fd)
}
