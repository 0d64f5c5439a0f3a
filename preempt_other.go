//go:build !linux && !darwin

package uthread

import "time"

func newPreemptBackend(interval time.Duration) preemptBackend {
	return newTickerBackend(interval)
}
