package uthread

import "time"

// monoStart anchors now() to a monotonic origin so durations computed
// from it are immune to wall-clock adjustments, matching spec.md §6's
// requirement that timeslice and sleep accounting use a monotonic clock.
var monoStart = time.Now()

// now returns nanoseconds elapsed since runtime package initialization.
func now() int64 {
	return time.Since(monoStart).Nanoseconds()
}
