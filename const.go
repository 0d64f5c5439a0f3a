package uthread

import "time"

// Constants from the operation surface and data model (spec.md §3, §6).
const (
	maxThreadTableCapacity = 1024

	minStackSize     = 16 * 1024
	defaultStackSize = 64 * 1024
	maxStackSize     = 8 * 1024 * 1024

	maxNameLen = 31 // plus NUL terminator

	priorityLevelCount = 32
	defaultPriority    = 15
	minPriority        = 0
	maxPriority        = 31

	minNice = -20
	maxNice = 19

	defaultTimeslice = 10 * time.Millisecond
	minTimeslice     = 1 * time.Millisecond

	// Fair-policy constants (§4.6).
	fairTargetLatency  = 20 * time.Millisecond
	fairMinGranularity = 1 * time.Millisecond
	niceZeroWeight     = 1024

	idleThreadID = 0
)
