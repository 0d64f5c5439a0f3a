// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package uthread

import "time"

// runtimeOptions holds configuration options for Runtime construction.
type runtimeOptions struct {
	policyName       PolicyName
	timeslice        time.Duration
	maxThreads       int
	defaultStackSize int
	priorityLevels   int
	logger           Logger
	metricsEnabled   bool
	preemption       bool
}

// RuntimeOption configures a Runtime instance.
type RuntimeOption interface {
	applyRuntime(*runtimeOptions) error
}

// runtimeOptionImpl implements RuntimeOption.
type runtimeOptionImpl struct {
	applyFunc func(*runtimeOptions) error
}

func (o *runtimeOptionImpl) applyRuntime(opts *runtimeOptions) error {
	return o.applyFunc(opts)
}

// WithPolicy selects the scheduling policy used by the runtime.
func WithPolicy(name PolicyName) RuntimeOption {
	return &runtimeOptionImpl{func(opts *runtimeOptions) error {
		opts.policyName = name
		return nil
	}}
}

// WithTimeslice sets the default timeslice handed to a thread when it
// becomes runnable. Must be >= 1ms; validated at Init time.
func WithTimeslice(d time.Duration) RuntimeOption {
	return &runtimeOptionImpl{func(opts *runtimeOptions) error {
		opts.timeslice = d
		return nil
	}}
}

// WithMaxThreads overrides the thread table capacity (must be in
// [1, maxThreadTableCapacity]).
func WithMaxThreads(n int) RuntimeOption {
	return &runtimeOptionImpl{func(opts *runtimeOptions) error {
		opts.maxThreads = n
		return nil
	}}
}

// WithDefaultStackSize records a default stack size in the resolved
// options. Create does not read it: a nil ThreadAttr always gets
// DefaultThreadAttr's 64 KiB stack.
func WithDefaultStackSize(n int) RuntimeOption {
	return &runtimeOptionImpl{func(opts *runtimeOptions) error {
		opts.defaultStackSize = n
		return nil
	}}
}

// WithPriorityLevels sets the number of run-queue levels the
// fixed-priority policy uses; a value outside [1, 32] selects 32.
// Thread priorities above the top level are clamped to it. DebugDump
// does not use this value.
func WithPriorityLevels(n int) RuntimeOption {
	return &runtimeOptionImpl{func(opts *runtimeOptions) error {
		opts.priorityLevels = n
		return nil
	}}
}

// WithLogger installs l as the package-level logger when the options
// are resolved; equivalent to calling SetStructuredLogger before Init.
// The logger stays installed after Shutdown.
func WithLogger(l Logger) RuntimeOption {
	return &runtimeOptionImpl{func(opts *runtimeOptions) error {
		opts.logger = l
		return nil
	}}
}

// WithMetrics records a statistics toggle in the resolved options.
// Counters are always maintained with atomics at negligible cost, and
// GetStats and DebugDump always report them; the runtime does not read
// this toggle.
func WithMetrics(enabled bool) RuntimeOption {
	return &runtimeOptionImpl{func(opts *runtimeOptions) error {
		opts.metricsEnabled = enabled
		return nil
	}}
}

// WithPreemption enables the asynchronous preemption timer (spec.md
// §4.7). Disabled by default: a purely cooperative runtime (yield-
// driven only) is a common and valid configuration, and starting a
// timer goroutine unconditionally would surprise callers who never
// asked for one.
func WithPreemption(enabled bool) RuntimeOption {
	return &runtimeOptionImpl{func(opts *runtimeOptions) error {
		opts.preemption = enabled
		return nil
	}}
}

// resolveRuntimeOptions applies RuntimeOption instances over the defaults.
func resolveRuntimeOptions(opts []RuntimeOption) (*runtimeOptions, error) {
	cfg := &runtimeOptions{
		policyName:       PolicyRoundRobin,
		timeslice:        defaultTimeslice,
		maxThreads:       maxThreadTableCapacity,
		defaultStackSize: defaultStackSize,
		priorityLevels:   priorityLevelCount,
		metricsEnabled:   true,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyRuntime(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.maxThreads <= 0 || cfg.maxThreads > maxThreadTableCapacity {
		return nil, newErr("resolveRuntimeOptions", CodeInvalidArgument)
	}
	if cfg.timeslice < time.Millisecond {
		return nil, newErr("resolveRuntimeOptions", CodeInvalidArgument)
	}
	if cfg.logger != nil {
		SetStructuredLogger(cfg.logger)
	}
	return cfg, nil
}
