// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package clockid provides the time and identity primitives the tracing
// core is built on: a monotonic clock, an OS thread identifier, and a
// process rank. The core never calls a wall-clock or thread-id function
// directly; it is always handed one of these through a Config, so tests
// can supply deterministic values.
package clockid

import "time"

// A Clock is a source of monotonic seconds. Real wall-clock time is
// expensive to fake in tests and its absolute value is never
// interpreted by the core (only differences are), so implementations
// only need to produce non-decreasing values for a single process.
type Clock interface {
	// Now returns the current time in seconds, with no specified
	// epoch. Successive calls from the same goroutine must be
	// non-decreasing.
	Now() float64
}

// WallClock is a Clock backed by time.Now, matching the C sources'
// recorder_wtime (MPI_Wtime/gettimeofday).
type WallClock struct{}

func (WallClock) Now() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

// Fixed is a Clock that advances by a fixed step on every call, for
// deterministic tests.
type Fixed struct {
	t    float64
	step float64
}

// NewFixed returns a Fixed clock starting at start and advancing by
// step seconds on every call to Now.
func NewFixed(start, step float64) *Fixed {
	return &Fixed{t: start - step, step: step}
}

func (f *Fixed) Now() float64 {
	f.t += f.step
	return f.t
}
