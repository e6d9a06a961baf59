// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package recorder is the embeddable entry point a host program's
// interception shim calls into: it wires together the clock/id
// services, the per-thread capture stack, the writer pipeline, the
// inter-process merger and the on-disk trace layout described in
// spec.md into the three calls a wrapper needs — EnterCall, ExitCall
// and, once, Finalize.
//
// Everything §1 lists as an external collaborator — binding wrappers
// to traced symbols, rendering arguments, reading environment
// variables, creating the traces directory, signal handling, and the
// real time/thread-id/collective-communication sources — is the
// host's job. Package recorder only accepts those as Config fields or
// as the clockid.Clock/transport.Transport interfaces.
package recorder

import (
	"os"

	"github.com/hpc-io/recorder/clockid"
	"github.com/hpc-io/recorder/envconfig"
	"github.com/hpc-io/recorder/internal/rlog"
	"github.com/hpc-io/recorder/merge"
	"github.com/hpc-io/recorder/transport"
)

const defaultResolution = 1e-7

// Config is the fully-populated configuration a host passes to New:
// the Go analogue of the scalar fields RecorderLogger's logger_init
// sets from getenv(), plus the injected collaborators spec.md places
// out of scope for the core (clock, transport, traces directory).
type Config struct {
	// Clock supplies monotonic seconds; defaults to clockid.WallClock
	// if nil.
	Clock clockid.Clock
	// Transport is the collective-communication collaborator Finalize
	// runs the inter-process merge over; defaults to transport.Local{}
	// (single-process mode, RECORDER_WITH_NON_MPI's effect) if nil.
	Transport transport.Transport
	// TracesDir is the directory Finalize writes the trace to. The
	// host is responsible for creating it (§1); New fails closed
	// (disables tracing, never aborts) if it is not writable.
	TracesDir string

	TimeResolution                 float64
	TimeCompression                bool
	CaptureTID                     bool
	CaptureCallDepth               bool
	InterprocessCompression        bool
	InterprocessPatternRecognition []merge.PatternTarget
	IntraprocessPatternRecognition []merge.PatternTarget

	TracedPOSIX, TracedMPI, TracedHDF5 bool
}

// FromEnv builds a Config from an envconfig.Config (itself parsed from
// process environment by the host, per SPEC_FULL.md §1's boundary:
// envconfig never touches os.Getenv directly). Clock, Transport and
// the pattern-recognition target lists are not environment-derived
// (spec.md §6 only turns the feature on or off; naming the target
// functions is left to the host) and must be set by the caller
// afterward.
func FromEnv(ec envconfig.Config) Config {
	// ec.WithNonMPI governs whether the host wires up a real
	// transport.Transport before calling New; Config.Transport stays
	// nil here regardless; normalize() only falls back to
	// transport.Local when the host leaves it nil.
	return Config{
		TracesDir:               ec.TracesDir,
		TimeResolution:          ec.TimeResolution,
		TimeCompression:         ec.TimeCompression,
		CaptureTID:              ec.StoreTID,
		CaptureCallDepth:        ec.StoreCallDepth,
		InterprocessCompression: ec.InterprocessCompression,
	}
}

// normalize applies spec.md §7's configuration-error policy: an
// invalid resolution falls back to the default (logged, not fatal)
// and a missing Clock/Transport fall back to the single-process
// defaults. It never fails.
func (c Config) normalize() Config {
	if c.TimeResolution <= 0 {
		rlog.Printf("invalid time resolution %v, falling back to %v", c.TimeResolution, defaultResolution)
		c.TimeResolution = defaultResolution
	}
	if c.Clock == nil {
		c.Clock = clockid.WallClock{}
	}
	if c.Transport == nil {
		c.Transport = transport.Local{}
	}
	return c
}

// checkTracesDir reports whether dir looks writable, per spec.md §7's
// "unwritable traces directory" configuration error: tracing disables
// itself for this process rather than aborting the host.
func checkTracesDir(dir string) error {
	if dir == "" {
		return nil // host will supply one before Finalize; not an error at New time.
	}
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return os.ErrInvalid
	}
	probe, err := os.CreateTemp(dir, ".recorder-probe-*")
	if err != nil {
		return err
	}
	name := probe.Name()
	probe.Close()
	return os.Remove(name)
}
