// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recorder

import (
	"context"
	"fmt"
	"sync"

	"github.com/hpc-io/recorder/callsig"
	"github.com/hpc-io/recorder/capture"
	"github.com/hpc-io/recorder/clockid"
	"github.com/hpc-io/recorder/internal/rlog"
	"github.com/hpc-io/recorder/merge"
	"github.com/hpc-io/recorder/sequitur"
	"github.com/hpc-io/recorder/trace"
	"github.com/hpc-io/recorder/writer"
)

// symbolArgIndex is the argument index a wrapper is expected to put a
// user function's demangleable symbol name at when it records a call
// under trace.UserFunc, mirroring __cyg_profile_func_exit's
// record->args[1] = info.dli_sname in the C sources
// (lib/recorder-function-profiler.c): args[0] is the enclosing
// binary/library name, args[1] is the symbol.
const symbolArgIndex = 1

// Tracer is one process's tracing state: the per-thread capture
// stacks, the writer pipeline they feed, and the configuration
// Finalize needs to merge and persist a trace. The zero value is not
// usable; construct one with New.
type Tracer struct {
	cfg   Config
	clock clockid.Clock

	stacks *capture.Stacks
	w      *writer.Writer

	start float64

	mu        sync.Mutex
	disabled  bool
	userFuncs []string
	seenFuncs map[string]bool

	finalizeOnce sync.Once
}

// New creates a Tracer from cfg. Per spec.md §7, a configuration
// problem (bad resolution, unwritable traces directory) never
// prevents the host from running: New falls back to defaults where
// it can and otherwise returns a Tracer with tracing disabled, so
// every wrapper call becomes a no-op that forwards straight to the
// real library call.
func New(cfg Config) *Tracer {
	cfg = cfg.normalize()

	tr := &Tracer{
		cfg:       cfg,
		clock:     cfg.Clock,
		stacks:    capture.NewStacks(),
		seenFuncs: make(map[string]bool),
	}
	tr.start = tr.clock.Now()

	if err := checkTracesDir(cfg.TracesDir); err != nil {
		rlog.Printf("traces directory %q not usable, disabling tracing for this process: %v", cfg.TracesDir, err)
		tr.disabled = true
		return tr
	}

	cst := callsig.New(cfg.Transport.Rank())
	grammar := sequitur.New(-1, true)
	tr.w = writer.New(cst, grammar, cfg.TimeResolution, writer.Config{
		CaptureTID:   cfg.CaptureTID,
		CaptureDepth: cfg.CaptureCallDepth,
	})
	return tr
}

// Disabled reports whether tracing is off for this process (either
// because New failed a configuration check or because Finalize has
// already run).
func (tr *Tracer) Disabled() bool {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.disabled
}

// EnterCall records that a call to funcID has begun on the calling
// goroutine's OS thread. tid should identify the real OS thread (the
// host's interception shim owns that lookup; spec.md places it out of
// scope for the core), and args are the already-rendered argument
// strings (rendering them is likewise the host's job, per §1). The
// returned token must be passed to ExitCall once the real call
// returns; it is nil if tracing is disabled, in which case ExitCall is
// a safe no-op.
func (tr *Tracer) EnterCall(tid clockid.ThreadID, funcID uint8, args []string) *callsig.Record {
	if tr.Disabled() {
		return nil
	}
	r := &callsig.Record{
		TStart: tr.clock.Now(),
		FuncID: funcID,
		TID:    tid,
		Args:   args,
	}
	tr.stacks.Enter(r)
	return r
}

// ExitCall records that the real call behind r has returned. It must
// be called even if the real call panicked (the host's wrapper is
// expected to bracket the real call in a defer/recover scope guard,
// per spec.md §4.3, so a dangling capture-stack entry never survives
// a panicking wrapper).
func (tr *Tracer) ExitCall(r *callsig.Record) {
	if r == nil || tr.Disabled() {
		return
	}
	r.TEnd = tr.clock.Now()
	tr.stacks.Exit(r, commitFunc(tr.commit))
}

type commitFunc func(*callsig.Record)

func (f commitFunc) Commit(r *callsig.Record) { f(r) }

// commit is capture.Sink's callback: it forwards to the writer and,
// for a user-function record, remembers its symbol name for the
// metadata header's function-name list.
func (tr *Tracer) commit(r *callsig.Record) {
	if r.FuncID == trace.UserFunc && len(r.Args) > symbolArgIndex {
		sym := r.Args[symbolArgIndex]
		tr.mu.Lock()
		if !tr.seenFuncs[sym] {
			tr.seenFuncs[sym] = true
			tr.userFuncs = append(tr.userFuncs, sym)
		}
		tr.mu.Unlock()
	}
	tr.w.Commit(r)
}

// Finalize runs the inter-process merge (if configured), persists the
// trace to cfg.TracesDir and disables further tracing. It must be
// called exactly once, with every thread's capture quiesced first
// (spec.md §5: "the entire merge run at finalize with the writer
// quiescent"); Finalize itself does not wait for in-flight calls.
//
// I/O and protocol errors are returned rather than panicking, except
// for Sequitur invariant violations inside package sequitur/merge,
// which panic per §7's "invariant violations... must abort" — a
// caller that wants crash-only semantics for those can let the panic
// propagate.
func (tr *Tracer) Finalize(ctx context.Context) error {
	var err error
	tr.finalizeOnce.Do(func() {
		err = tr.finalize(ctx)
	})
	return err
}

func (tr *Tracer) finalize(ctx context.Context) error {
	tr.mu.Lock()
	if tr.disabled {
		tr.mu.Unlock()
		return nil
	}
	tr.disabled = true
	userFuncs := append([]string(nil), tr.userFuncs...)
	tr.mu.Unlock()

	cst, grammar, ts := tr.w.Freeze()

	for _, target := range tr.cfg.IntraprocessPatternRecognition {
		newCST, remap, changed := merge.IntraprocessPatternRecognize(cst, target.FuncID, target.OffsetArgIndex)
		if changed {
			grammar.Update(remap)
			cst = newCST
		}
	}

	t := tr.cfg.Transport
	meta := &trace.Metadata{
		StartTimestamp:                 tr.start,
		TotalRanks:                     int32(t.Size()),
		TimeResolution:                 tr.cfg.TimeResolution,
		TimeCompression:                tr.cfg.TimeCompression,
		InterprocessCompression:        tr.cfg.InterprocessCompression,
		InterprocessPatternRecognition: len(tr.cfg.InterprocessPatternRecognition) > 0,
		IntraprocessPatternRecognition: len(tr.cfg.IntraprocessPatternRecognition) > 0,
		CaptureTID:                     tr.cfg.CaptureTID,
		CaptureCallDepth:               tr.cfg.CaptureCallDepth,
		TracedPOSIX:                    tr.cfg.TracedPOSIX,
		TracedMPI:                      tr.cfg.TracedMPI,
		TracedHDF5:                     tr.cfg.TracedHDF5,
		UserFuncs:                      userFuncs,
	}

	meta.TSBufferSize = int32(ts.Len())

	local := trace.LocalArtifacts{Rank: t.Rank()}
	var mergedArtifacts *trace.MergedArtifacts

	if tr.cfg.InterprocessCompression {
		result, err := merge.Run(ctx, t, cst, grammar, merge.Config{
			PatternTargets: tr.cfg.InterprocessPatternRecognition,
			DedupeGrammars: true,
		})
		if err != nil {
			return fmt.Errorf("recorder: inter-process merge: %w", err)
		}
		if t.Rank() == 0 {
			mergedArtifacts = &trace.MergedArtifacts{GlobalCST: result.GlobalCST, Unique: result.Unique}
		}
	} else {
		serialized, err := grammar.Serialize()
		if err != nil {
			return fmt.Errorf("recorder: serializing grammar: %w", err)
		}
		local.CST = cst
		local.CFG = serialized
	}

	payload, err := ts.Payload(tr.cfg.TimeCompression)
	if err != nil {
		return fmt.Errorf("recorder: compressing timestamp payload: %w", err)
	}
	local.TSPayload = payload

	if err := trace.WriteAll(ctx, t, tr.cfg.TracesDir, meta, local, mergedArtifacts); err != nil {
		rlog.Printf("finalize: %v", err)
		return fmt.Errorf("recorder: writing trace: %w", err)
	}

	cst.Free()
	grammar.Cleanup()
	return nil
}
