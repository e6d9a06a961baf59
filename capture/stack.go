// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package capture tracks nested (cascading) intercepted calls on each
// OS thread so that call_depth can be computed and so that a group of
// cascading calls commits to the writer in entry order, all at once,
// once the outermost call returns.
package capture

import (
	"sync"

	"github.com/hpc-io/recorder/callsig"
	"github.com/hpc-io/recorder/clockid"
)

// Sink is what a finished, depth-zero group of records is handed to.
// The root recorder.Tracer implements this by calling into package
// writer.
type Sink interface {
	Commit(r *callsig.Record)
}

// threadStack is the per-thread FIFO of records that have entered but
// not yet exited, plus that thread's current depth counter.
type threadStack struct {
	depth   uint8
	pending []*callsig.Record
}

// Stacks owns one threadStack per OS thread. The map itself is
// guarded by a mutex because new threads can appear at any time, but
// the per-thread slice it protects is only ever touched by that one
// thread (spec.md §4.3): the lock is held only across the map lookup,
// never across the commit loop.
type Stacks struct {
	mu      sync.Mutex
	threads map[clockid.ThreadID]*threadStack
}

// NewStacks creates an empty set of per-thread capture stacks.
func NewStacks() *Stacks {
	return &Stacks{threads: make(map[clockid.ThreadID]*threadStack)}
}

func (s *Stacks) stackFor(tid clockid.ThreadID) *threadStack {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.threads[tid]
	if !ok {
		st = &threadStack{}
		s.threads[tid] = st
	}
	return st
}

// Enter records that r's call has begun on its thread: it sets
// r.CallDepth to the thread's current depth (so the outermost call
// gets depth 0), appends r to that thread's FIFO, and increments the
// depth counter.
func (s *Stacks) Enter(r *callsig.Record) {
	st := s.stackFor(r.TID)
	r.CallDepth = st.depth
	st.pending = append(st.pending, r)
	st.depth++
}

// Exit decrements r's thread's depth counter; if it has returned to
// zero, every record accumulated since the matching Enter is handed
// to sink in entry order and the FIFO is cleared. This is what makes
// cascading calls from one outermost call commit as a contiguous,
// entry-ordered group (spec.md §9, "cascading-call ordering").
func (s *Stacks) Exit(r *callsig.Record, sink Sink) {
	st := s.stackFor(r.TID)
	if st.depth > 0 {
		st.depth--
	}
	if st.depth != 0 {
		return
	}
	pending := st.pending
	st.pending = nil
	for _, p := range pending {
		sink.Commit(p)
	}
}
