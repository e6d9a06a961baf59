// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package capture

import (
	"testing"

	"github.com/hpc-io/recorder/callsig"
)

type recordingSink struct {
	committed []*callsig.Record
}

func (s *recordingSink) Commit(r *callsig.Record) { s.committed = append(s.committed, r) }

func TestDepthAttribution(t *testing.T) {
	s := NewStacks()
	outer := &callsig.Record{TID: 1}
	s.Enter(outer)
	if outer.CallDepth != 0 {
		t.Fatalf("outer.CallDepth = %d, want 0", outer.CallDepth)
	}
	inner := &callsig.Record{TID: 1}
	s.Enter(inner)
	if inner.CallDepth != 1 {
		t.Fatalf("inner.CallDepth = %d, want 1", inner.CallDepth)
	}

	sink := &recordingSink{}
	s.Exit(inner, sink)
	if len(sink.committed) != 0 {
		t.Fatalf("committed records before outer exited: %v", sink.committed)
	}
	s.Exit(outer, sink)
	if len(sink.committed) != 2 {
		t.Fatalf("committed = %d records, want 2", len(sink.committed))
	}
	if sink.committed[0] != outer || sink.committed[1] != inner {
		t.Fatalf("commit order = %v, want [outer, inner] (entry order)", sink.committed)
	}
}

func TestThreadsAreIndependent(t *testing.T) {
	s := NewStacks()
	a := &callsig.Record{TID: 1}
	b := &callsig.Record{TID: 2}
	s.Enter(a)
	s.Enter(b)
	if a.CallDepth != 0 || b.CallDepth != 0 {
		t.Fatalf("independent threads should both start at depth 0: a=%d b=%d", a.CallDepth, b.CallDepth)
	}
	sink := &recordingSink{}
	s.Exit(a, sink)
	if len(sink.committed) != 1 {
		t.Fatalf("exiting thread 1 should not flush thread 2's stack")
	}
}
