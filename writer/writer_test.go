// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package writer

import (
	"testing"

	"github.com/hpc-io/recorder/callsig"
	"github.com/hpc-io/recorder/sequitur"
)

func newTestWriter(cfg Config) *Writer {
	return New(callsig.New(0), sequitur.New(-1, true), 1e-7, cfg)
}

func TestCommitInternsAndAppends(t *testing.T) {
	w := newTestWriter(Config{})
	r := &callsig.Record{TStart: 1.0, TEnd: 1.0005, FuncID: 6, Args: []string{"3", "0x0", "100"}}
	w.Commit(r)

	cst, g, ts := w.Freeze()
	if cst.Len() != 1 {
		t.Fatalf("CST.Len() = %d, want 1", cst.Len())
	}
	if ts.Len() != 1 {
		t.Fatalf("timestamp buffer has %d records, want 1", ts.Len())
	}
	rules := g.Rules()
	if len(rules) != 1 || len(rules[0].Symbols) != 1 || rules[0].Symbols[0].Val != 0 {
		t.Fatalf("start rule = %+v, want a single symbol with value 0", rules[0])
	}
	if w.Total() != 1 {
		t.Fatalf("Total() = %d, want 1", w.Total())
	}
}

func TestCommitDedupesIdenticalCalls(t *testing.T) {
	w := newTestWriter(Config{})
	for i := 0; i < 5; i++ {
		w.Commit(&callsig.Record{TStart: float64(i), TEnd: float64(i) + 0.1, FuncID: 6, Args: []string{"3", "0x0", "100"}})
	}
	cst, g, _ := w.Freeze()
	if cst.Len() != 1 {
		t.Fatalf("CST.Len() = %d, want 1 (all five calls are identical)", cst.Len())
	}
	rules := g.Rules()
	if len(rules) != 1 || len(rules[0].Symbols) != 1 {
		t.Fatalf("start rule = %+v, want a single collapsed symbol", rules[0])
	}
	if rules[0].Symbols[0].Exp != 5 {
		t.Fatalf("collapsed symbol exponent = %d, want 5", rules[0].Symbols[0].Exp)
	}
}

func TestCaptureFlagsZeroFieldsBeforeInterning(t *testing.T) {
	w := newTestWriter(Config{CaptureTID: false, CaptureDepth: false})
	a := &callsig.Record{TID: 1, CallDepth: 2, FuncID: 1, Args: []string{"x"}}
	b := &callsig.Record{TID: 99, CallDepth: 7, FuncID: 1, Args: []string{"x"}}
	w.Commit(a)
	w.Commit(b)
	cst, _, _ := w.Freeze()
	if cst.Len() != 1 {
		t.Fatalf("CST.Len() = %d, want 1 (tid/depth should be ignored when capture flags are off)", cst.Len())
	}
}

func TestCaptureFlagsOnDistinguishCalls(t *testing.T) {
	w := newTestWriter(Config{CaptureTID: true, CaptureDepth: true})
	a := &callsig.Record{TID: 1, CallDepth: 0, FuncID: 1, Args: []string{"x"}}
	b := &callsig.Record{TID: 2, CallDepth: 0, FuncID: 1, Args: []string{"x"}}
	w.Commit(a)
	w.Commit(b)
	cst, _, _ := w.Freeze()
	if cst.Len() != 2 {
		t.Fatalf("CST.Len() = %d, want 2 (distinct tids should not dedupe when capture-tid is on)", cst.Len())
	}
}
