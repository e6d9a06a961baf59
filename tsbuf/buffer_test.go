// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tsbuf

import "testing"

func TestPushAndLen(t *testing.T) {
	b := New(1e-7)
	b.Push(0, 0.0000005)
	b.Push(0.000001, 0.0000015)
	if b.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", b.Len())
	}
}

func TestMonotonicReconstruction(t *testing.T) {
	b := New(1e-7)
	times := [][2]float64{{0, 0.00001}, {0.00002, 0.00003}, {0.00005, 0.00009}}
	for _, p := range times {
		b.Push(p[0], p[1])
	}
	payload, err := b.Payload(true)
	if err != nil {
		t.Fatalf("Payload: %v", err)
	}
	vals, err := Decode(payload, true)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	tstarts, _ := Reconstruct(vals, 1e-7, 0)
	for i := 1; i < len(tstarts); i++ {
		if tstarts[i] < tstarts[i-1] {
			t.Fatalf("tstart sequence not monotonic: %v", tstarts)
		}
	}
}

func TestRawRoundTrip(t *testing.T) {
	b := New(1e-7)
	b.Push(0, 0.00001)
	payload, err := b.Payload(false)
	if err != nil {
		t.Fatalf("Payload: %v", err)
	}
	vals, err := Decode(payload, false)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(vals) != 2 {
		t.Fatalf("Decode got %d values, want 2", len(vals))
	}
}
