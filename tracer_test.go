// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recorder

import (
	"context"
	"os"
	"testing"

	"github.com/hpc-io/recorder/trace"
)

func TestTracerEndToEndLocalMode(t *testing.T) {
	dir := t.TempDir()
	tr := New(Config{
		TracesDir:      dir,
		TimeResolution: 1e-7,
		CaptureTID:     true,
	})
	if tr.Disabled() {
		t.Fatalf("tracer disabled unexpectedly")
	}

	// A top-level write with one cascading inner call, repeated
	// twice, mirroring the writer's per-thread-FIFO commit-in-
	// entry-order contract (spec.md §9).
	for i := 0; i < 2; i++ {
		outer := tr.EnterCall(1, 5, []string{"3"})
		inner := tr.EnterCall(1, 0, []string{"3", "0x0", "100"})
		tr.ExitCall(inner)
		tr.ExitCall(outer)
	}

	if err := tr.Finalize(context.Background()); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if !tr.Disabled() {
		t.Fatalf("tracer should be disabled after Finalize")
	}

	if err := trace.CheckVersion(dir); err != nil {
		t.Fatalf("CheckVersion: %v", err)
	}
	meta, names, err := trace.ReadMetadata(dir)
	if err != nil {
		t.Fatalf("ReadMetadata: %v", err)
	}
	if meta.TotalRanks != 1 {
		t.Fatalf("TotalRanks = %d, want 1", meta.TotalRanks)
	}
	if !meta.CaptureTID {
		t.Fatalf("CaptureTID = false, want true")
	}
	if len(names) == 0 {
		t.Fatalf("expected a non-empty function name table")
	}

	for _, name := range []string{trace.CSTPath(dir, 0), trace.CFGPath(dir, 0), trace.TimestampsPath(dir)} {
		if _, err := os.Stat(name); err != nil {
			t.Errorf("expected artifact %s: %v", name, err)
		}
	}
}

func TestFinalizeIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	tr := New(Config{TracesDir: dir, TimeResolution: 1e-7})
	r := tr.EnterCall(1, 0, []string{"a"})
	tr.ExitCall(r)

	if err := tr.Finalize(context.Background()); err != nil {
		t.Fatalf("first Finalize: %v", err)
	}
	if err := tr.Finalize(context.Background()); err != nil {
		t.Fatalf("second Finalize should be a harmless no-op, got: %v", err)
	}
}

func TestDisabledTracerCallsAreNoOps(t *testing.T) {
	tr := New(Config{TracesDir: "/nonexistent/path/that/should/not/exist", TimeResolution: 1e-7})
	if !tr.Disabled() {
		t.Fatalf("tracer should be disabled when the traces directory is unusable")
	}
	r := tr.EnterCall(1, 0, []string{"a"})
	if r != nil {
		t.Fatalf("EnterCall on a disabled tracer should return nil")
	}
	tr.ExitCall(r) // must not panic
	if err := tr.Finalize(context.Background()); err != nil {
		t.Fatalf("Finalize on a disabled tracer should be a no-op, got: %v", err)
	}
}
