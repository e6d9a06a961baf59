// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"strings"
	"testing"

	"github.com/hpc-io/recorder"
	"github.com/hpc-io/recorder/clockid"
	"github.com/hpc-io/recorder/trace"
	"github.com/hpc-io/recorder/transport"
)

func newTestTracer(t *testing.T) *recorder.Tracer {
	t.Helper()
	return recorder.New(recorder.Config{
		Clock:          clockid.NewFixed(0, 1e-6),
		Transport:      transport.Local{},
		TracesDir:      t.TempDir(),
		TimeResolution: 1e-7,
	})
}

func TestReplayBasicScript(t *testing.T) {
	tr := newTestTracer(t)
	script := strings.NewReader(`
# a write nested inside an MPI collective, plus a user function call
enter 1 PMPI_Barrier
enter 1 write 5,0x0,128
exit 1
exit 1
enter 2 user:my_app_compute
exit 2
`)
	if err := replay(tr, script); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if err := tr.Finalize(context.Background()); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
}

func TestReplayRejectsUnmatchedExit(t *testing.T) {
	tr := newTestTracer(t)
	script := strings.NewReader("exit 1\n")
	if err := replay(tr, script); err == nil {
		t.Fatalf("expected an error for exit without a matching enter")
	}
}

func TestReplayRejectsDanglingEnter(t *testing.T) {
	tr := newTestTracer(t)
	script := strings.NewReader("enter 1 write 1,2,3\n")
	if err := replay(tr, script); err == nil {
		t.Fatalf("expected an error for enter without a matching exit")
	}
}

func TestResolveFuncUserFunction(t *testing.T) {
	idx := funcIndex()
	id, args, err := resolveFunc("user:foo", idx)
	if err != nil {
		t.Fatalf("resolveFunc: %v", err)
	}
	if id != trace.UserFunc {
		t.Fatalf("user function id = %d, want %d (trace.UserFunc)", id, trace.UserFunc)
	}
	if len(args) != 2 || args[1] != "foo" {
		t.Fatalf("args = %v, want [???, foo]", args)
	}
}
