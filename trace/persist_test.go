// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trace

import (
	"context"
	"os"
	"testing"

	"github.com/hpc-io/recorder/callsig"
	"github.com/hpc-io/recorder/sequitur"
	"github.com/hpc-io/recorder/transport"
)

func TestWriteAllLocalMode(t *testing.T) {
	dir := t.TempDir()

	cst := callsig.New(0)
	cst.Intern(&callsig.Record{FuncID: 5, Args: []string{"a"}}, false, false)
	cst.Intern(&callsig.Record{FuncID: 6, Args: []string{"b"}}, false, false)

	g := sequitur.New(-1, true)
	g.AppendTerminal(0, 1)
	g.AppendTerminal(1, 1)
	cfg, err := g.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	meta := &Metadata{StartTimestamp: 100, TotalRanks: 1, TimeResolution: 1e-7, TSBufferSize: 2}
	local := LocalArtifacts{Rank: 0, CST: cst, CFG: cfg, TSPayload: []byte{1, 2, 3, 4}}

	tr := transport.Local{}
	if err := WriteAll(context.Background(), tr, dir, meta, local, nil); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	if err := CheckVersion(dir); err != nil {
		t.Fatalf("CheckVersion: %v", err)
	}
	gotMeta, names, err := ReadMetadata(dir)
	if err != nil {
		t.Fatalf("ReadMetadata: %v", err)
	}
	if gotMeta.StartTimestamp != meta.StartTimestamp || gotMeta.TotalRanks != meta.TotalRanks {
		t.Fatalf("ReadMetadata = %+v, want %+v", gotMeta, meta)
	}
	if len(names) != len(FuncNames) {
		t.Fatalf("got %d function names, want %d", len(names), len(FuncNames))
	}

	cstBytes, err := os.ReadFile(CSTPath(dir, 0))
	if err != nil || len(cstBytes) == 0 {
		t.Fatalf("0.cst: %v", err)
	}
	cfgBytes, err := os.ReadFile(CFGPath(dir, 0))
	if err != nil || len(cfgBytes) == 0 {
		t.Fatalf("0.cfg: %v", err)
	}

	tsData, err := os.ReadFile(TimestampsPath(dir))
	if err != nil {
		t.Fatalf("recorder.ts: %v", err)
	}
	payloads, err := ReadTimestamps(tsData, 1)
	if err != nil {
		t.Fatalf("ReadTimestamps: %v", err)
	}
	if len(payloads) != 1 || string(payloads[0]) != string(local.TSPayload) {
		t.Fatalf("ReadTimestamps = %v, want [%v]", payloads, local.TSPayload)
	}
}

func TestWriteAllMergedMode(t *testing.T) {
	dir := t.TempDir()

	cst := callsig.New(0)
	cst.Intern(&callsig.Record{FuncID: 1, Args: []string{"x"}}, false, false)

	meta := &Metadata{TotalRanks: 1, TimeResolution: 1e-7}
	local := LocalArtifacts{Rank: 0, TSPayload: []byte{9, 9}}
	merged := &MergedArtifacts{GlobalCST: cst}

	if err := WriteAll(context.Background(), transport.Local{}, dir, meta, local, merged); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	if _, err := os.Stat(CSTPath(dir, 0)); err != nil {
		t.Fatalf("expected merged CST at %s: %v", CSTPath(dir, 0), err)
	}
	if _, err := os.Stat(CFGPath(dir, 0)); err == nil {
		t.Fatalf("did not expect a per-rank CFG in merged mode without dedup")
	}
}
