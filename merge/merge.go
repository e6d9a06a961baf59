// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package merge

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/hpc-io/recorder/callsig"
	"github.com/hpc-io/recorder/sequitur"
	"github.com/hpc-io/recorder/transport"
)

// Config selects which optional phases of the merge run.
type Config struct {
	// PatternTargets enables §4.6's offset pattern recognition for
	// the listed functions when non-empty.
	PatternTargets []PatternTarget
	// DedupeGrammars enables the gather-and-deduplicate phase. When
	// false, Run stops after producing the remap (callers fall back
	// to per-rank {rank}.cst/{rank}.cfg files).
	DedupeGrammars bool
}

// Result is what one rank learns from a completed merge.
type Result struct {
	GlobalCST *callsig.Table
	Remap     []int64 // indexed by this rank's pre-merge local terminal id
	// Unique is only populated on rank 0, and only when
	// Config.DedupeGrammars is set.
	Unique *UniqueGrammars
}

// Run performs the full inter-process merge: CST reduction (with
// optional offset pattern recognition), a broadcast of the resulting
// global table, the per-rank terminal remap, and — if requested —
// whole-grammar deduplication. localCST and localGrammar are this
// rank's pre-merge table and grammar; localGrammar is mutated in
// place via Update once the remap is known.
func Run(ctx context.Context, t transport.Transport, localCST *callsig.Table, localGrammar *sequitur.Grammar, cfg Config) (*Result, error) {
	localEntries := localCST.Entries()

	merged, isHolder, err := reduceCST(ctx, t, localCST)
	if err != nil {
		return nil, fmt.Errorf("merge: CST reduction: %w", err)
	}

	var payload []byte
	if isHolder {
		entries := merged.Entries()
		var redirect map[string][]byte
		if len(cfg.PatternTargets) > 0 {
			entries, redirect = patternRecognize(entries, cfg.PatternTargets)
		}
		sort.Slice(entries, func(i, j int) bool { return bytes.Compare(entries[i].Key, entries[j].Key) < 0 })
		final := callsig.FromEntries(entries)
		payload = packBroadcast(final.SerializeMerged(), redirect)
	}

	data, err := t.Bcast(ctx, 0, payload)
	if err != nil {
		return nil, fmt.Errorf("merge: broadcasting merged CST: %w", err)
	}
	globalBytes, redirect, err := unpackBroadcast(data)
	if err != nil {
		return nil, fmt.Errorf("merge: decoding broadcast payload: %w", err)
	}
	global, err := callsig.DeserializeMerged(globalBytes)
	if err != nil {
		return nil, fmt.Errorf("merge: decoding global CST: %w", err)
	}

	remap := make([]int64, len(localEntries))
	for _, e := range localEntries {
		key := e.Key
		if synth, ok := redirect[string(key)]; ok {
			key = synth
		}
		globalID, ok := global.Lookup(key)
		if !ok {
			return nil, fmt.Errorf("merge: local terminal id %d (rank %d) has no entry in the merged CST — protocol error", e.TerminalID, e.OriginRank)
		}
		remap[e.TerminalID] = int64(globalID)
	}
	localGrammar.Update(remap)

	result := &Result{GlobalCST: global, Remap: remap}

	if !cfg.DedupeGrammars {
		return result, nil
	}

	serialized, err := localGrammar.Serialize()
	if err != nil {
		return nil, fmt.Errorf("merge: serializing remapped CFG: %w", err)
	}
	gathered, err := t.Gather(ctx, 0, encodeInt32s(serialized))
	if err != nil {
		return nil, fmt.Errorf("merge: gathering remapped CFGs: %w", err)
	}
	if t.Rank() != 0 {
		return result, nil
	}

	cfgs := make([][]int32, len(gathered))
	for i, b := range gathered {
		cfgs[i] = decodeInt32s(b)
	}
	unique, err := dedupeGrammars(cfgs)
	if err != nil {
		return nil, fmt.Errorf("merge: deduplicating grammars: %w", err)
	}
	result.Unique = &unique
	return result, nil
}

func decodeInt32s(b []byte) []int32 {
	out := make([]int32, len(b)/4)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return out
}

// packBroadcast frames the merged CST bytes together with the offset
// pattern-recognition redirect table into one payload, since
// transport.Transport.Bcast carries a single blob and every rank
// needs both pieces to build its own remap.
func packBroadcast(globalCST []byte, redirect map[string][]byte) []byte {
	var buf bytes.Buffer
	writeBlock(&buf, globalCST)
	binary.Write(&buf, binary.LittleEndian, int32(len(redirect)))
	for orig, synth := range redirect {
		writeBlock(&buf, []byte(orig))
		writeBlock(&buf, synth)
	}
	return buf.Bytes()
}

func unpackBroadcast(data []byte) (globalCST []byte, redirect map[string][]byte, err error) {
	r := bytes.NewReader(data)
	globalCST, err = readBlock(r)
	if err != nil {
		return nil, nil, fmt.Errorf("global CST block: %w", err)
	}
	var n int32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, nil, fmt.Errorf("redirect count: %w", err)
	}
	redirect = make(map[string][]byte, n)
	for i := int32(0); i < n; i++ {
		orig, err := readBlock(r)
		if err != nil {
			return nil, nil, fmt.Errorf("redirect entry %d key: %w", i, err)
		}
		synth, err := readBlock(r)
		if err != nil {
			return nil, nil, fmt.Errorf("redirect entry %d value: %w", i, err)
		}
		redirect[string(orig)] = synth
	}
	return globalCST, redirect, nil
}

func writeBlock(buf *bytes.Buffer, b []byte) {
	binary.Write(buf, binary.LittleEndian, int32(len(b)))
	buf.Write(b)
}

func readBlock(r *bytes.Reader) ([]byte, error) {
	var n int32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, err
		}
	}
	return b, nil
}
