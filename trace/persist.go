// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trace

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/hpc-io/recorder/callsig"
	"github.com/hpc-io/recorder/clockid"
	"github.com/hpc-io/recorder/merge"
	"github.com/hpc-io/recorder/transport"
)

// LocalArtifacts is what one rank owns at finalize time, after its
// writer has been frozen (package writer) and any merge (package
// merge) has updated its grammar's terminals in place.
type LocalArtifacts struct {
	Rank clockid.Rank
	// CST is this rank's own table: local layout in non-merged mode,
	// nil in merged mode (the single global table is written once by
	// rank 0 instead; see MergedArtifacts).
	CST *callsig.Table
	// CFG is this rank's (possibly remapped) serialized grammar,
	// from sequitur.Grammar.Serialize. Written per-rank whenever it is
	// non-nil (§6: "{rank}.cfg | each rank (non-merged)"); in merged mode
	// callers should use WriteAll's dedupe path (MergedArtifacts.Unique)
	// instead and leave CFG nil.
	CFG []int32
	// TSPayload is this rank's timestamp payload from
	// tsbuf.Buffer.Payload, already compressed if configured.
	TSPayload []byte
}

// MergedArtifacts is populated on rank 0 only, when inter-process
// compression is enabled (spec.md §4.6).
type MergedArtifacts struct {
	GlobalCST *callsig.Table
	Unique    *merge.UniqueGrammars // nil if grammar dedup was not requested
}

// WriteAll persists every artifact named in spec.md §6's trace
// directory layout for one finalize: VERSION and recorder.mt (rank 0
// only), each rank's own {rank}.cst/{rank}.cfg or, in merged mode,
// rank 0's single merged CST plus ug.cfg/ug.mt, and the trace-wide
// recorder.ts built by gathering every rank's timestamp payload
// through t.
//
// The writes that don't depend on one another — the metadata header,
// this rank's local artifacts, and (on rank 0) the merged/unique
// grammar files — run concurrently under an errgroup.Group, the same
// fan-out-with-first-error pattern used elsewhere in the pack for
// independent I/O (SPEC_FULL.md §2); the collective assembly of
// recorder.ts gates on transport.Gather and so runs first.
func WriteAll(ctx context.Context, t transport.Transport, dir string, meta *Metadata, local LocalArtifacts, merged *MergedArtifacts) error {
	payloads, err := t.Gather(ctx, 0, local.TSPayload)
	if err != nil {
		return fmt.Errorf("trace: gathering timestamp payloads: %w", err)
	}

	g, _ := errgroup.WithContext(ctx)

	if t.Rank() == 0 {
		g.Go(func() error { return WriteVersion(dir) })
		g.Go(func() error { return WriteMetadata(dir, meta) })
		g.Go(func() error { return writeTimestamps(dir, payloads) })
		if merged != nil {
			g.Go(func() error { return WriteMergedCST(dir, merged.GlobalCST) })
			if merged.Unique != nil {
				g.Go(func() error { return WriteUniqueGrammars(dir, merged.Unique) })
			}
		}
	}

	if merged == nil {
		if local.CST != nil {
			g.Go(func() error { return WriteLocalCST(dir, local.Rank, local.CST) })
		}
	}
	if local.CFG != nil {
		g.Go(func() error { return WriteLocalCFG(dir, local.Rank, local.CFG) })
	}

	return g.Wait()
}

// WriteLocalCST writes dir/{rank}.cst using the local CST layout
// (§6's "CST entry, local").
func WriteLocalCST(dir string, rank clockid.Rank, cst *callsig.Table) error {
	if err := os.WriteFile(CSTPath(dir, rank), cst.SerializeLocal(), 0644); err != nil {
		return fmt.Errorf("trace: writing %d.cst: %w", rank, err)
	}
	return nil
}

// WriteMergedCST writes the single trace-wide CST, produced by
// package merge's reduction, to dir/0.cst using the merged layout
// (§6: "{rank}.cst | ... or rank 0 only (merged mode)").
func WriteMergedCST(dir string, cst *callsig.Table) error {
	if err := os.WriteFile(CSTPath(dir, 0), cst.SerializeMerged(), 0644); err != nil {
		return fmt.Errorf("trace: writing merged CST: %w", err)
	}
	return nil
}

// WriteLocalCFG writes dir/{rank}.cfg: the flat int32 array from
// sequitur.Grammar.Serialize, little-endian per §6.
func WriteLocalCFG(dir string, rank clockid.Rank, cfg []int32) error {
	if err := os.WriteFile(CFGPath(dir, rank), encodeInt32s(cfg), 0644); err != nil {
		return fmt.Errorf("trace: writing %d.cfg: %w", rank, err)
	}
	return nil
}

// WriteUniqueGrammars writes dir/ug.cfg and dir/ug.mt from a
// completed grammar-dedup pass (package merge).
func WriteUniqueGrammars(dir string, u *merge.UniqueGrammars) error {
	if err := os.WriteFile(UniqueCFGPath(dir), u.CFG, 0644); err != nil {
		return fmt.Errorf("trace: writing %s: %w", uniqueCFG, err)
	}
	if err := os.WriteFile(UniqueMTPath(dir), u.MT, 0644); err != nil {
		return fmt.Errorf("trace: writing %s: %w", uniqueMT, err)
	}
	return nil
}

// writeTimestamps assembles dir/recorder.ts from every rank's
// gathered payload, in rank order: a total_ranks-entry length table
// (each length a little-endian uint64, standing in for the C sources'
// size_t) followed by the concatenated payloads themselves (§4.5, §6).
// A real MPI-IO host writes this collectively with each rank
// computing its own offset; since transport.Transport already brings
// every payload to rank 0 via Gather, rank 0 writing the assembled
// file sequentially produces byte-identical output without requiring
// a collective-file-write abstraction of its own.
func writeTimestamps(dir string, payloads [][]byte) error {
	var buf bytes.Buffer
	for _, p := range payloads {
		if err := binary.Write(&buf, binary.LittleEndian, uint64(len(p))); err != nil {
			return fmt.Errorf("trace: writing %s length table: %w", timestamps, err)
		}
	}
	for _, p := range payloads {
		buf.Write(p)
	}
	if err := os.WriteFile(TimestampsPath(dir), buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("trace: writing %s: %w", timestamps, err)
	}
	return nil
}

// ReadTimestamps splits a recorder.ts file's bytes back into each
// rank's payload, given the number of ranks that produced it.
func ReadTimestamps(data []byte, totalRanks int) ([][]byte, error) {
	headerLen := 8 * totalRanks
	if len(data) < headerLen {
		return nil, fmt.Errorf("trace: %s too short for %d ranks", timestamps, totalRanks)
	}
	lengths := make([]uint64, totalRanks)
	for i := range lengths {
		lengths[i] = binary.LittleEndian.Uint64(data[8*i : 8*i+8])
	}
	out := make([][]byte, totalRanks)
	off := headerLen
	for i, n := range lengths {
		end := off + int(n)
		if end > len(data) {
			return nil, fmt.Errorf("trace: %s payload %d overruns file (want %d bytes at offset %d, have %d)", timestamps, i, n, off, len(data))
		}
		out[i] = data[off:end]
		off = end
	}
	return out, nil
}

func encodeInt32s(vals []int32) []byte {
	out := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[4*i:], uint32(v))
	}
	return out
}
