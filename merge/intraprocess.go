// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package merge

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"github.com/hpc-io/recorder/callsig"
)

// IntraprocessPatternRecognize implements the reserved
// RECORDER_INTRAPROCESS_PATTERN_RECOGNITION behavior left as a no-op
// in the C sources (spec.md §6 calls it out as "reserved per-rank
// offset substitution"; SPEC_FULL.md §3 supplements it). It scans a
// single rank's own CST for groups of call signatures to funcID that
// are identical except for the offset argument at offsetArgIndex,
// and — when that argument varies across the group's occurrences (in
// terminal-id / first-sight order, not across ranks) as
// offset = a*i+b — collapses the whole group into one synthetic
// entry whose offset argument is the literal string "{a}*i+{b}",
// exactly the same arithmetic-progression check §4.6 performs across
// ranks, applied here across repeated calls within one process.
//
// When a group collapses it returns a fresh table (the original is
// left untouched), a remap from old to new terminal id suitable for
// sequitur.Grammar.Update, and true. When nothing collapses it
// returns cst itself, an identity remap and false. Unlike the
// inter-process path, this never touches a Transport: it is purely
// local.
func IntraprocessPatternRecognize(cst *callsig.Table, funcID uint8, offsetArgIndex int) (*callsig.Table, []int64, bool) {
	entries := cst.Entries() // already sorted by terminal id

	groups := make(map[string][]callsig.Entry)
	var groupOrder []string
	passthrough := make([]callsig.Entry, 0, len(entries))

	for _, e := range entries {
		parsed, err := callsig.ParseKey(e.Key)
		if err != nil || parsed.FuncID != funcID || offsetArgIndex >= len(parsed.Args) {
			passthrough = append(passthrough, e)
			continue
		}
		shape := shapeKey(parsed, offsetArgIndex)
		if _, ok := groups[shape]; !ok {
			groupOrder = append(groupOrder, shape)
		}
		groups[shape] = append(groups[shape], e)
	}

	changed := false
	collapsedByOldKey := make(map[int32]callsig.Entry)
	var survivors []callsig.Entry
	survivors = append(survivors, passthrough...)

	for _, shape := range groupOrder {
		members := groups[shape]
		synthetic, ok := tryCollapseSequence(members, offsetArgIndex)
		if !ok {
			survivors = append(survivors, members...)
			continue
		}
		changed = true
		survivors = append(survivors, synthetic)
		for _, m := range members {
			collapsedByOldKey[m.TerminalID] = synthetic
		}
	}

	if !changed {
		return cst, identityRemap(len(entries)), false
	}

	// Sort before assigning the new contiguous terminal ids, the same
	// determinism rule the inter-process merge applies (SPEC_FULL.md
	// §4): identical survivor sets must renumber identically regardless
	// of scan order.
	sort.Slice(survivors, func(i, j int) bool { return bytes.Compare(survivors[i].Key, survivors[j].Key) < 0 })
	out := callsig.FromEntries(survivors)

	remap := make([]int64, len(entries))
	for _, e := range entries {
		target := e
		if synth, ok := collapsedByOldKey[e.TerminalID]; ok {
			target = synth
		}
		newID, ok := out.Lookup(target.Key)
		if !ok {
			panic(fmt.Sprintf("merge: intraprocess pattern recognition lost terminal id %d", e.TerminalID))
		}
		remap[e.TerminalID] = int64(newID)
	}
	return out, remap, true
}

func identityRemap(n int) []int64 {
	remap := make([]int64, n)
	for i := range remap {
		remap[i] = int64(i)
	}
	return remap
}

// tryCollapseSequence is tryCollapse's intra-process sibling: it
// checks offset = a*i+b over the group's occurrence index i (0, 1,
// 2, ... in terminal-id order) instead of over rank.
func tryCollapseSequence(members []callsig.Entry, offsetArgIndex int) (callsig.Entry, bool) {
	if len(members) < 2 {
		return callsig.Entry{}, false
	}

	offsets := make([]int64, len(members))
	var totalCount uint32
	for i, m := range members {
		parsed, err := callsig.ParseKey(m.Key)
		if err != nil || offsetArgIndex >= len(parsed.Args) {
			return callsig.Entry{}, false
		}
		offset, err := strconv.ParseInt(parsed.Args[offsetArgIndex], 10, 64)
		if err != nil {
			return callsig.Entry{}, false
		}
		offsets[i] = offset
		totalCount += m.Count
	}

	a := offsets[1] - offsets[0]
	b := offsets[0]
	for i, off := range offsets {
		if a*int64(i)+b != off {
			return callsig.Entry{}, false
		}
	}

	parsed, _ := callsig.ParseKey(members[0].Key)
	synthetic := callsig.BuildKeyFromParts(parsed, offsetArgIndex, fmt.Sprintf("%d*i+%d", a, b))
	return callsig.Entry{
		TerminalID: members[0].TerminalID,
		OriginRank: members[0].OriginRank,
		Count:      totalCount,
		Key:        synthetic,
	}, true
}
