// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package merge

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hpc-io/recorder/callsig"
	"github.com/hpc-io/recorder/clockid"
)

// PatternTarget names one function whose argument at OffsetArgIndex
// should be checked for the a*r+b offset pattern across ranks
// (spec.md §4.6's pattern recognition, and §4.1's twins-removal-style
// collapsing idea applied to offsets instead of adjacent symbols).
type PatternTarget struct {
	FuncID         uint8
	OffsetArgIndex int
}

// patternRecognize scans entries for groups of call signatures that
// are identical except for one target function's offset argument,
// and — when that argument varies across ranks as offset = a*rank+b —
// collapses the whole group into a single synthetic entry whose
// offset argument is the literal string "{a}*r+{b}". It returns the
// rewritten entry set plus a redirect table from every collapsed
// entry's original key to the synthetic key it was folded into, so
// callers can still build a correct per-rank terminal remap.
func patternRecognize(entries []callsig.Entry, targets []PatternTarget) ([]callsig.Entry, map[string][]byte) {
	redirect := make(map[string][]byte)
	if len(targets) == 0 {
		return entries, redirect
	}
	targetByFunc := make(map[uint8]int)
	for _, tg := range targets {
		targetByFunc[tg.FuncID] = tg.OffsetArgIndex
	}

	groups := make(map[string][]callsig.Entry)
	var groupOrder []string
	passthrough := make([]callsig.Entry, 0, len(entries))

	for _, e := range entries {
		parsed, err := callsig.ParseKey(e.Key)
		if err != nil {
			passthrough = append(passthrough, e)
			continue
		}
		argIdx, isTarget := targetByFunc[parsed.FuncID]
		if !isTarget || argIdx >= len(parsed.Args) {
			passthrough = append(passthrough, e)
			continue
		}
		shape := shapeKey(parsed, argIdx)
		if _, ok := groups[shape]; !ok {
			groupOrder = append(groupOrder, shape)
		}
		groups[shape] = append(groups[shape], e)
	}

	out := passthrough
	for _, shape := range groupOrder {
		members := groups[shape]
		collapsed, synthetic, ok := tryCollapse(members, targetArgIndex(members, targetByFunc))
		if !ok {
			out = append(out, members...)
			continue
		}
		out = append(out, collapsed)
		for _, m := range members {
			redirect[string(m.Key)] = synthetic
		}
	}
	return out, redirect
}

func targetArgIndex(members []callsig.Entry, targetByFunc map[uint8]int) int {
	if len(members) == 0 {
		return -1
	}
	parsed, err := callsig.ParseKey(members[0].Key)
	if err != nil {
		return -1
	}
	return targetByFunc[parsed.FuncID]
}

// shapeKey identifies call signatures that are "the same call except
// for the offset argument": tid, func id, depth and every argument
// but the offset one.
func shapeKey(p callsig.ParsedKey, offsetArgIndex int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d|%d|%d|", p.TID, p.FuncID, p.CallDepth)
	for i, a := range p.Args {
		if i == offsetArgIndex {
			continue
		}
		b.WriteString(a)
		b.WriteByte(0)
	}
	return b.String()
}

// tryCollapse checks whether members' offset arguments fit offset =
// a*rank+b exactly, and if so returns one synthetic entry replacing
// them all.
func tryCollapse(members []callsig.Entry, offsetArgIndex int) (callsig.Entry, []byte, bool) {
	if offsetArgIndex < 0 || len(members) < 2 {
		return callsig.Entry{}, nil, false
	}

	type point struct {
		rank, offset int64
	}
	pts := make([]point, 0, len(members))
	var totalCount uint32
	for _, m := range members {
		parsed, err := callsig.ParseKey(m.Key)
		if err != nil || offsetArgIndex >= len(parsed.Args) {
			return callsig.Entry{}, nil, false
		}
		offset, err := strconv.ParseInt(parsed.Args[offsetArgIndex], 10, 64)
		if err != nil {
			return callsig.Entry{}, nil, false
		}
		pts = append(pts, point{rank: int64(m.OriginRank), offset: offset})
		totalCount += m.Count
	}

	// All ranks distinct is required to solve for a single line; two
	// members sharing a rank can never be an a*r+b pattern instance.
	seen := make(map[int64]bool, len(pts))
	for _, pt := range pts {
		if seen[pt.rank] {
			return callsig.Entry{}, nil, false
		}
		seen[pt.rank] = true
	}
	if len(pts) < 2 {
		return callsig.Entry{}, nil, false
	}

	r0, r1 := pts[0], pts[1]
	if r1.rank == r0.rank {
		return callsig.Entry{}, nil, false
	}
	num := r1.offset - r0.offset
	den := r1.rank - r0.rank
	if num%den != 0 {
		return callsig.Entry{}, nil, false
	}
	a := num / den
	b := r0.offset - a*r0.rank
	for _, pt := range pts[2:] {
		if a*pt.rank+b != pt.offset {
			return callsig.Entry{}, nil, false
		}
	}

	parsed, _ := callsig.ParseKey(members[0].Key)
	synthetic := callsig.BuildKeyFromParts(parsed, offsetArgIndex, fmt.Sprintf("%d*r+%d", a, b))
	entry := callsig.Entry{
		TerminalID: 0, // reassigned by the caller's final renumbering pass
		OriginRank: clockid.Rank(pts[0].rank),
		Count:      totalCount,
		Key:        synthetic,
	}
	return entry, synthetic, true
}
