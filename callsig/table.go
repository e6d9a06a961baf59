// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package callsig

import "github.com/hpc-io/recorder/clockid"

// entry is one row of the table: a canonical key, the terminal id it
// was assigned on first insertion, the rank that produced it (only
// meaningful once merged) and the number of times it has been
// interned.
type entry struct {
	key        []byte
	terminalID int32
	originRank clockid.Rank
	count      uint32
}

// Table is a Call-Signature Table. The zero value is not usable;
// construct one with New. A Table is not safe for concurrent use — it
// is always owned by the single writer lock described in spec.md
// §4.4.
type Table struct {
	rank    clockid.Rank
	byKey   map[string]int32 // key bytes -> index into entries
	entries []entry
}

// New creates an empty table for the given originating rank.
func New(rank clockid.Rank) *Table {
	return &Table{rank: rank, byKey: make(map[string]int32)}
}

// Intern computes r's canonical key and returns its terminal id,
// allocating a fresh one (equal to the table's size before insertion)
// on first sight. Interning an already-present key never allocates a
// new terminal id and always increments that key's occurrence count —
// this is invariant 1 in spec.md §8.
func (t *Table) Intern(r *Record, captureTID, captureDepth bool) int32 {
	key := BuildKey(r, captureTID, captureDepth)
	return t.InternKey(key)
}

// InternKey is the key-level half of Intern, exposed so pattern
// recognition (package merge) can intern synthetic keys it builds
// itself.
func (t *Table) InternKey(key []byte) int32 {
	if idx, ok := t.byKey[string(key)]; ok {
		t.entries[idx].count++
		return t.entries[idx].terminalID
	}
	id := int32(len(t.entries))
	t.entries = append(t.entries, entry{
		key:        key,
		terminalID: id,
		originRank: t.rank,
		count:      1,
	})
	t.byKey[string(key)] = id
	return id
}

// Len returns the number of distinct call signatures interned so far.
func (t *Table) Len() int { return len(t.entries) }

// Lookup returns the terminal id assigned to key and whether it was
// found, without mutating the table.
func (t *Table) Lookup(key []byte) (int32, bool) {
	idx, ok := t.byKey[string(key)]
	if !ok {
		return 0, false
	}
	return t.entries[idx].terminalID, true
}

// Entry is a read-only snapshot of one table row, used by
// serialization and by the merger.
type Entry struct {
	TerminalID int32
	OriginRank clockid.Rank
	Count      uint32
	Key        []byte
}

// Entries returns every row in the table's internal slice order, never
// map iteration order. Entries does not sort: for a table built by
// New, FromEntries or MergeFrom that order is ascending terminal id,
// since ids are assigned 0..n-1 as rows are appended; a table from
// DeserializeMerged keeps the order of its input bytes.
// SerializeMerged sorts its own snapshot by terminal id, so its output
// does not depend on this order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	for i, e := range t.entries {
		out[i] = Entry{TerminalID: e.terminalID, OriginRank: e.originRank, Count: e.count, Key: e.key}
	}
	return out
}

// Clone returns a deep-enough copy of t (entries are copied, key
// byte slices are shared since they are never mutated in place) for
// use as a mutable accumulator during an inter-process merge, leaving
// the original table untouched for remap bookkeeping.
func (t *Table) Clone() *Table {
	c := &Table{rank: t.rank, byKey: make(map[string]int32, len(t.byKey))}
	c.entries = append(c.entries, t.entries...)
	for k, v := range t.byKey {
		c.byKey[k] = v
	}
	return c
}

// MergeFrom folds another table's entries into t: matching keys have
// their counts summed (t's own origin_rank and terminal id are kept);
// new keys are appended with a placeholder terminal id, since final
// ids are assigned later by FromEntries once every rank's
// contribution has been folded in. Mirrors the per-entry merge rule
// in spec.md §4.6's CST merge.
func (t *Table) MergeFrom(o *Table) {
	for _, e := range o.Entries() {
		if idx, ok := t.byKey[string(e.Key)]; ok {
			t.entries[idx].count += e.Count
			continue
		}
		id := int32(len(t.entries))
		t.entries = append(t.entries, entry{key: e.Key, terminalID: id, originRank: e.OriginRank, count: e.Count})
		t.byKey[string(e.Key)] = id
	}
}

// FromEntries builds a fresh Table from entries, assigning contiguous
// terminal ids 0..n-1 in the order entries is given. Callers that need
// a deterministic global numbering (the final step of a merge) should
// sort entries (e.g. by key bytes) before calling this.
func FromEntries(entries []Entry) *Table {
	t := &Table{byKey: make(map[string]int32, len(entries))}
	for _, e := range entries {
		id := int32(len(t.entries))
		t.entries = append(t.entries, entry{key: e.Key, terminalID: id, originRank: e.OriginRank, count: e.Count})
		t.byKey[string(e.Key)] = id
	}
	return t
}

// Free drops the table's contents. Go's garbage collector reclaims
// the memory once the Table is unreachable; this mirrors the
// cst_free() call site in the original writer pipeline and guards
// against use of a finalized table.
func (t *Table) Free() {
	t.byKey = nil
	t.entries = nil
}
