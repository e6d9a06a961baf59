// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package callsig

import (
	"bytes"
	"testing"
)

func rec(funcID uint8, args ...string) *Record {
	return &Record{FuncID: funcID, CallDepth: 0, TID: 1, Args: args}
}

func TestInternDeterminism(t *testing.T) {
	tbl := New(0)
	id1 := tbl.Intern(rec(6, "3", "0x0", "100"), false, false)
	id2 := tbl.Intern(rec(6, "3", "0x0", "100"), false, false)
	if id1 != id2 {
		t.Fatalf("re-interning the same record allocated a new id: %d != %d", id1, id2)
	}
	if tbl.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", tbl.Len())
	}
	id3 := tbl.Intern(rec(7, "x"), false, false)
	if id3 == id1 {
		t.Fatalf("distinct records collided on the same terminal id")
	}
}

func TestInternS1(t *testing.T) {
	tbl := New(0)
	id := tbl.Intern(rec(6, "3", "0x0", "100"), false, false)
	if id != 0 {
		t.Fatalf("first intern got id %d, want 0", id)
	}
	entries := tbl.Entries()
	if len(entries) != 1 || entries[0].Count != 1 {
		t.Fatalf("entries = %+v, want one entry with count 1", entries)
	}
}

func TestInternS2(t *testing.T) {
	tbl := New(0)
	var id int32
	for i := 0; i < 5; i++ {
		id = tbl.Intern(rec(6, "3", "0x0", "100"), false, false)
	}
	if id != 0 {
		t.Fatalf("id = %d, want 0", id)
	}
	entries := tbl.Entries()
	if len(entries) != 1 || entries[0].Count != 5 {
		t.Fatalf("entries = %+v, want one entry with count 5", entries)
	}
}

func TestBuildKeyMissingArgAndSpaces(t *testing.T) {
	key := BuildKey(rec(1, "hello world", ""), true, true)
	// tid(8) + func_id(1) + depth(1) + arg_count(1) + arg_strlen(4) header = 15 bytes
	if len(key) < 15 {
		t.Fatalf("key too short: %d bytes", key)
	}
	joined := key[15:]
	want := []byte("hello_world ???")
	if !bytes.Equal(joined, want) {
		t.Fatalf("joined args = %q, want %q", joined, want)
	}
}

func TestBuildKeyZeroesDisabledFields(t *testing.T) {
	r := &Record{FuncID: 3, CallDepth: 9, TID: 42, Args: []string{"a"}}
	key := BuildKey(r, false, false)
	for i := 0; i < 8; i++ {
		if key[i] != 0 {
			t.Fatalf("tid bytes not zeroed: %v", key[:8])
		}
	}
	if key[9] != 0 {
		t.Fatalf("call_depth not zeroed: %d", key[9])
	}
}

func TestSerializeMergedRoundTrip(t *testing.T) {
	tbl := New(2)
	tbl.Intern(rec(1, "a"), false, false)
	tbl.Intern(rec(2, "b"), false, false)
	tbl.Intern(rec(1, "a"), false, false)

	data := tbl.SerializeMerged()
	got, err := DeserializeMerged(data)
	if err != nil {
		t.Fatalf("DeserializeMerged: %v", err)
	}
	if !bytes.Equal(data, got.SerializeMerged()) {
		t.Fatalf("round-trip did not reproduce identical bytes")
	}
}

func TestSerializeMergedSortsByTerminalID(t *testing.T) {
	// Build the same two logical entries with their underlying slice
	// in reverse terminal-id order, as a merge might produce, and
	// confirm SerializeMerged still visits them by ascending id.
	forward := &Table{byKey: map[string]int32{"a": 0, "b": 1}, entries: []entry{
		{key: []byte("a"), terminalID: 0, count: 1},
		{key: []byte("b"), terminalID: 1, count: 1},
	}}
	reversed := &Table{byKey: map[string]int32{"a": 1, "b": 0}, entries: []entry{
		{key: []byte("b"), terminalID: 1, count: 1},
		{key: []byte("a"), terminalID: 0, count: 1},
	}}
	if !bytes.Equal(forward.SerializeMerged(), reversed.SerializeMerged()) {
		t.Fatal("SerializeMerged is sensitive to underlying entry order, not just terminal id")
	}
}
