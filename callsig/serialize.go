// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package callsig

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/hpc-io/recorder/clockid"
)

// SerializeLocal encodes the table using the local CST layout from
// spec.md §6: int32 entry_count, then per entry (int32 terminal_id,
// int32 key_len, key bytes).
func (t *Table) SerializeLocal() []byte {
	entries := t.Entries()
	var buf bytes.Buffer
	writeInt32(&buf, int32(len(entries)))
	for _, e := range entries {
		writeInt32(&buf, e.TerminalID)
		writeInt32(&buf, int32(len(e.Key)))
		buf.Write(e.Key)
	}
	return buf.Bytes()
}

// SerializeMerged encodes the table using the merged CST layout:
// int32 entry_count, then per entry (int32 terminal_id, int32
// origin_rank, int32 key_len, uint32 count, key bytes), visited in
// ascending terminal-id order so that two tables with identical
// contents always produce identical bytes (spec.md §4.2, §9).
func (t *Table) SerializeMerged() []byte {
	entries := t.Entries()
	sort.Slice(entries, func(i, j int) bool { return entries[i].TerminalID < entries[j].TerminalID })

	var buf bytes.Buffer
	writeInt32(&buf, int32(len(entries)))
	for _, e := range entries {
		writeInt32(&buf, e.TerminalID)
		writeInt32(&buf, int32(e.OriginRank))
		writeInt32(&buf, int32(len(e.Key)))
		writeUint32(&buf, e.Count)
		buf.Write(e.Key)
	}
	return buf.Bytes()
}

// DeserializeMerged parses the merged layout produced by
// SerializeMerged back into a Table.
func DeserializeMerged(data []byte) (*Table, error) {
	r := bytes.NewReader(data)
	count, err := readInt32(r)
	if err != nil {
		return nil, fmt.Errorf("callsig: reading entry_count: %w", err)
	}
	t := &Table{byKey: make(map[string]int32)}
	for i := int32(0); i < count; i++ {
		termID, err := readInt32(r)
		if err != nil {
			return nil, fmt.Errorf("callsig: entry %d: terminal_id: %w", i, err)
		}
		origin, err := readInt32(r)
		if err != nil {
			return nil, fmt.Errorf("callsig: entry %d: origin_rank: %w", i, err)
		}
		keyLen, err := readInt32(r)
		if err != nil {
			return nil, fmt.Errorf("callsig: entry %d: key_len: %w", i, err)
		}
		cnt, err := readUint32(r)
		if err != nil {
			return nil, fmt.Errorf("callsig: entry %d: count: %w", i, err)
		}
		key := make([]byte, keyLen)
		if _, err := io.ReadFull(r, key); err != nil {
			return nil, fmt.Errorf("callsig: entry %d: key bytes: %w", i, err)
		}
		t.entries = append(t.entries, entry{
			key:        key,
			terminalID: termID,
			originRank: clockid.Rank(origin),
			count:      cnt,
		})
		t.byKey[string(key)] = int32(len(t.entries) - 1)
	}
	return t, nil
}

func writeInt32(buf *bytes.Buffer, v int32)   { binary.Write(buf, binary.LittleEndian, v) }
func writeUint32(buf *bytes.Buffer, v uint32) { binary.Write(buf, binary.LittleEndian, v) }

func readInt32(r *bytes.Reader) (int32, error) {
	var v int32
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func readUint32(r *bytes.Reader) (uint32, error) {
	var v uint32
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}
