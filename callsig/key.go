// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package callsig

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// BuildKey renders r into the canonical Call Signature Key described
// in spec.md §3/§6: tid (8 bytes, zeroed unless captureTID), func_id
// (1 byte), call_depth (1 byte, zeroed unless captureDepth), arg_count
// (1 byte), arg_strlen (4 bytes), then the arguments separated by
// single spaces with internal spaces in each argument replaced by
// '_'. Two Records with identical key bytes are the same call
// signature by definition.
func BuildKey(r *Record, captureTID, captureDepth bool) []byte {
	args := make([]string, len(r.Args))
	for i, a := range r.Args {
		if a == "" {
			args[i] = MissingArg
		} else {
			args[i] = strings.ReplaceAll(a, " ", "_")
		}
	}
	joined := strings.Join(args, " ")

	tid := uint64(0)
	if captureTID {
		tid = uint64(r.TID)
	}
	depth := uint8(0)
	if captureDepth {
		depth = r.CallDepth
	}

	return buildKeyFromParts(tid, r.FuncID, depth, joined, len(r.Args))
}

func buildKeyFromParts(tid uint64, funcID, depth byte, joined string, argCount int) []byte {
	key := make([]byte, 8+1+1+1+4+len(joined))
	binary.LittleEndian.PutUint64(key[0:8], tid)
	key[8] = funcID
	key[9] = depth
	key[10] = byte(argCount)
	binary.LittleEndian.PutUint32(key[11:15], uint32(len(joined)))
	copy(key[15:], joined)
	return key
}

// ParsedKey is a Call Signature Key decomposed back into its fields,
// used by package merge's offset pattern recognition to inspect and
// rewrite a single argument without re-deriving the whole record.
type ParsedKey struct {
	TID       uint64
	FuncID    uint8
	CallDepth uint8
	Args      []string
}

// ParseKey decodes a key produced by BuildKey.
func ParseKey(key []byte) (ParsedKey, error) {
	if len(key) < 15 {
		return ParsedKey{}, fmt.Errorf("callsig: key too short: %d bytes", len(key))
	}
	tid := binary.LittleEndian.Uint64(key[0:8])
	funcID := key[8]
	depth := key[9]
	argCount := int(key[10])
	strlen := binary.LittleEndian.Uint32(key[11:15])
	if len(key) != 15+int(strlen) {
		return ParsedKey{}, fmt.Errorf("callsig: key length %d does not match arg_strlen %d", len(key), strlen)
	}
	joined := string(key[15:])
	var args []string
	if argCount > 0 {
		args = strings.Split(joined, " ")
	}
	return ParsedKey{TID: tid, FuncID: funcID, CallDepth: depth, Args: args}, nil
}

// BuildKeyFromParts re-encodes a ParsedKey, optionally with one
// argument replaced, back into the canonical key layout. argIndex < 0
// means "don't replace anything".
func BuildKeyFromParts(p ParsedKey, argIndex int, replacement string) []byte {
	args := append([]string(nil), p.Args...)
	if argIndex >= 0 && argIndex < len(args) {
		args[argIndex] = replacement
	}
	joined := strings.Join(args, " ")
	return buildKeyFromParts(p.TID, p.FuncID, p.CallDepth, joined, len(args))
}
