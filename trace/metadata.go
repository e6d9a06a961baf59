// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trace

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ianlancetaylor/demangle"
)

// flag bits packed into Metadata's single uint32, in the order
// spec.md §3 lists them.
const (
	flagTimeCompression uint32 = 1 << iota
	flagInterprocessCompression
	flagInterprocessPatternRecognition
	flagIntraprocessPatternRecognition
	flagCaptureTID
	flagCaptureDepth
	flagPOSIX
	flagMPI
	flagHDF5
)

// Metadata is the fixed header written once by rank 0, per spec.md
// §3. UserFuncs holds any user-function symbol names observed at
// runtime (func_id == trace.UserFunc); they are appended after
// FuncNames in the serialized function-name list, demangled where
// possible.
type Metadata struct {
	StartTimestamp float64
	TotalRanks     int32
	TimeResolution float64
	TSBufferSize   int32

	TimeCompression                    bool
	InterprocessCompression            bool
	InterprocessPatternRecognition     bool
	IntraprocessPatternRecognition     bool
	CaptureTID                         bool
	CaptureCallDepth                   bool
	TracedPOSIX, TracedMPI, TracedHDF5 bool

	UserFuncs []string
}

func (m *Metadata) flags() uint32 {
	var f uint32
	set := func(b bool, bit uint32) {
		if b {
			f |= bit
		}
	}
	set(m.TimeCompression, flagTimeCompression)
	set(m.InterprocessCompression, flagInterprocessCompression)
	set(m.InterprocessPatternRecognition, flagInterprocessPatternRecognition)
	set(m.IntraprocessPatternRecognition, flagIntraprocessPatternRecognition)
	set(m.CaptureTID, flagCaptureTID)
	set(m.CaptureCallDepth, flagCaptureDepth)
	set(m.TracedPOSIX, flagPOSIX)
	set(m.TracedMPI, flagMPI)
	set(m.TracedHDF5, flagHDF5)
	return f
}

func (m *Metadata) setFlags(f uint32) {
	m.TimeCompression = f&flagTimeCompression != 0
	m.InterprocessCompression = f&flagInterprocessCompression != 0
	m.InterprocessPatternRecognition = f&flagInterprocessPatternRecognition != 0
	m.IntraprocessPatternRecognition = f&flagIntraprocessPatternRecognition != 0
	m.CaptureTID = f&flagCaptureTID != 0
	m.CaptureCallDepth = f&flagCaptureDepth != 0
	m.TracedPOSIX = f&flagPOSIX != 0
	m.TracedMPI = f&flagMPI != 0
	m.TracedHDF5 = f&flagHDF5 != 0
}

// demangledFuncNames returns FuncNames followed by m.UserFuncs, each
// user function name demangled via the Itanium C++ ABI rules where
// possible; a name demangle can't parse is kept as-is, since a raw
// symbol is still a useful (if less readable) identifier.
func (m *Metadata) demangledFuncNames() []string {
	out := make([]string, 0, len(FuncNames)+len(m.UserFuncs))
	out = append(out, FuncNames...)
	for _, sym := range m.UserFuncs {
		if readable, err := demangle.ToString(sym, demangle.NoParams); err == nil {
			out = append(out, readable)
		} else {
			out = append(out, sym)
		}
	}
	return out
}

// WriteMetadata serializes m to dir/recorder.mt: the fixed header
// followed by a newline-terminated function-name list.
func WriteMetadata(dir string, m *Metadata) error {
	f, err := os.Create(MetadataPath(dir))
	if err != nil {
		return fmt.Errorf("trace: creating %s: %w", metadataFile, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	header := []any{m.StartTimestamp, m.TotalRanks, m.TimeResolution, m.TSBufferSize, m.flags()}
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("trace: writing metadata header: %w", err)
		}
	}
	for _, name := range m.demangledFuncNames() {
		fmt.Fprintln(w, name)
	}
	return w.Flush()
}

// ReadMetadata parses dir/recorder.mt.
func ReadMetadata(dir string) (*Metadata, []string, error) {
	data, err := os.ReadFile(MetadataPath(dir))
	if err != nil {
		return nil, nil, fmt.Errorf("trace: reading %s: %w", metadataFile, err)
	}
	r := bytes.NewReader(data)
	m := &Metadata{}
	var flags uint32
	for _, v := range []any{&m.StartTimestamp, &m.TotalRanks, &m.TimeResolution, &m.TSBufferSize, &flags} {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return nil, nil, fmt.Errorf("trace: reading metadata header: %w", err)
		}
	}
	m.setFlags(flags)

	var names []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimRight(sc.Text(), "\r"); line != "" {
			names = append(names, line)
		}
	}
	if err := sc.Err(); err != nil && err != io.EOF {
		return nil, nil, fmt.Errorf("trace: reading function names: %w", err)
	}
	return m, names, nil
}
