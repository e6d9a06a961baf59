// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package callsig implements the Call-Signature Table: a
// content-addressed map from the canonical byte representation of a
// captured call to a small integer terminal id, used to deduplicate
// calls before they are fed to the Sequitur grammar engine.
package callsig

import "github.com/hpc-io/recorder/clockid"

// MissingArg is substituted for an argument slot a wrapper could not
// render (e.g. a format conversion failed upstream).
const MissingArg = "???"

// Record is one captured call, built by a wrapper and consumed by a
// Table's Intern. Records are ephemeral: built on the stack inside a
// wrapper, interned, then discarded.
type Record struct {
	TStart, TEnd float64
	FuncID       uint8
	CallDepth    uint8
	TID          clockid.ThreadID
	Args         []string
}
