// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sequitur implements the online, linear-time Sequitur grammar
// inference algorithm used to compress the stream of call-signature
// terminal ids emitted by package callsig into a context-free grammar.
//
// The grammar maintains two invariants after every AppendTerminal call:
// no digram (pair of adjacent symbols) occurs more than once anywhere
// in the grammar, and every non-start rule is referenced at least
// twice (the "twins removal" extension allows a single occurrence of
// a rule to satisfy this via an exponent of at least 2 instead of a
// second occurrence).
//
// Symbols live in a flat arena indexed by a small integer id rather
// than behind pointers, so the whole grammar can be serialized,
// compared and garbage collected without chasing a pointer graph.
package sequitur
