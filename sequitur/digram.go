// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sequitur

// digramKey is the lookup key for the digram table: the four-tuple
// (value, exponent) of two adjacent symbols. Mirrors
// build_digram_key() in lib/recorder-sequitur-digram.c, minus the
// manual byte packing — Go lets us use the tuple directly as a map
// key.
type digramKey struct {
	v1, e1, v2, e2 int64
}

func keyOf(s1, s2 *symbol) digramKey {
	return digramKey{s1.val, s1.exp, s2.val, s2.exp}
}

// digramGet looks up the digram (sym1, sym2) and returns the first
// symbol of its sole occurrence, or nilID if no such digram exists.
// Mirrors digram_get().
func (g *Grammar) digramGet(sym1, sym2 id) id {
	k := keyOf(g.arena.get(sym1), g.arena.get(sym2))
	if found, ok := g.digrams[k]; ok {
		return found
	}
	return nilID
}

// digramPut inserts the digram (sym, sym.next) into the table, keyed
// on their current values, pointing at sym. Returns false if the
// table already had an entry for this key (left untouched). Mirrors
// digram_put().
func (g *Grammar) digramPut(sym id) bool {
	s := g.arena.get(sym)
	if sym == nilID || s.next == nilID {
		return false
	}
	k := keyOf(s, g.arena.get(s.next))
	if _, ok := g.digrams[k]; ok {
		return false
	}
	g.digrams[k] = sym
	return true
}

// digramDelete removes the table entry for the digram (sym, sym.next)
// if, and only if, that entry still points at sym. This uniform check
// resolves the spec's "digram-delete ambiguity" open question: the
// original C code checked found->symbol == symbol on some paths but
// not all, which could delete a live digram that had been relocated
// onto a different occurrence of the same value pair (e.g. the
// sequence 1 1 1 2 1 2, see the comment in
// lib/recorder-sequitur-digram.c). Returns true if an entry was
// removed.
func (g *Grammar) digramDelete(sym id) bool {
	s := g.arena.get(sym)
	if sym == nilID || s.next == nilID {
		return false
	}
	k := keyOf(s, g.arena.get(s.next))
	if found, ok := g.digrams[k]; ok && found == sym {
		delete(g.digrams, k)
		return true
	}
	return false
}
