// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sequitur

import "testing"

// reconstruct expands the start rule back into its terminal stream,
// checking invariant 4 (the grammar must always reconstruct the
// original input).
func reconstruct(g *Grammar) []int64 {
	rules := g.Rules()
	byID := make(map[int64]Rule, len(rules))
	for _, r := range rules {
		byID[r.ID] = r
	}
	start := rules[0]

	var out []int64
	var expand func(Rule)
	expand = func(r Rule) {
		for _, s := range r.Symbols {
			for i := int64(0); i < s.Exp; i++ {
				if s.Terminal {
					out = append(out, s.Val)
				} else {
					expand(byID[s.Val])
				}
			}
		}
	}
	expand(start)
	return out
}

func appendAll(g *Grammar, vals ...int64) {
	for _, v := range vals {
		g.AppendTerminal(v, 1)
	}
}

func TestAppendTerminalTrivial(t *testing.T) {
	g := New(-1, true)
	appendAll(g, 1, 2, 3)
	got := reconstruct(g)
	want := []int64{1, 2, 3}
	if !int64sEqual(got, want) {
		t.Fatalf("reconstruct = %v, want %v", got, want)
	}
}

func TestTwinsCollapse(t *testing.T) {
	g := New(-1, true)
	appendAll(g, 5, 5, 5, 5)
	got := reconstruct(g)
	want := []int64{5, 5, 5, 5}
	if !int64sEqual(got, want) {
		t.Fatalf("reconstruct = %v, want %v", got, want)
	}
	// Twins removal should have collapsed the run into a single
	// exponentiated terminal in the start rule, not four symbols.
	start := g.Rules()[0]
	if len(start.Symbols) != 1 || start.Symbols[0].Exp != 4 {
		t.Fatalf("start rule = %+v, want a single symbol with exp 4", start)
	}
}

func TestNewRuleFormation(t *testing.T) {
	g := New(-1, true)
	appendAll(g, 1, 2, 1, 2, 1, 2)
	got := reconstruct(g)
	want := []int64{1, 2, 1, 2, 1, 2}
	if !int64sEqual(got, want) {
		t.Fatalf("reconstruct = %v, want %v", got, want)
	}
	if n := g.RuleCount(); n < 2 {
		t.Fatalf("RuleCount() = %d, want at least 2 (start + [1 2])", n)
	}
}

func TestOverlapGuard(t *testing.T) {
	g := New(-1, false) // disable twins removal so the overlap path in
	// checkDigram (rather than the twins-removal path) is exercised.
	appendAll(g, 7, 7, 7)
	got := reconstruct(g)
	want := []int64{7, 7, 7}
	if !int64sEqual(got, want) {
		t.Fatalf("reconstruct = %v, want %v", got, want)
	}
}

func TestDigramUniqueness(t *testing.T) {
	g := New(-1, true)
	appendAll(g, 1, 2, 3, 1, 2, 3, 1, 2, 3, 4, 5, 4, 5)
	got := reconstruct(g)
	want := []int64{1, 2, 3, 1, 2, 3, 1, 2, 3, 4, 5, 4, 5}
	if !int64sEqual(got, want) {
		t.Fatalf("reconstruct = %v, want %v", got, want)
	}

	seen := make(map[digramKey]bool)
	for _, r := range g.Rules() {
		for i := 0; i+1 < len(r.Symbols); i++ {
			a, b := r.Symbols[i], r.Symbols[i+1]
			if a.Exp != 1 || b.Exp != 1 {
				continue // run-length collapsed symbols never re-pair with themselves
			}
			k := digramKey{a.Val, a.Exp, b.Val, b.Exp}
			if seen[k] {
				t.Fatalf("digram %v repeated across rule bodies", k)
			}
			seen[k] = true
		}
	}
}

func TestRuleUtility(t *testing.T) {
	g := New(-1, true)
	// "a b a b a b c a b" -- all four occurrences of "a b" should be
	// captured by one rule (three of them through a twins-removal
	// exponent), never by a rule used only once.
	appendAll(g, 1, 2, 1, 2, 1, 2, 9, 1, 2)
	for _, r := range g.Rules() {
		if len(r.Symbols) == 0 {
			continue
		}
		// Every rule other than the start rule must be referenced at
		// least twice, directly or via a twins-removal exponent on its
		// sole occurrence.
		refs := 0
		for _, other := range g.Rules() {
			for _, s := range other.Symbols {
				if !s.Terminal && s.Val == r.ID {
					refs += int(s.Exp)
				}
			}
		}
		if r.ID != g.Rules()[0].ID && refs < 2 {
			t.Fatalf("rule %d referenced only %d times", r.ID, refs)
		}
	}
}

func TestSerializeRoundTripShape(t *testing.T) {
	g := New(-1, true)
	appendAll(g, 1, 2, 1, 2, 3)
	out, err := g.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("Serialize returned empty array")
	}
	if int(out[0]) != g.RuleCount() {
		t.Fatalf("rule_count header = %d, want %d", out[0], g.RuleCount())
	}
}

func int64sEqual(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
