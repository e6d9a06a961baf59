// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sequitur

import (
	"fmt"
	"math"
	"strings"
)

// Rule is a flattened, read-only view of one grammar rule, suitable
// for serialization or debugging. Symbols is the rule's body in
// order; a non-terminal symbol is encoded as its rule's id (always
// negative, since rule ids count down from the start rule) and a
// terminal as its non-negative CST terminal id.
type Rule struct {
	ID      int64
	Symbols []RuleSymbol
}

// RuleSymbol is one element of a Rule's body.
type RuleSymbol struct {
	Val      int64
	Exp      int64
	Terminal bool
}

// Rules returns every rule in the grammar, start rule first, in the
// order spec.md §6 requires for the CFG wire format.
func (g *Grammar) Rules() []Rule {
	var out []Rule
	for r := g.rulesHead; r != nilID; r = g.arena.get(r).next {
		rs := g.arena.get(r)
		rule := Rule{ID: rs.val}
		for e := rs.body; e != nilID; e = g.arena.get(e).next {
			es := g.arena.get(e)
			rule.Symbols = append(rule.Symbols, RuleSymbol{Val: es.val, Exp: es.exp, Terminal: es.terminal})
		}
		out = append(out, rule)
	}
	return out
}

// Serialize encodes the grammar as the flat int32 array described in
// spec.md §6: rule_count, then for each rule (rule_id, symbol_count,
// (value, exponent)*). Values and exponents are narrowed from the
// engine's internal int64 to the wire's int32; Serialize returns an
// error rather than silently truncating if a run-length exponent
// built up by twins-removal has grown too large to fit (resolves the
// "exponent width" open question — see SPEC_FULL.md §4).
func (g *Grammar) Serialize() ([]int32, error) {
	rules := g.Rules()
	out := make([]int32, 0, 2+4*len(rules))
	out = append(out, int32(len(rules)))
	for _, r := range rules {
		id32, err := narrow(r.ID)
		if err != nil {
			return nil, fmt.Errorf("sequitur: rule id %d: %w", r.ID, err)
		}
		out = append(out, id32, int32(len(r.Symbols)))
		for _, sym := range r.Symbols {
			v, err := narrow(sym.Val)
			if err != nil {
				return nil, fmt.Errorf("sequitur: symbol value %d: %w", sym.Val, err)
			}
			e, err := narrow(sym.Exp)
			if err != nil {
				return nil, fmt.Errorf("sequitur: symbol exponent %d: %w", sym.Exp, err)
			}
			out = append(out, v, e)
		}
	}
	return out, nil
}

func narrow(v int64) (int32, error) {
	if v > math.MaxInt32 || v < math.MinInt32 {
		return 0, fmt.Errorf("value %d does not fit in int32", v)
	}
	return int32(v), nil
}

// DebugString renders the grammar's rules and live digram table in a
// human-readable form, grounded on sequitur_print_rules() and
// sequitur_print_digrams() in lib/recorder-sequitur-utils.c.
func (g *Grammar) DebugString() string {
	var b strings.Builder
	for _, r := range g.Rules() {
		fmt.Fprintf(&b, "R%d ->", -r.ID)
		for _, s := range r.Symbols {
			if s.Terminal {
				fmt.Fprintf(&b, " %d", s.Val)
			} else {
				fmt.Fprintf(&b, " R%d", -s.Val)
			}
			if s.Exp != 1 {
				fmt.Fprintf(&b, "^%d", s.Exp)
			}
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "digrams: %d live\n", len(g.digrams))
	return b.String()
}
