// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sequitur

import "fmt"

// InvariantError reports a violation of one of the Sequitur invariants
// (digram uniqueness, rule utility, or a dangling reference). Per
// spec.md §7, these are fatal: the core panics with an InvariantError
// rather than returning it, since they indicate a bug rather than bad
// input.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string { return "sequitur: " + e.Msg }

func abort(format string, args ...any) {
	panic(&InvariantError{Msg: fmt.Sprintf(format, args...)})
}

// Grammar is an online Sequitur grammar over a stream of non-negative
// terminal values. The zero value is not usable; construct one with
// New.
type Grammar struct {
	arena *arena

	rulesHead, rulesTail id
	startRule            id
	nextRuleID           int32

	digrams map[digramKey]id

	twinsRemoval bool
}

// New creates an empty grammar whose start rule has id startRuleID
// (the C sources and spec.md both use -1) and whose subsequent rules
// are assigned ids counting down from there. Mirrors
// sequitur_init_rule_id().
func New(startRuleID int32, twinsRemoval bool) *Grammar {
	g := &Grammar{
		arena:        newArena(),
		nextRuleID:   startRuleID,
		digrams:      make(map[digramKey]id),
		twinsRemoval: twinsRemoval,
	}
	start := g.newRule()
	g.rulePut(start)
	g.startRule = start
	return g
}

// AppendTerminal appends one terminal symbol (value val, run-length
// exponent exp, normally 1) to the end of the start rule and runs the
// enforcement loop described in spec.md §4.1. It panics with an
// *InvariantError if doing so would violate digram uniqueness or rule
// utility in a way the algorithm cannot repair (a bug, not user
// error), or if a twins-removal exponent would overflow.
func (g *Grammar) AppendTerminal(val, exp int64) {
	if exp < 1 {
		abort("append_terminal: non-positive exponent %d", exp)
	}
	sym := g.arena.newSymbol(val, exp, true, nilID)

	start := g.arena.get(g.startRule)
	g.symbolPut(g.startRule, start.bodyTail, sym)

	s := g.arena.get(sym)
	g.checkDigram(s.prev)
}

// checkDigram runs the enforcement loop for the digram (sym,
// sym.next), mirroring check_digram() in lib/recorder-sequitur.c.
// Returns true if a substitution happened.
func (g *Grammar) checkDigram(sym id) bool {
	if sym == nilID {
		return false
	}
	s := g.arena.get(sym)
	if s.next == nilID || s.next == sym {
		return false
	}

	next := g.arena.get(s.next)
	if g.twinsRemoval && s.val == next.val {
		g.digramDelete(s.prev)
		if s.exp+next.exp < s.exp { // overflow guard, resolves the
			abort("append_terminal: exponent overflow for value %d", s.val) // twins-removal exponent-overflow open question
		}
		s.exp += next.exp
		g.symbolDelete(s.rule, s.next, false)
		return g.checkDigram(s.prev)
	}

	match := g.digramGet(sym, s.next)
	if match == nilID {
		g.digramPut(sym)
		return false
	}

	if g.arena.get(match).next == sym {
		// Overlapping match (e.g. "a a a"): leave untouched.
		return false
	}

	g.processMatch(sym, match)
	return true
}

// processMatch handles a non-overlapping digram match, mirroring
// process_match().
func (g *Grammar) processMatch(this, match id) {
	var rule id

	matchSym := g.arena.get(match)
	matchRule := g.arena.get(matchSym.rule)
	entireBody := matchRule.body == match &&
		matchSym.next != nilID &&
		g.arena.get(matchSym.next).next == nilID

	if entireBody {
		rule = matchSym.rule
		g.replaceDigram(this, rule, false)
	} else {
		rule = g.newRule()

		thisSym := g.arena.get(this)
		first := g.arena.newSymbol(thisSym.val, thisSym.exp, thisSym.terminal, thisSym.ruleHead)
		g.symbolPut(rule, nilID, first)

		nextOfThis := g.arena.get(this).next
		nextSym := g.arena.get(nextOfThis)
		second := g.arena.newSymbol(nextSym.val, nextSym.exp, nextSym.terminal, nextSym.ruleHead)
		g.symbolPut(rule, first, second)

		g.rulePut(rule)

		g.replaceDigram(match, rule, true)
		g.replaceDigram(this, rule, false)

		g.digramPut(g.arena.get(rule).body)
	}

	g.checkRuleUtility(rule)
}

// checkRuleUtility inlines rule's first body symbol's referenced rule
// if that rule is now underutilized, per spec.md §4.1 step 3.
func (g *Grammar) checkRuleUtility(rule id) {
	if rule == nilID {
		return
	}
	r := g.arena.get(rule)
	if r.body == nilID {
		return
	}
	first := g.arena.get(r.body)
	if !first.isNonTerminal() {
		return
	}
	referenced := g.arena.get(first.ruleHead)
	if referenced.ref < 2 && first.exp < 2 {
		g.expandInstance(r.body)
	}
}

// replaceDigram replaces the digram starting at origin with a
// non-terminal occurrence of ruleHead. When deleteDigram is true, the
// digram entries for origin and origin.next are removed first (used
// when the matched occurrence is not yet covered by any digram-table
// entry pointing elsewhere); see the comment on the C source for why
// this only applies on one of the two call sites. Mirrors
// replace_digram().
func (g *Grammar) replaceDigram(origin, ruleHead id, deleteDigram bool) {
	r := g.arena.get(ruleHead)
	if !(r.ruleHead == nilID && !r.terminal) {
		abort("replace_digram: not a rule head")
	}

	replaced := g.arena.newSymbol(r.val, 1, false, ruleHead)

	originSym := g.arena.get(origin)
	ownerRule := g.arena.get(originSym.rule)

	var prev id
	if ownerRule.body != origin {
		prev = originSym.prev
	}
	if prev != nilID {
		g.digramDelete(prev)
	}

	if deleteDigram {
		g.digramDelete(origin)
		g.digramDelete(originSym.next)
	}

	ownerRuleID := originSym.rule
	nextOfOrigin := originSym.next
	g.symbolDelete(ownerRuleID, nextOfOrigin, true)
	g.symbolDelete(ownerRuleID, origin, true)

	g.symbolPut(ownerRuleID, prev, replaced)

	if !g.checkDigram(prev) {
		if prev == nilID {
			g.checkDigram(replaced)
		} else if g.arena.get(prev).next == replaced {
			g.checkDigram(replaced)
		}
	}
}

// expandInstance inlines the rule referenced by the non-terminal
// symbol sym back into sym's owning rule body, because that rule is
// now used fewer than twice. Mirrors expand_instance().
func (g *Grammar) expandInstance(sym id) {
	symS := g.arena.get(sym)
	ruleHead := symS.ruleHead
	rule := g.arena.get(ruleHead)
	if rule.ref != 1 {
		abort("expand_instance: rule has %d references, expected 1", rule.ref)
	}

	g.digramDelete(sym)

	ownerRule := symS.rule
	before := symS.prev
	after := symS.next

	// Snapshot the rule's body before mutating it.
	var elems []id
	for e := rule.body; e != nilID; e = g.arena.get(e).next {
		elems = append(elems, e)
	}

	tail := sym
	for _, e := range elems {
		g.digramDelete(e)
		es := g.arena.get(e)
		fresh := g.arena.newSymbol(es.val, es.exp, es.terminal, es.ruleHead)
		g.symbolPut(ownerRule, tail, fresh)
		tail = fresh
		g.symbolDelete(ruleHead, e, true)
	}

	g.symbolDelete(ownerRule, sym, true)
	g.ruleDelete(ruleHead)

	// Re-register the digrams inside the spliced-in sequence and
	// recheck its boundaries for newly formed matches.
	cur := g.arena.get(ownerRule).body
	if before != nilID {
		cur = g.arena.get(before).next
	}
	for ; cur != after && g.arena.get(cur).next != after; cur = g.arena.get(cur).next {
		g.digramPut(cur)
	}
	if before != nilID {
		g.checkDigram(before)
	}
	if after != nilID && g.arena.get(after).prev != nilID {
		g.checkDigram(g.arena.get(after).prev)
	}
}

// Update rewrites every terminal value in the grammar using remap, a
// dense array such that remap[old] == new. Non-terminal values (rule
// references) and the digram table are left untouched: this is only
// ever called at finalize, before serialization, after intra-process
// pattern recognition or an inter-process merge has renumbered
// terminal ids (spec.md §4.1 update()). Mirrors
// sequitur_update().
func (g *Grammar) Update(remap []int64) {
	for ruleID := g.rulesHead; ruleID != nilID; ruleID = g.arena.get(ruleID).next {
		r := g.arena.get(ruleID)
		for e := r.body; e != nilID; e = g.arena.get(e).next {
			es := g.arena.get(e)
			if es.val >= 0 {
				es.val = remap[es.val]
			}
		}
	}
}

// Cleanup releases the grammar's internal state. Go's garbage
// collector reclaims the arena once the Grammar is unreachable, so
// this mainly exists to mirror sequitur_cleanup()'s call site and to
// make reuse-after-finalize bugs (use of a freed grammar) explicit.
func (g *Grammar) Cleanup() {
	g.digrams = nil
	g.arena = nil
	g.rulesHead, g.rulesTail, g.startRule = nilID, nilID, nilID
}

// RuleCount returns the number of rules currently in the grammar,
// including the start rule.
func (g *Grammar) RuleCount() int {
	n := 0
	for r := g.rulesHead; r != nilID; r = g.arena.get(r).next {
		n++
	}
	return n
}
