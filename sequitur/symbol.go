// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sequitur

// id indexes into a Grammar's symbol arena. The zero value means "no
// symbol" everywhere a *Symbol_t pointer could be NULL in the C
// sources.
type id int32

const nilID id = 0

// symbol is one node of the grammar: either a terminal (a CST terminal
// id, optionally run-length collapsed via exp), a non-terminal
// occurrence of some rule, or a rule head. This mirrors struct
// Symbol_t in include/recorder-sequitur.h field for field; see that
// header's comment for the three roles a symbol can play.
type symbol struct {
	val      int64
	exp      int64
	terminal bool

	// rule is the rule body this symbol is spliced into (valid for
	// terminals and non-terminal occurrences; zero for rule heads,
	// which are never themselves spliced into a body).
	rule id

	// ruleHead is non-zero only for non-terminal occurrences; it
	// names the rule this occurrence expands to.
	ruleHead id

	// body is the first symbol of this rule's body; only valid when
	// this symbol is a rule head (ruleHead == 0 && !terminal).
	body id
	// bodyTail is the last symbol of this rule's body; only valid on a
	// rule head, maintained alongside body the same way the grammar's
	// rulesHead/rulesTail bracket the top-level rule list. symbolPut
	// appends after it when asked to add to the end of a body.
	bodyTail id
	// ref counts non-terminal occurrences referencing this rule head.
	ref int32

	prev, next id

	live bool // false once freed; guards against stale-id reuse bugs
}

func (s *symbol) isRuleHead() bool    { return !s.terminal && s.ruleHead == nilID }
func (s *symbol) isNonTerminal() bool { return !s.terminal && s.ruleHead != nilID }

// arena is the backing store for a Grammar's symbols. Index 0 is never
// used so the zero id can mean "none".
type arena struct {
	symbols []symbol
	free    []id
}

func newArena() *arena {
	return &arena{symbols: make([]symbol, 1)} // index 0 reserved
}

func (a *arena) alloc() id {
	if n := len(a.free); n > 0 {
		i := a.free[n-1]
		a.free = a.free[:n-1]
		a.symbols[i] = symbol{live: true}
		return i
	}
	a.symbols = append(a.symbols, symbol{live: true})
	return id(len(a.symbols) - 1)
}

func (a *arena) free_(i id) {
	if i == nilID {
		return
	}
	a.symbols[i].live = false
	a.free = append(a.free, i)
}

func (a *arena) get(i id) *symbol {
	return &a.symbols[i]
}

// newSymbol allocates a terminal or non-terminal occurrence. Mirrors
// new_symbol() in lib/recorder-sequitur-symbol.c.
func (a *arena) newSymbol(val, exp int64, terminal bool, ruleHead id) id {
	i := a.alloc()
	s := a.get(i)
	s.val, s.exp, s.terminal, s.ruleHead = val, exp, terminal, ruleHead
	return i
}

// newRule allocates a fresh rule-head symbol with the grammar's next
// rule id. Mirrors new_rule().
func (g *Grammar) newRule() id {
	i := g.arena.newSymbol(int64(g.nextRuleID), 1, false, nilID)
	g.nextRuleID--
	return i
}

// symbolPut inserts sym into rule's body immediately after pos
// (pos == 0 inserts at the head). Mirrors symbol_put().
func (g *Grammar) symbolPut(rule, pos, sym id) {
	s := g.arena.get(sym)
	if !s.isRuleHead() {
		s.rule = rule
	}

	r := g.arena.get(rule)
	if pos == nilID {
		head := r.body
		s.next = head
		if head != nilID {
			g.arena.get(head).prev = sym
		} else {
			r.bodyTail = sym
		}
		s.prev = nilID
		r.body = sym
	} else {
		p := g.arena.get(pos)
		s.next = p.next
		s.prev = pos
		if p.next != nilID {
			g.arena.get(p.next).prev = sym
		} else {
			r.bodyTail = sym
		}
		p.next = sym
	}

	if s.isNonTerminal() {
		g.ruleRef(s.ruleHead)
	}
}

// symbolDelete unlinks sym from rule's body and frees it. When deref
// is true and sym is a non-terminal, the referenced rule's count is
// decremented first. Mirrors symbol_delete().
func (g *Grammar) symbolDelete(rule, sym id, deref bool) {
	s := g.arena.get(sym)
	if s.isNonTerminal() && deref {
		g.ruleDeref(s.ruleHead)
	}

	r := g.arena.get(rule)
	if s.prev != nilID {
		g.arena.get(s.prev).next = s.next
	} else {
		r.body = s.next
	}
	if s.next != nilID {
		g.arena.get(s.next).prev = s.prev
	} else {
		r.bodyTail = s.prev
	}
	g.arena.free_(sym)
}

// rulePut appends rule to the grammar's top-level rule list. Mirrors
// rule_put().
func (g *Grammar) rulePut(rule id) {
	if g.rulesHead == nilID {
		g.rulesHead = rule
		g.rulesTail = rule
		return
	}
	tail := g.arena.get(g.rulesTail)
	tail.next = rule
	g.arena.get(rule).prev = g.rulesTail
	g.rulesTail = rule
}

// ruleDelete removes rule from the grammar's top-level rule list and
// frees it. Mirrors rule_delete().
func (g *Grammar) ruleDelete(rule id) {
	r := g.arena.get(rule)
	if r.prev != nilID {
		g.arena.get(r.prev).next = r.next
	} else {
		g.rulesHead = r.next
	}
	if r.next != nilID {
		g.arena.get(r.next).prev = r.prev
	} else {
		g.rulesTail = r.prev
	}
	g.arena.free_(rule)
}

func (g *Grammar) ruleRef(rule id)   { g.arena.get(rule).ref++ }
func (g *Grammar) ruleDeref(rule id) { g.arena.get(rule).ref-- }
