// Copyright 2026 Adam Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

// NoAddr marks a symbol or literal that has not yet been assigned an
// address.
const NoAddr = -1

// A Symbol is one entry in the pass-one symbol table.
type Symbol struct {
	Name        string
	Addr        int   // assigned address, or NoAddr
	Defined     bool  // true once a defining occurrence has been seen
	ForwardRefs []int // line numbers referencing the symbol before definition
}

// A symtab maps symbol names to symbol entries while preserving insertion
// order, so table dumps are deterministic.
type symtab struct {
	syms  map[string]*Symbol
	order []*Symbol
}

func newSymtab() *symtab {
	return &symtab{syms: make(map[string]*Symbol)}
}

func (t *symtab) lookup(name string) *Symbol {
	return t.syms[name]
}

// add creates or updates a symbol. An update carrying an address overwrites
// any previous address; accumulated forward references are never cleared.
// A non-defining occurrence records the referencing line number.
func (t *symtab) add(name string, addr int, defined bool, row int) *Symbol {
	sym, found := t.syms[name]
	if found {
		if addr != NoAddr {
			sym.Addr = addr
			sym.Defined = defined || sym.Defined
		}
	} else {
		sym = &Symbol{Name: name, Addr: addr, Defined: defined}
		t.syms[name] = sym
		t.order = append(t.order, sym)
	}
	if !defined {
		sym.ForwardRefs = append(sym.ForwardRefs, row)
	}
	return sym
}

// A Literal is one entry in the pass-one literal table. Literals are
// deduplicated by exact text across the whole table, and each receives an
// address exactly once, when its enclosing pool is flushed.
type Literal struct {
	Text string
	Addr int
}
