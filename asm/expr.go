// Copyright 2026 Adam Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"strconv"
	"strings"
)

// resolveExpr evaluates a pass-one address expression: a plain decimal
// integer, a symbol, or a symbol with a signed decimal offset (LOOP+2,
// BUF-1). It returns ok=false when the expression is malformed or when the
// base symbol is absent or not yet addressed; the caller treats that as
// "unresolved", never as a fatal error.
func (p *pass1) resolveExpr(expr string) (value int, ok bool) {
	expr = strings.ReplaceAll(expr, " ", "")

	if isInteger(expr) {
		v, err := strconv.Atoi(expr)
		if err != nil {
			return 0, false
		}
		return v, true
	}

	l := newFstring(0, expr)
	if !l.startsWith(symbolStartChar) {
		return 0, false
	}
	name, rest := l.consumeUntil(func(c byte) bool { return !symbolChar(c) })

	offset := 0
	if !rest.isEmpty() {
		if !rest.startsWithChar('+') && !rest.startsWithChar('-') {
			return 0, false
		}
		v, err := strconv.Atoi(rest.str)
		if err != nil {
			return 0, false
		}
		offset = v
	}

	sym := p.symbols.lookup(name.str)
	if sym == nil || sym.Addr == NoAddr {
		return 0, false
	}
	return sym.Addr + offset, true
}
