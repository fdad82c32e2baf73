// Copyright 2026 Adam Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import "strings"

// A statement is the parsed form of one source line: an optional label, an
// uppercased opcode or directive mnemonic, and a normalized comma-separated
// operand string.
type statement struct {
	label    fstring
	op       string
	operands string
}

// parseStatement splits a raw source line into label, opcode and operand
// fields. It returns ok=false if the line carries no actionable content
// (blank or comment-only).
//
// Label detection follows a fixed precedence: a trailing-colon token is
// always a label; otherwise, on a line of two or more tokens, a first token
// that is not a known opcode, directive, register or literal is inferred to
// be a label. A symbol that collides with a mnemonic therefore cannot be
// used as an implicit label; this ambiguity is accepted rather than worked
// around.
func parseStatement(line fstring) (stmt statement, ok bool) {
	toks := line.stripComment().fields()
	if len(toks) == 0 {
		return statement{}, false
	}

	switch {
	case toks[0].endsWithChar(':'):
		stmt.label = toks[0].trunc(len(toks[0].str) - 1)
		toks = toks[1:]

	case len(toks) >= 2:
		t0 := strings.ToUpper(toks[0].str)
		if !isOpcode(t0) && !isDirective(t0) && !isRegister(t0) && !isLiteralToken(toks[0].str) {
			stmt.label = toks[0]
			toks = toks[1:]
		}
	}

	if len(toks) == 0 {
		return stmt, !stmt.label.isEmpty()
	}

	stmt.op = strings.ToUpper(toks[0].str)
	if len(toks) > 1 {
		parts := make([]string, len(toks)-1)
		for i, t := range toks[1:] {
			parts[i] = t.str
		}
		stmt.operands = normalizeOperands(strings.Join(parts, " "))
	}
	return stmt, true
}

// normalizeOperands rejoins a raw operand string with the whitespace around
// each comma-separated operand trimmed, preserving operand order.
func normalizeOperands(s string) string {
	ops := strings.Split(s, ",")
	for i := range ops {
		ops[i] = strings.TrimSpace(ops[i])
	}
	return strings.Join(ops, ",")
}

// splitOperands splits a normalized operand string into its individual
// operands, dropping empty entries.
func splitOperands(s string) []string {
	if s == "" {
		return nil
	}
	var ops []string
	for _, op := range strings.Split(s, ",") {
		if op = strings.TrimSpace(op); op != "" {
			ops = append(ops, op)
		}
	}
	return ops
}

func isOpcode(s string) bool {
	_, ok := opcodes[strings.ToUpper(s)]
	return ok
}

func isDirective(s string) bool {
	_, ok := directives[strings.ToUpper(s)]
	return ok
}

func isRegister(s string) bool {
	return registers[strings.ToUpper(s)]
}

// isLiteralToken reports whether the token is a literal: '=' followed by an
// optionally negated decimal integer or a single-quoted character, e.g. =5,
// =-3 or ='A'.
func isLiteralToken(s string) bool {
	if len(s) < 2 || s[0] != '=' {
		return false
	}
	body := s[1:]
	if len(body) == 3 && body[0] == '\'' && body[2] == '\'' {
		return body[1] != '\''
	}
	return isInteger(body)
}

// isInteger reports whether the token is a decimal integer with an optional
// leading minus sign.
func isInteger(s string) bool {
	if strings.HasPrefix(s, "-") {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !decimal(s[i]) {
			return false
		}
	}
	return true
}
