// Copyright 2026 Adam Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func pass(t *testing.T, code string) *Listing {
	t.Helper()
	listing, err := Pass1(strings.NewReader(code), io.Discard, 0)
	if err != nil {
		t.Fatal(err)
	}
	return listing
}

func checkSymbols(t *testing.T, listing *Listing, expected string) {
	t.Helper()
	var buf bytes.Buffer
	listing.WriteSymbols(&buf)
	got := buf.String()
	if got != expected {
		t.Error("symbol table doesn't match expected")
		t.Errorf("got:\n%s", got)
		t.Errorf("exp:\n%s", expected)
	}
}

func checkLiterals(t *testing.T, listing *Listing, expected string) {
	t.Helper()
	var buf bytes.Buffer
	listing.WriteLiterals(&buf)
	got := buf.String()
	if got != expected {
		t.Error("literal table doesn't match expected")
		t.Errorf("got:\n%s", got)
		t.Errorf("exp:\n%s", expected)
	}
}

func checkRecordAddrs(t *testing.T, listing *Listing, expected []int) {
	t.Helper()
	if len(listing.Records) != len(expected) {
		t.Fatalf("got %d records, expected %d", len(listing.Records), len(expected))
	}
	for i, rec := range listing.Records {
		if rec.Addr != expected[i] {
			t.Errorf("record %d: got addr %d, expected %d", i, rec.Addr, expected[i])
		}
	}
}

func TestStartAndLiteralPool(t *testing.T) {
	listing := pass(t, `START 100
A MOVER AREG,=5
LTORG
END`)

	if listing.Origin != 100 {
		t.Errorf("got origin %d, expected 100", listing.Origin)
	}
	if listing.Final != 102 {
		t.Errorf("got final counter %d, expected 102", listing.Final)
	}
	if len(listing.Pools) != 0 {
		t.Errorf("got %d open pools, expected 0", len(listing.Pools))
	}
	checkRecordAddrs(t, listing, []int{100, 100, 101, 102})
	checkSymbols(t, listing, "A\t100\n")
	checkLiterals(t, listing, "=5\t101\n")
}

func TestImplicitOrigin(t *testing.T) {
	listing := pass(t, `MOVER AREG,B
B DS 2
END`)

	if listing.Origin != 0 {
		t.Errorf("got origin %d, expected 0", listing.Origin)
	}
	if listing.Final != 3 {
		t.Errorf("got final counter %d, expected 3", listing.Final)
	}
	checkRecordAddrs(t, listing, []int{0, 1, 3})
	checkSymbols(t, listing, "B\t1\n")
}

func TestForwardReferences(t *testing.T) {
	listing := pass(t, `START 200
MOVER AREG,X
ADD BREG,X
X DC 1
END`)

	if len(listing.Symbols) != 1 {
		t.Fatalf("got %d symbols, expected 1", len(listing.Symbols))
	}
	x := listing.Symbols[0]
	if x.Name != "X" || x.Addr != 202 || !x.Defined {
		t.Errorf("got %s addr=%d defined=%v, expected X addr=202 defined=true",
			x.Name, x.Addr, x.Defined)
	}
	if len(x.ForwardRefs) != 2 || x.ForwardRefs[0] != 2 || x.ForwardRefs[1] != 3 {
		t.Errorf("got forward refs %v, expected [2 3]", x.ForwardRefs)
	}
}

func TestEquate(t *testing.T) {
	listing := pass(t, `START 100
A DS 1
B EQU A+2
C EQU UNDEF
END`)

	// An unresolved equate keeps the label's line address and records the
	// line as a forward reference.
	checkSymbols(t, listing, "A\t100\nB\t102\nC\t101\n")

	c := listing.Symbols[2]
	if len(c.ForwardRefs) != 1 || c.ForwardRefs[0] != 4 {
		t.Errorf("got forward refs %v, expected [4]", c.ForwardRefs)
	}
}

func TestOrigin(t *testing.T) {
	listing := pass(t, `START 100
A DS 1
ORIGIN A+5
B DC 1
ORIGIN UNDEF
C DC 1
END`)

	// An unresolvable origin leaves the counter untouched.
	checkSymbols(t, listing, "A\t100\nB\t105\nC\t106\n")
	if listing.Final != 107 {
		t.Errorf("got final counter %d, expected 107", listing.Final)
	}
}

func TestLiteralPools(t *testing.T) {
	listing := pass(t, `START 100
MOVER AREG,=5
ADD AREG,=5
ADD BREG,=9
LTORG
MOVER CREG,=7
END`)

	// =5 is deduplicated; LTORG closes the first pool and END the second.
	checkLiterals(t, listing, "=5\t103\n=9\t104\n=7\t106\n")
	if len(listing.Pools) != 0 {
		t.Errorf("got %d open pools, expected 0", len(listing.Pools))
	}
	if listing.Final != 107 {
		t.Errorf("got final counter %d, expected 107", listing.Final)
	}
}

func TestEmptyPoolFlush(t *testing.T) {
	listing := pass(t, `START 100
LTORG
LTORG
END`)

	// Flushing with no pending literals moves nothing.
	if listing.Final != 100 {
		t.Errorf("got final counter %d, expected 100", listing.Final)
	}
	if len(listing.Literals) != 0 {
		t.Errorf("got %d literals, expected 0", len(listing.Literals))
	}
	checkRecordAddrs(t, listing, []int{100, 100, 100, 100})
}

func TestCharLiteral(t *testing.T) {
	listing := pass(t, `START 50
MOVER AREG,='A'
END`)

	checkLiterals(t, listing, "='A'\t51\n")
}

func TestReserveAndDeclare(t *testing.T) {
	listing := pass(t, `START 300
A DS 3
B DC 1
C DS N
END`)

	// A reserve with an unresolvable size falls back to one word.
	checkSymbols(t, listing, "A\t300\nB\t303\nC\t304\n")
	if listing.Final != 305 {
		t.Errorf("got final counter %d, expected 305", listing.Final)
	}
}

func TestUnknownOpcode(t *testing.T) {
	listing := pass(t, `START 100
HALT
ADD AREG,B
END`)

	// An unknown opcode keeps its place in the stream but consumes no space.
	checkRecordAddrs(t, listing, []int{100, 100, 100, 101})
	if listing.Final != 101 {
		t.Errorf("got final counter %d, expected 101", listing.Final)
	}
	if len(listing.Errors) != 1 || !strings.Contains(listing.Errors[0], "HALT") {
		t.Errorf("got errors %v, expected one unknown-opcode entry", listing.Errors)
	}
}

func TestLabelsAndComments(t *testing.T) {
	listing := pass(t, `START 100
LOOP: ADD AREG,ONE ; bump the counter
ONE DC 1
END`)

	checkSymbols(t, listing, "LOOP\t100\nONE\t101\n")

	one := listing.Symbols[1]
	if len(one.ForwardRefs) != 1 || one.ForwardRefs[0] != 2 {
		t.Errorf("got forward refs %v, expected [2]", one.ForwardRefs)
	}
}

func TestBareLabelLine(t *testing.T) {
	listing := pass(t, `START 100
LOOP:
ADD AREG,LOOP
END`)

	checkSymbols(t, listing, "LOOP\t100\n")
	checkRecordAddrs(t, listing, []int{100, 100, 100, 101})
	if len(listing.Errors) != 0 {
		t.Errorf("got errors %v, expected none", listing.Errors)
	}
}

func TestTrailingWhitespaceStripped(t *testing.T) {
	listing := pass(t, "START 100\nA DS 1   \nEND\n")

	var buf bytes.Buffer
	listing.WriteIntermediate(&buf)

	expected := "100    START 100\n" +
		"100    A DS 1\n" +
		"101    END\n"
	if got := buf.String(); got != expected {
		t.Error("intermediate stream doesn't match expected")
		t.Errorf("got:\n%s", got)
		t.Errorf("exp:\n%s", expected)
	}
}

func TestWriteIntermediate(t *testing.T) {
	listing := pass(t, `START 100
; reserve storage
A DS 1
END`)

	var buf bytes.Buffer
	listing.WriteIntermediate(&buf)

	expected := "100    START 100\n" +
		"       ; reserve storage\n" +
		"100    A DS 1\n" +
		"101    END\n"
	if got := buf.String(); got != expected {
		t.Error("intermediate stream doesn't match expected")
		t.Errorf("got:\n%s", got)
		t.Errorf("exp:\n%s", expected)
	}
}

func TestDeterministicOutput(t *testing.T) {
	code := `START 100
MOVER AREG,X
MOVER BREG,Y
ADD AREG,=5
X DC 1
Y DC 1
LTORG
END`

	dump := func(l *Listing) string {
		var buf bytes.Buffer
		l.WriteIntermediate(&buf)
		l.WriteSymbols(&buf)
		l.WriteLiterals(&buf)
		return buf.String()
	}

	expected := dump(pass(t, code))
	for i := 0; i < 8; i++ {
		if got := dump(pass(t, code)); got != expected {
			t.Fatalf("output varies between runs\ngot:\n%s\nexp:\n%s", got, expected)
		}
	}
}

func TestResolveExpr(t *testing.T) {
	listing := pass(t, `START 100
BASE DS 4
TOP EQU BASE+3
LOW EQU BASE-1
NUM EQU 42
END`)

	checkSymbols(t, listing, "BASE\t100\nTOP\t103\nLOW\t99\nNUM\t42\n")
}
