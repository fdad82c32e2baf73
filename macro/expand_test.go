// Copyright 2026 Adam Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package macro

import (
	"bytes"
	"strings"
	"testing"
)

func loadTables(t *testing.T, mnt, mdt string) (*NameTable, *DefTable) {
	t.Helper()
	names, err := LoadNameTable(strings.NewReader(mnt))
	if err != nil {
		t.Fatal(err)
	}
	defs, err := LoadDefTable(strings.NewReader(mdt))
	if err != nil {
		t.Fatal(err)
	}
	return names, defs
}

func checkExpand(t *testing.T, e *Expander, line string, expected []string) {
	t.Helper()
	got := e.ExpandLine(line)
	if len(got) != len(expected) {
		t.Errorf("ExpandLine(%q): got %d lines, expected %d", line, len(got), len(expected))
		t.Errorf("got: %q", got)
		return
	}
	for i := range got {
		if got[i] != expected[i] {
			t.Errorf("ExpandLine(%q) line %d:", line, i)
			t.Errorf("got: %q", got[i])
			t.Errorf("exp: %q", expected[i])
		}
	}
}

const (
	incrMNT = "INCR 10 2\n"
	incrMDT = "10 INCR\n" +
		"11   ADD (P,1),(P,2)\n" +
		"12 MEND\n"
)

func TestExpandSimple(t *testing.T) {
	e := NewExpander(loadTables(t, incrMNT, incrMDT))

	checkExpand(t, e, "  INCR X,5", []string{"  ADD X,5"})
}

func TestExpandMissingArgs(t *testing.T) {
	e := NewExpander(loadTables(t, incrMNT, incrMDT))

	// A placeholder beyond the argument list substitutes as empty text.
	checkExpand(t, e, "INCR X", []string{"ADD X,"})
	checkExpand(t, e, "INCR", []string{"ADD ,"})
}

func TestExpandPrefixPreserved(t *testing.T) {
	e := NewExpander(loadTables(t, incrMNT, incrMDT))

	// Everything before the macro name survives on every emitted line.
	checkExpand(t, e, "HERE INCR A,B", []string{"HERE ADD A,B"})
	checkExpand(t, e, "\tINCR A,B", []string{"\tADD A,B"})
}

func TestExpandNonMacroLine(t *testing.T) {
	e := NewExpander(loadTables(t, incrMNT, incrMDT))

	checkExpand(t, e, "MOVER AREG,X", []string{"MOVER AREG,X"})
	checkExpand(t, e, "", []string{""})
}

func TestExpandMultiLineBody(t *testing.T) {
	mnt := "SWAP 20 3\n"
	mdt := "20 SWAP\n" +
		"21 MOVER AREG,(P,1)\n" +
		"22 MOVEM (P,2),(P,1)\n" +
		"23 MOVEM AREG,(P,2)\n" +
		"24 MEND\n"
	e := NewExpander(loadTables(t, mnt, mdt))

	checkExpand(t, e, "SWAP X,Y,TMP", []string{
		"MOVER AREG,X",
		"MOVEM Y,X",
		"MOVEM AREG,Y",
	})
}

func TestExpandTruncatedDefinition(t *testing.T) {
	// A hole in the definition table before MEND silently truncates the
	// expansion.
	mnt := "INCR 10 2\n"
	mdt := "10 INCR\n" +
		"12 MEND\n"
	e := NewExpander(loadTables(t, mnt, mdt))

	checkExpand(t, e, "INCR X,5", nil)
}

func TestExpandStream(t *testing.T) {
	e := NewExpander(loadTables(t, incrMNT, incrMDT))

	src := "START 100\n" +
		"  INCR X,5\n" +
		"X DC 1\n" +
		"END\n"
	var buf bytes.Buffer
	if err := e.Expand(strings.NewReader(src), &buf); err != nil {
		t.Fatal(err)
	}

	expected := "START 100\n" +
		"  ADD X,5\n" +
		"X DC 1\n" +
		"END\n"
	if got := buf.String(); got != expected {
		t.Error("expanded stream doesn't match expected")
		t.Errorf("got:\n%s", got)
		t.Errorf("exp:\n%s", expected)
	}
}

func TestSubstituteWhitespace(t *testing.T) {
	mnt := "PAD 30 1\n"
	mdt := "30 PAD\n" +
		"31 DS (P , 1)\n" +
		"32 DC (P,1 )\n" +
		"33 MEND\n"
	e := NewExpander(loadTables(t, mnt, mdt))

	// Whitespace is tolerated around the comma but not before the closing
	// parenthesis.
	checkExpand(t, e, "PAD 4", []string{"DS 4", "DC (P,1 )"})
}

func TestLoadNameTable(t *testing.T) {
	mnt := "NAME   MDT_INDEX  PARAMS\n" +
		"\n" +
		"INCR 10 2\n" +
		"bogus\n" +
		"SWAP notanumber\n" +
		"CLEAR 20\n"
	names, err := LoadNameTable(strings.NewReader(mnt))
	if err != nil {
		t.Fatal(err)
	}

	if names.Len() != 2 {
		t.Fatalf("got %d names, expected 2", names.Len())
	}
	if e, ok := names.Lookup("INCR"); !ok || e.Start != 10 || e.Params != 2 {
		t.Errorf("got INCR %+v ok=%v, expected start=10 params=2", e, ok)
	}
	if e, ok := names.Lookup("CLEAR"); !ok || e.Start != 20 || e.Params != 0 {
		t.Errorf("got CLEAR %+v ok=%v, expected start=20 params=0", e, ok)
	}
	if got := names.Names(); len(got) != 2 || got[0] != "INCR" || got[1] != "CLEAR" {
		t.Errorf("got names %v, expected [INCR CLEAR]", got)
	}
}

func TestLoadDefTable(t *testing.T) {
	mdt := "MDT_INDEX  LINE\n" +
		"\n" +
		"10 INCR\n" +
		"11   ADD (P,1),(P,2)\n" +
		"junk row\n" +
		"12 MEND\n"
	defs, err := LoadDefTable(strings.NewReader(mdt))
	if err != nil {
		t.Fatal(err)
	}

	if defs.Len() != 3 {
		t.Fatalf("got %d lines, expected 3", defs.Len())
	}
	if text, ok := defs.Line(11); !ok || text != "ADD (P,1),(P,2)" {
		t.Errorf("got line 11 %q ok=%v, expected \"ADD (P,1),(P,2)\"", text, ok)
	}
}
