// Copyright 2026 Adam Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package macro implements pass two of a two-pass macro processor: it
// rewrites macro invocations in an intermediate source stream into their
// expanded bodies, substituting positional parameters from the invocation's
// actual arguments.
//
// The macro name table (MNT) and macro definition table (MDT) it consumes
// are produced by an upstream macro-definition pass; this package only loads
// and applies them.
package macro

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// endMarker terminates a macro body in the definition table. The marker
// line itself is never emitted.
const endMarker = "MEND"

// An Expander rewrites macro invocations in an intermediate source stream
// using a preloaded name table and definition table.
type Expander struct {
	names *NameTable
	defs  *DefTable
}

// NewExpander returns an expander over the given macro tables.
func NewExpander(names *NameTable, defs *DefTable) *Expander {
	return &Expander{names: names, defs: defs}
}

// ExpandLine returns the output lines for a single input line: the line
// itself when no macro name appears on it, otherwise the substituted body
// of the invoked macro.
//
// The first whitespace-delimited token matching a name in the table is
// taken as the invocation site; everything before it is preserved verbatim
// as a prefix on every emitted body line, and everything after it is the
// comma-separated actual-argument list. The argument count is not validated
// against the declared parameter count. A body line whose first token
// equals the macro name is the macro's own header and is suppressed. A
// missing definition-table index before the end marker truncates the
// expansion silently.
func (e *Expander) ExpandLine(line string) []string {
	name, prefix, entry, args, found := e.findCall(line)
	if !found {
		return []string{line}
	}

	var out []string
	for idx := entry.Start; ; idx++ {
		raw, found := e.defs.Line(idx)
		if !found {
			break // truncated definition
		}
		text := strings.TrimRight(raw, " \t")
		trimmed := strings.TrimSpace(text)
		if strings.ToUpper(trimmed) == endMarker {
			break
		}
		if firstField(trimmed) == name {
			continue // the macro's own header line
		}
		out = append(out, prefix+substituteParams(text, args))
	}
	return out
}

// Expand reads an intermediate source stream and writes the expanded
// stream, one emitted line per non-suppressed macro-body line or per
// unchanged non-macro input line, in input order.
func (e *Expander) Expand(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		for _, line := range e.ExpandLine(scanner.Text()) {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return scanner.Err()
}

// ExpandFile loads the macro tables from mntPath and mdtPath, expands the
// intermediate source at srcPath, and writes the expanded stream to
// outPath. Unreadable inputs are fatal for the invocation.
func ExpandFile(srcPath, mntPath, mdtPath, outPath string) error {
	mntFile, err := os.Open(mntPath)
	if err != nil {
		return err
	}
	defer mntFile.Close()

	mdtFile, err := os.Open(mdtPath)
	if err != nil {
		return err
	}
	defer mdtFile.Close()

	srcFile, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	names, err := LoadNameTable(mntFile)
	if err != nil {
		return err
	}
	defs, err := LoadDefTable(mdtFile)
	if err != nil {
		return err
	}

	outFile, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer outFile.Close()

	return NewExpander(names, defs).Expand(srcFile, outFile)
}

// findCall locates the first whitespace-delimited token on the line that
// names a known macro, scanning left to right. The prefix is rebuilt from
// the token's first textual occurrence so label and indentation spacing
// survive expansion.
func (e *Expander) findCall(line string) (name, prefix string, entry NameEntry, args []string, found bool) {
	for _, tok := range strings.Fields(line) {
		entry, ok := e.names.Lookup(tok)
		if !ok {
			continue
		}
		pos := strings.Index(line, tok)
		prefix = line[:pos]
		rest := strings.TrimSpace(line[pos+len(tok):])
		if rest != "" {
			for _, a := range strings.Split(rest, ",") {
				if a = strings.TrimSpace(a); a != "" {
					args = append(args, a)
				}
			}
		}
		return tok, prefix, entry, args, true
	}
	return "", "", NameEntry{}, nil, false
}

// substituteParams replaces every positional parameter placeholder (P,i)
// in the body line with the corresponding actual argument. A 1-based index
// beyond the argument list substitutes as empty text.
func substituteParams(text string, args []string) string {
	var out strings.Builder
	for i := 0; i < len(text); {
		if text[i] == '(' {
			if length, n, ok := scanParamToken(text[i:]); ok {
				if n >= 1 && n <= len(args) {
					out.WriteString(args[n-1])
				}
				i += length
				continue
			}
		}
		out.WriteByte(text[i])
		i++
	}
	return out.String()
}

// scanParamToken matches a placeholder of the form (P,n) at the start of s,
// tolerating whitespace around the comma. It returns the token's length and
// the 1-based parameter index.
func scanParamToken(s string) (length, index int, ok bool) {
	i := 1 // past '('
	if i >= len(s) || s[i] != 'P' {
		return 0, 0, false
	}
	i++
	for i < len(s) && whitespace(s[i]) {
		i++
	}
	if i >= len(s) || s[i] != ',' {
		return 0, 0, false
	}
	i++
	for i < len(s) && whitespace(s[i]) {
		i++
	}
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == start || i >= len(s) || s[i] != ')' {
		return 0, 0, false
	}
	n, err := strconv.Atoi(s[start:i])
	if err != nil {
		return 0, 0, false
	}
	return i + 1, n, true
}

func firstField(s string) string {
	if fields := strings.Fields(s); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

func whitespace(c byte) bool {
	return c == ' ' || c == '\t'
}
