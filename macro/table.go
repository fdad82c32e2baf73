// Copyright 2026 Adam Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package macro

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// A NameEntry holds the definition-table start index and the declared
// parameter count for one macro name.
type NameEntry struct {
	Start  int // index of the macro's first line in the definition table
	Params int // declared parameter count (not validated against calls)
}

// A NameTable is the macro name table (MNT): a lookup from macro name to
// its definition-table entry. Load order is preserved for reporting.
type NameTable struct {
	entries map[string]NameEntry
	names   []string
}

// LoadNameTable parses macro name table text. Each row is
// NAME MDT_START_INDEX [PARAM_COUNT], whitespace-separated. An optional
// header row and blank rows are tolerated; a malformed row is skipped, not
// fatal.
func LoadNameTable(r io.Reader) (*NameTable, error) {
	t := &NameTable{entries: make(map[string]NameEntry)}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		upper := strings.ToUpper(line)
		if strings.HasPrefix(upper, "NAME") && strings.Contains(upper, "MDT") {
			continue // header row
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		start, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		params := 0
		if len(fields) >= 3 {
			if v, err := strconv.Atoi(fields[2]); err == nil {
				params = v
			}
		}

		name := fields[0]
		if _, seen := t.entries[name]; !seen {
			t.names = append(t.names, name)
		}
		t.entries[name] = NameEntry{Start: start, Params: params}
	}
	return t, scanner.Err()
}

// Lookup returns the entry for a macro name.
func (t *NameTable) Lookup(name string) (NameEntry, bool) {
	e, found := t.entries[name]
	return e, found
}

// Names returns the macro names in load order.
func (t *NameTable) Names() []string {
	return t.names
}

// Len returns the number of macro names in the table.
func (t *NameTable) Len() int {
	return len(t.entries)
}

// A DefTable is the macro definition table (MDT): a lookup from line index
// to raw body line text. Body lines may still contain positional parameter
// placeholders.
type DefTable struct {
	lines map[int]string
}

// LoadDefTable parses macro definition table text. Each row is INDEX
// followed by the stored line text; the first whitespace run separates the
// two, and the text may itself contain arbitrary whitespace. An optional
// header row, blank rows and malformed rows are tolerated.
func LoadDefTable(r io.Reader) (*DefTable, error) {
	t := &DefTable{lines: make(map[int]string)}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(line)), "MDT_INDEX") {
			continue // header row
		}

		idxStr, text := splitIndex(line)
		idx, err := strconv.Atoi(idxStr)
		if err != nil {
			continue
		}
		t.lines[idx] = text
	}
	return t, scanner.Err()
}

// Line returns the body line stored at the requested index.
func (t *DefTable) Line(idx int) (string, bool) {
	text, found := t.lines[idx]
	return text, found
}

// Len returns the number of lines in the table.
func (t *DefTable) Len() int {
	return len(t.lines)
}

// splitIndex splits a definition-table row at its first whitespace run.
func splitIndex(line string) (idx, text string) {
	line = strings.TrimLeft(line, " \t")
	i := strings.IndexAny(line, " \t")
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimLeft(line[i:], " \t")
}
