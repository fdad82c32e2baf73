// Copyright 2026 Adam Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package asm implements pass one of a two-pass assembler for a small
// pseudo-machine. The pass scans the source once, assigns addresses with a
// location counter, and builds the symbol, literal and pool tables while
// emitting an address-annotated intermediate record stream for the next
// pass.
//
// Unresolved references and unknown opcodes degrade the output rather than
// aborting the pass: forward references are accumulated on the symbol, and
// unrecognized lines are carried through to the intermediate stream without
// consuming space.
package asm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// An opcodeData describes one imperative opcode. Every opcode in this
// instruction set occupies a fixed number of words.
type opcodeData struct {
	length int
}

var opcodes = map[string]opcodeData{
	"MOVER": {length: 1},
	"MOVEM": {length: 1},
	"ADD":   {length: 1},
	"SUB":   {length: 1},
	"MULT":  {length: 1},
	"DIV":   {length: 1},
	"BC":    {length: 1},
	"COMP":  {length: 1},
	"READ":  {length: 1},
	"PRINT": {length: 1},
}

type directiveData struct {
	fn func(p *pass1, stmt statement, line fstring)
}

var directives = map[string]directiveData{
	// START is intercepted by the driver before dispatch; the entry exists
	// so the line parser classifies it as a directive.
	"START":  {},
	"END":    {fn: (*pass1).parseEnd},
	"LTORG":  {fn: (*pass1).parseLtorg},
	"ORIGIN": {fn: (*pass1).parseOrigin},
	"EQU":    {fn: (*pass1).parseEquate},
	"DS":     {fn: (*pass1).parseReserve},
	"DC":     {fn: (*pass1).parseDeclare},
}

var registers = map[string]bool{
	"AREG": true,
	"BREG": true,
	"CREG": true,
	"DREG": true,
}

// Pass-one driver states.
type state byte

const (
	stateNotStarted state = iota
	stateRunning
	stateDone
)

// An asmerror records a non-fatal condition encountered during the pass.
// The pass always continues; the condition degrades the affected line's
// output instead.
type asmerror struct {
	line fstring
	msg  string
}

// A Record is one line of the intermediate stream: the location-counter
// value assigned to the line (NoAddr for lines that occupy no address) and
// the original line text. Record order is the contract later passes rely
// on.
type Record struct {
	Addr int
	Line string
}

// A Listing is the result of running pass one over a source stream.
type Listing struct {
	Origin   int       // requested start address
	Final    int       // location counter after the pass
	Symbols  []*Symbol // symbol table, in insertion order
	Literals []Literal // literal table, in insertion order
	Pools    []int     // start indices of pools still open (normally empty)
	Records  []Record  // the intermediate stream
	Errors   []string  // non-fatal conditions observed during the pass
}

// Option type used by the Pass1 function.
type Option uint

// Options for the Pass1 function.
const (
	Verbose Option = 1 << iota // verbose output during the pass
)

// The pass1 type is the state object used while scanning the source.
type pass1 struct {
	state    state
	origin   int       // requested start address
	locctr   int       // the location counter
	symbols  *symtab   // the symbol table
	literals []Literal // the literal table
	litIndex map[string]int
	pools    []int    // start index of each still-open literal pool
	records  []Record // the intermediate stream
	errors   []asmerror
	out      io.Writer
	verbose  bool
}

// Pass1 reads pseudo-assembly source from the provided stream and performs
// the first assembler pass over it. The returned listing holds the symbol,
// literal and pool tables and the intermediate record stream. The only
// error returned is a failure to read the stream itself.
func Pass1(r io.Reader, out io.Writer, options Option) (*Listing, error) {
	if out == nil {
		out = os.Stdout
	}

	p := &pass1{
		symbols:  newSymtab(),
		litIndex: make(map[string]int),
		out:      out,
		verbose:  (options & Verbose) != 0,
	}

	p.logSection("Scanning source")

	scanner := bufio.NewScanner(r)
	for row := 1; scanner.Scan(); row++ {
		p.parseLine(newFstring(row, strings.TrimRight(scanner.Text(), " \t\r\n")))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	// Flush any pools still open at end of source.
	p.logSection("Flushing open pools")
	for len(p.pools) > 0 {
		p.flushPool()
	}
	p.state = stateDone

	errors := make([]string, 0, len(p.errors))
	for _, e := range p.errors {
		s := fmt.Sprintf("line %d, col %d: %s", e.line.row, e.line.column+1, e.msg)
		errors = append(errors, s)
	}

	return &Listing{
		Origin:   p.origin,
		Final:    p.locctr,
		Symbols:  p.symbols.order,
		Literals: p.literals,
		Pools:    p.pools,
		Records:  p.records,
		Errors:   errors,
	}, nil
}

// Pass1File reads a source file, runs pass one on it, and writes the
// intermediate stream plus the symbol and literal table dumps next to the
// source file.
func Pass1File(path string, options Option, out io.Writer) error {
	inFile, err := os.Open(path)
	if err != nil {
		return err
	}
	defer inFile.Close()

	listing, err := Pass1(inFile, out, options)
	if err != nil {
		return err
	}

	for _, e := range listing.Errors {
		fmt.Fprintln(out, e)
	}

	ext := filepath.Ext(path)
	prefix := path[:len(path)-len(ext)]

	outputs := []struct {
		path  string
		write func(io.Writer) error
	}{
		{prefix + ".int", listing.WriteIntermediate},
		{prefix + ".sym", listing.WriteSymbols},
		{prefix + ".lit", listing.WriteLiterals},
	}
	for _, o := range outputs {
		file, err := os.OpenFile(o.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
		if err != nil {
			return err
		}
		err = o.write(file)
		file.Close()
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "Processed '%s' to produce '%s', '%s' and '%s'.\n",
		filepath.Base(path),
		filepath.Base(prefix+".int"),
		filepath.Base(prefix+".sym"),
		filepath.Base(prefix+".lit"))
	return nil
}

// WriteIntermediate writes the intermediate record stream: the address
// left-justified in a fixed-width field, then the original line. Lines with
// no address carry an empty field.
func (l *Listing) WriteIntermediate(w io.Writer) error {
	for _, rec := range l.Records {
		addr := ""
		if rec.Addr != NoAddr {
			addr = strconv.Itoa(rec.Addr)
		}
		if _, err := fmt.Fprintf(w, "%-6s %s\n", addr, rec.Line); err != nil {
			return err
		}
	}
	return nil
}

// WriteSymbols writes one NAME<tab>ADDRESS row per symbol, in insertion
// order, with '-' for symbols that never received an address.
func (l *Listing) WriteSymbols(w io.Writer) error {
	for _, sym := range l.Symbols {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", sym.Name, addrString(sym.Addr)); err != nil {
			return err
		}
	}
	return nil
}

// WriteLiterals writes one TEXT<tab>ADDRESS row per literal, in insertion
// order.
func (l *Listing) WriteLiterals(w io.Writer) error {
	for _, lit := range l.Literals {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", lit.Text, addrString(lit.Addr)); err != nil {
			return err
		}
	}
	return nil
}

func addrString(addr int) string {
	if addr == NoAddr {
		return "-"
	}
	return strconv.Itoa(addr)
}

// Parse a single line of source code.
func (p *pass1) parseLine(line fstring) {
	stmt, ok := parseStatement(line)
	if !ok {
		// Blank or comment-only lines carry no address but keep their
		// place in the intermediate stream.
		p.records = append(p.records, Record{Addr: NoAddr, Line: line.full})
		return
	}

	if stmt.op == "START" {
		p.parseStart(stmt, line)
		return
	}

	// An implicit start: the first actionable line fixes the origin at 0.
	if p.state == stateNotStarted {
		p.state = stateRunning
		p.origin, p.locctr = 0, 0
	}

	if !stmt.label.isEmpty() {
		p.symbols.add(stmt.label.str, p.locctr, true, line.row)
		p.logLine(stmt.label, "label=%s addr=%d", stmt.label.str, p.locctr)
	}

	p.records = append(p.records, Record{Addr: p.locctr, Line: line.full})

	// A label-only line defines the label and nothing else.
	if stmt.op == "" {
		return
	}

	if d, found := directives[stmt.op]; found {
		if d.fn != nil {
			d.fn(p, stmt, line)
		}
		return
	}

	if data, found := opcodes[stmt.op]; found {
		p.parseInstruction(stmt, data, line.row)
		return
	}

	// Unknown opcode: the line stays in the intermediate stream but
	// consumes no space.
	p.addError(line, "unknown opcode '%s'", stmt.op)
}

// Parse the START directive: enter the running state and set the location
// counter from the operand, an integer or a resolvable expression,
// defaulting to 0.
func (p *pass1) parseStart(stmt statement, line fstring) {
	p.state = stateRunning
	switch {
	case stmt.operands == "":
		p.origin, p.locctr = 0, 0
	default:
		if v, err := strconv.Atoi(stmt.operands); err == nil {
			p.origin, p.locctr = v, v
		} else if v, ok := p.resolveExpr(stmt.operands); ok {
			p.locctr = v
		} else {
			p.addError(line, "start operand '%s' could not be resolved", stmt.operands)
			p.locctr = 0
		}
	}
	p.logLine(line, "start=%d", p.locctr)

	if !stmt.label.isEmpty() {
		p.symbols.add(stmt.label.str, p.locctr, true, line.row)
	}
	p.records = append(p.records, Record{Addr: p.locctr, Line: line.full})
}

// Parse the END directive: flush every still-open literal pool. The
// counter itself is unaffected beyond the flushed literals.
func (p *pass1) parseEnd(stmt statement, line fstring) {
	for len(p.pools) > 0 {
		p.flushPool()
	}
}

// Parse the LTORG directive: flush the one open literal pool, if any.
func (p *pass1) parseLtorg(stmt statement, line fstring) {
	p.flushPool()
}

// Parse the ORIGIN directive: overwrite the location counter with the
// resolved operand. An unresolved origin leaves the counter unchanged.
func (p *pass1) parseOrigin(stmt statement, line fstring) {
	if stmt.operands == "" {
		return
	}
	if v, ok := p.resolveExpr(stmt.operands); ok {
		p.log("origin %d -> %d", p.locctr, v)
		p.locctr = v
	} else {
		p.addError(line, "origin expression '%s' could not be resolved", stmt.operands)
	}
}

// Parse the EQU directive: define the label with the resolved operand
// value. An unresolved operand leaves the label undefined and records the
// line as a forward reference.
func (p *pass1) parseEquate(stmt statement, line fstring) {
	if stmt.label.isEmpty() || stmt.operands == "" {
		return
	}
	if v, ok := p.resolveExpr(stmt.operands); ok {
		p.symbols.add(stmt.label.str, v, true, line.row)
		p.logLine(stmt.label, "equate=%s val=%d", stmt.label.str, v)
	} else {
		p.symbols.add(stmt.label.str, NoAddr, false, line.row)
		p.addError(line, "equate expression '%s' could not be resolved", stmt.operands)
	}
}

// Parse the DS directive: advance the counter by the resolved operand,
// defaulting to one word.
func (p *pass1) parseReserve(stmt statement, line fstring) {
	size := 1
	if stmt.operands != "" {
		if v, err := strconv.Atoi(stmt.operands); err == nil {
			size = v
		} else if v, ok := p.resolveExpr(stmt.operands); ok {
			size = v
		} else {
			p.addError(line, "reserve size '%s' could not be resolved", stmt.operands)
		}
	}
	p.locctr += size
}

// Parse the DC directive: one word per occurrence.
func (p *pass1) parseDeclare(stmt statement, line fstring) {
	p.locctr++
}

// Parse an imperative instruction: classify each operand as register,
// literal, integer or symbol reference, then advance the counter by the
// opcode's fixed word length.
func (p *pass1) parseInstruction(stmt statement, data opcodeData, row int) {
	for _, op := range splitOperands(stmt.operands) {
		switch {
		case isRegister(op):
			// registers occupy no table entry

		case isLiteralToken(op):
			i := p.addLiteral(op)
			p.log("literal %s -> index %d", op, i)

		case isInteger(op):
			// immediate value, nothing to record

		default:
			p.refSymbol(op, row)
		}
	}
	p.locctr += data.length
}

// refSymbol records a symbol operand reference. An unseen symbol is created
// undefined with the referencing line number; a seen-but-undefined symbol
// accumulates the line number as another forward reference.
func (p *pass1) refSymbol(name string, row int) {
	if sym := p.symbols.lookup(name); sym != nil {
		if !sym.Defined {
			sym.ForwardRefs = append(sym.ForwardRefs, row)
		}
		return
	}
	p.symbols.add(name, NoAddr, false, row)
	p.log("forward ref %s @ line %d", name, row)
}

// addLiteral inserts a literal into the literal table, deduplicated by
// exact text across the whole table. The first literal added after the
// previous pool closed implicitly opens a new pool.
func (p *pass1) addLiteral(text string) int {
	if i, found := p.litIndex[text]; found {
		return i
	}
	if len(p.pools) == 0 {
		p.pools = append(p.pools, len(p.literals))
	}
	p.literals = append(p.literals, Literal{Text: text, Addr: NoAddr})
	i := len(p.literals) - 1
	p.litIndex[text] = i
	return i
}

// flushPool closes the currently open literal pool, assigning contiguous
// addresses from the location counter to every not-yet-addressed literal
// from the pool's start index to the end of the table. Flushing with no
// open pool is a no-op.
func (p *pass1) flushPool() {
	if len(p.pools) == 0 {
		return
	}
	start := p.pools[len(p.pools)-1]
	p.pools = p.pools[:len(p.pools)-1]
	for i := start; i < len(p.literals); i++ {
		if p.literals[i].Addr == NoAddr {
			p.literals[i].Addr = p.locctr
			p.log("pool literal %s @ %d", p.literals[i].Text, p.locctr)
			p.locctr++
		}
	}
}

// addError records a non-fatal condition against a source line. In verbose
// mode the line is echoed with a column marker.
func (p *pass1) addError(l fstring, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	p.errors = append(p.errors, asmerror{l, msg})
	if p.verbose {
		fmt.Fprintf(p.out, "Warning on line %d, col %d: %s\n", l.row, l.column+1, msg)
		fmt.Fprintln(p.out, l.full)
		for i := 0; i < l.column; i++ {
			fmt.Fprintf(p.out, "-")
		}
		fmt.Fprintln(p.out, "^")
	}
}

// In verbose mode, log a string to the output writer.
func (p *pass1) log(format string, args ...any) {
	if p.verbose {
		fmt.Fprintf(p.out, format, args...)
		fmt.Fprintf(p.out, "\n")
	}
}

// In verbose mode, log a string and its associated line of source code.
func (p *pass1) logLine(line fstring, format string, args ...any) {
	if p.verbose {
		detail := fmt.Sprintf(format, args...)
		fmt.Fprintf(p.out, "%-3d %-3d | %-24s | %s\n", line.row, line.column+1, detail, line.str)
	}
}

// In verbose mode, log a section header to the output writer.
func (p *pass1) logSection(name string) {
	if p.verbose {
		fmt.Fprintln(p.out, strings.Repeat("-", len(name)+6))
		fmt.Fprintf(p.out, "-- %s --\n", name)
		fmt.Fprintln(p.out, strings.Repeat("-", len(name)+6))
	}
}
