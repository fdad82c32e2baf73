// Copyright 2026 Adam Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package host provides an interactive environment for the pseudo-machine
// assembler toolchain. Within the host it is possible to run the first
// assembler pass on source files, inspect the resulting symbol, literal and
// pool tables and the intermediate stream, load macro name and definition
// tables, and expand macro invocations in intermediate files.
package host

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/beevik/cmd"
	"github.com/beevik/term"

	"github.com/avickers/pasm/asm"
	"github.com/avickers/pasm/macro"
)

// A Host runs assembler and macro-processor commands read from an input
// stream and reports results to an output stream.
type Host struct {
	input       *bufio.Scanner
	output      *bufio.Writer
	interactive bool
	lastCmd     *cmd.Selection
	settings    *settings
	listing     *asm.Listing     // result of the most recent assemble
	names       *macro.NameTable // loaded macro name table
	defs        *macro.DefTable  // loaded macro definition table
}

// New creates a new host environment.
func New() *Host {
	return &Host{
		settings: newSettings(),
	}
}

// AssembleFile runs pass one on a source file, writing the intermediate
// stream and table dumps next to it.
func (h *Host) AssembleFile(path string) error {
	var options asm.Option
	if h.settings.Verbose {
		options |= asm.Verbose
	}
	return asm.Pass1File(path, options, os.Stdout)
}

// RunCommands accepts host commands from a reader and outputs the results
// to a writer. If the commands are interactive, a prompt is displayed while
// the host waits for the next command to be entered.
func (h *Host) RunCommands(r io.Reader, w io.Writer, interactive bool) {
	h.input = bufio.NewScanner(r)
	h.output = bufio.NewWriter(w)
	h.interactive = interactive

	if interactive {
		h.println()
	}

	for {
		h.prompt()

		line, err := h.getLine()
		if err != nil {
			break
		}

		var c cmd.Selection
		if line != "" {
			c, err = cmds.Lookup(line)
			switch {
			case err == cmd.ErrNotFound:
				h.println("Command not found.")
				continue
			case err == cmd.ErrAmbiguous:
				h.println("Command is ambiguous.")
				continue
			case err != nil:
				h.printf("ERROR: %v.\n", err)
				continue
			}
		} else if h.lastCmd != nil {
			c = *h.lastCmd
		}

		if c.Command == nil {
			continue
		}
		h.lastCmd = &c

		handler := c.Command.Data.(func(*Host, cmd.Selection) error)
		err = handler(h, c)
		if err != nil {
			break
		}
	}

	h.flush()
}

func (h *Host) print(args ...any) {
	fmt.Fprint(h.output, args...)
}

func (h *Host) printf(format string, args ...any) {
	fmt.Fprintf(h.output, format, args...)
	h.flush()
}

func (h *Host) println(args ...any) {
	fmt.Fprintln(h.output, args...)
	h.flush()
}

func (h *Host) flush() {
	h.output.Flush()
}

func (h *Host) getLine() (string, error) {
	if h.input.Scan() {
		return h.input.Text(), nil
	}
	if h.input.Err() != nil {
		return "", h.input.Err()
	}
	return "", io.EOF
}

func (h *Host) prompt() {
	if h.interactive {
		h.printf("* ")
		h.flush()
	}
}

// displayUsage shows the usage line for a command, looked up from its
// descriptor.
func (h *Host) displayUsage(c *cmd.Command) {
	if d := findDescriptor(c.Name); d != nil && d.Usage != "" {
		h.printf("Usage: %s\n", d.Usage)
	}
}

func (h *Host) cmdHelp(c cmd.Selection) error {
	switch {
	case len(c.Args) == 0:
		h.println("pasm commands:")
		for _, d := range rootCommands {
			if d.Brief != "" {
				h.printf("    %-14s %s\n", d.Name, d.Brief)
			}
		}
		h.printf("    %-14s %s\n", "macro", "Macro processor commands")
		for _, d := range macroCommands {
			h.printf("    %-14s %s\n", "macro "+d.Name, d.Brief)
		}
		h.println()

	default:
		s, err := cmds.Lookup(strings.Join(c.Args, " "))
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		if s.Command == nil {
			return nil
		}
		if d := findDescriptor(s.Command.Name); d != nil {
			if d.Usage != "" {
				h.printf("Usage: %s\n\n", d.Usage)
			}
			switch {
			case d.Description != "":
				h.printf("Description:\n   %s\n\n", d.Description)
			case d.Brief != "":
				h.printf("Description:\n   %s.\n\n", d.Brief)
			}
		}
	}
	return nil
}

func (h *Host) cmdAssemble(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c.Command)
		return nil
	}

	filename := c.Args[0]
	if filepath.Ext(filename) == "" {
		filename += ".asm"
	}

	file, err := os.Open(filename)
	if err != nil {
		h.printf("Failed to open '%s': %v\n", filepath.Base(filename), err)
		return nil
	}
	defer file.Close()

	var options asm.Option
	if h.settings.Verbose {
		options |= asm.Verbose
	}

	listing, err := asm.Pass1(file, h.output, options)
	if err != nil {
		h.printf("Failed to assemble '%s': %v\n", filepath.Base(filename), err)
		return nil
	}
	h.listing = listing

	for _, e := range listing.Errors {
		h.println(e)
	}

	ext := filepath.Ext(filename)
	prefix := filename[:len(filename)-len(ext)]
	outputs := []struct {
		path  string
		write func(io.Writer) error
	}{
		{prefix + ".int", listing.WriteIntermediate},
		{prefix + ".sym", listing.WriteSymbols},
		{prefix + ".lit", listing.WriteLiterals},
	}
	for _, o := range outputs {
		f, err := os.OpenFile(o.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
		if err != nil {
			h.printf("Failed to create '%s': %v\n", filepath.Base(o.path), err)
			return nil
		}
		err = o.write(f)
		f.Close()
		if err != nil {
			h.printf("Failed to save '%s': %v\n", filepath.Base(o.path), err)
			return nil
		}
	}

	h.printf("Assembled '%s': %d symbols, %d literals, final counter %d.\n",
		filepath.Base(filename), len(listing.Symbols), len(listing.Literals),
		listing.Final)
	return nil
}

func (h *Host) cmdSymbols(c cmd.Selection) error {
	if h.listing == nil {
		h.println("No assembly loaded. Use the assemble command first.")
		return nil
	}
	h.printf("%-15s%-10s%-10s%s\n", "Symbol", "Address", "Defined", "FwdRefs")
	for _, sym := range h.listing.Symbols {
		h.printf("%-15s%-10s%-10v%v\n",
			sym.Name, addrString(sym.Addr), sym.Defined, sym.ForwardRefs)
	}
	return nil
}

func (h *Host) cmdLiterals(c cmd.Selection) error {
	if h.listing == nil {
		h.println("No assembly loaded. Use the assemble command first.")
		return nil
	}
	h.printf("%-6s%-12s%s\n", "Index", "Literal", "Address")
	for i, lit := range h.listing.Literals {
		h.printf("%-6d%-12s%s\n", i, lit.Text, addrString(lit.Addr))
	}
	return nil
}

func (h *Host) cmdPools(c cmd.Selection) error {
	if h.listing == nil {
		h.println("No assembly loaded. Use the assemble command first.")
		return nil
	}
	if len(h.listing.Pools) == 0 {
		h.println("[] (all pools allocated)")
	} else {
		h.printf("%v\n", h.listing.Pools)
	}
	return nil
}

func (h *Host) cmdIntermediate(c cmd.Selection) error {
	if h.listing == nil {
		h.println("No assembly loaded. Use the assemble command first.")
		return nil
	}

	count := h.settings.SourceLines
	if len(c.Args) > 0 {
		v, err := strconv.Atoi(c.Args[0])
		if err != nil {
			h.printf("Invalid count '%s'.\n", c.Args[0])
			return nil
		}
		count = v
	} else if h.interactive && term.IsTerminal(int(os.Stdout.Fd())) {
		// Fit one screen by default when attached to a terminal.
		if _, rows, err := term.GetSize(int(os.Stdout.Fd())); err == nil && rows > 2 {
			count = min(count, rows-2)
		}
	}

	pad := h.settings.AddressPad
	for i, rec := range h.listing.Records {
		if i >= count {
			h.printf("... (%d more lines)\n", len(h.listing.Records)-count)
			break
		}
		addr := ""
		if rec.Addr != asm.NoAddr {
			addr = strconv.Itoa(rec.Addr)
		}
		h.printf("%-*s %s\n", pad, addr, rec.Line)
	}
	return nil
}

func (h *Host) cmdMacroLoad(c cmd.Selection) error {
	if len(c.Args) < 2 {
		h.displayUsage(c.Command)
		return nil
	}

	mntFile, err := os.Open(c.Args[0])
	if err != nil {
		h.printf("Failed to open '%s': %v\n", filepath.Base(c.Args[0]), err)
		return nil
	}
	defer mntFile.Close()

	mdtFile, err := os.Open(c.Args[1])
	if err != nil {
		h.printf("Failed to open '%s': %v\n", filepath.Base(c.Args[1]), err)
		return nil
	}
	defer mdtFile.Close()

	names, err := macro.LoadNameTable(mntFile)
	if err != nil {
		h.printf("Failed to load name table: %v\n", err)
		return nil
	}
	defs, err := macro.LoadDefTable(mdtFile)
	if err != nil {
		h.printf("Failed to load definition table: %v\n", err)
		return nil
	}

	h.names, h.defs = names, defs
	h.printf("Loaded %d macro names and %d definition lines.\n",
		names.Len(), defs.Len())
	return nil
}

func (h *Host) cmdMacroExpand(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c.Command)
		return nil
	}
	if h.names == nil || h.defs == nil {
		h.println("No macro tables loaded. Use the macro load command first.")
		return nil
	}

	filename := c.Args[0]
	outPath := filename[:len(filename)-len(filepath.Ext(filename))] + ".exp"
	if len(c.Args) >= 2 {
		outPath = c.Args[1]
	}

	inFile, err := os.Open(filename)
	if err != nil {
		h.printf("Failed to open '%s': %v\n", filepath.Base(filename), err)
		return nil
	}
	defer inFile.Close()

	outFile, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		h.printf("Failed to create '%s': %v\n", filepath.Base(outPath), err)
		return nil
	}
	defer outFile.Close()

	err = macro.NewExpander(h.names, h.defs).Expand(inFile, outFile)
	if err != nil {
		h.printf("Failed to expand '%s': %v\n", filepath.Base(filename), err)
		return nil
	}

	h.printf("Expanded '%s' to '%s'.\n",
		filepath.Base(filename), filepath.Base(outPath))
	return nil
}

func (h *Host) cmdMacroList(c cmd.Selection) error {
	if h.names == nil {
		h.println("No macro tables loaded. Use the macro load command first.")
		return nil
	}
	h.printf("%-15s%-10s%s\n", "Name", "MDT", "Params")
	for _, name := range h.names.Names() {
		e, _ := h.names.Lookup(name)
		h.printf("%-15s%-10d%d\n", name, e.Start, e.Params)
	}
	return nil
}

func (h *Host) cmdSet(c cmd.Selection) error {
	switch len(c.Args) {
	case 0:
		h.println("Variables:")
		h.settings.Display(h.output)

	case 1:
		h.displayUsage(c.Command)

	default:
		key, value := strings.ToLower(c.Args[0]), strings.Join(c.Args[1:], " ")

		var err error
		switch h.settings.Kind(key) {
		case reflect.Invalid:
			err = fmt.Errorf("Setting '%s' not found", key)
		case reflect.String:
			err = h.settings.Set(key, value)
		case reflect.Bool:
			var v bool
			v, err = stringToBool(value)
			if err == nil {
				err = h.settings.Set(key, v)
			}
		default:
			var v int
			v, err = strconv.Atoi(value)
			if err == nil {
				err = h.settings.Set(key, v)
			}
		}

		if err == nil {
			h.println("Setting updated.")
		} else {
			h.printf("%v\n", err)
		}
	}

	return nil
}

func (h *Host) cmdQuit(c cmd.Selection) error {
	return errors.New("Exiting program")
}

func addrString(addr int) string {
	if addr == asm.NoAddr {
		return "-"
	}
	return strconv.Itoa(addr)
}
