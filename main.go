// Copyright 2026 Adam Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/beevik/term"

	"github.com/avickers/pasm/host"
	"github.com/avickers/pasm/macro"
)

var (
	assemble string
	expand   string
	mnt      string
	mdt      string
	output   string
)

func init() {
	flag.StringVar(&assemble, "a", "", "run pass one on a source file")
	flag.StringVar(&expand, "e", "", "expand macro calls in a file (requires -mnt and -mdt)")
	flag.StringVar(&mnt, "mnt", "", "macro name table file")
	flag.StringVar(&mdt, "mdt", "", "macro definition table file")
	flag.StringVar(&output, "o", "", "output file for -e")
	flag.CommandLine.Usage = func() {
		fmt.Println("Usage: pasm [script] ..\nOptions:")
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()

	h := host.New()

	// Do command-line assemble if requested.
	if assemble != "" {
		err := h.AssembleFile(assemble)
		if err != nil {
			fmt.Printf("Failed to assemble file '%s'.\n", assemble)
		}
		os.Exit(0)
	}

	// Do command-line macro expansion if requested.
	if expand != "" {
		if mnt == "" || mdt == "" {
			exitOnError(fmt.Errorf("-e requires -mnt and -mdt"))
		}
		out := output
		if out == "" {
			out = expand + ".exp"
		}
		err := macro.ExpandFile(expand, mnt, mdt, out)
		if err != nil {
			exitOnError(err)
		}
		os.Exit(0)
	}

	// Run commands contained in command-line files.
	args := flag.Args()
	if len(args) > 0 {
		for _, filename := range args {
			file, err := os.Open(filename)
			if err != nil {
				exitOnError(err)
			}
			h.RunCommands(file, os.Stdout, false)
			file.Close()
		}
	}

	// Run commands interactively, prompting only when attached to a
	// terminal.
	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	h.RunCommands(os.Stdin, os.Stdout, interactive)
}

func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	os.Exit(1)
}
