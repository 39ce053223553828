package main

import (
	"fmt"
	"os"

	"intercal/internal/analyzer"
	"intercal/internal/parser"
	"intercal/internal/printer"
)

// fmtCommand pretty-prints a program's statement stream as parsed, with
// no optimization: it's meant to show a human what the parser actually
// saw (labels, gerunds, resolved var/expr shapes), not a minimized
// rewrite.
func fmtCommand(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: intercal fmt <file.i>")
	}
	source, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	prog := parser.Parse(string(source))
	analyzer.Analyze(prog)
	fmt.Print(printer.Print(prog))
	return nil
}
