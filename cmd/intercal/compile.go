package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"

	"intercal/internal/analyzer"
	"intercal/internal/interp"
	"intercal/internal/optimizer"
	"intercal/internal/parser"
	"intercal/internal/printer"
)

type compileOptions struct {
	Out        string `short:"o" long:"out" description:"Write the optimized source here instead of stdout"`
	NoOptimize bool   `long:"no-optimize" description:"Skip the optimizer passes"`
}

func compileCommand(args []string) error {
	var opts compileOptions
	p := flags.NewParser(&opts, flags.Default)
	p.Usage = "[options] <file.i>"
	rest, err := p.ParseArgs(args)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return fmt.Errorf("expected exactly one file argument, got %d", len(rest))
	}

	source, err := os.ReadFile(rest[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", rest[0], err)
	}

	prog := parser.Parse(string(source))
	analyzer.Analyze(prog)
	if !opts.NoOptimize {
		prog = optimizer.Optimize(prog, optimizer.DefaultOptions(), interp.RunToSink)
	}

	out := printer.Print(prog)
	if opts.Out == "" {
		fmt.Print(out)
		return nil
	}
	return os.WriteFile(opts.Out, []byte(out), 0o644)
}
