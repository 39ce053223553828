package main

import (
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/kr/pretty"

	"intercal/internal/analyzer"
	"intercal/internal/diag"
	"intercal/internal/interp"
	"intercal/internal/optimizer"
	"intercal/internal/parser"
	"intercal/internal/runlog"
)

type runOptions struct {
	Trace         bool `long:"trace" description:"Print a correlation-tagged trace line per run"`
	DumpAST       bool `long:"dump-ast" description:"Dump the parsed AST before running"`
	DumpOptimized bool `long:"dump-optimized" description:"Dump the AST after optimization"`
	NoOptimize    bool `long:"no-optimize" description:"Skip the optimizer passes"`
}

func runCommand(args []string) error {
	var opts runOptions
	parser2 := flags.NewParser(&opts, flags.Default)
	parser2.Usage = "[options] <file.i>"
	rest, err := parser2.ParseArgs(args)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return fmt.Errorf("expected exactly one file argument, got %d", len(rest))
	}
	filename := rest[0]

	source, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("reading %s: %w", filename, err)
	}

	run := runlog.New(filename, os.Stderr, opts.Trace)
	run.Tracef("parsing")

	prog := parser.Parse(string(source))
	analyzer.Analyze(prog)
	if opts.DumpAST {
		fmt.Fprintf(os.Stderr, "%s\n", diag.Wrap(pretty.Sprint(prog), diag.TerminalWidth(os.Stderr)))
	}
	if politeErr := analyzer.CheckPoliteness(prog); politeErr != nil {
		diag.ReportError(os.Stderr, politeErr)
		return politeErr
	}

	if !opts.NoOptimize {
		run.Tracef("optimizing")
		prog = optimizer.Optimize(prog, optimizer.DefaultOptions(), interp.RunToSink)
	}
	if opts.DumpOptimized {
		fmt.Fprintf(os.Stderr, "%s\n", diag.Wrap(pretty.Sprint(prog), diag.TerminalWidth(os.Stderr)))
	}

	run.Tracef("running")
	e := interp.New(prog, os.Stdin, os.Stdout)
	n, runErr := e.Run()

	summary := diag.Summary{Statements: n, Elapsed: run.Elapsed().Round(time.Microsecond).String()}
	if runErr != nil {
		summary.Errors = 1
		fmt.Fprintln(os.Stderr, summary.Render(os.Stderr))
		diag.ReportError(os.Stderr, runErr)
		return runErr
	}
	fmt.Fprintln(os.Stderr, summary.Render(os.Stderr))
	return nil
}
