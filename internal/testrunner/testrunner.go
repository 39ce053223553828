// Package testrunner drives many independent INTERCAL programs
// concurrently, for `cmd/intercal test` and the integration test
// layer. The interpreter itself stays single-threaded per program; only
// the harness fanning out across many programs is concurrent. Grounded
// on the concurrency-bounding shape of
// _examples/sqldef-sqldef/database/concurrent.go (an errgroup.Group
// with SetLimit), generalized from SQL-statement application to
// whole-program compile-and-run; this harness writes each goroutine's
// result directly into its own slot rather than through an unordered
// channel, so no reordering pass is needed afterward.
package testrunner

import (
	"bytes"
	"strings"

	"golang.org/x/sync/errgroup"

	"intercal/internal/analyzer"
	"intercal/internal/interp"
	"intercal/internal/optimizer"
	"intercal/internal/parser"
)

// Case is one corpus entry: INTERCAL source plus the stdin to feed it.
// CheckOutput is false for a smoke-test entry with no golden file (such
// a case only requires a clean, non-erroring run); when true, Got must
// equal Want exactly.
type Case struct {
	Name        string
	Source      string
	Stdin       string
	Want        string
	CheckOutput bool
}

// Result is one Case's outcome.
type Result struct {
	Case Case
	Got  string
	Err  error
	Pass bool
}

// Run compiles and executes every case concurrently (bounded by
// concurrency; 0 means unbounded) and returns results in the same
// order as cases.
func Run(cases []Case, concurrency int) ([]Result, error) {
	eg := errgroup.Group{}
	if concurrency > 0 {
		eg.SetLimit(concurrency)
	}

	results := make([]Result, len(cases))
	for i := range cases {
		i := i
		eg.Go(func() error {
			results[i] = runOne(cases[i])
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func runOne(c Case) Result {
	prog := parser.Parse(c.Source)
	analyzer.Analyze(prog)
	if politeErr := analyzer.CheckPoliteness(prog); politeErr != nil {
		return Result{Case: c, Err: politeErr}
	}
	prog = optimizer.Optimize(prog, optimizer.DefaultOptions(), interp.RunToSink)

	var out bytes.Buffer
	e := interp.New(prog, strings.NewReader(c.Stdin), &out)
	_, err := e.Run()
	got := out.String()
	pass := err == nil
	if pass && c.CheckOutput {
		pass = got == c.Want
	}
	return Result{Case: c, Got: got, Err: err, Pass: pass}
}
