package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"intercal/internal/testrunner"
)

// testCommand runs every *.i file in the given directories (or the
// current directory, if none given) through testrunner.Run. A program
// foo.i with a sibling foo.out is checked against that golden output;
// a sibling foo.in supplies stdin. A program with no foo.out is only
// checked for a clean (non-erroring) run.
func testCommand(args []string) error {
	dirs := args
	if len(dirs) == 0 {
		dirs = []string{"."}
	}

	var cases []testrunner.Case
	for _, dir := range dirs {
		found, err := discoverCases(dir)
		if err != nil {
			return err
		}
		cases = append(cases, found...)
	}
	if len(cases) == 0 {
		fmt.Println("no .i test files found")
		return nil
	}

	results, err := testrunner.Run(cases, 0)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Pass {
			fmt.Printf("ok   %s\n", r.Case.Name)
			continue
		}
		failed++
		fmt.Printf("FAIL %s\n", r.Case.Name)
		if r.Err != nil {
			fmt.Printf("     error: %v\n", r.Err)
		} else {
			fmt.Printf("     got:  %q\n     want: %q\n", r.Got, r.Case.Want)
		}
	}
	fmt.Printf("\n%d/%d passed\n", len(results)-failed, len(results))
	if failed > 0 {
		return fmt.Errorf("%d test(s) failed", failed)
	}
	return nil
}

func discoverCases(dir string) ([]testrunner.Case, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var cases []testrunner.Case
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".i") {
			continue
		}
		base := strings.TrimSuffix(e.Name(), ".i")
		srcPath := filepath.Join(dir, e.Name())
		src, err := os.ReadFile(srcPath)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", srcPath, err)
		}

		c := testrunner.Case{Name: base, Source: string(src)}
		if in, err := os.ReadFile(filepath.Join(dir, base+".in")); err == nil {
			c.Stdin = string(in)
		}
		if want, err := os.ReadFile(filepath.Join(dir, base+".out")); err == nil {
			c.Want = string(want)
			c.CheckOutput = true
		}
		cases = append(cases, c)
	}
	return cases, nil
}
