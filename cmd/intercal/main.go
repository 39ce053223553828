// Command intercal is the CLI front end: compile, run, fmt, and test
// subcommands over the token/parser/analyzer/optimizer/interp/printer
// pipeline. Dispatch, aliasing, and "did you mean" suggestions follow
// the teacher's cmd/sentra/main.go texture; per-subcommand flag parsing
// uses github.com/jessevdk/go-flags the way the sqldef CLI front ends
// do.
package main

import (
	"fmt"
	"os"
)

const version = "1.0.0"

var commandAliases = map[string]string{
	"c": "compile",
	"r": "run",
	"t": "test",
	"f": "fmt",
}

var allCommands = []string{"compile", "run", "fmt", "test", "help", "version"}

func main() {
	os.Exit(Main())
}

// Main runs the CLI and returns the process exit code, rather than
// calling os.Exit itself, so it can also serve as the command func
// testscript.RunMain dispatches to in the package's own test binary.
func Main() int {
	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		return 1
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
	}

	switch cmd {
	case "--help", "-h", "help":
		showUsage()
	case "--version", "-v", "version":
		fmt.Println("intercal version " + version)
	case "compile":
		if err := compileCommand(args[1:]); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return 1
		}
	case "run":
		if err := runCommand(args[1:]); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return 1
		}
	case "fmt":
		if err := fmtCommand(args[1:]); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return 1
		}
	case "test":
		if err := testCommand(args[1:]); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return 1
		}
	default:
		suggestCommand(cmd)
		return 1
	}
	return 0
}

func showUsage() {
	fmt.Println(`intercal - an INTERCAL compiler and interpreter

USAGE:
  intercal <command> [options] <file.i>

COMMANDS:
  run      Execute an INTERCAL program        (alias: r)
  compile  Run the optimizer, print the result (alias: c)
  fmt      Pretty-print a program's AST        (alias: f)
  test     Run a corpus of .i test programs     (alias: t)
  help     Show this message
  version  Show the version

Run 'intercal run --help' or 'intercal compile --help' for their options.`)
}

// suggestCommand prints "did you mean" suggestions using Levenshtein
// distance against the known command set, mirroring the teacher's
// unknown-command handling.
func suggestCommand(cmd string) {
	fmt.Fprintf(os.Stderr, "Error: unknown command %q\n", cmd)
	var suggestions []string
	for _, c := range allCommands {
		if levenshteinDistance(cmd, c) <= 2 {
			suggestions = append(suggestions, c)
		}
	}
	if len(suggestions) > 0 {
		fmt.Fprintln(os.Stderr, "\nDid you mean one of these?")
		for _, s := range suggestions {
			fmt.Fprintf(os.Stderr, "  intercal %s\n", s)
		}
	}
	fmt.Fprintln(os.Stderr, "\nRun 'intercal help' to see all available commands")
}

func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			matrix[i][j] = minInt(matrix[i-1][j]+1, matrix[i][j-1]+1, matrix[i-1][j-1]+cost)
		}
	}
	return matrix[len(a)][len(b)]
}

func minInt(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}
