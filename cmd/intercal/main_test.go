// CLI-level integration tests driven by golden scripts, grounded on
// github.com/rogpeppe/go-internal/testscript's presence in the
// teacher's dependency graph and its standard TestMain/RunMain recipe
// for exercising a command's main package without a separate build
// step.
package main

import (
	"os"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"intercal": Main,
	}))
}

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata",
	})
}
