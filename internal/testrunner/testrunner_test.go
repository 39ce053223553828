package testrunner

import "testing"

func TestRunReportsPassAndFail(t *testing.T) {
	cases := []Case{
		{Name: "five", Source: `PLEASE DO .1 <- #5
DO READ OUT .1
DO GIVE UP`, Want: "FIVE\n", CheckOutput: true},
		{Name: "wrong-expectation", Source: `PLEASE DO .1 <- #5
DO READ OUT .1
DO GIVE UP`, Want: "SIX\n", CheckOutput: true},
	}
	results, err := Run(cases, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Case.Name != "five" || !results[0].Pass {
		t.Errorf("case 0 = %+v, want a passing 'five' case", results[0])
	}
	if results[1].Case.Name != "wrong-expectation" || results[1].Pass {
		t.Errorf("case 1 = %+v, want a failing 'wrong-expectation' case", results[1])
	}
}

func TestRunPreservesOrderAcrossManyCases(t *testing.T) {
	var cases []Case
	for i := 0; i < 20; i++ {
		cases = append(cases, Case{
			Name:   string(rune('a' + i)),
			Source: `DO GIVE UP`,
			Want:   "",
		})
	}
	results, err := Run(cases, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, r := range results {
		if r.Case.Name != cases[i].Name {
			t.Fatalf("result %d name = %q, want %q (order must be preserved)", i, r.Case.Name, cases[i].Name)
		}
	}
}

func TestRunSurfacesRuntimeError(t *testing.T) {
	// Three statements with one PLEASE keeps the politeness ratio (1/3)
	// inside spec range, so the failure below comes from falling off
	// the end at runtime, not from the politeness check.
	results, err := Run([]Case{{Name: "fell-off-end", Source: `PLEASE DO .1 <- #1
DO .2 <- #2
DO .3 <- #3`}}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Err == nil || results[0].Pass {
		t.Fatalf("expected case to fail with a runtime error, got %+v", results[0])
	}
}
