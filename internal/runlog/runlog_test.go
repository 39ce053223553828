package runlog

import (
	"bytes"
	"strings"
	"testing"
)

func TestTracefWritesWhenVerbose(t *testing.T) {
	var buf bytes.Buffer
	r := New("prog.i", &buf, true)
	r.Tracef("executed %d statements", 3)
	out := buf.String()
	if !strings.Contains(out, "prog.i") || !strings.Contains(out, "executed 3 statements") {
		t.Fatalf("output = %q, want it to contain the source name and message", out)
	}
	if !strings.Contains(out, r.ID.String()[:8]) {
		t.Fatalf("output = %q, want it to contain the run's short id", out)
	}
}

func TestTracefSilentWhenNotVerbose(t *testing.T) {
	var buf bytes.Buffer
	r := New("prog.i", &buf, false)
	r.Tracef("should not appear")
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestTracefSilentWithNilWriter(t *testing.T) {
	r := New("prog.i", nil, true)
	r.Tracef("should not panic")
}

func TestEachRunGetsADistinctID(t *testing.T) {
	a := New("a.i", nil, false)
	b := New("b.i", nil, false)
	if a.ID == b.ID {
		t.Fatalf("expected distinct correlation ids")
	}
}
