// Package runlog tags one compile-or-run invocation with a correlation
// id, the way a service hands every inbound request a request id: every
// verbose/trace line cmd/intercal emits for a single invocation carries
// the same id, so output from separate invocations can be told apart.
// internal/testrunner does not use it; its per-program results are not
// tagged with an id.
package runlog

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// Run is one correlation-tagged invocation.
type Run struct {
	ID      uuid.UUID
	Source  string // the file or program name this run is for
	Started time.Time
	w       io.Writer
	verbose bool
}

// New starts a Run writing verbose/trace lines to w. w is nil-safe: a
// nil w silently discards everything Tracef would otherwise write.
func New(source string, w io.Writer, verbose bool) *Run {
	return &Run{
		ID:      uuid.New(),
		Source:  source,
		Started: time.Now(),
		w:       w,
		verbose: verbose,
	}
}

// Tracef writes one correlation-tagged line if verbose tracing is on
// for this run; a no-op otherwise.
func (r *Run) Tracef(format string, args ...any) {
	if !r.verbose || r.w == nil {
		return
	}
	fmt.Fprintf(r.w, "[%s] %s: %s\n", r.ID.String()[:8], r.Source, fmt.Sprintf(format, args...))
}

// Elapsed reports how long this run has been going.
func (r *Run) Elapsed() time.Duration {
	return time.Since(r.Started)
}
