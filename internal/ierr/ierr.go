// Package ierr is the shared IE-code error taxonomy. Every stage of the
// pipeline (parser, analyzer, optimizer, interpreter) raises errors
// from this fixed, numbered vocabulary; the codes and messages must be
// preserved bit-for-bit because INTERCAL programs observe them.
package ierr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Code is one of the fixed IE-numbers from the INTERCAL tradition.
type Code int

const (
	IE079 Code = 79  // program is not polite enough
	IE099 Code = 99  // program is not only polite enough but overly polite
	IE123 Code = 123 // program has disappeared into the black lagoon
	IE129 Code = 129 // program has gotten lost
	IE139 Code = 139 // i wasn't planning to go there anyway
	IE241 Code = 241 // variables may not be stored in west hyperspace
	IE275 Code = 275 // don't byte off more than you can chew
	IE436 Code = 436 // throw stick before retrieving!
	IE621 Code = 621 // error type 621 encountered
	IE632 Code = 632 // the next stack ruptured
	IE663 Code = 663 // program fell off the edge
	IE774 Code = 774 // random compiler bug
	IE000 Code = 0   // undecodable statement ("splat"); message supplied at parse time
)

var messages = map[Code]string{
	IE079: "PROGRAM IS NOT POLITE ENOUGH",
	IE099: "PROGRAM IS TOO POLITE",
	IE123: "PROGRAM HAS DISAPPEARED INTO THE BLACK LAGOON",
	IE129: "PROGRAM HAS GOTTEN LOST",
	IE139: "I WASN'T PLANNING TO GO THERE ANYWAY",
	IE241: "VARIABLES MAY NOT BE STORED IN WEST HYPERSPACE",
	IE275: "DON'T BYTE OFF MORE THAN YOU CAN CHEW",
	IE436: "THROW STICK BEFORE RETRIEVING!",
	IE621: "ERROR TYPE 621 ENCOUNTERED",
	IE632: "THE NEXT STACK RUPTURED",
	IE663: "PROGRAM FELL OFF THE EDGE",
	IE774: "RANDOM COMPILER BUG",
}

// Err is a single IE-coded error, optionally located at a source line
// and an "on the way to" line (the following statement's source line,
// printed by the top-level reporter per spec.md §7).
type Err struct {
	Code       Code
	Message    string
	Line       int
	OnTheWayTo int
	cause      error
}

// New creates an Err for a well-known code, using its canonical message.
func New(code Code) *Err {
	return &Err{Code: code, Message: messages[code]}
}

// NewSplat creates the "undecodable statement" error a malformed
// statement becomes at parse time; it only surfaces if that statement
// is reached (and not abstained) at runtime.
func NewSplat(reason string) *Err {
	return &Err{Code: IE000, Message: reason}
}

// WithLine attaches source-location context and, when the Err has no
// cause yet, records one made with errors.New from its message, so a
// `Cause()` chain has a root if this Err is wrapped further up the call
// stack. An existing cause is kept as it is.
func (e *Err) WithLine(line, onTheWayTo int) *Err {
	e.Line = line
	e.OnTheWayTo = onTheWayTo
	if e.cause == nil {
		e.cause = errors.New(e.Message)
	}
	return e
}

func (e *Err) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("ICL%03dI %s", e.Code, e.Message)
	}
	if e.OnTheWayTo != 0 {
		return fmt.Sprintf("ICL%03dI %s ON LINE %d ON THE WAY TO %d",
			e.Code, e.Message, e.Line, e.OnTheWayTo)
	}
	return fmt.Sprintf("ICL%03dI %s ON LINE %d", e.Code, e.Message, e.Line)
}

// Cause exposes the wrapped sentinel so callers using
// github.com/pkg/errors.Cause can unwrap to a stable comparison value.
func (e *Err) Cause() error { return e.cause }

// Wrap attaches additional context to a lower-level error without
// discarding its IE-code, mirroring the teacher's WithSource/WithStack
// chaining style.
func Wrap(err error, context string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, context)
}
