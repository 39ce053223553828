// Package ioenc is the spelled-out-number coder ReadOut/WriteIn lean on
// (spec.md §4.5/§6). The exact INTERCAL spelling convention is treated
// as an external collaborator by the specification; this package is a
// self-consistent, round-trip-correct stand-in for it, not a
// reproduction of any particular distribution's output table.
//
// Each digit has two spellings. A Coder alternates between them from
// one Encode call to the next, carrying one byte of state (last_out
// for output coders, last_in for input coders) the way the reference
// interpreter's I/O coder does, so that spelling the same value twice
// in a row does not produce identical text.
package ioenc

import (
	"fmt"
	"strconv"
	"strings"
)

var primary = [10]string{
	"OH", "ONE", "TWO", "THREE", "FOUR", "FIVE", "SIX", "SEVEN", "EIGHT", "NINE",
}

var alternate = [10]string{
	"ZERO", "UNO", "DEUCE", "TRES", "QUATTRO", "PENTA", "SEXTO", "SEPTUS", "OCTAL", "NONUS",
}

var wordToDigit = func() map[string]byte {
	m := make(map[string]byte, 20)
	for d, w := range primary {
		m[w] = byte(d)
	}
	for d, w := range alternate {
		m[w] = byte(d)
	}
	return m
}()

// Coder holds one byte of alternation state, shared across a run of
// ReadOut (an output coder) or WriteIn (an input coder) calls on the
// same variable stream.
type Coder struct {
	state byte
}

// Encode spells out value in decimal, most significant digit first,
// using the table selected by the coder's current state, then flips
// that state for the next call.
func (c *Coder) Encode(value uint32) []byte {
	table := &primary
	if c.state != 0 {
		table = &alternate
	}
	digits := strconv.FormatUint(uint64(value), 10)
	words := make([]string, len(digits))
	for i, d := range digits {
		words[i] = table[d-'0']
	}
	c.state ^= 1
	return []byte(strings.Join(words, " "))
}

// Decode parses text produced by Encode (or any mix of primary and
// alternate spellings) back into its value, then flips the coder's
// state the same way Encode does, keeping an input coder's state in
// lockstep with the sequence of values it has read.
func (c *Coder) Decode(text []byte) (uint32, error) {
	fields := strings.Fields(string(text))
	if len(fields) == 0 {
		return 0, fmt.Errorf("ioenc: empty input")
	}
	var value uint64
	for _, w := range fields {
		d, ok := wordToDigit[strings.ToUpper(w)]
		if !ok {
			return 0, fmt.Errorf("ioenc: %q is not a spelled-out digit", w)
		}
		value = value*10 + uint64(d)
		if value > 0xFFFFFFFF {
			return 0, fmt.Errorf("ioenc: value overflows 32 bits")
		}
	}
	c.state ^= 1
	return uint32(value), nil
}
