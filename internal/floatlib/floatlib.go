// Package floatlib implements the handful of floatlib syslib entry
// points as a standalone Go library (ast.rs's added_floatlib flag names
// the same library); the interpreter does not call into this package,
// whatever Program.AddedFloatlib says. INTERCAL has no float literal syntax
// of its own: a floatlib routine receives its operands as plain 32/64
// -bit patterns (the same spot/twospot cells everything else uses) and
// reinterprets them as IEEE-754 bits, in keeping with INTERCAL's "a
// value is just a bit pattern" model.
//
// Arithmetic itself is delegated to github.com/mewmew/float, a
// software-float implementation originally pulled in for constant
// folding floating-point IR instructions; here it does the same job
// for floatlib's fadd/fsub/fmul/fdiv instead.
package floatlib

import (
	"math"

	"github.com/mewmew/float/float32"
	"github.com/mewmew/float/float64"

	"intercal/internal/ierr"
)

// FAdd32/FSub32/FMul32/FDiv32 operate on 32-bit patterns reinterpreted
// as IEEE-754 single-precision floats, matching floatlib's single-width
// entry points (spec.md §1's "floatlib treated as opaque appended
// source" gets concrete bodies here, callable from Go code only).
func FAdd32(x, y uint32) uint32 { return binop32(x, y, float32.Float32.Add) }
func FSub32(x, y uint32) uint32 { return binop32(x, y, float32.Float32.Sub) }
func FMul32(x, y uint32) uint32 { return binop32(x, y, float32.Float32.Mul) }

// FDiv32 returns IE621 on division by zero; floatlib has no NaN/Inf
// representation convention of its own to fall back on, so this is
// treated as a hard runtime error rather than producing a bit pattern
// the rest of the language has no way to interpret.
func FDiv32(x, y uint32) (uint32, *ierr.Err) {
	if y&0x7FFFFFFF == 0 { // +0.0 or -0.0
		return 0, ierr.New(ierr.IE621)
	}
	return binop32(x, y, float32.Float32.Quo), nil
}

func binop32(x, y uint32, op func(a, b float32.Float32) float32.Float32) uint32 {
	a := float32.NewFromFloat32(math.Float32frombits(x))
	b := float32.NewFromFloat32(math.Float32frombits(y))
	return math.Float32bits(op(a, b).Float32())
}

// FAdd64/FSub64/FMul64/FDiv64 are the twospot-pair-width equivalents,
// operating on 64-bit patterns (a hybrid pair of twospots, per spec.md
// §4.4's var-kind widths).
func FAdd64(x, y uint64) uint64 { return binop64(x, y, float64.Float64.Add) }
func FSub64(x, y uint64) uint64 { return binop64(x, y, float64.Float64.Sub) }
func FMul64(x, y uint64) uint64 { return binop64(x, y, float64.Float64.Mul) }

func FDiv64(x, y uint64) (uint64, *ierr.Err) {
	if y&0x7FFFFFFFFFFFFFFF == 0 { // +0.0 or -0.0
		return 0, ierr.New(ierr.IE621)
	}
	return binop64(x, y, float64.Float64.Quo), nil
}

func binop64(x, y uint64, op func(a, b float64.Float64) float64.Float64) uint64 {
	a := float64.NewFromFloat64(math.Float64frombits(x))
	b := float64.NewFromFloat64(math.Float64frombits(y))
	return math.Float64bits(op(a, b).Float64())
}
