// Package values is INTERCAL's value model: the Bind/Array storage
// cells the interpreter keeps one per variable, and the primitive
// bit-level arithmetic (mingle, select, the unary reductions, and the
// chance PRNG) that both the optimizer's constant folder and the
// interpreter call (spec.md §4.4). Grounded on the original
// implementation's stdops module (referenced from eval.rs/opt.rs but
// not itself present in the retrieved source), reconstructed here from
// spec.md §4.4's algorithmic description rather than copied code.
package values

import (
	"math"
	"math/bits"
	"math/rand/v2"

	"intercal/internal/ierr"
)

// Width is the set of storage types a Bind/Array may hold.
type Width interface{ ~uint16 | ~uint32 }

// Bind is one variable's storage cell: current value, a write-protect
// flag toggled by IGNORE/REMEMBER, and a LIFO snapshot stack for
// STASH/RETRIEVE (spec.md §4.5/§6).
type Bind[T Width] struct {
	Val   T
	RW    bool
	stack []T
}

// NewBind returns a fresh cell: zero value, writable, empty stack.
func NewBind[T Width]() Bind[T] {
	return Bind[T]{RW: true}
}

// Set assigns x unless the cell is IGNOREd, in which case it is a
// silent no-op (spec.md §4.6).
func (b *Bind[T]) Set(x T) {
	if b.RW {
		b.Val = x
	}
}

// Stash pushes the current value onto the snapshot stack.
func (b *Bind[T]) Stash() {
	b.stack = append(b.stack, b.Val)
}

// Retrieve pops the snapshot stack into Val; ok is false (and Val is
// untouched) if the stack is empty, the caller's cue to raise IE436.
func (b *Bind[T]) Retrieve() (ok bool) {
	n := len(b.stack)
	if n == 0 {
		return false
	}
	b.Val = b.stack[n-1]
	b.stack = b.stack[:n-1]
	return true
}

// Array is a rectangular, dynamically (re)dimensioned array variable.
// Dims is nil until the first DIM statement runs.
type Array[T Width] struct {
	Dims []int
	Data []T
}

// Reshape re-dimensions the array to dims (all 1-based sizes), failing
// IE241 if the element count would overflow a 32-bit index space
// (spec.md §4.5's "product must be ≤ u32" DIM rule).
func (a *Array[T]) Reshape(dims []int) *ierr.Err {
	product := uint64(1)
	for _, d := range dims {
		if d < 1 {
			return ierr.New(ierr.IE241)
		}
		product *= uint64(d)
		if product > math.MaxUint32 {
			return ierr.New(ierr.IE241)
		}
	}
	a.Dims = dims
	a.Data = make([]T, product)
	return nil
}

// Index computes the flat offset for a 1-based subscript list,
// checking rank and per-dimension range (spec.md §4.6): flat = Σ
// (sub_i−1)·Π_{j<i} dim_j. Both failure modes raise IE241.
func (a *Array[T]) Index(subs []int) (int, *ierr.Err) {
	if a.Dims == nil || len(subs) != len(a.Dims) {
		return 0, ierr.New(ierr.IE241)
	}
	idx, mul := 0, 1
	for i, s := range subs {
		if s < 1 || s > a.Dims[i] {
			return 0, ierr.New(ierr.IE241)
		}
		idx += (s - 1) * mul
		mul *= a.Dims[i]
	}
	return idx, nil
}

// ArrayBind is an array variable's storage cell: the array itself, a
// write-protect flag toggled by IGNORE/REMEMBER, and a LIFO snapshot
// stack for STASH/RETRIEVE. Stash/Retrieve copy the whole array by
// value rather than aliasing Data, so a later DIM or element write
// cannot corrupt a stashed snapshot.
type ArrayBind[T Width] struct {
	Arr   Array[T]
	RW    bool
	stack []Array[T]
}

// NewArrayBind returns a fresh cell: an empty (undimensioned) array,
// writable, empty snapshot stack.
func NewArrayBind[T Width]() ArrayBind[T] {
	return ArrayBind[T]{RW: true}
}

// Reshape re-dimensions the array; DIM is not gated by RW — IGNORE
// write-protects element assignment, not the array's declared shape.
func (b *ArrayBind[T]) Reshape(dims []int) *ierr.Err {
	return b.Arr.Reshape(dims)
}

// SetAt assigns to one element by flat index unless the cell is
// IGNOREd.
func (b *ArrayBind[T]) SetAt(idx int, x T) {
	if b.RW {
		b.Arr.Data[idx] = x
	}
}

// Stash pushes an independent copy of the current array onto the
// snapshot stack.
func (b *ArrayBind[T]) Stash() {
	snap := Array[T]{
		Dims: append([]int(nil), b.Arr.Dims...),
		Data: append([]T(nil), b.Arr.Data...),
	}
	b.stack = append(b.stack, snap)
}

// Retrieve pops the snapshot stack into Arr; ok is false (and Arr is
// untouched) if the stack is empty, the caller's cue to raise IE436.
func (b *ArrayBind[T]) Retrieve() (ok bool) {
	n := len(b.stack)
	if n == 0 {
		return false
	}
	b.Arr = b.stack[n-1]
	b.stack = b.stack[:n-1]
	return true
}

// CheckWidth16 narrows a computed 32-bit value to 16 bits, raising
// IE275 ("don't byte off more than you can chew") on overflow — the
// check every assignment to a spot/tail cell makes (spec.md §4.6).
func CheckWidth16(x uint32) (uint16, *ierr.Err) {
	if x > 0xFFFF {
		return 0, ierr.New(ierr.IE275)
	}
	return uint16(x), nil
}

// Mingle interleaves two 16-bit operands into a 32-bit result, v's
// bits occupying the odd (high) position of each pair and w's the even
// (low) position. Both operands must fit in 16 bits; spec.md §4.3
// requires this for constant folding, and since the grammar lets
// MINGLE's operands be arbitrary expressions (including 32-bit
// variables), the interpreter must guard it too — this raises the same
// IE275 an over-wide assignment would, since both are "this value
// doesn't fit where it needs to" (see DESIGN.md's open-question note).
func Mingle(v, w uint32) (uint32, *ierr.Err) {
	if v > 0xFFFF || w > 0xFFFF {
		return 0, ierr.New(ierr.IE275)
	}
	var result uint32
	for i := uint(0); i < 16; i++ {
		result |= ((v >> i) & 1) << (2*i + 1)
		result |= ((w >> i) & 1) << (2 * i)
	}
	return result, nil
}

// Select gathers the bits of v selected by the set bits of w, from LSB
// up, packing them into consecutive low bits of the result.
func Select(v, w uint32) uint32 {
	var result uint32
	pos := uint(0)
	for i := uint(0); i < 32; i++ {
		if w&(1<<i) != 0 {
			result |= ((v >> i) & 1) << pos
			pos++
		}
	}
	return result
}

// And16/Or16/Xor16/And32/Or32/Xor32 are INTERCAL's unary reductions:
// rotate the operand right by one bit, then combine with the original.
func And16(v uint16) uint16 { return v & bits.RotateLeft16(v, -1) }
func Or16(v uint16) uint16  { return v | bits.RotateLeft16(v, -1) }
func Xor16(v uint16) uint16 { return v ^ bits.RotateLeft16(v, -1) }
func And32(v uint32) uint32 { return v & bits.RotateLeft32(v, -1) }
func Or32(v uint32) uint32  { return v | bits.RotateLeft32(v, -1) }
func Xor32(v uint32) uint32 { return v ^ bits.RotateLeft32(v, -1) }

// rng is the process-wide chance PRNG (spec.md §5: "must be seedable
// for reproducibility in tests"). Package-level so every statement's
// chance draw shares one stream, matching the reference's single
// process-wide generator.
var rng = rand.New(rand.NewPCG(0x9e3779b97f4a7c15, 0xbf58476d1ce4e5b9))

// Seed replaces the chance PRNG's stream, for reproducible test runs.
func Seed(seed1, seed2 uint64) {
	rng = rand.New(rand.NewPCG(seed1, seed2))
}

// CheckChance draws one Bernoulli trial at the given percent (spec.md
// §4.5 step 4); percent is expected in 0..100 — the interpreter itself
// handles the repeated-trial behavior for chance > 100.
func CheckChance(percent int) bool {
	if percent >= 100 {
		return true
	}
	if percent <= 0 {
		return false
	}
	return rng.IntN(100) < percent
}
