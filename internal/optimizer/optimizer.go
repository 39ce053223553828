// Package optimizer implements the five deterministic program
// transformations of spec.md §4.3: constant folding, INTERCAL-idiom
// expression lowering, the speculative constant-output reduction,
// abstain-check pruning, and var-check pruning. Grounded on
// `_examples/original_source/src/opt.rs`'s `Optimizer`, carried over
// almost pass-for-pass (including its pass order: fold, rewrite,
// const-output, abstain-check, var-check).
package optimizer

import (
	"bytes"
	"io"
	"math/bits"

	"intercal/internal/ast"
	"intercal/internal/values"
)

// Options configures the constant-output reduction's syslib exemptions
// (SPEC_FULL.md §4): opt.rs hardcodes labels 1900/1901/1910/1911 as the
// syslib's randomness machinery; here they are data so a different
// syslib (or none) still gets a correct pass.
type Options struct {
	// ChanceGuardLabel is the label whose statement, if it immediately
	// precedes a non-100 chance statement and the program has a syslib
	// attached, exempts that chance from disqualifying the pass.
	ChanceGuardLabel ast.Label
	// RandomnessCallLabels are DoNext targets that call into syslib
	// randomness entry points, disqualifying the pass unless guarded.
	RandomnessCallLabels []ast.Label
	// RandomnessCallGuardLabel exempts a DoNext to a RandomnessCallLabels
	// target when the immediately preceding statement carries this label.
	RandomnessCallGuardLabel ast.Label
}

// DefaultOptions reproduces opt.rs's hardcoded syslib labels.
func DefaultOptions() Options {
	return Options{
		ChanceGuardLabel:         1901,
		RandomnessCallLabels:     []ast.Label{1900, 1910},
		RandomnessCallGuardLabel: 1911,
	}
}

// Runner executes prog against an in-memory sink, for the speculative
// constant-output pass; internal/interp supplies the real
// implementation. Injected rather than imported directly so this
// package never depends on internal/interp (which has no reason to
// depend back on the optimizer).
type Runner func(prog *ast.Program, sink io.Writer) error

// Optimize runs all five passes in opt.rs's order and returns the
// (possibly entirely replaced, by the const-output pass) program.
func Optimize(prog *ast.Program, opts Options, run Runner) *ast.Program {
	constantFold(prog)
	rewriteExpressions(prog)
	prog = constantOutputReduction(prog, opts, run)
	abstainCheck(prog)
	varCheck(prog)
	return prog
}

// --- 1. constant folding ---

func constantFold(prog *ast.Program) {
	for _, st := range prog.Stmts {
		switch b := st.Body.(type) {
		case ast.Calc:
			b.E = fold(b.E)
			st.Body = b
		case ast.Resume:
			b.N = fold(b.N)
			st.Body = b
		case ast.Forget:
			b.N = fold(b.N)
			st.Body = b
		}
	}
}

func fold(e ast.Expr) ast.Expr {
	switch x := e.(type) {
	case ast.Mingle:
		left, right := fold(x.Left), fold(x.Right)
		if lv, lok := left.(ast.Num); lok {
			if rv, rok := right.(ast.Num); rok {
				if z, err := values.Mingle(lv.Val, rv.Val); err == nil {
					return ast.Num{Type: ast.V32, Val: z}
				}
			}
		}
		return ast.Mingle{Left: left, Right: right}
	case ast.Select:
		left, right := fold(x.Left), fold(x.Right)
		if lv, lok := left.(ast.Num); lok {
			if rv, rok := right.(ast.Num); rok {
				return ast.Num{Type: left.VType(), Val: values.Select(lv.Val, rv.Val)}
			}
		}
		return ast.Select{Left: left, Right: right}
	case ast.UnaryOp:
		operand := fold(x.Operand)
		if v, ok := operand.(ast.Num); ok {
			return ast.Num{Type: v.Type, Val: foldUnary(x.Op, v.Type, v.Val)}
		}
		return ast.UnaryOp{Op: x.Op, Type: x.Type, Operand: operand}
	default:
		return e
	}
}

func foldUnary(op ast.UnaryKind, t ast.VType, v uint32) uint32 {
	if t == ast.V16 {
		switch op {
		case ast.UAnd:
			return uint32(values.And16(uint16(v)))
		case ast.UOr:
			return uint32(values.Or16(uint16(v)))
		default:
			return uint32(values.Xor16(uint16(v)))
		}
	}
	switch op {
	case ast.UAnd:
		return values.And32(v)
	case ast.UOr:
		return values.Or32(v)
	default:
		return values.Xor32(v)
	}
}

// --- 2. expression rewriting (idiom lowering) ---

// rewritePassLimit bounds the reapply-to-result loop opt.rs leaves
// unbounded ("XXX will this always terminate?"); every known rewrite
// removes a Select, Mingle or unary-op node and introduces none, so
// this is generous headroom, not a load-bearing limit.
const rewritePassLimit = 32

func rewriteExpressions(prog *ast.Program) {
	for _, st := range prog.Stmts {
		switch b := st.Body.(type) {
		case ast.Calc:
			b.E = rewrite(b.E)
			st.Body = b
		case ast.Resume:
			b.N = rewrite(b.N)
			st.Body = b
		case ast.Forget:
			b.N = rewrite(b.N)
			st.Body = b
		}
	}
}

func rewrite(e ast.Expr) ast.Expr {
	for i := 0; i < rewritePassLimit; i++ {
		next := rewriteOnce(e)
		if sameExpr(next, e) {
			return next
		}
		e = next
	}
	return e
}

func rewriteOnce(e ast.Expr) ast.Expr {
	switch x := e.(type) {
	case ast.Select:
		left, right := rewriteOnce(x.Left), rewriteOnce(x.Right)
		if n, ok := right.(ast.Num); ok {
			if n.Val == 0x55555555 {
				if u, ok := left.(ast.UnaryOp); ok {
					if m, ok := u.Operand.(ast.Mingle); ok {
						switch u.Op {
						case ast.UAnd:
							return ast.NewRsAnd(m.Left, m.Right)
						case ast.UOr:
							return ast.NewRsOr(m.Left, m.Right)
						default:
							return ast.NewRsXor(m.Left, m.Right)
						}
					}
				}
			} else if bits.OnesCount32(^n.Val) == bits.LeadingZeros32(n.Val)+bits.TrailingZeros32(n.Val) {
				lead, trail := bits.LeadingZeros32(n.Val), bits.TrailingZeros32(n.Val)
				switch {
				case trail == 0:
					return ast.NewRsAnd(left, n)
				case lead == 0:
					return ast.NewRsRshift(left, ast.Num{Type: ast.V32, Val: uint32(trail)})
				default:
					// Mirrors opt.rs's `1 << i.count_ones() - 1` literally:
					// Rust's `-` binds tighter than `<<`, so this is a
					// single bit at position count_ones-1, not a
					// count_ones-wide mask. Kept byte-for-bit faithful to
					// the reference rather than "corrected".
					mask := uint32(1) << uint(bits.OnesCount32(n.Val)-1)
					return ast.NewRsAnd(
						ast.NewRsRshift(left, ast.Num{Type: ast.V32, Val: uint32(trail)}),
						ast.Num{Type: ast.V32, Val: mask})
				}
			}
		}
		return ast.Select{Left: left, Right: right}
	case ast.Mingle:
		return ast.Mingle{Left: rewriteOnce(x.Left), Right: rewriteOnce(x.Right)}
	case ast.UnaryOp:
		return ast.UnaryOp{Op: x.Op, Type: x.Type, Operand: rewriteOnce(x.Operand)}
	case ast.RsNot:
		return ast.RsNot{X: rewriteOnce(x.X)}
	default:
		if kind, a, b, ok := ast.AsRsBin(e); ok {
			a, b = rewriteOnce(a), rewriteOnce(b)
			if kind == ast.RsAndKind {
				if rewritten, ok := rewriteRsAnd(a, b); ok {
					return rewritten
				}
			}
			return rebuildRsBin(kind, a, b)
		}
		return e
	}
}

// rewriteRsAnd applies the three RsAnd-specific idioms from opt.rs's
// opt_expr: (x~x)&1 -> x!=0; ?(x$1)&3 -> 1+(x&1); ?(x$2)&3 -> 2-(x&1);
// and x&0xFFFFFFFF -> x.
func rewriteRsAnd(a, b ast.Expr) (ast.Expr, bool) {
	if n, ok := b.(ast.Num); ok && n.Val == 0xFFFFFFFF {
		return a, true
	}
	if sel, ok := a.(ast.Select); ok {
		if sameExpr(sel.Left, sel.Right) {
			if n, ok := b.(ast.Num); ok && n.Val == 1 {
				return ast.NewRsNotEqual(sel.Left, ast.Num{Type: ast.V32, Val: 0}), true
			}
		}
	}
	if u, ok := a.(ast.UnaryOp); ok && u.Op == ast.UXor {
		if m, ok := u.Operand.(ast.Mingle); ok {
			if n, ok := b.(ast.Num); ok && n.Val == 3 {
				if k, ok := m.Right.(ast.Num); ok {
					one := ast.Num{Type: ast.V32, Val: 1}
					switch k.Val {
					case 1:
						return ast.NewRsPlus(one, ast.NewRsAnd(m.Left, one)), true
					case 2:
						return ast.NewRsMinus(ast.Num{Type: ast.V32, Val: 2}, ast.NewRsAnd(m.Left, one)), true
					}
				}
			}
		}
	}
	return nil, false
}

func rebuildRsBin(kind ast.RsBinKind, a, b ast.Expr) ast.Expr {
	switch kind {
	case ast.RsAndKind:
		return ast.NewRsAnd(a, b)
	case ast.RsOrKind:
		return ast.NewRsOr(a, b)
	case ast.RsXorKind:
		return ast.NewRsXor(a, b)
	case ast.RsRshiftKind:
		return ast.NewRsRshift(a, b)
	case ast.RsLshiftKind:
		return ast.NewRsLshift(a, b)
	case ast.RsNotEqualKind:
		return ast.NewRsNotEqual(a, b)
	case ast.RsPlusKind:
		return ast.NewRsPlus(a, b)
	default:
		return ast.NewRsMinus(a, b)
	}
}

// sameExpr is a shallow-enough structural comparison for the rewrite
// loop's fixpoint check and for the (x~x) idiom's operand-identity test.
func sameExpr(a, b ast.Expr) bool {
	switch x := a.(type) {
	case ast.Num:
		y, ok := b.(ast.Num)
		return ok && x == y
	case ast.VarRef:
		y, ok := b.(ast.VarRef)
		if !ok || x.V.Kind != y.V.Kind || x.V.Index != y.V.Index || len(x.V.Subs) != len(y.V.Subs) {
			return false
		}
		for i := range x.V.Subs {
			if !sameExpr(x.V.Subs[i], y.V.Subs[i]) {
				return false
			}
		}
		return true
	case ast.Mingle:
		y, ok := b.(ast.Mingle)
		return ok && sameExpr(x.Left, y.Left) && sameExpr(x.Right, y.Right)
	case ast.Select:
		y, ok := b.(ast.Select)
		return ok && sameExpr(x.Left, y.Left) && sameExpr(x.Right, y.Right)
	case ast.UnaryOp:
		y, ok := b.(ast.UnaryOp)
		return ok && x.Op == y.Op && sameExpr(x.Operand, y.Operand)
	case ast.RsNot:
		y, ok := b.(ast.RsNot)
		return ok && sameExpr(x.X, y.X)
	default:
		kx, ax, bx, ok1 := ast.AsRsBin(a)
		ky, ay, by, ok2 := ast.AsRsBin(b)
		return ok1 && ok2 && kx == ky && sameExpr(ax, ay) && sameExpr(bx, by)
	}
}

// --- 3. constant-output reduction ---

func constantOutputReduction(prog *ast.Program, opts Options, run Runner) *ast.Program {
	if run == nil || !constantOutputPossible(prog, opts) {
		return prog
	}
	var sink bytes.Buffer
	if err := run(prog, &sink); err != nil {
		return prog
	}
	giveUp := &ast.Stmt{Body: ast.GiveUp{}, Props: ast.DefaultProps()}
	print := &ast.Stmt{Body: ast.Print{Bytes: sink.Bytes()}, Props: ast.DefaultProps()}
	stmts := []*ast.Stmt{print, giveUp}
	return &ast.Program{
		Stmts:     stmts,
		Labels:    map[ast.Label]ast.LogLine{},
		StmtTypes: []ast.Abstain{ast.AbstainLabel(0), ast.AbstainLabel(0)},
		// Bugline must stay >= len(Stmts) to keep the synthetic program's
		// bugline check disabled; leaving it at the zero value would make
		// pc == 0 (the Print statement) an enabled bugline and draw an
		// unwanted CheckChance(1) before the constant output ever prints.
		Bugline: ast.LogLine(len(stmts)),
	}
}

func constantOutputPossible(prog *ast.Program, opts Options) bool {
	var prevLabel ast.Label
	for _, st := range prog.Stmts {
		if st.Props.Chance < 100 {
			if !(prog.AddedSyslib && prevLabel == opts.ChanceGuardLabel) {
				return false
			}
		}
		switch b := st.Body.(type) {
		case ast.WriteIn:
			return false
		case ast.DoNext:
			if contains(opts.RandomnessCallLabels, b.Target) && prevLabel != opts.RandomnessCallGuardLabel {
				return false
			}
		}
		prevLabel = st.Props.Label
	}
	return true
}

func contains(labels []ast.Label, l ast.Label) bool {
	for _, x := range labels {
		if x == l {
			return true
		}
	}
	return false
}

// --- 4. abstain-check pruning ---

func abstainCheck(prog *ast.Program) {
	canAbstain := make([]bool, len(prog.Stmts))
	for _, st := range prog.Stmts {
		var targets []ast.Abstain
		switch b := st.Body.(type) {
		case ast.AbstainStmt:
			targets = b.What
		case ast.ReinstateStmt:
			targets = b.What
		default:
			continue
		}
		for _, want := range targets {
			if want.IsLabel {
				if idx, ok := prog.Labels[want.Label]; ok {
					canAbstain[idx] = true
				}
				continue
			}
			for i, st := range prog.StmtTypes {
				if st.Tag == want.Tag {
					canAbstain[i] = true
				}
			}
		}
	}
	for i, st := range prog.Stmts {
		if _, ok := st.Body.(ast.GiveUp); ok {
			continue
		}
		st.CanAbstain = canAbstain[i]
	}
}

// --- 5. var-check pruning ---

func varCheck(prog *ast.Program) {
	reset(prog.Spots)
	reset(prog.Twospots)
	reset(prog.Tails)
	reset(prog.Hybrids)
	for _, st := range prog.Stmts {
		switch b := st.Body.(type) {
		case ast.Stash:
			markStash(prog, b.Vars)
		case ast.Retrieve:
			markStash(prog, b.Vars)
		case ast.Ignore:
			markIgnore(prog, b.Vars)
		case ast.Remember:
			markIgnore(prog, b.Vars)
		}
	}
}

func reset(vs []ast.VarInfo) {
	for i := range vs {
		vs[i] = ast.VarInfo{}
	}
}

func markStash(prog *ast.Program, vars []ast.Var) {
	for _, v := range vars {
		if vi := varInfoSlice(prog, v.Kind); v.Index < len(vi) {
			vi[v.Index].CanStash = true
		}
	}
}

func markIgnore(prog *ast.Program, vars []ast.Var) {
	for _, v := range vars {
		if vi := varInfoSlice(prog, v.Kind); v.Index < len(vi) {
			vi[v.Index].CanIgnore = true
		}
	}
}

func varInfoSlice(prog *ast.Program, kind ast.VarKind) []ast.VarInfo {
	switch kind {
	case ast.KindSpot:
		return prog.Spots
	case ast.KindTwospot:
		return prog.Twospots
	case ast.KindTail:
		return prog.Tails
	default:
		return prog.Hybrids
	}
}
