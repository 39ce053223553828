package optimizer

import (
	"io"
	"testing"

	"intercal/internal/analyzer"
	"intercal/internal/ast"
	"intercal/internal/parser"
)

func compile(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog := parser.Parse(src)
	analyzer.Analyze(prog)
	return prog
}

func TestConstantFoldMingle(t *testing.T) {
	prog := compile(t, `DO .1 <- #1 $ #2`)
	constantFold(prog)
	calc := prog.Stmts[0].Body.(ast.Calc)
	n, ok := calc.E.(ast.Num)
	if !ok {
		t.Fatalf("expected folded Num, got %T", calc.E)
	}
	if n.Val != 0b0110 {
		t.Errorf("folded Mingle(1,2) = %#b, want %#b", n.Val, 0b0110)
	}
}

func TestConstantFoldLeavesVariableExprsAlone(t *testing.T) {
	prog := compile(t, `DO .2 <- .1 $ #2`)
	constantFold(prog)
	calc := prog.Stmts[0].Body.(ast.Calc)
	if _, ok := calc.E.(ast.Mingle); !ok {
		t.Fatalf("expected an un-folded Mingle, got %T", calc.E)
	}
}

func TestRewriteContiguousAllOnesMaskCollapsesToOperand(t *testing.T) {
	// Select(x, 0xFFFFFFFF) lowers to RsAnd(x, 0xFFFFFFFF) (trailing_zeros
	// == 0 branch of the contiguous-mask idiom), which the RsAnd pass
	// immediately collapses to plain x ("&0xFFFFFFFF has no effect").
	prog := compile(t, `DO .2 <- .1 ~ #4294967295`)
	rewriteExpressions(prog)
	calc := prog.Stmts[0].Body.(ast.Calc)
	ref, ok := calc.E.(ast.VarRef)
	if !ok || ref.V.Kind != ast.KindSpot || ref.V.Index != 1 {
		t.Fatalf("expected the mask to vanish leaving VarRef(.1), got %#v", calc.E)
	}
}

func TestRewriteSelectMingleMaskLowersToRsXor(t *testing.T) {
	prog := compile(t, `DO .2 <- ?'.1 $ :1' ~ #1431655765`)
	rewriteExpressions(prog)
	calc := prog.Stmts[0].Body.(ast.Calc)
	kind, _, _, ok := ast.AsRsBin(calc.E)
	if !ok || kind != ast.RsXorKind {
		t.Fatalf("expected RsXor, got %#v", calc.E)
	}
}

func TestRewriteSelfSelectAndOneBecomesNotEqual(t *testing.T) {
	// (x~x)~1 -> Select(Select(x,x),1) -> RsAnd(Select(x,x),1), which
	// the RsAnd pass further rewrites to RsNotEqual(x,0).
	prog := compile(t, `DO .2 <- '.1 ~ .1' ~ #1`)
	rewriteExpressions(prog)
	calc := prog.Stmts[0].Body.(ast.Calc)
	kind, _, _, ok := ast.AsRsBin(calc.E)
	if !ok || kind != ast.RsNotEqualKind {
		t.Fatalf("expected RsNotEqual, got %#v", calc.E)
	}
}

func TestAbstainCheckMarksTargetedStatements(t *testing.T) {
	prog := compile(t, `(10) DO .1 <- #1
DO ABSTAIN FROM (10)`)
	abstainCheck(prog)
	if !prog.Stmts[0].CanAbstain {
		t.Errorf("labeled target should be marked CanAbstain")
	}
	if prog.Stmts[1].CanAbstain {
		t.Errorf("the ABSTAIN statement itself should not be marked")
	}
}

func TestAbstainCheckGiveUpNeverMarked(t *testing.T) {
	prog := compile(t, `(10) PLEASE GIVE UP
DO ABSTAIN FROM (10)`)
	abstainCheck(prog)
	if prog.Stmts[0].CanAbstain {
		t.Errorf("GiveUp must never be marked CanAbstain, even if labeled and targeted")
	}
}

func TestAbstainCheckByGerund(t *testing.T) {
	prog := compile(t, `DO .1 <- #1
DO ABSTAIN FROM CALCULATING`)
	abstainCheck(prog)
	if !prog.Stmts[0].CanAbstain {
		t.Errorf("gerund-targeted Calc statement should be marked CanAbstain")
	}
}

func TestVarCheckNarrowsToReferencedVars(t *testing.T) {
	prog := compile(t, `DO .1 <- #1
DO .2 <- #2
DO STASH .1
DO IGNORE .2`)
	varCheck(prog)
	if !prog.Spots[1].CanStash {
		t.Errorf("spot 1 should be CanStash after STASH .1")
	}
	if prog.Spots[1].CanIgnore {
		t.Errorf("spot 1 should not be CanIgnore (never IGNOREd)")
	}
	if !prog.Spots[2].CanIgnore {
		t.Errorf("spot 2 should be CanIgnore after IGNORE .2")
	}
	if prog.Spots[2].CanStash {
		t.Errorf("spot 2 should not be CanStash (never STASHed)")
	}
}

func TestConstantOutputReductionReplacesProgram(t *testing.T) {
	prog := compile(t, `DO .1 <- #1
PLEASE GIVE UP`)
	run := func(p *ast.Program, sink io.Writer) error {
		_, err := sink.Write([]byte("hello"))
		return err
	}
	out := Optimize(prog, DefaultOptions(), run)
	if len(out.Stmts) != 2 {
		t.Fatalf("expected a 2-statement Print/GiveUp program, got %d statements", len(out.Stmts))
	}
	pr, ok := out.Stmts[0].Body.(ast.Print)
	if !ok || string(pr.Bytes) != "hello" {
		t.Fatalf("unexpected Print statement: %+v", out.Stmts[0].Body)
	}
	if _, ok := out.Stmts[1].Body.(ast.GiveUp); !ok {
		t.Fatalf("expected GiveUp as the second statement, got %T", out.Stmts[1].Body)
	}
	if int(out.Bugline) < len(out.Stmts) {
		t.Fatalf("Bugline = %d, want >= %d (disabled) on a constant-output-reduced program", out.Bugline, len(out.Stmts))
	}
}

func TestConstantOutputReductionSkippedOnWriteIn(t *testing.T) {
	prog := compile(t, `DO WRITE IN .1`)
	called := false
	run := func(p *ast.Program, sink io.Writer) error {
		called = true
		return nil
	}
	out := Optimize(prog, DefaultOptions(), run)
	if called {
		t.Errorf("the runner should never be invoked when the program reads input")
	}
	if _, ok := out.Stmts[0].Body.(ast.WriteIn); !ok {
		t.Errorf("program should be left unchanged when WriteIn is present")
	}
}

func TestConstantOutputReductionSkippedOnLowChance(t *testing.T) {
	prog := compile(t, `DO %50 .1 <- #1`)
	run := func(p *ast.Program, sink io.Writer) error { return nil }
	out := Optimize(prog, DefaultOptions(), run)
	if _, ok := out.Stmts[0].Body.(ast.Calc); !ok {
		t.Errorf("program with a non-100 chance should be left unchanged")
	}
}
