// Package analyzer is the semantic analyzer (spec.md §4.2): it resolves
// labels to logical-line indices, statically binds simple COME FROMs,
// sizes the per-kind variable-info vectors, and fills Program.StmtTypes.
// Grounded on the teacher's internal/compiler/hoisting_compiler.go
// two-pass shape (a collection pass over the whole statement list
// before anything depending on its result runs), generalized from
// function hoisting to label/COME-FROM resolution.
package analyzer

import (
	"intercal/internal/ast"
	"intercal/internal/ierr"
)

// Analyze mutates prog in place, matching spec.md §6's "AST is created
// by parser, mutated only by analyzer/optimizer" invariant.
func Analyze(prog *ast.Program) {
	buildLabelTable(prog)
	bindComeFroms(prog)
	sizeVarInfo(prog)
	fillStmtTypes(prog)
}

// CheckPoliteness enforces spec.md §7's politeness-ratio rule, checked
// once in aggregate across the whole program: fewer than 1/5 of
// statements saying PLEASE is "not polite enough" (IE079), more than
// 1/3 is "too polite" (IE099). A program with no statements has
// nothing to be impolite about.
func CheckPoliteness(prog *ast.Program) *ierr.Err {
	if len(prog.Stmts) == 0 {
		return nil
	}
	polite := 0
	for _, st := range prog.Stmts {
		if st.Props.Polite {
			polite++
		}
	}
	ratio := float64(polite) / float64(len(prog.Stmts))
	switch {
	case ratio < 1.0/5.0:
		return ierr.New(ierr.IE079)
	case ratio > 1.0/3.0:
		return ierr.New(ierr.IE099)
	}
	return nil
}

// buildLabelTable is the collection pass: scan every statement once and
// record non-zero labels. A duplicate label turns the second
// occurrence's statement into a splat error rather than aborting
// compilation, matching the non-fatal treatment spec.md §4.1 gives
// parser errors.
func buildLabelTable(prog *ast.Program) {
	prog.Labels = make(map[ast.Label]ast.LogLine, len(prog.Stmts))
	for i, st := range prog.Stmts {
		l := st.Props.Label
		if l == 0 {
			continue
		}
		if _, dup := prog.Labels[l]; dup {
			st.Body = ast.ErrorBody{Err: ierr.NewSplat("label already in use").WithLine(st.Props.SrcLine, st.Props.OnTheWayTo)}
			continue
		}
		prog.Labels[l] = ast.LogLine(i)
	}
}

// bindComeFroms resolves every ComeFrom(Label(L)) statement statically;
// ComeFrom(Expr)/ComeFrom(Gerund) are left for the interpreter's
// dynamic fallback (spec.md §4.5), flagged via UsesComplexComeFrom.
// A second static binding to the same label is a static error: the
// later COME FROM statement becomes a splat (the authoritative source
// has no sanctioned policy for silently picking one, per spec.md's
// open question on COME-FROM/ABSTAIN interaction — we do not want a
// second, silently-ignored binding to be mistaken for a working one).
func bindComeFroms(prog *ast.Program) {
	bound := make(map[ast.Label]bool)
	for i, st := range prog.Stmts {
		cf, ok := st.Body.(ast.ComeFrom)
		if !ok {
			continue
		}
		switch cf.Spec.Kind {
		case ast.ComeFromLabel:
			target, ok := prog.Labels[cf.Spec.Label]
			if !ok {
				// dangling target is a runtime IE129, not a static error
				st.Body = ast.ErrorBody{Err: ierr.New(ierr.IE129).WithLine(st.Props.SrcLine, st.Props.OnTheWayTo)}
				continue
			}
			if bound[cf.Spec.Label] {
				st.Body = ast.ErrorBody{Err: ierr.NewSplat("duplicate COME FROM for the same label").WithLine(st.Props.SrcLine, st.Props.OnTheWayTo)}
				continue
			}
			bound[cf.Spec.Label] = true
			// Once the labeled statement finishes, control transfers to
			// this COME FROM statement's own line, not back to the
			// label: the interpreter's step-6 check treats ComeFrom as
			// "redirect here", then falls through normally from there.
			line := ast.LogLine(i)
			prog.Stmts[target].ComeFrom = &line
		case ast.ComeFromExpr, ast.ComeFromGerund:
			prog.UsesComplexComeFrom = true
		}
	}
}

// sizeVarInfo allocates each per-kind variable-info vector to
// max-index+1, with the parser-time conservative defaults
// (CanIgnore/CanStash both true); the optimizer's var-check pass later
// narrows these.
func sizeVarInfo(prog *ast.Program) {
	var maxSpot, maxTwo, maxTail, maxHybrid int
	walkVars(prog, func(v ast.Var) {
		switch v.Kind {
		case ast.KindSpot:
			maxSpot = max(maxSpot, v.Index)
		case ast.KindTwospot:
			maxTwo = max(maxTwo, v.Index)
		case ast.KindTail:
			maxTail = max(maxTail, v.Index)
		case ast.KindHybrid:
			maxHybrid = max(maxHybrid, v.Index)
		}
	})
	prog.Spots = makeVarInfo(maxSpot)
	prog.Twospots = makeVarInfo(maxTwo)
	prog.Tails = makeVarInfo(maxTail)
	prog.Hybrids = makeVarInfo(maxHybrid)
}

func makeVarInfo(maxIndex int) []ast.VarInfo {
	if maxIndex == 0 {
		return nil
	}
	v := make([]ast.VarInfo, maxIndex+1)
	for i := range v {
		v[i] = ast.NewVarInfo()
	}
	return v
}

// fillStmtTypes records the gerund tag of every statement body, in
// Stmts order, for gerund-form ABSTAIN/REINSTATE/COME FROM to consult.
func fillStmtTypes(prog *ast.Program) {
	prog.StmtTypes = make([]ast.Abstain, len(prog.Stmts))
	for i, st := range prog.Stmts {
		if g := st.Body.Type(); g == ast.GerundNone {
			prog.StmtTypes[i] = ast.AbstainLabel(0)
		} else {
			prog.StmtTypes[i] = ast.AbstainGerund(g)
		}
	}
}

// walkVars visits every Var reference (load or store) reachable from
// prog's statements and expressions, for index-range collection.
func walkVars(prog *ast.Program, visit func(ast.Var)) {
	for _, st := range prog.Stmts {
		switch b := st.Body.(type) {
		case ast.Calc:
			visit(b.V)
			walkVarsInSubs(b.V, visit)
			walkExprVars(b.E, visit)
		case ast.Dim:
			visit(b.V)
			for _, d := range b.Dims {
				walkExprVars(d, visit)
			}
		case ast.Resume:
			walkExprVars(b.N, visit)
		case ast.Forget:
			walkExprVars(b.N, visit)
		case ast.Ignore:
			visitAll(b.Vars, visit)
		case ast.Remember:
			visitAll(b.Vars, visit)
		case ast.Stash:
			visitAll(b.Vars, visit)
		case ast.Retrieve:
			visitAll(b.Vars, visit)
		case ast.WriteIn:
			visitAll(b.Vars, visit)
		case ast.ReadOut:
			for _, e := range b.Exprs {
				walkExprVars(e, visit)
			}
		case ast.ComeFrom:
			if b.Spec.Kind == ast.ComeFromExpr {
				walkExprVars(b.Spec.Expr, visit)
			}
		}
	}
}

func visitAll(vs []ast.Var, visit func(ast.Var)) {
	for _, v := range vs {
		visit(v)
		walkVarsInSubs(v, visit)
	}
}

func walkVarsInSubs(v ast.Var, visit func(ast.Var)) {
	for _, s := range v.Subs {
		walkExprVars(s, visit)
	}
}

func walkExprVars(e ast.Expr, visit func(ast.Var)) {
	switch x := e.(type) {
	case ast.VarRef:
		visit(x.V)
		walkVarsInSubs(x.V, visit)
	case ast.Mingle:
		walkExprVars(x.Left, visit)
		walkExprVars(x.Right, visit)
	case ast.Select:
		walkExprVars(x.Left, visit)
		walkExprVars(x.Right, visit)
	case ast.UnaryOp:
		walkExprVars(x.Operand, visit)
	case ast.RsNot:
		walkExprVars(x.X, visit)
	default:
		if _, a, b, ok := ast.AsRsBin(e); ok {
			walkExprVars(a, visit)
			walkExprVars(b, visit)
		}
	}
}
