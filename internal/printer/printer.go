// Package printer renders a Program back into INTERCAL-ish source text.
// It is one-way only (spec.md's Non-goals exclude formatting
// preservation): whitespace and original phrasing are not recovered,
// only a canonical rendering equivalent to the ast.rs Display impls
// this package is grounded on. Grounded structurally on the teacher's
// internal/formatter/formatter.go (a Printer struct wrapping a
// strings.Builder, recursive statement/expression dispatch switches).
package printer

import (
	"fmt"
	"strconv"
	"strings"

	"intercal/internal/ast"
)

// Printer accumulates rendered source text for one Program.
type Printer struct {
	out strings.Builder
}

// New returns a ready-to-use Printer.
func New() *Printer {
	return &Printer{}
}

// Print renders every statement of prog, one per line, and returns the
// accumulated text.
func Print(prog *ast.Program) string {
	p := New()
	p.printProgram(prog)
	return p.out.String()
}

func (p *Printer) printProgram(prog *ast.Program) {
	for _, st := range prog.Stmts {
		p.printStmt(st)
		p.out.WriteByte('\n')
	}
}

// printStmt renders one statement's source-line number, label, politeness,
// disablement, chance, and body, in that fixed column order (ast.rs's
// Stmt Display impl).
func (p *Printer) printStmt(st *ast.Stmt) {
	fmt.Fprintf(&p.out, "#%03d  ", st.Props.SrcLine)
	if st.Props.Label > 0 {
		fmt.Fprintf(&p.out, "(%5d) ", st.Props.Label)
	} else {
		p.out.WriteString("        ")
	}
	if st.Props.Polite {
		p.out.WriteString("PLEASE ")
	} else {
		p.out.WriteString("DO     ")
	}
	if st.Props.Disabled {
		p.out.WriteString("NOT ")
	} else {
		p.out.WriteString("    ")
	}
	if st.Props.Chance < 100 {
		fmt.Fprintf(&p.out, "%%%d ", st.Props.Chance)
	}
	p.printBody(st.Body)
}

func (p *Printer) printBody(body ast.Body) {
	switch b := body.(type) {
	case ast.Calc:
		p.printVar(b.V)
		p.out.WriteString(" <- ")
		p.printExpr(b.E)
	case ast.Dim:
		p.printVar(b.V)
		p.out.WriteString(" <- ")
		p.printBy(b.Dims)
	case ast.DoNext:
		fmt.Fprintf(&p.out, "(%d) NEXT", b.Target)
	case ast.ComeFrom:
		p.out.WriteString("COME FROM ")
		p.printComeFromSpec(b.Spec)
	case ast.Resume:
		p.out.WriteString("RESUME ")
		p.printExpr(b.N)
	case ast.Forget:
		p.out.WriteString("FORGET ")
		p.printExpr(b.N)
	case ast.Ignore:
		p.out.WriteString("IGNORE ")
		p.printPlusVars(b.Vars)
	case ast.Remember:
		p.out.WriteString("REMEMBER ")
		p.printPlusVars(b.Vars)
	case ast.Stash:
		p.out.WriteString("STASH ")
		p.printPlusVars(b.Vars)
	case ast.Retrieve:
		p.out.WriteString("RETRIEVE ")
		p.printPlusVars(b.Vars)
	case ast.AbstainStmt:
		p.out.WriteString("ABSTAIN FROM ")
		p.printPlusAbstains(b.What)
	case ast.ReinstateStmt:
		p.out.WriteString("REINSTATE ")
		p.printPlusAbstains(b.What)
	case ast.WriteIn:
		p.out.WriteString("WRITE IN ")
		p.printPlusVars(b.Vars)
	case ast.ReadOut:
		p.out.WriteString("READ OUT ")
		p.printPlusExprs(b.Exprs)
	case ast.TryAgain:
		p.out.WriteString("TRY AGAIN")
	case ast.GiveUp:
		p.out.WriteString("GIVE UP")
	case ast.ErrorBody:
		fmt.Fprintf(&p.out, "* %s", b.Err.Error())
	case ast.Print:
		p.out.WriteString("<PRINT>")
	default:
		fmt.Fprintf(&p.out, "<unknown body %T>", body)
	}
}

func (p *Printer) printPlusVars(vars []ast.Var) {
	for i, v := range vars {
		if i > 0 {
			p.out.WriteString(" + ")
		}
		p.printVar(v)
	}
}

func (p *Printer) printPlusExprs(exprs []ast.Expr) {
	for i, e := range exprs {
		if i > 0 {
			p.out.WriteString(" + ")
		}
		p.printExpr(e)
	}
}

func (p *Printer) printPlusAbstains(whats []ast.Abstain) {
	for i, a := range whats {
		if i > 0 {
			p.out.WriteString(" + ")
		}
		p.printAbstain(a)
	}
}

func (p *Printer) printBy(dims []ast.Expr) {
	for i, d := range dims {
		if i > 0 {
			p.out.WriteString(" BY ")
		}
		p.printExpr(d)
	}
}

func (p *Printer) printVar(v ast.Var) {
	switch v.Kind {
	case ast.KindSpot:
		fmt.Fprintf(&p.out, ".%d", v.Index)
	case ast.KindTwospot:
		fmt.Fprintf(&p.out, ":%d", v.Index)
	case ast.KindTail:
		fmt.Fprintf(&p.out, ",%d", v.Index)
	case ast.KindHybrid:
		fmt.Fprintf(&p.out, ";%d", v.Index)
	}
	for _, s := range v.Subs {
		p.out.WriteString(" SUB ")
		p.printExpr(s)
	}
}

func (p *Printer) printExpr(e ast.Expr) {
	switch x := e.(type) {
	case ast.Num:
		fmt.Fprintf(&p.out, "#%s", strings.ToUpper(strconv.FormatUint(uint64(x.Val), 16)))
	case ast.VarRef:
		p.printVar(x.V)
	case ast.Mingle:
		p.out.WriteString("(")
		p.printExpr(x.Left)
		p.out.WriteString(" $ ")
		p.printExpr(x.Right)
		p.out.WriteString(")")
	case ast.Select:
		p.out.WriteString("(")
		p.printExpr(x.Left)
		p.out.WriteString(" ~ ")
		p.printExpr(x.Right)
		p.out.WriteString(")")
	case ast.UnaryOp:
		width := "16"
		if x.Type == ast.V32 {
			width = "32"
		}
		switch x.Op {
		case ast.UAnd:
			fmt.Fprintf(&p.out, "&%s ", width)
		case ast.UOr:
			fmt.Fprintf(&p.out, "V%s ", width)
		case ast.UXor:
			fmt.Fprintf(&p.out, "?%s ", width)
		}
		p.printExpr(x.Operand)
	case ast.RsNot:
		p.out.WriteString("!")
		p.printExpr(x.X)
	default:
		p.printRsBin(e)
	}
}

func (p *Printer) printRsBin(e ast.Expr) {
	kind, x, y, ok := ast.AsRsBin(e)
	if !ok {
		fmt.Fprintf(&p.out, "<unknown expr %T>", e)
		return
	}
	op := map[ast.RsBinKind]string{
		ast.RsAndKind:      "&",
		ast.RsOrKind:       "|",
		ast.RsXorKind:      "^",
		ast.RsRshiftKind:   ">>",
		ast.RsLshiftKind:   "<<",
		ast.RsNotEqualKind: "!=",
		ast.RsPlusKind:     "+",
		ast.RsMinusKind:    "-",
	}[kind]
	p.out.WriteString("(")
	p.printExpr(x)
	fmt.Fprintf(&p.out, " %s ", op)
	p.printExpr(y)
	p.out.WriteString(")")
}

// printAbstain renders one ABSTAIN/REINSTATE target: either a label
// reference or a gerund tag.
func (p *Printer) printAbstain(a ast.Abstain) {
	if a.IsLabel {
		fmt.Fprintf(&p.out, "(%d)", a.Label)
		return
	}
	p.out.WriteString(gerundText(a.Tag))
}

func (p *Printer) printComeFromSpec(spec ast.ComeFromSpec) {
	switch spec.Kind {
	case ast.ComeFromLabel:
		fmt.Fprintf(&p.out, "(%d)", spec.Label)
	case ast.ComeFromExpr:
		p.printExpr(spec.Expr)
	case ast.ComeFromGerund:
		p.out.WriteString(gerundText(spec.Gerund))
	}
}

// gerundText maps a Gerund tag to its surface "-ING" spelling, per
// ast.rs's Abstain Display impl.
func gerundText(g ast.Gerund) string {
	switch g {
	case ast.GerundCalc:
		return "CALCULATING"
	case ast.GerundNext:
		return "NEXTING"
	case ast.GerundResume:
		return "RESUMING"
	case ast.GerundForget:
		return "FORGETTING"
	case ast.GerundIgnore:
		return "IGNORING"
	case ast.GerundRemember:
		return "REMEMBERING"
	case ast.GerundStash:
		return "STASHING"
	case ast.GerundRetrieve:
		return "RETRIEVING"
	case ast.GerundAbstain:
		return "ABSTAINING"
	case ast.GerundReinstate:
		return "REINSTATING"
	case ast.GerundComeFrom:
		return "COMING FROM"
	case ast.GerundReadOut:
		return "READING OUT"
	case ast.GerundWriteIn:
		return "WRITING IN"
	case ast.GerundTryAgain:
		return "TRYING AGAIN"
	default:
		return "<unknown gerund>"
	}
}
