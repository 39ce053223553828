// Package parser turns a token stream into an ast.Program. Grounded on
// the teacher's internal/parser/parser.go control-flow idiom (a cursor
// over tokens with match/check/consume helpers and backtracking by
// saved position), generalized here to INTERCAL's statement-prefix
// grammar (spec.md §4.1). Label/COME-FROM resolution and variable
// sizing are left to the analyzer; this package only builds the
// statement and expression trees.
package parser

import (
	"fmt"

	"intercal/internal/ast"
	"intercal/internal/ierr"
	"intercal/internal/token"
)

// Parse tokenizes and parses source into a Program. Parse errors are
// never fatal: a malformed statement becomes an ast.ErrorBody carrying
// an IE000 "splat" error, and parsing continues with the next
// statement (spec.md §4.1).
func Parse(source string) *ast.Program {
	toks := token.Scan(source)
	p := &parser{toks: token.NewStream(toks)}
	prog := &ast.Program{}
	for !p.toks.AtEOF() {
		prog.Stmts = append(prog.Stmts, p.parseStatement())
	}
	// No bugline by default, and no later pass in the pipeline enables
	// one (spec.md §9's IE774); len(Stmts) is always >= len(Stmts), so
	// this disables it per Program.Bugline's contract.
	prog.Bugline = ast.LogLine(len(prog.Stmts))
	for i, st := range prog.Stmts {
		if i+1 < len(prog.Stmts) {
			st.Props.OnTheWayTo = prog.Stmts[i+1].Props.SrcLine
		} else {
			st.Props.OnTheWayTo = st.Props.SrcLine
		}
	}
	return prog
}

type parser struct {
	toks *token.Stream
}

// parseError unwinds the current statement's parse via panic/recover;
// it never escapes Parse.
type parseError struct{ err *ierr.Err }

func (p *parser) fail(format string, args ...any) {
	panic(parseError{err: ierr.NewSplat(fmt.Sprintf(format, args...))})
}

func (p *parser) peek() token.Token { return p.toks.Peek() }
func (p *parser) next() token.Token { return p.toks.Next() }

func (p *parser) check(k token.Kind) bool { return p.peek().Kind == k }

func (p *parser) expect(k token.Kind, what string) token.Token {
	t := p.next()
	if t.Kind != k {
		p.fail("expected %s, found %v", what, t.Kind)
	}
	return t
}

func (p *parser) expectNumber(what string) int {
	t := p.expect(token.NUMBER, what)
	return int(t.Num)
}

// parseStatement parses one full statement, recovering into an
// ast.ErrorBody if anything below panics, and guaranteeing forward
// progress through the token stream either way.
func (p *parser) parseStatement() (stmt *ast.Stmt) {
	start := p.toks.Pos()
	srcLine := p.peek().Line

	defer func() {
		if r := recover(); r != nil {
			pe, ok := r.(parseError)
			if !ok {
				panic(r)
			}
			if p.toks.Pos() == start {
				p.next()
			}
			stmt = &ast.Stmt{
				Body:  ast.ErrorBody{Err: pe.err},
				Props: ast.Props{SrcLine: srcLine, Chance: 100},
			}
		}
	}()

	props := ast.DefaultProps()
	props.SrcLine = srcLine

	if p.check(token.WAX) {
		p.next()
		props.Label = ast.Label(p.expectNumber("label number"))
		p.expect(token.WANE, "')'")
	}

	switch p.next().Kind {
	case token.DO:
	case token.PLEASEDO:
		props.Polite = true
	default:
		p.fail("expected DO or PLEASE")
	}

	if p.check(token.NOT) {
		p.next()
		props.Disabled = true
	}

	if p.check(token.OHOHSEVEN) {
		p.next()
		n := p.expectNumber("chance")
		if n < 1 {
			p.fail("chance must be at least 1")
		}
		if n > 100 {
			p.fail("chance must be at most 100")
		}
		props.Chance = n
	}

	body := p.parseBody()
	return &ast.Stmt{Body: body, Props: props}
}

func (p *parser) parseBody() ast.Body {
	switch p.peek().Kind {
	case token.WAX:
		return p.parseDoNext()
	case token.SPOT, token.TWOSPOT, token.TAIL, token.HYBRID:
		return p.parseCalcOrDim()
	case token.COMEFROM:
		p.next()
		return ast.ComeFrom{Spec: p.parseComeFromSpec()}
	case token.RESUME:
		p.next()
		return ast.Resume{N: p.parseExpr()}
	case token.FORGET:
		p.next()
		return ast.Forget{N: p.parseExpr()}
	case token.IGNORE:
		p.next()
		return ast.Ignore{Vars: p.parseVarList()}
	case token.REMEMBER:
		p.next()
		return ast.Remember{Vars: p.parseVarList()}
	case token.STASH:
		p.next()
		return ast.Stash{Vars: p.parseVarList()}
	case token.RETRIEVE:
		p.next()
		return ast.Retrieve{Vars: p.parseVarList()}
	case token.ABSTAIN:
		p.next()
		p.expect(token.FROM, "FROM")
		return ast.AbstainStmt{What: p.parseAbstainList()}
	case token.REINSTATE:
		p.next()
		return ast.ReinstateStmt{What: p.parseAbstainList()}
	case token.WRITEIN:
		p.next()
		return ast.WriteIn{Vars: p.parseVarList()}
	case token.READOUT:
		p.next()
		return ast.ReadOut{Exprs: p.parseReadOutList()}
	case token.TRYAGAIN:
		p.next()
		return ast.TryAgain{}
	case token.GIVEUP:
		p.next()
		return ast.GiveUp{}
	default:
		t := p.next()
		p.fail("unexpected token in statement body: %v", t.Kind)
		return nil
	}
}

func (p *parser) parseDoNext() ast.Body {
	p.next() // WAX
	label := ast.Label(p.expectNumber("label number"))
	p.expect(token.WANE, "')'")
	p.expect(token.NEXT, "NEXT")
	return ast.DoNext{Target: label}
}

func (p *parser) parseCalcOrDim() ast.Body {
	v := p.parseVarTarget()
	p.expect(token.GETS, "'<-'")
	if v.IsDim() {
		dims := []ast.Expr{p.parseExpr()}
		for p.check(token.BY) {
			p.next()
			dims = append(dims, p.parseExpr())
		}
		return ast.Dim{V: v, Dims: dims}
	}
	return ast.Calc{V: v, E: p.parseExpr()}
}

func (p *parser) parseComeFromSpec() ast.ComeFromSpec {
	if p.check(token.WAX) {
		p.next()
		l := ast.Label(p.expectNumber("label number"))
		p.expect(token.WANE, "')'")
		return ast.ComeFromSpec{Kind: ast.ComeFromLabel, Label: l}
	}
	if g, ok := gerundOf[p.peek().Kind]; ok {
		p.next()
		return ast.ComeFromSpec{Kind: ast.ComeFromGerund, Gerund: g}
	}
	return ast.ComeFromSpec{Kind: ast.ComeFromExpr, Expr: p.parseExpr()}
}

func (p *parser) parseAbstainList() []ast.Abstain {
	var list []ast.Abstain
	list = append(list, p.parseAbstainTarget())
	for p.check(token.INTERSECTION) {
		p.next()
		list = append(list, p.parseAbstainTarget())
	}
	return list
}

func (p *parser) parseAbstainTarget() ast.Abstain {
	if p.check(token.WAX) {
		p.next()
		l := ast.Label(p.expectNumber("label number"))
		p.expect(token.WANE, "')'")
		return ast.AbstainLabel(l)
	}
	if g, ok := gerundOf[p.peek().Kind]; ok {
		p.next()
		return ast.AbstainGerund(g)
	}
	t := p.next()
	p.fail("expected label or gerund, found %v", t.Kind)
	return ast.Abstain{}
}

var gerundOf = map[token.Kind]ast.Gerund{
	token.CALCULATING: ast.GerundCalc,
	token.NEXTING:     ast.GerundNext,
	token.RESUMING:    ast.GerundResume,
	token.FORGETTING:  ast.GerundForget,
	token.IGNORING:    ast.GerundIgnore,
	token.REMEMBERING: ast.GerundRemember,
	token.STASHING:    ast.GerundStash,
	token.RETRIEVING:  ast.GerundRetrieve,
	token.ABSTAINING:  ast.GerundAbstain,
	token.REINSTATING: ast.GerundReinstate,
	token.COMINGFROM:  ast.GerundComeFrom,
	token.READINGOUT:  ast.GerundReadOut,
	token.WRITINGIN:   ast.GerundWriteIn,
	token.TRYINGAGAIN: ast.GerundTryAgain,
}

func (p *parser) parseVarList() []ast.Var {
	var list []ast.Var
	list = append(list, p.parseVarTarget())
	for p.check(token.INTERSECTION) {
		p.next()
		list = append(list, p.parseVarTarget())
	}
	return list
}

func (p *parser) parseReadOutList() []ast.Expr {
	var list []ast.Expr
	list = append(list, p.parseExpr())
	for p.check(token.INTERSECTION) {
		p.next()
		list = append(list, p.parseExpr())
	}
	return list
}

// parseVarTarget parses a sigil-prefixed variable, consuming zero or
// more "SUB expr" subscripts; a bare array name (zero subscripts) is
// only meaningful as a DIM target, checked by the caller via IsDim.
func (p *parser) parseVarTarget() ast.Var {
	kind, ok := varKindOf[p.peek().Kind]
	if !ok {
		t := p.next()
		p.fail("expected a variable, found %v", t.Kind)
	}
	p.next()
	index := p.expectNumber("variable number")
	v := ast.Var{Kind: kind, Index: index}
	for p.check(token.SUB) {
		p.next()
		v.Subs = append(v.Subs, p.parseExpr())
	}
	return v
}

var varKindOf = map[token.Kind]ast.VarKind{
	token.SPOT:    ast.KindSpot,
	token.TWOSPOT: ast.KindTwospot,
	token.TAIL:    ast.KindTail,
	token.HYBRID:  ast.KindHybrid,
}

// --- expressions ---
//
// parseExpr is the binary (MINGLE/SELECT) level, right-associative;
// parseUnary handles the prefix reduction operators; parseGroup peels
// matched spark/rabbit-ears grouping; parsePrimary reads literals and
// variable loads (spec.md §4.1).

func (p *parser) parseExpr() ast.Expr {
	left := p.parseUnary()
	switch p.peek().Kind {
	case token.MONEY:
		p.next()
		return ast.Mingle{Left: left, Right: p.parseExpr()}
	case token.SQUIGGLE:
		p.next()
		return ast.Select{Left: left, Right: p.parseExpr()}
	default:
		return left
	}
}

func (p *parser) parseUnary() ast.Expr {
	var kind ast.UnaryKind
	switch p.peek().Kind {
	case token.AMPERSAND:
		kind = ast.UAnd
	case token.BOOK:
		kind = ast.UOr
	case token.WHAT:
		kind = ast.UXor
	default:
		return p.parseGroup()
	}
	p.next()
	operand := p.parseUnary()
	return ast.UnaryOp{Op: kind, Type: operand.VType(), Operand: operand}
}

func (p *parser) parseGroup() ast.Expr {
	switch p.peek().Kind {
	case token.SPARK:
		p.next()
		inner := p.parseExpr()
		p.expect(token.SPARK, "closing '\\''")
		return inner
	case token.RABBITEARS:
		p.next()
		inner := p.parseExpr()
		p.expect(token.RABBITEARS, "closing '\"'")
		return inner
	default:
		return p.parsePrimary()
	}
}

func (p *parser) parsePrimary() ast.Expr {
	switch p.peek().Kind {
	case token.MESH:
		p.next()
		n := p.expectNumber("number")
		return ast.Num{Type: ast.V16, Val: uint32(n)}
	case token.SPOT, token.TWOSPOT, token.TAIL, token.HYBRID:
		return ast.VarRef{V: p.parseVarTarget()}
	default:
		t := p.next()
		p.fail("expected an expression, found %v", t.Kind)
		return nil
	}
}
