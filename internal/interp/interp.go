// Package interp is the tree-walking interpreter: the main dispatch
// loop over a compiled ast.Program (spec.md §4.5/§4.6), grounded on
// eval.rs's Eval struct and main loop almost statement for statement,
// with the teacher's internal/vm.go dispatch-loop idiom (one big switch
// over statement/expression kind, explicit error threading) supplying
// the Go shape. I/O is injected (an io.Reader/io.Writer pair) rather
// than talking to process stdio directly, so the optimizer's
// constant-output reduction pass — and this package's own tests — can
// run a program against an in-memory sink.
package interp

import (
	"bufio"
	"io"
	"strings"

	"intercal/internal/ast"
	"intercal/internal/ierr"
	"intercal/internal/ioenc"
	"intercal/internal/values"
)

// maxJumps is the NEXT stack's depth limit; exceeding it on a DoNext
// raises IE123 (spec.md §4.5/§7).
const maxJumps = 80

// bugChancePercent is the probability the bugline check fires IE774
// when the program counter reaches Program.Bugline. Rick's
// bundled sources set this deliberately small and non-zero; the exact
// value is not pinned by spec.md, so this is a reconstructed constant
// rather than a reproduction of any particular distribution's figure.
const bugChancePercent = 1

type stepKind int

const (
	stepNext stepKind = iota
	stepJump
	stepBack
	stepEnd
)

// step is eval_stmt's result: the StmtRes of the reference
// implementation (Next/Jump(i)/Back(i)/End).
type step struct {
	kind stepKind
	n    int
}

// Eval is one run of a Program: the four variable-kind storage
// vectors, the NEXT jump stack, the abstention mask, I/O coder state,
// and the statement counter.
type Eval struct {
	prog *ast.Program

	spot    []values.Bind[uint16]
	twospot []values.Bind[uint32]
	tail    []values.ArrayBind[uint16]
	hybrid  []values.ArrayBind[uint32]

	jumps       []int
	abstentions []bool
	stmtCtr     int

	inCoder  ioenc.Coder
	outCoder ioenc.Coder

	in   *bufio.Reader
	sink io.Writer
}

// New prepares a fresh interpreter for prog. Abstentions are seeded
// from each statement's Props.Disabled (NOT/N'T at parse time, before
// any ABSTAIN/REINSTATE runs).
func New(prog *ast.Program, source io.Reader, sink io.Writer) *Eval {
	nspot, ntwo, ntail, nhyb := prog.NVars()
	e := &Eval{
		prog:        prog,
		spot:        make([]values.Bind[uint16], nspot),
		twospot:     make([]values.Bind[uint32], ntwo),
		tail:        make([]values.ArrayBind[uint16], ntail),
		hybrid:      make([]values.ArrayBind[uint32], nhyb),
		jumps:       make([]int, 0, maxJumps),
		abstentions: make([]bool, len(prog.Stmts)),
		in:          bufio.NewReader(source),
		sink:        sink,
	}
	for i := range e.spot {
		e.spot[i] = values.NewBind[uint16]()
	}
	for i := range e.twospot {
		e.twospot[i] = values.NewBind[uint32]()
	}
	for i := range e.tail {
		e.tail[i] = values.NewArrayBind[uint16]()
	}
	for i := range e.hybrid {
		e.hybrid[i] = values.NewArrayBind[uint32]()
	}
	for i, stmt := range prog.Stmts {
		e.abstentions[i] = stmt.Props.Disabled
	}
	return e
}

// Run executes prog to completion, returning the number of statements
// dispatched (including abstained/chance-skipped ticks, matching
// eval.rs's stmt_ctr) or the first runtime error.
func (e *Eval) Run() (int, error) {
	n, err := e.run()
	if err != nil {
		return n, err
	}
	return n, nil
}

// RunToSink runs prog against sink with no input available, matching
// optimizer.Runner's signature so the optimizer's constant-output
// reduction pass can speculatively execute a candidate program.
func RunToSink(prog *ast.Program, sink io.Writer) error {
	e := New(prog, strings.NewReader(""), sink)
	_, err := e.Run()
	return err
}

func (e *Eval) run() (int, *ierr.Err) {
	pc := 0
	nstmts := len(e.prog.Stmts)
	for {
		if pc >= nstmts {
			return e.stmtCtr, ierr.New(ierr.IE663).WithLine(nstmts, nstmts)
		}
		e.stmtCtr++

		if pc == int(e.prog.Bugline) && values.CheckChance(bugChancePercent) {
			stmt := e.prog.Stmts[pc]
			return e.stmtCtr, ierr.New(ierr.IE774).WithLine(stmt.Props.SrcLine, stmt.Props.OnTheWayTo)
		}

		dispatched := false
		var res step
		if !e.abstentions[pc] {
			stmt := e.prog.Stmts[pc]
			trials := chanceTrials(stmt.Props.Chance)
			for i := 0; i < trials; i++ {
				dispatched = true
				var err *ierr.Err
				res, err = e.evalStmt(stmt)
				if err != nil {
					err.WithLine(stmt.Props.SrcLine, stmt.Props.OnTheWayTo)
					return e.stmtCtr, err
				}
				if res.kind != stepNext {
					break
				}
			}
		}

		if dispatched {
			switch res.kind {
			case stepJump:
				e.jumps = append(e.jumps, pc)
				pc = res.n
				continue
			case stepBack:
				pc = res.n
			case stepEnd:
				return e.stmtCtr, nil
			}
		}

		if cf := e.prog.Stmts[pc].ComeFrom; cf != nil && !e.abstentions[int(*cf)] {
			pc = int(*cf)
			continue
		}
		if idx, ok, err := e.checkDynamicComeFrom(pc); err != nil {
			return e.stmtCtr, err
		} else if ok {
			pc = idx
			continue
		}
		pc++
	}
}

// chanceTrials turns a statement's chance-in-percent into a number of
// dispatch attempts: floor(chance/100) unconditional runs, plus one
// more trial at (chance mod 100) percent if that remainder is nonzero
// (spec.md §4.5 step 4). For the parser-enforced 1..100 range this
// reduces to "0 or 1 Bernoulli trial"; the general form only matters
// for a hand-built Program carrying a larger value.
func chanceTrials(chance int) int {
	reps := chance / 100
	remainder := chance % 100
	if remainder > 0 && values.CheckChance(remainder) {
		reps++
	}
	return reps
}

// checkDynamicComeFrom implements the dynamic fallback for
// ComeFrom(Expr)/ComeFrom(Gerund) statements: every complex COME FROM
// in the program is matched against the statement that was just
// executed (spec.md §4.2/§9). Statically bound ComeFrom(Label)
// statements never reach here; they're handled by the target
// statement's own ComeFrom field.
func (e *Eval) checkDynamicComeFrom(executedIdx int) (int, bool, *ierr.Err) {
	if !e.prog.UsesComplexComeFrom {
		return 0, false, nil
	}
	executedType := e.prog.Stmts[executedIdx].Body.Type()
	for i, stmt := range e.prog.Stmts {
		cf, ok := stmt.Body.(ast.ComeFrom)
		if !ok || e.abstentions[i] {
			continue
		}
		switch cf.Spec.Kind {
		case ast.ComeFromExpr:
			v, err := e.evalExpr(cf.Spec.Expr)
			if err != nil {
				return 0, false, err
			}
			if line, ok := e.prog.Labels[ast.Label(v)]; ok && int(line) == executedIdx {
				return i, true, nil
			}
		case ast.ComeFromGerund:
			if cf.Spec.Gerund == executedType {
				return i, true, nil
			}
		}
	}
	return 0, false, nil
}

// evalStmt processes a single statement, mirroring eval.rs's eval_stmt
// match almost arm for arm.
func (e *Eval) evalStmt(stmt *ast.Stmt) (step, *ierr.Err) {
	switch body := stmt.Body.(type) {
	case ast.Calc:
		val, err := e.evalExpr(body.E)
		if err != nil {
			return step{}, err
		}
		if err := e.assign(body.V, val); err != nil {
			return step{}, err
		}
		return step{kind: stepNext}, nil

	case ast.Dim:
		dims, err := e.evalSubs(body.Dims)
		if err != nil {
			return step{}, err
		}
		if rerr := e.reshape(body.V, dims); rerr != nil {
			return step{}, rerr
		}
		return step{kind: stepNext}, nil

	case ast.DoNext:
		if line, ok := e.prog.Labels[body.Target]; ok {
			if len(e.jumps) >= maxJumps {
				return step{}, ierr.New(ierr.IE123)
			}
			return step{kind: stepJump, n: int(line)}, nil
		}
		return step{}, ierr.New(ierr.IE129)

	case ast.ComeFrom:
		return step{kind: stepNext}, nil

	case ast.Resume:
		v, err := e.evalExpr(body.N)
		if err != nil {
			return step{}, err
		}
		line, perr := e.popJumps(int(v), true)
		if perr != nil {
			return step{}, perr
		}
		return step{kind: stepBack, n: line}, nil

	case ast.Forget:
		v, err := e.evalExpr(body.N)
		if err != nil {
			return step{}, err
		}
		if _, perr := e.popJumps(int(v), false); perr != nil {
			return step{}, perr
		}
		return step{kind: stepNext}, nil

	case ast.Ignore:
		for _, v := range body.Vars {
			e.setRW(v, false)
		}
		return step{kind: stepNext}, nil

	case ast.Remember:
		for _, v := range body.Vars {
			e.setRW(v, true)
		}
		return step{kind: stepNext}, nil

	case ast.Stash:
		for _, v := range body.Vars {
			e.stash(v)
		}
		return step{kind: stepNext}, nil

	case ast.Retrieve:
		for _, v := range body.Vars {
			if !e.retrieve(v) {
				return step{}, ierr.New(ierr.IE436)
			}
		}
		return step{kind: stepNext}, nil

	case ast.AbstainStmt:
		for _, target := range body.What {
			if err := e.setAbstain(target, true); err != nil {
				return step{}, err
			}
		}
		return step{kind: stepNext}, nil

	case ast.ReinstateStmt:
		for _, target := range body.What {
			if err := e.setAbstain(target, false); err != nil {
				return step{}, err
			}
		}
		return step{kind: stepNext}, nil

	case ast.ReadOut:
		for _, expr := range body.Exprs {
			if ref, ok := expr.(ast.VarRef); ok && ref.V.IsDim() {
				if err := e.arrayReadOut(ref.V); err != nil {
					return step{}, err
				}
				continue
			}
			v, err := e.evalExpr(expr)
			if err != nil {
				return step{}, err
			}
			if err := e.writeNumber(v); err != nil {
				return step{}, err
			}
		}
		return step{kind: stepNext}, nil

	case ast.WriteIn:
		for _, v := range body.Vars {
			if v.IsDim() {
				if err := e.arrayWriteIn(v); err != nil {
					return step{}, err
				}
				continue
			}
			n, err := e.readNumber()
			if err != nil {
				return step{}, err
			}
			if err := e.assign(v, n); err != nil {
				return step{}, err
			}
		}
		return step{kind: stepNext}, nil

	case ast.TryAgain:
		return step{kind: stepJump, n: 0}, nil

	case ast.GiveUp:
		return step{kind: stepEnd}, nil

	case ast.ErrorBody:
		return step{}, body.Err

	case ast.Print:
		if _, err := e.sink.Write(body.Bytes); err != nil {
			return step{}, ierr.New(ierr.IE621)
		}
		return step{kind: stepNext}, nil

	default:
		panic("interp: unhandled statement body")
	}
}

// evalExpr evaluates an expression left-to-right (spec.md §5's
// ordering guarantee matters once MINGLE/SELECT operands have side
// effects through shared array state).
func (e *Eval) evalExpr(expr ast.Expr) (uint32, *ierr.Err) {
	switch x := expr.(type) {
	case ast.Num:
		return x.Val, nil

	case ast.VarRef:
		return e.lookup(x.V)

	case ast.Mingle:
		l, err := e.evalExpr(x.Left)
		if err != nil {
			return 0, err
		}
		r, err := e.evalExpr(x.Right)
		if err != nil {
			return 0, err
		}
		return values.Mingle(l, r)

	case ast.Select:
		l, err := e.evalExpr(x.Left)
		if err != nil {
			return 0, err
		}
		r, err := e.evalExpr(x.Right)
		if err != nil {
			return 0, err
		}
		return values.Select(l, r), nil

	case ast.UnaryOp:
		v, err := e.evalExpr(x.Operand)
		if err != nil {
			return 0, err
		}
		if x.Type == ast.V16 {
			v16 := uint16(v)
			switch x.Op {
			case ast.UAnd:
				return uint32(values.And16(v16)), nil
			case ast.UOr:
				return uint32(values.Or16(v16)), nil
			default:
				return uint32(values.Xor16(v16)), nil
			}
		}
		switch x.Op {
		case ast.UAnd:
			return values.And32(v), nil
		case ast.UOr:
			return values.Or32(v), nil
		default:
			return values.Xor32(v), nil
		}

	case ast.RsNot:
		v, err := e.evalExpr(x.X)
		if err != nil {
			return 0, err
		}
		return ^v, nil

	default:
		kind, a, b, ok := ast.AsRsBin(expr)
		if !ok {
			panic("interp: unhandled expression node")
		}
		av, err := e.evalExpr(a)
		if err != nil {
			return 0, err
		}
		bv, err := e.evalExpr(b)
		if err != nil {
			return 0, err
		}
		switch kind {
		case ast.RsAndKind:
			return av & bv, nil
		case ast.RsOrKind:
			return av | bv, nil
		case ast.RsXorKind:
			return av ^ bv, nil
		case ast.RsRshiftKind:
			return av >> bv, nil
		case ast.RsLshiftKind:
			return av << bv, nil
		case ast.RsNotEqualKind:
			if av != bv {
				return 1, nil
			}
			return 0, nil
		case ast.RsPlusKind:
			return av + bv, nil
		default: // RsMinusKind
			return av - bv, nil
		}
	}
}

func (e *Eval) evalSubs(exprs []ast.Expr) ([]int, *ierr.Err) {
	subs := make([]int, len(exprs))
	for i, x := range exprs {
		v, err := e.evalExpr(x)
		if err != nil {
			return nil, err
		}
		subs[i] = int(v)
	}
	return subs, nil
}

func (e *Eval) reshape(v ast.Var, dims []int) *ierr.Err {
	switch v.Kind {
	case ast.KindTail:
		return e.tail[v.Index].Reshape(dims)
	case ast.KindHybrid:
		return e.hybrid[v.Index].Reshape(dims)
	default:
		panic("interp: DIM on a non-array variable")
	}
}

func (e *Eval) lookup(v ast.Var) (uint32, *ierr.Err) {
	switch v.Kind {
	case ast.KindSpot:
		return uint32(e.spot[v.Index].Val), nil
	case ast.KindTwospot:
		return e.twospot[v.Index].Val, nil
	case ast.KindTail:
		idx, err := e.index(v)
		if err != nil {
			return 0, err
		}
		return uint32(e.tail[v.Index].Arr.Data[idx]), nil
	default: // KindHybrid
		idx, err := e.index(v)
		if err != nil {
			return 0, err
		}
		return e.hybrid[v.Index].Arr.Data[idx], nil
	}
}

func (e *Eval) index(v ast.Var) (int, *ierr.Err) {
	subs, err := e.evalSubs(v.Subs)
	if err != nil {
		return 0, err
	}
	switch v.Kind {
	case ast.KindTail:
		return e.tail[v.Index].Arr.Index(subs)
	default: // KindHybrid
		return e.hybrid[v.Index].Arr.Index(subs)
	}
}

func (e *Eval) assign(v ast.Var, val uint32) *ierr.Err {
	switch v.Kind {
	case ast.KindSpot:
		v16, err := values.CheckWidth16(val)
		if err != nil {
			return err
		}
		e.spot[v.Index].Set(v16)
		return nil
	case ast.KindTwospot:
		e.twospot[v.Index].Set(val)
		return nil
	case ast.KindTail:
		v16, err := values.CheckWidth16(val)
		if err != nil {
			return err
		}
		idx, err := e.index(v)
		if err != nil {
			return err
		}
		e.tail[v.Index].SetAt(idx, v16)
		return nil
	default: // KindHybrid
		idx, err := e.index(v)
		if err != nil {
			return err
		}
		e.hybrid[v.Index].SetAt(idx, val)
		return nil
	}
}

func (e *Eval) stash(v ast.Var) {
	switch v.Kind {
	case ast.KindSpot:
		e.spot[v.Index].Stash()
	case ast.KindTwospot:
		e.twospot[v.Index].Stash()
	case ast.KindTail:
		e.tail[v.Index].Stash()
	default:
		e.hybrid[v.Index].Stash()
	}
}

func (e *Eval) retrieve(v ast.Var) bool {
	switch v.Kind {
	case ast.KindSpot:
		return e.spot[v.Index].Retrieve()
	case ast.KindTwospot:
		return e.twospot[v.Index].Retrieve()
	case ast.KindTail:
		return e.tail[v.Index].Retrieve()
	default:
		return e.hybrid[v.Index].Retrieve()
	}
}

func (e *Eval) setRW(v ast.Var, rw bool) {
	switch v.Kind {
	case ast.KindSpot:
		e.spot[v.Index].RW = rw
	case ast.KindTwospot:
		e.twospot[v.Index].RW = rw
	case ast.KindTail:
		e.tail[v.Index].RW = rw
	default:
		e.hybrid[v.Index].RW = rw
	}
}

func (e *Eval) setAbstain(target ast.Abstain, abstain bool) *ierr.Err {
	if target.IsLabel {
		line, ok := e.prog.Labels[target.Label]
		if !ok {
			return ierr.New(ierr.IE139)
		}
		e.abstentions[line] = abstain
		return nil
	}
	for i, tag := range e.prog.StmtTypes {
		if tag == target {
			e.abstentions[i] = abstain
		}
	}
	return nil
}

// popJumps pops n entries off the jump stack and returns the last one
// popped. strict distinguishes RESUME (fails on underflow) from FORGET
// (clears the stack and returns 0 with no error instead).
func (e *Eval) popJumps(n int, strict bool) (int, *ierr.Err) {
	if n == 0 {
		return 0, ierr.New(ierr.IE621)
	}
	if len(e.jumps) < n {
		if strict {
			return 0, ierr.New(ierr.IE632)
		}
		e.jumps = e.jumps[:0]
		return 0, nil
	}
	newLen := len(e.jumps) - (n - 1)
	top := e.jumps[newLen-1]
	e.jumps = e.jumps[:newLen-1]
	return top, nil
}

func (e *Eval) arrayReadOut(v ast.Var) *ierr.Err {
	switch v.Kind {
	case ast.KindTail:
		for _, x := range e.tail[v.Index].Arr.Data {
			if err := e.writeNumber(uint32(x)); err != nil {
				return err
			}
		}
	default:
		for _, x := range e.hybrid[v.Index].Arr.Data {
			if err := e.writeNumber(x); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Eval) arrayWriteIn(v ast.Var) *ierr.Err {
	switch v.Kind {
	case ast.KindTail:
		b := &e.tail[v.Index]
		for i := range b.Arr.Data {
			n, err := e.readNumber()
			if err != nil {
				return err
			}
			v16, werr := values.CheckWidth16(n)
			if werr != nil {
				return werr
			}
			b.SetAt(i, v16)
		}
	default:
		b := &e.hybrid[v.Index]
		for i := range b.Arr.Data {
			n, err := e.readNumber()
			if err != nil {
				return err
			}
			b.SetAt(i, n)
		}
	}
	return nil
}

// writeNumber spells out v and terminates it with a newline so
// consecutive ReadOut values (or array elements) stay distinguishable
// to readNumber on the other end.
func (e *Eval) writeNumber(v uint32) *ierr.Err {
	if _, err := e.sink.Write(e.outCoder.Encode(v)); err != nil {
		return ierr.New(ierr.IE621)
	}
	if _, err := e.sink.Write([]byte("\n")); err != nil {
		return ierr.New(ierr.IE621)
	}
	return nil
}

func (e *Eval) readNumber() (uint32, *ierr.Err) {
	line, rerr := e.in.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" && rerr != nil {
		return 0, ierr.New(ierr.IE621)
	}
	v, err := e.inCoder.Decode([]byte(line))
	if err != nil {
		return 0, ierr.New(ierr.IE621)
	}
	return v, nil
}
