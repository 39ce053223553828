package ast

// Expr is the closed set of expression node kinds. Every concrete type
// below implements it; the interpreter and optimizer switch on the
// dynamic type rather than going through a visitor, since the set is
// small, fixed, and never extended at runtime.
type Expr interface {
	exprNode()
	VType() VType
}

// Num is a literal value. The parser types every source literal as
// 16-bit, whatever its value (a value above #65535 is caught later, for
// example by the assignment width check); 32-bit literals only appear
// after constant folding.
type Num struct {
	Type VType
	Val  uint32
}

func (Num) exprNode()        {}
func (n Num) VType() VType   { return n.Type }

// VarRef reads a variable.
type VarRef struct {
	V Var
}

func (VarRef) exprNode()      {}
func (r VarRef) VType() VType { return r.V.VType() }

// Mingle is INTERCAL's $ operator: interleave two 16-bit operands into
// a 32-bit result. Always 32-bit.
type Mingle struct {
	Left, Right Expr
}

func (Mingle) exprNode()      {}
func (Mingle) VType() VType   { return V32 }

// Select is INTERCAL's ~ operator: gather the bits of Left selected by
// the set bits of Right. Width matches Left.
type Select struct {
	Left, Right Expr
}

func (Select) exprNode()      {}
func (s Select) VType() VType { return s.Left.VType() }

// UnaryOp is one of the three unary bitwise reductions: rotate the
// operand right by one bit, then combine with the original using Op.
type UnaryKind int

const (
	UAnd UnaryKind = iota
	UOr
	UXor
)

type UnaryOp struct {
	Op      UnaryKind
	Type    VType
	Operand Expr
}

func (UnaryOp) exprNode()      {}
func (u UnaryOp) VType() VType { return u.Type }

// The Rs* nodes below only appear after the optimizer has lowered an
// INTERCAL idiom into conventional arithmetic; the parser never emits
// them. All are 32-bit per the original semantics (see
// Expr::get_vtype in the reference implementation).

type RsNot struct{ X Expr }

func (RsNot) exprNode()    {}
func (RsNot) VType() VType { return V32 }

type rsBinKind int

const (
	rsAnd rsBinKind = iota
	rsOr
	rsXor
	rsRshift
	rsLshift
	rsNotEqual
	rsPlus
	rsMinus
)

type rsBin struct {
	kind rsBinKind
	X, Y Expr
}

func (rsBin) exprNode()    {}
func (rsBin) VType() VType { return V32 }

func NewRsAnd(x, y Expr) Expr      { return rsBin{rsAnd, x, y} }
func NewRsOr(x, y Expr) Expr       { return rsBin{rsOr, x, y} }
func NewRsXor(x, y Expr) Expr      { return rsBin{rsXor, x, y} }
func NewRsRshift(x, y Expr) Expr   { return rsBin{rsRshift, x, y} }
func NewRsLshift(x, y Expr) Expr   { return rsBin{rsLshift, x, y} }
func NewRsNotEqual(x, y Expr) Expr { return rsBin{rsNotEqual, x, y} }
func NewRsPlus(x, y Expr) Expr     { return rsBin{rsPlus, x, y} }
func NewRsMinus(x, y Expr) Expr    { return rsBin{rsMinus, x, y} }

// AsRsBin exposes the kind/operands of a lowered binary node for
// optimizer passes and the interpreter's dispatch; ok is false for any
// other Expr.
func AsRsBin(e Expr) (kind rsBinKind, x, y Expr, ok bool) {
	b, ok := e.(rsBin)
	if !ok {
		return 0, nil, nil, false
	}
	return b.kind, b.X, b.Y, true
}

const (
	RsAndKind      = rsAnd
	RsOrKind       = rsOr
	RsXorKind      = rsXor
	RsRshiftKind   = rsRshift
	RsLshiftKind   = rsLshift
	RsNotEqualKind = rsNotEqual
	RsPlusKind     = rsPlus
	RsMinusKind    = rsMinus
)

type RsBinKind = rsBinKind
