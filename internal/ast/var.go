package ast

// VarKind distinguishes the four variable namespaces. The pair
// (VarKind, Index) is the unique key used by IGNORE/STASH tables and by
// the interpreter's per-kind storage vectors.
type VarKind int

const (
	KindSpot VarKind = iota
	KindTwospot
	KindTail
	KindHybrid
)

// Var is a reference to a variable, for either load or store. Subs
// holds the subscripts when an array variable is being indexed, and is
// nil for scalars and for a bare array name (a DIM target, or a whole
// array in WRITE IN/READ OUT); a DIM's dimension list lives in
// Dim.Dims, not here.
type Var struct {
	Kind  VarKind
	Index int
	Subs  []Expr // nil for scalars and bare array names; subscript expressions otherwise
}

// IsDim reports whether this is an array reference used purely for
// dimensioning (no subscripts supplied at the use site).
func (v Var) IsDim() bool {
	return (v.Kind == KindTail || v.Kind == KindHybrid) && len(v.Subs) == 0
}

// Unique returns the key used to index VarInfo / IGNORE tables.
func (v Var) Unique() (VarKind, int) {
	return v.Kind, v.Index
}

// VType reports the declared bit width of this variable.
func (v Var) VType() VType {
	switch v.Kind {
	case KindSpot, KindTail:
		return V16
	default:
		return V32
	}
}

// VarInfo records whether a variable is ever the target of
// STASH/RETRIEVE or IGNORE/REMEMBER. Parser-time default is "both
// possible"; the optimizer's var-check pass narrows these down so the
// interpreter can skip the corresponding bookkeeping for variables that
// never need it.
type VarInfo struct {
	CanIgnore bool
	CanStash  bool
}

// NewVarInfo returns the conservative (parser-time) default.
func NewVarInfo() VarInfo {
	return VarInfo{CanIgnore: true, CanStash: true}
}
