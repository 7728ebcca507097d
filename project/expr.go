package project

import (
	"fmt"
	"time"

	perr "github.com/planfile/planfile/error"
)

// Expr is a logical expression evaluated against one property in one
// scenario. Report hide filters are built from these.
type Expr interface {
	Eval(p *Property, scenario int) (bool, error)
}

// FlagExpr is true when the property carries the flag.
type FlagExpr struct {
	Flag string
}

func (e *FlagExpr) Eval(p *Property, scenario int) (bool, error) {
	return p.HasFlag(e.Flag), nil
}

// LeafExpr is true for properties without children.
type LeafExpr struct{}

func (e *LeafExpr) Eval(p *Property, scenario int) (bool, error) {
	return p.IsLeaf(), nil
}

type NotExpr struct {
	X Expr
}

func (e *NotExpr) Eval(p *Property, scenario int) (bool, error) {
	v, err := e.X.Eval(p, scenario)
	if err != nil {
		return false, err
	}
	return !v, nil
}

type AndExpr struct {
	X Expr
	Y Expr
}

func (e *AndExpr) Eval(p *Property, scenario int) (bool, error) {
	x, err := e.X.Eval(p, scenario)
	if err != nil {
		return false, err
	}
	if !x {
		return false, nil
	}
	return e.Y.Eval(p, scenario)
}

type OrExpr struct {
	X Expr
	Y Expr
}

func (e *OrExpr) Eval(p *Property, scenario int) (bool, error) {
	x, err := e.X.Eval(p, scenario)
	if err != nil {
		return false, err
	}
	if x {
		return true, nil
	}
	return e.Y.Eval(p, scenario)
}

type CmpOp int

const (
	OpEQ CmpOp = iota
	OpNE
	OpLT
	OpLE
	OpGT
	OpGE
)

func (op CmpOp) String() string {
	switch op {
	case OpEQ:
		return "="
	case OpNE:
		return "!="
	case OpLT:
		return "<"
	case OpLE:
		return "<="
	case OpGT:
		return ">"
	case OpGE:
		return ">="
	}
	return "?"
}

// CmpExpr compares an attribute of the property with a constant. A property
// without the attribute never matches.
type CmpExpr struct {
	Attr  string
	Op    CmpOp
	Value any
}

func (e *CmpExpr) Eval(p *Property, scenario int) (bool, error) {
	got, ok := p.ScenarioAttr(scenario, e.Attr)
	if !ok {
		return false, nil
	}
	ord, eq, err := compare(got, e.Value)
	if err != nil {
		return false, err
	}
	switch e.Op {
	case OpEQ:
		return eq, nil
	case OpNE:
		return !eq, nil
	case OpLT:
		return ord < 0, nil
	case OpLE:
		return ord <= 0, nil
	case OpGT:
		return ord > 0, nil
	case OpGE:
		return ord >= 0, nil
	}
	return false, nil
}

func compare(a, b any) (int, bool, error) {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			switch {
			case af < bf:
				return -1, false, nil
			case af > bf:
				return 1, false, nil
			}
			return 0, true, nil
		}
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			switch {
			case as < bs:
				return -1, false, nil
			case as > bs:
				return 1, false, nil
			}
			return 0, true, nil
		}
	}
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			switch {
			case at.Before(bt):
				return -1, false, nil
			case at.After(bt):
				return 1, false, nil
			}
			return 0, true, nil
		}
	}
	return 0, false, &perr.Error{
		Kind:    perr.KindSemantic,
		Code:    "type_mismatch",
		Message: fmt.Sprintf("cannot compare %T with %T", a, b),
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
