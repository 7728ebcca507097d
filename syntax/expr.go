package syntax

import (
	"github.com/planfile/planfile/parser"
	"github.com/planfile/planfile/project"
	"github.com/planfile/planfile/scanner"
)

// cmpTail carries the operator half of an attribute comparison up to the
// operand action.
type cmpTail struct {
	op    project.CmpOp
	value any
}

type funcCall struct{}

// expression defines the logical expression grammar used by report filters:
// '|' and '&' with the usual precedence, '~' negation, parentheses, flag
// tests, attribute comparisons, and the isleaf() predicate.
func (b *builder) expression() {
	operandTail := b.rule("operand_tail")
	operandTail.Optional()
	operandTail.AddPattern(tokens(parser.Lit("("), parser.Lit(")")), func(ctx *parser.Context, values []any) (any, error) {
		return funcCall{}, nil
	})
	for _, c := range []struct {
		lit string
		op  project.CmpOp
	}{
		{"=", project.OpEQ},
		{"!=", project.OpNE},
		{"<", project.OpLT},
		{"<=", project.OpLE},
		{">", project.OpGT},
		{">=", project.OpGE},
	} {
		op := c.op
		operandTail.AddPattern(tokens(parser.Lit(c.lit), parser.Ref("cmp_value")), func(ctx *parser.Context, values []any) (any, error) {
			return cmpTail{op: op, value: values[0]}, nil
		})
	}

	cmpValue := b.rule("cmp_value")
	cmpValue.SinglePattern(parser.Typed(scanner.KindInteger))
	cmpValue.SinglePattern(parser.Typed(scanner.KindFloat))
	cmpValue.SinglePattern(parser.Typed(scanner.KindString))
	cmpValue.SinglePattern(parser.Typed(scanner.KindDate))

	operand := b.rule("logical_operand")
	operand.AddPattern(tokens(parser.Lit("("), parser.Ref("logical_expr"), parser.Lit(")")), passValue)
	operand.AddPattern(tokens(parser.Typed(scanner.KindID), parser.Ref("operand_tail")), func(ctx *parser.Context, values []any) (any, error) {
		name := values[0].(string)
		switch tail := values[1].(type) {
		case funcCall:
			if name != "isleaf" {
				return nil, ctx.SemanticErrorf("unknown_function", "function '%v' is not defined", name)
			}
			return &project.LeafExpr{}, nil
		case cmpTail:
			return &project.CmpExpr{Attr: name, Op: tail.op, Value: tail.value}, nil
		default:
			if !ctx.Project().FlagDefined(name) {
				return nil, ctx.SemanticErrorf("unknown_flag", "flag '%v' is not declared", name)
			}
			return &project.FlagExpr{Flag: name}, nil
		}
	})

	not := b.rule("logical_not")
	not.AddPattern(tokens(parser.Lit("~"), parser.Ref("logical_not")), func(ctx *parser.Context, values []any) (any, error) {
		return &project.NotExpr{X: values[0].(project.Expr)}, nil
	})
	not.AddPattern(tokens(parser.Ref("logical_operand")), passValue)

	andTail := b.rule("logical_and_tail")
	andTail.Optional().Repeatable()
	andTail.AddPattern(tokens(parser.Lit("&"), parser.Ref("logical_not")), passValue)

	and := b.rule("logical_and")
	and.AddPattern(tokens(parser.Ref("logical_not"), parser.Ref("logical_and_tail")), func(ctx *parser.Context, values []any) (any, error) {
		return foldBinary(values[0], values[1], func(x, y project.Expr) project.Expr {
			return &project.AndExpr{X: x, Y: y}
		}), nil
	})

	orTail := b.rule("logical_or_tail")
	orTail.Optional().Repeatable()
	orTail.AddPattern(tokens(parser.Lit("|"), parser.Ref("logical_and")), passValue)

	expr := b.rule("logical_expr")
	expr.AddPattern(tokens(parser.Ref("logical_and"), parser.Ref("logical_or_tail")), func(ctx *parser.Context, values []any) (any, error) {
		return foldBinary(values[0], values[1], func(x, y project.Expr) project.Expr {
			return &project.OrExpr{X: x, Y: y}
		}), nil
	})
}

func foldBinary(left any, rest any, combine func(x, y project.Expr) project.Expr) project.Expr {
	e := left.(project.Expr)
	for _, v := range parser.Slice(rest) {
		e = combine(e, v.(project.Expr))
	}
	return e
}
