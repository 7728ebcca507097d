package parser

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perr "github.com/planfile/planfile/error"
	"github.com/planfile/planfile/project"
	"github.com/planfile/planfile/scanner"
)

func newTestParser(t *testing.T, g *Grammar, proj *project.Project, src string) *Parser {
	t.Helper()
	s, err := scanner.New("test", strings.NewReader(src))
	require.NoError(t, err)
	return New(g, s, proj)
}

func TestParser_Dispatch(t *testing.T) {
	g := NewGrammar()
	var got []string
	stmt, err := g.DefineRule("stmt")
	require.NoError(t, err)
	stmt.AddPattern([]Token{Lit("task"), Typed(scanner.KindID)}, func(ctx *Context, values []any) (any, error) {
		got = append(got, "task "+values[0].(string))
		return nil, nil
	})
	stmt.AddPattern([]Token{Lit("milestone"), Typed(scanner.KindID)}, func(ctx *Context, values []any) (any, error) {
		got = append(got, "milestone "+values[0].(string))
		return nil, nil
	})
	stmts, err := g.DefineRule("stmts")
	require.NoError(t, err)
	stmts.Optional().Repeatable()
	stmts.AddPattern([]Token{Ref("stmt")}, nil)
	require.NoError(t, g.Validate())

	p := newTestParser(t, g, project.New(), "task design milestone ship task review")
	_, err = p.Parse("stmts")
	require.NoError(t, err)
	assert.Equal(t, []string{"task design", "milestone ship", "task review"}, got)
}

func TestParser_TypedValues(t *testing.T) {
	g := NewGrammar()
	var got []any
	r, err := g.DefineRule("attr")
	require.NoError(t, err)
	r.AddPattern([]Token{
		Lit("sample"),
		Typed(scanner.KindDate),
		Typed(scanner.KindInteger),
		Typed(scanner.KindFloat),
		Typed(scanner.KindString),
		Typed(scanner.KindTime),
	}, func(ctx *Context, values []any) (any, error) {
		got = values
		return nil, nil
	})
	require.NoError(t, g.Validate())

	p := newTestParser(t, g, project.New(), `sample 2024-01-02 5 1.5 "note" 09:30`)
	_, err = p.Parse("attr")
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC), got[0])
	assert.Equal(t, int64(5), got[1])
	assert.Equal(t, 1.5, got[2])
	assert.Equal(t, "note", got[3])
	assert.Equal(t, int64(9*3600+30*60), got[4])
}

func TestParser_CoercionErrors(t *testing.T) {
	tests := []struct {
		caption string
		kind    scanner.Kind
		src     string
		code    string
	}{
		{
			caption: "month out of range",
			kind:    scanner.KindDate,
			src:     "sample 2024-13-40",
			code:    "invalid_date",
		},
		{
			caption: "integer overflow",
			kind:    scanner.KindInteger,
			src:     "sample 99999999999999999999",
			code:    "invalid_number",
		},
		{
			caption: "hour out of range",
			kind:    scanner.KindTime,
			src:     "sample 25:61",
			code:    "invalid_time",
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			g := NewGrammar()
			r, err := g.DefineRule("attr")
			require.NoError(t, err)
			r.AddPattern([]Token{Lit("sample"), Typed(tt.kind)}, nil)
			require.NoError(t, g.Validate())

			p := newTestParser(t, g, project.New(), tt.src)
			_, err = p.Parse("attr")
			require.Error(t, err)
			assert.Equal(t, tt.code, perr.CodeOf(err))
		})
	}
}

func TestParser_SinglePattern(t *testing.T) {
	g := NewGrammar()
	mode, err := g.DefineRule("mode")
	require.NoError(t, err)
	mode.SinglePattern(Lit("order"))
	mode.SinglePattern(Typed(scanner.KindInteger))
	require.NoError(t, g.Validate())

	p := newTestParser(t, g, project.New(), "order")
	v, err := p.Parse("mode")
	require.NoError(t, err)
	assert.Equal(t, "order", v)

	p = newTestParser(t, g, project.New(), "7")
	v, err = p.Parse("mode")
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)
}

func TestParser_CommaList(t *testing.T) {
	g := NewGrammar()
	elem, err := g.DefineRule("flag")
	require.NoError(t, err)
	elem.SinglePattern(Typed(scanner.KindID))
	_, err = g.CommaListRule("flag_list", elem)
	require.NoError(t, err)
	require.NoError(t, g.Validate())

	tests := []struct {
		caption string
		src     string
		want    []any
	}{
		{caption: "three elements", src: "a, b, c", want: []any{"a", "b", "c"}},
		{caption: "one element", src: "a", want: []any{"a"}},
		{caption: "empty list", src: "", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			p := newTestParser(t, g, project.New(), tt.src)
			v, err := p.Parse("flag_list")
			require.NoError(t, err)
			assert.Equal(t, tt.want, Slice(v))
		})
	}
}

func TestParser_OptionsBlock(t *testing.T) {
	g := NewGrammar()
	body, err := g.DefineRule("dep_attr")
	require.NoError(t, err)
	body.AddPattern([]Token{Lit("gaplength"), Typed(scanner.KindInteger)}, func(ctx *Context, values []any) (any, error) {
		return values[0], nil
	})
	_, err = g.OptionsRule("dep_opts", body)
	require.NoError(t, err)
	dep, err := g.DefineRule("dep")
	require.NoError(t, err)
	dep.AddPattern([]Token{Lit("depends"), Typed(scanner.KindID), Ref("dep_opts")}, func(ctx *Context, values []any) (any, error) {
		return values[1], nil
	})
	require.NoError(t, g.Validate())

	p := newTestParser(t, g, project.New(), "depends impl { gaplength 3 gaplength 5 }")
	v, err := p.Parse("dep")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(3), int64(5)}, Slice(v))

	p = newTestParser(t, g, project.New(), "depends impl")
	v, err = p.Parse("dep")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestParser_ScenarioQualifier(t *testing.T) {
	proj := project.New()
	_, err := proj.AddScenario(nil, "plan", "Plan")
	require.NoError(t, err)
	_, err = proj.AddScenario(nil, "actual", "Actual")
	require.NoError(t, err)

	g := NewGrammar()
	var got []int
	inner, err := g.DefineRule("attr_body")
	require.NoError(t, err)
	inner.AddPattern([]Token{Lit("start"), Typed(scanner.KindDate)}, func(ctx *Context, values []any) (any, error) {
		got = append(got, ctx.ScenarioIndex())
		return nil, nil
	})
	attr, err := g.DefineRule("attr")
	require.NoError(t, err)
	attr.AddPattern([]Token{Typed(scanner.KindIDWithColon), Ref("attr_body")}, func(ctx *Context, values []any) (any, error) {
		return values[1], nil
	})
	attr.AddPattern([]Token{Lit("end"), Typed(scanner.KindDate)}, func(ctx *Context, values []any) (any, error) {
		got = append(got, ctx.ScenarioIndex())
		return nil, nil
	})
	attrs, err := g.DefineRule("attrs")
	require.NoError(t, err)
	attrs.Optional().Repeatable()
	attrs.AddPattern([]Token{Ref("attr")}, nil)
	require.NoError(t, g.Validate())

	p := newTestParser(t, g, proj, "actual:start 2024-01-02 end 2024-03-01")
	_, err = p.Parse("attrs")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, got)
}

func TestParser_UnknownScenario(t *testing.T) {
	proj := project.New()
	_, err := proj.AddScenario(nil, "plan", "Plan")
	require.NoError(t, err)

	g := NewGrammar()
	inner, err := g.DefineRule("attr_body")
	require.NoError(t, err)
	inner.AddPattern([]Token{Lit("start"), Typed(scanner.KindDate)}, nil)
	attr, err := g.DefineRule("attr")
	require.NoError(t, err)
	attr.AddPattern([]Token{Typed(scanner.KindIDWithColon), Ref("attr_body")}, nil)
	require.NoError(t, g.Validate())

	p := newTestParser(t, g, proj, "nope:start 2024-01-02")
	_, err = p.Parse("attr")
	require.Error(t, err)
	assert.Equal(t, "unknown_scenario", perr.CodeOf(err))
	e, ok := err.(*perr.Error)
	require.True(t, ok)
	assert.Equal(t, 1, e.Row)
	assert.Equal(t, 1, e.Col)
}

func TestParser_PatternAppendMidParse(t *testing.T) {
	g := NewGrammar()
	var got []any
	stmt, err := g.DefineRule("stmt")
	require.NoError(t, err)
	stmt.AddPattern([]Token{Lit("extend")}, func(ctx *Context, values []any) (any, error) {
		target, ok := ctx.Grammar().Rule("stmt")
		if !ok {
			t.Fatal("stmt rule not found")
		}
		target.AddPattern([]Token{Lit("delivered"), Typed(scanner.KindDate)}, func(ctx *Context, values []any) (any, error) {
			got = append(got, values[0])
			return nil, nil
		})
		return nil, nil
	})
	stmts, err := g.DefineRule("stmts")
	require.NoError(t, err)
	stmts.Optional().Repeatable()
	stmts.AddPattern([]Token{Ref("stmt")}, nil)
	require.NoError(t, g.Validate())

	p := newTestParser(t, g, project.New(), "delivered 2024-01-01")
	_, err = p.Parse("stmts")
	require.Error(t, err)
	assert.Equal(t, "unexpected_token", perr.CodeOf(err))

	got = nil
	p = newTestParser(t, g, project.New(), "extend delivered 2024-01-01")
	_, err = p.Parse("stmts")
	require.NoError(t, err)
	assert.Equal(t, []any{time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)}, got)
}

func TestParser_UnexpectedToken(t *testing.T) {
	g := NewGrammar()
	r, err := g.DefineRule("attr")
	require.NoError(t, err)
	r.AddPattern([]Token{Lit("start"), Typed(scanner.KindDate)}, nil)
	r.AddPattern([]Token{Lit("length"), Typed(scanner.KindInteger)}, nil)
	r.AddPattern([]Token{Lit("effort"), Typed(scanner.KindInteger)}, nil)
	require.NoError(t, g.Validate())

	p := newTestParser(t, g, project.New(), "strt 2024-01-01")
	_, err = p.Parse("attr")
	require.Error(t, err)
	assert.Equal(t, "unexpected_token", perr.CodeOf(err))
	assert.Contains(t, err.Error(), "'effort', 'length', 'start'")
	assert.Contains(t, err.Error(), "did you mean 'start'?")
}

func TestParser_UnexpectedEOF(t *testing.T) {
	g := NewGrammar()
	r, err := g.DefineRule("attr")
	require.NoError(t, err)
	r.AddPattern([]Token{Lit("start"), Typed(scanner.KindDate)}, nil)
	require.NoError(t, g.Validate())

	p := newTestParser(t, g, project.New(), "start")
	_, err = p.Parse("attr")
	require.Error(t, err)
	assert.Equal(t, "unexpected_eof", perr.CodeOf(err))
}

func TestParser_TrailingInput(t *testing.T) {
	g := NewGrammar()
	r, err := g.DefineRule("attr")
	require.NoError(t, err)
	r.AddPattern([]Token{Lit("start"), Typed(scanner.KindDate)}, nil)
	require.NoError(t, g.Validate())

	p := newTestParser(t, g, project.New(), "start 2024-01-01 start")
	_, err = p.Parse("attr")
	require.Error(t, err)
	assert.Equal(t, "unexpected_token", perr.CodeOf(err))
	assert.Contains(t, err.Error(), "expected end of file")
}

func TestParser_ActionPosition(t *testing.T) {
	g := NewGrammar()
	var pos Position
	r, err := g.DefineRule("attr")
	require.NoError(t, err)
	r.AddPattern([]Token{Lit("start"), Typed(scanner.KindDate)}, func(ctx *Context, values []any) (any, error) {
		pos = ctx.Pos()
		return nil, nil
	})
	require.NoError(t, g.Validate())

	p := newTestParser(t, g, project.New(), "\n  start 2024-01-01")
	_, err = p.Parse("attr")
	require.NoError(t, err)
	assert.Equal(t, 2, pos.Row)
	assert.Equal(t, 3, pos.Col)
}

func TestParser_ActionErrorCarriesPosition(t *testing.T) {
	g := NewGrammar()
	r, err := g.DefineRule("attr")
	require.NoError(t, err)
	r.AddPattern([]Token{Lit("priority"), Typed(scanner.KindInteger)}, func(ctx *Context, values []any) (any, error) {
		return nil, ctx.SemanticErrorf("priority_range", "priority must be between 0 and 1000")
	})
	require.NoError(t, g.Validate())

	p := newTestParser(t, g, project.New(), "priority 5000")
	_, err = p.Parse("attr")
	require.Error(t, err)
	assert.Equal(t, "priority_range", perr.CodeOf(err))
	e, ok := err.(*perr.Error)
	require.True(t, ok)
	assert.Equal(t, 1, e.Row)
	assert.Equal(t, 1, e.Col)
}
