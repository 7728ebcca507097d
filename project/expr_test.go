package project

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perr "github.com/planfile/planfile/error"
)

func TestExpr_Eval(t *testing.T) {
	ps := NewPropertySet("task", NewAttributeSchema())
	parent, _ := ps.Add(nil, "p", "")
	leaf, _ := ps.Add(parent, "l", "")
	leaf.AddFlag("urgent")
	leaf.SetAttr("priority", int64(700))
	leaf.SetScenarioAttr(1, "priority", int64(100))
	leaf.SetAttr("responsible", "ann")
	leaf.SetAttr("end", time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC))

	tests := []struct {
		caption  string
		expr     Expr
		scenario int
		want     bool
	}{
		{caption: "flag set", expr: &FlagExpr{Flag: "urgent"}, want: true},
		{caption: "flag unset", expr: &FlagExpr{Flag: "cheap"}, want: false},
		{caption: "negation", expr: &NotExpr{X: &FlagExpr{Flag: "cheap"}}, want: true},
		{
			caption: "conjunction",
			expr:    &AndExpr{X: &FlagExpr{Flag: "urgent"}, Y: &LeafExpr{}},
			want:    true,
		},
		{
			caption: "disjunction short-circuits",
			expr:    &OrExpr{X: &FlagExpr{Flag: "urgent"}, Y: &CmpExpr{Attr: "end", Op: OpEQ, Value: "not a date"}},
			want:    true,
		},
		{caption: "numeric comparison", expr: &CmpExpr{Attr: "priority", Op: OpGT, Value: int64(500)}, want: true},
		{
			caption:  "comparison sees the scenario value",
			expr:     &CmpExpr{Attr: "priority", Op: OpGT, Value: int64(500)},
			scenario: 1,
			want:     false,
		},
		{caption: "string comparison", expr: &CmpExpr{Attr: "responsible", Op: OpEQ, Value: "ann"}, want: true},
		{
			caption: "date comparison",
			expr:    &CmpExpr{Attr: "end", Op: OpLE, Value: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)},
			want:    true,
		},
		{caption: "missing attribute never matches", expr: &CmpExpr{Attr: "ghost", Op: OpEQ, Value: int64(1)}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			got, err := tt.expr.Eval(leaf, tt.scenario)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("type mismatch is an error", func(t *testing.T) {
		e := &CmpExpr{Attr: "responsible", Op: OpEQ, Value: int64(3)}
		_, err := e.Eval(leaf, 0)
		require.Error(t, err)
		assert.Equal(t, "type_mismatch", perr.CodeOf(err))
	})

	t.Run("isleaf distinguishes parents", func(t *testing.T) {
		e := &LeafExpr{}
		got, err := e.Eval(parent, 0)
		require.NoError(t, err)
		assert.False(t, got)
	})
}
