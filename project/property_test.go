package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perr "github.com/planfile/planfile/error"
)

func TestPropertySet_Add(t *testing.T) {
	ps := NewPropertySet("task", NewAttributeSchema())

	root, err := ps.Add(nil, "build", "Build")
	require.NoError(t, err)
	assert.Equal(t, "build", root.FullID)

	child, err := ps.Add(root, "api", "API")
	require.NoError(t, err)
	assert.Equal(t, "build.api", child.FullID)
	assert.Equal(t, root, child.Parent)
	assert.Equal(t, []*Property{child}, root.Children)

	_, err = ps.Add(root, "api", "API again")
	require.Error(t, err)
	assert.Equal(t, "duplicate_property", perr.CodeOf(err))

	got, ok := ps.Lookup("build.api")
	require.True(t, ok)
	assert.Equal(t, child, got)
}

func TestPropertySet_Resolve(t *testing.T) {
	ps := NewPropertySet("task", NewAttributeSchema())
	a, _ := ps.Add(nil, "a", "")
	ab, _ := ps.Add(a, "b", "")
	abc, _ := ps.Add(ab, "c", "")
	abd, _ := ps.Add(ab, "d", "")
	ps.Add(a, "d", "")

	tests := []struct {
		caption string
		ref     string
		scope   *Property
		want    *Property
		errCode string
	}{
		{caption: "absolute dotted path", ref: "a.b.c", scope: abd, want: abc},
		{caption: "absolute root", ref: "a", scope: abc, want: a},
		{caption: "one bang names a sibling", ref: "!d", scope: abc, want: abd},
		{caption: "two bangs climb to the grandparent scope", ref: "!!b", scope: abc, want: ab},
		{caption: "bangs past the root resolve absolutely", ref: "!!!a", scope: abc, want: a},
		{caption: "a plain ID reaches a nested property by its leaf ID", ref: "c", scope: nil, want: abc},
		{caption: "an ambiguous leaf ID is rejected", ref: "d", scope: abc, errCode: "ambiguous_task"},
		{caption: "unresolved reference", ref: "a.x", scope: abc, errCode: "unknown_task"},
		{caption: "unresolved relative reference", ref: "!x", scope: abc, errCode: "unknown_task"},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			got, err := ps.Resolve(tt.ref, tt.scope)
			if tt.errCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.errCode, perr.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProperty_Inheritance(t *testing.T) {
	schema := NewAttributeSchema()
	require.NoError(t, schema.Define(&AttributeDef{Name: "Rate", Type: AttrNumber, Inheritable: true}))
	require.NoError(t, schema.Define(&AttributeDef{Name: "Note", Type: AttrText}))
	require.NoError(t, schema.Define(&AttributeDef{Name: "Start", Type: AttrDate, Inheritable: true, ScenarioSpecific: true}))

	ps := NewPropertySet("resource", schema)
	parent, _ := ps.Add(nil, "team", "Team")
	parent.SetAttr("rate", int64(300))
	parent.SetAttr("note", "internal")
	parent.SetScenarioAttr(1, "start", "2024-02-01")
	parent.AddFlag("critical")

	child, err := ps.Add(parent, "dev", "Developer")
	require.NoError(t, err)

	v, ok := child.Attr("rate")
	require.True(t, ok, "inheritable attribute is copied")
	assert.Equal(t, int64(300), v)

	_, ok = child.Attr("note")
	assert.False(t, ok, "non-inheritable attribute is not copied")

	v, ok = child.ScenarioAttr(1, "start")
	require.True(t, ok, "scenario values of inheritable attributes are copied")
	assert.Equal(t, "2024-02-01", v)

	assert.True(t, child.HasFlag("critical"))

	// Copies happen at creation; later changes to the parent stay local.
	parent.SetAttr("rate", int64(500))
	v, _ = child.Attr("rate")
	assert.Equal(t, int64(300), v)
}

func TestProperty_ScenarioAttrFallback(t *testing.T) {
	ps := NewPropertySet("task", NewAttributeSchema())
	p, _ := ps.Add(nil, "t", "")

	p.SetAttr("priority", int64(500))
	p.SetScenarioAttr(1, "priority", int64(900))

	v, ok := p.ScenarioAttr(1, "priority")
	require.True(t, ok)
	assert.Equal(t, int64(900), v)

	v, ok = p.ScenarioAttr(0, "priority")
	require.True(t, ok, "falls back to the plain table")
	assert.Equal(t, int64(500), v)

	_, ok = p.ScenarioAttr(3, "missing")
	assert.False(t, ok)
}

func TestAttributeSchema_Define(t *testing.T) {
	schema := NewAttributeSchema()
	require.NoError(t, schema.Define(&AttributeDef{Name: "Delivered", Type: AttrDate, UserDefined: true}))

	def, ok := schema.Lookup("delivered")
	require.True(t, ok, "lookup is by lowercased keyword")
	assert.Equal(t, "Delivered", def.Name)

	err := schema.Define(&AttributeDef{Name: "delivered", Type: AttrText})
	require.Error(t, err)
	assert.Equal(t, "duplicate_attribute", perr.CodeOf(err))
}

func TestProject_Scenarios(t *testing.T) {
	p := New()

	plan, err := p.AddScenario(nil, "plan", "Plan")
	require.NoError(t, err)
	actual, err := p.AddScenario(plan, "actual", "Actual")
	require.NoError(t, err)
	assert.Equal(t, 0, plan.Index)
	assert.Equal(t, 1, actual.Index)
	assert.Equal(t, plan, actual.Parent)

	_, err = p.AddScenario(nil, "plan", "Plan again")
	require.Error(t, err)
	assert.Equal(t, "duplicate_scenario", perr.CodeOf(err))

	idx, err := p.ScenarioIndex("actual")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	_, err = p.ScenarioIndex("dream")
	require.Error(t, err)
	assert.Equal(t, "unknown_scenario", perr.CodeOf(err))
}

func TestProject_EnsureDefaultScenario(t *testing.T) {
	p := New()
	p.EnsureDefaultScenario()
	require.Equal(t, 1, p.ScenarioCount())
	assert.Equal(t, "plan", p.Scenarios()[0].ID)

	// Declared scenarios suppress the default.
	p2 := New()
	p2.AddScenario(nil, "base", "Base")
	p2.EnsureDefaultScenario()
	assert.Equal(t, 1, p2.ScenarioCount())
	assert.Equal(t, "base", p2.Scenarios()[0].ID)
}
