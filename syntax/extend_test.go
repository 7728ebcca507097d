package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perr "github.com/planfile/planfile/error"
	"github.com/planfile/planfile/project"
)

func TestExtend_DateAttribute(t *testing.T) {
	proj := parsePlan(t, `
project p "P" 2002-01-01 - 2002-06-01 {
	extend task {
		date Delivered "Delivery date"
	}
}
task t "T" { delivered 2002-04-01 }
`)
	task, _ := proj.Tasks.Lookup("t")
	v, ok := task.Attr("delivered")
	require.True(t, ok)
	assert.Equal(t, day(2002, 4, 1), v)

	def, ok := proj.TaskAttributes.Lookup("delivered")
	require.True(t, ok)
	assert.Equal(t, "Delivered", def.Name)
	assert.Equal(t, "Delivery date", def.Label)
	assert.Equal(t, project.AttrDate, def.Type)
	assert.True(t, def.UserDefined)
}

func TestExtend_KeywordUnknownWithoutExtend(t *testing.T) {
	err := parseErr(t, `
task t "T" { delivered 2002-04-01 }
`)
	assert.Equal(t, "unexpected_token", perr.CodeOf(err))
}

func TestExtend_NotVisibleBeforeStatement(t *testing.T) {
	err := parseErr(t, `
task t "T" { delivered 2002-04-01 }
project p "P" 2002-01-01 - 2002-06-01 {
	extend task {
		date Delivered
	}
}
`)
	assert.Equal(t, "unexpected_token", perr.CodeOf(err))
	var e *perr.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, 2, e.Row)
}

func TestExtend_TextAttributeOnResource(t *testing.T) {
	proj := parsePlan(t, `
project p "P" 2002-01-01 - 2002-06-01 {
	extend resource {
		text Badge
	}
}
resource r "R" { badge "B-17" }
`)
	r, _ := proj.Resources.Lookup("r")
	v, ok := r.Attr("badge")
	require.True(t, ok)
	assert.Equal(t, "B-17", v)
}

func TestExtend_ReferenceInherited(t *testing.T) {
	proj := parsePlan(t, `
project p "P" 2002-01-01 - 2002-06-01 {
	extend task {
		reference Spec "Specification" { inherit }
	}
}
task top "Top" {
	spec handbook "The Handbook"
	task sub "Sub" { milestone }
}
`)
	sub, _ := proj.Tasks.Lookup("top.sub")
	v, ok := sub.Attr("spec")
	require.True(t, ok)
	ref := v.(project.Reference)
	assert.Equal(t, "handbook", ref.Target)
	assert.Equal(t, "The Handbook", ref.Label)
}

func TestExtend_ScenarioSpecific(t *testing.T) {
	proj := parsePlan(t, `
project p "P" 2002-01-01 - 2002-06-01 {
	scenario plan "Plan" {
		scenario actual "Actual"
	}
	extend task {
		date Reviewed { scenariospecific }
	}
}
task t "T" {
	actual:reviewed 2002-02-02
}
`)
	task, _ := proj.Tasks.Lookup("t")
	_, ok := task.ScenarioAttr(0, "reviewed")
	assert.False(t, ok)
	v, ok := task.ScenarioAttr(1, "reviewed")
	require.True(t, ok)
	assert.Equal(t, day(2002, 2, 2), v)
}

func TestExtend_NameMustBeUppercase(t *testing.T) {
	err := parseErr(t, `
project p "P" 2002-01-01 - 2002-06-01 {
	extend task {
		date delivered
	}
}
`)
	assert.Equal(t, "invalid_attribute_name", perr.CodeOf(err))
	var e *perr.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, 4, e.Row)
}

func TestExtend_CannotShadowBuiltin(t *testing.T) {
	err := parseErr(t, `
project p "P" 2002-01-01 - 2002-06-01 {
	extend task {
		date Start
	}
}
`)
	assert.Equal(t, "duplicate_attribute", perr.CodeOf(err))
}

func TestExtend_DuplicateDeclaration(t *testing.T) {
	err := parseErr(t, `
project p "P" 2002-01-01 - 2002-06-01 {
	extend task {
		date Delivered
	}
	extend task {
		text Delivered
	}
}
`)
	assert.Equal(t, "duplicate_attribute", perr.CodeOf(err))
}

func TestExtend_TaskAndResourceNamespacesAreSeparate(t *testing.T) {
	proj := parsePlan(t, `
project p "P" 2002-01-01 - 2002-06-01 {
	extend task {
		date Audited
	}
	extend resource {
		date Audited
	}
}
task t "T" { audited 2002-03-01 }
resource r "R" { audited 2002-03-02 }
`)
	task, _ := proj.Tasks.Lookup("t")
	v, _ := task.Attr("audited")
	assert.Equal(t, day(2002, 3, 1), v)
	r, _ := proj.Resources.Lookup("r")
	v, _ = r.Attr("audited")
	assert.Equal(t, day(2002, 3, 2), v)
}
