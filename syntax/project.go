package syntax

import (
	"time"

	perr "github.com/planfile/planfile/error"
	"github.com/planfile/planfile/parser"
	"github.com/planfile/planfile/project"
	"github.com/planfile/planfile/scanner"
)

// scnDecl is a parsed scenario declaration. Registration happens at the
// project_attr level so nested declarations see their parent first.
type scnDecl struct {
	id   string
	name string
	kids []*scnDecl
	pos  parser.Position
}

func registerScenario(ctx *parser.Context, parent *project.Scenario, d *scnDecl) error {
	sc, err := ctx.Project().AddScenario(parent, d.id, d.name)
	if err != nil {
		if e, ok := err.(*perr.Error); ok {
			e.SourceName = d.pos.SourceName
			e.FilePath = d.pos.FilePath
			e.Row = d.pos.Row
			e.Col = d.pos.Col
		}
		return err
	}
	for _, kid := range d.kids {
		if err := registerScenario(ctx, sc, kid); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) project() {
	kidsList := b.rule("scenario_decl_list")
	kidsList.Optional().Repeatable()
	kidsList.AddPattern(tokens(parser.Ref("scenario_decl")), passValue)

	kids := b.rule("scenario_kids")
	kids.Optional()
	kids.AddPattern(tokens(parser.Lit("{"), parser.Ref("scenario_decl_list"), parser.Lit("}")), passValue)

	decl := b.rule("scenario_decl")
	decl.AddPattern(tokens(parser.Lit("scenario"), parser.Typed(scanner.KindID), parser.Typed(scanner.KindString), parser.Ref("scenario_kids")), func(ctx *parser.Context, values []any) (any, error) {
		d := &scnDecl{id: values[0].(string), name: values[1].(string), pos: ctx.Pos()}
		for _, v := range parser.Slice(values[2]) {
			d.kids = append(d.kids, v.(*scnDecl))
		}
		return d, nil
	}).
		Doc("", "Declares a scenario. Nested scenarios inherit the values of their parent where they do not set their own. The first declared scenario is the default one.").
		Syntax(`scenario <id> "<name>" [{ <scenarios> }]`).
		Arg(0, "id", "Identifier used as an attribute qualifier, as in plan:start.").
		Arg(1, "name", "Display name of the scenario.").
		SeeAlso("project")

	pattr := b.rule("project_attr")
	pattr.Optional().Repeatable().AttributeBody()

	pattr.AddPattern(tokens(parser.Ref("scenario_decl")), func(ctx *parser.Context, values []any) (any, error) {
		return nil, registerScenario(ctx, nil, values[0].(*scnDecl))
	})

	pattr.AddPattern(tokens(parser.Lit("timingresolution"), parser.Typed(scanner.KindInteger), parser.Typed(scanner.KindID)), func(ctx *parser.Context, values []any) (any, error) {
		secs, err := ctx.Project().CalendarSeconds(float64(values[0].(int64)), values[1].(string))
		if err != nil {
			return nil, err
		}
		if secs < 5*60 || secs > 60*60 {
			return nil, ctx.SemanticErrorf("timingresolution_range", "timing resolution must be between 5 and 60 minutes")
		}
		ctx.Project().TimingResolution = time.Duration(secs) * time.Second
		return secs, nil
	}).
		Doc("", "Granularity of the working time calendar. Tasks shorter than this cannot be scheduled as planned.").
		Arg(0, "value", "Amount of time units.").
		Arg(1, "unit", "Usually min. The resolution must lie between 5 and 60 minutes.")

	pattr.AddPattern(tokens(parser.Lit("dailyworkinghours"), parser.Ref("number")), func(ctx *parser.Context, values []any) (any, error) {
		v := asFloat(values[0])
		ctx.Project().DailyWorkingHours = v
		return v, nil
	}).
		Doc("", "Average working hours per day. The conversion factor between working days and working hours.").
		Arg(0, "hours", "Hours per working day, 8 by default.").
		SeeAlso("yearlyworkingdays")

	pattr.AddPattern(tokens(parser.Lit("yearlyworkingdays"), parser.Ref("number")), func(ctx *parser.Context, values []any) (any, error) {
		v := asFloat(values[0])
		ctx.Project().YearlyWorkingDays = v
		return v, nil
	}).
		Doc("", "Average working days per year. The conversion factor between working years, months and weeks.").
		Arg(0, "days", "Days per working year, 260.714 by default.").
		SeeAlso("dailyworkinghours")

	pattr.AddPattern(tokens(parser.Lit("now"), parser.Typed(scanner.KindDate)), func(ctx *parser.Context, values []any) (any, error) {
		ctx.Project().Now = values[0].(time.Time)
		return values[0], nil
	}).
		Doc("", "The date reports treat as the current moment. Defaults to the time the plan is read.").
		Arg(0, "date", "The reference date.")

	pattr.AddPattern(tokens(parser.Lit("currency"), parser.Typed(scanner.KindString)), func(ctx *parser.Context, values []any) (any, error) {
		ctx.Project().Currency = values[0].(string)
		return values[0], nil
	}).
		Doc("", "The currency cost values are expressed in.").
		Arg(0, "name", "A currency name or symbol, such as \"EUR\".").
		SeeAlso("rate")

	pattr.AddPattern(tokens(parser.Lit("flags"), parser.Ref("flag_decl_list")), nil).
		Doc("flags", "Declares the flags tasks and resources may carry. Flags have no meaning of their own; reports filter on them.").
		Arg(0, "list", "Comma-separated flag names.").
		SeeAlso("resource.flags", "task.flags")

	pattr.AddPattern(tokens(parser.Ref("include_stmt")), passValue)

	b.extendAttr(pattr)

	ids := b.rule("project_ids")
	ids.AddPattern(tokens(parser.Typed(scanner.KindID), parser.Typed(scanner.KindString), parser.Ref("opt_string")), func(ctx *parser.Context, values []any) (any, error) {
		proj := ctx.Project()
		proj.ID = values[0].(string)
		proj.Name = values[1].(string)
		if values[2] != nil {
			proj.Version = values[2].(string)
		}
		return nil, nil
	})
	ids.AddPattern(tokens(parser.Typed(scanner.KindString), parser.Ref("opt_string")), func(ctx *parser.Context, values []any) (any, error) {
		proj := ctx.Project()
		proj.Name = values[0].(string)
		if values[1] != nil {
			proj.Version = values[1].(string)
		}
		return nil, nil
	})

	header := b.rule("project_header")
	header.AddPattern(tokens(parser.Lit("project"), parser.Ref("project_ids"), parser.Ref("interval")), func(ctx *parser.Context, values []any) (any, error) {
		iv := values[1].(project.Interval)
		proj := ctx.Project()
		proj.Start = iv.Start
		proj.End = iv.End
		return nil, nil
	})

	def := b.rule("project_def")
	def.AddPattern(tokens(parser.Ref("project_header"), parser.Lit("{"), parser.Ref("project_attr"), parser.Lit("}")), func(ctx *parser.Context, values []any) (any, error) {
		ctx.Project().EnsureDefaultScenario()
		return nil, nil
	}).
		Doc("project", "Defines the project frame: name, time span and global settings. It should precede the tasks and resources that use its settings.").
		Syntax(`project [<id>] "<name>" ["<version>"] <start> - <end> { <attributes> }`).
		Arg(0, "id", "Optional identifier of the project.").
		Arg(1, "name", "Name of the project.").
		SeeAlso("resource", "scenario", "task")
}
