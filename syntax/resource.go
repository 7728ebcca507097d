package syntax

import (
	"github.com/planfile/planfile/parser"
	"github.com/planfile/planfile/project"
	"github.com/planfile/planfile/scanner"
)

// bookingOption configures one booking after its task and intervals parsed.
type bookingOption func(ctx *parser.Context, bk *project.Booking) error

func (b *builder) resource() {
	scen := b.rule(resourceScenAttrRule)
	scen.ScenarioSpecific().AttributeBody()

	bookingAttr := b.rule("booking_attr")
	bookingAttr.AddPattern(tokens(parser.Lit("overtime"), parser.Typed(scanner.KindInteger)), func(ctx *parser.Context, values []any) (any, error) {
		n := values[0].(int64)
		if n < 0 || n > 2 {
			return nil, ctx.SemanticErrorf("overtime_range", "overtime must be between 0 and 2, got %v", n)
		}
		return bookingOption(func(ctx *parser.Context, bk *project.Booking) error {
			bk.Overtime = n
			return nil
		}), nil
	}).
		Doc("", "How far the booking may exceed the working time calendar. 0 allows none, 1 books through breaks, 2 books around the clock.").
		Arg(0, "level", "A value between 0 and 2.").
		SeeAlso("sloppy")

	bookingAttr.AddPattern(tokens(parser.Lit("sloppy"), parser.Typed(scanner.KindInteger)), func(ctx *parser.Context, values []any) (any, error) {
		n := values[0].(int64)
		if n < 0 || n > 2 {
			return nil, ctx.SemanticErrorf("sloppy_range", "sloppy must be between 0 and 2, got %v", n)
		}
		return bookingOption(func(ctx *parser.Context, bk *project.Booking) error {
			bk.Sloppy = n
			return nil
		}), nil
	}).
		Doc("", "How much overlap with existing bookings to tolerate. 0 rejects any conflict, 2 silently trims the booking.").
		Arg(0, "level", "A value between 0 and 2.").
		SeeAlso("overtime")
	b.options("booking_opts", bookingAttr)

	scen.AddPattern(tokens(parser.Lit("booking"), parser.Ref("prop_ref"), parser.Ref("interval_list"), parser.Ref("booking_opts")), func(ctx *parser.Context, values []any) (any, error) {
		task, err := ctx.Project().Tasks.Resolve(values[0].(string), nil)
		if err != nil {
			return nil, err
		}
		bk := &project.Booking{Task: task}
		for _, v := range parser.Slice(values[1]) {
			bk.Intervals = append(bk.Intervals, v.(project.Interval))
		}
		for _, v := range parser.Slice(values[2]) {
			if err := v.(bookingOption)(ctx, bk); err != nil {
				return nil, err
			}
		}
		prop := ctx.Property()
		idx := ctx.ScenarioIndex()
		var list []*project.Booking
		if cur, ok := prop.ScenarioAttr(idx, "booking"); ok {
			list = cur.([]*project.Booking)
		}
		prop.SetScenarioAttr(idx, "booking", append(list, bk))
		return bk, nil
	}).
		Doc("", "Records that the resource worked on a task over fixed time intervals. Bookings usually come from a tracking file fed back into the plan.").
		Syntax(`booking <task> <interval> [, <interval>...] [{ <attributes> }]`).
		Arg(0, "task", "The task the resource worked on.").
		Arg(1, "intervals", "Comma-separated time intervals.").
		MarkScenarioSpecific().
		SeeAlso("resource", "task")

	rattr := b.rule(resourceAttrRule)
	rattr.Optional().Repeatable().AttributeBody()
	rattr.AddPattern(tokens(parser.Ref(resourceScenAttrRule)), passValue)
	rattr.AddPattern(tokens(parser.Typed(scanner.KindIDWithColon), parser.Ref(resourceScenAttrRule)), secondValue)

	rattr.AddPattern(tokens(parser.Lit("rate"), parser.Ref("number")), func(ctx *parser.Context, values []any) (any, error) {
		v := asFloat(values[0])
		ctx.Property().SetAttr("rate", v)
		return v, nil
	}).
		Doc("", "Daily cost of the resource, in the project currency.").
		Arg(0, "amount", "Cost per working day.").
		Inheritable().
		SeeAlso("currency", "efficiency")

	rattr.AddPattern(tokens(parser.Lit("efficiency"), parser.Ref("number")), func(ctx *parser.Context, values []any) (any, error) {
		v := asFloat(values[0])
		ctx.Property().SetAttr("efficiency", v)
		return v, nil
	}).
		Doc("", "How much effort the resource completes per working time. 1.0 is nominal; a machine that does not tire may be higher.").
		Arg(0, "factor", "Effort factor, 1.0 by default.").
		Inheritable().
		SeeAlso("rate")

	rattr.AddPattern(tokens(parser.Lit("vacation"), parser.Ref("opt_string"), parser.Ref("interval")), func(ctx *parser.Context, values []any) (any, error) {
		v := project.Vacation{Interval: values[1].(project.Interval)}
		if values[0] != nil {
			v.Name = values[0].(string)
		}
		prop := ctx.Property()
		var list []project.Vacation
		if cur, ok := prop.Attr("vacation"); ok {
			list = cur.([]project.Vacation)
		}
		prop.SetAttr("vacation", append(list, v))
		return v, nil
	}).
		Doc("", "A time interval the resource is off work.").
		Arg(0, "name", "Optional name of the vacation.").
		Arg(1, "interval", "The time off.").
		SeeAlso("booking")

	rattr.AddPattern(tokens(parser.Lit("flags"), parser.Ref("flag_setting_list")), nil).
		Doc("resource.flags", "Attaches declared flags to the resource. Reports filter and sort on flags.").
		Arg(0, "list", "Comma-separated flag names, declared in the project header.").
		Inheritable().
		SeeAlso("flags", "task.flags")

	header := b.rule("resource_header")
	header.AddPattern(tokens(parser.Lit("resource"), parser.Typed(scanner.KindID), parser.Typed(scanner.KindString)), func(ctx *parser.Context, values []any) (any, error) {
		prop, err := ctx.Project().Resources.Add(ctx.Property(), values[0].(string), values[1].(string))
		if err != nil {
			return nil, err
		}
		pos := ctx.Pos()
		prop.SourceName = pos.SourceName
		prop.Row = pos.Row
		ctx.PushProperty(prop)
		return prop, nil
	})

	def := b.rule("resource_def")
	def.AddPattern(tokens(parser.Ref("resource_header"), parser.Lit("{"), parser.Ref(resourceAttrRule), parser.Lit("}")), func(ctx *parser.Context, values []any) (any, error) {
		ctx.PopProperty()
		return values[0], nil
	}).
		Doc("resource", "Declares a resource. Resources nest to form groups; allocating a group allocates any member.").
		Syntax(`resource <id> "<name>" { <attributes> }`).
		Arg(0, "id", "Identifier of the resource, unique among its siblings.").
		Arg(1, "name", "Display name of the resource.").
		SeeAlso("allocate", "task")

	rattr.AddPattern(tokens(parser.Ref("resource_def")), passValue)
}
