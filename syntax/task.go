package syntax

import (
	"github.com/planfile/planfile/parser"
	"github.com/planfile/planfile/project"
	"github.com/planfile/planfile/scanner"
)

// allocOption configures one allocation once its primary resource resolved.
type allocOption func(ctx *parser.Context, a *project.Allocation) error

func storeScenarioAttr(keyword string) parser.Action {
	return func(ctx *parser.Context, values []any) (any, error) {
		v := values[0]
		ctx.Property().SetScenarioAttr(ctx.ScenarioIndex(), keyword, v)
		return v, nil
	}
}

// durationAttr converts a value and unit to seconds and stores them under
// the ambient scenario. Working durations count working time only, calendar
// durations count wall-clock time.
func durationAttr(keyword string, working bool) parser.Action {
	return func(ctx *parser.Context, values []any) (any, error) {
		p := ctx.Project()
		var secs int64
		var err error
		if working {
			secs, err = p.WorkingSeconds(asFloat(values[0]), values[1].(string))
		} else {
			secs, err = p.CalendarSeconds(asFloat(values[0]), values[1].(string))
		}
		if err != nil {
			return nil, err
		}
		ctx.Property().SetScenarioAttr(ctx.ScenarioIndex(), keyword, secs)
		return secs, nil
	}
}

func storeDependencies(attr string) parser.Action {
	return func(ctx *parser.Context, values []any) (any, error) {
		p := ctx.Property()
		var deps []*project.TaskDependency
		if cur, ok := p.Attr(attr); ok {
			deps = cur.([]*project.TaskDependency)
		}
		for _, v := range parser.Slice(values[0]) {
			deps = append(deps, v.(*project.TaskDependency))
		}
		p.SetAttr(attr, deps)
		return deps, nil
	}
}

func (b *builder) task() {
	scen := b.rule(taskScenAttrRule)
	scen.ScenarioSpecific().AttributeBody()

	scen.AddPattern(tokens(parser.Lit("start"), parser.Typed(scanner.KindDate)), storeScenarioAttr("start")).
		Doc("", "The planned start date of the task.").
		Arg(0, "date", "Date the task starts, optionally with a time of day.").
		MarkScenarioSpecific().
		SeeAlso("end", "task")

	scen.AddPattern(tokens(parser.Lit("end"), parser.Typed(scanner.KindDate)), storeScenarioAttr("end")).
		Doc("", "The planned end date of the task.").
		Arg(0, "date", "Date the task ends, optionally with a time of day.").
		MarkScenarioSpecific().
		SeeAlso("start", "task")

	scen.AddPattern(tokens(parser.Lit("duration"), parser.Ref("number"), parser.Typed(scanner.KindID)), durationAttr("duration", false)).
		Doc("", "Length of the task as calendar time, counting nights, weekends and vacations.").
		Arg(0, "value", "Amount of time units.").
		Arg(1, "unit", "One of min, h, d, w, m or y.").
		MarkScenarioSpecific().
		SeeAlso("effort", "length")

	scen.AddPattern(tokens(parser.Lit("length"), parser.Ref("number"), parser.Typed(scanner.KindID)), durationAttr("length", true)).
		Doc("", "Length of the task as working time, skipping nights, weekends and vacations.").
		Arg(0, "value", "Amount of time units.").
		Arg(1, "unit", "One of min, h, d, w, m or y.").
		MarkScenarioSpecific().
		SeeAlso("duration", "effort")

	scen.AddPattern(tokens(parser.Lit("effort"), parser.Ref("number"), parser.Typed(scanner.KindID)), durationAttr("effort", true)).
		Doc("", "Work needed to complete the task, as working time spread across the allocated resources.").
		Arg(0, "value", "Amount of time units.").
		Arg(1, "unit", "One of min, h, d, w, m or y.").
		MarkScenarioSpecific().
		SeeAlso("allocate", "duration", "length")

	scen.AddPattern(tokens(parser.Lit("complete"), parser.Ref("number")), func(ctx *parser.Context, values []any) (any, error) {
		v := asFloat(values[0])
		if v < 0 || v > 100 {
			return nil, ctx.SemanticErrorf("complete_range", "completion must be between 0 and 100, got %v", v)
		}
		ctx.Property().SetScenarioAttr(ctx.ScenarioIndex(), "complete", v)
		return v, nil
	}).
		Doc("", "Completion degree of the task in percent. Used for reporting, not for scheduling.").
		Arg(0, "percent", "A value between 0 and 100.").
		MarkScenarioSpecific()

	attr := b.rule(taskAttrRule)
	attr.Optional().Repeatable().AttributeBody()
	attr.AddPattern(tokens(parser.Ref(taskScenAttrRule)), passValue)
	attr.AddPattern(tokens(parser.Typed(scanner.KindIDWithColon), parser.Ref(taskScenAttrRule)), secondValue)

	attr.AddPattern(tokens(parser.Lit("priority"), parser.Typed(scanner.KindInteger)), func(ctx *parser.Context, values []any) (any, error) {
		n := values[0].(int64)
		if n < 0 || n > 1000 {
			return nil, ctx.SemanticErrorf("priority_range", "priority must be between 0 and 1000, got %v", n)
		}
		ctx.Property().SetAttr("priority", n)
		return n, nil
	}).
		Doc("", "Scheduling priority of the task. Tasks with higher values get resources first.").
		Arg(0, "value", "A number between 0 and 1000. The default is 500.").
		Inheritable()

	attr.AddPattern(tokens(parser.Lit("milestone")), func(ctx *parser.Context, values []any) (any, error) {
		ctx.Property().SetAttr("milestone", true)
		return true, nil
	}).
		Doc("", "Marks the task as a milestone, a task without duration.").
		SeeAlso("duration")

	attr.AddPattern(tokens(parser.Lit("note"), parser.Typed(scanner.KindString)), func(ctx *parser.Context, values []any) (any, error) {
		ctx.Property().SetAttr("note", values[0])
		return values[0], nil
	}).
		Doc("", "A short description of the task.").
		Arg(0, "text", "The note text.")

	attr.AddPattern(tokens(parser.Lit("flags"), parser.Ref("flag_setting_list")), nil).
		Doc("task.flags", "Attaches declared flags to the task. Reports filter and sort on flags.").
		Arg(0, "list", "Comma-separated flag names, declared in the project header.").
		Inheritable().
		SeeAlso("flags", "resource.flags")

	depAttr := b.rule("dependency_attr")
	depAttr.AttributeBody()
	depAttr.AddPattern(tokens(parser.Lit("gaplength"), parser.Ref("number"), parser.Typed(scanner.KindID)), func(ctx *parser.Context, values []any) (any, error) {
		secs, err := ctx.Project().WorkingSeconds(asFloat(values[0]), values[1].(string))
		if err != nil {
			return nil, err
		}
		return secs, nil
	}).
		Doc("", "Minimum working-time gap between the two ends of a dependency.").
		Arg(0, "value", "Amount of time units.").
		Arg(1, "unit", "One of min, h, d, w, m or y.").
		SeeAlso("depends", "precedes")
	b.options("dependency_opts", depAttr)

	dep := b.rule("dependency")
	dep.AddPattern(tokens(parser.Ref("prop_ref"), parser.Ref("dependency_opts")), func(ctx *parser.Context, values []any) (any, error) {
		d := &project.TaskDependency{TargetID: values[0].(string)}
		for _, v := range parser.Slice(values[1]) {
			d.GapSeconds = v.(int64)
		}
		return d, nil
	})
	b.commaList("dependency_list", dep)

	attr.AddPattern(tokens(parser.Lit("depends"), parser.Ref("dependency_list")), storeDependencies(project.DependsAttr)).
		Doc("", "Tasks that must end before this task can start. Forward references are allowed.").
		Arg(0, "list", "Comma-separated task references; '!' climbs one level up from the current task.").
		SeeAlso("precedes")

	attr.AddPattern(tokens(parser.Lit("precedes"), parser.Ref("dependency_list")), storeDependencies(project.PrecedesAttr)).
		Doc("", "Tasks that cannot start before this task ends. Forward references are allowed.").
		Arg(0, "list", "Comma-separated task references; '!' climbs one level up from the current task.").
		SeeAlso("depends")

	allocAttr := b.rule("allocation_attr")
	allocAttr.AttributeBody()
	allocAttr.AddPattern(tokens(parser.Lit("alternative"), parser.Ref("prop_ref_list")), func(ctx *parser.Context, values []any) (any, error) {
		refs := parser.Slice(values[0])
		return allocOption(func(ctx *parser.Context, a *project.Allocation) error {
			for _, r := range refs {
				res, err := ctx.Project().Resources.Resolve(r.(string), nil)
				if err != nil {
					return err
				}
				a.Candidates = append(a.Candidates, res)
			}
			return nil
		}), nil
	}).
		Doc("", "Resources considered when the primary one is not available.").
		Arg(0, "list", "Comma-separated resource references.").
		SeeAlso("select")

	allocAttr.AddPattern(tokens(parser.Lit("select"), parser.Typed(scanner.KindID)), func(ctx *parser.Context, values []any) (any, error) {
		name := values[0].(string)
		mode, ok := project.SelectModeIndex(name)
		if !ok {
			return nil, ctx.SemanticErrorf("unknown_select_mode", "selection mode '%v' is not one of order, maxloaded, minloaded, minallocated or random", name)
		}
		return allocOption(func(ctx *parser.Context, a *project.Allocation) error {
			a.SelectMode = mode
			return nil
		}), nil
	}).
		Doc("", "How to pick between the primary resource and its alternatives.").
		Arg(0, "mode", "One of order, maxloaded, minloaded, minallocated or random.").
		SeeAlso("alternative")

	allocAttr.AddPattern(tokens(parser.Lit("persistent")), func(ctx *parser.Context, values []any) (any, error) {
		return allocOption(func(ctx *parser.Context, a *project.Allocation) error {
			a.Persistent = true
			return nil
		}), nil
	}).
		Doc("", "Keeps the once-selected resource for the whole task instead of re-selecting per time slot.")

	allocAttr.AddPattern(tokens(parser.Lit("mandatory")), func(ctx *parser.Context, values []any) (any, error) {
		return allocOption(func(ctx *parser.Context, a *project.Allocation) error {
			a.Mandatory = true
			return nil
		}), nil
	}).
		Doc("", "Requires all allocated resources to be available for a slot to be usable.")
	b.options("allocation_opts", allocAttr)

	alloc := b.rule("allocation")
	alloc.AddPattern(tokens(parser.Ref("prop_ref"), parser.Ref("allocation_opts")), func(ctx *parser.Context, values []any) (any, error) {
		res, err := ctx.Project().Resources.Resolve(values[0].(string), nil)
		if err != nil {
			return nil, err
		}
		a := &project.Allocation{Candidates: []*project.Property{res}}
		for _, v := range parser.Slice(values[1]) {
			if err := v.(allocOption)(ctx, a); err != nil {
				return nil, err
			}
		}
		return a, nil
	})
	b.commaList("allocation_list", alloc)

	attr.AddPattern(tokens(parser.Lit("allocate"), parser.Ref("allocation_list")), func(ctx *parser.Context, values []any) (any, error) {
		p := ctx.Property()
		var allocs []*project.Allocation
		if cur, ok := p.Attr("allocate"); ok {
			allocs = cur.([]*project.Allocation)
		}
		for _, v := range parser.Slice(values[0]) {
			allocs = append(allocs, v.(*project.Allocation))
		}
		p.SetAttr("allocate", allocs)
		return allocs, nil
	}).
		Doc("", "Resources the task requests. Resources must be declared before they are allocated.").
		Arg(0, "list", "Comma-separated resource references, each with optional attributes in braces.").
		Inheritable().
		SeeAlso("effort", "resource")

	attr.AddPattern(tokens(parser.Lit("responsible"), parser.Ref("prop_ref")), func(ctx *parser.Context, values []any) (any, error) {
		res, err := ctx.Project().Resources.Resolve(values[0].(string), nil)
		if err != nil {
			return nil, err
		}
		ctx.Property().SetAttr("responsible", res)
		return res, nil
	}).
		Doc("", "The resource responsible for the task.").
		Arg(0, "resource", "A resource reference.").
		Inheritable().
		SeeAlso("resource")

	header := b.rule("task_header")
	header.AddPattern(tokens(parser.Lit("task"), parser.Typed(scanner.KindID), parser.Typed(scanner.KindString)), func(ctx *parser.Context, values []any) (any, error) {
		prop, err := ctx.Project().Tasks.Add(ctx.Property(), values[0].(string), values[1].(string))
		if err != nil {
			return nil, err
		}
		pos := ctx.Pos()
		prop.SourceName = pos.SourceName
		prop.Row = pos.Row
		ctx.PushProperty(prop)
		return prop, nil
	})

	def := b.rule("task_def")
	def.AddPattern(tokens(parser.Ref("task_header"), parser.Lit("{"), parser.Ref(taskAttrRule), parser.Lit("}")), func(ctx *parser.Context, values []any) (any, error) {
		ctx.PopProperty()
		return values[0], nil
	}).
		Doc("task", "Declares a task. Tasks nest to any depth; a subtask ID extends the parent ID with a dot.").
		Syntax(`task <id> "<name>" { <attributes> }`).
		Arg(0, "id", "Identifier of the task, unique among its siblings.").
		Arg(1, "name", "Display name of the task.").
		SeeAlso("project", "resource")

	attr.AddPattern(tokens(parser.Ref("task_def")), passValue)
}
