package syntax

import (
	"github.com/planfile/planfile/parser"
	"github.com/planfile/planfile/project"
	"github.com/planfile/planfile/scanner"
)

// reportOption applies one parsed report attribute to the report under
// construction.
type reportOption func(r *project.Report)

func (b *builder) report() {
	colID := b.rule("column_id")
	colID.SinglePattern(parser.Typed(scanner.KindID))
	b.commaList("column_list", colID)

	rattr := b.rule("report_attr")
	rattr.Optional().Repeatable().AttributeBody()

	rattr.AddPattern(tokens(parser.Lit("columns"), parser.Ref("column_list")), func(ctx *parser.Context, values []any) (any, error) {
		var cols []string
		for _, v := range parser.Slice(values[0]) {
			cols = append(cols, v.(string))
		}
		return reportOption(func(r *project.Report) {
			r.Columns = cols
		}), nil
	}).
		Doc("", "The columns the report shows, in order.").
		Arg(0, "list", "Comma-separated column names, such as name, start, end, effort or resources.")

	rattr.AddPattern(tokens(parser.Lit("period"), parser.Ref("interval")), func(ctx *parser.Context, values []any) (any, error) {
		iv := values[0].(project.Interval)
		return reportOption(func(r *project.Report) {
			r.Start = iv.Start
			r.End = iv.End
		}), nil
	}).
		Doc("", "Restricts the report to a time interval. The default is the whole project span.").
		Arg(0, "interval", "The time interval to report on.")

	rattr.AddPattern(tokens(parser.Lit("hidetask"), parser.Ref("logical_expr")), func(ctx *parser.Context, values []any) (any, error) {
		e := values[0].(project.Expr)
		return reportOption(func(r *project.Report) {
			r.HideTask = e
		}), nil
	}).
		Doc("", "Hides every task the expression is true for.").
		Arg(0, "expression", "A logical expression over flags and attributes.").
		SeeAlso("hideresource")

	rattr.AddPattern(tokens(parser.Lit("hideresource"), parser.Ref("logical_expr")), func(ctx *parser.Context, values []any) (any, error) {
		e := values[0].(project.Expr)
		return reportOption(func(r *project.Report) {
			r.HideResource = e
		}), nil
	}).
		Doc("", "Hides every resource the expression is true for.").
		Arg(0, "expression", "A logical expression over flags and attributes.").
		SeeAlso("hidetask")

	rattr.AddPattern(tokens(parser.Lit("sorttasks"), parser.Typed(scanner.KindID)), func(ctx *parser.Context, values []any) (any, error) {
		s := values[0].(string)
		return reportOption(func(r *project.Report) {
			r.SortTasks = s
		}), nil
	}).
		Doc("", "The criteria tasks are sorted by.").
		Arg(0, "criteria", "A sorting criteria name, such as tree, startup or priorityup.").
		SeeAlso("sortresources")

	rattr.AddPattern(tokens(parser.Lit("sortresources"), parser.Typed(scanner.KindID)), func(ctx *parser.Context, values []any) (any, error) {
		s := values[0].(string)
		return reportOption(func(r *project.Report) {
			r.SortResources = s
		}), nil
	}).
		Doc("", "The criteria resources are sorted by.").
		Arg(0, "criteria", "A sorting criteria name, such as tree or idup.").
		SeeAlso("sorttasks")

	b.reportDef("taskreport_def", "taskreport", project.TaskReport,
		"Requests a report listing tasks and the given columns.", "resourcereport")
	b.reportDef("resourcereport_def", "resourcereport", project.ResourceReport,
		"Requests a report listing resources and the given columns.", "taskreport")
}

func (b *builder) reportDef(ruleName, keyword string, kind project.ReportKind, purpose, other string) {
	def := b.rule(ruleName)
	def.AddPattern(tokens(parser.Lit(keyword), parser.Typed(scanner.KindID), parser.Typed(scanner.KindString), parser.Lit("{"), parser.Ref("report_attr"), parser.Lit("}")), func(ctx *parser.Context, values []any) (any, error) {
		r := &project.Report{Kind: kind, ID: values[0].(string), FileName: values[1].(string)}
		for _, v := range parser.Slice(values[2]) {
			v.(reportOption)(r)
		}
		proj := ctx.Project()
		proj.Reports = append(proj.Reports, r)
		return r, nil
	}).
		Doc("", purpose).
		Syntax(keyword + ` <id> "<file>" { <attributes> }`).
		Arg(0, "id", "Identifier of the report.").
		Arg(1, "file", "Output file the report is written to.").
		SeeAlso(other)
}
