// Package syntax defines the plan language: the static grammar wired to the
// matching engine, the semantic actions that populate the project model, and
// the extension subsystem that grows the grammar while a document parses.
package syntax

import (
	"io"
	"time"

	"github.com/planfile/planfile/parser"
	"github.com/planfile/planfile/project"
	"github.com/planfile/planfile/scanner"
)

// StartRule matches a whole plan document.
const StartRule = "properties"

// Attribute body rules the extension subsystem appends synthesized patterns
// to. The scenario variants hold the attributes a scenario qualifier may
// address.
const (
	taskAttrRule         = "task_attr"
	taskScenAttrRule     = "task_scen_attr"
	resourceAttrRule     = "resource_attr"
	resourceScenAttrRule = "resource_scen_attr"
)

// Build constructs the plan grammar. Every parse session should build its
// own instance: extend statements mutate the grammar they run in.
func Build() (*parser.Grammar, error) {
	b := &builder{g: parser.NewGrammar()}
	b.shared()
	b.expression()
	b.task()
	b.resource()
	b.report()
	b.project()
	b.topLevel()
	if b.err != nil {
		return nil, b.err
	}
	if err := b.g.Validate(); err != nil {
		return nil, err
	}
	return b.g, nil
}

// Parse reads one plan document and returns the populated project.
func Parse(name string, src io.Reader) (*project.Project, error) {
	g, err := Build()
	if err != nil {
		return nil, err
	}
	s, err := scanner.New(name, src)
	if err != nil {
		return nil, err
	}
	return run(g, s)
}

// ParseFile is Parse over a file path, enabling includes relative to it.
func ParseFile(path string) (*project.Project, error) {
	proj, _, err := ParseFileWithGrammar(path)
	return proj, err
}

// ParseFileWithGrammar parses like ParseFile and also returns the grammar
// the session used, carrying any extensions the document declared. The
// documentation builder accepts it directly.
func ParseFileWithGrammar(path string) (*project.Project, *parser.Grammar, error) {
	g, err := Build()
	if err != nil {
		return nil, nil, err
	}
	s, err := scanner.NewFile(path)
	if err != nil {
		return nil, nil, err
	}
	proj, err := run(g, s)
	if err != nil {
		return nil, nil, err
	}
	return proj, g, nil
}

func run(g *parser.Grammar, s *scanner.Scanner) (*project.Project, error) {
	proj := project.New()
	p := parser.New(g, s, proj)
	if _, err := p.Parse(StartRule); err != nil {
		return nil, err
	}
	if err := proj.ResolveDependencies(); err != nil {
		return nil, err
	}
	return proj, nil
}

type builder struct {
	g   *parser.Grammar
	err error
}

func (b *builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// rule defines name, falling back to the already-defined rule on a duplicate
// so construction can continue and report the first error at the end.
func (b *builder) rule(name string) *parser.Rule {
	r, err := b.g.DefineRule(name)
	if err != nil {
		b.fail(err)
		r, _ = b.g.Rule(name)
	}
	return r
}

func (b *builder) commaList(name string, elem *parser.Rule) *parser.Rule {
	r, err := b.g.CommaListRule(name, elem)
	if err != nil {
		b.fail(err)
		r, _ = b.g.Rule(name)
	}
	return r
}

func (b *builder) options(name string, body *parser.Rule) *parser.Rule {
	r, err := b.g.OptionsRule(name, body)
	if err != nil {
		b.fail(err)
		r, _ = b.g.Rule(name)
	}
	return r
}

func tokens(ts ...parser.Token) []parser.Token {
	return ts
}

func passValue(ctx *parser.Context, values []any) (any, error) {
	return values[0], nil
}

func secondValue(ctx *parser.Context, values []any) (any, error) {
	return values[1], nil
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case int64:
		return float64(n)
	case float64:
		return n
	}
	return 0
}

// shared defines the small rules the property grammars compose.
func (b *builder) shared() {
	number := b.rule("number")
	number.SinglePattern(parser.Typed(scanner.KindInteger))
	number.SinglePattern(parser.Typed(scanner.KindFloat))

	optString := b.rule("opt_string")
	optString.Optional()
	optString.SinglePattern(parser.Typed(scanner.KindString))

	propRef := b.rule("prop_ref")
	propRef.SinglePattern(parser.Typed(scanner.KindID))
	propRef.SinglePattern(parser.Typed(scanner.KindAbsoluteID))
	propRef.SinglePattern(parser.Typed(scanner.KindRelativeID))
	b.commaList("prop_ref_list", propRef)

	tail := b.rule("interval_tail")
	tail.AddPattern(tokens(parser.Lit("-"), parser.Typed(scanner.KindDate)), passValue)
	tail.AddPattern(tokens(parser.Lit("+"), parser.Ref("number"), parser.Typed(scanner.KindID)), func(ctx *parser.Context, values []any) (any, error) {
		secs, err := ctx.Project().CalendarSeconds(asFloat(values[0]), values[1].(string))
		if err != nil {
			return nil, err
		}
		return secs, nil
	})

	interval := b.rule("interval")
	interval.AddPattern(tokens(parser.Typed(scanner.KindDate), parser.Ref("interval_tail")), func(ctx *parser.Context, values []any) (any, error) {
		start := values[0].(time.Time)
		switch end := values[1].(type) {
		case time.Time:
			if !end.After(start) {
				return nil, ctx.SemanticErrorf("invalid_interval", "interval ends on or before its start")
			}
			return project.Interval{Start: start, End: end}, nil
		case int64:
			return project.Interval{Start: start, End: start.Add(time.Duration(end) * time.Second)}, nil
		}
		return nil, ctx.SemanticErrorf("invalid_interval", "interval has no end")
	})
	b.commaList("interval_list", interval)

	flagDecl := b.rule("flag_decl")
	flagDecl.AddPattern(tokens(parser.Typed(scanner.KindID)), func(ctx *parser.Context, values []any) (any, error) {
		name := values[0].(string)
		ctx.Project().DefineFlag(name)
		return name, nil
	})
	b.commaList("flag_decl_list", flagDecl)

	flagSetting := b.rule("flag_setting")
	flagSetting.AddPattern(tokens(parser.Typed(scanner.KindID)), func(ctx *parser.Context, values []any) (any, error) {
		name := values[0].(string)
		if !ctx.Project().FlagDefined(name) {
			return nil, ctx.SemanticErrorf("unknown_flag", "flag '%v' is not declared", name)
		}
		ctx.Property().AddFlag(name)
		return name, nil
	})
	b.commaList("flag_setting_list", flagSetting)
}

// topLevel defines the document rule: any number of top-level properties.
func (b *builder) topLevel() {
	macro := b.rule("macro_def")
	macro.AddPattern(tokens(parser.Lit("macro"), parser.Typed(scanner.KindID), parser.Typed(scanner.KindMacroBody)), func(ctx *parser.Context, values []any) (any, error) {
		ctx.Scanner().AddMacro(values[0].(string), values[1].(string))
		return nil, nil
	}).
		Doc("", "Defines a macro. The body is inserted wherever the macro is called with ${name}; ${1}, ${2} and so on are replaced by the call arguments.").
		Syntax(`macro <name> [ <body> ]`).
		Arg(0, "name", "Name the macro is called by.").
		Arg(1, "body", "Text between the brackets, stored verbatim.").
		SeeAlso("include")

	include := b.rule("include_stmt")
	include.AddPattern(tokens(parser.Lit("include"), parser.Typed(scanner.KindString)), func(ctx *parser.Context, values []any) (any, error) {
		return nil, ctx.Scanner().Include(values[0].(string))
	}).
		Doc("", "Reads another file as if its content stood in place of the statement. Paths are relative to the including file.").
		Arg(0, "file", "Path of the file to read.").
		SeeAlso("macro")

	prop := b.rule("property")
	prop.AddPattern(tokens(parser.Ref("project_def")), passValue)
	prop.AddPattern(tokens(parser.Ref("task_def")), passValue)
	prop.AddPattern(tokens(parser.Ref("resource_def")), passValue)
	prop.AddPattern(tokens(parser.Ref("taskreport_def")), passValue)
	prop.AddPattern(tokens(parser.Ref("resourcereport_def")), passValue)
	prop.AddPattern(tokens(parser.Ref("macro_def")), passValue)
	prop.AddPattern(tokens(parser.Ref("include_stmt")), passValue)

	props := b.rule(StartRule)
	props.Optional().Repeatable()
	props.AddPattern(tokens(parser.Ref("property")), passValue)
}
