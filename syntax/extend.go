package syntax

import (
	"fmt"
	"unicode"

	perr "github.com/planfile/planfile/error"
	"github.com/planfile/planfile/parser"
	"github.com/planfile/planfile/project"
	"github.com/planfile/planfile/scanner"
)

// extDecl is one attribute declaration inside an extend block. Declarations
// are applied when the whole block has parsed.
type extDecl struct {
	typ      project.AttributeType
	name     string
	label    string
	inherit  bool
	scenario bool
	pos      parser.Position
}

// extendAttr defines the extend statement and hooks it into the project
// attribute rule.
func (b *builder) extendAttr(pattr *parser.Rule) {
	target := b.rule("extend_target")
	target.SinglePattern(parser.Lit("task"))
	target.SinglePattern(parser.Lit("resource"))

	opt := b.rule("extend_attr_opt")
	opt.SinglePattern(parser.Lit("inherit")).
		Doc("", "Copies the attribute value from parent to child properties.").
		SeeAlso("extend")
	opt.SinglePattern(parser.Lit("scenariospecific")).
		Doc("", "Gives the attribute one value per scenario, settable with a scenario qualifier.").
		SeeAlso("extend", "scenario")
	b.options("extend_attr_opts", opt)

	decl := b.rule("extend_decl")
	decl.Optional().Repeatable().AttributeBody()
	declPattern := func(lit string, typ project.AttributeType, purpose string) {
		decl.AddPattern(tokens(parser.Lit(lit), parser.Typed(scanner.KindID), parser.Ref("opt_string"), parser.Ref("extend_attr_opts")), func(ctx *parser.Context, values []any) (any, error) {
			d := &extDecl{typ: typ, name: values[0].(string), pos: ctx.Pos()}
			if values[1] != nil {
				d.label = values[1].(string)
			}
			for _, v := range parser.Slice(values[2]) {
				switch v.(string) {
				case "inherit":
					d.inherit = true
				case "scenariospecific":
					d.scenario = true
				}
			}
			if !startsUpper(d.name) {
				return nil, ctx.SemanticErrorf("invalid_attribute_name", "attribute name '%v' must start with an uppercase letter", d.name)
			}
			return d, nil
		}).
			Doc("", purpose).
			Arg(0, "name", "Name of the attribute. Must start with an uppercase letter; its lowercased form becomes the keyword.").
			Arg(1, "label", "Optional display label.").
			SeeAlso("extend")
	}
	declPattern("date", project.AttrDate, "Declares a date-valued attribute.")
	declPattern("text", project.AttrText, "Declares a text-valued attribute.")
	declPattern("reference", project.AttrReference, "Declares an attribute that points at another property, with an optional label.")

	pattr.AddPattern(tokens(parser.Lit("extend"), parser.Ref("extend_target"), parser.Lit("{"), parser.Ref("extend_decl"), parser.Lit("}")), func(ctx *parser.Context, values []any) (any, error) {
		targetName := values[0].(string)
		for _, v := range parser.Slice(values[1]) {
			if err := applyExtension(ctx, targetName, v.(*extDecl)); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}).
		Doc("", "Adds user-defined attributes to all tasks or all resources. The new keyword is the lowercased attribute name and is usable as soon as the block closes.").
		Syntax(`extend task|resource { <declarations> }`).
		Arg(0, "property", "Either task or resource.").
		SeeAlso("project")
}

func startsUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}

// applyExtension registers the declared attribute on the target's schema and
// appends the synthesized pattern to the target's attribute rule.
func applyExtension(ctx *parser.Context, target string, d *extDecl) error {
	proj := ctx.Project()
	var schema *project.AttributeSchema
	ruleName := taskAttrRule
	if target == "task" {
		schema = proj.TaskAttributes
		if d.scenario {
			ruleName = taskScenAttrRule
		}
	} else {
		schema = proj.ResourceAttributes
		ruleName = resourceAttrRule
		if d.scenario {
			ruleName = resourceScenAttrRule
		}
	}

	def := &project.AttributeDef{
		Name:             d.name,
		Label:            d.label,
		Type:             d.typ,
		Inheritable:      d.inherit,
		ScenarioSpecific: d.scenario,
		UserDefined:      true,
	}
	if err := schema.Define(def); err != nil {
		if e, ok := err.(*perr.Error); ok {
			e.SourceName = d.pos.SourceName
			e.FilePath = d.pos.FilePath
			e.Row = d.pos.Row
			e.Col = d.pos.Col
		}
		return err
	}

	rule, ok := ctx.Grammar().Rule(ruleName)
	if !ok {
		return &perr.Error{
			Kind:    perr.KindGrammar,
			Code:    "undefined_rule",
			Message: fmt.Sprintf("rule '%v' is not defined", ruleName),
		}
	}

	kw := def.Keyword()
	var toks []parser.Token
	var action parser.Action
	switch d.typ {
	case project.AttrText:
		toks = tokens(parser.Lit(kw), parser.Typed(scanner.KindString))
		action = storeExtensionValue(kw, d.scenario)
	case project.AttrReference:
		toks = tokens(parser.Lit(kw), parser.Ref("prop_ref"), parser.Ref("opt_string"))
		action = storeExtensionReference(kw, d.scenario)
	default:
		toks = tokens(parser.Lit(kw), parser.Typed(scanner.KindDate))
		action = storeExtensionValue(kw, d.scenario)
	}

	purpose := d.label
	if purpose == "" {
		purpose = fmt.Sprintf("User-defined %v attribute of %v properties.", d.typ, target)
	}
	pat := rule.AddPattern(toks, action).Doc(kw, purpose)
	if d.inherit {
		pat.Inheritable()
	}
	if d.scenario {
		pat.MarkScenarioSpecific()
	}
	return nil
}

func storeExtensionValue(kw string, scenario bool) parser.Action {
	return func(ctx *parser.Context, values []any) (any, error) {
		if scenario {
			ctx.Property().SetScenarioAttr(ctx.ScenarioIndex(), kw, values[0])
		} else {
			ctx.Property().SetAttr(kw, values[0])
		}
		return values[0], nil
	}
}

func storeExtensionReference(kw string, scenario bool) parser.Action {
	return func(ctx *parser.Context, values []any) (any, error) {
		ref := project.Reference{Target: values[0].(string)}
		if values[1] != nil {
			ref.Label = values[1].(string)
		}
		if scenario {
			ctx.Property().SetScenarioAttr(ctx.ScenarioIndex(), kw, ref)
		} else {
			ctx.Property().SetAttr(kw, ref)
		}
		return ref, nil
	}
}
