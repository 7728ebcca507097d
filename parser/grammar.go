package parser

import (
	"fmt"

	perr "github.com/planfile/planfile/error"
)

// Action is the semantic action of a pattern. values holds the coerced typed
// terminals and rule results of the pattern in token order; literal keywords
// contribute no value. The returned value becomes the pattern's result.
type Action func(ctx *Context, values []any) (any, error)

// Grammar is the rule registry. Rules are shared by pointer, so a pattern
// appended to a rule mid-parse is visible through every reference to it,
// including references the engine is currently descending through.
type Grammar struct {
	rules      map[string]*Rule
	names      []string
	generation int
	first      *firstSets
}

func NewGrammar() *Grammar {
	return &Grammar{
		rules: map[string]*Rule{},
	}
}

// DefineRule registers an empty rule under name.
func (g *Grammar) DefineRule(name string) (*Rule, error) {
	if _, exists := g.rules[name]; exists {
		return nil, &perr.Error{
			Kind:    perr.KindGrammar,
			Code:    "duplicate_rule",
			Message: fmt.Sprintf("rule '%v' is already defined", name),
		}
	}
	r := &Rule{
		g:    g,
		name: name,
	}
	g.rules[name] = r
	g.names = append(g.names, name)
	return r, nil
}

func (g *Grammar) Rule(name string) (*Rule, bool) {
	r, ok := g.rules[name]
	return r, ok
}

// Rules returns every rule in definition order.
func (g *Grammar) Rules() []*Rule {
	rs := make([]*Rule, 0, len(g.names))
	for _, name := range g.names {
		rs = append(rs, g.rules[name])
	}
	return rs
}

// Rule is a named nonterminal with one or more alternative patterns.
type Rule struct {
	g           *Grammar
	name        string
	patterns    []*Pattern
	optional    bool
	repeatable  bool
	scenario    bool
	attrBody    bool
	optionsBody *Rule
}

func (r *Rule) Name() string {
	return r.name
}

// Optional marks the rule as matching empty input when no alternative
// applies.
func (r *Rule) Optional() *Rule {
	r.optional = true
	return r
}

// Repeatable marks the rule as matching any number of consecutive
// occurrences; the results are collected into one slice.
func (r *Rule) Repeatable() *Rule {
	r.repeatable = true
	return r
}

// ScenarioSpecific marks the rule as living under a scenario qualifier.
// Documented patterns reached through it inherit the marker.
func (r *Rule) ScenarioSpecific() *Rule {
	r.scenario = true
	return r
}

func (r *Rule) IsOptional() bool {
	return r.optional
}

func (r *Rule) IsRepeatable() bool {
	return r.repeatable
}

func (r *Rule) IsScenarioSpecific() bool {
	return r.scenario
}

// AttributeBody marks the rule as the body of a property block, making its
// documented patterns attributes of whatever documented pattern references
// it.
func (r *Rule) AttributeBody() *Rule {
	r.attrBody = true
	return r
}

func (r *Rule) IsAttributeBody() bool {
	return r.attrBody
}

// OptionsBody returns the body rule when this rule was derived as an options
// block wrapper.
func (r *Rule) OptionsBody() *Rule {
	return r.optionsBody
}

func (r *Rule) Patterns() []*Pattern {
	return r.patterns
}

// AddPattern appends an alternative. The first tokens of a rule's
// alternatives must stay pairwise disjoint; Validate checks this, the engine
// assumes it. Appending takes effect immediately for every reference to the
// rule.
func (r *Rule) AddPattern(tokens []Token, action Action) *Pattern {
	p := &Pattern{
		rule:   r,
		tokens: tokens,
		action: action,
	}
	r.patterns = append(r.patterns, p)
	r.g.generation++
	return p
}

// SinglePattern appends a one-token alternative whose result is the matched
// value itself; for a literal token the result is the literal text.
func (r *Rule) SinglePattern(tok Token) *Pattern {
	if tok.IsLiteral() {
		text := tok.Literal()
		return r.AddPattern([]Token{tok}, func(ctx *Context, values []any) (any, error) {
			return text, nil
		})
	}
	return r.AddPattern([]Token{tok}, func(ctx *Context, values []any) (any, error) {
		return values[0], nil
	})
}

// ListRule defines name as one or more elem occurrences; the result is the
// flat slice of element values.
func (g *Grammar) ListRule(name string, elem *Rule) (*Rule, error) {
	rest, err := g.DefineRule(name + "_rest")
	if err != nil {
		return nil, err
	}
	rest.Optional().Repeatable()
	rest.AddPattern([]Token{Ref(elem.Name())}, func(ctx *Context, values []any) (any, error) {
		return values[0], nil
	})

	r, err := g.DefineRule(name)
	if err != nil {
		return nil, err
	}
	r.AddPattern([]Token{Ref(elem.Name()), Ref(rest.Name())}, flattenHeadRest)
	return r, nil
}

// CommaListRule defines name as comma-separated elem occurrences. The rule
// itself is optional, so an empty list matches and yields no value.
func (g *Grammar) CommaListRule(name string, elem *Rule) (*Rule, error) {
	rest, err := g.DefineRule(name + "_rest")
	if err != nil {
		return nil, err
	}
	rest.Optional().Repeatable()
	rest.AddPattern([]Token{Lit(","), Ref(elem.Name())}, func(ctx *Context, values []any) (any, error) {
		return values[0], nil
	})

	r, err := g.DefineRule(name)
	if err != nil {
		return nil, err
	}
	r.Optional()
	r.AddPattern([]Token{Ref(elem.Name()), Ref(rest.Name())}, flattenHeadRest)
	return r, nil
}

func flattenHeadRest(ctx *Context, values []any) (any, error) {
	list := []any{values[0]}
	return append(list, Slice(values[1])...), nil
}

// OptionsRule defines name as an optional brace-wrapped block of body
// occurrences. The body rule becomes optional and repeatable; the block's
// result is the slice of body values, nil when the block is absent. The
// derived rule records the body so the documentation cross-referencer can
// link the body's keywords as optional attributes of whatever pattern uses
// the block.
func (g *Grammar) OptionsRule(name string, body *Rule) (*Rule, error) {
	body.Optional().Repeatable().AttributeBody()
	r, err := g.DefineRule(name)
	if err != nil {
		return nil, err
	}
	r.Optional()
	r.optionsBody = body
	r.AddPattern([]Token{Lit("{"), Ref(body.Name()), Lit("}")}, func(ctx *Context, values []any) (any, error) {
		return values[0], nil
	})
	return r, nil
}

// Slice normalizes a list-valued rule result: nil becomes an empty slice.
func Slice(v any) []any {
	if v == nil {
		return nil
	}
	return v.([]any)
}

// Pattern is one alternative of a rule.
type Pattern struct {
	rule   *Rule
	tokens []Token
	action Action
	doc    *PatternDoc
}

func (p *Pattern) Rule() *Rule {
	return p.rule
}

func (p *Pattern) Tokens() []Token {
	return p.tokens
}

// FirstLiteral returns the text of the pattern's leading literal token, or
// "" when the pattern does not start with one.
func (p *Pattern) FirstLiteral() string {
	if len(p.tokens) > 0 && p.tokens[0].IsLiteral() {
		return p.tokens[0].Literal()
	}
	return ""
}

// PatternDoc is the reference-manual metadata of a documented pattern.
// Syntax, when set, replaces the usage line derived from the pattern's
// tokens.
type PatternDoc struct {
	Keyword          string
	Purpose          string
	Syntax           string
	Args             []ArgDoc
	SeeAlso          []string
	Also             []string
	Inheritable      bool
	ScenarioSpecific bool
}

// ArgDoc documents one value-bearing token of a pattern. Pos counts the
// pattern's typed and rule tokens from zero, matching the action's values.
type ArgDoc struct {
	Pos  int
	Name string
	Text string
}

// Doc attaches reference documentation. An empty keyword defaults to the
// pattern's first literal token.
func (p *Pattern) Doc(keyword, purpose string) *Pattern {
	if keyword == "" {
		keyword = p.FirstLiteral()
	}
	p.ensureDoc()
	p.doc.Keyword = keyword
	p.doc.Purpose = purpose
	return p
}

// Syntax overrides the usage line derived from the pattern's tokens.
func (p *Pattern) Syntax(usage string) *Pattern {
	p.ensureDoc()
	p.doc.Syntax = usage
	return p
}

// Arg documents the value at position pos.
func (p *Pattern) Arg(pos int, name, text string) *Pattern {
	p.ensureDoc()
	p.doc.Args = append(p.doc.Args, ArgDoc{Pos: pos, Name: name, Text: text})
	return p
}

// SeeAlso names related keywords, resolved and sorted during
// cross-referencing.
func (p *Pattern) SeeAlso(keywords ...string) *Pattern {
	p.ensureDoc()
	p.doc.SeeAlso = append(p.doc.SeeAlso, keywords...)
	return p
}

// Also names keywords listed as additional attributes of this entry without
// any grammar relation.
func (p *Pattern) Also(keywords ...string) *Pattern {
	p.ensureDoc()
	p.doc.Also = append(p.doc.Also, keywords...)
	return p
}

// Inheritable marks the documented attribute as copied from parent to child
// properties.
func (p *Pattern) Inheritable() *Pattern {
	p.ensureDoc()
	p.doc.Inheritable = true
	return p
}

// MarkScenarioSpecific forces the scenario marker on the documented
// attribute regardless of the rule it lives in.
func (p *Pattern) MarkScenarioSpecific() *Pattern {
	p.ensureDoc()
	p.doc.ScenarioSpecific = true
	return p
}

// Documentation returns the attached metadata, nil for undocumented
// patterns.
func (p *Pattern) Documentation() *PatternDoc {
	return p.doc
}

func (p *Pattern) ensureDoc() {
	if p.doc == nil {
		p.doc = &PatternDoc{}
	}
}
