package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	perr "github.com/planfile/planfile/error"
	"github.com/planfile/planfile/project"
	"github.com/planfile/planfile/scanner"
)

// Parser drives the matching engine: recursive descent over the registry
// with one token of lookahead. At each rule it peeks the next source token,
// picks the single alternative whose first tokens admit it, and commits; a
// failure past that point is a syntax error, never a backtrack.
type Parser struct {
	g      *Grammar
	s      *scanner.Scanner
	ctx    *Context
	peeked *scanner.Token
}

func New(g *Grammar, s *scanner.Scanner, proj *project.Project) *Parser {
	return &Parser{
		g:   g,
		s:   s,
		ctx: newContext(g, s, proj),
	}
}

// Parse matches the whole source against the start rule and requires the
// scanner to be exhausted afterward.
func (p *Parser) Parse(startRule string) (any, error) {
	r, ok := p.g.rules[startRule]
	if !ok {
		return nil, &perr.Error{
			Kind:    perr.KindGrammar,
			Code:    "undefined_rule",
			Message: fmt.Sprintf("start rule '%v' is not defined", startRule),
		}
	}
	v, err := p.parseRule(r)
	if err != nil {
		return nil, err
	}
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.Kind != scanner.KindEOF {
		return nil, &perr.Error{
			Kind:       perr.KindSyntax,
			Code:       "unexpected_token",
			Message:    fmt.Sprintf("unexpected token '%v'; expected end of file", tok.Text),
			SourceName: tok.SourceName,
			FilePath:   tok.FilePath,
			Row:        tok.Row,
			Col:        tok.Col,
		}
	}
	return v, nil
}

// parseRule matches one occurrence of r, or a slice of occurrences when r is
// repeatable. An optional rule whose alternatives reject the lookahead
// matches empty input and yields nil.
func (p *Parser) parseRule(r *Rule) (any, error) {
	if r.repeatable {
		var list []any
		for {
			pat, ok, err := p.selectPattern(r)
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
			v, err := p.parsePattern(pat)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		if list == nil && !r.optional {
			return nil, p.unexpectedToken(r)
		}
		if list == nil {
			return nil, nil
		}
		return list, nil
	}

	pat, ok, err := p.selectPattern(r)
	if err != nil {
		return nil, err
	}
	if !ok {
		if r.optional {
			return nil, nil
		}
		return nil, p.unexpectedToken(r)
	}
	return p.parsePattern(pat)
}

// selectPattern peeks one token and returns the alternative of r it can
// begin. The registry keeps alternatives disjoint, so the first hit is the
// only hit.
func (p *Parser) selectPattern(r *Rule) (*Pattern, bool, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, false, err
	}
	if tok.Kind == scanner.KindEOF {
		return nil, false, nil
	}
	fs := p.g.firstSets()
	for _, pat := range r.patterns {
		if fs.patternEntry(pat).matches(tok) {
			return pat, true, nil
		}
	}
	return nil, false, nil
}

// parsePattern consumes pat's tokens in order, collecting the values of
// typed terminals and rule references, then runs the action with the
// ambient position set to the pattern's first token. Consuming a scenario
// qualifier resolves it against the project and routes the rest of the
// pattern, including the action, to that scenario.
func (p *Parser) parsePattern(pat *Pattern) (any, error) {
	startTok, err := p.peek()
	if err != nil {
		return nil, err
	}
	startPos := Position{
		SourceName: startTok.SourceName,
		FilePath:   startTok.FilePath,
		Row:        startTok.Row,
		Col:        startTok.Col,
	}

	prevScenario := p.ctx.scenario
	qualified := false
	defer func() {
		if qualified {
			p.ctx.scenario = prevScenario
		}
	}()

	values := make([]any, 0, len(pat.tokens))
	for _, t := range pat.tokens {
		switch {
		case t.IsLiteral():
			tok, err := p.next()
			if err != nil {
				return nil, err
			}
			if !t.matchesSource(tok) {
				return nil, p.tokenMismatch(t, tok)
			}
		case t.IsTyped():
			tok, err := p.next()
			if err != nil {
				return nil, err
			}
			if !t.matchesSource(tok) {
				return nil, p.tokenMismatch(t, tok)
			}
			v, err := coerceToken(tok)
			if err != nil {
				return nil, err
			}
			if t.Kind() == scanner.KindIDWithColon {
				idx, err := p.ctx.proj.ScenarioIndex(tok.Text)
				if err != nil {
					return nil, annotateAt(err, tok)
				}
				p.ctx.scenario = idx
				qualified = true
			}
			values = append(values, v)
		default:
			r, ok := p.g.rules[t.RuleName()]
			if !ok {
				return nil, &perr.Error{
					Kind:    perr.KindGrammar,
					Code:    "undefined_rule",
					Message: fmt.Sprintf("rule '%v' is not defined", t.RuleName()),
				}
			}
			v, err := p.parseRule(r)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
	}

	p.ctx.pos = startPos
	if pat.action == nil {
		return values, nil
	}
	v, err := pat.action(p.ctx, values)
	if err != nil {
		return nil, p.ctx.Annotate(err)
	}
	return v, nil
}

func (p *Parser) peek() (*scanner.Token, error) {
	if p.peeked == nil {
		tok, err := p.s.Next()
		if err != nil {
			return nil, err
		}
		p.peeked = tok
	}
	return p.peeked, nil
}

func (p *Parser) next() (*scanner.Token, error) {
	if p.peeked != nil {
		tok := p.peeked
		p.peeked = nil
		return tok, nil
	}
	return p.s.Next()
}

// unexpectedToken reports a dispatch failure: the lookahead can begin none
// of r's alternatives. The message lists what could have appeared, with a
// spelling suggestion when the lookahead is a word near one of the expected
// keywords.
func (p *Parser) unexpectedToken(r *Rule) error {
	tok, err := p.peek()
	if err != nil {
		return err
	}
	entry := p.g.firstSets().entries[r.name]
	expected := "nothing"
	if terms := entry.terms(); len(terms) > 0 {
		expected = strings.Join(terms, ", ")
	}
	if tok.Kind == scanner.KindEOF {
		return &perr.Error{
			Kind:       perr.KindSyntax,
			Code:       "unexpected_eof",
			Message:    fmt.Sprintf("unexpected end of file; expected %v", expected),
			SourceName: tok.SourceName,
			FilePath:   tok.FilePath,
			Row:        tok.Row,
			Col:        tok.Col,
		}
	}
	msg := fmt.Sprintf("unexpected token '%v'; expected %v", tok.Text, expected)
	if tok.Kind == scanner.KindID {
		if hint, ok := nearestKeyword(tok.Text, entry); ok {
			msg += fmt.Sprintf(" (did you mean '%v'?)", hint)
		}
	}
	return &perr.Error{
		Kind:       perr.KindSyntax,
		Code:       "unexpected_token",
		Message:    msg,
		SourceName: tok.SourceName,
		FilePath:   tok.FilePath,
		Row:        tok.Row,
		Col:        tok.Col,
	}
}

// tokenMismatch reports a failure past the dispatch point, where the chosen
// alternative demanded one specific token.
func (p *Parser) tokenMismatch(want Token, got *scanner.Token) error {
	if got.Kind == scanner.KindEOF {
		return &perr.Error{
			Kind:       perr.KindSyntax,
			Code:       "unexpected_eof",
			Message:    fmt.Sprintf("unexpected end of file; expected %v", want),
			SourceName: got.SourceName,
			FilePath:   got.FilePath,
			Row:        got.Row,
			Col:        got.Col,
		}
	}
	return &perr.Error{
		Kind:       perr.KindSyntax,
		Code:       "unexpected_token",
		Message:    fmt.Sprintf("unexpected token '%v'; expected %v", got.Text, want),
		SourceName: got.SourceName,
		FilePath:   got.FilePath,
		Row:        got.Row,
		Col:        got.Col,
	}
}

func nearestKeyword(input string, entry *firstEntry) (string, bool) {
	if len(entry.lits) == 0 {
		return "", false
	}
	candidates := make([]string, 0, len(entry.lits))
	for text := range entry.lits {
		candidates = append(candidates, text)
	}
	sort.Strings(candidates)
	matches := fuzzy.Find(input, candidates)
	if len(matches) == 0 {
		return "", false
	}
	return matches[0].Str, true
}

func annotateAt(err error, tok *scanner.Token) error {
	e, ok := err.(*perr.Error)
	if !ok {
		return err
	}
	if e.Row == 0 {
		e.SourceName = tok.SourceName
		e.FilePath = tok.FilePath
		e.Row = tok.Row
		e.Col = tok.Col
	}
	return e
}
