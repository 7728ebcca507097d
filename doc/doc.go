// Package doc builds the keyword reference from grammar metadata. Every
// documented pattern becomes one entry; a cross-reference pass links entries
// into contexts and attribute lists and validates every reference between
// them.
package doc

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	perr "github.com/planfile/planfile/error"
	"github.com/planfile/planfile/parser"
)

// Arg is one documented argument. Ref is set when the argument text is a
// "see:" marker pointing at another keyword.
type Arg struct {
	Name string
	Text string
	Ref  *Entry
}

// Entry is the reference documentation of one keyword. Contexts and
// OptionalAttributes are populated by CrossReference, never directly.
type Entry struct {
	Keyword            string
	Pattern            *parser.Pattern
	Purpose            string
	Syntax             string
	Args               []Arg
	ScenarioSpecific   bool
	Inheritable        bool
	Contexts           []*Entry
	OptionalAttributes []*Entry
	SeeAlso            []*Entry
}

// Reference is the keyword documentation of one grammar.
type Reference struct {
	g       *parser.Grammar
	entries map[string]*Entry
	logger  *slog.Logger
	done    bool
}

// Build collects one entry per documented pattern. Keywords must be unique
// across the whole grammar.
func Build(g *parser.Grammar, logger *slog.Logger) (*Reference, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ref := &Reference{
		g:       g,
		entries: map[string]*Entry{},
		logger:  logger,
	}
	for _, r := range g.Rules() {
		for _, pat := range r.Patterns() {
			d := pat.Documentation()
			if d == nil || d.Keyword == "" {
				continue
			}
			if _, exists := ref.entries[d.Keyword]; exists {
				return nil, &perr.Error{
					Kind:    perr.KindGrammar,
					Code:    "duplicate_keyword",
					Message: fmt.Sprintf("keyword '%v' is documented more than once", d.Keyword),
				}
			}
			e := &Entry{
				Keyword:          d.Keyword,
				Pattern:          pat,
				Purpose:          d.Purpose,
				Syntax:           d.Syntax,
				ScenarioSpecific: d.ScenarioSpecific || r.IsScenarioSpecific(),
				Inheritable:      d.Inheritable,
			}
			seen := map[string]bool{}
			for _, a := range d.Args {
				if seen[a.Name] {
					continue
				}
				seen[a.Name] = true
				e.Args = append(e.Args, Arg{Name: a.Name, Text: a.Text})
			}
			if e.Syntax == "" {
				e.Syntax = deriveSyntax(pat, d)
			}
			ref.entries[d.Keyword] = e
		}
	}
	return ref, nil
}

// Entry returns the documentation of keyword.
func (ref *Reference) Entry(keyword string) (*Entry, bool) {
	e, ok := ref.entries[keyword]
	return e, ok
}

// Keywords returns every documented keyword in alphabetical order.
func (ref *Reference) Keywords() []string {
	kws := make([]string, 0, len(ref.entries))
	for kw := range ref.entries {
		kws = append(kws, kw)
	}
	sort.Strings(kws)
	return kws
}

// Entries returns all entries in keyword order.
func (ref *Reference) Entries() []*Entry {
	entries := make([]*Entry, 0, len(ref.entries))
	for _, kw := range ref.Keywords() {
		entries = append(entries, ref.entries[kw])
	}
	return entries
}

// deriveSyntax renders a usage line from the pattern's tokens: literal
// keywords verbatim, value-bearing tokens bracketed under their documented
// argument name.
func deriveSyntax(pat *parser.Pattern, d *parser.PatternDoc) string {
	names := map[int]string{}
	for _, a := range d.Args {
		names[a.Pos] = a.Name
	}
	var parts []string
	pos := 0
	for _, tok := range pat.Tokens() {
		if tok.IsLiteral() {
			parts = append(parts, tok.Literal())
			continue
		}
		if name, ok := names[pos]; ok {
			parts = append(parts, "<"+name+">")
		} else {
			parts = append(parts, tok.String())
		}
		pos++
	}
	return strings.Join(parts, " ")
}
