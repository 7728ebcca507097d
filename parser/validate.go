package parser

import (
	"fmt"

	perr "github.com/planfile/planfile/error"
	"github.com/planfile/planfile/scanner"
)

// Validate checks the invariants the matching engine assumes: every
// referenced rule is defined, no alternative can match empty input, and the
// alternatives of each rule start with pairwise disjoint tokens. It returns
// every violation found, nil when the registry is sound.
func (g *Grammar) Validate() error {
	var errs perr.List
	for _, name := range g.names {
		r := g.rules[name]
		for _, pat := range r.patterns {
			for _, t := range pat.tokens {
				switch {
				case t.IsRef():
					if _, ok := g.rules[t.RuleName()]; !ok {
						errs = append(errs, &perr.Error{
							Kind:    perr.KindGrammar,
							Code:    "undefined_rule",
							Message: fmt.Sprintf("rule '%v' is not defined (referenced from rule '%v')", t.RuleName(), name),
						})
					}
				case t.IsTyped():
					if t.Kind() == scanner.KindEOF || t.Kind() == scanner.KindLiteral {
						errs = append(errs, &perr.Error{
							Kind:    perr.KindGrammar,
							Code:    "invalid_pattern_token",
							Message: fmt.Sprintf("rule '%v': token %v cannot appear in a pattern", name, t),
						})
					}
				}
			}
		}
	}
	if len(errs) > 0 {
		return errs
	}

	fs := g.firstSets()
	for _, name := range g.names {
		r := g.rules[name]
		entries := make([]*firstEntry, len(r.patterns))
		for i, pat := range r.patterns {
			entries[i] = fs.patternEntry(pat)
			if entries[i].empty {
				errs = append(errs, &perr.Error{
					Kind:    perr.KindGrammar,
					Code:    "nullable_pattern",
					Message: fmt.Sprintf("rule '%v': alternative %v can match empty input", name, i+1),
				})
			}
		}
		for i := 0; i < len(entries); i++ {
			for j := i + 1; j < len(entries); j++ {
				if tok, ok := entries[i].overlap(entries[j]); ok {
					errs = append(errs, &perr.Error{
						Kind:    perr.KindGrammar,
						Code:    "ambiguous_alternatives",
						Message: fmt.Sprintf("rule '%v': alternatives %v and %v can both start with %v", name, i+1, j+1, tok),
					})
				}
			}
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
