package parser

import (
	"fmt"
	"sort"

	"github.com/planfile/planfile/scanner"
)

// firstEntry holds the source tokens that can begin a rule or pattern, split
// into literal texts and typed terminal kinds, plus whether the construct
// can match empty input.
type firstEntry struct {
	lits  map[string]struct{}
	kinds map[scanner.Kind]struct{}
	empty bool
}

func newFirstEntry() *firstEntry {
	return &firstEntry{
		lits:  map[string]struct{}{},
		kinds: map[scanner.Kind]struct{}{},
	}
}

func (e *firstEntry) addLit(text string) bool {
	if _, ok := e.lits[text]; ok {
		return false
	}
	e.lits[text] = struct{}{}
	return true
}

func (e *firstEntry) addKind(kind scanner.Kind) bool {
	if _, ok := e.kinds[kind]; ok {
		return false
	}
	e.kinds[kind] = struct{}{}
	return true
}

func (e *firstEntry) addEmpty() bool {
	if !e.empty {
		e.empty = true
		return true
	}
	return false
}

func (e *firstEntry) mergeExceptEmpty(target *firstEntry) bool {
	if target == nil {
		return false
	}
	changed := false
	for text := range target.lits {
		if e.addLit(text) {
			changed = true
		}
	}
	for kind := range target.kinds {
		if e.addKind(kind) {
			changed = true
		}
	}
	return changed
}

// matches reports whether tok can begin the construct this entry describes.
// A literal keyword arrives from the scanner as an identifier or punctuation
// token, so literals are matched by text.
func (e *firstEntry) matches(tok *scanner.Token) bool {
	if _, ok := e.kinds[tok.Kind]; ok {
		return true
	}
	if tok.Kind == scanner.KindID || tok.Kind == scanner.KindLiteral {
		if _, ok := e.lits[tok.Text]; ok {
			return true
		}
	}
	return false
}

// terms returns the entry's tokens in display form, literals first, each
// group sorted.
func (e *firstEntry) terms() []string {
	lits := make([]string, 0, len(e.lits))
	for text := range e.lits {
		lits = append(lits, fmt.Sprintf("'%v'", text))
	}
	sort.Strings(lits)

	kinds := make([]scanner.Kind, 0, len(e.kinds))
	for kind := range e.kinds {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool {
		return kinds[i] < kinds[j]
	})
	terms := lits
	for _, kind := range kinds {
		terms = append(terms, fmt.Sprintf("<%v>", kind))
	}
	return terms
}

// overlap returns a display form of a token both entries contain, if any. A
// word-shaped literal also collides with the identifier kind because the
// scanner cannot tell a keyword from an identifier; punctuation literals
// never can.
func (e *firstEntry) overlap(other *firstEntry) (string, bool) {
	lits := make([]string, 0, len(e.lits))
	for text := range e.lits {
		lits = append(lits, text)
	}
	sort.Strings(lits)
	for _, text := range lits {
		if _, ok := other.lits[text]; ok {
			return fmt.Sprintf("'%v'", text), true
		}
		if _, ok := other.kinds[scanner.KindID]; ok && isIDShaped(text) {
			return fmt.Sprintf("'%v'", text), true
		}
	}
	if _, ok := e.kinds[scanner.KindID]; ok {
		otherLits := make([]string, 0, len(other.lits))
		for text := range other.lits {
			if isIDShaped(text) {
				otherLits = append(otherLits, text)
			}
		}
		sort.Strings(otherLits)
		if len(otherLits) > 0 {
			return fmt.Sprintf("'%v'", otherLits[0]), true
		}
	}
	kinds := make([]scanner.Kind, 0, len(e.kinds))
	for kind := range e.kinds {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool {
		return kinds[i] < kinds[j]
	})
	for _, kind := range kinds {
		if _, ok := other.kinds[kind]; ok {
			return fmt.Sprintf("<%v>", kind), true
		}
	}
	return "", false
}

func isIDShaped(text string) bool {
	if text == "" {
		return false
	}
	c := text[0]
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

type firstSets struct {
	generation int
	entries    map[string]*firstEntry
	patterns   map[*Pattern]*firstEntry
}

// patternEntry returns the memoized first tokens of a pattern.
func (fs *firstSets) patternEntry(pat *Pattern) *firstEntry {
	if e, ok := fs.patterns[pat]; ok {
		return e
	}
	e := patternFirstEntry(fs, pat)
	fs.patterns[pat] = e
	return e
}

// firstSets returns the FIRST set of every rule, recomputing when a pattern
// was appended since the last computation.
func (g *Grammar) firstSets() *firstSets {
	if g.first != nil && g.first.generation == g.generation {
		return g.first
	}
	fs := &firstSets{
		generation: g.generation,
		entries:    map[string]*firstEntry{},
		patterns:   map[*Pattern]*firstEntry{},
	}
	for _, name := range g.names {
		fs.entries[name] = newFirstEntry()
	}
	for {
		more := false
		for _, name := range g.names {
			r := g.rules[name]
			e := fs.entries[name]
			if r.optional {
				if e.addEmpty() {
					more = true
				}
			}
			for _, pat := range r.patterns {
				if genPatternFirstEntry(fs, e, pat) {
					more = true
				}
			}
		}
		if !more {
			break
		}
	}
	g.first = fs
	return fs
}

// genPatternFirstEntry merges pat's first tokens into acc and reports
// whether acc changed. References to undefined rules contribute nothing;
// Validate reports them separately.
func genPatternFirstEntry(fs *firstSets, acc *firstEntry, pat *Pattern) bool {
	changed := false
	for _, t := range pat.tokens {
		switch {
		case t.IsLiteral():
			if acc.addLit(t.Literal()) {
				changed = true
			}
			return changed
		case t.IsTyped():
			if acc.addKind(t.Kind()) {
				changed = true
			}
			return changed
		default:
			e, ok := fs.entries[t.RuleName()]
			if !ok {
				return changed
			}
			if acc.mergeExceptEmpty(e) {
				changed = true
			}
			if !e.empty {
				return changed
			}
		}
	}
	if acc.addEmpty() {
		changed = true
	}
	return changed
}

// patternFirstEntry computes the first tokens of a single pattern from the
// rule entries in fs.
func patternFirstEntry(fs *firstSets, pat *Pattern) *firstEntry {
	e := newFirstEntry()
	for _, t := range pat.tokens {
		switch {
		case t.IsLiteral():
			e.addLit(t.Literal())
			return e
		case t.IsTyped():
			e.addKind(t.Kind())
			return e
		default:
			re, ok := fs.entries[t.RuleName()]
			if !ok {
				return e
			}
			e.mergeExceptEmpty(re)
			if !re.empty {
				return e
			}
		}
	}
	e.addEmpty()
	return e
}
