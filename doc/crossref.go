package doc

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	perr "github.com/planfile/planfile/error"
	"github.com/planfile/planfile/parser"
)

// CrossReference resolves every link between entries: "see:" argument
// markers, the attribute lists discovered by walking each entry's pattern
// into the grammar, and the see-also sets. Undocumented attribute keywords
// are reported through the logger but do not fail the pass. Calling it again
// on an already linked reference is a no-op.
func (ref *Reference) CrossReference() error {
	if ref.done {
		return nil
	}
	ref.done = true

	for _, e := range ref.Entries() {
		if err := ref.linkArgs(e); err != nil {
			return err
		}
	}
	for _, e := range ref.Entries() {
		ref.linkAttributes(e)
	}
	for _, e := range ref.Entries() {
		if err := ref.linkAlso(e); err != nil {
			return err
		}
		if err := ref.linkSeeAlso(e); err != nil {
			return err
		}
	}
	return nil
}

// linkArgs resolves "see:" argument texts to their target entries.
func (ref *Reference) linkArgs(e *Entry) error {
	for i := range e.Args {
		rest, ok := strings.CutPrefix(e.Args[i].Text, "see:")
		if !ok {
			continue
		}
		name := strings.TrimSpace(rest)
		target, ok := ref.entries[name]
		if !ok {
			return ref.unknownReference(e, name)
		}
		e.Args[i].Ref = target
	}
	return nil
}

// linkAttributes walks the rules reachable from the entry's pattern and links
// every documented keyword found in an attribute body as an optional
// attribute of the entry. Documented patterns behind plain rules are linked
// without descending further, so a nested block keeps its attributes to
// itself.
func (ref *Reference) linkAttributes(owner *Entry) {
	visited := map[*parser.Rule]bool{}
	for _, tok := range owner.Pattern.Tokens() {
		if tok.IsRef() {
			ref.scanRule(owner, tok.RuleName(), visited)
		}
	}
}

func (ref *Reference) scanRule(owner *Entry, ruleName string, visited map[*parser.Rule]bool) {
	r, ok := ref.g.Rule(ruleName)
	if !ok || visited[r] {
		return
	}
	visited[r] = true
	for _, pat := range r.Patterns() {
		if d := pat.Documentation(); d != nil && d.Keyword != "" {
			ref.link(owner, ref.entries[d.Keyword], r.IsScenarioSpecific())
			continue
		}
		if r.IsAttributeBody() {
			if kw := pat.FirstLiteral(); kw != "" {
				ref.logger.Warn("undocumented attribute",
					slog.String("code", "undocumented_attribute"),
					slog.String("rule", r.Name()),
					slog.String("keyword", kw))
				continue
			}
		}
		for _, tok := range pat.Tokens() {
			if tok.IsRef() {
				ref.scanRule(owner, tok.RuleName(), visited)
			}
		}
	}
}

// link records child as an optional attribute of owner and owner as a
// context of child. An argument already referencing the child keeps the
// attribute list free of the duplicate. A scenario-qualified relation marks
// the child scenario specific.
func (ref *Reference) link(owner, child *Entry, scenarioQualified bool) {
	if child == nil {
		return
	}
	for _, a := range owner.Args {
		if a.Ref == child {
			return
		}
	}
	for _, attr := range owner.OptionalAttributes {
		if attr == child {
			return
		}
	}
	owner.OptionalAttributes = append(owner.OptionalAttributes, child)
	child.Contexts = append(child.Contexts, owner)
	if scenarioQualified {
		child.ScenarioSpecific = true
	}
}

// linkAlso resolves the entry's documentation-only attribute names.
func (ref *Reference) linkAlso(e *Entry) error {
	d := e.Pattern.Documentation()
	for _, name := range d.Also {
		target, ok := ref.entries[name]
		if !ok {
			return ref.unknownReference(e, name)
		}
		ref.link(e, target, false)
	}
	return nil
}

// linkSeeAlso resolves the entry's see-also names and sorts them.
func (ref *Reference) linkSeeAlso(e *Entry) error {
	d := e.Pattern.Documentation()
	for _, name := range d.SeeAlso {
		target, ok := ref.entries[name]
		if !ok {
			return ref.unknownReference(e, name)
		}
		e.SeeAlso = append(e.SeeAlso, target)
	}
	sort.Slice(e.SeeAlso, func(i, j int) bool {
		return e.SeeAlso[i].Keyword < e.SeeAlso[j].Keyword
	})
	return nil
}

func (ref *Reference) unknownReference(e *Entry, name string) error {
	return &perr.Error{
		Kind:    perr.KindDoc,
		Code:    "unknown_reference",
		Message: fmt.Sprintf("documentation of '%v' references unknown keyword '%v'", e.Keyword, name),
	}
}
