package scanner

import (
	"fmt"
	"strings"
	"sync"

	mlcompiler "github.com/nihei9/maleeni/compiler"
	mlspec "github.com/nihei9/maleeni/spec"
)

// The lexical specification is written in code and compiled into a DFA once,
// on first use. Every source pushed onto a scanner is driven by the same
// compiled specification.

const (
	modeMacroBody = "macro_body"
	modeMacroCall = "macro_call"
)

const (
	kindWS           = "ws"
	kindLineComment  = "line_comment"
	kindBlockComment = "block_comment"
	kindDate         = "date"
	kindTime         = "time"
	kindFloat        = "float"
	kindInteger      = "integer"
	kindIDWithColon  = "id_with_colon"
	kindAbsoluteID   = "absolute_id"
	kindRelativeID   = "relative_id"
	kindID           = "id"
	kindString       = "string"
	kindBodyOpen     = "body_open"
	kindBodyClose    = "body_close"
	kindBodyText     = "body_text"
	kindCallOpen     = "call_open"
	kindCallWS       = "call_ws"
	kindCallName     = "call_name"
	kindCallInt      = "call_int"
	kindCallString   = "call_string"
	kindCallClose    = "call_close"
)

var puncts = []struct {
	kind string
	text string
}{
	{"lbrace", "{"},
	{"rbrace", "}"},
	{"comma", ","},
	{"dash", "-"},
	{"plus", "+"},
	{"lparen", "("},
	{"rparen", ")"},
	{"amp", "&"},
	{"pipe", "|"},
	{"tilde", "~"},
	{"lte", "<="},
	{"gte", ">="},
	{"neq", "!="},
	{"lt", "<"},
	{"gt", ">"},
	{"eq", "="},
}

func lexSpec() *mlspec.LexSpec {
	frag := func(kind, pattern string) *mlspec.LexEntry {
		return &mlspec.LexEntry{
			Fragment: true,
			Kind:     mlspec.LexKindName(kind),
			Pattern:  mlspec.LexPattern(pattern),
		}
	}
	entry := func(kind, pattern string) *mlspec.LexEntry {
		return &mlspec.LexEntry{
			Kind:    mlspec.LexKindName(kind),
			Pattern: mlspec.LexPattern(pattern),
		}
	}

	entries := []*mlspec.LexEntry{
		frag("d", `[0-9]`),
		frag("d2", `\f{d}\f{d}`),
		frag("d4", `\f{d2}\f{d2}`),
		frag("stem", `[A-Za-z_][0-9A-Za-z_]*`),

		entry(kindWS, `[\u{0009}\u{000A}\u{000D}\u{0020}]+`),
		entry(kindLineComment, `(#|//)[^\u{000A}]*`),
		entry(kindBlockComment, `/\*([^*]|\*+[^*/])*\*+/`),

		// A date may carry a time suffix. Maximal munch keeps it ahead of
		// integer and keeps `12:30` out of id_with_colon.
		entry(kindDate, `\f{d4}-\f{d2}-\f{d2}(-\f{d2}:\f{d2}(:\f{d2})?)?`),
		entry(kindTime, `\f{d}\f{d}?:\f{d2}(:\f{d2})?`),
		entry(kindFloat, `\f{d}+\.\f{d}+`),
		entry(kindInteger, `\f{d}+`),
		entry(kindIDWithColon, `\f{stem}:`),
		entry(kindAbsoluteID, `\f{stem}(\.\f{stem})+`),
		entry(kindRelativeID, `!+\f{stem}(\.\f{stem})*`),
		entry(kindID, `\f{stem}`),
		entry(kindString, `"[^"\u{000A}]*"|'[^'\u{000A}]*'`),
	}

	for _, p := range puncts {
		entries = append(entries, entry(p.kind, mlspec.EscapePattern(p.text)))
	}

	// Macro bodies are raw text between balanced brackets. Each `[` pushes the
	// body mode again so nesting is counted by the mode stack; the scanner
	// reassembles the pieces into a single token.
	entries = append(entries,
		&mlspec.LexEntry{
			Kind:    mlspec.LexKindName(kindBodyOpen),
			Pattern: mlspec.LexPattern(mlspec.EscapePattern("[")),
			Modes:   []mlspec.LexModeName{mlspec.LexModeNameDefault, modeMacroBody},
			Push:    mlspec.LexModeName(modeMacroBody),
		},
		&mlspec.LexEntry{
			Kind:    mlspec.LexKindName(kindBodyClose),
			Pattern: mlspec.LexPattern(mlspec.EscapePattern("]")),
			Modes:   []mlspec.LexModeName{modeMacroBody},
			Pop:     true,
		},
		&mlspec.LexEntry{
			Kind:    mlspec.LexKindName(kindBodyText),
			Pattern: mlspec.LexPattern(`[^[\]]+`),
			Modes:   []mlspec.LexModeName{modeMacroBody},
		},
	)

	// Macro calls `${name "arg" ...}` never reach the parser; the scanner
	// collects the pieces and replaces the call with the expanded body.
	entries = append(entries,
		&mlspec.LexEntry{
			Kind:    mlspec.LexKindName(kindCallOpen),
			Pattern: mlspec.LexPattern(mlspec.EscapePattern("${")),
			Modes:   []mlspec.LexModeName{mlspec.LexModeNameDefault},
			Push:    mlspec.LexModeName(modeMacroCall),
		},
		&mlspec.LexEntry{
			Kind:    mlspec.LexKindName(kindCallWS),
			Pattern: mlspec.LexPattern(`[\u{0009}\u{000A}\u{000D}\u{0020}]+`),
			Modes:   []mlspec.LexModeName{modeMacroCall},
		},
		&mlspec.LexEntry{
			Kind:    mlspec.LexKindName(kindCallName),
			Pattern: mlspec.LexPattern(`\f{stem}`),
			Modes:   []mlspec.LexModeName{modeMacroCall},
		},
		&mlspec.LexEntry{
			Kind:    mlspec.LexKindName(kindCallInt),
			Pattern: mlspec.LexPattern(`\f{d}+`),
			Modes:   []mlspec.LexModeName{modeMacroCall},
		},
		&mlspec.LexEntry{
			Kind:    mlspec.LexKindName(kindCallString),
			Pattern: mlspec.LexPattern(`"[^"\u{000A}]*"|'[^'\u{000A}]*'`),
			Modes:   []mlspec.LexModeName{modeMacroCall},
		},
		&mlspec.LexEntry{
			Kind:    mlspec.LexKindName(kindCallClose),
			Pattern: mlspec.LexPattern(mlspec.EscapePattern("}")),
			Modes:   []mlspec.LexModeName{modeMacroCall},
			Pop:     true,
		},
	)

	return &mlspec.LexSpec{
		Name:    "planfile",
		Entries: entries,
	}
}

type tokenClass struct {
	name    string
	kind    Kind
	skip    bool
	control bool
}

var (
	compileOnce sync.Once
	compiled    *mlspec.CompiledLexSpec
	classes     []tokenClass
	compileErr  error
)

func compiledSpec() (*mlspec.CompiledLexSpec, []tokenClass, error) {
	compileOnce.Do(func() {
		cs, err, cErrs := mlcompiler.Compile(lexSpec(), mlcompiler.CompressionLevel(mlcompiler.CompressionLevelMax))
		if err != nil {
			if len(cErrs) > 0 {
				var b strings.Builder
				for i, cErr := range cErrs {
					if i > 0 {
						fmt.Fprintf(&b, "\n")
					}
					if cErr.Fragment {
						fmt.Fprintf(&b, "fragment ")
					}
					fmt.Fprintf(&b, "%v: %v", cErr.Kind, cErr.Cause)
					if cErr.Detail != "" {
						fmt.Fprintf(&b, ": %v", cErr.Detail)
					}
				}
				compileErr = fmt.Errorf("lexical specification:\n%v", b.String())
				return
			}
			compileErr = err
			return
		}
		compiled = cs
		classes = classifyKinds(cs)
	})
	return compiled, classes, compileErr
}

func classifyKinds(cs *mlspec.CompiledLexSpec) []tokenClass {
	table := make([]tokenClass, len(cs.KindNames))
	for id, name := range cs.KindNames {
		if name == mlspec.LexKindNameNil {
			continue
		}
		c := tokenClass{name: name.String()}
		switch c.name {
		case kindWS, kindLineComment, kindBlockComment, kindCallWS:
			c.skip = true
		case kindDate:
			c.kind = KindDate
		case kindTime:
			c.kind = KindTime
		case kindFloat:
			c.kind = KindFloat
		case kindInteger:
			c.kind = KindInteger
		case kindIDWithColon:
			c.kind = KindIDWithColon
		case kindAbsoluteID:
			c.kind = KindAbsoluteID
		case kindRelativeID:
			c.kind = KindRelativeID
		case kindID:
			c.kind = KindID
		case kindString:
			c.kind = KindString
		case kindBodyOpen, kindBodyClose, kindBodyText, kindCallOpen,
			kindCallName, kindCallInt, kindCallString, kindCallClose:
			c.control = true
		default:
			c.kind = KindLiteral
		}
		table[id] = c
	}
	return table
}
