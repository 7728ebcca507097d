package parser

import (
	"fmt"

	"github.com/planfile/planfile/scanner"
)

type tokenRole int

const (
	roleLiteral tokenRole = iota
	roleTyped
	roleRef
)

// Token is one element of a pattern: a literal keyword, a typed terminal, or
// a reference to another rule. The three forms are closed; the engine
// dispatches on the role exhaustively.
type Token struct {
	role tokenRole
	text string
	kind scanner.Kind
	ref  string
}

// Lit builds a pattern element matching a source token whose text equals
// text. The matched token is consumed and contributes no value.
func Lit(text string) Token {
	return Token{role: roleLiteral, text: text}
}

// Typed builds a pattern element matching any source token of the given
// kind. The coerced token value is passed to the pattern's action.
func Typed(kind scanner.Kind) Token {
	return Token{role: roleTyped, kind: kind}
}

// Ref builds a pattern element matching the named rule. The rule's result is
// passed to the pattern's action.
func Ref(rule string) Token {
	return Token{role: roleRef, ref: rule}
}

func (t Token) IsLiteral() bool {
	return t.role == roleLiteral
}

func (t Token) IsTyped() bool {
	return t.role == roleTyped
}

func (t Token) IsRef() bool {
	return t.role == roleRef
}

func (t Token) Literal() string {
	return t.text
}

func (t Token) Kind() scanner.Kind {
	return t.kind
}

func (t Token) RuleName() string {
	return t.ref
}

func (t Token) String() string {
	switch t.role {
	case roleLiteral:
		return fmt.Sprintf("'%v'", t.text)
	case roleTyped:
		return fmt.Sprintf("<%v>", t.kind)
	case roleRef:
		return fmt.Sprintf("<%v>", t.ref)
	}
	return "<invalid>"
}

// matchesSource reports whether a source token satisfies this pattern
// element directly. Literal keywords accept identifier and punctuation
// tokens by text; typed elements accept by kind alone.
func (t Token) matchesSource(tok *scanner.Token) bool {
	switch t.role {
	case roleLiteral:
		return (tok.Kind == scanner.KindID || tok.Kind == scanner.KindLiteral) && tok.Text == t.text
	case roleTyped:
		return tok.Kind == t.kind
	}
	return false
}
