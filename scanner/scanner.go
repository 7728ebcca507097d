package scanner

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	mldriver "github.com/nihei9/maleeni/driver"
	perr "github.com/planfile/planfile/error"
)

type Kind int

const (
	KindEOF Kind = iota
	KindLiteral
	KindID
	KindIDWithColon
	KindAbsoluteID
	KindRelativeID
	KindString
	KindInteger
	KindFloat
	KindDate
	KindTime
	KindMacroBody
)

func (k Kind) String() string {
	switch k {
	case KindEOF:
		return "eof"
	case KindLiteral:
		return "literal"
	case KindID:
		return "id"
	case KindIDWithColon:
		return "id with colon"
	case KindAbsoluteID:
		return "absolute id"
	case KindRelativeID:
		return "relative id"
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindDate:
		return "date"
	case KindTime:
		return "time"
	case KindMacroBody:
		return "macro body"
	}
	return "unknown"
}

// Token is one lexical element of a plan source. Text carries the lexeme with
// decoration already removed: quotes for strings, the trailing colon for
// scenario qualifiers. Positions are 1-based.
type Token struct {
	Kind       Kind
	Text       string
	SourceName string
	FilePath   string
	Row        int
	Col        int
}

type source struct {
	name string
	path string
	dir  string
	d    *mldriver.Lexer
}

// Scanner turns a stack of sources into one token stream. include suspends
// the current source until the included one is exhausted; macro calls are
// expanded in place by pushing the substituted body as a nested source.
type Scanner struct {
	stack   []*source
	active  map[string]struct{}
	macros  map[string]string
	classes []tokenClass
	eof     *Token
}

const maxNesting = 64

var macroArgRef = regexp.MustCompile(`\$\{[0-9]+\}`)

func New(name string, src io.Reader) (*Scanner, error) {
	s := &Scanner{
		active: map[string]struct{}{},
		macros: map[string]string{},
	}
	err := s.push(name, "", filepath.Dir(name), src)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func NewFile(path string) (*Scanner, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}
	s := &Scanner{
		active: map[string]struct{}{},
		macros: map[string]string{},
	}
	err = s.push(path, abs, filepath.Dir(abs), bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scanner) push(name, path, dir string, src io.Reader) error {
	if len(s.stack) >= maxNesting {
		return &perr.Error{
			Kind:    perr.KindSemantic,
			Code:    "nesting_too_deep",
			Message: "includes and macro expansions are nested too deeply",
		}
	}
	cs, classes, err := compiledSpec()
	if err != nil {
		return err
	}
	s.classes = classes
	d, err := mldriver.NewLexer(mldriver.NewLexSpec(cs), src)
	if err != nil {
		return err
	}
	s.stack = append(s.stack, &source{
		name: name,
		path: path,
		dir:  dir,
		d:    d,
	})
	if path != "" {
		s.active[path] = struct{}{}
	}
	return nil
}

func (s *Scanner) pop() {
	cur := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	if cur.path != "" {
		delete(s.active, cur.path)
	}
}

// Next returns the next token. Whitespace and comments are dropped, macro
// calls are expanded, and exhausted includes resume their including source.
// After the last source ends, Next keeps returning the same EOF token.
func (s *Scanner) Next() (*Token, error) {
	for {
		if len(s.stack) == 0 {
			if s.eof == nil {
				s.eof = &Token{Kind: KindEOF}
			}
			return s.eof, nil
		}
		cur := s.stack[len(s.stack)-1]
		tok, err := cur.d.Next()
		if err != nil {
			return nil, err
		}
		if tok.EOF {
			if len(s.stack) == 1 {
				s.eof = &Token{
					Kind:       KindEOF,
					SourceName: cur.name,
					FilePath:   cur.path,
					Row:        tok.Row + 1,
					Col:        tok.Col + 1,
				}
			}
			s.pop()
			continue
		}
		if tok.Invalid {
			return nil, s.invalidToken(cur, tok)
		}
		cls := s.classes[tok.KindID]
		if cls.skip {
			continue
		}
		switch cls.name {
		case kindBodyOpen:
			return s.scanMacroBody(cur, tok)
		case kindCallOpen:
			err := s.expandCall(cur, tok)
			if err != nil {
				return nil, err
			}
			continue
		}
		if cls.control {
			return nil, s.invalidToken(cur, tok)
		}

		text := string(tok.Lexeme)
		switch cls.kind {
		case KindString:
			text = text[1 : len(text)-1]
		case KindIDWithColon:
			text = text[:len(text)-1]
		}
		return &Token{
			Kind:       cls.kind,
			Text:       text,
			SourceName: cur.name,
			FilePath:   cur.path,
			Row:        tok.Row + 1,
			Col:        tok.Col + 1,
		}, nil
	}
}

// scanMacroBody reassembles the bracketed raw text that follows a macro
// keyword. The opening bracket has already been consumed.
func (s *Scanner) scanMacroBody(src *source, open *mldriver.Token) (*Token, error) {
	depth := 1
	var b strings.Builder
	for {
		tok, err := src.d.Next()
		if err != nil {
			return nil, err
		}
		if tok.EOF {
			return nil, &perr.Error{
				Kind:       perr.KindSyntax,
				Code:       "unexpected_eof",
				Message:    "macro body is not closed",
				SourceName: src.name,
				FilePath:   src.path,
				Row:        open.Row + 1,
				Col:        open.Col + 1,
			}
		}
		if tok.Invalid {
			return nil, s.invalidToken(src, tok)
		}
		switch s.classes[tok.KindID].name {
		case kindBodyOpen:
			depth++
			b.WriteString("[")
		case kindBodyClose:
			depth--
			if depth == 0 {
				return &Token{
					Kind:       KindMacroBody,
					Text:       b.String(),
					SourceName: src.name,
					FilePath:   src.path,
					Row:        open.Row + 1,
					Col:        open.Col + 1,
				}, nil
			}
			b.WriteString("]")
		default:
			b.Write(tok.Lexeme)
		}
	}
}

// expandCall collects `${name "arg" ...}`, substitutes the positional
// arguments into the stored body, and pushes the result as a nested source.
func (s *Scanner) expandCall(src *source, open *mldriver.Token) error {
	errAt := func(kind perr.Kind, code, msg string) error {
		return &perr.Error{
			Kind:       kind,
			Code:       code,
			Message:    msg,
			SourceName: src.name,
			FilePath:   src.path,
			Row:        open.Row + 1,
			Col:        open.Col + 1,
		}
	}

	var name string
	var args []string
collect:
	for {
		tok, err := src.d.Next()
		if err != nil {
			return err
		}
		if tok.EOF {
			return errAt(perr.KindSyntax, "unexpected_eof", "macro call is not closed")
		}
		if tok.Invalid {
			return s.invalidToken(src, tok)
		}
		cls := s.classes[tok.KindID]
		if cls.skip {
			continue
		}
		switch cls.name {
		case kindCallClose:
			break collect
		case kindCallName, kindCallInt:
			if name != "" {
				return errAt(perr.KindSyntax, "invalid_macro_call", "macro arguments must be quoted strings")
			}
			name = string(tok.Lexeme)
		case kindCallString:
			if name == "" {
				return errAt(perr.KindSyntax, "invalid_macro_call", "a macro call must start with the macro name")
			}
			text := string(tok.Lexeme)
			args = append(args, text[1:len(text)-1])
		default:
			return s.invalidToken(src, tok)
		}
	}
	if name == "" {
		return errAt(perr.KindSyntax, "invalid_macro_call", "a macro call must name a macro")
	}

	body, ok := s.macros[name]
	if !ok {
		return errAt(perr.KindSemantic, "undefined_macro", fmt.Sprintf("macro '%v' is not defined", name))
	}
	for i, arg := range args {
		body = strings.ReplaceAll(body, fmt.Sprintf("${%v}", i+1), arg)
	}
	if ref := macroArgRef.FindString(body); ref != "" {
		return errAt(perr.KindSemantic, "undefined_macro_argument", fmt.Sprintf("macro '%v' uses %v but the call does not provide it", name, ref))
	}

	return s.push(fmt.Sprintf("${%v}", name), "", src.dir, strings.NewReader(body))
}

// AddMacro registers body under name. Redefining a macro replaces its body.
func (s *Scanner) AddMacro(name, body string) {
	s.macros[name] = body
}

// Macro returns the body registered under name.
func (s *Scanner) Macro(name string) (string, bool) {
	body, ok := s.macros[name]
	return body, ok
}

// Include suspends the current source and switches to the named file until it
// is exhausted. Relative paths resolve against the including file's directory.
func (s *Scanner) Include(path string) error {
	dir := "."
	if len(s.stack) > 0 {
		dir = s.stack[len(s.stack)-1].dir
	}
	resolved := path
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(dir, resolved)
	}
	abs, err := filepath.Abs(resolved)
	if err != nil {
		return err
	}
	if _, ok := s.active[abs]; ok {
		return &perr.Error{
			Kind:    perr.KindSemantic,
			Code:    "include_cycle",
			Message: fmt.Sprintf("'%v' is already being read; include cycle", path),
		}
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return &perr.Error{
			Kind:    perr.KindSemantic,
			Code:    "include_not_found",
			Message: fmt.Sprintf("cannot include '%v': %v", path, err),
		}
	}
	return s.push(path, abs, filepath.Dir(abs), bytes.NewReader(data))
}

func (s *Scanner) invalidToken(src *source, tok *mldriver.Token) error {
	return &perr.Error{
		Kind:       perr.KindSyntax,
		Code:       "invalid_token",
		Message:    fmt.Sprintf("invalid token '%v'", string(tok.Lexeme)),
		SourceName: src.name,
		FilePath:   src.path,
		Row:        tok.Row + 1,
		Col:        tok.Col + 1,
	}
}
