package parser

import (
	"fmt"

	perr "github.com/planfile/planfile/error"
	"github.com/planfile/planfile/project"
	"github.com/planfile/planfile/scanner"
)

// Position is a location in a plan source.
type Position struct {
	SourceName string
	FilePath   string
	Row        int
	Col        int
}

// Context carries the ambient state semantic actions read and mutate: the
// project under construction, the property stack, the active scenario index,
// the scanner (for includes and macro definitions), the grammar (for
// extensions), and the position of the pattern being reduced.
type Context struct {
	proj      *project.Project
	scn       *scanner.Scanner
	g         *Grammar
	propStack []*project.Property
	scenario  int
	pos       Position
}

func newContext(g *Grammar, scn *scanner.Scanner, proj *project.Project) *Context {
	return &Context{
		proj: proj,
		scn:  scn,
		g:    g,
	}
}

func (c *Context) Project() *project.Project {
	return c.proj
}

func (c *Context) Scanner() *scanner.Scanner {
	return c.scn
}

func (c *Context) Grammar() *Grammar {
	return c.g
}

// Property returns the property whose block is being parsed, or nil at the
// top level.
func (c *Context) Property() *project.Property {
	if len(c.propStack) == 0 {
		return nil
	}
	return c.propStack[len(c.propStack)-1]
}

func (c *Context) PushProperty(p *project.Property) {
	c.propStack = append(c.propStack, p)
}

func (c *Context) PopProperty() {
	if len(c.propStack) > 0 {
		c.propStack = c.propStack[:len(c.propStack)-1]
	}
}

// ScenarioIndex is the scenario addressed by the enclosing qualifier, or 0.
func (c *Context) ScenarioIndex() int {
	return c.scenario
}

// Pos is the position of the first token of the pattern whose action is
// running.
func (c *Context) Pos() Position {
	return c.pos
}

// SemanticErrorf builds a semantic error carrying the ambient position and
// property.
func (c *Context) SemanticErrorf(code, format string, args ...any) error {
	return c.errorf(perr.KindSemantic, code, format, args...)
}

// SyntaxErrorf builds a syntax error carrying the ambient position and
// property.
func (c *Context) SyntaxErrorf(code, format string, args ...any) error {
	return c.errorf(perr.KindSyntax, code, format, args...)
}

func (c *Context) errorf(kind perr.Kind, code, format string, args ...any) error {
	e := &perr.Error{
		Kind:       kind,
		Code:       code,
		Message:    fmt.Sprintf(format, args...),
		SourceName: c.pos.SourceName,
		FilePath:   c.pos.FilePath,
		Row:        c.pos.Row,
		Col:        c.pos.Col,
	}
	if p := c.Property(); p != nil {
		e.Property = p.FullID
	}
	return e
}

// Annotate attaches the ambient position and property to an error raised by
// a collaborator, leaving errors that already carry a position alone.
func (c *Context) Annotate(err error) error {
	e, ok := err.(*perr.Error)
	if !ok {
		return err
	}
	if e.Row == 0 {
		e.SourceName = c.pos.SourceName
		e.FilePath = c.pos.FilePath
		e.Row = c.pos.Row
		e.Col = c.pos.Col
	}
	if e.Property == "" {
		if p := c.Property(); p != nil {
			e.Property = p.FullID
		}
	}
	return e
}
