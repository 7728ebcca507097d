package error

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Kind classifies an error by the stage that raised it.
type Kind int

const (
	KindGrammar Kind = iota
	KindSyntax
	KindSemantic
	KindDoc
)

func (k Kind) String() string {
	switch k {
	case KindGrammar:
		return "grammar definition"
	case KindSyntax:
		return "syntax"
	case KindSemantic:
		return "semantic"
	case KindDoc:
		return "documentation"
	}
	return "unknown"
}

// Error carries a stable machine-matchable Code alongside the human message.
// Positions are 1-based. Property names the enclosing property block, when any.
type Error struct {
	Kind       Kind
	Code       string
	Message    string
	Property   string
	FilePath   string
	SourceName string
	Row        int
	Col        int
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.SourceName != "" {
		fmt.Fprintf(&b, "%v: ", e.SourceName)
	}
	if e.Row != 0 {
		if e.Col != 0 {
			fmt.Fprintf(&b, "%v:%v: ", e.Row, e.Col)
		} else {
			fmt.Fprintf(&b, "%v: ", e.Row)
		}
	}
	fmt.Fprintf(&b, "error: %v", e.Message)
	if e.Property != "" {
		fmt.Fprintf(&b, " (in property %v)", e.Property)
	}

	line := readLine(e.FilePath, e.Row)
	if line != "" {
		fmt.Fprintf(&b, "\n    %v", line)
	}

	return b.String()
}

func readLine(filePath string, row int) string {
	if filePath == "" || row <= 0 {
		return ""
	}

	f, err := os.Open(filePath)
	if err != nil {
		return ""
	}
	defer f.Close()

	i := 1
	s := bufio.NewScanner(f)
	for s.Scan() {
		if i == row {
			return s.Text()
		}
		i++
	}

	return ""
}

type List []*Error

func (l List) Error() string {
	var b strings.Builder
	for i, e := range l {
		if i > 0 {
			fmt.Fprintf(&b, "\n")
		}
		fmt.Fprintf(&b, "%v", e)
	}
	return b.String()
}

// CodeOf returns the stable code of err, or "" when err carries none.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// KindOf returns the taxonomy kind of err. The second result reports whether
// err was raised by this module at all.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
