package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	perr "github.com/planfile/planfile/error"
	"github.com/planfile/planfile/scanner"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02-15:04",
	"2006-01-02-15:04:05",
}

// coerceToken maps a typed source token to its Go value: identifiers and
// strings to string, integers to int64, floats to float64, dates to
// time.Time, and times of day to seconds since midnight as int64.
func coerceToken(tok *scanner.Token) (any, error) {
	switch tok.Kind {
	case scanner.KindID, scanner.KindIDWithColon, scanner.KindAbsoluteID,
		scanner.KindRelativeID, scanner.KindString, scanner.KindMacroBody,
		scanner.KindLiteral:
		return tok.Text, nil
	case scanner.KindInteger:
		n, err := strconv.ParseInt(tok.Text, 10, 64)
		if err != nil {
			return nil, coerceErr(tok, "invalid_number", "'%v' is not a valid integer", tok.Text)
		}
		return n, nil
	case scanner.KindFloat:
		f, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, coerceErr(tok, "invalid_number", "'%v' is not a valid number", tok.Text)
		}
		return f, nil
	case scanner.KindDate:
		for _, layout := range dateLayouts {
			if d, err := time.Parse(layout, tok.Text); err == nil {
				return d, nil
			}
		}
		return nil, coerceErr(tok, "invalid_date", "'%v' is not a valid date", tok.Text)
	case scanner.KindTime:
		secs, ok := parseTimeOfDay(tok.Text)
		if !ok {
			return nil, coerceErr(tok, "invalid_time", "'%v' is not a valid time of day", tok.Text)
		}
		return secs, nil
	}
	return nil, coerceErr(tok, "unexpected_token", "token '%v' carries no value", tok.Text)
}

func parseTimeOfDay(text string) (int64, bool) {
	parts := strings.Split(text, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	h, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, false
	}
	m, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, false
	}
	var s int64
	if len(parts) == 3 {
		s, err = strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return 0, false
		}
	}
	if h > 24 || m > 59 || s > 59 || (h == 24 && (m > 0 || s > 0)) {
		return 0, false
	}
	return h*3600 + m*60 + s, true
}

func coerceErr(tok *scanner.Token, code, format string, args ...any) error {
	return &perr.Error{
		Kind:       perr.KindSyntax,
		Code:       code,
		Message:    fmt.Sprintf(format, args...),
		SourceName: tok.SourceName,
		FilePath:   tok.FilePath,
		Row:        tok.Row,
		Col:        tok.Col,
	}
}
