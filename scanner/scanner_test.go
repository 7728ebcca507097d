package scanner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perr "github.com/planfile/planfile/error"
)

func TestScanner_Next(t *testing.T) {
	tok := func(kind Kind, text string) *Token {
		return &Token{Kind: kind, Text: text}
	}

	tests := []struct {
		caption string
		src     string
		tokens  []*Token
	}{
		{
			caption: "all token kinds are recognized",
			src:     `task "Design" 'alt' plan: a.b.c !!sub 42 0.5 2024-01-01 2024-01-01-09:30 12:30 { } , - + ( ) & | ~ <= >= != < > =`,
			tokens: []*Token{
				tok(KindID, "task"),
				tok(KindString, "Design"),
				tok(KindString, "alt"),
				tok(KindIDWithColon, "plan"),
				tok(KindAbsoluteID, "a.b.c"),
				tok(KindRelativeID, "!!sub"),
				tok(KindInteger, "42"),
				tok(KindFloat, "0.5"),
				tok(KindDate, "2024-01-01"),
				tok(KindDate, "2024-01-01-09:30"),
				tok(KindTime, "12:30"),
				tok(KindLiteral, "{"),
				tok(KindLiteral, "}"),
				tok(KindLiteral, ","),
				tok(KindLiteral, "-"),
				tok(KindLiteral, "+"),
				tok(KindLiteral, "("),
				tok(KindLiteral, ")"),
				tok(KindLiteral, "&"),
				tok(KindLiteral, "|"),
				tok(KindLiteral, "~"),
				tok(KindLiteral, "<="),
				tok(KindLiteral, ">="),
				tok(KindLiteral, "!="),
				tok(KindLiteral, "<"),
				tok(KindLiteral, ">"),
				tok(KindLiteral, "="),
			},
		},
		{
			caption: "comments and whitespace never surface",
			src: `# line comment
task // trailing comment
/* block
   comment */ "T"`,
			tokens: []*Token{
				tok(KindID, "task"),
				tok(KindString, "T"),
			},
		},
		{
			caption: "a bracketed body becomes one raw token with nesting preserved",
			src:     `macro m [ allocate [dev1, dev2] now ]`,
			tokens: []*Token{
				tok(KindID, "macro"),
				tok(KindID, "m"),
				tok(KindMacroBody, " allocate [dev1, dev2] now "),
			},
		},
		{
			caption: "an unspaced interval still splits into date, dash, date",
			src:     `2024-01-01-2024-06-30`,
			tokens: []*Token{
				tok(KindDate, "2024-01-01"),
				tok(KindLiteral, "-"),
				tok(KindDate, "2024-06-30"),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			s, err := New("test", strings.NewReader(tt.src))
			require.NoError(t, err)
			for _, want := range tt.tokens {
				got, err := s.Next()
				require.NoError(t, err)
				assert.Equal(t, want.Kind, got.Kind, "kind of %v", want.Text)
				assert.Equal(t, want.Text, got.Text)
			}
			got, err := s.Next()
			require.NoError(t, err)
			assert.Equal(t, KindEOF, got.Kind)

			// EOF repeats.
			got, err = s.Next()
			require.NoError(t, err)
			assert.Equal(t, KindEOF, got.Kind)
		})
	}
}

func TestScanner_Positions(t *testing.T) {
	s, err := New("test", strings.NewReader("task\n  \"T\""))
	require.NoError(t, err)

	tok, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, tok.Row)
	assert.Equal(t, 1, tok.Col)
	assert.Equal(t, "test", tok.SourceName)

	tok, err = s.Next()
	require.NoError(t, err)
	assert.Equal(t, 2, tok.Row)
	assert.Equal(t, 3, tok.Col)
}

func TestScanner_InvalidToken(t *testing.T) {
	s, err := New("test", strings.NewReader("task ^"))
	require.NoError(t, err)

	_, err = s.Next()
	require.NoError(t, err)
	_, err = s.Next()
	require.Error(t, err)
	assert.Equal(t, "invalid_token", perr.CodeOf(err))
}

func TestScanner_Macros(t *testing.T) {
	next := func(t *testing.T, s *Scanner) *Token {
		t.Helper()
		tok, err := s.Next()
		require.NoError(t, err)
		return tok
	}

	t.Run("a call expands to the stored body", func(t *testing.T) {
		s, err := New("test", strings.NewReader(`before ${greet} after`))
		require.NoError(t, err)
		s.AddMacro("greet", `hello world`)

		assert.Equal(t, "before", next(t, s).Text)
		assert.Equal(t, "hello", next(t, s).Text)
		assert.Equal(t, "world", next(t, s).Text)
		assert.Equal(t, "after", next(t, s).Text)
		assert.Equal(t, KindEOF, next(t, s).Kind)
	})

	t.Run("positional arguments substitute into the body", func(t *testing.T) {
		s, err := New("test", strings.NewReader(`${alloc "dev1" "dev2"}`))
		require.NoError(t, err)
		s.AddMacro("alloc", `allocate ${1}, ${2}`)

		assert.Equal(t, "allocate", next(t, s).Text)
		assert.Equal(t, "dev1", next(t, s).Text)
		assert.Equal(t, ",", next(t, s).Text)
		assert.Equal(t, "dev2", next(t, s).Text)
	})

	t.Run("a macro may call another macro", func(t *testing.T) {
		s, err := New("test", strings.NewReader(`${outer}`))
		require.NoError(t, err)
		s.AddMacro("outer", `a ${inner} c`)
		s.AddMacro("inner", `b`)

		assert.Equal(t, "a", next(t, s).Text)
		assert.Equal(t, "b", next(t, s).Text)
		assert.Equal(t, "c", next(t, s).Text)
	})

	t.Run("calling an undefined macro fails", func(t *testing.T) {
		s, err := New("test", strings.NewReader(`${nope}`))
		require.NoError(t, err)

		_, err = s.Next()
		require.Error(t, err)
		assert.Equal(t, "undefined_macro", perr.CodeOf(err))
	})

	t.Run("an unquoted argument fails", func(t *testing.T) {
		s, err := New("test", strings.NewReader(`${m arg}`))
		require.NoError(t, err)
		s.AddMacro("m", `x`)

		_, err = s.Next()
		require.Error(t, err)
		assert.Equal(t, "invalid_macro_call", perr.CodeOf(err))
	})

	t.Run("an empty call fails", func(t *testing.T) {
		s, err := New("test", strings.NewReader(`${}`))
		require.NoError(t, err)

		_, err = s.Next()
		require.Error(t, err)
		assert.Equal(t, "invalid_macro_call", perr.CodeOf(err))
	})

	t.Run("a missing positional argument fails", func(t *testing.T) {
		s, err := New("test", strings.NewReader(`${m "a"}`))
		require.NoError(t, err)
		s.AddMacro("m", `x ${1} y ${2}`)

		_, err = s.Next()
		require.Error(t, err)
		assert.Equal(t, "undefined_macro_argument", perr.CodeOf(err))
	})

	t.Run("self-expansion is cut off", func(t *testing.T) {
		s, err := New("test", strings.NewReader(`${loop}`))
		require.NoError(t, err)
		s.AddMacro("loop", `${loop}`)

		var lastErr error
		for i := 0; i < maxNesting+1; i++ {
			_, lastErr = s.Next()
			if lastErr != nil {
				break
			}
		}
		require.Error(t, lastErr)
		assert.Equal(t, "nesting_too_deep", perr.CodeOf(lastErr))
	})
}

func TestScanner_Include(t *testing.T) {
	writeFile := func(t *testing.T, dir, name, content string) string {
		t.Helper()
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		return path
	}

	t.Run("an include suspends and resumes the outer source", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "inner.plan", "beta")
		outer := writeFile(t, dir, "outer.plan", "alpha omega")

		s, err := NewFile(outer)
		require.NoError(t, err)

		tok, err := s.Next()
		require.NoError(t, err)
		assert.Equal(t, "alpha", tok.Text)

		require.NoError(t, s.Include("inner.plan"))

		tok, err = s.Next()
		require.NoError(t, err)
		assert.Equal(t, "beta", tok.Text)

		tok, err = s.Next()
		require.NoError(t, err)
		assert.Equal(t, "omega", tok.Text)

		tok, err = s.Next()
		require.NoError(t, err)
		assert.Equal(t, KindEOF, tok.Kind)
	})

	t.Run("including an active file is a cycle", func(t *testing.T) {
		dir := t.TempDir()
		outer := writeFile(t, dir, "self.plan", "alpha")

		s, err := NewFile(outer)
		require.NoError(t, err)

		err = s.Include("self.plan")
		require.Error(t, err)
		assert.Equal(t, "include_cycle", perr.CodeOf(err))
	})

	t.Run("a missing file is reported", func(t *testing.T) {
		dir := t.TempDir()
		outer := writeFile(t, dir, "outer.plan", "alpha")

		s, err := NewFile(outer)
		require.NoError(t, err)

		err = s.Include("missing.plan")
		require.Error(t, err)
		assert.Equal(t, "include_not_found", perr.CodeOf(err))
	})
}
