package lexer

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/nlowe-dev/rashell/token"
)

func TestLexOperators(t *testing.T) {
	t.Parallel()
	tests := [...]struct {
		line string
		want []token.Kind
	}{
		{"a | b", []token.Kind{token.StringLiteral, token.Pipe, token.StringLiteral}},
		{"a > b", []token.Kind{token.StringLiteral, token.Redirect, token.StringLiteral}},
		{"a 2> b", []token.Kind{token.StringLiteral, token.Redirect, token.StringLiteral}},
		{"a >> b", []token.Kind{token.StringLiteral, token.Append, token.StringLiteral}},
		{"a < b", []token.Kind{token.StringLiteral, token.Input, token.StringLiteral}},
		{"a 2>&1", []token.Kind{token.StringLiteral, token.RedirectFD}},
		{"a &> b", []token.Kind{token.StringLiteral, token.RedirectAll, token.StringLiteral}},
		{"a &>> b", []token.Kind{token.StringLiteral, token.AppendAll, token.StringLiteral}},
		{"a &", []token.Kind{token.StringLiteral, token.Background}},
		{"a `b`", []token.Kind{token.StringLiteral, token.Subshell, token.StringLiteral, token.Subshell}},
	}

	for _, test := range tests {
		test := test
		t.Run(test.line, func(t *testing.T) {
			t.Parallel()
			c := qt.New(t)
			toks, err := Lex(test.line)
			c.Assert(err, qt.IsNil)
			c.Assert(len(toks), qt.Equals, len(test.want))
			for i, k := range test.want {
				c.Assert(toks[i].Kind, qt.Equals, k)
			}
		})
	}
}

func TestLexRedirectDefaultFd(t *testing.T) {
	c := qt.New(t)

	toks, err := Lex("a > out")
	c.Assert(err, qt.IsNil)
	c.Assert(toks[1].Fd, qt.Equals, 1)

	// "<" defaults to fd 1 as well, faithfully matching the original
	// implementation's unwrap_or(1) rather than the conventionally
	// expected fd 0.
	toks, err = Lex("a < in")
	c.Assert(err, qt.IsNil)
	c.Assert(toks[1].Fd, qt.Equals, 1)

	toks, err = Lex("a 3< in")
	c.Assert(err, qt.IsNil)
	c.Assert(toks[1].Fd, qt.Equals, 3)
}

func TestLexRedirectFD(t *testing.T) {
	c := qt.New(t)
	toks, err := Lex("a 2>&1")
	c.Assert(err, qt.IsNil)
	c.Assert(toks[1].Fd, qt.Equals, 2)
	c.Assert(toks[1].Target, qt.Equals, 1)
}

func TestLexEnvVarExpansion(t *testing.T) {
	c := qt.New(t)
	toks, err := Lex("echo ${HOME}")
	c.Assert(err, qt.IsNil)
	c.Assert(len(toks), qt.Equals, 2)
	comps := toks[1].Components
	c.Assert(len(comps), qt.Equals, 1)
	c.Assert(comps[0].IsVar(), qt.IsTrue)
	c.Assert(comps[0].Var, qt.Equals, "HOME")
}

func TestLexHomeExpansion(t *testing.T) {
	c := qt.New(t)
	toks, err := Lex("~/bin")
	c.Assert(err, qt.IsNil)
	c.Assert(len(toks), qt.Equals, 1)
	comps := toks[0].Components
	c.Assert(comps[0].IsVar(), qt.IsTrue)
	c.Assert(comps[0].Var, qt.Equals, "HOME")
}
