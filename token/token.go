// Package token defines the token kinds produced by the lexer and consumed
// by the parser.
package token

import "fmt"

// Kind identifies the syntactic category of a Token.
type Kind int

const (
	// Illegal marks a token the lexer could not classify.
	Illegal Kind = iota

	// StringLiteral is a bare or double-quoted word, possibly containing
	// environment-variable expansions.
	StringLiteral

	// Pipe is the `|` operator.
	Pipe

	// Redirect is `>` (or `N>`), overwriting fd N (default 1).
	Redirect
	// Append is `>>` (or `N>>`), appending to fd N (default 1).
	Append
	// Input is `<` (or `N<`), reading fd N (default 1) from a file.
	Input
	// RedirectFD is `>&N` (or `M>&N`), duplicating fd N onto fd M.
	RedirectFD
	// RedirectAll is `&>`, overwriting both fd 1 and fd 2.
	RedirectAll
	// AppendAll is `&>>`, appending to both fd 1 and fd 2.
	AppendAll

	// Background is the trailing `&` operator.
	Background

	// Subshell delimits a backtick-quoted sub-shell region; it is used as
	// both the opening and the matching closing token.
	Subshell
)

func (k Kind) String() string {
	switch k {
	case Illegal:
		return "illegal"
	case StringLiteral:
		return "string"
	case Pipe:
		return "|"
	case Redirect:
		return ">"
	case Append:
		return ">>"
	case Input:
		return "<"
	case RedirectFD:
		return ">&"
	case RedirectAll:
		return "&>"
	case AppendAll:
		return "&>>"
	case Background:
		return "&"
	case Subshell:
		return "`"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Component is one piece of a string literal: either literal text or a
// `${VAR}`/`~` environment-variable reference, expanded lazily at job-build
// time so that tokens remain pure data.
type Component struct {
	// Literal text. Set when Var == "".
	Literal string
	// Var holds the environment variable name for an EnvVar component, or
	// "" for a plain Literal component.
	Var string
}

// IsVar reports whether c is an environment-variable reference.
func (c Component) IsVar() bool { return c.Var != "" }

// Pos is a 1-based rune (character) offset into the lexed line, used for
// error reporting.
type Pos int

// Token is one lexical unit produced by the lexer.
type Token struct {
	Kind Kind
	Pos  Pos

	// Components holds the string-literal pieces for Kind == StringLiteral.
	Components []Component

	// Fd is the explicit or defaulted file descriptor for Redirect, Append,
	// Input and RedirectFD tokens.
	Fd int
	// Target is the destination descriptor for RedirectFD tokens (`>&N`).
	Target int
}

func (t Token) String() string {
	if t.Kind == StringLiteral {
		return fmt.Sprintf("%s(%q)", t.Kind, joinLiteral(t.Components))
	}
	return t.Kind.String()
}

func joinLiteral(cs []Component) string {
	s := ""
	for _, c := range cs {
		if c.IsVar() {
			s += "${" + c.Var + "}"
		} else {
			s += c.Literal
		}
	}
	return s
}
