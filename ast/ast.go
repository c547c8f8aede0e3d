// Package ast defines the expression tree produced by the parser and
// consumed by the job builder.
package ast

import "github.com/nlowe-dev/rashell/token"

// Expression is the root syntax node: either a single Command or a
// Pipeline of two expressions. Pipelines nest right-leaning by convention:
// `a | b | c` parses as Pipeline(a, Pipeline(b, c)).
type Expression interface {
	expression()
}

// Command is a single invocation: a name plus an ordered argument list.
// Invariant: Name always has exactly one component set (it is itself a
// literal, never a redirection or background marker).
type Command struct {
	Name []token.Component
	Args []Argument
}

func (*Command) expression() {}

// Pipeline connects two expressions via a pipe: the left side's stdout
// feeds the right side's stdin.
type Pipeline struct {
	Left, Right Expression
}

func (*Pipeline) expression() {}

// Argument is one element of a Command's argument list.
type Argument interface {
	argument()
}

// Literal is a plain word argument, made of literal text and/or `${VAR}`
// components to be expanded and globbed at build time.
type Literal struct {
	Components []token.Component
}

func (*Literal) argument() {}

// Redirect overwrites Fd with the contents of Path (`>`, or `N>`).
type Redirect struct {
	Fd   int
	Path []token.Component
}

func (*Redirect) argument() {}

// Append appends to Fd from Path (`>>`, or `N>>`).
type Append struct {
	Fd   int
	Path []token.Component
}

func (*Append) argument() {}

// Input reads Fd from Path (`<`, or `N<`).
type Input struct {
	Fd   int
	Path []token.Component
}

func (*Input) argument() {}

// RedirectFD duplicates the Target descriptor onto Src (`M>&N` duplicates N
// onto M).
type RedirectFD struct {
	Src, Target int
}

func (*RedirectFD) argument() {}

// Background marks the enclosing command (or, for a pipeline, its
// top-level job) to run without waiting for the terminal.
type Background struct{}

func (*Background) argument() {}

// Subshell captures the standard output of Inner, collapses whitespace runs
// to single spaces, and appends the result as a single literal argument.
type Subshell struct {
	Inner Expression
}

func (*Subshell) argument() {}
