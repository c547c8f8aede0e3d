// Package parser folds a token sequence into an ast.Expression tree.
package parser

import (
	"fmt"

	"github.com/nlowe-dev/rashell/ast"
	"github.com/nlowe-dev/rashell/token"
)

// ErrorKind classifies a parse failure.
type ErrorKind int

const (
	ExpectedCommandName ErrorKind = iota
	ExpectedPath
	PipeConstruction
	SubshellMatch
)

// Error is returned by Parse when the token sequence does not form a valid
// expression.
type Error struct {
	Kind  ErrorKind
	Pos   token.Pos
	Inner error // the nested parse error, for PipeConstruction and SubshellMatch errors raised inside a pipe side or subshell region
}

func (e *Error) Error() string {
	switch e.Kind {
	case ExpectedCommandName:
		return fmt.Sprintf("%d: expected a command name", e.Pos)
	case ExpectedPath:
		return fmt.Sprintf("%d: expected a path after redirection operator", e.Pos)
	case PipeConstruction:
		return fmt.Sprintf("%d: invalid pipeline", e.Pos)
	case SubshellMatch:
		if e.Inner != nil {
			return fmt.Sprintf("%d: unterminated subshell: %s", e.Pos, e.Inner)
		}
		return fmt.Sprintf("%d: unterminated subshell", e.Pos)
	default:
		return fmt.Sprintf("%d: parse error", e.Pos)
	}
}

func (e *Error) Unwrap() error { return e.Inner }

// Parse folds toks into a single root Expression: a Command or a Pipeline.
func Parse(toks []token.Token) (ast.Expression, error) {
	p := &parser{toks: toks}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return expr, nil
}

type parser struct {
	toks []token.Token
	pos  int
}

func (p *parser) peek() (token.Token, bool) {
	if p.pos >= len(p.toks) {
		return token.Token{}, false
	}
	return p.toks[p.pos], true
}

// findPipe returns the index, within p.toks[p.pos:end], of the first
// top-level Pipe token, skipping over any backtick-delimited subshell
// region so a pipe inside `` is never mistaken for a top-level split.
func (p *parser) findPipe(end int) int {
	inSubshell := false
	for i := p.pos; i < end; i++ {
		switch p.toks[i].Kind {
		case token.Subshell:
			inSubshell = !inSubshell
		case token.Pipe:
			if !inSubshell {
				return i
			}
		}
	}
	return -1
}

func (p *parser) parseExpr() (ast.Expression, error) {
	return p.parseExprUntil(len(p.toks))
}

func (p *parser) parseExprUntil(end int) (ast.Expression, error) {
	if i := p.findPipe(end); i >= 0 {
		left, err := p.parseSubUntil(i)
		if err != nil {
			return nil, &Error{Kind: PipeConstruction, Pos: p.toks[i].Pos, Inner: err}
		}
		// skip the pipe
		rightParser := &parser{toks: p.toks, pos: i + 1}
		right, err := rightParser.parseExprUntil(end)
		if err != nil {
			return nil, &Error{Kind: PipeConstruction, Pos: p.toks[i].Pos, Inner: err}
		}
		p.pos = end
		return &ast.Pipeline{Left: left, Right: right}, nil
	}
	return p.parseCommandUntil(end)
}

// parseSubUntil parses the token range [p.pos, end) as a sub-expression
// (recursion target for the left side of a pipe) using a fresh cursor so
// the caller's own position is unaffected.
func (p *parser) parseSubUntil(end int) (ast.Expression, error) {
	sub := &parser{toks: p.toks, pos: p.pos}
	return sub.parseExprUntil(end)
}

func (p *parser) parseCommandUntil(end int) (ast.Expression, error) {
	head, ok := p.peek()
	if !ok || head.Kind != token.StringLiteral {
		pos := token.Pos(0)
		if ok {
			pos = head.Pos
		}
		return nil, &Error{Kind: ExpectedCommandName, Pos: pos}
	}
	p.pos++

	cmd := &ast.Command{Name: head.Components}
	for p.pos < end {
		tok := p.toks[p.pos]
		switch tok.Kind {
		case token.StringLiteral:
			cmd.Args = append(cmd.Args, &ast.Literal{Components: tok.Components})
			p.pos++
		case token.Redirect:
			path, err := p.consumePath(end)
			if err != nil {
				return nil, err
			}
			cmd.Args = append(cmd.Args, &ast.Redirect{Fd: tok.Fd, Path: path})
		case token.Append:
			path, err := p.consumePath(end)
			if err != nil {
				return nil, err
			}
			cmd.Args = append(cmd.Args, &ast.Append{Fd: tok.Fd, Path: path})
		case token.Input:
			path, err := p.consumePath(end)
			if err != nil {
				return nil, err
			}
			cmd.Args = append(cmd.Args, &ast.Input{Fd: tok.Fd, Path: path})
		case token.RedirectFD:
			cmd.Args = append(cmd.Args, &ast.RedirectFD{Src: tok.Fd, Target: tok.Target})
			p.pos++
		case token.Background:
			cmd.Args = append(cmd.Args, &ast.Background{})
			p.pos++
		case token.RedirectAll:
			path, err := p.consumePath(end)
			if err != nil {
				return nil, err
			}
			cmd.Args = append(cmd.Args, &ast.Redirect{Fd: 1, Path: path}, &ast.Redirect{Fd: 2, Path: path})
		case token.AppendAll:
			path, err := p.consumePath(end)
			if err != nil {
				return nil, err
			}
			cmd.Args = append(cmd.Args, &ast.Append{Fd: 1, Path: path}, &ast.Append{Fd: 2, Path: path})
		case token.Subshell:
			inner, err := p.consumeSubshell(end)
			if err != nil {
				return nil, err
			}
			cmd.Args = append(cmd.Args, &ast.Subshell{Inner: inner})
		default:
			return nil, &Error{Kind: ExpectedPath, Pos: tok.Pos}
		}
	}
	return cmd, nil
}

// consumePath advances past the redirection operator token already
// inspected by the caller and consumes the StringLiteral that must follow
// it, returning its components.
func (p *parser) consumePath(end int) ([]token.Component, error) {
	opPos := p.toks[p.pos].Pos
	p.pos++ // skip the operator
	if p.pos >= end || p.toks[p.pos].Kind != token.StringLiteral {
		return nil, &Error{Kind: ExpectedPath, Pos: opPos}
	}
	path := p.toks[p.pos].Components
	p.pos++
	return path, nil
}

// consumeSubshell consumes tokens from just after the opening Subshell
// token up to (and including) its matching Subshell token, recursively
// parsing the enclosed tokens as a complete expression.
func (p *parser) consumeSubshell(end int) (ast.Expression, error) {
	openPos := p.toks[p.pos].Pos
	p.pos++ // skip opening token
	innerStart := p.pos
	closeIdx := -1
	for i := p.pos; i < end; i++ {
		if p.toks[i].Kind == token.Subshell {
			closeIdx = i
			break
		}
	}
	if closeIdx < 0 {
		return nil, &Error{Kind: SubshellMatch, Pos: openPos}
	}
	inner := &parser{toks: p.toks, pos: innerStart}
	expr, err := inner.parseExprUntil(closeIdx)
	if err != nil {
		return nil, &Error{Kind: SubshellMatch, Pos: openPos, Inner: err}
	}
	p.pos = closeIdx + 1
	return expr, nil
}
