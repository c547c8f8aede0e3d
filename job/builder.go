package job

import (
	"fmt"
	"os"
	"strings"

	"github.com/nlowe-dev/rashell/ast"
	"github.com/nlowe-dev/rashell/internal/envutil"
)

// Build walks expr and produces a ready-to-run Job tree, resolving
// executables against PATH, expanding globs, running sub-shells to capture
// their output, and classifying each node as Builtin/External/Pipeline.
func Build(expr ast.Expression, h Handler) (*Job, error) {
	switch e := expr.(type) {
	case *ast.Command:
		return buildCommand(e, h)
	case *ast.Pipeline:
		return buildPipeline(e, h)
	default:
		return nil, fmt.Errorf("job: unknown expression type %T", expr)
	}
}

func buildPipeline(e *ast.Pipeline, h Handler) (*Job, error) {
	left, err := Build(e.Left, h)
	if err != nil {
		return nil, &LeftPipeError{Inner: err}
	}
	right, err := Build(e.Right, h)
	if err != nil {
		return nil, &RightPipeError{Inner: err}
	}
	return &Job{
		ID:          NewUUID(),
		Kind:        KindPipeline,
		Left:        left,
		Right:       right,
		Background:  left.Background || right.Background,
		CommandText: left.CommandText + " | " + right.CommandText,
	}, nil
}

func buildCommand(e *ast.Command, h Handler) (*Job, error) {
	fdOptions := make(map[int]FdOption)
	background := false
	var args []string

	for _, arg := range e.Args {
		switch a := arg.(type) {
		case *ast.Redirect:
			fdOptions[a.Fd] = FdOverwrite{Path: envutil.Join(a.Path)}
		case *ast.Append:
			fdOptions[a.Fd] = FdAppend{Path: envutil.Join(a.Path)}
		case *ast.Input:
			fdOptions[a.Fd] = FdInput{Path: envutil.Join(a.Path)}
		case *ast.RedirectFD:
			fdOptions[a.Src] = FdDup{Target: a.Target}
		case *ast.Background:
			background = true
		case *ast.Subshell:
			out, err := buildAndCaptureSubshell(a.Inner, h)
			if err != nil {
				return nil, &SubshellError{Inner: err}
			}
			args = append(args, collapseWhitespace(out))
		case *ast.Literal:
			joined := envutil.Join(a.Components)
			if matches, ok := envutil.Glob(joined); ok && len(matches) > 0 {
				args = append(args, matches...)
			} else {
				args = append(args, joined)
			}
		default:
			return nil, fmt.Errorf("job: unknown argument type %T", arg)
		}
	}

	name := envutil.Join(e.Name)
	commandText := commandTextOf(name, args)
	if h != nil && h.IsBuiltin(name) {
		return &Job{
			ID:          NewUUID(),
			Kind:        KindBuiltin,
			Name:        name,
			Args:        args,
			FdOptions:   fdOptions,
			Background:  background,
			CommandText: commandText,
		}, nil
	}

	path, ok := envutil.LookPath(name)
	if !ok {
		if _, set := os.LookupEnv("PATH"); !set {
			return nil, ErrCorruptPath
		}
		return nil, &CommandNotFoundError{Name: name}
	}
	return &Job{
		ID:          NewUUID(),
		Kind:        KindExternal,
		Path:        path,
		Args:        args,
		FdOptions:   fdOptions,
		Background:  background,
		CommandText: commandText,
	}, nil
}

// commandTextOf renders the `jobs`/`[stopped]`/`[done]` display form of a
// command: its name followed by its arguments, space-joined. Redirection
// and background-marker arguments are folded into fdOptions/background
// before this is called, so args here only ever holds literal/subshell
// words, already expanded (variables substituted, globs matched, sub-shell
// output captured).
func commandTextOf(name string, args []string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}

// buildAndCaptureSubshell builds the inner expression and runs it with
// stdout captured, per §4.3 item 2.
func buildAndCaptureSubshell(expr ast.Expression, h Handler) (string, error) {
	inner, err := Build(expr, h)
	if err != nil {
		return "", err
	}
	return inner.RunCaptured(h)
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
