package job

import (
	"errors"
	"fmt"
)

// Sentinel leaf errors, wrapped with context via fmt.Errorf("...: %w", ...)
// at the point of use, mirroring the teacher's ExitStatus/ParseError idiom.
var (
	ErrFork           = errors.New("fork failed")
	ErrStringEncoding = errors.New("argument contains a NUL byte")
	ErrSubshellExec   = errors.New("subshell did not exit cleanly")
	ErrCorruptPath    = errors.New("PATH is not set")
	ErrPipe           = errors.New("pipe setup failed")
	ErrWait           = errors.New("wait failed")
)

// CommandNotFoundError is returned by Build when a command name resolves
// to neither a builtin nor an executable on PATH.
type CommandNotFoundError struct {
	Name string
}

func (e *CommandNotFoundError) Error() string {
	return fmt.Sprintf("command not found: %s", e.Name)
}

// SubshellError wraps the error produced while building or running a
// sub-shell capture.
type SubshellError struct {
	Inner error
}

func (e *SubshellError) Error() string { return fmt.Sprintf("subshell: %s", e.Inner) }
func (e *SubshellError) Unwrap() error { return e.Inner }

// LeftPipeError wraps a build or run error on the left side of a pipeline.
type LeftPipeError struct {
	Inner error
}

func (e *LeftPipeError) Error() string { return fmt.Sprintf("left side of pipe: %s", e.Inner) }
func (e *LeftPipeError) Unwrap() error { return e.Inner }

// RightPipeError wraps a build or run error on the right side of a
// pipeline.
type RightPipeError struct {
	Inner error
}

func (e *RightPipeError) Error() string { return fmt.Sprintf("right side of pipe: %s", e.Inner) }
func (e *RightPipeError) Unwrap() error { return e.Inner }
