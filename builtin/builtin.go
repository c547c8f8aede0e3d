// Package builtin implements the job.Handler seam with the shell's own
// built-in commands: cd, echo, echo-stderr, exit, set, jobs, fg, bg.
package builtin

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/nlowe-dev/rashell/jobctl"
)

var names = map[string]bool{
	"cd":          true,
	"echo":        true,
	"echo-stderr": true,
	"exit":        true,
	"set":         true,
	"jobs":        true,
	"fg":          true,
	"bg":          true,
}

// Handler is the default job.Handler. Its jobctl.Manager cannot be set at
// construction time, since the Manager itself needs a Handler to build
// jobs against; callers construct a Handler, then a Manager, then call
// SetManager to close the loop, before running anything.
type Handler struct {
	mgr *jobctl.Manager
}

// NewHandler returns a Handler with no Manager attached yet; SetManager
// must be called before fg/bg/jobs are exercised.
func NewHandler() *Handler {
	return &Handler{}
}

// SetManager attaches the job manager that fg, bg, and jobs operate on.
func (h *Handler) SetManager(m *jobctl.Manager) {
	h.mgr = m
}

// IsBuiltin reports whether name is one of this shell's built-in commands.
func (h *Handler) IsBuiltin(name string) bool {
	return names[name]
}

// HandleBuiltin runs name with args and returns its exit code. Builtins run
// in-process with fd 0/1/2 already overlaid by the executor's fd plan, so
// they write directly to os.Stdout/os.Stderr like any other command.
func (h *Handler) HandleBuiltin(name string, args []string) int8 {
	switch name {
	case "cd":
		return h.cd(args)
	case "echo":
		fmt.Fprintln(os.Stdout, strings.Join(args, " "))
		return 0
	case "echo-stderr":
		fmt.Fprintln(os.Stderr, strings.Join(args, " "))
		return 0
	case "exit":
		code := 0
		if len(args) > 0 {
			if n, err := strconv.Atoi(args[0]); err == nil {
				code = n
			}
		}
		os.Exit(code)
		return 0 // unreachable
	case "set":
		return h.set(args)
	case "jobs":
		fmt.Fprint(os.Stdout, h.mgr.JobsListing())
		return 0
	case "fg":
		return h.fgbg(args, h.mgr.Fg)
	case "bg":
		return h.fgbg(args, h.mgr.Bg)
	default:
		return -1
	}
}

func (h *Handler) cd(args []string) int8 {
	if len(args) == 0 {
		return 1
	}
	info, err := os.Stat(args[0])
	if err != nil || !info.IsDir() {
		return 1
	}
	if err := os.Chdir(args[0]); err != nil {
		return -1
	}
	return 0
}

func (h *Handler) set(args []string) int8 {
	if len(args) < 2 {
		return -1
	}
	if err := os.Setenv(args[0], args[1]); err != nil {
		return -1
	}
	return 0
}

func (h *Handler) fgbg(args []string, op func(*int) error) int8 {
	var pid *int
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			pid = &n
		}
	}
	if err := op(pid); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		return -1
	}
	return 0
}
