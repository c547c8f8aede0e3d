// Package job turns a parsed ast.Expression into a tree of runnable
// processes and drives their execution: forking/exec'ing, wiring pipes and
// redirections, assigning process groups, and tracking wait-state.
package job

import (
	"fmt"
	"os/exec"
	"sync"

	"github.com/google/uuid"
)

// FdOption is the destination for one file descriptor at exec time.
type FdOption interface {
	fdOption()
}

// FdAppend opens Path for appending (O_WRONLY|O_CREAT|O_APPEND).
type FdAppend struct{ Path string }

func (FdAppend) fdOption() {}

// FdOverwrite truncates (pre-unlinking, per the original shell's
// semantics) and opens Path for writing (O_WRONLY|O_CREAT|O_TRUNC).
type FdOverwrite struct{ Path string }

func (FdOverwrite) fdOption() {}

// FdInput opens Path read-only (O_RDONLY).
type FdInput struct{ Path string }

func (FdInput) fdOption() {}

// FdDup duplicates descriptor Target onto the affected descriptor.
type FdDup struct{ Target int }

func (FdDup) fdOption() {}

// Kind distinguishes the three Configuration variants of a Job.
type Kind int

const (
	KindExternal Kind = iota
	KindBuiltin
	KindPipeline
)

// WaitState mirrors the POSIX wait-status classification of §3.
type WaitState int

const (
	StillAlive WaitState = iota
	Stopped
	Continued
	Exited
	Signaled
	PtraceEvent
)

func (w WaitState) String() string {
	switch w {
	case StillAlive:
		return "running"
	case Stopped:
		return "stopped"
	case Continued:
		return "continued"
	case Exited:
		return "exited"
	case Signaled:
		return "signaled"
	case PtraceEvent:
		return "ptrace"
	default:
		return "unknown"
	}
}

// Running reports whether w represents a job that has not yet settled into
// a terminal state.
func (w WaitState) Running() bool {
	return w == StillAlive || w == Stopped || w == Continued
}

// Status is a job's current wait-state snapshot. The zero Status (Started
// == false) is the not-yet-started initial state of every Job.
type Status struct {
	Started bool
	Pid     int
	Pgid    int
	State   WaitState
	Code    int // exit code (State == Exited) or signal number (Signaled, Stopped)
}

// Job is one node of the execution tree built by Build from an
// ast.Expression: a single external command, a builtin, or a pipeline of
// two sub-jobs.
type Job struct {
	ID uuid.UUID

	Kind Kind

	// External
	Path string
	Args []string

	// Builtin
	Name string

	// Pipeline
	Left, Right *Job

	FdOptions map[int]FdOption

	// Background is set from a trailing `&` argument; it only has effect on
	// the top-level Job of an expression.
	Background bool

	// CommandText is the command name and its expanded arguments (for a
	// pipeline, both sides joined by " | "), kept for `jobs` display.
	CommandText string

	mu     sync.RWMutex
	status Status

	// cmd is the live *exec.Cmd backing a KindExternal job once started; nil
	// before Run and for KindBuiltin/KindPipeline jobs.
	cmd *exec.Cmd
}

// NewUUID is a package-level indirection so tests can substitute a
// deterministic generator; production code always uses a random v4 UUID.
var NewUUID = uuid.New

// Status returns a copy of the job's current status, safe for concurrent
// use with the goroutine that owns the job's queue.
func (j *Job) Status() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.status
}

func (j *Job) setStatus(s Status) {
	j.mu.Lock()
	j.status = s
	j.mu.Unlock()
}

// topStatus returns the status that represents the whole job as seen by
// the job manager: for a pipeline, that is the right child's status,
// matching §4.4's "the pipeline's composite status is the right child's
// status".
func (j *Job) topStatus() Status {
	if j.Kind == KindPipeline {
		return j.Right.topStatus()
	}
	return j.Status()
}

// TopStatus is the exported form of topStatus, used by jobctl.
func (j *Job) TopStatus() Status { return j.topStatus() }

// Started reports whether j has already been handed to Run once, following
// the same "right child represents the whole" convention as topStatus: a
// pipeline is Started once its rightmost stage is, since that is the stage
// runPipeline starts last. Used by jobctl to distinguish a fresh job, which
// RunForeground must Run, from one resumed via fg after a stop, which must
// not be re-Run.
func (j *Job) Started() bool {
	if j.Kind == KindPipeline {
		return j.Right.Started()
	}
	return j.Status().Started
}

func (j *Job) String() string {
	st := j.topStatus()
	switch j.Kind {
	case KindPipeline:
		return fmt.Sprintf("%s | %s", j.Left, j.Right)
	case KindBuiltin:
		return fmt.Sprintf("%s(builtin) [pid %d state %s]", j.Name, st.Pid, st.State)
	default:
		return fmt.Sprintf("%s [pid %d pgid %d state %s]", j.Path, st.Pid, st.Pgid, st.State)
	}
}
