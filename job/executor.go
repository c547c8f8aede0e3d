package job

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// Run starts j as the top-level job of a command line: its stdin/stdout
// are the shell's own (terminal) descriptors, subject to any redirections
// recorded on the job itself. If foreground is true and the job is an
// external command, ownership of the controlling terminal is transferred
// to its process group once started.
func (j *Job) Run(h Handler, foreground bool) error {
	return j.runWithFd(h, nil, nil, nil, foreground)
}

// RunCaptured runs j with its stdout captured to a pipe, waits for it to
// exit, and returns the captured output. Used by the builder for sub-shell
// arguments (§4.3 item 2).
func (j *Job) RunCaptured(h Handler) (string, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return "", ErrPipe
	}
	if err := j.runWithFd(h, nil, w, nil, false); err != nil {
		w.Close()
		r.Close()
		return "", err
	}
	w.Close()

	var buf bytes.Buffer
	done := make(chan error, 1)
	go func() {
		_, copyErr := io.Copy(&buf, r)
		done <- copyErr
	}()

	st, err := j.Wait(true)
	r.Close()
	<-done
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrSubshellExec, err)
	}
	if st.State != Exited {
		return "", ErrSubshellExec
	}
	return buf.String(), nil
}

// runWithFd is the internal entry point shared by Run, RunCaptured, and
// pipeline wiring. stdinFrom/stdoutTo, when non-nil, override the job's
// own fd 0/1 defaults (the terminal, for a top-level job; a sibling pipe
// end, for a pipeline member). pgid, when non-nil, is the process group
// this job's external process must join rather than lead.
func (j *Job) runWithFd(h Handler, stdinFrom, stdoutTo *os.File, pgid *int, foreground bool) error {
	if j.Status().Started {
		panic("job: cannot re-run an already-started job")
	}

	switch j.Kind {
	case KindBuiltin:
		return j.runBuiltin(h, stdinFrom, stdoutTo)
	case KindExternal:
		return j.runExternal(stdinFrom, stdoutTo, pgid, foreground)
	case KindPipeline:
		return j.runPipeline(h, stdinFrom, stdoutTo, pgid, foreground)
	default:
		return fmt.Errorf("job: unknown kind %d", j.Kind)
	}
}

func (j *Job) runBuiltin(h Handler, stdinFrom, stdoutTo *os.File) error {
	log, ok := applyFdChanges(stdinFrom, stdoutTo, j.FdOptions)
	var code int8 = -1
	if ok {
		code = h.HandleBuiltin(j.Name, j.Args)
	}
	reverseFdChanges(log)
	j.setStatus(Status{Started: true, Pid: os.Getpid(), Pgid: getpgid(), State: Exited, Code: int(code)})
	return nil
}

func (j *Job) runExternal(stdinFrom, stdoutTo *os.File, pgid *int, foreground bool) error {
	files, opened, err := resolveDescriptors(stdinFrom, stdoutTo, j.FdOptions)
	if err != nil {
		closeAll(opened)
		return err
	}
	defer closeAll(opened)

	cmd := &exec.Cmd{
		Path:   j.Path,
		Args:   append([]string{j.Path}, j.Args...),
		Stdin:  files[0],
		Stdout: files[1],
		Stderr: files[2],
		Env:    os.Environ(),
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if pgid != nil {
		cmd.SysProcAttr.Pgid = *pgid
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %s", ErrFork, err)
	}

	childPid := cmd.Process.Pid
	childPgid := childPid
	if pgid != nil {
		childPgid = *pgid
	}
	// Both parent and child race to set the child's process group; both
	// converge on the same value, so either winning is benign.
	_ = unix.Setpgid(childPid, childPgid)

	if foreground && !j.Background {
		if cur, err := unix.IoctlGetInt(0, unix.TIOCGPGRP); err == nil && cur != childPgid {
			_ = setForegroundGroup(childPgid)
		}
	}

	j.setStatus(Status{Started: true, Pid: childPid, Pgid: childPgid, State: StillAlive})
	j.cmd = cmd
	return nil
}

func (j *Job) runPipeline(h Handler, stdinFrom, stdoutTo *os.File, pgid *int, foreground bool) error {
	r, w, err := os.Pipe()
	if err != nil {
		return ErrPipe
	}

	if err := j.Left.runWithFd(h, stdinFrom, w, pgid, foreground); err != nil {
		w.Close()
		r.Close()
		return &LeftPipeError{Inner: err}
	}
	leftPgid := j.Left.topStatus().Pgid
	var rightPgid *int
	if leftPgid != 0 {
		rightPgid = &leftPgid
	}

	if err := j.Right.runWithFd(h, r, stdoutTo, rightPgid, foreground); err != nil {
		w.Close()
		r.Close()
		return &RightPipeError{Inner: err}
	}

	w.Close()
	r.Close()
	return nil
}

// Wait blocks (or polls, if block is false) on j's top-level external
// process group, updating its status. It always restores the controlling
// terminal's foreground process group to the shell's own afterward,
// matching §8's "Terminal ownership" invariant, regardless of the
// resulting wait-state.
func (j *Job) Wait(block bool) (Status, error) {
	defer restoreTerminal()
	return j.waitWithoutRestore(block)
}

func (j *Job) waitWithoutRestore(block bool) (Status, error) {
	switch j.Kind {
	case KindBuiltin:
		st := j.Status()
		if !st.Started {
			return st, ErrWait
		}
		return st, nil
	case KindExternal:
		return j.waitExternal(block)
	case KindPipeline:
		// A left stage that already settled on an earlier wait is not
		// waited on again.
		if l := j.Left.topStatus(); !l.Started || l.State.Running() {
			if _, err := j.Left.waitWithoutRestore(block); err != nil {
				return Status{}, err
			}
		}
		return j.Right.waitWithoutRestore(block)
	default:
		return Status{}, ErrWait
	}
}

func (j *Job) waitExternal(block bool) (Status, error) {
	st := j.Status()
	if !st.Started || !st.State.Running() {
		return st, ErrWait
	}
	if j.cmd == nil {
		return st, ErrWait
	}
	newSt, err := waitPgid(st.Pid, st.Pgid, block)
	if err != nil {
		return st, err
	}
	j.setStatus(newSt)
	return newSt, nil
}

func resolveDescriptors(stdinFrom, stdoutTo *os.File, opts map[int]FdOption) (files [3]*os.File, opened []*os.File, err error) {
	files[0] = os.Stdin
	files[1] = os.Stdout
	files[2] = os.Stderr
	if stdinFrom != nil {
		files[0] = stdinFrom
	}
	if stdoutTo != nil {
		files[1] = stdoutTo
	}

	// First pass: entries that open a fresh underlying file.
	var dups []struct {
		fd     int
		target int
	}
	for fd, opt := range opts {
		switch o := opt.(type) {
		case FdAppend:
			f, e := os.OpenFile(o.Path, os.O_WRONLY|os.O_CREAT|os.O_APPEND, 0o644)
			if e != nil {
				return files, opened, e
			}
			opened = append(opened, f)
			setDescriptor(&files, fd, f)
		case FdOverwrite:
			if info, statErr := os.Stat(o.Path); statErr == nil && info.Mode().IsRegular() {
				_ = os.Remove(o.Path)
			}
			f, e := os.OpenFile(o.Path, os.O_WRONLY|os.O_CREAT|os.O_TRUNC, 0o644)
			if e != nil {
				return files, opened, e
			}
			opened = append(opened, f)
			setDescriptor(&files, fd, f)
		case FdInput:
			f, e := os.OpenFile(o.Path, os.O_RDONLY, 0)
			if e != nil {
				return files, opened, e
			}
			opened = append(opened, f)
			setDescriptor(&files, fd, f)
		case FdDup:
			dups = append(dups, struct {
				fd     int
				target int
			}{fd, o.Target})
		}
	}
	// Second pass: fd dups, resolved against the now-complete descriptor set.
	for _, d := range dups {
		setDescriptor(&files, d.fd, getDescriptor(files, d.target))
	}
	return files, opened, nil
}

func setDescriptor(files *[3]*os.File, fd int, f *os.File) {
	if fd >= 0 && fd < 3 {
		files[fd] = f
	}
	// fds >= 3 are outside the scope of the shell's own redirections
	// (spec.md's builtins and externals only ever target 0/1/2).
}

func getDescriptor(files [3]*os.File, fd int) *os.File {
	if fd >= 0 && fd < 3 {
		return files[fd]
	}
	return nil
}

func closeAll(files []*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}

type fdLogEntry struct {
	fd    int
	saved int
}

func applyFdChanges(stdinFrom, stdoutTo *os.File, opts map[int]FdOption) ([]fdLogEntry, bool) {
	var log []fdLogEntry
	if stdinFrom != nil {
		if !dupOverlay(0, int(stdinFrom.Fd()), &log) {
			return log, false
		}
	}
	if stdoutTo != nil {
		if !dupOverlay(1, int(stdoutTo.Fd()), &log) {
			return log, false
		}
	}
	for fd, opt := range opts {
		switch o := opt.(type) {
		case FdDup:
			if !dupOverlay(fd, o.Target, &log) {
				return log, false
			}
		case FdAppend:
			f, err := os.OpenFile(o.Path, os.O_WRONLY|os.O_CREAT|os.O_APPEND, 0o644)
			if err != nil {
				return log, false
			}
			if !dupOverlayOwned(fd, f, &log) {
				return log, false
			}
		case FdOverwrite:
			if info, statErr := os.Stat(o.Path); statErr == nil && info.Mode().IsRegular() {
				_ = os.Remove(o.Path)
			}
			f, err := os.OpenFile(o.Path, os.O_WRONLY|os.O_CREAT|os.O_TRUNC, 0o644)
			if err != nil {
				return log, false
			}
			if !dupOverlayOwned(fd, f, &log) {
				return log, false
			}
		case FdInput:
			f, err := os.OpenFile(o.Path, os.O_RDONLY, 0)
			if err != nil {
				return log, false
			}
			if !dupOverlayOwned(fd, f, &log) {
				return log, false
			}
		}
	}
	return log, true
}

func dupOverlay(fd, newfd int, log *[]fdLogEntry) bool {
	saved, err := unix.Dup(fd)
	if err != nil {
		return false
	}
	*log = append(*log, fdLogEntry{fd: fd, saved: saved})
	if err := unix.Dup2(newfd, fd); err != nil {
		return false
	}
	return true
}

func dupOverlayOwned(fd int, f *os.File, log *[]fdLogEntry) bool {
	saved, err := unix.Dup(fd)
	if err != nil {
		f.Close()
		return false
	}
	entry := fdLogEntry{fd: fd, saved: saved}
	if err := unix.Dup2(int(f.Fd()), fd); err != nil {
		*log = append(*log, entry)
		return false
	}
	f.Close() // the dup2 target keeps the descriptor alive under fd
	*log = append(*log, entry)
	return true
}

func reverseFdChanges(log []fdLogEntry) {
	for i := len(log) - 1; i >= 0; i-- {
		e := log[i]
		_ = unix.Dup2(e.saved, e.fd)
		_ = unix.Close(e.saved)
	}
}

func getpgid() int {
	pgid, err := unix.Getpgid(os.Getpid())
	if err != nil {
		return os.Getpid()
	}
	return pgid
}
