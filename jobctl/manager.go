// Package jobctl owns the three job queues described in §5 of the shell's
// execution model: pending foreground jobs, running background jobs, and
// stopped jobs, plus the background reaper and the fg/bg/jobs resolution
// logic layered on top of them.
package jobctl

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nlowe-dev/rashell/ast"
	"github.com/nlowe-dev/rashell/job"
)

// Manager owns the three disjoint job queues and the logic that moves jobs
// between them. The zero value is not usable; construct with New.
type Manager struct {
	mu sync.RWMutex

	foregroundPending []*job.Job
	backgroundRunning []*job.Job
	stopped           []*job.Job

	handler job.Handler
	logger  *zap.Logger
	out     io.Writer

	reaperOnce sync.Once
}

// Option configures a Manager at construction time.
type Option func(*Manager)

// WithLogger attaches structured diagnostics for queue transitions and the
// reaper loop. Internal only: never used for the shell's own user-facing
// output, which always goes through the WithOutput writer.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithOutput overrides where the "[stopped]" and "[done]" job notices are
// printed. Defaults to os.Stdout. The "jobs" listing itself is returned by
// JobsListing and printed by its caller.
func WithOutput(w io.Writer) Option {
	return func(m *Manager) { m.out = w }
}

// New constructs a Manager bound to h for builtin classification/dispatch.
func New(h job.Handler, opts ...Option) *Manager {
	m := &Manager{
		handler: h,
		logger:  zap.NewNop(),
		out:     os.Stdout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Enqueue builds expr into a Job and classifies it per §5: a job carrying
// a trailing `&` starts immediately, without terminal ownership, and joins
// backgroundRunning directly; everything else joins foregroundPending for
// RunForeground to drive one at a time.
func (m *Manager) Enqueue(expr ast.Expression) error {
	j, err := job.Build(expr, m.handler)
	if err != nil {
		return err
	}

	if j.Background {
		if err := j.Run(m.handler, false); err != nil {
			return err
		}
		m.mu.Lock()
		m.backgroundRunning = append(m.backgroundRunning, j)
		m.mu.Unlock()
		m.logger.Debug("job started in background", zap.String("job", j.CommandText))
		return nil
	}

	m.mu.Lock()
	m.foregroundPending = append(m.foregroundPending, j)
	m.mu.Unlock()
	return nil
}

// RunForeground drains foregroundPending, running each job to completion
// (or a stop) before starting the next, transferring the controlling
// terminal to each in turn. A job that stops moves to the stopped queue;
// the shell's own terminal ownership is restored (job.Wait's defer) either
// way before this method returns control to the prompt.
//
// A job already Started when it's popped has been pushed here by Fg: it
// was already running (or just SIGCONTed from a stop) in its own process
// group, so it must not be Run again (runWithFd panics on a re-run) — only
// have the terminal transferred to it, matching run_foreground_jobs's
// Started branch in the original, which skips straight to waiting.
func (m *Manager) RunForeground() error {
queue:
	for {
		j := m.popForegroundPending()
		if j == nil {
			return nil
		}

		if j.Started() {
			if pgid := j.TopStatus().Pgid; pgid != 0 {
				_ = job.SetForegroundGroup(pgid)
			}
		} else if err := j.Run(m.handler, true); err != nil {
			return err
		}

		for {
			st, err := j.Wait(true)
			if err != nil {
				return fmt.Errorf("jobctl: %w", err)
			}
			switch st.State {
			case job.Stopped:
				m.mu.Lock()
				m.stopped = append(m.stopped, j)
				m.mu.Unlock()
				fmt.Fprintf(m.out, "\n[stopped] %s\n", j.CommandText)
				continue queue
			case job.Exited, job.Signaled:
				continue queue
			default:
				// StillAlive/Continued: loop and wait again.
			}
		}
	}
}

func (m *Manager) popForegroundPending() *job.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.foregroundPending) == 0 {
		return nil
	}
	j := m.foregroundPending[0]
	m.foregroundPending = m.foregroundPending[1:]
	return j
}

// StartBackgroundReaper launches the polling goroutine described in §5:
// every 500ms, each backgroundRunning job is polled (non-blocking); a job
// that exited or was signaled is dropped and reported, one that stopped
// moves to the stopped queue, everything else stays. It runs until ctx is
// canceled. Calling it more than once on the same Manager is a no-op.
func (m *Manager) StartBackgroundReaper(ctx context.Context) {
	m.reaperOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(500 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					m.reapOnce()
				}
			}
		}()
	})
}

func (m *Manager) reapOnce() {
	m.mu.Lock()
	running := m.backgroundRunning
	m.backgroundRunning = nil
	m.mu.Unlock()

	var stillRunning []*job.Job
	var newlyStopped []*job.Job
	for _, j := range running {
		st, err := j.Wait(false)
		if err != nil {
			m.logger.Warn("background job wait failed, dropping", zap.Error(err), zap.String("job", j.CommandText))
			continue
		}
		switch st.State {
		case job.StillAlive, job.Continued:
			stillRunning = append(stillRunning, j)
		case job.Stopped:
			newlyStopped = append(newlyStopped, j)
		default:
			fmt.Fprintf(m.out, "\n[done] %s\n", j.CommandText)
		}
	}

	m.mu.Lock()
	m.backgroundRunning = append(m.backgroundRunning, stillRunning...)
	m.stopped = append(m.stopped, newlyStopped...)
	m.mu.Unlock()

	for _, j := range newlyStopped {
		fmt.Fprintf(m.out, "\n[stopped] %s\n", j.CommandText)
	}
}

// JobsListing renders the "jobs" builtin's output: background jobs then
// stopped jobs, each numbered from 0 within its own section, per the
// original's two-section dump. Each line reads
// `index: pid (pgid) state  command-text`.
func (m *Manager) JobsListing() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var s string
	s += "background:\n"
	for i, j := range m.backgroundRunning {
		st := j.TopStatus()
		s += fmt.Sprintf("  %d: %d (%d) %s  %s\n", i, st.Pid, st.Pgid, st.State, j.CommandText)
	}
	s += "stopped:\n"
	for i, j := range m.stopped {
		st := j.TopStatus()
		s += fmt.Sprintf("  %d: %d (%d) %s  %s\n", i, st.Pid, st.Pgid, st.State, j.CommandText)
	}
	return s
}
