package jobctl

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/nlowe-dev/rashell/job"
)

// Fg resumes a job in the foreground. pid selects which job by its
// top-level pid; a nil pid falls back to the bare-fg resolution order from
// §5/Open Question (a): the highest-pid stopped job and the highest-pid
// backgroundRunning job are compared, and whichever has the larger pid is
// chosen (either queue alone is used when the other is empty). A job found
// in stopped is SIGCONTed; one found only in backgroundRunning already is
// running and just needs the terminal transferred. Either way it moves
// into foregroundPending for the next RunForeground call to drive.
func (m *Manager) Fg(pid *int) error {
	m.mu.Lock()
	target, idx, queue := m.findByPid(pid, true)
	if target == nil {
		m.mu.Unlock()
		return fmt.Errorf("jobctl: no such job")
	}
	removeAt(queue, idx)
	m.foregroundPending = append([]*job.Job{target}, m.foregroundPending...)
	m.mu.Unlock()

	if target.TopStatus().State == job.Stopped {
		if err := unix.Kill(-target.TopStatus().Pgid, unix.SIGCONT); err != nil {
			return fmt.Errorf("jobctl: continue job: %w", err)
		}
	}
	return nil
}

// Bg resumes a job in the background. Unlike Fg, it only ever looks at the
// stopped queue: a job that's merely running in the background is already
// doing what "bg" would ask of it, and the original treats asking to
// background a job that was never stopped as an error.
func (m *Manager) Bg(pid *int) error {
	m.mu.Lock()
	target, idx, queue := m.findByPid(pid, false)
	if target == nil {
		m.mu.Unlock()
		return fmt.Errorf("jobctl: job has not stopped")
	}
	removeAt(queue, idx)
	m.backgroundRunning = append(m.backgroundRunning, target)
	m.mu.Unlock()

	if err := unix.Kill(-target.TopStatus().Pgid, unix.SIGCONT); err != nil {
		return fmt.Errorf("jobctl: continue job: %w", err)
	}
	return nil
}

// findByPid must be called with m.mu held for writing. allowBackground
// controls whether a backgroundRunning match is considered (true for fg,
// false for bg). When pid is nil, it resolves the implicit "current job":
// for bg, the highest-pid entry in stopped; for fg, the higher of the
// highest-pid entries in stopped and backgroundRunning.
func (m *Manager) findByPid(pid *int, allowBackground bool) (*job.Job, int, *[]*job.Job) {
	if pid != nil {
		if j, idx := findInQueue(m.stopped, *pid); j != nil {
			return j, idx, &m.stopped
		}
		if allowBackground {
			if j, idx := findInQueue(m.backgroundRunning, *pid); j != nil {
				return j, idx, &m.backgroundRunning
			}
		}
		return nil, -1, nil
	}

	stoppedMax, stoppedIdx := maxPid(m.stopped)
	if !allowBackground {
		if stoppedIdx < 0 {
			return nil, -1, nil
		}
		return m.stopped[stoppedIdx], stoppedIdx, &m.stopped
	}

	bgMax, bgIdx := maxPid(m.backgroundRunning)
	switch {
	case stoppedIdx < 0 && bgIdx < 0:
		return nil, -1, nil
	case stoppedIdx < 0:
		return m.backgroundRunning[bgIdx], bgIdx, &m.backgroundRunning
	case bgIdx < 0:
		return m.stopped[stoppedIdx], stoppedIdx, &m.stopped
	case stoppedMax > bgMax:
		return m.stopped[stoppedIdx], stoppedIdx, &m.stopped
	default:
		return m.backgroundRunning[bgIdx], bgIdx, &m.backgroundRunning
	}
}

func findInQueue(q []*job.Job, pid int) (*job.Job, int) {
	for i, j := range q {
		if j.TopStatus().Pid == pid {
			return j, i
		}
	}
	return nil, -1
}

func maxPid(q []*job.Job) (int, int) {
	best, bestIdx := -1, -1
	for i, j := range q {
		if p := j.TopStatus().Pid; p > best {
			best, bestIdx = p, i
		}
	}
	return best, bestIdx
}

func removeAt(q *[]*job.Job, idx int) {
	*q = append((*q)[:idx], (*q)[idx+1:]...)
}
