package job

import (
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
)

// ttyFd is the descriptor job control issues TIOCSPGRP/TIOCGPGRP ioctls
// against: the shell's controlling terminal, which is always its own
// stdin in an interactive session (§8).
const ttyFd = 0

var shellPgid = getpgid()

// SetForegroundGroup transfers the controlling terminal to pgid, matching
// the original's restore_term_group dance: SIGTTOU/SIGTTIN are ignored for
// the duration of the tcsetpgrp call, since the shell is itself still a
// member of its own (background, once it has handed off once) process
// group and would otherwise stop itself delivering the very ioctl meant to
// hand ownership over. main.go installs a permanent ignore for SIGTTOU at
// startup; SIGTTIN is not ignored there. The ignore here is not undone
// after the ioctl, so once this has run both signals stay ignored, and
// this function is correct even called on its own. Exported so jobctl can
// transfer ownership when resuming an already-started job without going
// through Run again.
func SetForegroundGroup(pgid int) error {
	return setForegroundGroup(pgid)
}

func setForegroundGroup(pgid int) error {
	signal.Ignore(syscall.SIGTTOU, syscall.SIGTTIN)
	err := unix.IoctlSetPointerInt(ttyFd, unix.TIOCSPGRP, pgid)
	signal.Ignore(syscall.SIGTTOU, syscall.SIGTTIN)
	return err
}

// restoreTerminal hands the controlling terminal back to the shell's own
// process group. Called unconditionally after every Wait, regardless of
// the job's resulting wait-state (§8 "Terminal ownership").
func restoreTerminal() {
	_ = setForegroundGroup(shellPgid)
}

// waitPgid waits for job process pid (whose reported group is pgid) to
// change state. If block is false, WNOHANG is added and a StillAlive
// status with the original pid/pgid is returned when nothing has changed
// yet.
func waitPgid(pid, pgid int, block bool) (Status, error) {
	var ws unix.WaitStatus
	flags := unix.WUNTRACED
	if !block {
		flags |= unix.WNOHANG
	}

	rpid, err := unix.Wait4(pid, &ws, flags, nil)
	if err != nil {
		if err == unix.EINTR {
			return waitPgid(pid, pgid, block)
		}
		return Status{}, ErrWait
	}
	if rpid == 0 {
		// WNOHANG and nothing to report yet.
		return Status{Started: true, Pid: pid, Pgid: pgid, State: StillAlive}, nil
	}

	switch {
	case ws.Exited():
		return Status{Started: true, Pid: pid, Pgid: pgid, State: Exited, Code: ws.ExitStatus()}, nil
	case ws.Signaled():
		return Status{Started: true, Pid: pid, Pgid: pgid, State: Signaled, Code: int(ws.Signal())}, nil
	case ws.Stopped():
		return Status{Started: true, Pid: pid, Pgid: pgid, State: Stopped, Code: int(ws.StopSignal())}, nil
	case ws.Continued():
		return Status{Started: true, Pid: pid, Pgid: pgid, State: Continued}, nil
	default:
		return Status{Started: true, Pid: pid, Pgid: pgid, State: StillAlive}, nil
	}
}

// signalGroup delivers sig to every process in pgid. (jobctl's Fg/Bg send
// their SIGCONT with unix.Kill directly.)
func signalGroup(pgid int, sig unix.Signal) error {
	return unix.Kill(-pgid, sig)
}
