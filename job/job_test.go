package job

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestTopStatusPipelineIsRightChild(t *testing.T) {
	c := qt.New(t)

	left := &Job{Kind: KindExternal}
	left.setStatus(Status{Started: true, Pid: 1, State: Exited, Code: 0})

	right := &Job{Kind: KindExternal}
	right.setStatus(Status{Started: true, Pid: 2, State: Exited, Code: 7})

	pipe := &Job{Kind: KindPipeline, Left: left, Right: right}

	c.Assert(pipe.TopStatus().Pid, qt.Equals, 2)
	c.Assert(pipe.TopStatus().Code, qt.Equals, 7)
}

func TestTopStatusNestedPipeline(t *testing.T) {
	c := qt.New(t)

	a := &Job{Kind: KindExternal}
	b := &Job{Kind: KindExternal}
	cc := &Job{Kind: KindExternal}
	cc.setStatus(Status{Started: true, Pid: 3, State: Exited})

	inner := &Job{Kind: KindPipeline, Left: b, Right: cc}
	outer := &Job{Kind: KindPipeline, Left: a, Right: inner}

	c.Assert(outer.TopStatus().Pid, qt.Equals, 3)
}

func TestStatusRoundTrip(t *testing.T) {
	c := qt.New(t)

	j := &Job{Kind: KindBuiltin, Name: "echo"}
	c.Assert(j.Status().Started, qt.IsFalse)

	j.setStatus(Status{Started: true, Pid: 42, State: Exited, Code: 0})
	c.Assert(j.Status().Started, qt.IsTrue)
	c.Assert(j.Status().Pid, qt.Equals, 42)
}

func TestStartedFollowsRightChildForPipeline(t *testing.T) {
	c := qt.New(t)

	left := &Job{Kind: KindExternal}
	right := &Job{Kind: KindExternal}
	pipe := &Job{Kind: KindPipeline, Left: left, Right: right}

	c.Assert(pipe.Started(), qt.IsFalse)

	right.setStatus(Status{Started: true, Pid: 2, State: StillAlive})
	c.Assert(pipe.Started(), qt.IsTrue)
}

func TestWaitStateRunning(t *testing.T) {
	c := qt.New(t)
	c.Assert(StillAlive.Running(), qt.IsTrue)
	c.Assert(Stopped.Running(), qt.IsTrue)
	c.Assert(Continued.Running(), qt.IsTrue)
	c.Assert(Exited.Running(), qt.IsFalse)
	c.Assert(Signaled.Running(), qt.IsFalse)
}
