package job

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestRunCapturedExternalCommand(t *testing.T) {
	c := qt.New(t)
	if _, err := os.Stat("/bin/echo"); err != nil {
		t.Skip("/bin/echo not present")
	}

	j := &Job{Kind: KindExternal, Path: "/bin/echo", Args: []string{"hello", "world"}}
	out, err := j.RunCaptured(&fakeHandler{})
	c.Assert(err, qt.IsNil)
	c.Assert(strings.TrimSpace(out), qt.Equals, "hello world")
}

func TestRunCapturedBuiltin(t *testing.T) {
	c := qt.New(t)
	j := &Job{Kind: KindBuiltin, Name: "echo", Args: []string{"a", "b"}}

	out, err := j.RunCaptured(&echoingHandler{})
	c.Assert(err, qt.IsNil)
	c.Assert(strings.TrimSpace(out), qt.Equals, "a b")
}

func TestRunCapturedPipeline(t *testing.T) {
	c := qt.New(t)
	if _, err := os.Stat("/bin/cat"); err != nil {
		t.Skip("/bin/cat not present")
	}
	if _, err := os.Stat("/bin/echo"); err != nil {
		t.Skip("/bin/echo not present")
	}

	left := &Job{Kind: KindExternal, Path: "/bin/echo", Args: []string{"piped"}}
	right := &Job{Kind: KindExternal, Path: "/bin/cat"}
	pipe := &Job{Kind: KindPipeline, Left: left, Right: right}

	out, err := pipe.RunCaptured(&fakeHandler{})
	c.Assert(err, qt.IsNil)
	c.Assert(strings.TrimSpace(out), qt.Equals, "piped")
}

func TestRunExternalRedirectToFile(t *testing.T) {
	c := qt.New(t)
	if _, err := os.Stat("/bin/echo"); err != nil {
		t.Skip("/bin/echo not present")
	}

	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.txt")

	j := &Job{
		Kind:      KindExternal,
		Path:      "/bin/echo",
		Args:      []string{"redirected"},
		FdOptions: map[int]FdOption{1: FdOverwrite{Path: outPath}},
	}
	c.Assert(j.Run(&fakeHandler{}, false), qt.IsNil)
	_, err := j.Wait(true)
	c.Assert(err, qt.IsNil)

	data, err := os.ReadFile(outPath)
	c.Assert(err, qt.IsNil)
	c.Assert(strings.TrimSpace(string(data)), qt.Equals, "redirected")
}

// echoingHandler actually writes to stdout, unlike fakeHandler, so the
// dup2-based fd plan applied around a builtin call can be observed.
type echoingHandler struct{}

func (echoingHandler) IsBuiltin(name string) bool { return name == "echo" }
func (echoingHandler) HandleBuiltin(name string, args []string) int8 {
	if name == "echo" {
		os.Stdout.WriteString(strings.Join(args, " ") + "\n")
	}
	return 0
}
