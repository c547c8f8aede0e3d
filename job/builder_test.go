package job

import (
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/nlowe-dev/rashell/ast"
	"github.com/nlowe-dev/rashell/token"
)

type fakeHandler struct {
	builtins map[string]bool
}

func (h *fakeHandler) IsBuiltin(name string) bool { return h.builtins[name] }
func (h *fakeHandler) HandleBuiltin(name string, args []string) int8 {
	return 0
}

func lit(s string) token.Component { return token.Component{Literal: s} }

func nameComps(s string) []token.Component { return []token.Component{lit(s)} }

func TestBuildClassifiesBuiltin(t *testing.T) {
	c := qt.New(t)
	h := &fakeHandler{builtins: map[string]bool{"cd": true}}

	j, err := Build(&ast.Command{Name: nameComps("cd"), Args: []ast.Argument{
		&ast.Literal{Components: nameComps("/tmp")},
	}}, h)
	c.Assert(err, qt.IsNil)
	c.Assert(j.Kind, qt.Equals, KindBuiltin)
	c.Assert(j.Name, qt.Equals, "cd")
	c.Assert(j.Args, qt.DeepEquals, []string{"/tmp"})
}

func TestBuildResolvesExternalViaPath(t *testing.T) {
	c := qt.New(t)
	dir := t.TempDir()
	exe := filepath.Join(dir, "mytool")
	c.Assert(os.WriteFile(exe, []byte("#!/bin/sh\necho hi\n"), 0o755), qt.IsNil)

	t.Setenv("PATH", dir)
	h := &fakeHandler{builtins: map[string]bool{}}

	j, err := Build(&ast.Command{Name: nameComps("mytool")}, h)
	c.Assert(err, qt.IsNil)
	c.Assert(j.Kind, qt.Equals, KindExternal)
	c.Assert(j.Path, qt.Equals, exe)
}

func TestBuildCommandNotFound(t *testing.T) {
	c := qt.New(t)
	t.Setenv("PATH", t.TempDir())
	h := &fakeHandler{builtins: map[string]bool{}}

	_, err := Build(&ast.Command{Name: nameComps("does-not-exist-anywhere")}, h)
	c.Assert(err, qt.Not(qt.IsNil))

	var notFound *CommandNotFoundError
	c.Assert(err, qt.ErrorAs, &notFound)
}

func TestBuildRedirectionsBecomeFdOptions(t *testing.T) {
	c := qt.New(t)
	dir := t.TempDir()
	exe := filepath.Join(dir, "mytool")
	c.Assert(os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755), qt.IsNil)
	t.Setenv("PATH", dir)
	h := &fakeHandler{builtins: map[string]bool{}}

	j, err := Build(&ast.Command{
		Name: nameComps("mytool"),
		Args: []ast.Argument{
			&ast.Redirect{Fd: 1, Path: nameComps("out.txt")},
			&ast.Input{Fd: 0, Path: nameComps("in.txt")},
			&ast.RedirectFD{Src: 2, Target: 1},
			&ast.Background{},
		},
	}, h)
	c.Assert(err, qt.IsNil)
	c.Assert(j.Background, qt.IsTrue)

	redir, ok := j.FdOptions[1].(FdOverwrite)
	c.Assert(ok, qt.IsTrue)
	c.Assert(redir.Path, qt.Equals, "out.txt")

	in, ok := j.FdOptions[0].(FdInput)
	c.Assert(ok, qt.IsTrue)
	c.Assert(in.Path, qt.Equals, "in.txt")

	dup, ok := j.FdOptions[2].(FdDup)
	c.Assert(ok, qt.IsTrue)
	c.Assert(dup.Target, qt.Equals, 1)
}

func TestBuildCommandTextIncludesArgs(t *testing.T) {
	c := qt.New(t)
	h := &fakeHandler{builtins: map[string]bool{"echo": true}}

	j, err := Build(&ast.Command{Name: nameComps("echo"), Args: []ast.Argument{
		&ast.Literal{Components: nameComps("hello")},
		&ast.Literal{Components: nameComps("world")},
	}}, h)
	c.Assert(err, qt.IsNil)
	c.Assert(j.CommandText, qt.Equals, "echo hello world")
}

func TestBuildPipelineCommandTextJoinsBothSides(t *testing.T) {
	c := qt.New(t)
	h := &fakeHandler{builtins: map[string]bool{"a": true, "b": true}}

	j, err := Build(&ast.Pipeline{
		Left:  &ast.Command{Name: nameComps("a")},
		Right: &ast.Command{Name: nameComps("b"), Args: []ast.Argument{&ast.Literal{Components: nameComps("x")}}},
	}, h)
	c.Assert(err, qt.IsNil)
	c.Assert(j.CommandText, qt.Equals, "a | b x")
}

func TestBuildPipeline(t *testing.T) {
	c := qt.New(t)
	dir := t.TempDir()
	for _, name := range []string{"a", "b"} {
		c.Assert(os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"), 0o755), qt.IsNil)
	}
	t.Setenv("PATH", dir)
	h := &fakeHandler{builtins: map[string]bool{}}

	j, err := Build(&ast.Pipeline{
		Left:  &ast.Command{Name: nameComps("a")},
		Right: &ast.Command{Name: nameComps("b")},
	}, h)
	c.Assert(err, qt.IsNil)
	c.Assert(j.Kind, qt.Equals, KindPipeline)
	c.Assert(j.Left.Path, qt.Equals, filepath.Join(dir, "a"))
	c.Assert(j.Right.Path, qt.Equals, filepath.Join(dir, "b"))
}

func TestBuildGlobExpansion(t *testing.T) {
	c := qt.New(t)
	dir := t.TempDir()
	for _, name := range []string{"one.txt", "two.txt"} {
		c.Assert(os.WriteFile(filepath.Join(dir, name), nil, 0o644), qt.IsNil)
	}
	exe := filepath.Join(dir, "mytool")
	c.Assert(os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755), qt.IsNil)
	t.Setenv("PATH", dir)
	h := &fakeHandler{builtins: map[string]bool{}}

	j, err := Build(&ast.Command{
		Name: nameComps("mytool"),
		Args: []ast.Argument{
			&ast.Literal{Components: nameComps(filepath.Join(dir, "*.txt"))},
		},
	}, h)
	c.Assert(err, qt.IsNil)
	c.Assert(len(j.Args), qt.Equals, 2)
}
