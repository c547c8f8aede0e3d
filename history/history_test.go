package history

import (
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestRecordAndAll(t *testing.T) {
	c := qt.New(t)
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	c.Assert(err, qt.IsNil)
	defer s.Close()

	c.Assert(s.Record("echo one"), qt.IsNil)
	c.Assert(s.Record("echo two"), qt.IsNil)

	entries, err := s.All()
	c.Assert(err, qt.IsNil)
	c.Assert(len(entries), qt.Equals, 2)
	c.Assert(entries[0].Command, qt.Equals, "echo one")
	c.Assert(entries[1].Command, qt.Equals, "echo two")
}

func TestRecentOrdersNewestFirstThenReversed(t *testing.T) {
	c := qt.New(t)
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	c.Assert(err, qt.IsNil)
	defer s.Close()

	for _, cmd := range []string{"a", "b", "c"} {
		c.Assert(s.Record(cmd), qt.IsNil)
	}

	entries, err := s.Recent(2)
	c.Assert(err, qt.IsNil)
	c.Assert(len(entries), qt.Equals, 2)
	c.Assert(entries[0].Command, qt.Equals, "b")
	c.Assert(entries[1].Command, qt.Equals, "c")
}

func TestOpenCreatesSchemaIdempotently(t *testing.T) {
	c := qt.New(t)
	path := filepath.Join(t.TempDir(), "history.db")

	s1, err := Open(path)
	c.Assert(err, qt.IsNil)
	c.Assert(s1.Record("first"), qt.IsNil)
	c.Assert(s1.Close(), qt.IsNil)

	s2, err := Open(path)
	c.Assert(err, qt.IsNil)
	defer s2.Close()

	entries, err := s2.All()
	c.Assert(err, qt.IsNil)
	c.Assert(len(entries), qt.Equals, 1)
	c.Assert(entries[0].Command, qt.Equals, "first")
}
