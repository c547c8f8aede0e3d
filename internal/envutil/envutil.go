// Package envutil holds small environment/path helpers shared by the
// lexer's consumers and the job builder: ${VAR} expansion, PATH search, and
// filesystem globbing.
package envutil

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/nlowe-dev/rashell/token"
)

// Join concatenates a string literal's components, substituting each
// EnvVar component with the named variable's current value (empty string
// if unset).
func Join(components []token.Component) string {
	var b strings.Builder
	for _, c := range components {
		if c.IsVar() {
			b.WriteString(os.Getenv(c.Var))
		} else {
			b.WriteString(c.Literal)
		}
	}
	return b.String()
}

// Glob expands pattern against the filesystem using POSIX glob semantics.
// It reports the matches and whether pattern was syntactically valid (a
// valid pattern that matches nothing still reports ok) — callers should
// fall back to the literal string when ok is false or len(matches) == 0.
func Glob(pattern string) (matches []string, ok bool) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, false
	}
	return matches, true
}

// LookPath resolves name to an executable regular file, following §4.3:
// if name contains a path separator or exists as a regular file on its
// own, that file is used directly; otherwise PATH is searched
// left-to-right for the first existing regular file with that basename.
func LookPath(name string) (string, bool) {
	if strings.ContainsRune(name, os.PathSeparator) {
		if isRegularFile(name) {
			return name, true
		}
		return "", false
	}
	if isRegularFile(name) {
		abs, err := filepath.Abs(name)
		if err == nil {
			return abs, true
		}
		return name, true
	}
	pathEnv, set := os.LookupEnv("PATH")
	if !set {
		return "", false
	}
	for _, dir := range filepath.SplitList(pathEnv) {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name)
		if isRegularFile(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// Home returns the current user's home directory, used for `~` expansion.
func Home() string {
	return os.Getenv("HOME")
}
