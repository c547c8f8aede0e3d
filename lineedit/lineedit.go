// Package lineedit wraps chzyer/readline with the shell's history and
// completion seams, per §6.
package lineedit

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chzyer/readline"
)

// Completer proposes completions for the word ending at the cursor. line is
// the full input line and pos the cursor offset; implementations return the
// list of suffixes readline should offer to append.
type Completer interface {
	Complete(line string, pos int) (suffixes []string)
}

// RankFunc scores a candidate completion against the word being completed;
// higher is a better match. A Completer may use one to order its results
// before returning them. No ranking implementation ships with rashell: the
// path completer below returns lexical order, and a fuzzy ranker is left as
// a seam for a caller to supply.
type RankFunc func(candidate, partial string) int

// PathCompleter completes the last whitespace-delimited word of the line
// against file names in its directory.
type PathCompleter struct {
	Rank RankFunc
}

// Complete implements Completer by listing the directory containing the
// word being completed and returning entries whose name starts with its
// basename, as path-relative suffixes.
func (c PathCompleter) Complete(line string, pos int) []string {
	word := lastWord(line[:pos])
	dir, prefix := filepath.Split(word)
	searchDir := dir
	if searchDir == "" {
		searchDir = "."
	}

	entries, err := os.ReadDir(searchDir)
	if err != nil {
		return nil
	}

	var matches []string
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		suffix := strings.TrimPrefix(name, prefix)
		if e.IsDir() {
			suffix += string(os.PathSeparator)
		}
		matches = append(matches, suffix)
	}

	if c.Rank != nil {
		sort.SliceStable(matches, func(i, j int) bool {
			return c.Rank(matches[i], prefix) > c.Rank(matches[j], prefix)
		})
	} else {
		sort.Strings(matches)
	}
	return matches
}

func lastWord(s string) string {
	idx := strings.LastIndexAny(s, " \t")
	return s[idx+1:]
}

// Editor is a thin wrapper over a readline.Instance, adapting a Completer
// to readline's AutoCompleter interface and recording accepted lines.
type Editor struct {
	inst      *readline.Instance
	completer Completer
}

// Config mirrors the subset of readline.Config the shell cares about.
type Config struct {
	Prompt          string
	HistoryFile     string
	HistoryLimit    int
	InterruptPrompt string
	EOFPrompt       string
}

// New constructs an Editor. completer may be nil, in which case no
// completions are ever offered.
func New(cfg Config, completer Completer) (*Editor, error) {
	inst, err := readline.NewEx(&readline.Config{
		Prompt:          cfg.Prompt,
		HistoryFile:     cfg.HistoryFile,
		HistoryLimit:    cfg.HistoryLimit,
		InterruptPrompt: cfg.InterruptPrompt,
		EOFPrompt:       cfg.EOFPrompt,
		AutoComplete:    completerAdapter{completer},
	})
	if err != nil {
		return nil, err
	}
	return &Editor{inst: inst, completer: completer}, nil
}

// Readline reads one line from the terminal. io.EOF is returned verbatim on
// Ctrl-D; readline.ErrInterrupt is returned verbatim on Ctrl-C, letting the
// caller decide whether to abandon the current line or exit.
func (e *Editor) Readline() (string, error) {
	return e.inst.Readline()
}

// SetPrompt updates the prompt string shown before the next Readline call.
func (e *Editor) SetPrompt(p string) {
	e.inst.SetPrompt(p)
}

// Close releases the underlying terminal instance.
func (e *Editor) Close() error {
	return e.inst.Close()
}

type completerAdapter struct {
	c Completer
}

func (a completerAdapter) Do(line []rune, pos int) (newLine [][]rune, length int) {
	if a.c == nil {
		return nil, 0
	}
	word := lastWord(string(line[:pos]))
	for _, suffix := range a.c.Complete(string(line), pos) {
		newLine = append(newLine, []rune(suffix))
	}
	return newLine, len(word)
}
