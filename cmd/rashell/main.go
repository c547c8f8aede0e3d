// rashell is an interactive POSIX-flavored shell with job control:
// pipes, redirections, background jobs, and stop/continue/foreground
// resumption.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/nlowe-dev/rashell/builtin"
	"github.com/nlowe-dev/rashell/history"
	"github.com/nlowe-dev/rashell/jobctl"
	"github.com/nlowe-dev/rashell/lexer"
	"github.com/nlowe-dev/rashell/lineedit"
	"github.com/nlowe-dev/rashell/parser"
)

var (
	command = flag.String("c", "", "command to be executed")
	verbose = flag.Bool("v", false, "enable structured diagnostics on stderr")
)

func main() {
	os.Exit(main1())
}

// main1 is split out from main so tests can drive it via
// testscript.RunMain without the process actually exiting.
func main1() int {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func run() error {
	// The shell itself must never be interrupted, stopped, or backgrounded
	// by the job-control signals it hands off to foreground jobs: SIGINT
	// and SIGQUIT are for whatever currently owns the terminal, SIGTSTP
	// would otherwise stop the shell right along with a job it's waiting
	// on, and SIGTTOU is delivered to a background process group writing
	// to the terminal, which the shell itself becomes the moment it
	// transfers ownership away.
	signal.Ignore(syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTSTP, syscall.SIGTTOU)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	logger := zap.NewNop()
	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("rashell: logger: %w", err)
		}
		logger = l
		defer logger.Sync()
	}

	handler := builtin.NewHandler()
	mgr := jobctl.New(handler, jobctl.WithLogger(logger))
	handler.SetManager(mgr)
	mgr.StartBackgroundReaper(ctx)

	histPath := filepath.Join(historyDir(), "rashell_history.db")
	hist, err := history.Open(histPath)
	if err != nil {
		logger.Warn("history unavailable", zap.Error(err))
	} else {
		defer hist.Close()
	}

	if *command != "" {
		return runLine(mgr, hist, *command)
	}

	if term.IsTerminal(int(os.Stdin.Fd())) {
		return runInteractive(mgr, hist)
	}
	return runScript(mgr, hist, os.Stdin)
}

func runInteractive(mgr *jobctl.Manager, hist *history.Store) error {
	editor, err := lineedit.New(lineedit.Config{
		Prompt:      "$ ",
		HistoryFile: filepath.Join(historyDir(), "rashell_readline_history"),
	}, lineedit.PathCompleter{})
	if err != nil {
		return fmt.Errorf("rashell: line editor: %w", err)
	}
	defer editor.Close()

	for {
		line, err := editor.Readline()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			continue
		}
		if line == "" {
			continue
		}
		if hist != nil {
			if err := hist.Record(line); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
		}
		if err := runLine(mgr, hist, line); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

func runScript(mgr *jobctl.Manager, hist *history.Store, r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		if err := runLine(mgr, hist, line); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
	return sc.Err()
}

func runLine(mgr *jobctl.Manager, hist *history.Store, line string) error {
	toks, err := lexer.Lex(line)
	if err != nil {
		return fmt.Errorf("rashell: %w", err)
	}
	if len(toks) == 0 {
		return nil
	}
	expr, err := parser.Parse(toks)
	if err != nil {
		return fmt.Errorf("rashell: %w", err)
	}
	if err := mgr.Enqueue(expr); err != nil {
		return fmt.Errorf("rashell: %w", err)
	}
	return mgr.RunForeground()
}

func historyDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}
