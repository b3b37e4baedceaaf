package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"gopkg.in/urfave/cli.v1"

	"lox-lang/internal/engine"
	"lox-lang/internal/lexer"
	"lox-lang/internal/runtime"
	"lox-lang/internal/token"
)

// session holds REPL state between lines. Globals live in the engine's
// interpreter, so they survive errors in later entries.
type session struct {
	eng    *engine.Engine
	stderr io.Writer

	pending    strings.Builder
	braceDepth int
}

func newSession(eng *engine.Engine, stderr io.Writer) *session {
	return &session{eng: eng, stderr: stderr}
}

// continuing reports whether a multi-line entry is being accumulated.
func (s *session) continuing() bool {
	return s.braceDepth > 0
}

// cancel drops any pending multi-line entry.
func (s *session) cancel() {
	s.pending.Reset()
	s.braceDepth = 0
}

// feed adds one line of input. It returns false when the user asked to quit.
func (s *session) feed(line string) bool {
	if !s.continuing() && strings.TrimSpace(line) == "exit" {
		return false
	}

	s.pending.WriteString(line)
	s.pending.WriteString("\n")
	s.braceDepth = openBraces(s.pending.String())
	if s.braceDepth > 0 {
		return true
	}

	source := s.pending.String()
	s.cancel()
	if strings.TrimSpace(source) == "" {
		return true
	}
	s.eval(source)
	return true
}

// openBraces counts '{' tokens not yet closed. Braces inside strings and
// comments are not tokens, so they do not count.
func openBraces(source string) int {
	tokens, _ := lexer.New(source, "<repl>").Tokenize()
	depth := 0
	for _, tok := range tokens {
		switch tok.Kind {
		case token.LBRACE:
			depth++
		case token.RBRACE:
			depth--
		}
	}
	return depth
}

// eval runs one complete entry. Errors are reported and never end the session.
func (s *session) eval(source string) {
	warnings, err := s.eng.Run(source)
	printDiags(s.stderr, warnings)
	if err == nil {
		return
	}
	var diagErr *engine.DiagnosticsError
	var rtErr *runtime.RuntimeError
	switch {
	case errors.As(err, &diagErr):
		printDiags(s.stderr, diagErr.Diagnostics)
	case errors.As(err, &rtErr):
		printRuntimeError(s.stderr, rtErr)
	default:
		errorColor.Fprintln(s.stderr, "error:", err)
	}
}

// ---- repl command ----

func startRepl(ctx *cli.Context) error {
	cfg, err := settings(ctx)
	if err != nil {
		return err
	}
	historyFile := cfg.HistoryFile
	if historyFile == "" {
		if home, err := os.UserHomeDir(); err == nil {
			historyFile = filepath.Join(home, ".lox_history")
		}
	}

	prompt := promptColor.Sprint(cfg.Prompt)
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            prompt,
		HistoryFile:       historyFile,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("readline init failed: %w", err)
	}
	defer rl.Close()

	eng, err := newEngine(rl.Stdout(), cfg, "<repl>")
	if err != nil {
		return err
	}
	s := newSession(eng, rl.Stderr())

	fmt.Fprintln(rl.Stdout(), hintColor.Sprint("Lox REPL (type 'exit' or Ctrl+D to quit)"))
	for {
		if s.continuing() {
			rl.SetPrompt(hintColor.Sprint("...   "))
		} else {
			rl.SetPrompt(prompt)
		}

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if s.continuing() {
					s.cancel()
					continue
				}
				fmt.Fprintln(rl.Stdout(), hintColor.Sprint("(use 'exit' or Ctrl+D to quit)"))
				continue
			}
			// EOF (Ctrl+D) or other error ends the session
			if err == io.EOF {
				fmt.Fprintln(rl.Stdout())
			}
			return nil
		}
		if !s.feed(line) {
			return nil
		}
	}
}
