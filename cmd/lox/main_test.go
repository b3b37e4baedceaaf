package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/urfave/cli.v1"

	"lox-lang/internal/config"
	"lox-lang/internal/engine"
)

func init() {
	color.NoColor = true
}

func newTestSession(t *testing.T) (*session, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	eng, err := engine.New(&stdout)
	require.NoError(t, err)
	return newSession(eng, &stderr), &stdout, &stderr
}

func TestSessionKeepsGlobals(t *testing.T) {
	s, stdout, stderr := newTestSession(t)

	assert.True(t, s.feed(`var a = 1;`))
	assert.True(t, s.feed(`print undefinedHere;`))
	assert.True(t, s.feed(`print a;`))

	assert.Equal(t, "1\n", stdout.String())
	assert.Equal(t, "Undefined variable 'undefinedHere'.\n[line 1]\n", stderr.String())
}

func TestSessionMultiLine(t *testing.T) {
	s, stdout, _ := newTestSession(t)

	s.feed(`{`)
	assert.True(t, s.continuing())
	s.feed(`  var x = "inside";`)
	s.feed(`  print x;`)
	assert.Empty(t, stdout.String(), "nothing runs until braces balance")
	s.feed(`}`)
	assert.False(t, s.continuing())
	assert.Equal(t, "inside\n", stdout.String())
}

func TestSessionBraceInString(t *testing.T) {
	s, stdout, stderr := newTestSession(t)

	s.feed(`print "{";`)
	assert.False(t, s.continuing(), "a brace inside a string does not open a block")
	s.feed(`print "next"; // }`)
	assert.False(t, s.continuing())

	assert.Equal(t, "{\nnext\n", stdout.String())
	assert.Empty(t, stderr.String())
}

func TestSessionBraceInComment(t *testing.T) {
	s, stdout, _ := newTestSession(t)

	s.feed(`// {`)
	assert.False(t, s.continuing())
	s.feed(`{ // }`)
	assert.True(t, s.continuing())
	s.feed(`print "}"; }`)
	assert.False(t, s.continuing())
	assert.Equal(t, "}\n", stdout.String())
}

func TestOpenBraces(t *testing.T) {
	assert.Equal(t, 0, openBraces(`print "{{";`))
	assert.Equal(t, 2, openBraces("{ {\n"))
	assert.Equal(t, 1, openBraces("{ var a = \"}\";\n"))
	assert.Equal(t, -1, openBraces("}"))
}

func TestSessionCancel(t *testing.T) {
	s, stdout, stderr := newTestSession(t)

	s.feed(`{ print "dropped";`)
	s.cancel()
	s.feed(`print "kept";`)

	assert.Equal(t, "kept\n", stdout.String())
	assert.Empty(t, stderr.String())
}

func TestSessionDiagnosticsDoNotPoisonNextEntry(t *testing.T) {
	s, stdout, stderr := newTestSession(t)

	s.feed(`print ;`)
	assert.Equal(t, "[line 1] Error at ';': Expect expression.\n", stderr.String())
	s.feed(`print "fine";`)
	assert.Equal(t, "fine\n", stdout.String())
}

func TestSessionExit(t *testing.T) {
	s, _, _ := newTestSession(t)

	assert.True(t, s.feed(``))
	assert.False(t, s.feed(`exit`))

	s.feed(`{`)
	assert.True(t, s.feed(`exit`), "exit inside a pending block is ordinary input")
}

func TestExitStatus(t *testing.T) {
	eng, err := engine.New(&bytes.Buffer{})
	require.NoError(t, err)

	assert.Nil(t, exitStatus(nil))

	_, runErr := eng.Run(`print ;`)
	assertExitCode(t, exitDataErr, exitStatus(runErr))

	_, runErr = eng.Run(`print -"x";`)
	assertExitCode(t, exitSoftware, exitStatus(runErr))

	assertExitCode(t, exitSoftware, exitStatus(errors.New("boom")))
}

func assertExitCode(t *testing.T, want int, err error) {
	t.Helper()
	var coder cli.ExitCoder
	require.True(t, errors.As(err, &coder), "expected cli.ExitCoder, got %v", err)
	assert.Equal(t, want, coder.ExitCode())
}

func TestAppCommands(t *testing.T) {
	app := newApp()
	var names []string
	for _, c := range app.Commands {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"run", "tokens", "parse", "resolve", "repl", "dumpconfig"}, names)
	assert.Len(t, app.Flags, 4)
}

func TestPrintLocals(t *testing.T) {
	eng, err := engine.New(&bytes.Buffer{})
	require.NoError(t, err)
	prog, err := eng.Compile("{\n  var a = 1;\n  {\n    a = a + 1;\n  }\n}")
	require.NoError(t, err)

	var out bytes.Buffer
	printLocals(&out, prog.Locals)
	assert.Equal(t, "4:5 a 1\n4:9 a 1\n", out.String())
}

func TestPrintTokensJSON(t *testing.T) {
	tokens, diags := lexTokens(`print "hi" @`, "test.lox")

	var out bytes.Buffer
	require.NoError(t, printTokensJSON(&out, tokens, diags))
	assert.Contains(t, out.String(), `"kind": "STRING"`)
	assert.Contains(t, out.String(), `"literal": "hi"`)
	assert.Contains(t, out.String(), `"code": "E1002"`)
}

func TestPrintTokensText(t *testing.T) {
	tokens, _ := lexTokens(`var x;`, "test.lox")

	var out bytes.Buffer
	printTokensText(&out, tokens)
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasSuffix(lines[1], "1:5"), lines[1])
}

func TestWriteASTWithDepths(t *testing.T) {
	source := `{ var a = 1; { print a; } }`

	var plain bytes.Buffer
	hasErrors, err := writeAST(&plain, source, "test.lox", false)
	require.NoError(t, err)
	assert.False(t, hasErrors)
	assert.NotContains(t, plain.String(), `"depth"`)

	var resolved bytes.Buffer
	hasErrors, err = writeAST(&resolved, source, "test.lox", true)
	require.NoError(t, err)
	assert.False(t, hasErrors)
	assert.Contains(t, resolved.String(), `"depth": 1`)
}

func TestWriteASTResolveErrors(t *testing.T) {
	var out bytes.Buffer
	hasErrors, err := writeAST(&out, `{ var a = a; }`, "self.lox", true)
	require.NoError(t, err)
	assert.True(t, hasErrors)
	assert.Contains(t, out.String(), `"code": "E3001"`)
	assert.Contains(t, out.String(), `"file": "self.lox"`)
}

func TestWriteASTSyntaxErrorsCarryFile(t *testing.T) {
	var out bytes.Buffer
	hasErrors, err := writeAST(&out, `print ;`, "bad.lox", true)
	require.NoError(t, err)
	assert.True(t, hasErrors)
	assert.Contains(t, out.String(), `"file": "bad.lox"`)
	assert.NotContains(t, out.String(), `"depth"`)
}

// settingsFor runs the app with args and returns the settings it computed.
func settingsFor(t *testing.T, args ...string) config.Config {
	t.Helper()
	app := newApp()
	var got config.Config
	app.Action = func(ctx *cli.Context) error {
		var err error
		got, err = loadSettings(ctx)
		return err
	}
	require.NoError(t, app.Run(append([]string{"lox"}, args...)))
	return got
}

func TestWarnUnusedOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lox.toml")
	require.NoError(t, os.WriteFile(path, []byte("WarnUnused = true\n"), 0o644))

	assert.True(t, settingsFor(t, "--config", path).WarnUnused)
	assert.False(t, settingsFor(t, "--config", path, "--warn-unused=false").WarnUnused)
	assert.True(t, settingsFor(t, "--warn-unused").WarnUnused)
	assert.False(t, settingsFor(t).WarnUnused)
}

func TestFlagOverrides(t *testing.T) {
	cfg := settingsFor(t, "--color", "always", "--verbosity", "debug")
	assert.Equal(t, config.ColorAlways, cfg.Color)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestPrintASTJSON(t *testing.T) {
	stmts, diags := engine.ScanAndParse(`print 1 + 2;`, "test.lox")

	var out bytes.Buffer
	require.NoError(t, printASTJSON(&out, stmts, nil, diags))
	assert.Contains(t, out.String(), `"kind": "PrintStmt"`)
	assert.Contains(t, out.String(), `"op": "+"`)
}
