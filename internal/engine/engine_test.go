package engine

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lox-lang/internal/diag"
	"lox-lang/internal/runtime"
)

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	eng, err := New(&out, opts...)
	require.NoError(t, err)
	return eng, &out
}

func TestScanAndParseOrdersDiagnostics(t *testing.T) {
	stmts, diags := ScanAndParse("print @ 1;\nvar = 2;\nprint 3;", "test.lox")

	require.Len(t, diags, 2)
	assert.Equal(t, diag.CodeUnexpectedChar, diags[0].Code, "lexical diagnostics come first")
	assert.Equal(t, diag.CodeExpectToken, diags[1].Code)
	assert.Len(t, stmts, 2)
}

func TestDiagnosticsCarryFilename(t *testing.T) {
	_, diags := ScanAndParse("@\nprint ;", "main.lox")
	require.Len(t, diags, 2)
	for _, d := range diags {
		assert.Equal(t, "main.lox", d.File)
	}

	eng, _ := newTestEngine(t, WithFilename("block.lox"))
	_, err := eng.Run(`{ var a = a; }`)
	var diagErr *DiagnosticsError
	require.True(t, errors.As(err, &diagErr))
	assert.Equal(t, "block.lox", diagErr.Diagnostics[0].File)
}

func TestResolve(t *testing.T) {
	stmts, diags := ScanAndParse(`{ var a = 1; { print a; } }`, "test.lox")
	require.Empty(t, diags)

	locals, diags := Resolve(stmts)
	assert.Empty(t, diags)
	assert.Len(t, locals, 1)
}

func TestRun(t *testing.T) {
	eng, out := newTestEngine(t)

	warnings, err := eng.Run(`var a = 1; { var a = 2; print a; } print a;`)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "2\n1\n", out.String())
}

func TestRunSyntaxError(t *testing.T) {
	eng, out := newTestEngine(t)

	_, err := eng.Run("print 1;\n1 = 2;\nprint 2")
	var diagErr *DiagnosticsError
	require.True(t, errors.As(err, &diagErr))
	require.Len(t, diagErr.Diagnostics, 2)
	assert.Equal(t, "[line 2] Error at '=': Invalid assignment target.\n[line 3] Error at end: Expect ';' after value.", err.Error())
	assert.Empty(t, out.String(), "nothing runs when there are diagnostics")
}

func TestRunResolveError(t *testing.T) {
	eng, out := newTestEngine(t)

	_, err := eng.Run(`print "before"; { var a = a; }`)
	var diagErr *DiagnosticsError
	require.True(t, errors.As(err, &diagErr))
	assert.Equal(t, diag.CodeSelfInitializer, diagErr.Diagnostics[0].Code)
	assert.Empty(t, out.String())
}

func TestRunRuntimeError(t *testing.T) {
	eng, out := newTestEngine(t)

	_, err := eng.Run("print 1;\nprint undeclared;")
	var rtErr *runtime.RuntimeError
	require.True(t, errors.As(err, &rtErr))
	assert.Equal(t, runtime.UndefinedVariable, rtErr.Kind)
	assert.Equal(t, 2, rtErr.Line())
	assert.Equal(t, "1\n", out.String())
}

func TestRunWarningsDoNotStop(t *testing.T) {
	eng, out := newTestEngine(t, WithUnusedWarnings(true))

	warnings, err := eng.Run(`{ var unused = 1; print "ran"; }`)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, diag.CodeUnusedLocal, warnings[0].Code)
	assert.Equal(t, "ran\n", out.String())
}

func TestGlobalsPersistAcrossRuns(t *testing.T) {
	eng, out := newTestEngine(t)

	_, err := eng.Run(`var greeting = "hi";`)
	require.NoError(t, err)
	_, err = eng.Run(`print undefinedHere;`)
	require.Error(t, err)
	_, err = eng.Run(`print greeting;`)
	require.NoError(t, err)
	assert.Equal(t, "hi\n", out.String())
}

func TestCompileCache(t *testing.T) {
	eng, out := newTestEngine(t, WithCacheSize(2))

	first, err := eng.Compile(`var n = 0; { n = n + 1; } print n;`)
	require.NoError(t, err)
	second, err := eng.Compile(`var n = 0; { n = n + 1; } print n;`)
	require.NoError(t, err)
	assert.Same(t, first, second)

	// Re-running a cached program reuses its AST and distance table.
	require.NoError(t, eng.Execute(first))
	require.NoError(t, eng.Execute(second))
	assert.Equal(t, "1\n1\n", out.String())
}

func TestCompileCacheEviction(t *testing.T) {
	eng, _ := newTestEngine(t, WithCacheSize(1))

	first, err := eng.Compile(`print 1;`)
	require.NoError(t, err)
	_, err = eng.Compile(`print 2;`)
	require.NoError(t, err)
	again, err := eng.Compile(`print 1;`)
	require.NoError(t, err)
	assert.NotSame(t, first, again)
}

func TestCacheDisabled(t *testing.T) {
	eng, _ := newTestEngine(t, WithCacheSize(0))

	first, err := eng.Compile(`print 1;`)
	require.NoError(t, err)
	second, err := eng.Compile(`print 1;`)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestFailedCompileIsNotCached(t *testing.T) {
	eng, _ := newTestEngine(t)

	_, err := eng.Compile(`print ;`)
	require.Error(t, err)
	_, err = eng.Compile(`print ;`)
	require.Error(t, err)
}

func TestNegativeCacheSize(t *testing.T) {
	_, err := New(&bytes.Buffer{}, WithCacheSize(-1))
	assert.Error(t, err)
}

func TestInterpreterAccessor(t *testing.T) {
	eng, _ := newTestEngine(t)
	assert.NotNil(t, eng.Interpreter())
}
