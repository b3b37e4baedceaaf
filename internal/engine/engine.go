// Package engine wires the Lox front end and evaluator together. It is the
// surface a driver (CLI, REPL, tests) talks to.
package engine

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru"

	"lox-lang/internal/ast"
	"lox-lang/internal/diag"
	"lox-lang/internal/lexer"
	"lox-lang/internal/parser"
	"lox-lang/internal/resolver"
	"lox-lang/internal/runtime"
)

// DefaultCacheSize is the number of compiled programs an Engine keeps.
const DefaultCacheSize = 64

// ScanAndParse lexes and parses source. Lexical diagnostics come first,
// followed by syntax diagnostics; all of them carry filename. Statements are returned even when there
// are diagnostics, but must not be run in that case.
func ScanAndParse(source, filename string) ([]ast.Stmt, []diag.Diagnostic) {
	tokens, lexDiags := lexer.New(source, filename).Tokenize()
	stmts, parseDiags := parser.New(tokens).Parse()
	return stmts, diag.InFile(append(lexDiags, parseDiags...), filename)
}

// Resolve runs static scope resolution over stmts.
func Resolve(stmts []ast.Stmt) (ast.Locals, []diag.Diagnostic) {
	return resolver.New().Resolve(stmts)
}

// DiagnosticsError reports that a program was rejected before it ran.
type DiagnosticsError struct {
	Diagnostics []diag.Diagnostic
}

func (e *DiagnosticsError) Error() string {
	lines := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		lines[i] = d.String()
	}
	return strings.Join(lines, "\n")
}

// Program is a parsed and resolved compilation unit. It is immutable and can
// be run any number of times.
type Program struct {
	Statements  []ast.Stmt
	Locals      ast.Locals
	Diagnostics []diag.Diagnostic // warnings only; programs with errors are never built
}

// Engine compiles and runs Lox source against one persistent interpreter.
type Engine struct {
	interp   *runtime.Interpreter
	cache    *lru.Cache // source text -> *Program
	log      *slog.Logger
	filename string

	warnUnused bool
	cacheSize  int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used by the engine and its interpreter.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithCacheSize sets how many compiled programs are kept. Zero disables
// caching.
func WithCacheSize(n int) Option {
	return func(e *Engine) { e.cacheSize = n }
}

// WithFilename sets the name used for diagnostics.
func WithFilename(name string) Option {
	return func(e *Engine) { e.filename = name }
}

// WithUnusedWarnings turns on warnings for block variables that are never read.
func WithUnusedWarnings(on bool) Option {
	return func(e *Engine) { e.warnUnused = on }
}

// New creates an engine whose print statements write to out.
func New(out io.Writer, opts ...Option) (*Engine, error) {
	e := &Engine{
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		filename:  "<input>",
		cacheSize: DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cacheSize < 0 {
		return nil, fmt.Errorf("engine: negative cache size %d", e.cacheSize)
	}
	if e.cacheSize > 0 {
		cache, err := lru.New(e.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
		e.cache = cache
	}
	e.interp = runtime.NewInterpreter(out, runtime.WithLogger(e.log))
	return e, nil
}

// Compile lexes, parses and resolves source. If any error diagnostic is
// produced the result is a *DiagnosticsError and no Program. Resolution is
// skipped when parsing failed.
func (e *Engine) Compile(source string) (*Program, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(source); ok {
			e.log.Debug("Program cache hit", "bytes", len(source))
			return cached.(*Program), nil
		}
	}

	stmts, diags := ScanAndParse(source, e.filename)
	e.log.Debug("Parsed program", "file", e.filename, "statements", len(stmts), "diagnostics", len(diags))
	if diag.HasErrors(diags) {
		return nil, &DiagnosticsError{Diagnostics: diags}
	}

	locals, resolveDiags := resolver.New(resolver.WithUnusedWarnings(e.warnUnused)).Resolve(stmts)
	diags = append(diags, diag.InFile(resolveDiags, e.filename)...)
	e.log.Debug("Resolved program", "locals", len(locals), "diagnostics", len(resolveDiags))
	if diag.HasErrors(diags) {
		return nil, &DiagnosticsError{Diagnostics: diags}
	}

	prog := &Program{Statements: stmts, Locals: locals, Diagnostics: diags}
	if e.cache != nil {
		e.cache.Add(source, prog)
	}
	return prog, nil
}

// Execute runs a compiled program. Runtime failures are *runtime.RuntimeError.
func (e *Engine) Execute(prog *Program) error {
	return e.interp.Interpret(prog.Statements, prog.Locals)
}

// Run compiles and executes source. Warnings of a successful compile are
// returned so the caller can show them.
func (e *Engine) Run(source string) ([]diag.Diagnostic, error) {
	prog, err := e.Compile(source)
	if err != nil {
		return nil, err
	}
	return prog.Diagnostics, e.Execute(prog)
}

// Interpreter exposes the engine's interpreter.
func (e *Engine) Interpreter() *runtime.Interpreter {
	return e.interp
}
