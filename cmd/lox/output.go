package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"lox-lang/internal/ast"
	"lox-lang/internal/config"
	"lox-lang/internal/diag"
	"lox-lang/internal/lexer"
	"lox-lang/internal/runtime"
	"lox-lang/internal/token"
)

var (
	errorColor   = color.New(color.FgRed)
	warningColor = color.New(color.FgYellow)
	promptColor  = color.New(color.FgGreen)
	hintColor    = color.New(color.FgHiBlack)
)

// setColorMode applies the --color setting. In auto mode colors are used only
// when stderr is a terminal, since that is where diagnostics go.
func setColorMode(mode string) {
	switch mode {
	case config.ColorAlways:
		color.NoColor = false
	case config.ColorNever:
		color.NoColor = true
	default:
		fd := os.Stderr.Fd()
		color.NoColor = os.Getenv("TERM") == "dumb" ||
			!(isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))
	}
}

// ---- diagnostics ----

func printDiags(w io.Writer, diags []diag.Diagnostic) {
	for _, d := range diags {
		c := errorColor
		if d.Severity == diag.Warning {
			c = warningColor
		}
		c.Fprintln(w, d.String())
	}
}

func printRuntimeError(w io.Writer, err *runtime.RuntimeError) {
	errorColor.Fprintln(w, err.Error())
}

func diagsToSlice(diags []diag.Diagnostic) []map[string]interface{} {
	result := make([]map[string]interface{}, len(diags))
	for i, d := range diags {
		result[i] = map[string]interface{}{
			"code":     d.Code,
			"severity": d.Severity.String(),
			"message":  d.Message,
			"line":     d.Line,
			"column":   d.Span.Start.Column,
			"offset":   d.Span.Start.Offset,
			"length":   d.Span.Len(),
		}
		if d.Where != "" {
			result[i]["where"] = d.Where
		}
		if d.File != "" {
			result[i]["file"] = d.File
		}
	}
	return result
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("JSON encoding failed: %w", err)
	}
	return nil
}

// ---- tokens ----

func lexTokens(source, filename string) ([]token.Token, []diag.Diagnostic) {
	return lexer.New(source, filename).Tokenize()
}

func printTokensText(w io.Writer, tokens []token.Token) {
	for _, tok := range tokens {
		fmt.Fprintf(w, "%-12s %-20s %d:%d\n", tok.Kind, tok.Lexeme, tok.Span.Start.Line, tok.Span.Start.Column)
	}
}

func printTokensJSON(w io.Writer, tokens []token.Token, diags []diag.Diagnostic) error {
	type tokenJSON struct {
		Kind    string      `json:"kind"`
		Lexeme  string      `json:"lexeme"`
		Literal interface{} `json:"literal,omitempty"`
		Line    int         `json:"line"`
		Column  int         `json:"column"`
		Offset  int         `json:"offset"`
	}

	toks := make([]tokenJSON, 0, len(tokens))
	for _, tok := range tokens {
		toks = append(toks, tokenJSON{
			Kind:    tok.Kind.String(),
			Lexeme:  tok.Lexeme,
			Literal: tok.Literal,
			Line:    tok.Span.Start.Line,
			Column:  tok.Span.Start.Column,
			Offset:  tok.Span.Start.Offset,
		})
	}

	return printJSON(w, map[string]interface{}{
		"tokens":      toks,
		"diagnostics": diagsToSlice(diags),
	})
}

// ---- AST ----

func printASTJSON(w io.Writer, stmts []ast.Stmt, locals ast.Locals, diags []diag.Diagnostic) error {
	return printJSON(w, map[string]interface{}{
		"statements":  ast.StmtsToSlice(stmts, locals),
		"diagnostics": diagsToSlice(diags),
	})
}

// resolvedRef is one entry of the locals table in source order.
type resolvedRef struct {
	name     token.Token
	distance int
}

func sortedLocals(locals ast.Locals) []resolvedRef {
	refs := make([]resolvedRef, 0, len(locals))
	for expr, distance := range locals {
		switch e := expr.(type) {
		case *ast.Variable:
			refs = append(refs, resolvedRef{e.Name, distance})
		case *ast.Assign:
			refs = append(refs, resolvedRef{e.Name, distance})
		}
	}
	sort.Slice(refs, func(i, j int) bool {
		return refs[i].name.Span.Start.Offset < refs[j].name.Span.Start.Offset
	})
	return refs
}

// printLocals prints "line:col name distance" for each resolved reference.
func printLocals(w io.Writer, locals ast.Locals) {
	for _, ref := range sortedLocals(locals) {
		fmt.Fprintf(w, "%s %s %d\n", ref.name.Span.Start, ref.name.Lexeme, ref.distance)
	}
}
