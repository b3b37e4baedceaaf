// Package parser implements the syntax analysis for Lox.
// It uses precedence climbing for binary operators and recursive descent for
// everything else.
package parser

import (
	"errors"

	"lox-lang/internal/ast"
	"lox-lang/internal/diag"
	"lox-lang/internal/span"
	"lox-lang/internal/token"
)

// ============================================================
// Binding power (precedence) levels
// ============================================================

const (
	bpNone       = 0
	bpOr         = 10 // or
	bpAnd        = 20 // and
	bpEquality   = 30 // == !=
	bpComparison = 40 // < <= > >=
	bpTerm       = 50 // + -
	bpFactor     = 60 // * /
)

// infixBP returns the left binding power of a binary operator, or bpNone
// when kind cannot continue an expression.
func infixBP(kind token.Kind) int {
	switch kind {
	case token.KW_OR:
		return bpOr
	case token.KW_AND:
		return bpAnd
	case token.EQ, token.NEQ:
		return bpEquality
	case token.LT, token.LTE, token.GT, token.GTE:
		return bpComparison
	case token.PLUS, token.MINUS:
		return bpTerm
	case token.STAR, token.SLASH:
		return bpFactor
	default:
		return bpNone
	}
}

// errSyntax marks a failed production. The diagnostic has already been
// recorded; the caller unwinds to the nearest declaration and synchronizes.
var errSyntax = errors.New("syntax error")

// ============================================================
// Parser
// ============================================================

// Parser performs syntax analysis on a stream of tokens.
type Parser struct {
	tokens []token.Token
	pos    int
	diags  []diag.Diagnostic
}

// New creates a new parser from a token slice. The slice should end with an
// EOF token, as produced by the lexer.
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse parses a whole program:
//
//	program := declaration* EOF
//
// Statements that failed to parse are left out; each failure is reported
// once and parsing resumes at the next statement boundary.
func (p *Parser) Parse() ([]ast.Stmt, []diag.Diagnostic) {
	var stmts []ast.Stmt
	for !p.isAtEnd() {
		if stmt := p.declaration(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	return stmts, p.diags
}

// ---- navigation helpers ----

func (p *Parser) peek() token.Token {
	if p.pos >= len(p.tokens) {
		return token.Token{Kind: token.EOF, Span: p.prevEndSpan()}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekKind() token.Kind {
	return p.peek().Kind
}

func (p *Parser) previous() token.Token {
	if p.pos == 0 {
		return p.peek()
	}
	return p.tokens[p.pos-1]
}

func (p *Parser) advance() token.Token {
	tok := p.peek()
	if !p.isAtEnd() {
		p.pos++
	}
	return tok
}

func (p *Parser) check(kind token.Kind) bool {
	return p.peekKind() == kind
}

// match consumes the current token if it has one of the given kinds.
func (p *Parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) expect(kind token.Kind, msg string) (token.Token, error) {
	if p.check(kind) {
		return p.advance(), nil
	}
	return p.peek(), p.errorAt(p.peek(), diag.CodeExpectToken, msg)
}

func (p *Parser) isAtEnd() bool {
	return p.pos >= len(p.tokens) || p.tokens[p.pos].Kind == token.EOF
}

// errorAt records a diagnostic pointing at tok and returns errSyntax.
func (p *Parser) errorAt(tok token.Token, code, msg string) error {
	where := " at '" + tok.Lexeme + "'"
	if tok.Kind == token.EOF {
		where = " at end"
	}
	p.diags = append(p.diags, diag.Errorf(code, tok.Span, where, "%s", msg))
	return errSyntax
}

// ============================================================
// Error recovery
// ============================================================

// synchronize discards tokens until just after a ';' or just before a token
// that starts a declaration.
func (p *Parser) synchronize() {
	p.advance()
	for !p.isAtEnd() {
		if p.previous().Kind == token.SEMICOLON {
			return
		}
		if p.peekKind().StartsDeclaration() {
			return
		}
		p.advance()
	}
}

// ============================================================
// Statement parsing
// ============================================================

// declaration := varDecl | statement
//
// It is the recovery point: a failed declaration yields nil.
func (p *Parser) declaration() ast.Stmt {
	var (
		stmt ast.Stmt
		err  error
	)
	if p.check(token.KW_VAR) {
		stmt, err = p.parseVarDecl()
	} else {
		stmt, err = p.parseStmt()
	}
	if err != nil {
		p.synchronize()
		return nil
	}
	return stmt
}

// statement := exprStmt | forStmt | ifStmt | printStmt | whileStmt | block
func (p *Parser) parseStmt() (ast.Stmt, error) {
	switch p.peekKind() {
	case token.KW_FOR:
		return p.parseForStmt()
	case token.KW_IF:
		return p.parseIfStmt()
	case token.KW_PRINT:
		return p.parsePrintStmt()
	case token.KW_WHILE:
		return p.parseWhileStmt()
	case token.LBRACE:
		return p.parseBlock()
	default:
		return p.parseExprStmt()
	}
}

// parseVarDecl parses: var IDENT [ = expr ] ;
func (p *Parser) parseVarDecl() (ast.Stmt, error) {
	start := p.advance() // consume 'var'

	name, err := p.expect(token.IDENT, "Expect variable name.")
	if err != nil {
		return nil, err
	}

	var init ast.Expr
	if p.match(token.ASSIGN) {
		if init, err = p.expression(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.SEMICOLON, "Expect ';' after variable declaration."); err != nil {
		return nil, err
	}
	return &ast.VarStmt{
		StmtBase: makeStmtBase(start.Span.Start, p.prevEnd()),
		Name:     name,
		Init:     init,
	}, nil
}

// parsePrintStmt parses: print expr ;
func (p *Parser) parsePrintStmt() (ast.Stmt, error) {
	start := p.advance() // consume 'print'
	value, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON, "Expect ';' after value."); err != nil {
		return nil, err
	}
	return &ast.PrintStmt{
		StmtBase: makeStmtBase(start.Span.Start, p.prevEnd()),
		Expr:     value,
	}, nil
}

// parseExprStmt parses: expr ;
func (p *Parser) parseExprStmt() (ast.Stmt, error) {
	expr, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON, "Expect ';' after expression."); err != nil {
		return nil, err
	}
	return &ast.ExprStmt{
		StmtBase: makeStmtBase(expr.GetSpan().Start, p.prevEnd()),
		Expr:     expr,
	}, nil
}

// parseBlock parses: { declaration* }
func (p *Parser) parseBlock() (ast.Stmt, error) {
	start := p.advance() // consume '{'
	block := &ast.BlockStmt{}

	for !p.check(token.RBRACE) && !p.isAtEnd() {
		if stmt := p.declaration(); stmt != nil {
			block.Stmts = append(block.Stmts, stmt)
		}
	}
	if _, err := p.expect(token.RBRACE, "Expect '}' after block."); err != nil {
		return nil, err
	}
	block.Span = p.makeSpan(start.Span.Start)
	return block, nil
}

// parseIfStmt parses: if ( expr ) statement [ else statement ]
//
// The else binds to the nearest if because each if tries to match it
// immediately after its then-branch.
func (p *Parser) parseIfStmt() (ast.Stmt, error) {
	start := p.advance() // consume 'if'

	if _, err := p.expect(token.LPAREN, "Expect '(' after 'if'."); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN, "Expect ')' after if condition."); err != nil {
		return nil, err
	}

	stmt := &ast.IfStmt{Condition: cond}
	if stmt.Then, err = p.parseStmt(); err != nil {
		return nil, err
	}
	if p.match(token.KW_ELSE) {
		if stmt.Else, err = p.parseStmt(); err != nil {
			return nil, err
		}
	}
	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt, nil
}

// parseWhileStmt parses: while ( expr ) statement
func (p *Parser) parseWhileStmt() (ast.Stmt, error) {
	start := p.advance() // consume 'while'

	if _, err := p.expect(token.LPAREN, "Expect '(' after 'while'."); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN, "Expect ')' after condition."); err != nil {
		return nil, err
	}
	body, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	return &ast.WhileStmt{
		StmtBase:  makeStmtBase(start.Span.Start, p.prevEnd()),
		Condition: cond,
		Body:      body,
	}, nil
}

// parseForStmt parses: for ( init? ; cond? ; incr? ) statement
// and desugars it into
//
//	{ init; while (cond) { statement; incr; } }
//
// A missing condition becomes `true`. The outer block only exists when there
// is an initializer, the inner one only when there is an increment.
func (p *Parser) parseForStmt() (ast.Stmt, error) {
	start := p.advance() // consume 'for'

	if _, err := p.expect(token.LPAREN, "Expect '(' after 'for'."); err != nil {
		return nil, err
	}

	var (
		init ast.Stmt
		err  error
	)
	switch {
	case p.match(token.SEMICOLON):
	case p.check(token.KW_VAR):
		init, err = p.parseVarDecl()
	default:
		init, err = p.parseExprStmt()
	}
	if err != nil {
		return nil, err
	}

	var cond ast.Expr
	if !p.check(token.SEMICOLON) {
		if cond, err = p.expression(); err != nil {
			return nil, err
		}
	}
	condEnd, err := p.expect(token.SEMICOLON, "Expect ';' after loop condition.")
	if err != nil {
		return nil, err
	}

	var incr ast.Expr
	if !p.check(token.RPAREN) {
		if incr, err = p.expression(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.RPAREN, "Expect ')' after for clauses."); err != nil {
		return nil, err
	}

	body, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	whole := p.makeSpan(start.Span.Start)

	if incr != nil {
		body = &ast.BlockStmt{
			StmtBase: ast.StmtBase{NodeBase: ast.NodeBase{Span: span.Join(body.GetSpan(), incr.GetSpan())}},
			Stmts: []ast.Stmt{
				body,
				&ast.ExprStmt{StmtBase: makeStmtBase(incr.GetSpan().Start, incr.GetSpan().End), Expr: incr},
			},
		}
	}
	if cond == nil {
		cond = &ast.Literal{
			ExprBase: makeExprBase(condEnd.Span.Start, condEnd.Span.Start),
			Value:    true,
		}
	}
	var loop ast.Stmt = &ast.WhileStmt{
		StmtBase:  ast.StmtBase{NodeBase: ast.NodeBase{Span: whole}},
		Condition: cond,
		Body:      body,
	}
	if init != nil {
		loop = &ast.BlockStmt{
			StmtBase: ast.StmtBase{NodeBase: ast.NodeBase{Span: whole}},
			Stmts:    []ast.Stmt{init, loop},
		}
	}
	return loop, nil
}

// ============================================================
// Expression parsing
// ============================================================

func (p *Parser) expression() (ast.Expr, error) {
	return p.parseAssignment()
}

// parseAssignment parses: IDENT = assignment | logic_or
//
// The left side is parsed as an ordinary expression first; only a bare
// variable is a valid target. Anything else is reported without unwinding,
// since the parser is not confused about where it is.
func (p *Parser) parseAssignment() (ast.Expr, error) {
	expr, err := p.parseExpr(bpNone)
	if err != nil {
		return nil, err
	}
	if !p.check(token.ASSIGN) {
		return expr, nil
	}

	equals := p.advance()
	value, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	if v, ok := expr.(*ast.Variable); ok {
		return &ast.Assign{
			ExprBase: makeExprBase(v.Span.Start, value.GetSpan().End),
			Name:     v.Name,
			Value:    value,
		}, nil
	}
	p.errorAt(equals, diag.CodeInvalidAssign, "Invalid assignment target.")
	return expr, nil
}

// parseExpr parses a chain of binary operators whose binding power is
// greater than minBP. Operators are left-associative.
func (p *Parser) parseExpr(minBP int) (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		bp := infixBP(p.peekKind())
		if bp <= minBP {
			return left, nil
		}
		op := p.advance()
		right, err := p.parseExpr(bp)
		if err != nil {
			return nil, err
		}
		base := makeExprBase(left.GetSpan().Start, right.GetSpan().End)
		if op.Kind == token.KW_AND || op.Kind == token.KW_OR {
			left = &ast.Logical{ExprBase: base, Op: op, Left: left, Right: right}
		} else {
			left = &ast.Binary{ExprBase: base, Op: op, Left: left, Right: right}
		}
	}
}

// parseUnary parses: ( ! | - ) unary | primary
func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.check(token.BANG) || p.check(token.MINUS) {
		op := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{
			ExprBase: makeExprBase(op.Span.Start, operand.GetSpan().End),
			Op:       op,
			Operand:  operand,
		}, nil
	}
	return p.parsePrimary()
}

// parsePrimary parses literals, variables and parenthesized expressions.
func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.peek()
	base := makeExprBase(tok.Span.Start, tok.Span.End)

	switch tok.Kind {
	case token.NUMBER, token.STRING:
		p.advance()
		return &ast.Literal{ExprBase: base, Value: tok.Literal}, nil
	case token.KW_TRUE:
		p.advance()
		return &ast.Literal{ExprBase: base, Value: true}, nil
	case token.KW_FALSE:
		p.advance()
		return &ast.Literal{ExprBase: base, Value: false}, nil
	case token.KW_NIL:
		p.advance()
		return &ast.Literal{ExprBase: base}, nil
	case token.IDENT:
		p.advance()
		return &ast.Variable{ExprBase: base, Name: tok}, nil
	case token.LPAREN:
		p.advance()
		inner, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN, "Expect ')' after expression."); err != nil {
			return nil, err
		}
		return &ast.Grouping{
			ExprBase: makeExprBase(tok.Span.Start, p.prevEnd()),
			Inner:    inner,
		}, nil
	}
	return nil, p.errorAt(tok, diag.CodeExpectExpr, "Expect expression.")
}

// ============================================================
// Span helpers
// ============================================================

func (p *Parser) prevEnd() span.Position {
	if p.pos > 0 && p.pos-1 < len(p.tokens) {
		return p.tokens[p.pos-1].Span.End
	}
	return span.Position{Line: 1, Column: 1}
}

func (p *Parser) prevEndSpan() span.Span {
	end := p.prevEnd()
	return span.Span{Start: end, End: end}
}

func (p *Parser) makeSpan(start span.Position) span.Span {
	return span.Span{Start: start, End: p.prevEnd()}
}

func makeExprBase(start, end span.Position) ast.ExprBase {
	return ast.ExprBase{NodeBase: ast.NodeBase{Span: span.Span{Start: start, End: end}}}
}

func makeStmtBase(start, end span.Position) ast.StmtBase {
	return ast.StmtBase{NodeBase: ast.NodeBase{Span: span.Span{Start: start, End: end}}}
}
