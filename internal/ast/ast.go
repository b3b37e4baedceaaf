// Package ast defines the abstract syntax tree for Lox.
//
// Nodes are immutable once the parser returns them. Scope resolution results
// are kept beside the tree in a Locals table keyed by node identity.
package ast

import (
	"lox-lang/internal/span"
	"lox-lang/internal/token"
)

// ============================================================
// Node interfaces
// ============================================================

// Node is the interface implemented by all AST nodes.
type Node interface {
	nodeNode()
	GetSpan() span.Span
}

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// NodeBase provides the common Span field for all AST nodes.
type NodeBase struct {
	Span span.Span
}

func (n NodeBase) nodeNode()          {}
func (n NodeBase) GetSpan() span.Span { return n.Span }

// ExprBase is embedded by all expression nodes.
type ExprBase struct{ NodeBase }

func (ExprBase) exprNode() {}

// StmtBase is embedded by all statement nodes.
type StmtBase struct{ NodeBase }

func (StmtBase) stmtNode() {}

// ============================================================
// Expressions
// ============================================================

// Literal is a constant: a float64, string, bool, or nil for `nil`.
type Literal struct {
	ExprBase
	Value interface{}
}

// Grouping is a parenthesized expression.
type Grouping struct {
	ExprBase
	Inner Expr
}

// Unary is a prefix operation: !x, -x.
type Unary struct {
	ExprBase
	Op      token.Token
	Operand Expr
}

// Binary is an arithmetic, comparison or equality operation.
type Binary struct {
	ExprBase
	Op    token.Token
	Left  Expr
	Right Expr
}

// Logical is a short-circuiting `and` / `or`.
type Logical struct {
	ExprBase
	Op    token.Token
	Left  Expr
	Right Expr
}

// Variable is a read of a named binding.
type Variable struct {
	ExprBase
	Name token.Token
}

// Assign stores Value into the binding Name and yields Value.
type Assign struct {
	ExprBase
	Name  token.Token
	Value Expr
}

// ============================================================
// Statements
// ============================================================

// ExprStmt evaluates an expression for its side effects.
type ExprStmt struct {
	StmtBase
	Expr Expr
}

// PrintStmt evaluates Expr and writes its rendering.
type PrintStmt struct {
	StmtBase
	Expr Expr
}

// VarStmt declares Name in the current scope. Init may be nil.
type VarStmt struct {
	StmtBase
	Name token.Token
	Init Expr
}

// BlockStmt runs Stmts in a fresh scope.
type BlockStmt struct {
	StmtBase
	Stmts []Stmt
}

// IfStmt is a conditional. Else may be nil.
type IfStmt struct {
	StmtBase
	Condition Expr
	Then      Stmt
	Else      Stmt
}

// WhileStmt is a pre-tested loop. `for` loops are desugared into it.
type WhileStmt struct {
	StmtBase
	Condition Expr
	Body      Stmt
}

// ============================================================
// Resolution side table
// ============================================================

// Locals maps *Variable and *Assign nodes to the number of scope hops
// between the reference and its binding. References absent from the
// table are globals, looked up dynamically.
type Locals map[Expr]int

// Depth returns the resolved distance for expr, if any.
func (l Locals) Depth(expr Expr) (int, bool) {
	d, ok := l[expr]
	return d, ok
}
