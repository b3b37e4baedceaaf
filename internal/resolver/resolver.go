// Package resolver performs static scope resolution over a parsed Lox
// program. For every variable reference inside a block it records how many
// scopes out its binding lives; the interpreter trusts that number at run
// time instead of searching the environment chain.
package resolver

import (
	"lox-lang/internal/ast"
	"lox-lang/internal/diag"
	"lox-lang/internal/token"
)

// binding is one declared name in a block scope.
type binding struct {
	decl  token.Token
	ready bool // initializer finished
	read  bool
}

// scope holds the names declared in one block, in declaration order.
type scope struct {
	names map[string]*binding
	order []*binding
}

func newScope() *scope {
	return &scope{names: make(map[string]*binding)}
}

// Resolver walks statements without executing them.
type Resolver struct {
	scopes []*scope // innermost last; globals are never pushed
	locals ast.Locals
	diags  []diag.Diagnostic

	warnUnused bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithUnusedWarnings makes the resolver warn about block-scoped variables
// that are declared but never read.
func WithUnusedWarnings(on bool) Option {
	return func(r *Resolver) { r.warnUnused = on }
}

// New creates a resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve computes distances for every Variable and Assign node in stmts.
// References to names not declared in any enclosing block are left out of
// the table; they are globals. A Resolver may be reused; each call starts
// from an empty table.
func (r *Resolver) Resolve(stmts []ast.Stmt) (ast.Locals, []diag.Diagnostic) {
	r.scopes = r.scopes[:0]
	r.locals = make(ast.Locals)
	r.diags = nil

	for _, s := range stmts {
		r.resolveStmt(s)
	}
	return r.locals, r.diags
}

// ---- scopes ----

func (r *Resolver) beginScope() {
	r.scopes = append(r.scopes, newScope())
}

func (r *Resolver) endScope() {
	top := r.scopes[len(r.scopes)-1]
	r.scopes = r.scopes[:len(r.scopes)-1]

	if !r.warnUnused {
		return
	}
	for _, b := range top.order {
		if !b.read {
			r.diags = append(r.diags, diag.Warningf(diag.CodeUnusedLocal, b.decl.Span,
				" at '"+b.decl.Lexeme+"'", "Local variable is never read."))
		}
	}
}

// declare adds name to the innermost scope, not yet usable. Redeclaring a
// name in the same scope replaces the earlier binding.
func (r *Resolver) declare(name token.Token) {
	if len(r.scopes) == 0 {
		return
	}
	s := r.scopes[len(r.scopes)-1]
	b := &binding{decl: name}
	s.names[name.Lexeme] = b
	s.order = append(s.order, b)
}

// define marks name in the innermost scope as initialized.
func (r *Resolver) define(name token.Token) {
	if len(r.scopes) == 0 {
		return
	}
	if b, ok := r.scopes[len(r.scopes)-1].names[name.Lexeme]; ok {
		b.ready = true
	}
}

// resolveLocal records the hop count from the innermost scope to the
// nearest ready binding of name. Bindings still inside their own
// initializer are skipped, so the reference resolves outward.
func (r *Resolver) resolveLocal(expr ast.Expr, name token.Token, isRead bool) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		b, ok := r.scopes[i].names[name.Lexeme]
		if !ok || !b.ready {
			continue
		}
		if isRead {
			b.read = true
		}
		r.locals[expr] = len(r.scopes) - 1 - i
		return
	}
}

// ---- statements ----

func (r *Resolver) resolveStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.BlockStmt:
		r.beginScope()
		for _, inner := range s.Stmts {
			r.resolveStmt(inner)
		}
		r.endScope()

	case *ast.VarStmt:
		r.declare(s.Name)
		if s.Init != nil {
			r.resolveExpr(s.Init)
		}
		r.define(s.Name)

	case *ast.ExprStmt:
		r.resolveExpr(s.Expr)

	case *ast.PrintStmt:
		r.resolveExpr(s.Expr)

	case *ast.IfStmt:
		r.resolveExpr(s.Condition)
		r.resolveStmt(s.Then)
		if s.Else != nil {
			r.resolveStmt(s.Else)
		}

	case *ast.WhileStmt:
		r.resolveExpr(s.Condition)
		r.resolveStmt(s.Body)
	}
}

// ---- expressions ----

func (r *Resolver) resolveExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.Variable:
		if len(r.scopes) > 0 {
			if b, ok := r.scopes[len(r.scopes)-1].names[e.Name.Lexeme]; ok && !b.ready {
				r.diags = append(r.diags, diag.Errorf(diag.CodeSelfInitializer, e.Name.Span,
					" at '"+e.Name.Lexeme+"'", "Can't read local variable in its own initializer."))
			}
		}
		r.resolveLocal(e, e.Name, true)

	case *ast.Assign:
		r.resolveExpr(e.Value)
		r.resolveLocal(e, e.Name, false)

	case *ast.Binary:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)

	case *ast.Logical:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)

	case *ast.Unary:
		r.resolveExpr(e.Operand)

	case *ast.Grouping:
		r.resolveExpr(e.Inner)

	case *ast.Literal:
		// nothing to resolve
	}
}
