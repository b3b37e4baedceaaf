package runtime

import (
	"fmt"
	"io"
	"log/slog"

	"lox-lang/internal/ast"
	"lox-lang/internal/token"
)

// ============================================================
// Interpreter
// ============================================================

// Interpreter walks the AST and executes it. Globals persist across
// Interpret calls, which is what a REPL needs.
type Interpreter struct {
	globals *Environment
	env     *Environment
	locals  ast.Locals
	output  io.Writer
	log     *slog.Logger
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithLogger routes the interpreter's debug logging to l.
func WithLogger(l *slog.Logger) Option {
	return func(i *Interpreter) { i.log = l }
}

// NewInterpreter creates an interpreter that prints to output.
func NewInterpreter(output io.Writer, opts ...Option) *Interpreter {
	globals := NewEnvironment(nil)
	i := &Interpreter{
		globals: globals,
		env:     globals,
		output:  output,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Interpret executes stmts in order. locals is the resolver's table for
// these statements; references missing from it are searched for along the
// environment chain.
// The first runtime error stops execution and is returned as a
// *RuntimeError. The interpreter stays usable afterwards.
func (i *Interpreter) Interpret(stmts []ast.Stmt, locals ast.Locals) error {
	i.locals = locals
	i.env = i.globals
	i.log.Debug("Interpreting program", "statements", len(stmts), "locals", len(locals))

	for _, stmt := range stmts {
		if err := i.execStmt(stmt); err != nil {
			i.log.Debug("Runtime error", "line", stmt.GetSpan().Line(), "err", err)
			return err
		}
	}
	return nil
}

// Globals returns the outermost environment.
func (i *Interpreter) Globals() *Environment {
	return i.globals
}

// ============================================================
// Statement execution
// ============================================================

func (i *Interpreter) execStmt(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		_, err := i.evalExpr(s.Expr)
		return err

	case *ast.PrintStmt:
		val, err := i.evalExpr(s.Expr)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(i.output, val.String())
		return err

	case *ast.VarStmt:
		return i.execVarDecl(s)

	case *ast.BlockStmt:
		return i.execBlock(s.Stmts, NewEnvironment(i.env))

	case *ast.IfStmt:
		return i.execIf(s)

	case *ast.WhileStmt:
		return i.execWhile(s)

	default:
		return fmt.Errorf("unhandled statement type: %T", stmt)
	}
}

func (i *Interpreter) execVarDecl(s *ast.VarStmt) error {
	var val Value = Nil{}
	if s.Init != nil {
		v, err := i.evalExpr(s.Init)
		if err != nil {
			return err
		}
		val = v
	}
	i.env.Define(s.Name.Lexeme, val)
	return nil
}

// execBlock runs stmts in blockEnv and restores the previous environment on
// every exit path, including errors.
func (i *Interpreter) execBlock(stmts []ast.Stmt, blockEnv *Environment) error {
	prevEnv := i.env
	i.env = blockEnv
	defer func() { i.env = prevEnv }()

	for _, stmt := range stmts {
		if err := i.execStmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (i *Interpreter) execIf(s *ast.IfStmt) error {
	cond, err := i.evalExpr(s.Condition)
	if err != nil {
		return err
	}
	if IsTruthy(cond) {
		return i.execStmt(s.Then)
	}
	if s.Else != nil {
		return i.execStmt(s.Else)
	}
	return nil
}

func (i *Interpreter) execWhile(s *ast.WhileStmt) error {
	for {
		cond, err := i.evalExpr(s.Condition)
		if err != nil {
			return err
		}
		if !IsTruthy(cond) {
			return nil
		}
		if err := i.execStmt(s.Body); err != nil {
			return err
		}
	}
}

// ============================================================
// Expression evaluation
// ============================================================

func (i *Interpreter) evalExpr(expr ast.Expr) (Value, error) {
	switch e := expr.(type) {
	case *ast.Literal:
		return FromLiteral(e.Value), nil
	case *ast.Grouping:
		return i.evalExpr(e.Inner)
	case *ast.Variable:
		return i.lookUpVariable(e.Name, e)
	case *ast.Assign:
		return i.evalAssign(e)
	case *ast.Unary:
		return i.evalUnary(e)
	case *ast.Binary:
		return i.evalBinary(e)
	case *ast.Logical:
		return i.evalLogical(e)
	default:
		return nil, fmt.Errorf("unhandled expression type: %T", expr)
	}
}

// lookUpVariable uses the resolved distance when there is one. Otherwise the
// name is searched for along the whole chain, which for resolved programs
// means it is a global.
func (i *Interpreter) lookUpVariable(name token.Token, expr ast.Expr) (Value, error) {
	if distance, ok := i.locals.Depth(expr); ok {
		return i.env.GetAt(distance, name.Lexeme), nil
	}
	return i.env.Get(name)
}

func (i *Interpreter) evalAssign(e *ast.Assign) (Value, error) {
	val, err := i.evalExpr(e.Value)
	if err != nil {
		return nil, err
	}
	if distance, ok := i.locals.Depth(e); ok {
		i.env.AssignAt(distance, e.Name.Lexeme, val)
		return val, nil
	}
	if err := i.env.Assign(e.Name, val); err != nil {
		return nil, err
	}
	return val, nil
}

func (i *Interpreter) evalUnary(e *ast.Unary) (Value, error) {
	operand, err := i.evalExpr(e.Operand)
	if err != nil {
		return nil, err
	}

	switch e.Op.Kind {
	case token.BANG:
		return Bool(!IsTruthy(operand)), nil
	case token.MINUS:
		n, ok := operand.(Number)
		if !ok {
			return nil, runtimeErr(TypeError, e.Op, "Operand of '-' must be a number.")
		}
		return -n, nil
	default:
		return nil, runtimeErr(TypeError, e.Op, "Unknown unary operator '%s'.", e.Op.Lexeme)
	}
}

func (i *Interpreter) evalBinary(e *ast.Binary) (Value, error) {
	left, err := i.evalExpr(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := i.evalExpr(e.Right)
	if err != nil {
		return nil, err
	}

	switch e.Op.Kind {
	case token.EQ:
		return Bool(IsEqual(left, right)), nil
	case token.NEQ:
		return Bool(!IsEqual(left, right)), nil
	case token.PLUS:
		if ls, ok := left.(String); ok {
			if rs, ok := right.(String); ok {
				return ls + rs, nil
			}
		}
		ln, lok := left.(Number)
		rn, rok := right.(Number)
		if !lok || !rok {
			return nil, runtimeErr(TypeError, e.Op, "Operands of '+' must be two numbers or two strings.")
		}
		return ln + rn, nil
	}

	ln, lok := left.(Number)
	rn, rok := right.(Number)
	if !lok || !rok {
		return nil, runtimeErr(TypeError, e.Op, "Operands of '%s' must be numbers.", e.Op.Lexeme)
	}

	switch e.Op.Kind {
	case token.MINUS:
		return ln - rn, nil
	case token.STAR:
		return ln * rn, nil
	case token.SLASH:
		// IEEE division: x/0 is ±Infinity or NaN.
		return ln / rn, nil
	case token.LT:
		return Bool(ln < rn), nil
	case token.LTE:
		return Bool(ln <= rn), nil
	case token.GT:
		return Bool(ln > rn), nil
	case token.GTE:
		return Bool(ln >= rn), nil
	default:
		return nil, runtimeErr(TypeError, e.Op, "Unknown binary operator '%s'.", e.Op.Lexeme)
	}
}

// evalLogical returns one of its operands, not a coerced boolean. The right
// operand is only evaluated when the left one does not decide the result.
func (i *Interpreter) evalLogical(e *ast.Logical) (Value, error) {
	left, err := i.evalExpr(e.Left)
	if err != nil {
		return nil, err
	}
	if e.Op.Kind == token.KW_OR {
		if IsTruthy(left) {
			return left, nil
		}
	} else if !IsTruthy(left) {
		return left, nil
	}
	return i.evalExpr(e.Right)
}
