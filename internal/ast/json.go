package ast

import (
	"lox-lang/internal/span"
)

// NodeToMap converts an AST node to a map suitable for JSON serialization.
// Every node carries a "kind" field. When locals is non-nil, resolved
// Variable and Assign nodes also carry their "depth".
func NodeToMap(node Node, locals Locals) map[string]interface{} {
	if node == nil {
		return nil
	}
	sub := func(n Node) map[string]interface{} { return NodeToMap(n, locals) }

	switch n := node.(type) {
	// ---- Expressions ----
	case *Literal:
		return m("Literal", n.Span, "value", n.Value)
	case *Grouping:
		return m("Grouping", n.Span, "inner", sub(n.Inner))
	case *Unary:
		return m("Unary", n.Span, "op", n.Op.Lexeme, "operand", sub(n.Operand))
	case *Binary:
		return m("Binary", n.Span,
			"op", n.Op.Lexeme,
			"left", sub(n.Left),
			"right", sub(n.Right))
	case *Logical:
		return m("Logical", n.Span,
			"op", n.Op.Lexeme,
			"left", sub(n.Left),
			"right", sub(n.Right))
	case *Variable:
		return withDepth(m("Variable", n.Span, "name", n.Name.Lexeme), locals, n)
	case *Assign:
		return withDepth(m("Assign", n.Span,
			"name", n.Name.Lexeme,
			"value", sub(n.Value)), locals, n)

	// ---- Statements ----
	case *ExprStmt:
		return m("ExprStmt", n.Span, "expr", sub(n.Expr))
	case *PrintStmt:
		return m("PrintStmt", n.Span, "expr", sub(n.Expr))
	case *VarStmt:
		result := m("VarStmt", n.Span, "name", n.Name.Lexeme)
		if n.Init != nil {
			result["init"] = sub(n.Init)
		}
		return result
	case *BlockStmt:
		return m("BlockStmt", n.Span, "stmts", StmtsToSlice(n.Stmts, locals))
	case *IfStmt:
		result := m("IfStmt", n.Span,
			"condition", sub(n.Condition),
			"then", sub(n.Then))
		if n.Else != nil {
			result["else"] = sub(n.Else)
		}
		return result
	case *WhileStmt:
		return m("WhileStmt", n.Span,
			"condition", sub(n.Condition),
			"body", sub(n.Body))

	default:
		return map[string]interface{}{"kind": "Unknown"}
	}
}

// StmtsToSlice renders a statement list with NodeToMap.
func StmtsToSlice(stmts []Stmt, locals Locals) []interface{} {
	result := make([]interface{}, len(stmts))
	for i, s := range stmts {
		result[i] = NodeToMap(s, locals)
	}
	return result
}

// ---- helpers ----

// m builds a map with kind, span, and extra key-value pairs.
func m(kind string, s span.Span, kvs ...interface{}) map[string]interface{} {
	result := map[string]interface{}{
		"kind": kind,
		"span": spanToMap(s),
	}
	for i := 0; i+1 < len(kvs); i += 2 {
		key := kvs[i].(string)
		result[key] = kvs[i+1]
	}
	return result
}

func withDepth(result map[string]interface{}, locals Locals, e Expr) map[string]interface{} {
	if d, ok := locals.Depth(e); ok {
		result["depth"] = d
	}
	return result
}

func spanToMap(s span.Span) map[string]interface{} {
	return map[string]interface{}{
		"start": s.Start.String(),
		"end":   s.End.String(),
	}
}
