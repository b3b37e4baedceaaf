package runtime

import (
	"fmt"

	"lox-lang/internal/token"
)

// ErrorKind classifies runtime errors.
type ErrorKind int

const (
	TypeError ErrorKind = iota
	UndefinedVariable
)

func (k ErrorKind) String() string {
	switch k {
	case TypeError:
		return "TypeError"
	case UndefinedVariable:
		return "UndefinedVariable"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// RuntimeError aborts the current Interpret call. Token is the operator or
// name that failed, for line-accurate reporting.
type RuntimeError struct {
	Kind    ErrorKind
	Message string
	Token   token.Token
}

// Line returns the source line of the failing token.
func (e *RuntimeError) Line() int {
	return e.Token.Line()
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s\n[line %d]", e.Message, e.Line())
}

func runtimeErr(kind ErrorKind, tok token.Token, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Kind: kind, Message: fmt.Sprintf(format, args...), Token: tok}
}

func undefinedVariable(name token.Token) *RuntimeError {
	return runtimeErr(UndefinedVariable, name, "Undefined variable '%s'.", name.Lexeme)
}
