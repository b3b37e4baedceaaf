// Package token defines the token kinds produced by the Lox lexer.
package token

import (
	"fmt"

	"lox-lang/internal/span"
)

// Kind represents the type of a token.
type Kind int

const (
	// Special tokens
	ILLEGAL Kind = iota // input the lexer skipped; never reaches the parser
	EOF

	// Literals
	IDENT  // identifiers: x, foo, my_var
	NUMBER // number literals: 12, 3.5
	STRING // string literals: "hello"

	// Single-character tokens
	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	COMMA     // ,
	DOT       // .
	MINUS     // -
	PLUS      // +
	SEMICOLON // ;
	SLASH     // /
	STAR      // *

	// One or two character tokens
	BANG   // !
	NEQ    // !=
	ASSIGN // =
	EQ     // ==
	GT     // >
	GTE    // >=
	LT     // <
	LTE    // <=

	// Keywords
	KW_AND
	KW_CLASS
	KW_ELSE
	KW_FALSE
	KW_FOR
	KW_FUN
	KW_IF
	KW_NIL
	KW_OR
	KW_PRINT
	KW_RETURN
	KW_SUPER
	KW_THIS
	KW_TRUE
	KW_VAR
	KW_WHILE
)

var kindNames = map[Kind]string{
	ILLEGAL: "ILLEGAL",
	EOF:     "EOF",

	IDENT:  "IDENT",
	NUMBER: "NUMBER",
	STRING: "STRING",

	LPAREN:    "(",
	RPAREN:    ")",
	LBRACE:    "{",
	RBRACE:    "}",
	COMMA:     ",",
	DOT:       ".",
	MINUS:     "-",
	PLUS:      "+",
	SEMICOLON: ";",
	SLASH:     "/",
	STAR:      "*",

	BANG:   "!",
	NEQ:    "!=",
	ASSIGN: "=",
	EQ:     "==",
	GT:     ">",
	GTE:    ">=",
	LT:     "<",
	LTE:    "<=",

	KW_AND:    "and",
	KW_CLASS:  "class",
	KW_ELSE:   "else",
	KW_FALSE:  "false",
	KW_FOR:    "for",
	KW_FUN:    "fun",
	KW_IF:     "if",
	KW_NIL:    "nil",
	KW_OR:     "or",
	KW_PRINT:  "print",
	KW_RETURN: "return",
	KW_SUPER:  "super",
	KW_THIS:   "this",
	KW_TRUE:   "true",
	KW_VAR:    "var",
	KW_WHILE:  "while",
}

// String returns the human-readable name for a token kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsKeyword returns true if the kind is a reserved word.
func (k Kind) IsKeyword() bool {
	return k >= KW_AND && k <= KW_WHILE
}

// StartsDeclaration reports whether a token of this kind begins a new
// statement or declaration. The parser resynchronizes on these.
func (k Kind) StartsDeclaration() bool {
	switch k {
	case KW_CLASS, KW_FUN, KW_VAR, KW_FOR, KW_IF, KW_WHILE, KW_PRINT, KW_RETURN:
		return true
	}
	return false
}

var keywords = map[string]Kind{
	"and":    KW_AND,
	"class":  KW_CLASS,
	"else":   KW_ELSE,
	"false":  KW_FALSE,
	"for":    KW_FOR,
	"fun":    KW_FUN,
	"if":     KW_IF,
	"nil":    KW_NIL,
	"or":     KW_OR,
	"print":  KW_PRINT,
	"return": KW_RETURN,
	"super":  KW_SUPER,
	"this":   KW_THIS,
	"true":   KW_TRUE,
	"var":    KW_VAR,
	"while":  KW_WHILE,
}

// LookupIdent returns the keyword Kind for a complete identifier lexeme, or
// IDENT if it is not reserved.
func LookupIdent(ident string) Kind {
	if kind, ok := keywords[ident]; ok {
		return kind
	}
	return IDENT
}

// Token is one lexeme. Literal holds the decoded value of NUMBER (float64)
// and STRING (string) tokens and is nil otherwise.
type Token struct {
	Kind    Kind        `json:"kind"`
	Lexeme  string      `json:"lexeme"`
	Literal interface{} `json:"literal,omitempty"`
	Span    span.Span   `json:"span"`
}

// Line returns the source line the token starts on.
func (t Token) Line() int {
	return t.Span.Line()
}

// String returns a human-readable representation of the token.
func (t Token) String() string {
	if t.Literal != nil {
		return fmt.Sprintf("%s %q %v %s", t.Kind, t.Lexeme, t.Literal, t.Span.Start)
	}
	return fmt.Sprintf("%s %q %s", t.Kind, t.Lexeme, t.Span.Start)
}
