// Package lexer implements the lexical analysis (tokenization) for Lox.
package lexer

import (
	"strconv"
	"unicode/utf8"

	"lox-lang/internal/diag"
	"lox-lang/internal/span"
	"lox-lang/internal/token"
)

// Lexer tokenizes source code into a sequence of tokens.
type Lexer struct {
	source   string
	filename string

	pos  int // current read position in source
	line int // current line (1-based)
	col  int // current column (1-based)

	diags []diag.Diagnostic
}

// New creates a new Lexer for the given source text.
func New(source, filename string) *Lexer {
	return &Lexer{
		source:   source,
		filename: filename,
		line:     1,
		col:      1,
	}
}

// Tokenize scans the entire source and returns all tokens and diagnostics.
// The token slice always ends with an EOF token, even for malformed input.
func (l *Lexer) Tokenize() ([]token.Token, []diag.Diagnostic) {
	var tokens []token.Token
	for {
		tok, ok := l.nextToken()
		if !ok {
			continue
		}
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return tokens, l.diags
}

// Filename returns the name the lexer was created with.
func (l *Lexer) Filename() string {
	return l.filename
}

// ---- internal helpers ----

func (l *Lexer) isAtEnd() bool {
	return l.pos >= len(l.source)
}

// peek returns the current character without advancing, or 0 if at end.
func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.pos]
}

// peekNext returns the character after current, or 0 if at end.
func (l *Lexer) peekNext() byte {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	return l.source[l.pos+1]
}

// advance consumes the current character and returns it.
func (l *Lexer) advance() byte {
	ch := l.source[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

// match consumes the current character only if it is expected.
func (l *Lexer) match(expected byte) bool {
	if l.isAtEnd() || l.peek() != expected {
		return false
	}
	l.advance()
	return true
}

func (l *Lexer) curPos() span.Position {
	return span.Position{Offset: l.pos, Line: l.line, Column: l.col}
}

func (l *Lexer) makeSpan(start span.Position) span.Span {
	return span.Span{Start: start, End: l.curPos()}
}

func (l *Lexer) makeToken(kind token.Kind, start span.Position, literal interface{}) token.Token {
	return token.Token{
		Kind:    kind,
		Lexeme:  l.source[start.Offset:l.pos],
		Literal: literal,
		Span:    l.makeSpan(start),
	}
}

func (l *Lexer) addError(code string, s span.Span, format string, args ...interface{}) {
	d := diag.Errorf(code, s, "", format, args...)
	d.File = l.filename
	l.diags = append(l.diags, d)
}

// skipTrivia consumes whitespace, newlines and line comments. Each character
// falls into exactly one of those cases.
func (l *Lexer) skipTrivia() {
	for !l.isAtEnd() {
		switch ch := l.peek(); {
		case ch == ' ' || ch == '\t' || ch == '\r':
			l.advance()
		case ch == '\n':
			l.advance()
		case ch == '/' && l.peekNext() == '/':
			for !l.isAtEnd() && l.peek() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

// ---- token reading ----

// nextToken scans one token. ok is false when the characters consumed
// produced no token: an error was recorded and the returned token is an
// ILLEGAL token covering the skipped text, which Tokenize drops.
func (l *Lexer) nextToken() (token.Token, bool) {
	l.skipTrivia()

	start := l.curPos()
	if l.isAtEnd() {
		return token.Token{Kind: token.EOF, Span: l.makeSpan(start)}, true
	}

	ch := l.peek()
	switch {
	case ch == '"':
		return l.readString(start)
	case isDigit(ch):
		return l.readNumber(start), true
	case isIdentStart(ch):
		return l.readIdentifier(start), true
	}
	return l.readOperator(start)
}

// readString reads a double-quoted string. Strings may span lines and have
// no escape sequences.
func (l *Lexer) readString(start span.Position) (token.Token, bool) {
	l.advance() // opening "
	for !l.isAtEnd() && l.peek() != '"' {
		l.advance()
	}
	if l.isAtEnd() {
		l.addError(diag.CodeUnterminatedString, l.makeSpan(start), "Unterminated string.")
		return l.makeToken(token.ILLEGAL, start, nil), false
	}
	l.advance() // closing "

	value := l.source[start.Offset+1 : l.pos-1]
	return l.makeToken(token.STRING, start, value), true
}

// readNumber reads digits with an optional fraction. The dot is only part of
// the number when a digit follows it.
func (l *Lexer) readNumber(start span.Position) token.Token {
	for isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && isDigit(l.peekNext()) {
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
	}

	// The lexeme is all digits with at most one interior dot; it always parses.
	val, _ := strconv.ParseFloat(l.source[start.Offset:l.pos], 64)
	return l.makeToken(token.NUMBER, start, val)
}

// readIdentifier consumes the whole identifier before consulting the keyword
// table, so "orchid" is one IDENT and never "or" + "chid".
func (l *Lexer) readIdentifier(start span.Position) token.Token {
	for isIdentPart(l.peek()) {
		l.advance()
	}
	kind := token.LookupIdent(l.source[start.Offset:l.pos])
	return l.makeToken(kind, start, nil)
}

// readOperator reads an operator or delimiter token.
func (l *Lexer) readOperator(start span.Position) (token.Token, bool) {
	ch := l.advance()

	var kind token.Kind
	switch ch {
	case '(':
		kind = token.LPAREN
	case ')':
		kind = token.RPAREN
	case '{':
		kind = token.LBRACE
	case '}':
		kind = token.RBRACE
	case ',':
		kind = token.COMMA
	case '.':
		kind = token.DOT
	case '-':
		kind = token.MINUS
	case '+':
		kind = token.PLUS
	case ';':
		kind = token.SEMICOLON
	case '*':
		kind = token.STAR
	case '/':
		kind = token.SLASH
	case '!':
		kind = l.pick('=', token.NEQ, token.BANG)
	case '=':
		kind = l.pick('=', token.EQ, token.ASSIGN)
	case '<':
		kind = l.pick('=', token.LTE, token.LT)
	case '>':
		kind = l.pick('=', token.GTE, token.GT)
	default:
		l.skipIllegal(ch, start)
		return l.makeToken(token.ILLEGAL, start, nil), false
	}
	return l.makeToken(kind, start, nil), true
}

// pick returns two when the next character is next (consuming it), one otherwise.
func (l *Lexer) pick(next byte, two, one token.Kind) token.Kind {
	if l.match(next) {
		return two
	}
	return one
}

// skipIllegal reports an unexpected character. Multi-byte UTF-8 sequences are
// skipped whole so that one stray rune yields one diagnostic.
func (l *Lexer) skipIllegal(first byte, start span.Position) {
	r := rune(first)
	if first >= utf8.RuneSelf {
		var size int
		r, size = utf8.DecodeRuneInString(l.source[start.Offset:])
		for i := 1; i < size && !l.isAtEnd(); i++ {
			l.advance()
		}
	}
	l.addError(diag.CodeUnexpectedChar, l.makeSpan(start), "Unexpected character %q.", r)
}

// ---- character classification ----

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// isIdentStart accepts ASCII letters and '_'. '-' is never part of an
// identifier; it is always the minus operator.
func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
