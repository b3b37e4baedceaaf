// Package span locates tokens, nodes and diagnostics in Lox source text.
package span

import "fmt"

// Position is a single point in the source.
type Position struct {
	Offset int `json:"offset"` // byte offset from the start of the source
	Line   int `json:"line"`   // 1-based
	Column int `json:"column"` // 1-based, counted in bytes
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Before reports whether p comes strictly before q.
func (p Position) Before(q Position) bool {
	return p.Offset < q.Offset
}

// Span is the half-open source range [Start, End).
type Span struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

func (s Span) String() string {
	return fmt.Sprintf("%s..%s", s.Start, s.End)
}

// Line is the line the span starts on. Diagnostics are reported per line.
func (s Span) Line() int {
	return s.Start.Line
}

// Len returns the byte length of the span.
func (s Span) Len() int {
	return s.End.Offset - s.Start.Offset
}

// Join returns the smallest span covering both a and b.
func Join(a, b Span) Span {
	out := a
	if b.Start.Before(out.Start) {
		out.Start = b.Start
	}
	if out.End.Before(b.End) {
		out.End = b.End
	}
	return out
}
