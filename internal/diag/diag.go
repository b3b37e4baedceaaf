// Package diag carries the lexical, syntax and resolution problems found
// before a Lox program runs.
package diag

import (
	"fmt"

	"lox-lang/internal/span"
)

// Severity indicates the severity of a diagnostic.
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "unknown"
	}
}

// Stable diagnostic codes. E1xxx are lexical, E2xxx syntax, E3xxx resolution;
// W codes are warnings and never stop a run.
const (
	CodeUnterminatedString = "E1001"
	CodeUnexpectedChar     = "E1002"
	CodeExpectToken        = "E2001"
	CodeExpectExpr         = "E2002"
	CodeInvalidAssign      = "E2003"
	CodeSelfInitializer    = "E3001"
	CodeUnusedLocal        = "W3001"
)

// Diagnostic is one reported problem. Line, Where and Message form the
// triple a driver prints; Code, File and Span are for tooling.
type Diagnostic struct {
	Code     string    `json:"code"`
	Severity Severity  `json:"severity"`
	File     string    `json:"file,omitempty"`
	Line     int       `json:"line"`
	Where    string    `json:"where,omitempty"` // "", " at end" or " at 'lexeme'"
	Message  string    `json:"message"`
	Span     span.Span `json:"span"`
}

// String renders the diagnostic the way the driver prints it:
//
//	[line 3] Error at ';': Expect expression.
func (d Diagnostic) String() string {
	label := "Error"
	if d.Severity == Warning {
		label = "Warning"
	}
	return fmt.Sprintf("[line %d] %s%s: %s", d.Line, label, d.Where, d.Message)
}

// Errorf creates an error diagnostic at the given span.
func Errorf(code string, s span.Span, where, format string, args ...interface{}) Diagnostic {
	return Diagnostic{
		Code:     code,
		Severity: Error,
		Line:     s.Line(),
		Where:    where,
		Message:  fmt.Sprintf(format, args...),
		Span:     s,
	}
}

// Warningf creates a warning diagnostic at the given span.
func Warningf(code string, s span.Span, where, format string, args ...interface{}) Diagnostic {
	d := Errorf(code, s, where, format, args...)
	d.Severity = Warning
	return d
}

// InFile sets File on every diagnostic in diags that has none.
func InFile(diags []Diagnostic, file string) []Diagnostic {
	for i := range diags {
		if diags[i].File == "" {
			diags[i].File = file
		}
	}
	return diags
}

// HasErrors reports whether any diagnostic in diags is an error.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == Error {
			return true
		}
	}
	return false
}
