// Package runtime implements the tree-walking evaluator and the runtime value
// system for Lox.
package runtime

import (
	"math"
	"strconv"
)

// Value is a Lox runtime value. The set of implementations is closed:
// Number, String, Bool and Nil.
type Value interface {
	TypeName() string
	String() string
	value()
}

// Number is a double-precision Lox number.
type Number float64

func (Number) value()           {}
func (Number) TypeName() string { return "number" }
func (v Number) String() string { return FormatNumber(float64(v)) }

// String is a Lox string.
type String string

func (String) value()           {}
func (String) TypeName() string { return "string" }
func (v String) String() string { return string(v) }

// Bool is a Lox boolean.
type Bool bool

func (Bool) value()           {}
func (Bool) TypeName() string { return "boolean" }
func (v Bool) String() string { return strconv.FormatBool(bool(v)) }

// Nil is the Lox nil value.
type Nil struct{}

func (Nil) value()           {}
func (Nil) TypeName() string { return "nil" }
func (Nil) String() string   { return "nil" }

// FormatNumber renders n with the fewest digits that round-trip. Integral
// values print without a fractional part: 3.0 prints as "3".
func FormatNumber(n float64) string {
	switch {
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	case math.IsNaN(n):
		return "NaN"
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// FromLiteral converts a literal decoded by the lexer or parser into a
// runtime value.
func FromLiteral(lit interface{}) Value {
	switch v := lit.(type) {
	case float64:
		return Number(v)
	case string:
		return String(v)
	case bool:
		return Bool(v)
	default:
		return Nil{}
	}
}

// IsTruthy reports the truthiness of v: nil and false are falsy, everything
// else (including 0 and "") is truthy.
func IsTruthy(v Value) bool {
	switch val := v.(type) {
	case Nil:
		return false
	case Bool:
		return bool(val)
	default:
		return true
	}
}

// IsEqual compares two values. Values of different variants are never
// equal; nil equals only nil. Numbers follow IEEE comparison, so NaN is not
// equal to itself.
func IsEqual(a, b Value) bool {
	switch av := a.(type) {
	case Nil:
		_, ok := b.(Nil)
		return ok
	case Number:
		bv, ok := b.(Number)
		return ok && av == bv
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	}
	return false
}
