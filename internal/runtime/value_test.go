package runtime

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	a, b := 0.1, 0.2 // summed at run time, not folded as constants
	tests := []struct {
		in   float64
		want string
	}{
		{3.0, "3"},
		{3.5, "3.5"},
		{0, "0"},
		{-2, "-2"},
		{a + b, "0.30000000000000004"},
		{1.0 / 3.0, "0.3333333333333333"},
		{123456789, "123456789"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
		{math.NaN(), "NaN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatNumber(tt.in), "FormatNumber(%v)", tt.in)
	}
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "nil", Nil{}.String())
	assert.Equal(t, "true", Bool(true).String())
	assert.Equal(t, "false", Bool(false).String())
	assert.Equal(t, "raw text", String("raw text").String())
	assert.Equal(t, "7", Number(7).String())
}

func TestIsTruthy(t *testing.T) {
	assert.False(t, IsTruthy(Nil{}))
	assert.False(t, IsTruthy(Bool(false)))

	assert.True(t, IsTruthy(Bool(true)))
	assert.True(t, IsTruthy(Number(0)))
	assert.True(t, IsTruthy(String("")))
}

func TestIsEqual(t *testing.T) {
	assert.True(t, IsEqual(Nil{}, Nil{}))
	assert.True(t, IsEqual(Number(1), Number(1)))
	assert.True(t, IsEqual(String("a"), String("a")))
	assert.True(t, IsEqual(Bool(false), Bool(false)))

	assert.False(t, IsEqual(Number(1), String("1")))
	assert.False(t, IsEqual(Nil{}, Bool(false)))
	assert.False(t, IsEqual(Number(0), Bool(false)))
	assert.False(t, IsEqual(Number(math.NaN()), Number(math.NaN())))
}

func TestFromLiteral(t *testing.T) {
	assert.Equal(t, Number(2), FromLiteral(2.0))
	assert.Equal(t, String("s"), FromLiteral("s"))
	assert.Equal(t, Bool(true), FromLiteral(true))
	assert.Equal(t, Nil{}, FromLiteral(nil))
}
