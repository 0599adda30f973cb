package convert

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntToInt32Clamped(t *testing.T) {
	assert.Equal(t, int32(42), IntToInt32Clamped(42))
	assert.Equal(t, int32(math.MaxInt32), IntToInt32Clamped(math.MaxInt32+1))
	assert.Equal(t, int32(math.MinInt32), IntToInt32Clamped(math.MinInt32-1))
}

func TestIntToUintClamped(t *testing.T) {
	assert.Equal(t, uint(3), IntToUintClamped(3))
	assert.Equal(t, uint(0), IntToUintClamped(-1))
}

func TestFloatToIntClamped(t *testing.T) {
	assert.Equal(t, 2, FloatToIntClamped(2.9))
	assert.Equal(t, -2, FloatToIntClamped(-2.9))
	assert.Equal(t, 0, FloatToIntClamped(math.NaN()))
	assert.Equal(t, math.MaxInt, FloatToIntClamped(math.Inf(1)))
	assert.Equal(t, math.MinInt, FloatToIntClamped(math.Inf(-1)))
}
