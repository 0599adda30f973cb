// Package convert provides overflow-safe integer conversions.
package convert

import "math"

// IntToInt32Clamped converts v to int32, clamping at the int32 bounds.
func IntToInt32Clamped(v int) int32 {
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	if v < math.MinInt32 {
		return math.MinInt32
	}
	return int32(v)
}

// IntToUintClamped converts v to uint, mapping negatives to zero.
func IntToUintClamped(v int) uint {
	if v < 0 {
		return 0
	}
	return uint(v)
}

// FloatToIntClamped truncates f toward zero, clamping at the int bounds and
// mapping NaN to zero. JSON and protobuf numbers arrive as float64.
func FloatToIntClamped(f float64) int {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt:
		return math.MaxInt
	case f <= math.MinInt:
		return math.MinInt
	default:
		return int(f)
	}
}
