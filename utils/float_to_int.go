// SPDX-License-Identifier: EPL-2.0

package utils

import "math"

const (
	// negScale maps -1.0 onto math.MinInt16.
	negScale = 32768.0
	// posScale maps 1.0 onto math.MaxInt16.
	posScale = 32767.0
)

// Float32ToInt16 quantizes a normalized sample to signed 16-bit PCM.
//
// The sample is clamped to [-1, 1] first. Negative values are scaled by
// 32768 and the rest by 32767, so both ends of the range land exactly on
// the int16 extremes and nothing can overflow. The fractional part is
// truncated toward zero. NaN is treated as silence.
func Float32ToInt16(x float32) int16 {
	switch {
	case math.IsNaN(float64(x)):
		return 0
	case x >= 1:
		return math.MaxInt16
	case x <= -1:
		return math.MinInt16
	case x < 0:
		return int16(float64(x) * negScale)
	}

	return int16(float64(x) * posScale)
}

// Float32sToInt16s converts src into dst and returns the number of samples
// written, which is the shorter of the two lengths.
func Float32sToInt16s(dst []int16, src []float32) int {
	n := min(len(dst), len(src))
	for i := range n {
		dst[i] = Float32ToInt16(src[i])
	}

	return n
}

// Int16ToFloat32 is the inverse scaling of Float32ToInt16.
func Int16ToFloat32(v int16) float32 {
	if v < 0 {
		return float32(v) / negScale
	}

	return float32(v) / posScale
}

// IntToFloat32 normalizes a signed integer PCM sample of the given bit depth
// (8, 16, 24 or 32) to [-1, 1] using the same asymmetric scale.
// Unknown depths are treated as 16-bit.
func IntToFloat32(v int, bitDepth int) float32 {
	var full float64
	switch bitDepth {
	case 8:
		full = 1 << 7
	case 24:
		full = 1 << 23
	case 32:
		full = 1 << 31
	default:
		full = 1 << 15
	}

	if v < 0 {
		return float32(float64(v) / full)
	}

	return float32(float64(v) / (full - 1))
}
