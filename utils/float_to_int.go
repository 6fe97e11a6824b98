// SPDX-License-Identifier: EPL-2.0

package utils

// Float32ToInt16 scales a sample in [-1, 1] to int16, clamping values
// outside the range.
func Float32ToInt16(x float32) int16 {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}

	// 32767 keeps +1 from overflowing
	return int16(x * 32767.0)
}

// IntToInt16 rescales a signed integer sample of bitDepth bits to 16 bits.
func IntToInt16(v, bitDepth int) int16 {
	switch {
	case bitDepth > 16:
		return int16(v >> (bitDepth - 16))
	case bitDepth < 16 && bitDepth > 0:
		return int16(v << (16 - bitDepth))
	}
	return int16(v)
}
