// SPDX-License-Identifier: EPL-2.0

package utils

import "encoding/binary"

// PutS16LE writes samples as interleaved little-endian int16 into dst and
// returns the number of bytes written. dst must hold 2*len(samples) bytes.
func PutS16LE(dst []byte, samples []int16) int {
	for i, s := range samples {
		binary.LittleEndian.PutUint16(dst[2*i:], uint16(s))
	}
	return 2 * len(samples)
}

// FloatsToS16LE converts float samples in [-1, 1] to little-endian int16.
func FloatsToS16LE(dst []byte, src []float32) int {
	for i, f := range src {
		binary.LittleEndian.PutUint16(dst[2*i:], uint16(Float32ToInt16(f)))
	}
	return 2 * len(src)
}

// IntsToS16LE converts integer samples of bitDepth bits to little-endian int16.
func IntsToS16LE(dst []byte, src []int, bitDepth int) int {
	for i, v := range src {
		binary.LittleEndian.PutUint16(dst[2*i:], uint16(IntToInt16(v, bitDepth)))
	}
	return 2 * len(src)
}

// S16LE reads little-endian int16 samples from b into dst and returns how
// many were read.
func S16LE(dst []int16, b []byte) int {
	n := min(len(dst), len(b)/2)
	for i := range n {
		dst[i] = int16(binary.LittleEndian.Uint16(b[2*i:]))
	}
	return n
}
