// SPDX-License-Identifier: EPL-2.0

package utils

import (
	"math"
	"testing"
)

func TestFloat32ToInt16(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input float32
		want  int16
	}{
		{name: "zero", input: 0.0, want: 0},
		{name: "max positive", input: 1.0, want: math.MaxInt16},
		{name: "max negative", input: -1.0, want: -math.MaxInt16},
		{name: "half positive", input: 0.5, want: 16383},
		{name: "half negative", input: -0.5, want: -16383},
		{name: "small positive", input: 0.001, want: 32},
		{name: "clamp over max", input: 1.5, want: math.MaxInt16},
		{name: "clamp way under min", input: -100.0, want: -math.MaxInt16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Float32ToInt16(tt.input); got != tt.want {
				t.Errorf("Float32ToInt16(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFloat32ToInt16Monotonic(t *testing.T) {
	t.Parallel()

	prev := Float32ToInt16(-1.0)
	for f := -0.99; f <= 1.0; f += 0.01 {
		curr := Float32ToInt16(float32(f))
		if curr < prev {
			t.Errorf("Float32ToInt16 not monotonic: f=%v gives %v, previous was %v", f, curr, prev)
		}
		prev = curr
	}
}

func TestIntToInt16(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		v        int
		bitDepth int
		want     int16
	}{
		{"16 bit passes through", -1234, 16, -1234},
		{"8 bit max", 127, 8, 127 << 8},
		{"8 bit min", -128, 8, math.MinInt16},
		{"24 bit max", 1<<23 - 1, 24, math.MaxInt16},
		{"24 bit min", -(1 << 23), 24, math.MinInt16},
		{"32 bit", 1 << 30, 32, 1 << 14},
		{"12 bit", 1, 12, 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := IntToInt16(tt.v, tt.bitDepth); got != tt.want {
				t.Errorf("IntToInt16(%d, %d) = %d, want %d", tt.v, tt.bitDepth, got, tt.want)
			}
		})
	}
}

func BenchmarkFloat32ToInt16Realistic(b *testing.B) {
	floatSamples := make([]float32, 8000)
	out := make([]byte, 16000)
	for i := range floatSamples {
		floatSamples[i] = float32(math.Sin(float64(i) * 0.1))
	}

	b.ReportAllocs()
	for range b.N {
		FloatsToS16LE(out, floatSamples)
	}
}
