// SPDX-License-Identifier: MIT
package bitint

import (
	"fmt"
	"testing"
)

func TestNextPowerOfTwo(t *testing.T) {
	tests := []struct {
		n        int
		expected int
	}{
		{-10, 1},     // Negative number
		{0, 1},       // Zero
		{1, 1},       // One
		{8, 8},       // Already power of two
		{10, 16},     // Not power of two
		{1000, 1024}, // Window sizing
		{3, 4},       // Small non-power
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d→%d", tt.n, tt.expected), func(t *testing.T) {
			if result := NextPowerOfTwo(tt.n); result != tt.expected {
				t.Errorf("NextPowerOfTwo(%d) = %d, expected %d", tt.n, result, tt.expected)
			}
		})
	}
}

func TestNextPowerOfTwoWidths(t *testing.T) {
	if got := NextPowerOfTwo(int32(1023)); got != 1024 {
		t.Errorf("int32: got %d", got)
	}
	if got := NextPowerOfTwo(int64(1<<30) + 1); got != 1<<31 {
		t.Errorf("int64: got %d", got)
	}
}

func TestPrevPowerOfTwo(t *testing.T) {
	tests := []struct {
		n        int
		expected int
	}{
		{-4, 0},
		{0, 0},
		{1, 1},
		{3, 2},
		{2048, 2048},
		{3000, 2048},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d→%d", tt.n, tt.expected), func(t *testing.T) {
			if result := PrevPowerOfTwo(tt.n); result != tt.expected {
				t.Errorf("PrevPowerOfTwo(%d) = %d, expected %d", tt.n, result, tt.expected)
			}
		})
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	tests := []struct {
		n        int
		expected bool
	}{
		{-2, false},     // Negative number
		{0, false},      // Zero
		{1, true},       // One
		{8, true},       // Power of two
		{10, false},     // Not power of two
		{1 << 20, true}, // Large power of two
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d→%t", tt.n, tt.expected), func(t *testing.T) {
			if result := IsPowerOfTwo(tt.n); result != tt.expected {
				t.Errorf("IsPowerOfTwo(%d) = %v, expected %v", tt.n, result, tt.expected)
			}
		})
	}
	if !IsPowerOfTwo(int64(1 << 40)) {
		t.Error("IsPowerOfTwo(1<<40) = false")
	}
}

func BenchmarkNextPowerOfTwo(b *testing.B) {
	var i int
	b.ReportAllocs()
	for b.Loop() {
		NextPowerOfTwo(i % 10000)
		i++
	}
}

func BenchmarkIsPowerOfTwo(b *testing.B) {
	var i int
	b.ReportAllocs()
	for b.Loop() {
		IsPowerOfTwo(i % 10000)
		i++
	}
}
