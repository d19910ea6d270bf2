// Package bitint has the power-of-two helpers used to size analysis windows.
// They never allocate or block.
//
//	size := bitint.NextPowerOfTwo(1000) // 1024
//	ok := bitint.IsPowerOfTwo(size)     // true
package bitint

import "math/bits"

// Signed is the set of integer types the helpers accept.
type Signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// NextPowerOfTwo returns the smallest power of two >= n, and 1 for n <= 0.
//
// The highest set bit of n-1 gives the shift; subtracting first keeps an
// exact power unchanged (8-1 = 0b0111, Len = 3, 1<<3 = 8).
func NextPowerOfTwo[T Signed](n T) T {
	if n <= 1 {
		return 1
	}
	return T(1) << bits.Len64(uint64(n-1))
}

// PrevPowerOfTwo returns the largest power of two <= n, and 0 for n <= 0.
func PrevPowerOfTwo[T Signed](n T) T {
	if n <= 0 {
		return 0
	}
	return T(1) << (bits.Len64(uint64(n)) - 1)
}

// IsPowerOfTwo reports whether n is a positive power of two. A power of two
// has a single set bit, so clearing the lowest set bit leaves zero.
func IsPowerOfTwo[T Signed](n T) bool {
	return n > 0 && n&(n-1) == 0
}
