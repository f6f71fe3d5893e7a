package arena

import "math/bits"

// Alignment utilities for arena offsets. Allocation math rounds offsets to
// power-of-two boundaries relative to the arena's user-region base; the base
// itself is page-aligned, so alignments up to one page hold for absolute
// addresses as well.

// checkAlign validates that align is a power of two and returns its mask.
func checkAlign(align int) int {
	if align <= 0 || align&(align-1) != 0 {
		panic("arena: alignment must be a power of two")
	}
	return align - 1
}

// AlignUp returns n rounded up to the next multiple of align.
// align must be a power of two; anything else panics.
//
// Example:
//
//	AlignUp(1, 8)  = 8
//	AlignUp(8, 8)  = 8
//	AlignUp(9, 8)  = 16
func AlignUp(n, align int) int {
	mask := checkAlign(align)
	return (n + mask) & ^mask
}

// AlignDown returns n rounded down to the previous multiple of align.
// align must be a power of two; anything else panics.
//
// Example:
//
//	AlignDown(1, 8)  = 0
//	AlignDown(8, 8)  = 8
//	AlignDown(15, 8) = 8
func AlignDown(n, align int) int {
	mask := checkAlign(align)
	return n & ^mask
}

// ceilPow2 returns the smallest power of two greater than or equal to n.
// The result wraps negative when n exceeds the largest int power of two;
// callers treat that as "does not fit".
func ceilPow2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}
