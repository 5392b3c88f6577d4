package common

import "cmp"

// Coalesce returns the first of values that is not the zero value of T, or the zero value when
// every value is zero. Config loading uses it to fall back to defaults for blank settings.
//
// Parameters:
//   - values: candidates in priority order
//
// Returns:
//   - T: the first non-zero candidate
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// Clamp limits v to the closed range [lo, hi].
//
// Parameters:
//   - v: the value to clamp
//   - lo: the lower bound
//   - hi: the upper bound, must not be below lo
//
// Returns:
//   - T: lo if v < lo, hi if v > hi, v otherwise
func Clamp[T cmp.Ordered](v, lo, hi T) T {
	return min(max(v, lo), hi)
}
