package mathx

import "golang.org/x/exp/constraints"

// Clamp limits v to [lo, hi]. If lo > hi, the bounds are swapped.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if hi < lo {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Between reports lo <= v && v <= hi (order-insensitive).
func Between[T constraints.Ordered](v, lo, hi T) bool {
	if hi < lo {
		lo, hi = hi, lo
	}
	return v >= lo && v <= hi
}

// StepIndex maps v onto a linear code where code k stands for lo + k*step.
// v is clamped to [lo, hi] first and values between two codes round down.
// step must be positive.
func StepIndex[T constraints.Integer](v, lo, hi, step T) T {
	return (Clamp(v, lo, hi) - lo) / step
}
