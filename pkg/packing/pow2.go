package packing

// NextPowerOfTwo returns the smallest power of two that is >= k.
//
// Zero maps to zero rather than one: the value is produced by the classic
// decrement-and-smear bit trick, whose decrement wraps for a zero input, and
// callers rely on that boundary. Negative values also return zero.
func NextPowerOfTwo(k int) int {
	if k <= 0 {
		return 0
	}
	v := uint64(k) - 1
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v |= v >> 32
	return int(v + 1)
}

// IsPowerOfTwo reports whether k is 2^n for some n >= 0.
func IsPowerOfTwo(k int) bool {
	return k > 0 && k&(k-1) == 0
}
