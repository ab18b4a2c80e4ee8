package rng

import "unsafe"

// jumpImpl advances state by the polynomial encoded in table, taking one
// permute step per bit of the table, lowest bit of table[0] first. The
// accumulated state replaces the original at the end.
func jumpImpl[T uint8 | uint16 | uint32 | uint64](state []T, table []T, permute func([]T) T) {
	var acc [8]T
	s := acc[:len(state)]

	var zero T
	bitWidth := int(unsafe.Sizeof(zero) * 8)

	for i := 0; i < len(table); i++ {
		for b := 0; b < bitWidth; b++ {
			if table[i]&(T(1)<<b) != 0 {
				for j := 0; j < len(state); j++ {
					s[j] ^= state[j]
				}
			}
			_ = permute(state)
		}
	}

	copy(state, s)
}
