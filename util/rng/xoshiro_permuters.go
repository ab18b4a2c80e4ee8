package rng

import "github.com/xor-shift/xoshiro/util"

// permutes a [4]uint64 state according to xoshiro256++
// https://prng.di.unimi.it/xoshiro256plusplus.c
func xoshiro256PPPermuteState(s []uint64) (result uint64) {
	_ = s[3]

	result = util.RotL(s[0]+s[3], 23) + s[0]

	t := s[1] << 17

	s[2] ^= s[0]
	s[3] ^= s[1]
	s[1] ^= s[2]
	s[0] ^= s[3]

	s[2] ^= t

	s[3] = util.RotL(s[3], 45)

	return result
}
