// Package splitmix implements splitmix64, used to expand a 64-bit seed into
// the 256-bit state of a xoshiro256++ generator.
package splitmix

const IncrementConstant = 0x9e3779b97f4a7c15

func mix(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Next advances state and returns the next output.
func Next(state *uint64) uint64 {
	*state += IncrementConstant
	return mix(*state)
}

// Expand fills a 256-bit state with the first four outputs of a splitmix64
// generator seeded with seed.
func Expand(seed uint64) [4]uint64 {
	return [4]uint64{
		Next(&seed),
		Next(&seed),
		Next(&seed),
		Next(&seed),
	}
}
