// Package rng implements the xoshiro256++ 1.0 generator by David Blackman and
// Sebastiano Vigna (https://prng.di.unimi.it/).
//
// The generator is fast, has 256 bits of state and passes the usual
// statistical batteries. It is not a cryptographic generator.
//
// The state must never be all zero: the all-zero state maps to itself and the
// generator then outputs zero forever. Nothing here checks for it. Callers
// holding a 64-bit seed should expand it with a splitmix64 generator (see
// util/splitmix) instead of filling the words by hand.
//
// A Xoshiro256PPState is not safe for concurrent use. To use the generator
// from several goroutines, give each goroutine its own instance, derived from a
// common state with Jump (2^128 steps apart) or LongJump (2^192 steps apart).
package rng

import (
	"errors"
	"iter"

	"github.com/xor-shift/xoshiro/util"
)

var (
	xoshiro256PPJump = [4]uint64{
		0x180ec6d33cfd0aba,
		0xd5a61266f0c9392c,
		0xa9582618e03fc9aa,
		0x39abdc4529b1661c,
	}

	xoshiro256PPLongJump = [4]uint64{
		0x76e15d3efefdcbbf,
		0xc5004e441c522fb3,
		0x77710069854ee241,
		0x39109bb02acbe635,
	}
)

var ErrBadStateString = errors.New("rng: state must be 64 hex digits")

type Xoshiro256PPState struct {
	State [4]uint64
}

// NewXoshiro256PP returns a generator whose state is seed, verbatim.
func NewXoshiro256PP(seed [4]uint64) *Xoshiro256PPState {
	return &Xoshiro256PPState{
		State: seed,
	}
}

// ParseXoshiro256PP reads the form produced by String.
func ParseXoshiro256PP(s string) (*Xoshiro256PPState, error) {
	state := &Xoshiro256PPState{}

	if err := util.ParseArray(s, state.State[:]); err != nil {
		return nil, errors.Join(ErrBadStateString, err)
	}

	return state, nil
}

// Seed replaces the whole state. Outputs after Seed depend on seed alone.
func (state *Xoshiro256PPState) Seed(seed [4]uint64) {
	state.State = seed
}

func (state *Xoshiro256PPState) Next() uint64 {
	return xoshiro256PPPermuteState(state.State[:])
}

// Uint64 is Next under the name math/rand/v2 expects from a Source.
func (state *Xoshiro256PPState) Uint64() uint64 {
	return xoshiro256PPPermuteState(state.State[:])
}

// Jump is equivalent to 2^128 calls to Next. It can be used to generate 2^128
// non-overlapping subsequences for parallel computations.
func (state *Xoshiro256PPState) Jump() {
	jumpImpl(state.State[:], xoshiro256PPJump[:], xoshiro256PPPermuteState)
}

// LongJump is equivalent to 2^192 calls to Next. It can be used to generate
// 2^64 starting points, from each of which Jump will generate 2^64
// non-overlapping subsequences for parallel distributed computations.
func (state *Xoshiro256PPState) LongJump() {
	jumpImpl(state.State[:], xoshiro256PPLongJump[:], xoshiro256PPPermuteState)
}

// Values yields the output of one Next call per pull. The sequence never ends
// on its own and shares the generator's state: drawing from it and calling Next
// directly interleave over the same stream.
func (state *Xoshiro256PPState) Values() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		for yield(state.Next()) {
		}
	}
}

// Clone returns an independent generator with the same state.
func (state *Xoshiro256PPState) Clone() *Xoshiro256PPState {
	clone := *state
	return &clone
}

func (state *Xoshiro256PPState) IsZero() bool {
	return state.State == [4]uint64{}
}

func (state *Xoshiro256PPState) String() string {
	return util.ArrayToString(state.State[:])
}
