package util

import (
	"errors"
	"fmt"
	"strconv"
	"unsafe"
)

var ErrBadArrayLength = errors.New("hex string has the wrong length")

func RotL[T uint8 | uint16 | uint32 | uint64](x T, k uint) T {
	BitWidth := unsafe.Sizeof(x) * 8
	return (x << k) | (x >> (uint(BitWidth) - k))
}

func RotR[T uint8 | uint16 | uint32 | uint64](x T, k uint) T {
	BitWidth := unsafe.Sizeof(x) * 8
	return (x >> k) | (x << (uint(BitWidth) - k))
}

func ArrayToString[T uint8 | uint16 | uint32 | uint64](arr []T) string {
	ret := ""

	for _, v := range arr {
		bitWidth := int(unsafe.Sizeof(v) * 8)
		ret += fmt.Sprintf("%0[1]*[2]x", bitWidth/4, v)
	}

	return ret
}

// ParseArray is the inverse of ArrayToString for 64-bit words. s must hold
// exactly 16 hex digits per element of out.
func ParseArray(s string, out []uint64) error {
	if len(s) != len(out)*16 {
		return fmt.Errorf("%w (expected %d, got %d)", ErrBadArrayLength, len(out)*16, len(s))
	}

	for i := range out {
		v, err := strconv.ParseUint(s[i*16:(i+1)*16], 16, 64)
		if err != nil {
			return fmt.Errorf("word %d: %w", i, err)
		}

		out[i] = v
	}

	return nil
}
