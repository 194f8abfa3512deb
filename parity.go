// gojlink
// Copyright (c) 2024 The gojlink Authors.
// SPDX-License-Identifier: MIT

package gojlink

import (
	"fmt"
	"math/bits"
)

// Parity returns the 1-bit parity of n: 1 if n has an odd number of set
// bits in its binary representation, otherwise 0.
//
// Returns ErrInvalidArgument if n is negative.
func Parity(n int64) (uint8, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: parity of negative value %d", ErrInvalidArgument, n)
	}
	return uint8(bits.OnesCount64(uint64(n)) & 1), nil
}
