// gojlink
// Copyright (c) 2024 The gojlink Authors.
// SPDX-License-Identifier: MIT

package gojlink

import (
	"fmt"
	"math/bits"
)

const bitsPerByte = 8

// PackSize returns the minimal number of bytes required to represent value
// in unsigned binary. A value of zero still occupies one byte.
//
// Returns ErrInvalidArgument if value is negative.
func PackSize(value int64) (int, error) {
	if value < 0 {
		return 0, fmt.Errorf("%w: expected non-negative value, got %d", ErrInvalidArgument, value)
	}
	if value == 0 {
		return 1, nil
	}
	return (bits.Len64(uint64(value)) + bitsPerByte - 1) / bitsPerByte, nil
}

// Pack serializes value into its minimal little-endian byte representation.
//
// Returns ErrInvalidArgument if value is negative.
func Pack(value int64) ([]byte, error) {
	size, err := PackSize(value)
	if err != nil {
		return nil, err
	}
	return PackBits(value, size*bitsPerByte)
}

// PackBits serializes value little-endian into the number of bytes needed
// to hold nbits bits; byte i holds (value >> (8*i)) & 0xFF.
//
// Returns ErrInvalidArgument if value is negative or nbits is not positive.
func PackBits(value int64, nbits int) ([]byte, error) {
	if value < 0 {
		return nil, fmt.Errorf("%w: expected non-negative value, got %d", ErrInvalidArgument, value)
	}
	if nbits <= 0 {
		return nil, fmt.Errorf("%w: bit count must be greater than zero, got %d", ErrInvalidArgument, nbits)
	}
	buf := make([]byte, (nbits+bitsPerByte-1)/bitsPerByte)
	for i := range buf {
		buf[i] = byte(uint64(value) >> (i * bitsPerByte))
	}
	return buf, nil
}
