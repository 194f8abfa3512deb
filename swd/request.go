// gojlink
// Copyright (c) 2024 The gojlink Authors.
// SPDX-License-Identifier: MIT

package swd

import (
	"errors"
	"fmt"
	"math/bits"
)

// Request header bit positions, LSB first on the wire.
const (
	reqStart  = 1 << 0 // always 1
	reqAPnDP  = 1 << 1 // 1 = Access Port, 0 = Debug Port
	reqRnW    = 1 << 2 // 1 = read, 0 = write
	reqAddr2  = 1 << 3 // A[2]
	reqAddr3  = 1 << 4 // A[3]
	reqParity = 1 << 5 // XOR of bits 1-4
	reqStop   = 1 << 6 // always 0
	reqPark   = 1 << 7 // always 1

	reqVariable = reqAPnDP | reqRnW | reqAddr2 | reqAddr3
)

// ErrBadRequest reports an 8-bit value that is not a well-formed SWD
// request header: wrong start/stop/park framing or a parity bit that does
// not cover the four variable bits.
var ErrBadRequest = errors.New("malformed SWD request header")

// Request describes a single SWD request header. Address carries only the
// low two bits of the register address, A[3:2]; higher address bits are
// selected elsewhere (DP SELECT) and are not part of the header.
type Request struct {
	Address    uint8
	AccessPort bool // AP register space when true, DP otherwise
	Read       bool // read access when true, write otherwise
}

// Encode packs the request into its 8-bit wire form. The parity bit is
// computed here, once, from the four variable bits; start, stop and park
// are fixed by the protocol.
func (r Request) Encode() byte {
	v := byte(reqStart | reqPark)
	if r.AccessPort {
		v |= reqAPnDP
	}
	if r.Read {
		v |= reqRnW
	}
	if r.Address&0x1 != 0 {
		v |= reqAddr2
	}
	if r.Address&0x2 != 0 {
		v |= reqAddr3
	}
	if bits.OnesCount8(v&reqVariable)%2 != 0 {
		v |= reqParity
	}
	return v
}

// ParseRequest decodes an 8-bit header back into its fields, verifying the
// fixed framing bits and the parity bit.
func ParseRequest(v byte) (Request, error) {
	if v&reqStart == 0 || v&reqStop != 0 || v&reqPark == 0 {
		return Request{}, fmt.Errorf("%w: bad framing in 0x%02X", ErrBadRequest, v)
	}
	parity := byte(bits.OnesCount8(v&reqVariable) % 2)
	if parity != (v&reqParity)>>5 {
		return Request{}, fmt.Errorf("%w: parity mismatch in 0x%02X", ErrBadRequest, v)
	}
	req := Request{
		AccessPort: v&reqAPnDP != 0,
		Read:       v&reqRnW != 0,
	}
	if v&reqAddr2 != 0 {
		req.Address |= 0x1
	}
	if v&reqAddr3 != 0 {
		req.Address |= 0x2
	}
	return req, nil
}
