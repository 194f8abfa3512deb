// gojlink
// Copyright (c) 2024 The gojlink Authors.
// SPDX-License-Identifier: MIT

package swd

import "errors"

// ErrPipelineRange reports a ReadBits call addressing bits that were never
// latched. Transports return it when an offset or count falls outside the
// receive pipeline.
var ErrPipelineRange = errors.New("pipeline offset out of range")

// Transport is the bit-clocking primitive a probe backend provides to the
// codec. Implementations latch every clocked bit, whichever side drove the
// line during that cycle, into a receive pipeline addressed by
// monotonically increasing offsets.
//
// The codec treats offsets as transport-assigned tokens: it never computes
// one from scratch, it only hands back offsets obtained from WriteBits,
// plus small fixed deltas to address the known-length phases that follow a
// window immediately. All bundled transports number the pipeline by
// individual clocked bits.
type Transport interface {
	// WriteBits clocks the low n bits of value onto the bus, least
	// significant bit first, and returns the pipeline offset at which
	// the bits observed during this window begin. Blocks until the
	// exchange completes.
	WriteBits(value uint32, n int) (uint32, error)

	// ReadBits returns n bits from the receive pipeline starting at
	// offset off, packed least significant bit first.
	ReadBits(off uint32, n int) (uint32, error)
}
