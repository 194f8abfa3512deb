// gojlink
// Copyright (c) 2024 The gojlink Authors.
// SPDX-License-Identifier: MIT

// Package phase follows the SWD phase structure bit by bit so raw-wire
// transports know, per clock cycle, which side drives the data line.
//
// The codec in the swd package only hands transports a flat stream of bits
// to clock; it does not say where acknowledge or data windows fall. Probes
// with protocol-aware firmware do not care, but a transport that drives
// SWDIO directly (GPIO bit-bang, remote_bitbang) must release the line
// while the target answers. The tracker recovers that information from the
// stream itself: it spots request headers by their framing, then counts
// out the fixed-length phases that follow.
package phase

import "math/bits"

// Dir says which side of the link drives SWDIO during one clock cycle.
type Dir uint8

const (
	// DirHost means the probe drives the written bit onto the line.
	DirHost Dir = iota
	// DirTarget means the probe must release the line and sample it.
	DirTarget
)

type state uint8

const (
	stIdle     state = iota // waiting for a start bit
	stHeader                // collecting the remaining header bits
	stAck                   // 3 target-driven acknowledge bits
	stReadBack              // 32 data bits plus 1 parity bit, target driven
	stHostTail              // host-driven cycles that close the transaction
)

// Fixed phase widths, matching the sequences the codec emits.
const (
	headerBits    = 8
	ackBits       = 3
	readBackBits  = 33 // 32 data + 1 parity
	readTailBits  = 7  // trailer clocks left after the parity bit
	writeTailBits = 35 // 2 turnaround + 32 data + 1 parity

	headerRnW      = 1 << 2
	headerParity   = 1 << 5
	headerStop     = 1 << 6
	headerPark     = 1 << 7
	headerVariable = 0x1E // APnDP, RnW, A2, A3
)

// Tracker is the per-connection phase state machine. The zero value is
// ready to use and assumes an idle bus.
type Tracker struct {
	state  state
	header byte
	got    int
	remain int
	read   bool
}

// Next consumes the next host bit to be clocked and returns who drives
// SWDIO during that cycle. For DirTarget cycles the host bit is a
// don't-care; the codec clocks zeros there.
func (t *Tracker) Next(hostBit byte) Dir {
	switch t.state {
	case stIdle:
		// Idle clocks are zeros; a one is a start bit.
		if hostBit&1 != 0 {
			t.header = 1
			t.got = 1
			t.state = stHeader
		}
		return DirHost

	case stHeader:
		t.header |= (hostBit & 1) << t.got
		t.got++
		if t.got == headerBits {
			t.dispatchHeader()
		}
		return DirHost

	case stAck:
		t.remain--
		if t.remain == 0 {
			if t.read {
				t.state = stReadBack
				t.remain = readBackBits
			} else {
				t.state = stHostTail
				t.remain = writeTailBits
			}
		}
		return DirTarget

	case stReadBack:
		t.remain--
		if t.remain == 0 {
			t.state = stHostTail
			t.remain = readTailBits
		}
		return DirTarget

	default: // stHostTail
		t.remain--
		if t.remain == 0 {
			t.state = stIdle
		}
		return DirHost
	}
}

// Reset returns the tracker to the idle state, e.g. after a line reset.
func (t *Tracker) Reset() {
	*t = Tracker{}
}

// dispatchHeader decides the phases following a complete header. A byte
// with broken framing or parity is not a request; the line is treated as
// still idle.
func (t *Tracker) dispatchHeader() {
	ok := t.header&headerStop == 0 && t.header&headerPark != 0 &&
		byte(bits.OnesCount8(t.header&headerVariable)%2) == (t.header&headerParity)>>5
	if !ok {
		t.state = stIdle
		return
	}
	t.read = t.header&headerRnW != 0
	t.state = stAck
	t.remain = ackBits
}
