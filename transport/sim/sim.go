// gojlink
// Copyright (c) 2024 The gojlink Authors.
// SPDX-License-Identifier: MIT

// Package sim provides an in-memory simulated SW-DP target.
//
// The simulator implements swd.Transport directly: it watches the bit
// stream the codec clocks at it, recognizes request headers, and drives
// acknowledge, data and parity bits into the receive pipeline exactly
// where a real probe would latch them. It backs four DP and four AP
// registers and can be scripted to answer WAIT or FAULT or to corrupt a
// read's parity bit, which makes it useful both for this module's own
// tests and for developing session layers without hardware.
package sim

import (
	"math/bits"

	"github.com/sirupsen/logrus"

	"github.com/durufle/gojlink/swd"
)

var logger = logrus.WithField("prefix", "swd.sim")

// DefaultIDCode is preloaded into DP register 0, the value of a Cortex-M4
// SW-DP.
const DefaultIDCode = 0x2BA01477

type state uint8

const (
	stIdle state = iota
	stHeader
	stAck
	stReadData
	stReadParity
	stReadTail
	stTurnaround
	stWriteData
	stWriteParity
)

// Target is a simulated SWD target. The zero value is not usable; call
// New. Like any swd.Transport it expects one transaction at a time from a
// single goroutine.
type Target struct {
	dp [4]uint32
	ap [4]uint32

	pipe []byte

	st     state
	header byte
	got    int
	remain int
	req    swd.Request

	status  swd.Status
	word    uint32 // word being driven (reads) or captured (writes)
	statusQ []swd.Status
	corrupt bool

	// ParityErrors counts write transactions whose data parity bit did
	// not match; their data is discarded, as a real DP would flag
	// WDATAERR.
	ParityErrors int
}

// Option configures a Target.
type Option func(*Target)

// WithIDCode sets the value of DP register 0.
func WithIDCode(code uint32) Option {
	return func(t *Target) { t.dp[0] = code }
}

// New returns a simulated target with DP register 0 holding an IDCODE and
// everything else zeroed.
func New(opts ...Option) *Target {
	t := &Target{}
	t.dp[0] = DefaultIDCode
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// DP returns the value of DP register index (0-3).
func (t *Target) DP(index uint8) uint32 { return t.dp[index&0x3] }

// AP returns the value of AP register index (0-3).
func (t *Target) AP(index uint8) uint32 { return t.ap[index&0x3] }

// SetDP stores v in DP register index (0-3).
func (t *Target) SetDP(index uint8, v uint32) { t.dp[index&0x3] = v }

// SetAP stores v in AP register index (0-3).
func (t *Target) SetAP(index uint8, v uint32) { t.ap[index&0x3] = v }

// QueueStatus scripts the acknowledge for upcoming transactions, first
// queued first served. With an empty queue every transaction is ACKed.
func (t *Target) QueueStatus(statuses ...swd.Status) {
	t.statusQ = append(t.statusQ, statuses...)
}

// CorruptNextReadParity makes the next read transaction drive a flipped
// parity bit, which the codec must classify as an invalid response.
func (t *Target) CorruptNextReadParity() {
	t.corrupt = true
}

// WriteBits implements swd.Transport.
func (t *Target) WriteBits(value uint32, n int) (uint32, error) {
	start := uint32(len(t.pipe))
	for i := 0; i < n; i++ {
		t.pipe = append(t.pipe, t.clock(byte(value>>i)&1))
	}
	return start, nil
}

// ReadBits implements swd.Transport.
func (t *Target) ReadBits(off uint32, n int) (uint32, error) {
	if int(off)+n > len(t.pipe) {
		return 0, swd.ErrPipelineRange
	}
	var v uint32
	for i := 0; i < n; i++ {
		v |= uint32(t.pipe[int(off)+i]) << i
	}
	return v, nil
}

// clock advances the target by one cycle: it consumes the host's bit and
// returns the bit that ends up latched in the pipeline, which is the
// target's own bit whenever the target drives the line.
func (t *Target) clock(hostBit byte) byte {
	switch t.st {
	case stIdle:
		if hostBit != 0 {
			t.header = 1
			t.got = 1
			t.st = stHeader
		}
		return hostBit

	case stHeader:
		t.header |= hostBit << t.got
		t.got++
		if t.got == 8 {
			t.beginTransaction()
		}
		return hostBit

	case stAck:
		b := byte(t.status>>t.got) & 1
		t.got++
		if t.got == 3 {
			t.afterAck()
		}
		return b

	case stReadData:
		b := byte(t.word>>t.got) & 1
		t.got++
		if t.got == 32 {
			t.st = stReadParity
		}
		return b

	case stReadParity:
		b := byte(bits.OnesCount32(t.word) & 1)
		if t.corrupt {
			b ^= 1
			t.corrupt = false
		}
		t.st = stReadTail
		t.remain = 7
		return b

	case stReadTail:
		t.remain--
		if t.remain == 0 {
			t.st = stIdle
		}
		return hostBit

	case stTurnaround:
		t.remain--
		if t.remain == 0 {
			t.st = stWriteData
			t.word = 0
			t.got = 0
		}
		return hostBit

	case stWriteData:
		t.word |= uint32(hostBit) << t.got
		t.got++
		if t.got == 32 {
			t.st = stWriteParity
		}
		return hostBit

	default: // stWriteParity
		t.commitWrite(hostBit)
		t.st = stIdle
		return hostBit
	}
}

// beginTransaction parses the collected header and sets up the phases
// that follow. A malformed byte is not a request and leaves the bus idle.
func (t *Target) beginTransaction() {
	req, err := swd.ParseRequest(t.header)
	if err != nil {
		logger.Debugf("ignoring non-request byte 0x%02X", t.header)
		t.st = stIdle
		return
	}
	t.req = req

	t.status = swd.StatusACK
	if len(t.statusQ) > 0 {
		t.status = t.statusQ[0]
		t.statusQ = t.statusQ[1:]
	}

	if req.Read {
		t.word = t.register()
	}
	logger.Debugf("%s addr=%d ap=%v -> %s", direction(req), req.Address, req.AccessPort, t.status)
	t.st = stAck
	t.got = 0
}

// afterAck routes into the data phase of the transaction's direction.
func (t *Target) afterAck() {
	t.got = 0
	if t.req.Read {
		t.st = stReadData
		return
	}
	t.st = stTurnaround
	t.remain = 2
}

// commitWrite stores the captured word if its parity bit checks out and
// the transaction was acknowledged.
func (t *Target) commitWrite(parityBit byte) {
	if parityBit != byte(bits.OnesCount32(t.word)&1) {
		t.ParityErrors++
		logger.Debugf("discarding write with bad parity, data=0x%08X", t.word)
		return
	}
	if t.status != swd.StatusACK {
		return
	}
	if t.req.AccessPort {
		t.ap[t.req.Address&0x3] = t.word
	} else {
		t.dp[t.req.Address&0x3] = t.word
	}
}

func (t *Target) register() uint32 {
	if t.req.AccessPort {
		return t.ap[t.req.Address&0x3]
	}
	return t.dp[t.req.Address&0x3]
}

func direction(req swd.Request) string {
	if req.Read {
		return "read"
	}
	return "write"
}
