// gojlink
// Copyright (c) 2024 The gojlink Authors.
// SPDX-License-Identifier: MIT

package swd

import "math/bits"

// Fixed phase widths of the SWD wire format.
const (
	ackBits        = 3  // acknowledge phase
	dataBits       = 32 // data word
	turnaroundBits = 2  // driving side changes before a write's data phase
	trailerBits    = 8  // idle clocks that flush the transaction through the DP
	statusMask     = 0x7
)

// sendRequest clocks the 8-bit header followed by the 3-bit acknowledge
// window and returns the pipeline offset of the acknowledge phase. The ack
// window is clocked by the host but driven by the target; the offset it
// yields anchors every later read-back in the transaction.
func sendRequest(t Transport, req Request) (uint32, error) {
	if _, err := t.WriteBits(uint32(req.Encode()), 8); err != nil {
		return 0, err
	}
	return t.WriteBits(0, ackBits)
}

// dataParity is the 1-bit parity over all 32 data bits.
func dataParity(v uint32) uint32 {
	return uint32(bits.OnesCount32(v) & 1)
}

// ReadRequest is a single SWD read transaction. A ReadRequest is built per
// attempt, sent exactly once, and discarded; it holds no state beyond the
// header fields.
type ReadRequest struct {
	req Request
}

// NewReadRequest returns a read of register index address (A[3:2], 0-3)
// in the AP register space when ap is true, the DP space otherwise.
func NewReadRequest(address uint8, ap bool) *ReadRequest {
	return &ReadRequest{req: Request{Address: address & 0x3, AccessPort: ap, Read: true}}
}

// Send drives the full read transaction over t.
//
// After the request and acknowledge phases the bus must keep clocking
// through the 32-bit data window and eight trailer cycles so the target
// can drive its reply and the transaction is flushed through the SW-DP;
// both windows carry zero value from the host. The acknowledge, data and
// parity bits are then read back from the pipeline at fixed deltas from
// the acknowledge offset. An acknowledged word whose parity bit does not
// match is reported as StatusInvalid with the suspect data preserved.
func (r *ReadRequest) Send(t Transport) (Response, error) {
	ack, err := sendRequest(t, r.req)
	if err != nil {
		return Response{}, err
	}
	if _, err := t.WriteBits(0, dataBits); err != nil {
		return Response{}, err
	}
	if _, err := t.WriteBits(0, trailerBits); err != nil {
		return Response{}, err
	}

	status, err := t.ReadBits(ack, 8)
	if err != nil {
		return Response{}, err
	}
	status &= statusMask

	// The data window is read back regardless of status so the response
	// is fully populated even on WAIT and FAULT.
	data, err := t.ReadBits(ack+ackBits, dataBits)
	if err != nil {
		return Response{}, err
	}

	if Status(status) == StatusACK {
		parity, err := t.ReadBits(ack+ackBits+dataBits, 1)
		if err != nil {
			return Response{}, err
		}
		if parity&1 != dataParity(data) {
			return Response{Status: StatusInvalid, Data: data}, nil
		}
	}
	return Response{Status: Status(status), Data: data}, nil
}

// WriteRequest is a single SWD write transaction carrying the word to
// store. Like ReadRequest it is built per attempt and sent exactly once.
type WriteRequest struct {
	req  Request
	data uint32
}

// NewWriteRequest returns a write of data to register index address
// (A[3:2], 0-3) in the AP register space when ap is true, the DP space
// otherwise.
func NewWriteRequest(address uint8, ap bool, data uint32) *WriteRequest {
	return &WriteRequest{
		req:  Request{Address: address & 0x3, AccessPort: ap, Read: false},
		data: data,
	}
}

// Send drives the full write transaction over t.
//
// The target drives the line during the acknowledge phase, so a two-cycle
// turnaround hands the bus back to the host before the data phase;
// omitting it corrupts the framing. The data word is followed by its
// parity bit, then the acknowledge is read back from the pipeline. Write
// responses carry no data payload.
func (w *WriteRequest) Send(t Transport) (Response, error) {
	ack, err := sendRequest(t, w.req)
	if err != nil {
		return Response{}, err
	}
	if _, err := t.WriteBits(0, turnaroundBits); err != nil {
		return Response{}, err
	}
	if _, err := t.WriteBits(w.data, dataBits); err != nil {
		return Response{}, err
	}
	if _, err := t.WriteBits(dataParity(w.data), 1); err != nil {
		return Response{}, err
	}

	status, err := t.ReadBits(ack, 8)
	if err != nil {
		return Response{}, err
	}
	return Response{Status: Status(status & statusMask)}, nil
}
