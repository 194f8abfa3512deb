// gojlink
// Copyright (c) 2024 The gojlink Authors.
// SPDX-License-Identifier: MIT

package swd

// Status classifies the outcome of one SWD transaction. The three positive
// values are the 3-bit acknowledge codes defined by the protocol, exactly
// as they appear on the wire. StatusInvalid never crosses the wire: the
// read path synthesizes it locally when the data parity bit read back does
// not match the parity of the data word.
type Status int8

const (
	StatusACK     Status = 1 << 0
	StatusWait    Status = 1 << 1
	StatusFault   Status = 1 << 2
	StatusInvalid Status = -1
)

// String returns the conventional name of the status code.
func (s Status) String() string {
	switch s {
	case StatusACK:
		return "ACK"
	case StatusWait:
		return "WAIT"
	case StatusFault:
		return "FAULT"
	case StatusInvalid:
		return "INVALID"
	}
	return "UNKNOWN"
}

// Response is the structured outcome of a transaction: a status
// classification plus, for reads, the 32-bit data word. Data is populated
// even for WAIT, FAULT and INVALID outcomes so callers can inspect the
// suspect value, but it carries no meaning unless the status is ACK.
type Response struct {
	Status Status
	Data   uint32
}

// ACK reports whether the target acknowledged the transaction.
func (r Response) ACK() bool {
	return r.Status == StatusACK
}

// Wait reports whether the target asked the host to retry later.
func (r Response) Wait() bool {
	return r.Status == StatusWait
}

// Fault reports whether the target signalled a fault.
func (r Response) Fault() bool {
	return r.Status == StatusFault
}

// Invalid reports whether the read data failed its local parity check.
func (r Response) Invalid() bool {
	return r.Status == StatusInvalid
}
