// gojlink
// Copyright (c) 2024 The gojlink Authors.
// SPDX-License-Identifier: MIT

package cmsisdap

import (
	"errors"
	"fmt"

	gojlink "github.com/durufle/gojlink"
)

// CMSIS-DAP command IDs used by the SWD backend.
const (
	cmdInfo        = 0x00
	cmdConnect     = 0x02
	cmdDisconnect  = 0x03
	cmdSWJClock    = 0x11
	cmdSWDSequence = 0x1D
)

// DAP_Info IDs.
const (
	infoSerialNumber = 0x03
	infoFirmwareVer  = 0x04
	infoCapabilities = 0xF0
	infoPacketSize   = 0xFF
)

// Capability bits reported by DAP_Info Capabilities.
const (
	capSWD  = 0
	capJTAG = 1
)

// DAP_Connect ports.
const (
	portSWD = 1
)

const (
	dapOK = 0x00

	seqInput     = 0x80 // sequence info bit 7: target drives, capture SWDIO
	seqCountMask = 0x3F // bits 5:0, 0 encodes 64
	seqMaxBits   = 64
)

// ErrProtocol reports a malformed or failed CMSIS-DAP exchange.
var ErrProtocol = errors.New("CMSIS-DAP protocol error")

// sequence is one run of clock cycles within a DAP_SWD_Sequence command:
// either host-driven output bits (data holds the packed bits, LSB first)
// or target-driven input bits to capture.
type sequence struct {
	data  []byte
	bits  int
	input bool
}

func seqInfo(s sequence) byte {
	info := byte(s.bits & seqCountMask) // 64 wraps to 0, which encodes 64
	if s.input {
		info |= seqInput
	}
	return info
}

// encodeSWDSequence builds a DAP_SWD_Sequence request for the given runs.
func encodeSWDSequence(seqs []sequence) []byte {
	out := []byte{cmdSWDSequence, byte(len(seqs))}
	for _, s := range seqs {
		out = append(out, seqInfo(s))
		if !s.input {
			out = append(out, s.data[:(s.bits+7)/8]...)
		}
	}
	return out
}

// decodeSWDSequence parses the response to encodeSWDSequence and returns
// the captured bytes of each input run, in order.
func decodeSWDSequence(resp []byte, seqs []sequence) ([][]byte, error) {
	if len(resp) < 2 {
		return nil, fmt.Errorf("%w: SWD_Sequence response too short", ErrProtocol)
	}
	if resp[0] != cmdSWDSequence {
		return nil, fmt.Errorf("%w: unexpected response ID 0x%02X", ErrProtocol, resp[0])
	}
	if resp[1] != dapOK {
		return nil, fmt.Errorf("%w: SWD_Sequence failed with status 0x%02X", ErrProtocol, resp[1])
	}

	var captured [][]byte
	off := 2
	for _, s := range seqs {
		if !s.input {
			continue
		}
		n := (s.bits + 7) / 8
		if off+n > len(resp) {
			return nil, fmt.Errorf("%w: truncated capture data", ErrProtocol)
		}
		captured = append(captured, resp[off:off+n])
		off += n
	}
	return captured, nil
}

// encodeInfo builds a DAP_Info request.
func encodeInfo(id byte) []byte {
	return []byte{cmdInfo, id}
}

// decodeInfo returns the raw payload of a DAP_Info response.
func decodeInfo(resp []byte) ([]byte, error) {
	if len(resp) < 2 || resp[0] != cmdInfo {
		return nil, fmt.Errorf("%w: bad Info response", ErrProtocol)
	}
	n := int(resp[1])
	if len(resp) < 2+n {
		return nil, fmt.Errorf("%w: truncated Info response", ErrProtocol)
	}
	return resp[2 : 2+n], nil
}

// encodeConnect builds a DAP_Connect request for the given port.
func encodeConnect(port byte) []byte {
	return []byte{cmdConnect, port}
}

func decodeConnect(resp []byte, want byte) error {
	if len(resp) < 2 || resp[0] != cmdConnect {
		return fmt.Errorf("%w: bad Connect response", ErrProtocol)
	}
	if resp[1] != want {
		return fmt.Errorf("%w: probe connected port %d, want %d", ErrProtocol, resp[1], want)
	}
	return nil
}

func encodeDisconnect() []byte {
	return []byte{cmdDisconnect}
}

// encodeSWJClock builds a DAP_SWJ_Clock request, clock rate in Hz as a
// 32-bit little-endian word.
func encodeSWJClock(hz uint32) []byte {
	word, _ := gojlink.PackBits(int64(hz), 32)
	return append([]byte{cmdSWJClock}, word...)
}

// decodeStatus checks a plain [id, status] response.
func decodeStatus(resp []byte, id byte) error {
	if len(resp) < 2 || resp[0] != id {
		return fmt.Errorf("%w: bad response for command 0x%02X", ErrProtocol, id)
	}
	if resp[1] != dapOK {
		return fmt.Errorf("%w: command 0x%02X failed with status 0x%02X", ErrProtocol, id, resp[1])
	}
	return nil
}
