// gojlink
// Copyright (c) 2024 The gojlink Authors.
// SPDX-License-Identifier: MIT

package cmsisdap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/durufle/gojlink/internal/phase"
)

func TestEncodeSWDSequence(t *testing.T) {
	t.Parallel()

	seqs := []sequence{
		{bits: 8, data: []byte{0xA5}},
		{bits: 3, input: true},
	}

	got := encodeSWDSequence(seqs)
	want := []byte{
		cmdSWDSequence, 2,
		8, 0xA5, // 8 output cycles, header byte
		seqInput | 3, // 3 captured cycles
	}
	assert.Equal(t, want, got)
}

func TestDecodeSWDSequence(t *testing.T) {
	t.Parallel()

	seqs := []sequence{
		{bits: 8, data: []byte{0xA5}},
		{bits: 3, input: true},
		{bits: 33, input: true},
	}

	resp := []byte{cmdSWDSequence, dapOK,
		0x01,                         // ack capture
		0xEF, 0xBE, 0xAD, 0xDE, 0x00, // data word + parity capture
	}
	captured, err := decodeSWDSequence(resp, seqs)
	require.NoError(t, err)
	require.Len(t, captured, 2)
	assert.Equal(t, []byte{0x01}, captured[0])
	assert.Equal(t, []byte{0xEF, 0xBE, 0xAD, 0xDE, 0x00}, captured[1])
}

func TestDecodeSWDSequenceErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		resp []byte
	}{
		{name: "too short", resp: []byte{cmdSWDSequence}},
		{name: "wrong command", resp: []byte{cmdInfo, dapOK}},
		{name: "probe error status", resp: []byte{cmdSWDSequence, 0xFF}},
		{name: "truncated capture", resp: []byte{cmdSWDSequence, dapOK}},
	}

	seqs := []sequence{{bits: 3, input: true}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := decodeSWDSequence(tt.resp, seqs)
			require.ErrorIs(t, err, ErrProtocol)
		})
	}
}

func TestSplitRunsReadTransaction(t *testing.T) {
	t.Parallel()

	tr := &phase.Tracker{}

	// Header: all host driven.
	seqs := splitRuns(tr, 0xA5, 8)
	require.Len(t, seqs, 1)
	assert.False(t, seqs[0].input)
	assert.Equal(t, []byte{0xA5}, seqs[0].data)

	// Acknowledge window: all captured.
	seqs = splitRuns(tr, 0, 3)
	require.Len(t, seqs, 1)
	assert.True(t, seqs[0].input)
	assert.Equal(t, 3, seqs[0].bits)

	// Data window: still the target's.
	seqs = splitRuns(tr, 0, 32)
	require.Len(t, seqs, 1)
	assert.True(t, seqs[0].input)
	assert.Equal(t, 32, seqs[0].bits)

	// Trailer: one captured parity cycle, then host idle clocks.
	seqs = splitRuns(tr, 0, 8)
	require.Len(t, seqs, 2)
	assert.True(t, seqs[0].input)
	assert.Equal(t, 1, seqs[0].bits)
	assert.False(t, seqs[1].input)
	assert.Equal(t, 7, seqs[1].bits)
}

func TestSplitRunsWriteTransaction(t *testing.T) {
	t.Parallel()

	tr := &phase.Tracker{}

	splitRuns(tr, 0x93, 8)

	seqs := splitRuns(tr, 0, 3)
	require.Len(t, seqs, 1)
	assert.True(t, seqs[0].input)

	// Turnaround, data and parity all come back to the host.
	for _, n := range []int{2, 32, 1} {
		seqs = splitRuns(tr, 0x12345678, n)
		require.Len(t, seqs, 1)
		assert.False(t, seqs[0].input, "window of %d bits", n)
	}
}

func TestEncodeSWJClock(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []byte{cmdSWJClock, 0x40, 0x42, 0x0F, 0x00}, encodeSWJClock(1_000_000))
}

func TestDecodeInfo(t *testing.T) {
	t.Parallel()

	payload, err := decodeInfo([]byte{cmdInfo, 2, 0x40, 0x00})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x40, 0x00}, payload)

	_, err = decodeInfo([]byte{cmdInfo, 5, 0x40})
	require.ErrorIs(t, err, ErrProtocol)
}

func TestDecodeConnect(t *testing.T) {
	t.Parallel()

	require.NoError(t, decodeConnect([]byte{cmdConnect, portSWD}, portSWD))
	require.ErrorIs(t, decodeConnect([]byte{cmdConnect, 0}, portSWD), ErrProtocol)
	require.ErrorIs(t, decodeConnect([]byte{cmdInfo, portSWD}, portSWD), ErrProtocol)
}
