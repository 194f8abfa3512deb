// gojlink
// Copyright (c) 2024 The gojlink Authors.
// SPDX-License-Identifier: MIT

package bitbang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/durufle/gojlink/swd"
)

// scriptPin serves scripted levels to Read, one per sampled cycle, and
// keeps gpiotest behavior for everything else.
type scriptPin struct {
	*gpiotest.Pin
	levels []gpio.Level
}

func (p *scriptPin) Read() gpio.Level {
	if len(p.levels) == 0 {
		return gpio.Low
	}
	l := p.levels[0]
	p.levels = p.levels[1:]
	return l
}

// levelsOf expands the low n bits of v, LSB first, into pin levels.
func levelsOf(v uint64, n int) []gpio.Level {
	out := make([]gpio.Level, n)
	for i := range out {
		out[i] = gpio.Level(v>>i&1 != 0)
	}
	return out
}

func newTestProbe(t *testing.T, script []gpio.Level) *Probe {
	t.Helper()
	clk := &gpiotest.Pin{N: "SWCLK", Num: 11}
	dio := &scriptPin{
		Pin:    &gpiotest.Pin{N: "SWDIO", Num: 25},
		levels: script,
	}
	p, err := NewPins(clk, dio, WithClockRate(10_000_000))
	require.NoError(t, err)
	return p
}

func TestWriteTransaction(t *testing.T) {
	t.Parallel()

	// The target is sampled during the 3-bit acknowledge window only.
	p := newTestProbe(t, levelsOf(uint64(swd.StatusACK), 3))

	resp, err := swd.NewWriteRequest(2, true, 0x12345678).Send(p)
	require.NoError(t, err)
	assert.True(t, resp.ACK())
}

func TestReadTransaction(t *testing.T) {
	t.Parallel()

	const word = 0xDEADBEEF // even population count, parity 0

	var script []gpio.Level
	script = append(script, levelsOf(uint64(swd.StatusACK), 3)...)
	script = append(script, levelsOf(word, 32)...)
	script = append(script, gpio.Low) // parity bit

	p := newTestProbe(t, script)

	resp, err := swd.NewReadRequest(0, false).Send(p)
	require.NoError(t, err)
	assert.True(t, resp.ACK())
	assert.Equal(t, uint32(word), resp.Data)
}

func TestReadTransactionBadParity(t *testing.T) {
	t.Parallel()

	const word = 0xDEADBEEF

	var script []gpio.Level
	script = append(script, levelsOf(uint64(swd.StatusACK), 3)...)
	script = append(script, levelsOf(word, 32)...)
	script = append(script, gpio.High) // wrong parity

	p := newTestProbe(t, script)

	resp, err := swd.NewReadRequest(0, false).Send(p)
	require.NoError(t, err)
	assert.True(t, resp.Invalid())
	assert.Equal(t, uint32(word), resp.Data)
}

func TestPipelineNumbersEveryCycle(t *testing.T) {
	t.Parallel()

	p := newTestProbe(t, levelsOf(uint64(swd.StatusWait), 3))

	// Header occupies offsets 0-7, the acknowledge window starts at 8.
	off, err := p.WriteBits(0xA5, 8)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), off)

	ack, err := p.WriteBits(0, 3)
	require.NoError(t, err)
	assert.Equal(t, uint32(8), ack)

	got, err := p.ReadBits(ack, 3)
	require.NoError(t, err)
	assert.Equal(t, uint32(swd.StatusWait), got)

	// Header bits read back exactly as driven.
	hdr, err := p.ReadBits(0, 8)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xA5), hdr)

	_, err = p.ReadBits(8, 32)
	require.ErrorIs(t, err, swd.ErrPipelineRange)
}
