// gojlink
// Copyright (c) 2024 The gojlink Authors.
// SPDX-License-Identifier: MIT

// Package bitbang clocks SWD directly on two GPIO lines.
//
// This is the probe-less backend for boards whose pins are reachable
// through periph.io, such as a Raspberry Pi wired straight to a target's
// SWCLK/SWDIO pads. The data line is bidirectional: the backend follows
// the phase tracker and flips SWDIO between output and input exactly at
// the cycles where the target takes over, sampling the line into the
// receive pipeline on every clock either way.
package bitbang

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	gojlink "github.com/durufle/gojlink"
	"github.com/durufle/gojlink/internal/phase"
	"github.com/durufle/gojlink/swd"
)

var logger = logrus.WithField("prefix", "swd.bitbang")

const defaultClockHz = 100_000

// Probe bit-bangs SWD over a clock and a data pin. It implements
// swd.Transport.
type Probe struct {
	swclk gpio.PinIO
	swdio gpio.PinIO

	half    time.Duration // half clock period
	output  bool          // current SWDIO direction
	tracker phase.Tracker
	pipe    []byte
}

// Option configures a Probe.
type Option func(*Probe)

// WithClockRate sets the bit clock in Hz. The default is 100 kHz, which
// software-timed GPIO can usually sustain.
func WithClockRate(hz int) Option {
	return func(p *Probe) { p.half = time.Second / time.Duration(2*hz) }
}

// New resolves the two pins by their periph.io names (e.g. "GPIO11",
// "GPIO25") and prepares them for SWD.
func New(clkName, dioName string, opts ...Option) (*Probe, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("initializing periph host: %w", err)
	}
	clk := gpioreg.ByName(clkName)
	if clk == nil {
		return nil, fmt.Errorf("%w: no such pin %q", gojlink.ErrInvalidArgument, clkName)
	}
	dio := gpioreg.ByName(dioName)
	if dio == nil {
		return nil, fmt.Errorf("%w: no such pin %q", gojlink.ErrInvalidArgument, dioName)
	}
	return NewPins(clk, dio, opts...)
}

// NewPins builds a Probe on explicit pins, for wirings that are not in
// the periph registry.
func NewPins(clk, dio gpio.PinIO, opts ...Option) (*Probe, error) {
	p := &Probe{
		swclk: clk,
		swdio: dio,
		half:  time.Second / time.Duration(2*defaultClockHz),
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := clk.Out(gpio.Low); err != nil {
		return nil, gojlink.NewTransportError("configure", clk.Name(), err)
	}
	if err := p.setOutput(true); err != nil {
		return nil, err
	}
	logger.Debugf("bit-banging SWD on %s/%s at %v per half cycle", clk.Name(), dio.Name(), p.half)
	return p, nil
}

// WriteBits implements swd.Transport.
func (p *Probe) WriteBits(value uint32, n int) (uint32, error) {
	start := uint32(len(p.pipe))
	for i := 0; i < n; i++ {
		bit := byte(value>>i) & 1

		var latched byte
		var err error
		if p.tracker.Next(bit) == phase.DirHost {
			latched, err = p.clockOut(bit)
		} else {
			latched, err = p.clockIn()
		}
		if err != nil {
			return 0, err
		}
		p.pipe = append(p.pipe, latched)
	}
	return start, nil
}

// ReadBits implements swd.Transport.
func (p *Probe) ReadBits(off uint32, n int) (uint32, error) {
	if int(off)+n > len(p.pipe) {
		return 0, swd.ErrPipelineRange
	}
	var v uint32
	for i := 0; i < n; i++ {
		v |= uint32(p.pipe[int(off)+i]) << i
	}
	return v, nil
}

// Close parks both lines as inputs so the target is free to run.
func (p *Probe) Close() error {
	if err := p.swdio.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return gojlink.NewTransportError("release", p.swdio.Name(), err)
	}
	if err := p.swclk.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return gojlink.NewTransportError("release", p.swclk.Name(), err)
	}
	return nil
}

// clockOut drives one host bit: data valid before the rising edge, target
// samples on the rising edge.
func (p *Probe) clockOut(bit byte) (byte, error) {
	if err := p.setOutput(true); err != nil {
		return 0, err
	}
	if err := p.swdio.Out(gpio.Level(bit != 0)); err != nil {
		return 0, gojlink.NewTransportError("drive", p.swdio.Name(), err)
	}
	if err := p.pulseClock(); err != nil {
		return 0, err
	}
	return bit, nil
}

// clockIn samples one target bit: the line is read while the clock is
// low, just before the rising edge on which the target advances.
func (p *Probe) clockIn() (byte, error) {
	if err := p.setOutput(false); err != nil {
		return 0, err
	}
	var bit byte
	if p.swdio.Read() == gpio.High {
		bit = 1
	}
	if err := p.pulseClock(); err != nil {
		return 0, err
	}
	return bit, nil
}

func (p *Probe) pulseClock() error {
	if err := p.swclk.Out(gpio.High); err != nil {
		return gojlink.NewTransportError("clock", p.swclk.Name(), err)
	}
	time.Sleep(p.half)
	if err := p.swclk.Out(gpio.Low); err != nil {
		return gojlink.NewTransportError("clock", p.swclk.Name(), err)
	}
	time.Sleep(p.half)
	return nil
}

// setOutput flips the SWDIO direction when it differs from the current
// one. The pull-up on input matches the line's idle state.
func (p *Probe) setOutput(out bool) error {
	if p.output == out {
		return nil
	}
	var err error
	if out {
		err = p.swdio.Out(gpio.Low)
	} else {
		err = p.swdio.In(gpio.PullUp, gpio.NoEdge)
	}
	if err != nil {
		return gojlink.NewTransportError("turnaround", p.swdio.Name(), err)
	}
	p.output = out
	return nil
}
