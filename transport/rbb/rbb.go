// gojlink
// Copyright (c) 2024 The gojlink Authors.
// SPDX-License-Identifier: MIT

// Package rbb speaks the OpenOCD remote_bitbang wire protocol.
//
// remote_bitbang is a one-character-per-action ASCII protocol: the host
// sends a byte for every pin change and the server answers sample
// requests with '0' or '1'. Its SWD extension uses 'O'/'o' to enable and
// release the SWDIO driver, 'd'..'g' to set the clock/data pair, and 'c'
// to sample the line. OpenOCD ships this driver for simulators and
// network-attached adapters; anything that can speak it over a TCP
// socket or a serial port works as a probe here.
package rbb

import (
	"fmt"
	"io"
	"net"

	"github.com/sirupsen/logrus"
	"go.bug.st/serial"

	gojlink "github.com/durufle/gojlink"
	"github.com/durufle/gojlink/internal/phase"
	"github.com/durufle/gojlink/swd"
)

var logger = logrus.WithField("prefix", "swd.rbb")

// Protocol characters, as defined by OpenOCD's remote_bitbang driver.
// A write character encodes clock and data together: 'd' + dio + 2*clk.
const (
	chrDriveOn  = 'O'
	chrDriveOff = 'o'
	chrSample   = 'c'
	chrWrite    = 'd'
	chrQuit     = 'Q'
)

const defaultBaudRate = 115200

// Probe drives SWD through a remote_bitbang server. It implements
// swd.Transport.
type Probe struct {
	conn io.ReadWriteCloser
	addr string

	driving bool
	buf     []byte // pending protocol characters, flushed before a sample
	tracker phase.Tracker
	pipe    []byte
}

// Dial connects to a remote_bitbang server over TCP, e.g.
// "localhost:3335".
func Dial(addr string) (*Probe, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, gojlink.NewTransportError("dial", addr, err)
	}
	return NewConn(conn, addr), nil
}

// OpenSerial connects to a remote_bitbang server behind a serial port. A
// baud of 0 selects 115200.
func OpenSerial(port string, baud int) (*Probe, error) {
	if baud == 0 {
		baud = defaultBaudRate
	}
	p, err := serial.Open(port, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, gojlink.NewTransportError("open", port, err)
	}
	return NewConn(p, port), nil
}

// NewConn wraps an established remote_bitbang connection.
func NewConn(conn io.ReadWriteCloser, addr string) *Probe {
	logger.Debugf("remote_bitbang probe on %s", addr)
	return &Probe{conn: conn, addr: addr, driving: true}
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
	if err := p.flush(); err != nil {
		return 0, err
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

// Close tells the server to quit and closes the connection.
func (p *Probe) Close() error {
	p.buf = append(p.buf, chrQuit)
	err := p.flush()
	if cerr := p.conn.Close(); err == nil {
		err = cerr
	}
	return err
}

// clockOut queues one host-driven cycle: data valid while the clock is
// low, then the rising edge.
func (p *Probe) clockOut(bit byte) (byte, error) {
	p.setDrive(true)
	p.buf = append(p.buf, chrWrite+bit, chrWrite+bit+2)
	return bit, nil
}

// clockIn releases the line, samples it while the clock is low and then
// queues the rising edge. The sample forces a round trip.
func (p *Probe) clockIn() (byte, error) {
	p.setDrive(false)
	p.buf = append(p.buf, chrSample)
	if err := p.flush(); err != nil {
		return 0, err
	}

	var reply [1]byte
	if _, err := io.ReadFull(p.conn, reply[:]); err != nil {
		return 0, gojlink.NewTransportError("sample", p.addr, err)
	}
	var bit byte
	switch reply[0] {
	case '0':
	case '1':
		bit = 1
	default:
		return 0, gojlink.NewTransportError("sample", p.addr,
			fmt.Errorf("unexpected reply %q", reply[0]))
	}

	p.buf = append(p.buf, chrWrite, chrWrite+2)
	return bit, nil
}

func (p *Probe) setDrive(on bool) {
	if p.driving == on {
		return
	}
	if on {
		p.buf = append(p.buf, chrDriveOn)
	} else {
		p.buf = append(p.buf, chrDriveOff)
	}
	p.driving = on
}

func (p *Probe) flush() error {
	if len(p.buf) == 0 {
		return nil
	}
	logger.Debugf("> %s", p.buf)
	if _, err := p.conn.Write(p.buf); err != nil {
		return gojlink.NewTransportError("write", p.addr, err)
	}
	p.buf = p.buf[:0]
	return nil
}
