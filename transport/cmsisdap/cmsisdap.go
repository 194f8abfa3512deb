// gojlink
// Copyright (c) 2024 The gojlink Authors.
// SPDX-License-Identifier: MIT

// Package cmsisdap drives SWD through a CMSIS-DAP probe on USB.
//
// CMSIS-DAP firmware understands the SWD phase structure itself, but only
// through its transfer-block commands; this backend instead uses the raw
// DAP_SWD_Sequence command so it can expose the plain bit-pipeline
// contract of swd.Transport. Each WriteBits call is translated into one
// DAP_SWD_Sequence exchange whose output runs carry the host's bits and
// whose input runs capture the cycles where the target drives the line,
// as determined by the phase tracker.
package cmsisdap

import (
	"fmt"
	"time"

	"github.com/boljen/go-bitmap"
	"github.com/google/gousb"
	"github.com/sirupsen/logrus"

	gojlink "github.com/durufle/gojlink"
	"github.com/durufle/gojlink/internal/phase"
	"github.com/durufle/gojlink/swd"
)

var logger = logrus.WithField("prefix", "swd.cmsisdap")

const (
	defaultPacketSize = 64
	defaultTimeout    = 5 * time.Second
	defaultClockHz    = 1_000_000
)

// Probe is a CMSIS-DAP debug probe opened over USB bulk endpoints. It
// implements swd.Transport. A Probe serves one transaction at a time; it
// performs no locking of its own.
type Probe struct {
	ctx      *gousb.Context
	dev      *gousb.Device
	intf     *gousb.Interface
	intfDone func()
	epOut    *gousb.OutEndpoint
	epIn     *gousb.InEndpoint

	addr       string
	packetSize int
	timeout    time.Duration
	clockHz    uint32

	caps     bitmap.Bitmap
	serial   string
	firmware string

	tracker phase.Tracker
	pipe    []byte
}

// Option configures a Probe before it connects.
type Option func(*Probe)

// WithClock sets the SWD clock rate in Hz. The default is 1 MHz.
func WithClock(hz uint32) Option {
	return func(p *Probe) { p.clockHz = hz }
}

// WithTimeout sets the USB exchange timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Probe) { p.timeout = d }
}

// Open finds the probe with the given USB IDs, claims its CMSIS-DAP
// interface and connects it to the target in SWD mode.
func Open(vid, pid uint16, opts ...Option) (*Probe, error) {
	p := &Probe{
		addr:       fmt.Sprintf("%04x:%04x", vid, pid),
		packetSize: defaultPacketSize,
		timeout:    defaultTimeout,
		clockHz:    defaultClockHz,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.ctx = gousb.NewContext()
	dev, err := p.ctx.OpenDeviceWithVIDPID(gousb.ID(vid), gousb.ID(pid))
	if err != nil {
		p.ctx.Close()
		return nil, gojlink.NewTransportError("open", p.addr, err)
	}
	if dev == nil {
		p.ctx.Close()
		return nil, gojlink.NewTransportError("open", p.addr, fmt.Errorf("device not found"))
	}
	p.dev = dev

	// Linux binds a kernel HID driver to many probes.
	_ = dev.SetAutoDetach(true)

	if err := p.claim(); err != nil {
		p.teardown()
		return nil, gojlink.NewTransportError("claim interface", p.addr, err)
	}
	if err := p.connect(); err != nil {
		p.teardown()
		return nil, err
	}
	logger.Infof("opened CMSIS-DAP probe %s (serial %q, firmware %q)", p.addr, p.serial, p.firmware)
	return p, nil
}

// claim takes the vendor-specific interface and resolves its bulk
// endpoint pair.
func (p *Probe) claim() error {
	intf, done, err := p.dev.DefaultInterface()
	if err != nil {
		return err
	}
	p.intf = intf
	p.intfDone = done

	for _, ep := range intf.Setting.Endpoints {
		if ep.TransferType != gousb.TransferTypeBulk {
			continue
		}
		if ep.Direction == gousb.EndpointDirectionIn && p.epIn == nil {
			if p.epIn, err = intf.InEndpoint(ep.Number); err != nil {
				return err
			}
		}
		if ep.Direction == gousb.EndpointDirectionOut && p.epOut == nil {
			if p.epOut, err = intf.OutEndpoint(ep.Number); err != nil {
				return err
			}
		}
	}
	if p.epIn == nil || p.epOut == nil {
		return fmt.Errorf("no bulk endpoint pair on default interface")
	}
	return nil
}

// connect queries the probe's identity and capabilities, switches it to
// SWD mode and programs the clock.
func (p *Probe) connect() error {
	if raw, err := p.query(infoPacketSize); err == nil && len(raw) >= 2 {
		p.packetSize = int(raw[0]) | int(raw[1])<<8
	}
	if raw, err := p.query(infoSerialNumber); err == nil {
		p.serial = string(raw)
	}
	if raw, err := p.query(infoFirmwareVer); err == nil {
		p.firmware = string(raw)
	}

	raw, err := p.query(infoCapabilities)
	if err != nil {
		return err
	}
	p.caps = bitmap.New(8 * len(raw))
	for i, b := range raw {
		for j := 0; j < 8; j++ {
			p.caps.Set(8*i+j, b&(1<<j) != 0)
		}
	}
	if !p.caps.Get(capSWD) {
		return fmt.Errorf("%w: probe has no SWD capability", ErrProtocol)
	}

	resp, err := p.exchange(encodeConnect(portSWD))
	if err != nil {
		return err
	}
	if err := decodeConnect(resp, portSWD); err != nil {
		return err
	}

	resp, err = p.exchange(encodeSWJClock(p.clockHz))
	if err != nil {
		return err
	}
	return decodeStatus(resp, cmdSWJClock)
}

// Serial returns the probe's serial number string.
func (p *Probe) Serial() string { return p.serial }

// SupportsJTAG reports whether the probe firmware also offers JTAG.
func (p *Probe) SupportsJTAG() bool { return p.caps.Get(capJTAG) }

// WriteBits implements swd.Transport.
func (p *Probe) WriteBits(value uint32, n int) (uint32, error) {
	seqs := splitRuns(&p.tracker, value, n)

	resp, err := p.exchange(encodeSWDSequence(seqs))
	if err != nil {
		return 0, err
	}
	captured, err := decodeSWDSequence(resp, seqs)
	if err != nil {
		return 0, err
	}

	start := uint32(len(p.pipe))
	ci := 0
	for _, s := range seqs {
		buf := s.data
		if s.input {
			buf = captured[ci]
			ci++
		}
		for i := 0; i < s.bits; i++ {
			p.pipe = append(p.pipe, buf[i/8]>>(i%8)&1)
		}
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

// Close disconnects the probe and releases the USB interface.
func (p *Probe) Close() error {
	if p.dev == nil {
		return nil
	}
	_, err := p.exchange(encodeDisconnect())
	p.teardown()
	if err != nil {
		return err
	}
	return nil
}

func (p *Probe) teardown() {
	if p.intfDone != nil {
		p.intfDone()
		p.intfDone = nil
	}
	if p.dev != nil {
		p.dev.Close()
		p.dev = nil
	}
	if p.ctx != nil {
		p.ctx.Close()
		p.ctx = nil
	}
}

// query performs one DAP_Info exchange.
func (p *Probe) query(id byte) ([]byte, error) {
	resp, err := p.exchange(encodeInfo(id))
	if err != nil {
		return nil, err
	}
	return decodeInfo(resp)
}

// exchange writes one command packet and reads its response packet.
func (p *Probe) exchange(cmd []byte) ([]byte, error) {
	logger.Debugf("> % X", cmd)
	if _, err := p.epOut.Write(cmd); err != nil {
		return nil, gojlink.NewTransportError("write", p.addr, err)
	}
	buf := make([]byte, p.packetSize)
	n, err := p.epIn.Read(buf)
	if err != nil {
		return nil, gojlink.NewTransportError("read", p.addr, err)
	}
	logger.Debugf("< % X", buf[:n])
	return buf[:n], nil
}

// splitRuns feeds n bits of value through the phase tracker and groups
// consecutive cycles with the same driving side into sequence runs.
func splitRuns(tr *phase.Tracker, value uint32, n int) []sequence {
	var seqs []sequence
	for i := 0; i < n; i++ {
		bit := byte(value>>i) & 1
		input := tr.Next(bit) == phase.DirTarget

		if len(seqs) == 0 || seqs[len(seqs)-1].input != input || seqs[len(seqs)-1].bits == seqMaxBits {
			seqs = append(seqs, sequence{input: input})
		}
		cur := &seqs[len(seqs)-1]
		if !input {
			if cur.bits%8 == 0 {
				cur.data = append(cur.data, 0)
			}
			cur.data[len(cur.data)-1] |= bit << (cur.bits % 8)
		}
		cur.bits++
	}
	return seqs
}
