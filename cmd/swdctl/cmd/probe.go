// gojlink
// Copyright (c) 2024 The gojlink Authors.
// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"

	gojlink "github.com/durufle/gojlink"
	"github.com/durufle/gojlink/swd"
	"github.com/durufle/gojlink/transport/bitbang"
	"github.com/durufle/gojlink/transport/cmsisdap"
	"github.com/durufle/gojlink/transport/rbb"
	"github.com/durufle/gojlink/transport/sim"
)

// openProbe opens the configured backend. The returned closer releases
// the probe and any lock guarding it.
func openProbe(cfg Config) (swd.Transport, func() error, error) {
	switch cfg.Transport {
	case "sim", "simulator":
		return sim.New(), func() error { return nil }, nil

	case "cmsisdap":
		lock := gojlink.NewProbeLock(uint32(cfg.CMSISDAP.VID)<<16 | uint32(cfg.CMSISDAP.PID))
		ok, err := lock.Acquire()
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s", gojlink.ErrProbeLocked, lock.Path)
		}
		var opts []cmsisdap.Option
		if cfg.ClockHz > 0 {
			opts = append(opts, cmsisdap.WithClock(uint32(cfg.ClockHz)))
		}
		p, err := cmsisdap.Open(cfg.CMSISDAP.VID, cfg.CMSISDAP.PID, opts...)
		if err != nil {
			lock.Release()
			return nil, nil, err
		}
		return p, func() error {
			err := p.Close()
			lock.Release()
			return err
		}, nil

	case "bitbang":
		var opts []bitbang.Option
		if cfg.ClockHz > 0 {
			opts = append(opts, bitbang.WithClockRate(cfg.ClockHz))
		}
		p, err := bitbang.New(cfg.Bitbang.SWCLK, cfg.Bitbang.SWDIO, opts...)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil

	case "rbb":
		var p *rbb.Probe
		var err error
		if cfg.RBB.Port != "" {
			p, err = rbb.OpenSerial(cfg.RBB.Port, cfg.RBB.Baud)
		} else {
			p, err = rbb.Dial(cfg.RBB.Address)
		}
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil

	default:
		return nil, nil, fmt.Errorf("%w: unknown transport %q", gojlink.ErrInvalidArgument, cfg.Transport)
	}
}

// checkStatus turns a non-ACK response into an error.
func checkStatus(resp swd.Response) error {
	if resp.ACK() {
		return nil
	}
	return fmt.Errorf("target answered %s", resp.Status)
}
