// gojlink
// Copyright (c) 2024 The gojlink Authors.
// SPDX-License-Identifier: MIT

/*
Package gojlink provides building blocks for talking to ARM debug targets
over Serial Wire Debug (SWD) through a bit-clocking debug probe.

The package is split in two layers. The root package holds small leaf
utilities shared by everything above it: integer byte packing, bit parity,
typed errors, and a PID lockfile that serializes access to a physical probe
across processes. The swd subpackage implements the SWD request/response
codec itself: it builds the 8-bit request header, drives a full read or
write transaction over an abstract bit-level transport, and classifies the
target's acknowledge into ACK, WAIT, FAULT or a locally detected parity
failure.

Concrete transports live under transport/: a simulated SW-DP target for
tests and development (transport/sim), a CMSIS-DAP probe driven over USB
(transport/cmsisdap), direct GPIO bit-banging via periph.io
(transport/bitbang), and OpenOCD's remote_bitbang wire protocol over a
serial port or TCP socket (transport/rbb).

Reading the IDCODE of a simulated target:

	target := sim.New()
	resp, err := swd.NewReadRequest(0, false).Send(target)
	if err != nil {
	    log.Fatal(err)
	}
	if resp.ACK() {
	    fmt.Printf("IDCODE: 0x%08X\n", resp.Data)
	}

The codec assumes, but does not enforce, exclusive access to the transport
for the duration of one transaction. Use ProbeLock (or any external
serialization) when more than one process may reach for the same probe.
*/
package gojlink
