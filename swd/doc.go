// gojlink
// Copyright (c) 2024 The gojlink Authors.
// SPDX-License-Identifier: MIT

/*
Package swd implements the Serial Wire Debug request/response protocol.

SWD moves 32-bit words in and out of a target's Debug Port (DP) and Access
Port (AP) register spaces. Every transaction starts with a fixed 8-bit
request header, after which the target answers with a 3-bit acknowledge
(ACK, WAIT or FAULT) and, for reads, a 32-bit data word protected by one
parity bit. The bus is bidirectional on a single data line, so turnaround
cycles are inserted whenever the driving side changes.

The package is a pure codec. It produces bit-exact wire sequences and
interprets what comes back, but all clocking goes through the Transport
interface, which a probe backend implements. A transaction is strictly
synchronous: Send blocks until every bit of the fixed sequence has been
clocked and returns a fully populated Response, or propagates the
transport's error unmodified. Serialization of concurrent callers onto one
physical probe is the caller's concern.
*/
package swd
