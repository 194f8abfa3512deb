// gojlink
// Copyright (c) 2024 The gojlink Authors.
// SPDX-License-Identifier: MIT

package gojlink

import (
	"errors"
	"fmt"
)

// Errors shared across the module.
var (
	// ErrInvalidArgument reports a malformed argument to one of the leaf
	// utilities, such as a negative value or a non-positive bit count.
	// No coercion or clamping is performed on the caller's behalf.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrProbeLocked reports that another live process holds the
	// lockfile for the requested probe.
	ErrProbeLocked = errors.New("probe is locked by another process")
)

// TransportError wraps an I/O failure from a probe transport with the
// operation and endpoint it happened on. Codec-level code never produces
// these itself; it only passes them through unmodified.
type TransportError struct {
	Err  error
	Op   string // "write bits", "read bits", "open", ...
	Port string // device path, USB address, or network address
}

func (e *TransportError) Error() string {
	if e.Port == "" {
		return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("transport %s on %s: %v", e.Op, e.Port, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError builds a TransportError for the given operation.
func NewTransportError(op, port string, err error) *TransportError {
	return &TransportError{Op: op, Port: port, Err: err}
}
