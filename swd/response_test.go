// gojlink
// Copyright (c) 2024 The gojlink Authors.
// SPDX-License-Identifier: MIT

package swd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponsePredicates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  Status
		ack     bool
		wait    bool
		fault   bool
		invalid bool
	}{
		{name: "ack", status: StatusACK, ack: true},
		{name: "wait", status: StatusWait, wait: true},
		{name: "fault", status: StatusFault, fault: true},
		{name: "invalid", status: StatusInvalid, invalid: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			resp := Response{Status: tt.status}
			assert.Equal(t, tt.ack, resp.ACK())
			assert.Equal(t, tt.wait, resp.Wait())
			assert.Equal(t, tt.fault, resp.Fault())
			assert.Equal(t, tt.invalid, resp.Invalid())
		})
	}
}

func TestStatusString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ACK", StatusACK.String())
	assert.Equal(t, "WAIT", StatusWait.String())
	assert.Equal(t, "FAULT", StatusFault.String())
	assert.Equal(t, "INVALID", StatusInvalid.String())
	assert.Equal(t, "UNKNOWN", Status(0b011).String())
}
