// gojlink
// Copyright (c) 2024 The gojlink Authors.
// SPDX-License-Identifier: MIT

package swd

import (
	"fmt"
	"math/bits"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestEncodeKnownHeaders(t *testing.T) {
	t.Parallel()

	// Values cross-checked against the ADIv5 request encodings.
	tests := []struct {
		name string
		req  Request
		want byte
	}{
		{name: "DP read IDCODE", req: Request{Address: 0, Read: true}, want: 0xA5},
		{name: "DP write SELECT", req: Request{Address: 2}, want: 0xB1},
		{name: "AP write CSW", req: Request{Address: 0, AccessPort: true}, want: 0xA3},
		{name: "AP read A3:2=11", req: Request{Address: 3, AccessPort: true, Read: true}, want: 0x9F},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.req.Encode())
		})
	}
}

func TestRequestEncodeLaws(t *testing.T) {
	t.Parallel()

	for address := uint8(0); address < 4; address++ {
		for _, ap := range []bool{false, true} {
			for _, read := range []bool{false, true} {
				req := Request{Address: address, AccessPort: ap, Read: read}
				v := req.Encode()
				name := fmt.Sprintf("addr=%d ap=%v read=%v", address, ap, read)

				assert.NotZero(t, v&reqStart, "%s: start bit", name)
				assert.Zero(t, v&reqStop, "%s: stop bit", name)
				assert.NotZero(t, v&reqPark, "%s: park bit", name)

				// The parity bit covers exactly the four variable bits.
				wantParity := byte(bits.OnesCount8(v&reqVariable) % 2)
				assert.Equal(t, wantParity, (v&reqParity)>>5, "%s: parity", name)
			}
		}
	}
}

func TestRequestRoundTrip(t *testing.T) {
	t.Parallel()

	for address := uint8(0); address < 4; address++ {
		for _, ap := range []bool{false, true} {
			for _, read := range []bool{false, true} {
				req := Request{Address: address, AccessPort: ap, Read: read}
				got, err := ParseRequest(req.Encode())
				require.NoError(t, err)
				assert.Equal(t, req, got)
			}
		}
	}
}

func TestParseRequestRejectsMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value byte
	}{
		{name: "missing start bit", value: 0x00},
		{name: "stop bit set", value: 0xFF},
		{name: "missing park bit", value: 0x25},
		{name: "flipped parity", value: 0xA5 ^ reqParity},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseRequest(tt.value)
			require.ErrorIs(t, err, ErrBadRequest)
		})
	}
}

func TestRequestAddressMasked(t *testing.T) {
	t.Parallel()

	// Constructors only keep A[3:2]; higher bits never reach the header.
	r := NewReadRequest(0xC|2, false)
	assert.Equal(t, uint8(2), r.req.Address)

	w := NewWriteRequest(0xF, true, 0)
	assert.Equal(t, uint8(3), w.req.Address)
}
