// gojlink
// Copyright (c) 2024 The gojlink Authors.
// SPDX-License-Identifier: MIT

package rbb

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gojlink "github.com/durufle/gojlink"
	"github.com/durufle/gojlink/swd"
)

// fakeServer answers like a remote_bitbang server: it records every
// protocol character and serves one scripted sample per 'c' request.
type fakeServer struct {
	wire    []byte
	samples []byte // '0'/'1' replies, consumed in order
	replies []byte
	closed  bool
}

func (s *fakeServer) Write(b []byte) (int, error) {
	s.wire = append(s.wire, b...)
	for _, c := range b {
		if c != chrSample {
			continue
		}
		reply := byte('0')
		if len(s.samples) > 0 {
			reply = s.samples[0]
			s.samples = s.samples[1:]
		}
		s.replies = append(s.replies, reply)
	}
	return len(b), nil
}

func (s *fakeServer) Read(b []byte) (int, error) {
	if len(s.replies) == 0 {
		return 0, io.EOF
	}
	n := copy(b, s.replies)
	s.replies = s.replies[n:]
	return n, nil
}

func (s *fakeServer) Close() error {
	s.closed = true
	return nil
}

// ackSamples returns the '0'/'1' replies for a 3-bit status window.
func ackSamples(status swd.Status) []byte {
	out := make([]byte, 3)
	for i := range out {
		out[i] = '0' + byte(status)>>i&1
	}
	return out
}

func TestWriteTransaction(t *testing.T) {
	t.Parallel()

	srv := &fakeServer{samples: ackSamples(swd.StatusACK)}
	p := NewConn(srv, "test")

	resp, err := swd.NewWriteRequest(2, true, 0x12345678).Send(p)
	require.NoError(t, err)
	assert.True(t, resp.ACK())
	assert.Empty(t, srv.samples, "all scripted samples consumed")
}

func TestReadTransaction(t *testing.T) {
	t.Parallel()

	const word uint32 = 0xDEADBEEF // even population count, parity 0

	samples := ackSamples(swd.StatusACK)
	for i := 0; i < 32; i++ {
		samples = append(samples, '0'+byte(word>>i&1))
	}
	samples = append(samples, '0') // parity

	srv := &fakeServer{samples: samples}
	p := NewConn(srv, "test")

	resp, err := swd.NewReadRequest(0, false).Send(p)
	require.NoError(t, err)
	assert.True(t, resp.ACK())
	assert.Equal(t, uint32(word), resp.Data)
}

func TestWireProtocolForHeader(t *testing.T) {
	t.Parallel()

	srv := &fakeServer{samples: ackSamples(swd.StatusWait)}
	p := NewConn(srv, "test")

	// DP read of address 0, header 0xA5 LSB first, two characters per
	// driven cycle: clock low with data, then clock high.
	off, err := p.WriteBits(0xA5, 8)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), off)

	var want []byte
	for i := 0; i < 8; i++ {
		bit := byte(0xA5 >> i & 1)
		want = append(want, chrWrite+bit, chrWrite+bit+2)
	}
	assert.Equal(t, want, srv.wire)

	// The acknowledge window releases the driver before sampling.
	_, err = p.WriteBits(0, 3)
	require.NoError(t, err)
	assert.Equal(t, byte(chrDriveOff), srv.wire[len(want)])

	got, err := p.ReadBits(8, 3)
	require.NoError(t, err)
	assert.Equal(t, uint32(swd.StatusWait), got)
}

func TestSampleReplyValidation(t *testing.T) {
	t.Parallel()

	srv := &fakeServer{samples: []byte{'x'}}
	p := NewConn(srv, "test")

	_, err := p.WriteBits(0xA5, 8)
	require.NoError(t, err)
	_, err = p.WriteBits(0, 3)
	require.Error(t, err)

	var terr *gojlink.TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "sample", terr.Op)
}

func TestCloseSendsQuit(t *testing.T) {
	t.Parallel()

	srv := &fakeServer{}
	p := NewConn(srv, "test")

	require.NoError(t, p.Close())
	assert.True(t, srv.closed)
	require.NotEmpty(t, srv.wire)
	assert.Equal(t, byte(chrQuit), srv.wire[len(srv.wire)-1])
}

func TestReadBitsRange(t *testing.T) {
	t.Parallel()

	p := NewConn(&fakeServer{}, "test")
	_, err := p.ReadBits(0, 1)
	require.ErrorIs(t, err, swd.ErrPipelineRange)
}
