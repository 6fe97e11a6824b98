// SPDX-License-Identifier: EPL-2.0

package flac

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/ik5/audpipe/audio"
	"github.com/mewkiz/flac/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStream struct {
	frames []*frame.Frame
	err    error
	closed int
}

func (m *mockStream) ParseNext() (*frame.Frame, error) {
	if m.err != nil {
		return nil, m.err
	}
	if len(m.frames) == 0 {
		return nil, io.EOF
	}
	f := m.frames[0]
	m.frames = m.frames[1:]
	return f, nil
}

func (m *mockStream) Close() error {
	m.closed++
	return nil
}

func newFrame(channels ...[]int32) *frame.Frame {
	f := &frame.Frame{}
	f.BlockSize = uint16(len(channels[0]))
	for _, s := range channels {
		f.Subframes = append(f.Subframes, &frame.Subframe{Samples: s})
	}
	return f
}

func s16(b []byte) []int16 {
	out := make([]int16, len(b)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(b[2*i:]))
	}
	return out
}

func TestDecoder_InvalidInput(t *testing.T) {
	t.Parallel()

	_, err := Decoder{}.Open(bytes.NewReader([]byte("RIFF....WAVEfmt ")))
	assert.ErrorIs(t, err, ErrNotFLAC)
}

func TestDemuxer_Interleaves(t *testing.T) {
	t.Parallel()

	stream := &mockStream{frames: []*frame.Frame{
		newFrame([]int32{1, 2, 3}, []int32{-1, -2, -3}),
		newFrame([]int32{4}, []int32{-4}),
	}}
	d, err := newDemuxer(stream, 2, 44100, 16, 4096)
	require.NoError(t, err)

	_, f, err := d.OpenDecoder(0)
	require.NoError(t, err)
	assert.Equal(t, 4096, f.FrameLen)
	assert.Equal(t, audio.SampleFormatS16, f.SampleFormat)

	p, err := d.ReadPacket(0)
	require.NoError(t, err)
	assert.Equal(t, []int16{1, -1, 2, -2, 3, -3}, s16(p))

	p, err = d.ReadPacket(0)
	require.NoError(t, err)
	assert.Equal(t, []int16{4, -4}, s16(p))

	_, err = d.ReadPacket(0)
	assert.ErrorIs(t, err, io.EOF)

	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
	assert.Equal(t, 1, stream.closed)
}

func TestDemuxer_BitDepth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		bitDepth int
		in       int32
		want     int16
	}{
		{"24 bit", 24, 1 << 20, 1 << 12},
		{"8 bit", 8, -2, -512},
		{"16 bit", 16, 12345, 12345},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d, err := newDemuxer(&mockStream{frames: []*frame.Frame{newFrame([]int32{tt.in})}}, 1, 48000, tt.bitDepth, 16)
			require.NoError(t, err)

			p, err := d.ReadPacket(0)
			require.NoError(t, err)
			assert.Equal(t, []int16{tt.want}, s16(p))
		})
	}
}

func TestDemuxer_Errors(t *testing.T) {
	t.Parallel()

	_, err := newDemuxer(&mockStream{}, 2, 44100, 2, 4096)
	assert.ErrorIs(t, err, ErrUnsupportedBitDepth)

	_, err = newDemuxer(&mockStream{}, 0, 44100, 16, 4096)
	assert.ErrorIs(t, err, audio.ErrInvalidFormat)

	d, err := newDemuxer(&mockStream{frames: []*frame.Frame{newFrame([]int32{1})}}, 2, 44100, 16, 0)
	require.NoError(t, err)
	_, err = d.ReadPacket(0)
	assert.ErrorIs(t, err, ErrChannelMismatch)

	boom := errors.New("crc mismatch")
	d, err = newDemuxer(&mockStream{err: boom}, 1, 44100, 16, 0)
	require.NoError(t, err)
	_, err = d.ReadPacket(0)
	assert.ErrorIs(t, err, boom)
}
