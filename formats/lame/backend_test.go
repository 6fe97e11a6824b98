// SPDX-License-Identifier: EPL-2.0

package lame_test

import (
	"errors"
	"io"
	"testing"

	"github.com/asticode/go-astiav"
	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/encoder"
	"github.com/ik5/audpipe/formats/lame"
	"github.com/ik5/audpipe/internal/audiotest"
	"github.com/ik5/audpipe/source"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func requireLame(t *testing.T) {
	t.Helper()
	if astiav.FindEncoderByName("libmp3lame") == nil {
		t.Skip("FFmpeg has no libmp3lame encoder")
	}
}

func TestMaxPacketBytes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 8640, lame.MaxPacketBytes(1152))
	assert.Equal(t, 7920, lame.MaxPacketBytes(576))
}

func TestBackend_Identity(t *testing.T) {
	t.Parallel()

	b := lame.New(nil)
	assert.Equal(t, "mp3", b.Name())
	assert.Equal(t, 2, b.MaxChannels())
	require.NoError(t, b.Close())
}

func TestBackend_ConfigureErrors(t *testing.T) {
	t.Parallel()

	f, err := audio.NewFormat("pcm", 6, 44100, audio.SampleFormatS16, 1024, audio.Timebase{}, nil)
	require.NoError(t, err)
	_, err = lame.New(quietLogger()).Configure(f, encoder.Mode{VBR: encoder.DefaultVBR})
	assert.ErrorIs(t, err, audio.ErrUnsupportedChannelLayout)
}

func encodeAll(t *testing.T, enc *encoder.Adapter) (packets []*audio.Packet) {
	t.Helper()

	for {
		pkt, err := enc.NextPacket()
		require.NoError(t, err)
		if pkt == nil {
			break
		}
		packets = append(packets, pkt)
	}

	for {
		pkt, err := enc.Finish()
		if errors.Is(err, audio.ErrEmptyFlush) {
			break
		}
		require.NoError(t, err)
		packets = append(packets, pkt)
	}
	return packets
}

func TestBackend_EncodesThroughAdapter(t *testing.T) {
	t.Parallel()
	requireLame(t)

	tests := []struct {
		name string
		opts string
	}{
		{"cbr", "bitrate=128"},
		{"vbr", "vbr=2,quality=5"},
		{"default", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := audiotest.NewMockDemuxer(2, 44100, 1152, 10000, 4096)
			src, err := source.Open(d, source.Config{Track: audio.TrackAny, Capacity: 4 * 1152 * 4, Logger: quietLogger()})
			require.NoError(t, err)
			defer src.Close()

			enc, err := encoder.NewFromString(src, lame.New(quietLogger()), tt.opts, quietLogger())
			require.NoError(t, err)
			defer enc.Close()

			f := enc.Format()
			assert.Equal(t, "mp3", f.Codec)
			assert.Equal(t, 1152, f.FrameLen)
			assert.Equal(t, 44100, f.SampleRate)

			packets := encodeAll(t, enc)
			require.NotEmpty(t, packets)

			assert.True(t, packets[len(packets)-1].EOS())

			total := 0
			for _, p := range packets {
				total += p.Size()
				assert.LessOrEqual(t, p.Timestamp, int64(10000))
				p.Release()
			}
			assert.Positive(t, total)
		})
	}
}
