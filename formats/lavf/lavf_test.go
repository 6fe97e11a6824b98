// SPDX-License-Identifier: EPL-2.0

package lavf

import (
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/asticode/go-astiav"
	"github.com/ik5/audpipe/audio"
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

func TestSampleFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   astiav.SampleFormat
		want audio.SampleFormat
	}{
		{astiav.SampleFormatU8, audio.SampleFormatU8},
		{astiav.SampleFormatS16P, audio.SampleFormatS16},
		{astiav.SampleFormatS32, audio.SampleFormatS32},
		{astiav.SampleFormatFltp, audio.SampleFormatF32},
		{astiav.SampleFormatDbl, audio.SampleFormatF64},
	}
	for _, tt := range tests {
		got, err := SampleFormat(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "SampleFormat(%s)", tt.in)
	}

	_, err := SampleFormat(astiav.SampleFormatNone)
	assert.ErrorIs(t, err, audio.ErrUnsupportedSampleFormat)
}

func TestAVSampleFormat(t *testing.T) {
	t.Parallel()

	f, err := AVSampleFormat(audio.SampleFormatF32, true)
	require.NoError(t, err)
	assert.Equal(t, astiav.SampleFormatFltp, f)

	f, err = AVSampleFormat(audio.SampleFormatS16, false)
	require.NoError(t, err)
	assert.Equal(t, astiav.SampleFormatS16, f)

	_, err = AVSampleFormat(audio.SampleFormatNone, false)
	assert.ErrorIs(t, err, audio.ErrUnsupportedSampleFormat)
}

func TestChannelLayout(t *testing.T) {
	t.Parallel()

	for ch := 1; ch <= 2; ch++ {
		l, err := ChannelLayout(ch)
		require.NoError(t, err)
		assert.Equal(t, ch, l.Channels())
	}

	_, err := ChannelLayout(6)
	assert.ErrorIs(t, err, audio.ErrUnsupportedChannelLayout)
}

func TestOpen_Missing(t *testing.T) {
	t.Parallel()

	_, err := Open(filepath.Join(t.TempDir(), "missing.flac"), quietLogger())
	assert.ErrorIs(t, err, ErrOpenInput)
}

func writeTestWAV(t *testing.T, channels int, samples []int16) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "in.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, audiotest.WriteWAV16(f, 22050, channels, samples))
	require.NoError(t, f.Close())
	return path
}

func TestDemuxer_DecodesWAV(t *testing.T) {
	t.Parallel()

	const channels = 2
	samples := make([]int16, channels*20000)
	for i := range samples {
		samples[i] = int16(i*13%4000 - 2000)
	}

	d, err := Open(writeTestWAV(t, channels, samples), quietLogger())
	require.NoError(t, err)

	tracks := d.Tracks()
	require.Len(t, tracks, 1)
	assert.Equal(t, audio.TrackAudio, tracks[0].Kind)

	src, err := source.Open(d, source.Config{Track: audio.TrackAny, Logger: quietLogger()})
	require.NoError(t, err)
	defer src.Close()

	f := src.Format()
	assert.Equal(t, channels, f.Channels)
	assert.Equal(t, 22050, f.SampleRate)
	assert.Equal(t, audio.SampleFormatS16, f.SampleFormat)

	var got []int16
	for first := int64(0); ; first += 3000 {
		pkt, err := src.GetSamples(first, first+3000)
		require.NoError(t, err)
		for i := 0; i+1 < len(pkt.Data); i += 2 {
			got = append(got, int16(binary.LittleEndian.Uint16(pkt.Data[i:])))
		}
		eos := pkt.EOS()
		pkt.Release()
		if eos {
			break
		}
	}

	assert.Equal(t, samples, got)

	_, err = src.GetSamples(20000, 20001)
	assert.ErrorIs(t, err, io.EOF)
}

func TestDemuxer_TrackSelection(t *testing.T) {
	t.Parallel()

	d, err := Open(writeTestWAV(t, 1, make([]int16, 4096)), quietLogger())
	require.NoError(t, err)
	defer d.Close()

	_, _, err = d.OpenDecoder(3)
	assert.ErrorIs(t, err, audio.ErrTrackNotAudio)

	c, f, err := d.OpenDecoder(0)
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, 1, f.Channels)
	assert.LessOrEqual(t, c.MaxUnitBytes(), MaxUnitBytes)
	assert.Zero(t, c.MaxUnitBytes()%f.FrameBytes)
}
