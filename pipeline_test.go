// SPDX-License-Identifier: EPL-2.0

package audpipe_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ik5/audpipe"
	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/encoder"
	"github.com/ik5/audpipe/formats/wav"
	"github.com/ik5/audpipe/internal/audiotest"
	"github.com/ik5/audpipe/source"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSource(t *testing.T, d audio.Demuxer, capacity int) *source.Cache {
	t.Helper()

	l, _ := logtest.NewNullLogger()
	src, err := source.Open(d, source.Config{Track: audio.TrackAny, Capacity: capacity, Logger: l})
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })
	return src
}

func newAdapter(t *testing.T, src audio.SampleSource, b encoder.Backend) *encoder.Adapter {
	t.Helper()

	l, _ := logtest.NewNullLogger()
	enc, err := encoder.New(src, b, nil, l)
	require.NoError(t, err)
	t.Cleanup(func() { _ = enc.Close() })
	return enc
}

// sliceSource serves a fixed PCM buffer.
type sliceSource struct {
	format *audio.Format
	data   []byte
	pool   audio.Pool
}

func (s *sliceSource) Format() *audio.Format { return s.format }
func (s *sliceSource) Close() error          { return nil }

func (s *sliceSource) GetSamples(first, last int64) (*audio.Packet, error) {
	fb := int64(s.format.FrameBytes)
	total := int64(len(s.data)) / fb
	if first > total {
		return nil, io.EOF
	}
	end := min(last, total)

	p := s.pool.NewPacket(int((end-first)*fb), first, s.format)
	copy(p.Data, s.data[first*fb:end*fb])
	p.Samples = end - first
	if end < last {
		p.Flags |= audio.FlagEOS
	}
	return p, nil
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestEncode_Raw(t *testing.T) {
	t.Parallel()

	d := audiotest.NewMockDemuxer(2, 44100, 1152, 10000, 4096)
	enc := newAdapter(t, openSource(t, d, 4*1152*4), &audiotest.MockBackend{})

	var buf bytes.Buffer
	st, err := audpipe.Encode(audpipe.NewRawWriter(&buf), enc)
	require.NoError(t, err)

	assert.Equal(t, 9, st.Packets)
	assert.Equal(t, int64(10000), st.End)
	assert.Equal(t, int64(buf.Len()), st.Bytes)
	assert.Equal(t, audiotest.Halve(d.Expected()), buf.Bytes())
	assert.Equal(t, encoder.Flushed, enc.State())
}

func TestEncode_Framed(t *testing.T) {
	t.Parallel()

	d := audiotest.NewMockDemuxer(1, 8000, 256, 1000, 300)
	enc := newAdapter(t, openSource(t, d, 0), &audiotest.MockBackend{FrameLen: 256})

	var buf bytes.Buffer
	st, err := audpipe.Encode(audpipe.NewFramedWriter(&buf), enc)
	require.NoError(t, err)

	var payload []byte
	frames := 0
	r := bytes.NewReader(buf.Bytes())
	for r.Len() > 0 {
		var n uint16
		require.NoError(t, binary.Read(r, binary.LittleEndian, &n))
		b := make([]byte, n)
		_, err := io.ReadFull(r, b)
		require.NoError(t, err)
		payload = append(payload, b...)
		frames++
	}

	assert.Equal(t, st.Packets, frames)
	assert.Equal(t, audiotest.Halve(d.Expected()), payload)
}

func TestEncode_WriteError(t *testing.T) {
	t.Parallel()

	d := audiotest.NewMockDemuxer(2, 44100, 1152, 200000, 4096)
	enc := newAdapter(t, openSource(t, d, 4*1152*4), &audiotest.MockBackend{})

	_, err := audpipe.Encode(audpipe.NewRawWriter(failingWriter{}), enc)
	assert.ErrorContains(t, err, "disk full")
}

func TestEncode_EncoderError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	d := audiotest.NewMockDemuxer(2, 44100, 1152, 10000, 4096)
	enc := newAdapter(t, openSource(t, d, 4*1152*4), &audiotest.MockBackend{EncodeErr: boom, FailAt: 3})

	st, err := audpipe.Encode(audpipe.NewRawWriter(io.Discard), enc)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, st.Packets)
}

func TestDecodeAll(t *testing.T) {
	t.Parallel()

	for _, chunk := range []int64{0, 1, 1000, 50000} {
		d := audiotest.NewMockDemuxer(2, 44100, 1152, 10000, 4096)
		got, err := audpipe.DecodeAll(openSource(t, d, 0), chunk)
		require.NoError(t, err)
		assert.Equal(t, d.Expected(), got, "chunk %d", chunk)
	}
}

func TestDecodeToWAV(t *testing.T) {
	t.Parallel()

	d := audiotest.NewMockDemuxer(2, 22050, 512, 5000, 1000)
	path := filepath.Join(t.TempDir(), "out.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	n, err := audpipe.DecodeToWAV(f, openSource(t, d, 0), 777)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, int64(5000), n)

	in, err := os.Open(path)
	require.NoError(t, err)
	defer in.Close()

	wd, err := wav.Decoder{}.Open(in)
	require.NoError(t, err)
	got, err := audpipe.DecodeAll(openSource(t, wd, 0), 0)
	require.NoError(t, err)
	assert.Equal(t, d.Expected(), got)
}

func TestDecodeToWAV_Float(t *testing.T) {
	t.Parallel()

	format, err := audio.NewFormat("vorbis", 1, 16000, audio.SampleFormatF32, 1024, audio.Timebase{}, nil)
	require.NoError(t, err)

	values := []float32{0, 0.5, -0.5, 1, -1}
	src := &sliceSource{format: format, data: make([]byte, 4*len(values))}
	for i, v := range values {
		binary.LittleEndian.PutUint32(src.data[4*i:], math.Float32bits(v))
	}

	path := filepath.Join(t.TempDir(), "float.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	n, err := audpipe.DecodeToWAV(f, src, 2)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, int64(len(values)), n)

	in, err := os.Open(path)
	require.NoError(t, err)
	defer in.Close()
	wd, err := wav.Decoder{}.Open(in)
	require.NoError(t, err)
	got, err := audpipe.DecodeAll(openSource(t, wd, 0), 0)
	require.NoError(t, err)

	want := make([]byte, 2*len(values))
	for i, v := range []int16{0, 16383, -16383, 32767, -32767} {
		binary.LittleEndian.PutUint16(want[2*i:], uint16(v))
	}
	assert.Equal(t, want, got)
}

func TestDecodeToWAV_Unsupported(t *testing.T) {
	t.Parallel()

	format, err := audio.NewFormat("pcm", 2, 48000, audio.SampleFormatS32, 1024, audio.Timebase{}, nil)
	require.NoError(t, err)

	_, err = audpipe.DecodeToWAV(nil, &sliceSource{format: format}, 0)
	assert.ErrorIs(t, err, audio.ErrUnsupportedSampleFormat)
}
