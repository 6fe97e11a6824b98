// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/source"
	"github.com/sirupsen/logrus"
)

// mockOggReader simulates oggvorbis.Reader, handing out blocks of at most
// block values.
type mockOggReader struct {
	sampleRate int
	channels   int
	values     []float32
	block      int
	err        error
}

func (m *mockOggReader) SampleRate() int { return m.sampleRate }
func (m *mockOggReader) Channels() int   { return m.channels }

func (m *mockOggReader) Read(p []float32) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	if len(m.values) == 0 {
		return 0, io.EOF
	}
	n := copy(p[:min(len(p), m.block)], m.values)
	m.values = m.values[n:]
	return n, nil
}

func sine(n int) []float32 {
	v := make([]float32, n)
	for i := range v {
		v[i] = float32(math.Sin(float64(i) * 0.05))
	}
	return v
}

func TestDecoder_InvalidInput(t *testing.T) {
	t.Parallel()

	_, err := Decoder{}.Open(bytes.NewReader([]byte("OggS but not really")))
	if !errors.Is(err, ErrNotVorbis) {
		t.Errorf("Open() error = %v, want ErrNotVorbis", err)
	}
}

func TestDemuxer_Format(t *testing.T) {
	t.Parallel()

	d, err := newDemuxer(&mockOggReader{sampleRate: 48000, channels: 2})
	if err != nil {
		t.Fatal(err)
	}
	tracks := d.Tracks()
	if len(tracks) != 1 || tracks[0].Codec != "vorbis" {
		t.Errorf("Tracks() = %+v", tracks)
	}

	_, f, err := d.OpenDecoder(0)
	if err != nil {
		t.Fatal(err)
	}
	if f.SampleFormat != audio.SampleFormatF32 || f.FrameBytes != 8 || f.SampleRate != 48000 {
		t.Errorf("format = %s", f)
	}
}

func TestDemuxer_InvalidChannels(t *testing.T) {
	t.Parallel()

	if _, err := newDemuxer(&mockOggReader{sampleRate: 48000}); !errors.Is(err, audio.ErrInvalidFormat) {
		t.Errorf("newDemuxer() error = %v, want ErrInvalidFormat", err)
	}
}

func TestPacketReader_Error(t *testing.T) {
	t.Parallel()

	boom := errors.New("bad page")
	d, err := newDemuxer(&mockOggReader{sampleRate: 8000, channels: 1, err: boom})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.ReadPacket(0); !errors.Is(err, boom) {
		t.Errorf("ReadPacket() error = %v, want %v", err, boom)
	}
}

func TestDemuxer_ThroughCache(t *testing.T) {
	t.Parallel()

	const channels = 2
	values := sine(channels * 6000)
	d, err := newDemuxer(&mockOggReader{sampleRate: 44100, channels: channels, values: values, block: 1024})
	if err != nil {
		t.Fatal(err)
	}

	l := logrus.New()
	l.SetOutput(io.Discard)
	src, err := source.Open(d, source.Config{Track: audio.TrackAny, Logger: l})
	if err != nil {
		t.Fatalf("source.Open() error = %v", err)
	}
	defer src.Close()

	var got []float32
	for first := int64(0); ; first += 1500 {
		pkt, err := src.GetSamples(first, first+1500)
		if err != nil {
			t.Fatalf("GetSamples() error = %v", err)
		}
		for i := 0; i < len(pkt.Data); i += 4 {
			got = append(got, math.Float32frombits(binary.LittleEndian.Uint32(pkt.Data[i:])))
		}
		eos := pkt.EOS()
		pkt.Release()
		if eos {
			break
		}
	}

	if len(got) != len(values) {
		t.Fatalf("got %d values, want %d", len(got), len(values))
	}
	for i := range values {
		if got[i] != values[i] {
			t.Fatalf("value %d = %v, want %v", i, got[i], values[i])
		}
	}
}
