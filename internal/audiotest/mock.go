// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"errors"
	"io"

	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/internal/pcmcodec"
)

var (
	ErrCorrupt   = errors.New("corrupt packet")
	ErrReadFault = errors.New("injected read fault")
)

// Pattern is the deterministic byte found at absolute offset i of a mock stream.
func Pattern(i int64) byte {
	return byte(i*31 + i/251)
}

// PatternBytes returns n bytes of the pattern starting at offset.
func PatternBytes(offset int64, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = Pattern(offset + int64(i))
	}
	return b
}

// MockDemuxer is a test helper serving a deterministic PCM stream as
// compressed packets of a fixed size. It implements audio.Demuxer.
type MockDemuxer struct {
	TrackList []audio.TrackInfo
	// Bad lists packet indices the codec rejects.
	Bad map[int]bool
	// FailAt is the packet index whose read fails, -1 for none.
	FailAt int
	// Queue makes the codec swallow whole packets and hand out full units
	// later, draining on end of input, like send/receive style decoders.
	Queue bool
	// OpenErr is returned by OpenDecoder when set.
	OpenErr error
	// UnitBytes overrides the codec unit size, which defaults to one
	// decoder frame.
	UnitBytes int

	Reads  int
	Closed bool

	format  *audio.Format
	packets [][]byte
	next    int
	current int
}

// NewMockDemuxer creates a one track S16 stream of totalSamples sample frames
// split into packets of packetBytes bytes.
func NewMockDemuxer(channels, sampleRate, frameLen int, totalSamples int64, packetBytes int) *MockDemuxer {
	format, err := audio.NewFormat("pcm", channels, sampleRate, audio.SampleFormatS16, frameLen, audio.Timebase{}, nil)
	if err != nil {
		panic(err)
	}

	total := totalSamples * int64(format.FrameBytes)
	var packets [][]byte
	for off := int64(0); off < total; off += int64(packetBytes) {
		n := min(int64(packetBytes), total-off)
		packets = append(packets, PatternBytes(off, int(n)))
	}

	return &MockDemuxer{
		TrackList: []audio.TrackInfo{{ID: 0, Kind: audio.TrackAudio, Codec: "pcm_s16le"}},
		FailAt:    -1,
		format:    format,
		packets:   packets,
		current:   -1,
	}
}

func (m *MockDemuxer) Tracks() []audio.TrackInfo { return m.TrackList }
func (m *MockDemuxer) Format() *audio.Format     { return m.format }
func (m *MockDemuxer) Packets() int              { return len(m.packets) }

func (m *MockDemuxer) Close() error {
	m.Closed = true
	return nil
}

func (m *MockDemuxer) OpenDecoder(track int) (audio.Codec, *audio.Format, error) {
	if m.OpenErr != nil {
		return nil, nil, m.OpenErr
	}
	unit := m.format.FrameSize
	if m.UnitBytes > 0 {
		unit = m.UnitBytes
	}
	return &mockCodec{
		demux: m,
		pcm:   pcmcodec.New(unit/m.format.FrameBytes, m.format.FrameBytes),
		unit:  unit,
		frame: m.format.FrameBytes,
	}, m.format, nil
}

func (m *MockDemuxer) ReadPacket(track int) ([]byte, error) {
	if m.next >= len(m.packets) {
		return nil, io.EOF
	}
	if m.next == m.FailAt {
		return nil, ErrReadFault
	}
	m.current = m.next
	m.next++
	m.Reads++

	p := m.packets[m.current]
	return append([]byte(nil), p...), nil
}

// Expected returns the PCM the cache should produce: every packet the codec
// accepts, in order.
func (m *MockDemuxer) Expected() []byte {
	var out []byte
	for i, p := range m.packets {
		if m.Bad[i] {
			continue
		}
		out = append(out, p...)
	}
	return out
}

type mockCodec struct {
	demux *MockDemuxer
	pcm   *pcmcodec.Codec
	unit  int
	frame int

	queue  []byte
	closed bool
}

func (c *mockCodec) MaxUnitBytes() int { return c.unit }

func (c *mockCodec) Close() error {
	c.closed = true
	return nil
}

func (c *mockCodec) Decode(data, dst []byte) (int, int, error) {
	if len(data) > 0 && c.demux.Bad[c.demux.current] {
		return 0, 0, ErrCorrupt
	}
	if !c.demux.Queue {
		return c.pcm.Decode(data, dst)
	}

	if len(c.queue) >= c.unit {
		return 0, c.emit(dst, c.unit), nil
	}
	if data == nil {
		n := len(c.queue) - len(c.queue)%c.frame
		return 0, c.emit(dst, min(n, c.unit)), nil
	}
	if len(data) == 0 {
		return 0, 0, nil
	}

	c.queue = append(c.queue, data...)
	if len(c.queue) >= c.unit {
		return len(data), c.emit(dst, c.unit), nil
	}
	return len(data), 0, nil
}

func (c *mockCodec) emit(dst []byte, n int) int {
	copy(dst, c.queue[:n])
	c.queue = c.queue[n:]
	return n
}
