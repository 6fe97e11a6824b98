// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/internal/pcmcodec"
	"github.com/ik5/audpipe/utils"
)

// PacketLen is the number of sample frames per demuxed packet.
const PacketLen = 1024

// aiffReader is an interface for aiff.Decoder to allow testing
type aiffReader interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// packetReader turns go-audio int buffers into s16le packets of whole
// sample frames.
type packetReader struct {
	dec      aiffReader
	bitDepth int
	channels int
	data     []int
	carry    []int
	out      []byte
}

func (p *packetReader) ReadPacket() ([]byte, error) {
	k := copy(p.data, p.carry)
	p.carry = p.carry[:0]

	n, err := p.dec.PCMBuffer(&goaudio.IntBuffer{Data: p.data[k:]})
	n += k
	if err == nil && n == k {
		err = io.EOF
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading aiff samples: %w", err)
	}

	whole := n - n%p.channels
	p.carry = append(p.carry, p.data[whole:n]...)

	size := utils.IntsToS16LE(p.out, p.data[:whole], p.bitDepth)
	if size == 0 {
		return nil, err
	}
	return append([]byte(nil), p.out[:size]...), err
}

// Decoder opens AIFF files. It implements audio.Opener.
type Decoder struct{}

var _ audio.Opener = Decoder{}

// Open parses the AIFF header and returns a one track demuxer producing
// interleaved s16le.
func (Decoder) Open(r io.Reader) (audio.Demuxer, error) {
	// go-audio requires io.ReadSeeker
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading aiff data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec := aiff.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotAiffFile
	}
	dec.ReadInfo()

	bitDepth := int(dec.BitDepth)
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}

	f := dec.Format()
	if f == nil || f.NumChannels <= 0 || f.SampleRate <= 0 {
		return nil, ErrUnsupportedAiffLayout
	}

	format, err := audio.NewFormat("pcm_s16be", f.NumChannels, f.SampleRate, audio.SampleFormatS16, PacketLen, audio.Timebase{}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedAiffLayout, err)
	}

	return pcmcodec.NewDemuxer(format.Codec, format, newPacketReader(dec, bitDepth, f.NumChannels), nil), nil
}

func newPacketReader(dec aiffReader, bitDepth, channels int) *packetReader {
	return &packetReader{
		dec:      dec,
		bitDepth: bitDepth,
		channels: channels,
		data:     make([]int, PacketLen*channels),
		out:      make([]byte, 2*PacketLen*channels),
	}
}
