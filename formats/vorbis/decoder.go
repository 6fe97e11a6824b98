// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/internal/pcmcodec"
	"github.com/jfreymuth/oggvorbis"
)

// PacketLen bounds the sample frames per demuxed packet. Vorbis blocks are
// at most 4096 samples, so a packet usually holds one decoded block.
const PacketLen = 2048

// oggReader is an interface for oggvorbis.Reader to allow testing
type oggReader interface {
	SampleRate() int
	Channels() int
	Read([]float32) (int, error)
}

type packetReader struct {
	dec oggReader
	buf []float32
	out []byte
}

// ReadPacket decodes the next block as little-endian float32 PCM.
func (p *packetReader) ReadPacket() ([]byte, error) {
	n, err := p.dec.Read(p.buf)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = io.EOF
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding vorbis: %w", err)
	}
	if n == 0 {
		if err == nil {
			// the reader made no progress but did not fail, try again
			return []byte{}, nil
		}
		return nil, err
	}

	for i, v := range p.buf[:n] {
		binary.LittleEndian.PutUint32(p.out[4*i:], math.Float32bits(v))
	}
	return append([]byte(nil), p.out[:4*n]...), err
}

// Decoder opens Ogg Vorbis streams. It implements audio.Opener.
type Decoder struct{}

var _ audio.Opener = Decoder{}

func (Decoder) Open(r io.Reader) (audio.Demuxer, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotVorbis, err)
	}
	return newDemuxer(dec)
}

func newDemuxer(dec oggReader) (audio.Demuxer, error) {
	format, err := audio.NewFormat("vorbis", dec.Channels(), dec.SampleRate(), audio.SampleFormatF32, PacketLen, audio.Timebase{}, nil)
	if err != nil {
		return nil, err
	}

	pr := &packetReader{
		dec: dec,
		buf: make([]float32, PacketLen*dec.Channels()),
		out: make([]byte, format.FrameSize),
	}
	return pcmcodec.NewDemuxer(format.Codec, format, pr, nil), nil
}
