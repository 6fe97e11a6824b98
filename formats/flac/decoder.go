// SPDX-License-Identifier: EPL-2.0

package flac

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/internal/pcmcodec"
	"github.com/ik5/audpipe/utils"
	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
)

// flacStream is the part of flac.Stream the demuxer uses; tests replace it.
type flacStream interface {
	ParseNext() (*frame.Frame, error)
	Close() error
}

// packetReader turns each FLAC frame into one packet of interleaved s16le.
type packetReader struct {
	stream   flacStream
	channels int
	bitDepth int
	samples  []int
	out      []byte
}

func (p *packetReader) ReadPacket() ([]byte, error) {
	f, err := p.stream.ParseNext()
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("decoding flac frame: %w", err)
	}
	if len(f.Subframes) != p.channels {
		return nil, fmt.Errorf("%w: frame has %d channels, stream has %d",
			ErrChannelMismatch, len(f.Subframes), p.channels)
	}

	n := int(f.BlockSize)
	for _, sub := range f.Subframes {
		n = min(n, len(sub.Samples))
	}

	need := n * p.channels
	if cap(p.samples) < need {
		p.samples = make([]int, need)
		p.out = make([]byte, 2*need)
	}
	samples := p.samples[:need]
	for i := range n {
		for ch, sub := range f.Subframes {
			samples[i*p.channels+ch] = int(sub.Samples[i])
		}
	}

	size := utils.IntsToS16LE(p.out, samples, p.bitDepth)
	return append([]byte(nil), p.out[:size]...), nil
}

// Decoder opens FLAC streams with the pure Go mewkiz/flac decoder. It
// implements audio.Opener.
type Decoder struct{}

var _ audio.Opener = Decoder{}

func (Decoder) Open(r io.Reader) (audio.Demuxer, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFLAC, err)
	}

	info := stream.Info
	d, err := newDemuxer(stream, int(info.NChannels), int(info.SampleRate), int(info.BitsPerSample), int(info.BlockSizeMax))
	if err != nil {
		_ = stream.Close()
		return nil, err
	}
	return d, nil
}

func newDemuxer(stream flacStream, channels, sampleRate, bitDepth, blockSize int) (audio.Demuxer, error) {
	if bitDepth < 4 || bitDepth > 32 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}
	if blockSize <= 0 {
		blockSize = maxBlockSize
	}

	format, err := audio.NewFormat("flac", channels, sampleRate, audio.SampleFormatS16, blockSize, audio.Timebase{}, nil)
	if err != nil {
		return nil, err
	}

	pr := &packetReader{
		stream:   stream,
		channels: channels,
		bitDepth: bitDepth,
	}
	return pcmcodec.NewDemuxer(format.Codec, format, pr, stream), nil
}

// maxBlockSize is the largest block the FLAC format allows.
const maxBlockSize = 65535
