// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/internal/pcmcodec"
	"github.com/ik5/audpipe/utils"
)

// PacketLen is the number of sample frames per demuxed packet.
const PacketLen = 1024

const pcmFormat = 1

// pcmReader is the part of wav.Decoder the demuxer uses; tests replace it.
type pcmReader interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

type packetReader struct {
	dec      pcmReader
	bitDepth int
	channels int
	buf      *goaudio.IntBuffer
	// carry holds samples of a sample frame split across two reads
	carry []int
	out   []byte
}

func (p *packetReader) ReadPacket() ([]byte, error) {
	p.buf.Data = p.buf.Data[:cap(p.buf.Data)]
	k := copy(p.buf.Data, p.carry)
	p.carry = p.carry[:0]

	n, err := p.dec.PCMBuffer(&goaudio.IntBuffer{Data: p.buf.Data[k:], Format: p.buf.Format})
	n += k
	if err == nil && n == k {
		err = io.EOF
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = io.EOF
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading wav samples: %w", err)
	}

	whole := n - n%p.channels
	p.carry = append(p.carry, p.buf.Data[whole:n]...)
	samples := p.buf.Data[:whole]
	if p.bitDepth == 8 {
		// 8 bit WAV is unsigned
		for i := range samples {
			samples[i] -= 128
		}
	}

	size := utils.IntsToS16LE(p.out, samples, p.bitDepth)
	if size == 0 {
		return nil, err
	}
	return append([]byte(nil), p.out[:size]...), err
}

// Decoder opens WAV files. It implements audio.Opener.
type Decoder struct{}

var _ audio.Opener = Decoder{}

// Open reads the WAV header and returns a one track demuxer producing
// interleaved s16le. 8, 16, 24 and 32 bit integer PCM are accepted.
// go-audio needs to seek, so a reader that is not an io.ReadSeeker is read
// into memory first.
func (Decoder) Open(r io.Reader) (audio.Demuxer, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading wav data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec := wav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotWavFile
	}
	dec.ReadInfo()

	if dec.WavAudioFormat != pcmFormat {
		return nil, fmt.Errorf("%w: format tag %d", ErrOnlyPCMSupported, dec.WavAudioFormat)
	}

	bitDepth := int(dec.BitDepth)
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}

	f := dec.Format()
	if f == nil || f.NumChannels <= 0 || f.SampleRate <= 0 {
		return nil, ErrUnsupportedWavLayout
	}

	format, err := audio.NewFormat("pcm_s16le", f.NumChannels, f.SampleRate, audio.SampleFormatS16, PacketLen, audio.Timebase{}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedWavLayout, err)
	}

	pr := &packetReader{
		dec:      dec,
		bitDepth: bitDepth,
		channels: f.NumChannels,
		buf: &goaudio.IntBuffer{
			Data:           make([]int, PacketLen*f.NumChannels),
			Format:         f,
			SourceBitDepth: bitDepth,
		},
		out: make([]byte, 2*PacketLen*f.NumChannels),
	}

	return pcmcodec.NewDemuxer(format.Codec, format, pr, nil), nil
}
