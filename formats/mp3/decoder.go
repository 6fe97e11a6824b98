// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"errors"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/internal/pcmcodec"
)

// FrameLen is the number of samples in an MPEG-1 Layer III frame.
const FrameLen = 1152

// go-mp3 always produces 16-bit stereo.
const (
	channels   = 2
	frameBytes = channels * 2
)

// mp3Reader is an interface for gomp3.Decoder to allow testing
type mp3Reader interface {
	Read([]byte) (int, error)
	SampleRate() int
}

type packetReader struct {
	dec mp3Reader
	buf []byte
}

// ReadPacket returns one MP3 frame worth of PCM, shorter at the end of the
// stream.
func (p *packetReader) ReadPacket() ([]byte, error) {
	n, err := io.ReadFull(p.dec, p.buf)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = io.EOF
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding mp3: %w", err)
	}

	n -= n % frameBytes
	if n == 0 {
		return nil, io.EOF
	}
	return append([]byte(nil), p.buf[:n]...), err
}

// Decoder opens MP3 streams with the pure Go go-mp3 decoder. It implements
// audio.Opener.
type Decoder struct{}

var _ audio.Opener = Decoder{}

func (Decoder) Open(r io.Reader) (audio.Demuxer, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotMP3, err)
	}
	return newDemuxer(dec)
}

func newDemuxer(dec mp3Reader) (audio.Demuxer, error) {
	format, err := audio.NewFormat("mp3", channels, dec.SampleRate(), audio.SampleFormatS16, FrameLen, audio.Timebase{}, nil)
	if err != nil {
		return nil, err
	}

	pr := &packetReader{
		dec: dec,
		buf: make([]byte, FrameLen*frameBytes),
	}
	return pcmcodec.NewDemuxer(format.Codec, format, pr, nil), nil
}
