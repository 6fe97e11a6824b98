// SPDX-License-Identifier: EPL-2.0

package opus

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/encoder"
	"github.com/ik5/audpipe/utils"
	"github.com/sirupsen/logrus"
	"gopkg.in/hraban/opus.v2"
)

// MaxPacketBytes is the recommended output buffer size of libopus.
const MaxPacketBytes = 4000

// Frames are 20 ms long.
const framesPerSecond = 50

// Backend encodes Opus with libopus through hraban/opus. It implements
// encoder.Backend.
type Backend struct {
	log logrus.FieldLogger
	enc *opus.Encoder

	in       *audio.Format
	frameLen int
	pcm16    []int16
	pcm32    []float32
}

var _ encoder.Backend = (*Backend)(nil)

func New(log logrus.FieldLogger) *Backend {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Backend{log: log.WithField("backend", "libopus")}
}

func (b *Backend) Name() string     { return "opus" }
func (b *Backend) MaxChannels() int { return 2 }

// Configure creates the libopus encoder. A bitrate option sets the target
// rate; in VBR mode libopus picks it. Quality 0 is the
// highest complexity, 10 the lowest.
func (b *Backend) Configure(in *audio.Format, m encoder.Mode) (encoder.Params, error) {
	switch in.SampleRate {
	case 8000, 12000, 16000, 24000, 48000:
	default:
		return encoder.Params{}, fmt.Errorf("%w: %d Hz", ErrUnsupportedSampleRate, in.SampleRate)
	}
	switch in.SampleFormat {
	case audio.SampleFormatS16, audio.SampleFormatF32:
	default:
		return encoder.Params{}, fmt.Errorf("%w: opus needs s16 or flt input, got %s",
			audio.ErrUnsupportedSampleFormat, in.SampleFormat)
	}

	enc, err := opus.NewEncoder(in.SampleRate, in.Channels, opus.AppAudio)
	if err != nil {
		return encoder.Params{}, fmt.Errorf("failed to create opus encoder: %w", err)
	}

	if m.CBR {
		if err := enc.SetBitrate(int(math.Round(m.Bitrate * 1000))); err != nil {
			return encoder.Params{}, fmt.Errorf("%w: bitrate=%g: %w", audio.ErrInvalidOption, m.Bitrate, err)
		}
	}
	complexity := 10 - min(max(m.Quality, 0), 10)
	if err := enc.SetComplexity(complexity); err != nil {
		return encoder.Params{}, fmt.Errorf("%w: quality=%d: %w", audio.ErrInvalidOption, m.Quality, err)
	}

	b.enc = enc
	b.in = in
	b.frameLen = in.SampleRate / framesPerSecond
	if in.SampleFormat == audio.SampleFormatS16 {
		b.pcm16 = make([]int16, b.frameLen*in.Channels)
	} else {
		b.pcm32 = make([]float32, b.frameLen*in.Channels)
	}

	b.log.WithFields(logrus.Fields{
		"frame_len":  b.frameLen,
		"complexity": complexity,
	}).Debug("opened libopus")

	return encoder.Params{
		FrameLen:       b.frameLen,
		MaxPacketBytes: MaxPacketBytes,
		SampleRate:     in.SampleRate,
	}, nil
}

// Encode encodes one 20 ms frame. A shorter last window is padded with
// silence.
func (b *Backend) Encode(pcm []byte, samples int, dst []byte) (int, error) {
	if b.enc == nil {
		return 0, ErrBackendClosed
	}

	values := samples * b.in.Channels
	var (
		n   int
		err error
	)
	if b.pcm16 != nil {
		clear(b.pcm16[utils.S16LE(b.pcm16[:values], pcm):])
		n, err = b.enc.Encode(b.pcm16, dst)
	} else {
		for i := range values {
			b.pcm32[i] = math.Float32frombits(binary.LittleEndian.Uint32(pcm[4*i:]))
		}
		clear(b.pcm32[values:])
		n, err = b.enc.EncodeFloat32(b.pcm32, dst)
	}
	if err != nil {
		return 0, fmt.Errorf("opus encode error: %w", err)
	}
	return n, nil
}

// Flush has nothing to return: libopus emits a packet for every frame.
func (b *Backend) Flush(dst []byte) (int, int, error) {
	if b.enc == nil {
		return 0, 0, ErrBackendClosed
	}
	return 0, 0, nil
}

func (b *Backend) Close() error {
	b.enc = nil
	return nil
}
