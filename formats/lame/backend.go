// SPDX-License-Identifier: EPL-2.0

package lame

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/asticode/go-astiav"
	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/encoder"
	"github.com/ik5/audpipe/formats/lavf"
	"github.com/sirupsen/logrus"
)

// qp2lambda is FF_QP2LAMBDA, the scale of AVCodecContext.global_quality.
const qp2lambda = 118

// MaxPacketBytes is the largest buffer LAME may fill for one call with
// frameLen samples, per lame.h.
func MaxPacketBytes(frameLen int) int {
	return 125*frameLen/100 + 7200
}

// Backend encodes MP3 with FFmpeg's libmp3lame wrapper. It implements
// encoder.Backend.
type Backend struct {
	log logrus.FieldLogger

	cc    *astiav.CodecContext
	frame *astiav.Frame
	conv  *lavf.Converter
	pkt   *astiav.Packet

	in       *audio.Format
	inFormat astiav.SampleFormat
	layout   astiav.ChannelLayout
	frameLen int

	pts int64
	// pending counts the samples sent to lame and not yet covered by a packet
	pending int64
	flushed bool
}

var _ encoder.Backend = (*Backend)(nil)

func New(log logrus.FieldLogger) *Backend {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Backend{log: log.WithField("backend", "libmp3lame")}
}

func (b *Backend) Name() string     { return "mp3" }
func (b *Backend) MaxChannels() int { return 2 }

// Configure opens libmp3lame for in. A CBR mode sets the bit rate, otherwise
// the VBR quality is passed as a global quality in qscale mode. The quality
// option maps to LAME's algorithm quality (compression_level).
func (b *Backend) Configure(in *audio.Format, m encoder.Mode) (encoder.Params, error) {
	layout, err := lavf.ChannelLayout(in.Channels)
	if err != nil {
		return encoder.Params{}, err
	}
	inFormat, err := lavf.AVSampleFormat(in.SampleFormat, false)
	if err != nil {
		return encoder.Params{}, err
	}

	codec := astiav.FindEncoderByName("libmp3lame")
	if codec == nil {
		return encoder.Params{}, ErrEncoderNotFound
	}

	cc := astiav.AllocCodecContext(codec)
	if cc == nil {
		return encoder.Params{}, fmt.Errorf("%w: codec context", lavf.ErrAlloc)
	}
	cc.SetSampleRate(in.SampleRate)
	cc.SetChannelLayout(layout)
	cc.SetSampleFormat(astiav.SampleFormatFltp)
	cc.SetTimeBase(astiav.NewRational(1, in.SampleRate))

	opts := astiav.NewDictionary()
	defer opts.Free()
	_ = opts.Set("compression_level", strconv.Itoa(m.Quality), 0)
	if m.CBR {
		cc.SetBitRate(int64(math.Round(m.Bitrate * 1000)))
	} else {
		_ = opts.Set("flags", "+qscale", 0)
		_ = opts.Set("global_quality", strconv.Itoa(int(math.Round(m.VBR*qp2lambda))), 0)
	}

	if err := cc.Open(codec, opts); err != nil {
		cc.Free()
		return encoder.Params{}, fmt.Errorf("open mp3 encoder (sr=%d ch=%d): %w", in.SampleRate, in.Channels, err)
	}
	b.cc = cc
	b.in = in
	b.inFormat = inFormat
	b.layout = layout
	b.frameLen = cc.FrameSize()

	if b.frame = astiav.AllocFrame(); b.frame == nil {
		_ = b.Close()
		return encoder.Params{}, fmt.Errorf("%w: frame", lavf.ErrAlloc)
	}
	if b.pkt = astiav.AllocPacket(); b.pkt == nil {
		_ = b.Close()
		return encoder.Params{}, fmt.Errorf("%w: packet", lavf.ErrAlloc)
	}
	if b.conv, err = lavf.NewConverter(astiav.SampleFormatFltp); err != nil {
		_ = b.Close()
		return encoder.Params{}, err
	}

	b.log.WithFields(logrus.Fields{
		"sample_rate": cc.SampleRate(),
		"frame_len":   b.frameLen,
		"bitrate":     cc.BitRate(),
	}).Debug("opened libmp3lame")

	return encoder.Params{
		FrameLen:       b.frameLen,
		MaxPacketBytes: MaxPacketBytes(b.frameLen),
		SampleRate:     cc.SampleRate(),
	}, nil
}

// Encode sends one window of packed samples. A window shorter than the frame
// length is only valid as the last one.
func (b *Backend) Encode(pcm []byte, samples int, dst []byte) (int, error) {
	if b.cc == nil {
		return 0, ErrBackendClosed
	}

	b.frame.Unref()
	b.frame.SetNbSamples(samples)
	b.frame.SetChannelLayout(b.layout)
	b.frame.SetSampleRate(b.in.SampleRate)
	b.frame.SetSampleFormat(b.inFormat)
	if err := b.frame.AllocBuffer(0); err != nil {
		return 0, fmt.Errorf("frame alloc buffer: %w", err)
	}
	if err := b.frame.Data().SetBytes(pcm[:samples*b.in.FrameBytes], 0); err != nil {
		return 0, fmt.Errorf("failed to set frame data bytes: %w", err)
	}
	b.frame.SetPts(b.pts)
	b.pts += int64(samples)

	f, err := b.conv.Convert(b.frame)
	if err != nil {
		return 0, err
	}
	if err := b.cc.SendFrame(f); err != nil {
		return 0, fmt.Errorf("failed to send frame to encoder: %w", err)
	}
	b.pending += int64(samples)

	n, err := b.receive(dst)
	return n, err
}

// Flush drains lame. covered is every sample sent and not yet returned in
// an earlier packet.
func (b *Backend) Flush(dst []byte) (int, int, error) {
	if b.cc == nil {
		return 0, 0, ErrBackendClosed
	}

	if !b.flushed {
		b.flushed = true
		if err := b.cc.SendFrame(nil); err != nil && !errors.Is(err, astiav.ErrEof) {
			return 0, 0, fmt.Errorf("failed to send flush frame: %w", err)
		}
	}

	covered := b.pending
	n, err := b.receive(dst)
	if err != nil {
		return 0, 0, err
	}
	b.pending = 0

	return n, int(max(covered, 0)), nil
}

// receive appends every packet lame has ready to dst.
func (b *Backend) receive(dst []byte) (int, error) {
	n := 0
	for {
		b.pkt.Unref()
		if err := b.cc.ReceivePacket(b.pkt); err != nil {
			if errors.Is(err, astiav.ErrEagain) || errors.Is(err, astiav.ErrEof) {
				return n, nil
			}
			return n, fmt.Errorf("failed to receive mp3 packet: %w", err)
		}

		data := b.pkt.Data()
		if n+len(data) > len(dst) {
			return n, fmt.Errorf("%w: %d bytes into %d", ErrPacketTooLarge, n+len(data), len(dst))
		}
		n += copy(dst[n:], data)
		b.pending -= b.pkt.Duration()
	}
}

func (b *Backend) Close() error {
	if b.conv != nil {
		b.conv.Free()
		b.conv = nil
	}
	if b.pkt != nil {
		b.pkt.Free()
		b.pkt = nil
	}
	if b.frame != nil {
		b.frame.Free()
		b.frame = nil
	}
	if b.cc != nil {
		b.cc.Free()
		b.cc = nil
	}
	return nil
}
