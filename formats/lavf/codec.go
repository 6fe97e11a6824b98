// SPDX-License-Identifier: EPL-2.0

package lavf

import (
	"errors"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/ik5/audpipe/audio"
)

// MaxUnitBytes is libavcodec's historic AVCODEC_MAX_AUDIO_FRAME_SIZE. Larger
// decoded frames are handed out in several units.
const MaxUnitBytes = 192000

// DefaultFrameLen is used when the decoder does not report a frame size.
const DefaultFrameLen = 1024

// codec adapts libavcodec's send/receive API to audio.Codec.
type codec struct {
	cc    *astiav.CodecContext
	frame *astiav.Frame
	pkt   *astiav.Packet
	// conv is nil when the decoder already outputs packed samples
	conv *Converter

	frameBytes int
	unit       int
	leftover   []byte
	flushed    bool
}

var _ audio.Codec = (*codec)(nil)

func newCodec(cc *astiav.CodecContext, format *audio.Format) (*codec, error) {
	c := &codec{
		cc:         cc,
		frameBytes: format.FrameBytes,
		unit:       MaxUnitBytes - MaxUnitBytes%format.FrameBytes,
	}

	if c.frame = astiav.AllocFrame(); c.frame == nil {
		_ = c.Close()
		return nil, fmt.Errorf("%w: frame", ErrAlloc)
	}
	if c.pkt = astiav.AllocPacket(); c.pkt == nil {
		_ = c.Close()
		return nil, fmt.Errorf("%w: packet", ErrAlloc)
	}

	if cc.SampleFormat().IsPlanar() {
		packed, err := AVSampleFormat(format.SampleFormat, false)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		if c.conv, err = NewConverter(packed); err != nil {
			_ = c.Close()
			return nil, err
		}
	}

	return c, nil
}

func (c *codec) MaxUnitBytes() int { return c.unit }

func (c *codec) Decode(data, dst []byte) (int, int, error) {
	if len(c.leftover) > 0 {
		return 0, c.emit(dst), nil
	}
	if n, err := c.receive(dst); n > 0 || err != nil {
		return 0, n, err
	}

	if data == nil {
		if c.flushed {
			return 0, 0, nil
		}
		c.flushed = true
		if err := c.cc.SendPacket(nil); err != nil && !errors.Is(err, astiav.ErrEof) {
			return 0, 0, fmt.Errorf("flushing decoder: %w", err)
		}
		n, err := c.receive(dst)
		return 0, n, err
	}
	if len(data) == 0 {
		return 0, 0, nil
	}

	c.pkt.Unref()
	if err := c.pkt.FromData(data); err != nil {
		return len(data), 0, fmt.Errorf("packet from data: %w", err)
	}
	err := c.cc.SendPacket(c.pkt)
	c.pkt.Unref()
	if err != nil {
		return len(data), 0, fmt.Errorf("send packet: %w", err)
	}

	n, err := c.receive(dst)
	return len(data), n, err
}

// receive pulls the next non-empty frame from the decoder. It returns 0
// when the decoder wants more input or is drained.
func (c *codec) receive(dst []byte) (int, error) {
	for {
		c.frame.Unref()
		err := c.cc.ReceiveFrame(c.frame)
		if errors.Is(err, astiav.ErrEagain) || errors.Is(err, astiav.ErrEof) {
			return 0, nil
		}
		if err != nil {
			return 0, fmt.Errorf("receive frame: %w", err)
		}
		if c.frame.NbSamples() == 0 {
			continue
		}

		f := c.frame
		if c.conv != nil {
			if f, err = c.conv.Convert(c.frame); err != nil {
				return 0, err
			}
		}
		b, err := packedBytes(f, c.frameBytes)
		if err != nil {
			return 0, err
		}
		c.leftover = append(c.leftover[:0], b...)
		return c.emit(dst), nil
	}
}

func (c *codec) emit(dst []byte) int {
	n := min(len(c.leftover), len(dst), c.unit)
	n -= n % c.frameBytes
	copy(dst, c.leftover[:n])
	c.leftover = c.leftover[n:]
	return n
}

func (c *codec) Close() error {
	if c.conv != nil {
		c.conv.Free()
		c.conv = nil
	}
	if c.frame != nil {
		c.frame.Free()
		c.frame = nil
	}
	if c.pkt != nil {
		c.pkt.Free()
		c.pkt = nil
	}
	if c.cc != nil {
		c.cc.Free()
		c.cc = nil
	}
	c.leftover = nil
	return nil
}
