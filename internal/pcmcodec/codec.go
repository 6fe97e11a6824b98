// SPDX-License-Identifier: EPL-2.0

// Package pcmcodec slices raw interleaved PCM payloads into decode units.
// Demuxers whose library already hands out PCM use it as their Codec.
package pcmcodec

import (
	"errors"
	"fmt"
)

var ErrPartialFrame = errors.New("payload ends inside a sample frame")

type Codec struct {
	unit  int
	frame int
}

// New returns a codec emitting units of at most frameLen sample frames of
// frameBytes each.
func New(frameLen, frameBytes int) *Codec {
	return &Codec{
		unit:  frameLen * frameBytes,
		frame: frameBytes,
	}
}

func (c *Codec) MaxUnitBytes() int { return c.unit }
func (c *Codec) Close() error      { return nil }

// Decode copies the leading whole frames of data, up to one unit, into dst.
func (c *Codec) Decode(data, dst []byte) (int, int, error) {
	if len(data) == 0 {
		return 0, 0, nil
	}

	n := min(len(data), c.unit, len(dst))
	n -= n % c.frame
	if n == 0 {
		return len(data), 0, fmt.Errorf("%w: %d trailing bytes", ErrPartialFrame, len(data))
	}

	copy(dst, data[:n])
	return n, n, nil
}
