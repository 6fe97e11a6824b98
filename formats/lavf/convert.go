// SPDX-License-Identifier: EPL-2.0

package lavf

import (
	"fmt"

	"github.com/asticode/go-astiav"
)

// Converter changes the sample format of frames with a software resampler,
// keeping their rate and channel layout.
type Converter struct {
	swr    *astiav.SoftwareResampleContext
	dst    *astiav.Frame
	format astiav.SampleFormat
}

func NewConverter(format astiav.SampleFormat) (*Converter, error) {
	swr := astiav.AllocSoftwareResampleContext()
	if swr == nil {
		return nil, fmt.Errorf("%w: swr", ErrAlloc)
	}
	dst := astiav.AllocFrame()
	if dst == nil {
		swr.Free()
		return nil, fmt.Errorf("%w: frame", ErrAlloc)
	}

	return &Converter{
		swr:    swr,
		dst:    dst,
		format: format,
	}, nil
}

// Convert returns src in the converter's sample format. The returned frame
// is reused by the next call.
func (c *Converter) Convert(src *astiav.Frame) (*astiav.Frame, error) {
	c.dst.Unref()
	c.dst.SetNbSamples(src.NbSamples())
	c.dst.SetChannelLayout(src.ChannelLayout())
	c.dst.SetSampleRate(src.SampleRate())
	c.dst.SetSampleFormat(c.format)
	if err := c.dst.AllocBuffer(0); err != nil {
		return nil, fmt.Errorf("dst alloc buffer: %w", err)
	}

	if err := c.swr.ConvertFrame(src, c.dst); err != nil {
		return nil, fmt.Errorf("swr convert: %w", err)
	}
	c.dst.SetPts(src.Pts())

	return c.dst, nil
}

func (c *Converter) Free() {
	if c.dst != nil {
		c.dst.Free()
		c.dst = nil
	}
	if c.swr != nil {
		c.swr.Free()
		c.swr = nil
	}
}

// packedBytes returns the interleaved samples of a packed frame.
func packedBytes(f *astiav.Frame, frameBytes int) ([]byte, error) {
	b, err := f.Data().Bytes(1)
	if err != nil {
		return nil, fmt.Errorf("frame bytes: %w", err)
	}
	return b[:min(len(b), f.NbSamples()*frameBytes)], nil
}
