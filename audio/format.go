// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"math"
	"time"
)

// SampleFormat is the layout of a single interleaved channel sample.
type SampleFormat int

const (
	SampleFormatNone SampleFormat = iota
	SampleFormatU8
	SampleFormatS16
	SampleFormatS32
	SampleFormatF32
	SampleFormatF64
)

// BytesPerSample returns the size of one channel sample, or 0 for an unknown format.
func (f SampleFormat) BytesPerSample() int {
	switch f {
	case SampleFormatU8:
		return 1
	case SampleFormatS16:
		return 2
	case SampleFormatS32, SampleFormatF32:
		return 4
	case SampleFormatF64:
		return 8
	}
	return 0
}

func (f SampleFormat) String() string {
	switch f {
	case SampleFormatU8:
		return "u8"
	case SampleFormatS16:
		return "s16"
	case SampleFormatS32:
		return "s32"
	case SampleFormatF32:
		return "flt"
	case SampleFormatF64:
		return "dbl"
	}
	return "none"
}

// Timebase is the rational unit timestamps are expressed in.
type Timebase struct {
	Num int
	Den int
}

// Format describes a PCM or encoded stream. It is created once by the
// producing component and must not be modified afterwards; packets share it
// by pointer.
type Format struct {
	// Codec names the payload, "pcm" for raw samples.
	Codec        string
	Channels     int
	SampleRate   int
	SampleFormat SampleFormat

	// ChannelBytes is the size of one sample of one channel.
	ChannelBytes int
	// FrameBytes is the size of one interleaved sample frame (all channels).
	FrameBytes int

	// FrameLen is the native frame length of the codec, in samples.
	FrameLen int
	// FrameSize is FrameLen * FrameBytes.
	FrameSize int

	Timebase Timebase

	// ExtraData carries optional codec specific configuration.
	ExtraData []byte
}

// NewFormat derives the byte sizes of a stream and validates them.
func NewFormat(codec string, channels, sampleRate int, sf SampleFormat, frameLen int, tb Timebase, extra []byte) (*Format, error) {
	switch {
	case channels <= 0:
		return nil, fmt.Errorf("%w: %d channels", ErrInvalidFormat, channels)
	case sampleRate <= 0:
		return nil, fmt.Errorf("%w: sample rate %d", ErrInvalidFormat, sampleRate)
	case sf.BytesPerSample() == 0:
		return nil, fmt.Errorf("%w: sample format %s", ErrInvalidFormat, sf)
	case frameLen <= 0:
		return nil, fmt.Errorf("%w: frame length %d", ErrInvalidFormat, frameLen)
	}

	if tb.Num <= 0 || tb.Den <= 0 {
		tb = Timebase{Num: 1, Den: sampleRate}
	}

	chanBytes := sf.BytesPerSample()
	frameBytes := chanBytes * channels

	return &Format{
		Codec:        codec,
		Channels:     channels,
		SampleRate:   sampleRate,
		SampleFormat: sf,
		ChannelBytes: chanBytes,
		FrameBytes:   frameBytes,
		FrameLen:     frameLen,
		FrameSize:    frameLen * frameBytes,
		Timebase:     tb,
		ExtraData:    extra,
	}, nil
}

// BytesFor converts a sample count into a byte count, reporting overflow
// instead of wrapping.
func (f *Format) BytesFor(samples int64) (int64, error) {
	if samples < 0 {
		return 0, fmt.Errorf("%w: negative sample index %d", ErrOutOfRange, samples)
	}
	if f.FrameBytes > 0 && samples > math.MaxInt64/int64(f.FrameBytes) {
		return 0, fmt.Errorf("%w: sample index %d", ErrOutOfRange, samples)
	}
	return samples * int64(f.FrameBytes), nil
}

// SamplesIn returns the number of whole sample frames in n bytes.
func (f *Format) SamplesIn(n int) int64 {
	if f.FrameBytes == 0 {
		return 0
	}
	return int64(n / f.FrameBytes)
}

// Duration of the given number of samples at the stream's sample rate.
func (f *Format) Duration(samples int64) time.Duration {
	if f.SampleRate == 0 {
		return 0
	}
	return time.Duration(samples) * time.Second / time.Duration(f.SampleRate)
}

func (f *Format) String() string {
	return fmt.Sprintf("%s %dHz %dch %s", f.Codec, f.SampleRate, f.Channels, f.SampleFormat)
}
