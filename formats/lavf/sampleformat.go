// SPDX-License-Identifier: EPL-2.0

package lavf

import (
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/ik5/audpipe/audio"
)

var sampleFormats = []struct {
	packed astiav.SampleFormat
	planar astiav.SampleFormat
	sf     audio.SampleFormat
}{
	{astiav.SampleFormatU8, astiav.SampleFormatU8P, audio.SampleFormatU8},
	{astiav.SampleFormatS16, astiav.SampleFormatS16P, audio.SampleFormatS16},
	{astiav.SampleFormatS32, astiav.SampleFormatS32P, audio.SampleFormatS32},
	{astiav.SampleFormatFlt, astiav.SampleFormatFltp, audio.SampleFormatF32},
	{astiav.SampleFormatDbl, astiav.SampleFormatDblp, audio.SampleFormatF64},
}

// SampleFormat maps a libav sample format, packed or planar, to the packed
// layout it is delivered in.
func SampleFormat(f astiav.SampleFormat) (audio.SampleFormat, error) {
	for _, m := range sampleFormats {
		if m.packed == f || m.planar == f {
			return m.sf, nil
		}
	}
	return audio.SampleFormatNone, fmt.Errorf("%w: %s", audio.ErrUnsupportedSampleFormat, f)
}

// AVSampleFormat is the inverse of SampleFormat.
func AVSampleFormat(sf audio.SampleFormat, planar bool) (astiav.SampleFormat, error) {
	for _, m := range sampleFormats {
		if m.sf != sf {
			continue
		}
		if planar {
			return m.planar, nil
		}
		return m.packed, nil
	}
	return astiav.SampleFormatNone, fmt.Errorf("%w: %s", audio.ErrUnsupportedSampleFormat, sf)
}

// ChannelLayout returns the default layout for mono and stereo.
func ChannelLayout(channels int) (astiav.ChannelLayout, error) {
	switch channels {
	case 1:
		return astiav.ChannelLayoutMono, nil
	case 2:
		return astiav.ChannelLayoutStereo, nil
	}
	return astiav.ChannelLayout{}, fmt.Errorf("%w: %d channels", audio.ErrUnsupportedChannelLayout, channels)
}
