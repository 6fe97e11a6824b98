// SPDX-License-Identifier: EPL-2.0

// Package aiff provides AIFF (Audio Interchange File Format) decoding.
//
// This package uses github.com/go-audio/aiff to decode AIFF files and
// exposes them as a one track audio.Demuxer. Samples of any supported bit
// depth (8, 16, 24, 32) are delivered as interleaved s16le.
//
//	file, _ := os.Open("audio.aif")
//	d, err := aiff.Decoder{}.Open(file)
//	if err != nil {
//	    return err
//	}
//	src, err := source.Open(d, source.DefaultConfig)
//
// go-audio needs to seek; readers that cannot are buffered in memory.
package aiff
