// SPDX-License-Identifier: EPL-2.0

// Package vorbis provides Ogg Vorbis audio file decoding.
//
// This package uses github.com/jfreymuth/oggvorbis to decode Ogg Vorbis
// files in pure Go. The stream is exposed as a one track audio.Demuxer whose
// packets carry interleaved little-endian float32 samples in [-1, 1], one
// decoded Vorbis block each.
//
//	file, _ := os.Open("audio.ogg")
//	d, err := vorbis.Decoder{}.Open(file)
//	if err != nil {
//	    return err
//	}
//	src, err := source.Open(d, source.DefaultConfig)
package vorbis
