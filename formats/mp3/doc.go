// SPDX-License-Identifier: EPL-2.0

// Package mp3 provides MP3 audio file decoding.
//
// This package uses github.com/hajimehoshi/go-mp3 to decode MP3 files
// without cgo. The stream is exposed as a one track audio.Demuxer; every
// packet holds one MPEG frame (1152 samples) of PCM. go-mp3 always produces
// 16-bit stereo, mono files included.
//
//	file, _ := os.Open("audio.mp3")
//	d, err := mp3.Decoder{}.Open(file)
//	if err != nil {
//	    return err
//	}
//	src, err := source.Open(d, source.DefaultConfig)
//
// Use formats/lavf when the exact channel layout of the file matters.
package mp3
