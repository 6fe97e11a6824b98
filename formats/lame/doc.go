// SPDX-License-Identifier: EPL-2.0

// Package lame is the MP3 encoder backend, built on FFmpeg's libmp3lame
// wrapper through go-astiav.
//
//	enc, err := encoder.NewFromString(src, lame.New(log), "vbr=2,quality=5", log)
//
// Packed input of any sample format is converted to planar float for lame.
// Only mono and stereo are supported.
package lame
