// SPDX-License-Identifier: EPL-2.0

// Package wav reads and writes WAV files.
//
// Decoder opens integer PCM WAV files (8, 16, 24 or 32 bit, any channel
// count) through github.com/go-audio/wav and exposes them as a one track
// audio.Demuxer producing interleaved s16le:
//
//	f, _ := os.Open("audio.wav")
//	d, err := wav.Decoder{}.Open(f)
//	if err != nil {
//	    return err
//	}
//	src, err := source.Open(d, source.DefaultConfig)
//
// Writer streams PCM of unknown length and patches the header when closed,
// so it needs an io.WriteSeeker.
package wav
