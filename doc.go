// SPDX-License-Identifier: EPL-2.0

// Package audpipe drives the audio chain end to end: a source decoded
// through a windowed cache and an encoder pulling fixed size windows from
// it.
//
// # Supported Formats
//
// Inputs are opened through a Demuxer:
//   - WAV (8/16/24/32-bit PCM) via formats/wav
//   - AIFF via formats/aiff
//   - MP3 via formats/mp3
//   - Ogg Vorbis via formats/vorbis
//   - FLAC via formats/flac
//   - anything FFmpeg reads via formats/lavf
//
// Encoders are Backends driven by encoder.Adapter: MP3 (formats/lame) and
// Opus (formats/opus).
//
// # Quick Start
//
//	file, _ := os.Open("song.wav")
//	d, _ := wav.Decoder{}.Open(file)
//	src, _ := source.Open(d, source.DefaultConfig)
//	defer src.Close()
//
//	enc, _ := encoder.NewFromString(src, lame.New(nil), "bitrate=192", nil)
//	defer enc.Close()
//
//	out, _ := os.Create("song.mp3")
//	stats, err := audpipe.Encode(audpipe.NewRawWriter(out), enc)
//
// Decoding only is just as short:
//
//	out, _ := os.Create("song.wav")
//	samples, err := audpipe.DecodeToWAV(out, src, audpipe.DefaultChunk)
package audpipe
