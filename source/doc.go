// SPDX-License-Identifier: EPL-2.0

// Package source implements the windowed decode cache: the first stage of an
// audio chain, turning a compressed track into a sample addressable PCM
// source with bounded memory.
//
// # Opening
//
//	d, err := lavf.Open("song.flac", log)
//	if err != nil {
//	    return err
//	}
//	src, err := source.Open(d, source.DefaultConfig)
//	if err != nil {
//	    d.Close()
//	    return err
//	}
//	defer src.Close()
//
// Open picks the requested track (or the first audio track), opens its codec
// and decodes one unit before returning.
//
// # Window
//
// Decoded bytes are appended to a fixed buffer. When a new unit does not fit,
// exactly as many of the oldest bytes as the unit is long are dropped. The
// cache never goes back: a request for samples that were dropped fails with
// audio.ErrBackwardSeek.
//
// A request larger than the window is served in chunks of
// capacity - 2*surplus bytes, where surplus is one and a half times the
// larger of a decoder frame and the biggest unit the codec emits. The
// returned packet grows with the bytes actually decoded, so a request
// running far past the end of the stream costs no more than the stream.
//
// # Errors
//
// A packet the codec rejects is skipped with a warning (logged once, then
// every 256 errors). A read failure from the demuxer is fatal and sticky:
// every later call returns the same audio.ErrDecode.
package source
