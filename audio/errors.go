// SPDX-License-Identifier: EPL-2.0

package audio

import "errors"

// ErrConstruction classifies every failure that prevents a component from
// being built. Causes are wrapped alongside it:
//
//	fmt.Errorf("%w: %w", ErrConstruction, ErrNoAudioTrack)
var ErrConstruction = errors.New("construction error")

var (
	ErrNoAudioTrack             = errors.New("could not find any audio track")
	ErrTrackNotAudio            = errors.New("requested track is unavailable or is not an audio track")
	ErrDecoderOpen              = errors.New("could not open decoder")
	ErrCapacity                 = errors.New("cache capacity too small")
	ErrConflictingMode          = errors.New("both bitrate and vbr mode specified")
	ErrUnsupportedChannelLayout = errors.New("unsupported channel layout")
	ErrUnsupportedSampleFormat  = errors.New("unsupported sample format")
	ErrInvalidFormat            = errors.New("invalid stream format")
	ErrUnknownOption            = errors.New("unknown option")
	ErrInvalidOption            = errors.New("invalid option value")
)

var (
	// ErrDecode is sticky: once a cache reports it, every later call does too.
	ErrDecode = errors.New("decode error")
	// ErrBackwardSeek is returned for requests that address evicted samples.
	ErrBackwardSeek = errors.New("backwards seeking not supported")
	ErrInvalidRange = errors.New("invalid sample range")
	ErrOutOfRange   = errors.New("sample offset out of range")
	// ErrEmptyFlush means the encoder had nothing left to emit.
	ErrEmptyFlush = errors.New("encoder flush produced no data")
	ErrClosed     = errors.New("component is closed")
)
