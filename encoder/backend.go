// SPDX-License-Identifier: EPL-2.0

package encoder

import "github.com/ik5/audpipe/audio"

// Params is what a backend reports once it has been configured.
type Params struct {
	// FrameLen is the number of input samples the backend takes per Encode call.
	FrameLen int
	// MaxPacketBytes is the largest output Encode or Flush can produce for one window.
	MaxPacketBytes int
	// SampleRate of the encoded stream. Zero means the input rate.
	SampleRate int
	ExtraData  []byte
}

// Backend is the external encoder the Adapter drives.
type Backend interface {
	// Name is the codec name reported on the output format.
	Name() string
	// MaxChannels is the largest channel count the backend accepts.
	MaxChannels() int
	Configure(in *audio.Format, m Mode) (Params, error)
	// Encode encodes samples sample frames of packed pcm into dst. Returning
	// 0 bytes is valid when the backend buffers input.
	Encode(pcm []byte, samples int, dst []byte) (int, error)
	// Flush writes what the backend still holds into dst. covered is the
	// number of input samples the flushed bytes represent, or -1 if unknown.
	Flush(dst []byte) (n, covered int, err error)
	Close() error
}
