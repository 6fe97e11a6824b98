// SPDX-License-Identifier: EPL-2.0

package lame

import "errors"

var (
	ErrEncoderNotFound = errors.New("libmp3lame encoder not found (FFmpeg built without libmp3lame?)")
	ErrPacketTooLarge  = errors.New("encoded data exceeds packet buffer")
	ErrBackendClosed   = errors.New("mp3 backend is closed")
)
