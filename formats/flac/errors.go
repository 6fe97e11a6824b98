// SPDX-License-Identifier: EPL-2.0

package flac

import "errors"

var (
	ErrNotFLAC             = errors.New("not a FLAC stream")
	ErrUnsupportedBitDepth = errors.New("unsupported FLAC bit depth")
	ErrChannelMismatch     = errors.New("FLAC frame channel count mismatch")
)
