// SPDX-License-Identifier: EPL-2.0

package lavf

import "errors"

var (
	ErrOpenInput     = errors.New("could not open audio file")
	ErrStreamInfo    = errors.New("could not find stream info")
	ErrNoDecoder     = errors.New("no decoder for codec")
	ErrAlloc         = errors.New("libav allocation failed")
	ErrDemuxerClosed = errors.New("demuxer is closed")
)
