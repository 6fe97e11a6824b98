// SPDX-License-Identifier: EPL-2.0

package opus

import "errors"

var (
	ErrUnsupportedSampleRate = errors.New("opus supports 8, 12, 16, 24 and 48 kHz only")
	ErrBackendClosed         = errors.New("opus backend is closed")
)
