// SPDX-License-Identifier: EPL-2.0

package mp3

import "errors"

// ErrNotMP3 wraps the go-mp3 error for input that has no decodable frame.
var ErrNotMP3 = errors.New("not an MP3 stream")
