// SPDX-License-Identifier: EPL-2.0

package encoder

import (
	"fmt"

	"github.com/ik5/audpipe/audio"
)

// OptionKeys are the options New recognises.
var OptionKeys = []string{"bitrate", "vbr", "quality"}

// DefaultVBR is the quality used when neither bitrate nor vbr is given.
const DefaultVBR = 6.0

// Mode is the rate control requested from a backend.
type Mode struct {
	CBR bool
	// Bitrate in kbps, used when CBR is set.
	Bitrate float64
	// VBR quality target, used when CBR is not set.
	VBR float64
	// Quality is the backend's speed/quality trade off.
	Quality int
}

func (m Mode) String() string {
	if m.CBR {
		return fmt.Sprintf("bitrate: %gkbps", m.Bitrate)
	}
	return fmt.Sprintf("VBR: %g", m.VBR)
}

// ParseMode reads bitrate, vbr and quality from opts.
func ParseMode(opts audio.Options) (Mode, error) {
	if opts.Has("bitrate") && opts.Has("vbr") {
		return Mode{}, audio.ErrConflictingMode
	}

	m := Mode{CBR: opts.Has("bitrate")}

	var err error
	if m.Bitrate, err = opts.Float("bitrate", 0); err != nil {
		return Mode{}, err
	}
	if m.CBR && m.Bitrate <= 0 {
		return Mode{}, fmt.Errorf("%w: bitrate must be positive", audio.ErrInvalidOption)
	}
	if m.VBR, err = opts.Float("vbr", DefaultVBR); err != nil {
		return Mode{}, err
	}
	if m.Quality, err = opts.Int("quality", 0); err != nil {
		return Mode{}, err
	}

	return m, nil
}
