// SPDX-License-Identifier: EPL-2.0

package source

import (
	"fmt"

	"github.com/ik5/audpipe/audio"
	"github.com/sirupsen/logrus"
)

// OptionKeys are the option keys recognised by ConfigFromOptions.
var OptionKeys = []string{"filename", "track"}

type Config struct {
	// Track selects the audio track, audio.TrackAny for the first one.
	Track int
	// Capacity of the cache buffer in bytes. Zero picks four times the
	// largest unit the codec can produce, or four decoder frames if that
	// is more.
	Capacity int
	Logger   logrus.FieldLogger
}

var DefaultConfig = Config{
	Track:  audio.TrackAny,
	Logger: logrus.StandardLogger(),
}

func (c Config) fill() Config {
	if c.Logger == nil {
		c.Logger = DefaultConfig.Logger
	}
	if c.Capacity < 0 {
		c.Capacity = DefaultConfig.Capacity
	}
	return c
}

// ConfigFromOptions builds a Config from "track" ("any" or an index).
func ConfigFromOptions(opts audio.Options) (Config, error) {
	cfg := DefaultConfig

	track := opts.String("track", "any")
	if track == "any" {
		return cfg, nil
	}

	id, err := opts.Int("track", audio.TrackAny)
	if err != nil {
		return cfg, err
	}
	if id < 0 {
		return cfg, fmt.Errorf("%w: track=%d", audio.ErrInvalidOption, id)
	}
	cfg.Track = id

	return cfg, nil
}
