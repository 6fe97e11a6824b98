// SPDX-License-Identifier: EPL-2.0

package source

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// decodeUnit writes the next decoded unit into c.unit and returns its size.
//
// A compressed packet rarely maps to exactly one unit, so the undecoded rest
// of the current packet is kept in c.pending between calls. A packet the
// codec rejects is dropped and decoding continues with the next one. Read
// errors from the demuxer are returned; physical end of input drains the
// codec and then reports io.EOF.
func (c *Cache) decodeUnit() (int, error) {
	for {
		if c.eof {
			if c.drained {
				return 0, io.EOF
			}
			_, n, err := c.codec.Decode(nil, c.unit)
			if err != nil {
				c.warnCorrupt(err, 0)
			}
			if err != nil || n <= 0 {
				c.drained = true
				return 0, io.EOF
			}
			return c.checkUnit(n)
		}

		if c.pending != nil {
			consumed, n, err := c.codec.Decode(c.pending, c.unit)
			if err != nil {
				c.warnCorrupt(err, len(c.pending))
				c.pending = nil
				continue
			}
			if consumed < 0 || consumed > len(c.pending) {
				return 0, fmt.Errorf("codec consumed %d of %d bytes", consumed, len(c.pending))
			}

			c.pending = c.pending[consumed:]
			if n > 0 {
				return c.checkUnit(n)
			}
			if consumed == 0 {
				c.pending = nil
			}
			continue
		}

		data, err := c.demux.ReadPacket(c.track)
		if errors.Is(err, io.EOF) {
			c.log.Info("end of file reached")
			c.eof = true
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("read error: %w", err)
		}
		if data == nil {
			data = []byte{}
		}
		c.pending = data
	}
}

func (c *Cache) checkUnit(n int) (int, error) {
	if n > len(c.unit) {
		return 0, fmt.Errorf("codec produced %d bytes into a %d byte unit", n, len(c.unit))
	}
	if rem := n % c.format.FrameBytes; rem != 0 {
		c.warnCorrupt(fmt.Errorf("unit of %d bytes is not a whole number of sample frames", n), rem)
		n -= rem
	}
	return n, nil
}

// warnCorrupt logs the first decode error and then every 256th one.
func (c *Cache) warnCorrupt(err error, dropped int) {
	if c.warns == 0 {
		c.log.WithError(err).WithFields(logrus.Fields{
			"dropped": dropped,
		}).Warn("decoding errors may cause audio desync")
	}
	c.warns++
}
