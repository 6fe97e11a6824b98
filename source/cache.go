// SPDX-License-Identifier: EPL-2.0

package source

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/ik5/audpipe/audio"
	"github.com/sirupsen/logrus"
)

// Cache presents one audio track of a Demuxer as a forward-only,
// sample-addressable PCM source backed by a fixed size sliding window.
//
// The window [pos, pos+filled) holds the most recently decoded bytes.
// Anything before pos has been evicted and cannot be served again.
//
// A Cache is not safe for concurrent use.
type Cache struct {
	demux  audio.Demuxer
	codec  audio.Codec
	track  int
	format *audio.Format
	log    logrus.FieldLogger
	pool   audio.Pool

	buf     []byte // len(buf) is the capacity
	filled  int
	pos     int64
	surplus int

	// decode loop state, see decode.go
	unit    []byte
	pending []byte
	eof     bool
	drained bool
	warns   uint8

	err    error
	ended  bool
	closed bool
}

var _ audio.SampleSource = (*Cache)(nil)

// Open selects the track, opens its codec, allocates the window and primes
// it with one decoded unit. The Cache owns d once Open succeeds; on failure
// d is left open for the caller.
func Open(d audio.Demuxer, cfg Config) (*Cache, error) {
	cfg = cfg.fill()

	track, err := selectTrack(d.Tracks(), cfg.Track)
	if err != nil {
		cfg.Logger.WithError(err).Error("could not select audio track")
		return nil, fmt.Errorf("%w: %w", audio.ErrConstruction, err)
	}

	codec, format, err := d.OpenDecoder(track)
	if err != nil {
		cfg.Logger.WithError(err).WithField("track", track).Error("error opening the decoder")
		return nil, fmt.Errorf("%w: %w: track %d: %w", audio.ErrConstruction, audio.ErrDecoderOpen, track, err)
	}

	c, err := newCache(d, codec, format, track, cfg)
	if err != nil {
		_ = codec.Close()
		return nil, err
	}

	ok, err := c.bufferNextUnit()
	if err != nil || !ok {
		_ = codec.Close()
		if err == nil {
			err = errors.New("no decodable audio")
		}
		c.log.WithError(err).Error("error priming the decoder")
		return nil, fmt.Errorf("%w: %w: track %d: %w", audio.ErrConstruction, audio.ErrDecoderOpen, track, err)
	}

	c.log.WithFields(logrus.Fields{
		"format":   format.String(),
		"capacity": len(c.buf),
	}).Debug("opened audio source")

	return c, nil
}

func newCache(d audio.Demuxer, codec audio.Codec, format *audio.Format, track int, cfg Config) (*Cache, error) {
	unitMax := codec.MaxUnitBytes()
	capacity := cfg.Capacity
	// a single unit may be larger than one decoder frame
	surplus := max(format.FrameSize, unitMax) * 3 / 2
	if capacity == 0 {
		capacity = 4 * max(unitMax, format.FrameSize)
	}

	switch {
	case format.FrameBytes <= 0:
		return nil, fmt.Errorf("%w: %w: frame size of 0 bytes", audio.ErrConstruction, audio.ErrInvalidFormat)
	case capacity <= 2*surplus:
		return nil, fmt.Errorf("%w: %w: %d bytes, need more than %d", audio.ErrConstruction, audio.ErrCapacity, capacity, 2*surplus)
	case capacity-2*surplus < format.FrameBytes:
		return nil, fmt.Errorf("%w: %w: no room to split requests", audio.ErrConstruction, audio.ErrCapacity)
	}

	return &Cache{
		demux:   d,
		codec:   codec,
		track:   track,
		format:  format,
		log:     cfg.Logger.WithField("track", track),
		buf:     make([]byte, capacity),
		surplus: surplus,
		unit:    make([]byte, unitMax),
	}, nil
}

func selectTrack(tracks []audio.TrackInfo, want int) (int, error) {
	if want >= 0 {
		for _, t := range tracks {
			if t.ID == want && t.Kind == audio.TrackAudio {
				return want, nil
			}
		}
		return 0, fmt.Errorf("%w: track %d", audio.ErrTrackNotAudio, want)
	}

	for _, t := range tracks {
		if t.Kind == audio.TrackAudio {
			return t.ID, nil
		}
	}
	return 0, audio.ErrNoAudioTrack
}

func (c *Cache) Format() *audio.Format { return c.format }

// Track is the selected track id.
func (c *Cache) Track() int { return c.track }

// Position is the absolute byte offset of the oldest resident byte.
func (c *Cache) Position() int64 { return c.pos }

// Buffered is the number of resident bytes.
func (c *Cache) Buffered() int { return c.filled }

// Capacity of the window in bytes.
func (c *Cache) Capacity() int { return len(c.buf) }

// GetSamples returns the samples [first, last) as a packet owned by the
// caller. If the stream ends inside the range the packet is shortened and
// flagged FlagEOS; once that packet has been returned every further call
// returns io.EOF.
func (c *Cache) GetSamples(first, last int64) (*audio.Packet, error) {
	if c.closed {
		return nil, audio.ErrClosed
	}
	if first < 0 || last <= first {
		return nil, fmt.Errorf("%w: [%d,%d)", audio.ErrInvalidRange, first, last)
	}
	if c.err != nil {
		return nil, c.err
	}
	if c.ended {
		return nil, io.EOF
	}

	firstOff, err := c.format.BytesFor(first)
	if err != nil {
		return nil, err
	}
	lastOff, err := c.format.BytesFor(last)
	if err != nil {
		return nil, err
	}
	if lastOff-firstOff > math.MaxInt {
		return nil, fmt.Errorf("%w: [%d,%d)", audio.ErrOutOfRange, first, last)
	}

	if _, err := c.fillUntil(firstOff); err != nil {
		return nil, err
	}

	// the packet grows with the decoded bytes, not with the requested span
	pkt := c.pool.NewPacket(int(min(lastOff-firstOff, int64(len(c.buf)))), first, c.format)
	data, eos, err := c.fetch(firstOff, lastOff, pkt.Data[:0])
	pkt.Data = data
	if err != nil {
		pkt.Release()
		return nil, err
	}

	pkt.Samples = c.format.SamplesIn(len(data))
	if eos {
		pkt.Flags |= audio.FlagEOS
		c.ended = true
		c.log.WithFields(logrus.Fields{
			"first": first,
			"last":  first + pkt.Samples,
		}).Debug("end of stream")
	}

	return pkt, nil
}

// fetch appends [firstOff, lastOff) to dst. Spans that do not fit the
// window next to the surplus are cut into chunks of capacity-2*surplus
// bytes; each chunk is served from the window before the next is decoded.
func (c *Cache) fetch(firstOff, lastOff int64, dst []byte) ([]byte, bool, error) {
	chunk := int64(len(c.buf) - 2*c.surplus)
	chunk -= chunk % int64(c.format.FrameBytes)

	off := firstOff
	for lastOff-off+int64(c.surplus) > int64(len(c.buf)) {
		pivot := off + chunk
		var eos bool
		var err error
		dst, eos, err = c.appendResident(dst, off, pivot)
		if err != nil || eos {
			return dst, eos, err
		}
		off = pivot
	}

	return c.appendResident(dst, off, lastOff)
}

// appendResident decodes until lastOff-1 is resident or the stream ends and
// appends what is available of [firstOff, lastOff) to dst.
func (c *Cache) appendResident(dst []byte, firstOff, lastOff int64) ([]byte, bool, error) {
	end, err := c.fillUntil(lastOff - 1)
	if err != nil {
		return dst, false, err
	}

	start := firstOff - c.pos
	if start < 0 {
		return dst, false, c.backwardSeek(firstOff)
	}

	avail := min(lastOff, end) - firstOff
	if avail <= 0 {
		return dst, true, nil
	}

	return append(dst, c.buf[start:start+avail]...), end < lastOff, nil
}

// fillUntil decodes units until the byte at off is resident or the stream
// ends, and returns the absolute offset one past the last resident byte.
func (c *Cache) fillUntil(off int64) (int64, error) {
	if c.err != nil {
		return 0, c.err
	}
	if off < c.pos {
		return 0, c.backwardSeek(off)
	}

	for off >= c.pos+int64(c.filled) {
		ok, err := c.bufferNextUnit()
		if err != nil {
			c.err = fmt.Errorf("%w: %w", audio.ErrDecode, err)
			c.log.WithError(err).Error("decoding stopped")
			return 0, c.err
		}
		if !ok {
			break
		}
	}

	return c.pos + int64(c.filled), nil
}

func (c *Cache) backwardSeek(off int64) error {
	fb := int64(c.format.FrameBytes)
	return fmt.Errorf("%w: requested sample %d, first available is %d",
		audio.ErrBackwardSeek, off/fb, c.pos/fb)
}

// bufferNextUnit appends one decoded unit, evicting the oldest bytes first
// when it would not fit. It returns false at end of stream.
func (c *Cache) bufferNextUnit() (bool, error) {
	n, err := c.decodeUnit()
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if n > len(c.buf) {
		return false, fmt.Errorf("%w: %d byte unit exceeds %d byte window", audio.ErrCapacity, n, len(c.buf))
	}

	if c.filled+n > len(c.buf) {
		evict := min(n, c.filled)
		copy(c.buf, c.buf[evict:c.filled])
		c.filled -= evict
		c.pos += int64(evict)
	}
	copy(c.buf[c.filled:], c.unit[:n])
	c.filled += n

	return true, nil
}

// Close releases the codec, the demuxer and the window.
func (c *Cache) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.buf = nil
	c.unit = nil
	c.pending = nil

	return errors.Join(c.codec.Close(), c.demux.Close())
}
