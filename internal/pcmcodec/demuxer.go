// SPDX-License-Identifier: EPL-2.0

package pcmcodec

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/audpipe/audio"
)

// PacketReader returns the next block of interleaved PCM in the track's
// format, or io.EOF.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// Demuxer exposes a single PCM track read through a PacketReader. Pure Go
// format packages wrap their library decoder in one.
type Demuxer struct {
	codec  string
	format *audio.Format
	r      PacketReader
	closer io.Closer
	done   bool
}

var _ audio.Demuxer = (*Demuxer)(nil)

// NewDemuxer wraps r. closer may be nil.
func NewDemuxer(codec string, format *audio.Format, r PacketReader, closer io.Closer) *Demuxer {
	return &Demuxer{
		codec:  codec,
		format: format,
		r:      r,
		closer: closer,
	}
}

func (d *Demuxer) Tracks() []audio.TrackInfo {
	return []audio.TrackInfo{{ID: 0, Kind: audio.TrackAudio, Codec: d.codec}}
}

func (d *Demuxer) Format() *audio.Format { return d.format }

func (d *Demuxer) OpenDecoder(track int) (audio.Codec, *audio.Format, error) {
	if track != 0 {
		return nil, nil, fmt.Errorf("%w: track %d", audio.ErrTrackNotAudio, track)
	}
	return New(d.format.FrameLen, d.format.FrameBytes), d.format, nil
}

func (d *Demuxer) ReadPacket(track int) ([]byte, error) {
	if track != 0 {
		return nil, fmt.Errorf("%w: track %d", audio.ErrTrackNotAudio, track)
	}
	if d.done {
		return nil, io.EOF
	}

	p, err := d.r.ReadPacket()
	if errors.Is(err, io.EOF) {
		d.done = true
		if len(p) > 0 {
			return p, nil
		}
		return nil, io.EOF
	}
	return p, err
}

func (d *Demuxer) Close() error {
	if d.closer == nil {
		return nil
	}
	c := d.closer
	d.closer = nil
	return c.Close()
}
