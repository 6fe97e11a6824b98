// SPDX-License-Identifier: EPL-2.0

package lavf

import (
	"errors"
	"fmt"
	"io"

	"github.com/asticode/go-astiav"
	"github.com/ik5/audpipe/audio"
	"github.com/sirupsen/logrus"
)

// Demuxer reads any container libavformat understands.
type Demuxer struct {
	fc  *astiav.FormatContext
	pkt *astiav.Packet
	log logrus.FieldLogger
}

var _ audio.Demuxer = (*Demuxer)(nil)

// Open opens url ("-" reads stdin) and probes its streams.
func Open(url string, log logrus.FieldLogger) (*Demuxer, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if url == "-" {
		url = "pipe:"
	}
	log = log.WithField("url", url)

	fc := astiav.AllocFormatContext()
	if fc == nil {
		return nil, fmt.Errorf("%w: format context", ErrAlloc)
	}

	if err := fc.OpenInput(url, nil, nil); err != nil {
		fc.Free()
		log.WithError(err).Error("could not open audio file")
		return nil, fmt.Errorf("%w: %w", ErrOpenInput, err)
	}

	if err := fc.FindStreamInfo(nil); err != nil {
		fc.CloseInput()
		fc.Free()
		log.WithError(err).Error("could not find stream info")
		return nil, fmt.Errorf("%w: %w", ErrStreamInfo, err)
	}

	pkt := astiav.AllocPacket()
	if pkt == nil {
		fc.CloseInput()
		fc.Free()
		return nil, fmt.Errorf("%w: packet", ErrAlloc)
	}

	d := &Demuxer{
		fc:  fc,
		pkt: pkt,
		log: log,
	}
	log.WithField("tracks", len(d.Tracks())).Debug("opened input")

	return d, nil
}

func (d *Demuxer) Tracks() []audio.TrackInfo {
	if d.fc == nil {
		return nil
	}

	var tracks []audio.TrackInfo
	for _, st := range d.fc.Streams() {
		cp := st.CodecParameters()

		kind := audio.TrackOther
		switch cp.MediaType() {
		case astiav.MediaTypeAudio:
			kind = audio.TrackAudio
		case astiav.MediaTypeVideo:
			kind = audio.TrackVideo
		}

		tracks = append(tracks, audio.TrackInfo{
			ID:    st.Index(),
			Kind:  kind,
			Codec: cp.CodecID().Name(),
		})
	}
	return tracks
}

func (d *Demuxer) stream(track int) (*astiav.Stream, error) {
	if d.fc == nil {
		return nil, ErrDemuxerClosed
	}
	for _, st := range d.fc.Streams() {
		if st.Index() == track && st.CodecParameters().MediaType() == astiav.MediaTypeAudio {
			return st, nil
		}
	}
	return nil, fmt.Errorf("%w: track %d", audio.ErrTrackNotAudio, track)
}

// OpenDecoder opens the libavcodec decoder of track. Planar output is
// converted to the matching packed format.
func (d *Demuxer) OpenDecoder(track int) (audio.Codec, *audio.Format, error) {
	st, err := d.stream(track)
	if err != nil {
		return nil, nil, err
	}
	cp := st.CodecParameters()

	dec := astiav.FindDecoder(cp.CodecID())
	if dec == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoDecoder, cp.CodecID().Name())
	}

	cc := astiav.AllocCodecContext(dec)
	if cc == nil {
		return nil, nil, fmt.Errorf("%w: codec context", ErrAlloc)
	}
	if err := cc.FromCodecParameters(cp); err != nil {
		cc.Free()
		return nil, nil, fmt.Errorf("codec from params: %w", err)
	}
	cc.SetTimeBase(st.TimeBase())

	if err := cc.Open(dec, nil); err != nil {
		cc.Free()
		return nil, nil, fmt.Errorf("open %s decoder: %w", dec.Name(), err)
	}

	sf, err := SampleFormat(cc.SampleFormat())
	if err != nil {
		cc.Free()
		return nil, nil, err
	}

	frameLen := cc.FrameSize()
	if frameLen <= 0 {
		frameLen = DefaultFrameLen
	}

	format, err := audio.NewFormat(dec.Name(), cc.ChannelLayout().Channels(), cc.SampleRate(), sf, frameLen,
		audio.Timebase{}, cp.ExtraData())
	if err != nil {
		cc.Free()
		return nil, nil, err
	}

	c, err := newCodec(cc, format)
	if err != nil {
		return nil, nil, err
	}

	d.log.WithFields(logrus.Fields{
		"track":  track,
		"format": format.String(),
	}).Debug("opened decoder")

	return c, format, nil
}

// ReadPacket returns the payload of the next packet belonging to track.
func (d *Demuxer) ReadPacket(track int) ([]byte, error) {
	if d.fc == nil {
		return nil, ErrDemuxerClosed
	}

	for {
		d.pkt.Unref()
		if err := d.fc.ReadFrame(d.pkt); err != nil {
			if errors.Is(err, astiav.ErrEof) {
				return nil, io.EOF
			}
			if errors.Is(err, astiav.ErrEagain) {
				continue
			}
			return nil, fmt.Errorf("read frame: %w", err)
		}

		if d.pkt.StreamIndex() != track {
			continue
		}

		data := append([]byte(nil), d.pkt.Data()...)
		d.pkt.Unref()
		return data, nil
	}
}

func (d *Demuxer) Close() error {
	if d.pkt != nil {
		d.pkt.Free()
		d.pkt = nil
	}
	if d.fc != nil {
		d.fc.CloseInput()
		d.fc.Free()
		d.fc = nil
	}
	return nil
}
