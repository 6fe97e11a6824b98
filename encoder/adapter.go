// SPDX-License-Identifier: EPL-2.0

package encoder

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/audpipe/audio"
	"github.com/sirupsen/logrus"
)

// State of an Adapter.
type State int

const (
	Running State = iota
	Draining
	Flushed
	Closed
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Flushed:
		return "flushed"
	case Closed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Adapter pulls fixed size sample windows from a SampleSource and feeds them
// to a Backend, handing out encoded packets one at a time.
//
// An Adapter is not safe for concurrent use.
type Adapter struct {
	src     audio.SampleSource
	backend Backend
	log     logrus.FieldLogger
	format  *audio.Format
	params  Params
	mode    Mode
	pool    audio.Pool

	state       State
	lastSample  int64
	lastWindow  int64
	upstreamEOS bool
	flushes     int64
}

var _ audio.PacketEncoder = (*Adapter)(nil)

// NewFromString parses optStr ("bitrate=128", "vbr=2,quality=5", ...) and
// calls New. b is closed if the options do not parse.
func NewFromString(src audio.SampleSource, b Backend, optStr string, log logrus.FieldLogger) (*Adapter, error) {
	opts, err := audio.ParseOptions(optStr, OptionKeys...)
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("%w: %w", audio.ErrConstruction, err)
	}
	return New(src, b, opts, log)
}

// New configures b for the format of src. The Adapter owns b from the moment
// New is called: b is closed when New fails and by Adapter.Close otherwise.
// src stays owned by the caller.
func New(src audio.SampleSource, b Backend, opts audio.Options, log logrus.FieldLogger) (*Adapter, error) {
	a, err := newAdapter(src, b, opts, log)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	return a, nil
}

func newAdapter(src audio.SampleSource, b Backend, opts audio.Options, log logrus.FieldLogger) (*Adapter, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("codec", b.Name())

	for k := range opts {
		if !isOptionKey(k) {
			return nil, fmt.Errorf("%w: %w: %q", audio.ErrConstruction, audio.ErrUnknownOption, k)
		}
	}

	in := src.Format()
	if in.Channels > b.MaxChannels() {
		log.WithField("channels", in.Channels).Error("only mono or stereo audio is supported")
		return nil, fmt.Errorf("%w: %w: %d channels, %s supports at most %d",
			audio.ErrConstruction, audio.ErrUnsupportedChannelLayout, in.Channels, b.Name(), b.MaxChannels())
	}

	mode, err := ParseMode(opts)
	if err != nil {
		log.WithError(err).Error("invalid encoder options")
		return nil, fmt.Errorf("%w: %w", audio.ErrConstruction, err)
	}

	params, err := b.Configure(in, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: configuring %s: %w", audio.ErrConstruction, b.Name(), err)
	}
	if params.FrameLen <= 0 || params.MaxPacketBytes <= 0 {
		return nil, fmt.Errorf("%w: %w: %s reported frame length %d and packet size %d",
			audio.ErrConstruction, audio.ErrInvalidFormat, b.Name(), params.FrameLen, params.MaxPacketBytes)
	}
	if params.SampleRate == 0 {
		params.SampleRate = in.SampleRate
	}

	format, err := audio.NewFormat(b.Name(), in.Channels, params.SampleRate, in.SampleFormat, params.FrameLen,
		audio.Timebase{Num: 1, Den: params.SampleRate}, params.ExtraData)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", audio.ErrConstruction, err)
	}

	log.Infof("opened %s encoder (%s)", b.Name(), mode)

	return &Adapter{
		src:     src,
		backend: b,
		log:     log,
		format:  format,
		params:  params,
		mode:    mode,
	}, nil
}

func isOptionKey(k string) bool {
	for _, o := range OptionKeys {
		if o == k {
			return true
		}
	}
	return false
}

func (a *Adapter) Format() *audio.Format { return a.format }
func (a *Adapter) CodecName() string     { return a.backend.Name() }
func (a *Adapter) Mode() Mode            { return a.mode }
func (a *Adapter) State() State          { return a.state }

// NextPacket pulls windows of FrameLen samples until the backend returns
// bytes. Once the source has delivered its end of stream packet, NextPacket
// returns nil, nil and the Adapter is Draining: call Finish for the rest.
func (a *Adapter) NextPacket() (*audio.Packet, error) {
	switch a.state {
	case Closed:
		return nil, audio.ErrClosed
	case Running:
	default:
		return nil, nil
	}

	out := a.pool.NewPacket(a.params.MaxPacketBytes, 0, a.format)
	n := 0
	for n == 0 {
		if a.upstreamEOS {
			out.Release()
			a.state = Draining
			return nil, nil
		}

		in, err := a.src.GetSamples(a.lastSample, a.lastSample+int64(a.params.FrameLen))
		if errors.Is(err, io.EOF) {
			a.upstreamEOS = true
			continue
		}
		if err != nil {
			out.Release()
			return nil, err
		}

		out.Timestamp = a.lastSample
		out.Samples = in.Samples
		a.lastSample += in.Samples
		a.lastWindow = in.Samples
		a.upstreamEOS = in.EOS()

		if in.Samples > 0 {
			n, err = a.backend.Encode(in.Data, int(in.Samples), out.Data)
		}
		in.Release()
		if err != nil {
			out.Release()
			a.log.WithError(err).WithField("sample", out.Timestamp).Error("encoding failed")
			return nil, fmt.Errorf("encoding window at sample %d: %w", out.Timestamp, err)
		}
	}

	out.Data = out.Data[:n]
	return out, nil
}

// SkipSamples moves the read position n samples forward.
func (a *Adapter) SkipSamples(n int64) {
	if a.state == Closed {
		return
	}
	a.lastSample += n
}

// Finish flushes the backend. It returns audio.ErrEmptyFlush when the
// backend had nothing left. After Finish, NextPacket returns nil, nil.
func (a *Adapter) Finish() (*audio.Packet, error) {
	if a.state == Closed {
		return nil, audio.ErrClosed
	}

	a.flushes++
	a.state = Flushed

	out := a.pool.NewPacket(a.params.MaxPacketBytes, 0, a.format)
	n, covered, err := a.backend.Flush(out.Data)
	if err != nil {
		out.Release()
		return nil, fmt.Errorf("flushing %s: %w", a.backend.Name(), err)
	}
	if n == 0 {
		out.Release()
		return nil, audio.ErrEmptyFlush
	}

	out.Data = out.Data[:n]
	out.Flags |= audio.FlagEOS
	if covered >= 0 {
		out.Timestamp = a.lastSample - int64(covered)
		out.Samples = int64(covered)
	} else {
		out.Timestamp = a.lastSample + a.lastWindow*a.flushes
	}

	a.log.WithFields(logrus.Fields{
		"bytes":     n,
		"timestamp": out.Timestamp,
	}).Debug("encoder flushed")

	return out, nil
}

// Close releases the backend. The source is left open.
func (a *Adapter) Close() error {
	if a.state == Closed {
		return nil
	}
	a.state = Closed
	return a.backend.Close()
}
