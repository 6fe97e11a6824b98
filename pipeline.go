// SPDX-License-Identifier: EPL-2.0

package audpipe

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/formats/wav"
	"github.com/ik5/audpipe/utils"
)

// DefaultChunk is the number of samples DecodeAll and DecodeToWAV request
// at a time.
const DefaultChunk = 4096

var ErrPacketTooLarge = errors.New("packet too large for a 16 bit length prefix")

// PacketWriter stores encoded packets.
type PacketWriter interface {
	WritePacket(p *audio.Packet) error
	// Flush writes out anything buffered.
	Flush() error
}

type rawWriter struct {
	bw *bufio.Writer
}

// NewRawWriter concatenates packet payloads, which suits self delimiting
// streams such as MP3.
func NewRawWriter(w io.Writer) PacketWriter {
	return &rawWriter{bw: bufio.NewWriterSize(w, 64*1024)}
}

func (r *rawWriter) WritePacket(p *audio.Packet) error {
	_, err := r.bw.Write(p.Data)
	return err
}

func (r *rawWriter) Flush() error { return r.bw.Flush() }

type framedWriter struct {
	bw *bufio.Writer
}

// NewFramedWriter prefixes every packet with its size as a little-endian
// uint16 (DCA style), for codecs like Opus whose packets do not carry their
// own length.
func NewFramedWriter(w io.Writer) PacketWriter {
	return &framedWriter{bw: bufio.NewWriterSize(w, 64*1024)}
}

func (f *framedWriter) WritePacket(p *audio.Packet) error {
	n := p.Size()
	if n > math.MaxUint16 {
		return fmt.Errorf("%w: %d bytes", ErrPacketTooLarge, n)
	}

	var hdr [2]byte
	binary.LittleEndian.PutUint16(hdr[:], uint16(n))
	if _, err := f.bw.Write(hdr[:]); err != nil {
		return fmt.Errorf("write packet length: %w", err)
	}
	if _, err := f.bw.Write(p.Data); err != nil {
		return fmt.Errorf("write packet: %w", err)
	}
	return nil
}

func (f *framedWriter) Flush() error { return f.bw.Flush() }

// Stats summarises an encode run.
type Stats struct {
	Packets int
	Bytes   int64
	// End is one past the last sample covered by a packet.
	End int64
}

// Encode pulls every packet out of enc, flushes it and writes the packets
// to pw in order. Every packet is released once written.
func Encode(pw PacketWriter, enc audio.PacketEncoder) (Stats, error) {
	var st Stats

	write := func(p *audio.Packet) error {
		defer p.Release()
		if err := pw.WritePacket(p); err != nil {
			return fmt.Errorf("writing packet at sample %d: %w", p.Timestamp, err)
		}
		st.Packets++
		st.Bytes += int64(p.Size())
		st.End = max(st.End, p.Timestamp+p.Samples)
		return nil
	}

	for {
		p, err := enc.NextPacket()
		if err != nil {
			return st, err
		}
		if p == nil {
			break
		}
		if err := write(p); err != nil {
			return st, err
		}
	}

	for {
		p, err := enc.Finish()
		if errors.Is(err, audio.ErrEmptyFlush) {
			break
		}
		if err != nil {
			return st, err
		}
		if err := write(p); err != nil {
			return st, err
		}
	}

	return st, pw.Flush()
}

// ReadPackets hands fn every packet of src from sample 0 on, chunk samples
// at a time, until the end of stream packet. fn does not own the packets.
func ReadPackets(src audio.SampleSource, chunk int64, fn func(p *audio.Packet) error) error {
	if chunk <= 0 {
		chunk = DefaultChunk
	}

	for first := int64(0); ; first += chunk {
		p, err := src.GetSamples(first, first+chunk)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		err = fn(p)
		eos := p.EOS()
		p.Release()
		if err != nil || eos {
			return err
		}
	}
}

// DecodeAll returns the whole decoded stream of src.
func DecodeAll(src audio.SampleSource, chunk int64) ([]byte, error) {
	var out []byte
	err := ReadPackets(src, chunk, func(p *audio.Packet) error {
		out = append(out, p.Data...)
		return nil
	})
	return out, err
}

// DecodeToWAV writes src as a 16-bit WAV file and returns the number of
// sample frames written. s16 sources are copied, float sources converted.
func DecodeToWAV(w io.WriteSeeker, src audio.SampleSource, chunk int64) (int64, error) {
	f := src.Format()
	switch f.SampleFormat {
	case audio.SampleFormatS16, audio.SampleFormatF32:
	default:
		return 0, fmt.Errorf("%w: wav output needs s16 or flt, got %s",
			audio.ErrUnsupportedSampleFormat, f.SampleFormat)
	}

	ww := wav.NewWriter(w, f.SampleRate, f.Channels)

	var (
		samples int64
		floats  []float32
		s16     []byte
	)
	err := ReadPackets(src, chunk, func(p *audio.Packet) error {
		data := p.Data
		if f.SampleFormat == audio.SampleFormatF32 {
			floats = floats[:0]
			for i := 0; i+4 <= len(data); i += 4 {
				floats = append(floats, math.Float32frombits(binary.LittleEndian.Uint32(data[i:])))
			}
			if cap(s16) < 2*len(floats) {
				s16 = make([]byte, 2*len(floats))
			}
			data = s16[:utils.FloatsToS16LE(s16, floats)]
		}

		if _, err := ww.Write(data); err != nil {
			return err
		}
		samples += p.Samples
		return nil
	})
	if err != nil {
		return samples, err
	}

	return samples, ww.Close()
}
