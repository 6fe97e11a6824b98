// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"encoding/binary"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Writer streams s16le PCM into a WAV file whose length is not known up
// front. The header sizes are patched on Close, so the target must seek.
type Writer struct {
	enc      *wav.Encoder
	channels int
	buf      *goaudio.IntBuffer
	wrote    bool
}

func NewWriter(w io.WriteSeeker, sampleRate, channels int) *Writer {
	return &Writer{
		enc:      wav.NewEncoder(w, sampleRate, 16, channels, pcmFormat),
		channels: channels,
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
			SourceBitDepth: 16,
		},
	}
}

// Write appends interleaved s16le bytes. len(pcm) must be a whole number of
// sample frames.
func (w *Writer) Write(pcm []byte) (int, error) {
	if len(pcm)%(2*w.channels) != 0 {
		return 0, fmt.Errorf("%w: %d bytes, %d channels", ErrSampleCount, len(pcm), w.channels)
	}

	n := len(pcm) / 2
	if cap(w.buf.Data) < n {
		w.buf.Data = make([]int, n)
	}
	w.buf.Data = w.buf.Data[:n]
	for i := range n {
		w.buf.Data[i] = int(int16(binary.LittleEndian.Uint16(pcm[2*i:])))
	}

	if err := w.enc.Write(w.buf); err != nil {
		return 0, fmt.Errorf("writing wav data: %w", err)
	}
	w.wrote = true
	return len(pcm), nil
}

// Close finalises the header. It does not close the underlying writer.
func (w *Writer) Close() error {
	if !w.wrote {
		// an empty file still needs its header and data chunk
		w.buf.Data = w.buf.Data[:0]
		if err := w.enc.Write(w.buf); err != nil {
			return fmt.Errorf("writing wav header: %w", err)
		}
		w.wrote = true
	}
	return w.enc.Close()
}
