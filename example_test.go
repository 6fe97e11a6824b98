// SPDX-License-Identifier: EPL-2.0

package audpipe_test

import (
	"fmt"
	"io"
	"os"

	"github.com/ik5/audpipe"
	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/formats/wav"
	"github.com/ik5/audpipe/source"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

// Example_decodeAll writes a small WAV file and decodes it back.
func Example_decodeAll() {
	f, err := os.CreateTemp("", "decode-all-*.wav")
	if err != nil {
		fmt.Println(err)
		return
	}
	defer os.Remove(f.Name())
	defer f.Close()

	// three stereo s16le sample frames
	pcm := []byte{100, 0, 156, 255, 200, 0, 56, 255, 44, 1, 212, 254}
	w := wav.NewWriter(f, 8000, 2)
	if _, err := w.Write(pcm); err != nil {
		fmt.Println(err)
		return
	}
	if err := w.Close(); err != nil {
		fmt.Println(err)
		return
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		fmt.Println(err)
		return
	}

	d, err := wav.Decoder{}.Open(f)
	if err != nil {
		fmt.Printf("open error: %v\n", err)
		return
	}

	l, _ := logtest.NewNullLogger()
	src, err := source.Open(d, source.Config{Track: audio.TrackAny, Logger: l})
	if err != nil {
		fmt.Printf("source error: %v\n", err)
		return
	}
	defer src.Close()

	pcm, err = audpipe.DecodeAll(src, audpipe.DefaultChunk)
	if err != nil {
		fmt.Printf("decode error: %v\n", err)
		return
	}

	format := src.Format()
	fmt.Printf("%d bytes, %d sample frames at %d Hz\n", len(pcm), len(pcm)/format.FrameBytes, format.SampleRate)
	// Output: 12 bytes, 3 sample frames at 8000 Hz
}
