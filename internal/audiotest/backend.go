// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/encoder"
)

// Halve is the reference encoding of MockBackend: every even byte of pcm.
func Halve(pcm []byte) []byte {
	out := make([]byte, (len(pcm)+1)/2)
	halveInto(out, pcm)
	return out
}

func halveInto(dst, src []byte) int {
	n := 0
	for i := 0; i < len(src); i += 2 {
		dst[n] = src[i]
		n++
	}
	return n
}

// MockBackend is a deterministic encoder.Backend. It keeps every other byte
// of its input and holds one window back, so the first Encode returns
// nothing and Flush returns the last window.
type MockBackend struct {
	FrameLen int
	Channels int
	// EncodeErr is returned by the Encode call number FailAt (1 based).
	EncodeErr error
	FailAt    int
	// UnknownCoverage makes Flush report -1 covered samples.
	UnknownCoverage bool
	// ConfigureErr is returned by Configure when set.
	ConfigureErr error

	Mode    encoder.Mode
	Encodes int
	Flushes int
	Closed  bool

	held        []byte
	heldSamples int
}

var _ encoder.Backend = (*MockBackend)(nil)

func (m *MockBackend) Name() string { return "mock" }

func (m *MockBackend) MaxChannels() int {
	if m.Channels == 0 {
		return 2
	}
	return m.Channels
}

func (m *MockBackend) Configure(in *audio.Format, mode encoder.Mode) (encoder.Params, error) {
	if m.ConfigureErr != nil {
		return encoder.Params{}, m.ConfigureErr
	}
	if m.FrameLen == 0 {
		m.FrameLen = 1152
	}
	m.Mode = mode
	return encoder.Params{
		FrameLen:       m.FrameLen,
		MaxPacketBytes: (m.FrameLen*in.FrameBytes + 1) / 2,
	}, nil
}

func (m *MockBackend) Encode(pcm []byte, samples int, dst []byte) (int, error) {
	m.Encodes++
	if m.EncodeErr != nil && m.Encodes == m.FailAt {
		return 0, m.EncodeErr
	}

	n := halveInto(dst, m.held)
	m.held = append(m.held[:0], pcm...)
	m.heldSamples = samples
	return n, nil
}

func (m *MockBackend) Flush(dst []byte) (int, int, error) {
	m.Flushes++
	n := halveInto(dst, m.held)
	covered := m.heldSamples
	m.held = m.held[:0]
	m.heldSamples = 0
	if m.UnknownCoverage {
		covered = -1
	}
	return n, covered, nil
}

func (m *MockBackend) Close() error {
	m.Closed = true
	return nil
}
