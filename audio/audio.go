// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"io"
	"sort"
	"sync"
)

// TrackAny selects the first audio track of a container.
const TrackAny = -1

// TrackKind is the media type of a container track.
type TrackKind int

const (
	TrackOther TrackKind = iota
	TrackAudio
	TrackVideo
)

// TrackInfo describes one elementary stream of a container.
type TrackInfo struct {
	ID    int
	Kind  TrackKind
	Codec string
}

// Demuxer yields the compressed packets of a container.
type Demuxer interface {
	Tracks() []TrackInfo
	// OpenDecoder opens the codec for track and reports the PCM format it produces.
	OpenDecoder(track int) (Codec, *Format, error)
	// ReadPacket returns the next compressed packet of track, or io.EOF once
	// the container is exhausted.
	ReadPacket(track int) ([]byte, error)
	Close() error
}

// Codec turns compressed packets into interleaved PCM decode units.
//
// Decode consumes a prefix of data and writes at most one unit into dst.
// A call that neither consumes nor produces asks for the next packet.
// A nil data slice signals the end of input; the codec then returns the
// units it still holds, one per call, until it produces nothing.
type Codec interface {
	Decode(data, dst []byte) (consumed, produced int, err error)
	// MaxUnitBytes is the largest unit Decode may write.
	MaxUnitBytes() int
	Close() error
}

// Opener constructs a Demuxer from an input reader.
type Opener interface {
	Open(r io.Reader) (Demuxer, error)
}

// SampleSource answers sample range queries. Sources and transforms in a
// chain share this contract.
type SampleSource interface {
	Format() *Format
	// GetSamples returns the samples [first, last). A short packet carries FlagEOS.
	GetSamples(first, last int64) (*Packet, error)
	Close() error
}

// PacketEncoder produces encoded packets one at a time.
type PacketEncoder interface {
	Format() *Format
	CodecName() string
	// NextPacket returns nil, nil once steady state production has ended.
	NextPacket() (*Packet, error)
	SkipSamples(n int64)
	// Finish flushes the encoder. ErrEmptyFlush means nothing was left.
	Finish() (*Packet, error)
	Close() error
}

// Registry maps names (file extensions, codec names) to components.
type Registry[T any] struct {
	items map[string]T

	mtx *sync.Mutex
}

func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{
		items: make(map[string]T),
		mtx:   &sync.Mutex{},
	}
}

func (r *Registry[T]) Register(name string, v T) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.items[name] = v
}

func (r *Registry[T]) Get(name string) (T, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	v, ok := r.items[name]
	return v, ok
}

// Names returns the registered names in sorted order.
func (r *Registry[T]) Names() []string {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	names := make([]string, 0, len(r.items))
	for k := range r.items {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
