// SPDX-License-Identifier: EPL-2.0

package audio

import "sync"

// Flags annotate a packet.
type Flags uint8

const (
	// FlagEOS marks a packet that is shorter than requested because the
	// source ran out. Its size may be zero.
	FlagEOS Flags = 1 << iota
)

// Packet carries PCM samples or encoded bytes between components.
//
// A packet belongs to whoever received it until Release is called. Nothing
// may read Data after that.
type Packet struct {
	Data []byte
	// Timestamp is the index of the first sample the packet covers.
	Timestamp int64
	// Samples is the number of sample frames the packet covers.
	Samples int64
	Flags   Flags
	Format  *Format

	owner *Pool
}

// Size is the number of used bytes.
func (p *Packet) Size() int {
	if p == nil {
		return 0
	}
	return len(p.Data)
}

// EOS reports whether the end-of-stream flag is set.
func (p *Packet) EOS() bool {
	return p != nil && p.Flags&FlagEOS != 0
}

// Release hands the buffer back to the pool that produced it. The owner is
// cleared before the buffer is recycled, so releasing twice is a no-op and
// can never put the same buffer into the pool twice.
func (p *Packet) Release() {
	if p == nil {
		return
	}
	owner := p.owner
	p.owner = nil
	buf := p.Data
	p.Data = nil
	if owner != nil {
		owner.put(buf)
	}
}

// Pool recycles packet buffers for one producer. The zero value is ready to use.
type Pool struct {
	p sync.Pool
}

// Get returns a zero length slice with at least n bytes of capacity.
func (p *Pool) Get(n int) []byte {
	if v, ok := p.p.Get().(*[]byte); ok && cap(*v) >= n {
		return (*v)[:0]
	}
	return make([]byte, 0, n)
}

func (p *Pool) put(b []byte) {
	if cap(b) == 0 {
		return
	}
	b = b[:0]
	p.p.Put(&b)
}

// NewPacket allocates a packet of n bytes owned by the pool.
func (p *Pool) NewPacket(n int, ts int64, f *Format) *Packet {
	return &Packet{
		Data:      p.Get(n)[:n],
		Timestamp: ts,
		Format:    f,
		owner:     p,
	}
}
