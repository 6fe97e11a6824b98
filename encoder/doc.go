// SPDX-License-Identifier: EPL-2.0

// Package encoder adapts a sample range source into a stream of encoded
// packets.
//
// The Adapter asks its source for windows of exactly the backend's frame
// length and passes them to the Backend. Backends may hold input back, so a
// single NextPacket call can pull several windows before it has bytes to
// return. When the source runs out NextPacket returns nil once, and the
// caller must call Finish to collect what the backend still buffers:
//
//	for {
//	    pkt, err := enc.NextPacket()
//	    if err != nil {
//	        return err
//	    }
//	    if pkt == nil {
//	        break
//	    }
//	    write(pkt)
//	    pkt.Release()
//	}
//	if pkt, err := enc.Finish(); err == nil {
//	    write(pkt)
//	    pkt.Release()
//	} else if !errors.Is(err, audio.ErrEmptyFlush) {
//	    return err
//	}
//
// Options are bitrate (constant bit rate in kbps), vbr (quality target,
// default 6) and quality (backend speed trade off). bitrate and vbr are
// mutually exclusive.
package encoder
