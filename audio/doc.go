// SPDX-License-Identifier: EPL-2.0

// Package audio provides the core types shared by every stage of the pipeline.
//
// This package contains the building blocks the other packages agree on:
//   - Format, the immutable stream descriptor
//   - Packet and Pool, the buffer ownership convention
//   - Demuxer and Codec, the contract of the external demux/decode collaborator
//   - SampleSource and PacketEncoder, the filter-chain handle contracts
//   - Options, the flat key/value option parser
//   - Registry, for looking components up by name
//
// # Sample Sources
//
// A SampleSource answers "give me samples [first, last)":
//
//	type SampleSource interface {
//	    Format() *Format
//	    GetSamples(first, last int64) (*Packet, error)
//	    Close() error
//	}
//
// Samples are addressed by index, not by byte offset. Requests must move
// forward; a source may refuse samples it has already discarded with
// ErrBackwardSeek.
//
// # Packets
//
// Packets are owned by the caller that received them and are given back with
// Release:
//
//	pkt, err := src.GetSamples(0, 1152)
//	if err != nil {
//	    return err
//	}
//	defer pkt.Release()
//
// Release clears the packet's owner before returning the buffer to its pool,
// so a second Release does nothing.
//
// A packet that is shorter than requested because the source ran dry carries
// FlagEOS. Its size may be zero. End of stream is not an error.
//
// # Encoders
//
// A PacketEncoder is pulled one packet at a time:
//
//	for {
//	    pkt, err := enc.NextPacket()
//	    if err != nil {
//	        return err
//	    }
//	    if pkt == nil {
//	        break // steady state is over
//	    }
//	    write(pkt.Data)
//	    pkt.Release()
//	}
//	last, err := enc.Finish()
//
// # Options
//
// Every component is configured from a flat option string:
//
//	opts, err := audio.ParseOptions("bitrate=128,quality=2", "bitrate", "vbr", "quality")
//
// Unknown keys are rejected with ErrUnknownOption.
//
// # Error Handling
//
// Construction failures wrap ErrConstruction together with their cause, so
// both can be tested with errors.Is. ErrDecode is sticky for the source that
// reported it. ErrBackwardSeek is a caller bug and is never retried.
package audio
