// SPDX-License-Identifier: EPL-2.0

// Package flac decodes FLAC files using github.com/mewkiz/flac.
//
// Every FLAC frame becomes one demuxed packet of interleaved s16le, so the
// decoder frame length of the track is the largest block size declared in
// STREAMINFO. Samples deeper than 16 bits are shifted down.
package flac
