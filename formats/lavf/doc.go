// SPDX-License-Identifier: EPL-2.0

// Package lavf opens any container and codec FFmpeg supports through
// github.com/asticode/go-astiav.
//
// The Demuxer hands out the raw payload of each packet; the codec returned
// by OpenDecoder feeds them to libavcodec and converts planar output to the
// matching interleaved format, so a Cache built on top always sees packed
// PCM. Decoded frames bigger than MaxUnitBytes are split across several
// units.
//
// Building this package requires the FFmpeg development libraries.
package lavf
