// SPDX-License-Identifier: EPL-2.0

// Package opus is an Opus encoder backend built on gopkg.in/hraban/opus.v2.
//
// Frames are 20 ms long, input must be s16 or flt at one of the rates Opus
// supports, and every frame yields one packet, so Finish on an Adapter using
// this backend reports audio.ErrEmptyFlush.
package opus
