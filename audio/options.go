// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"strconv"
	"strings"
)

// Options is a flat set of recognised key/value options for one component.
type Options map[string]string

// ParseOptions parses "key=value" pairs separated by ',' or ':'. Only the
// keys listed in known are accepted. A bare leading token without '=' is
// assigned to the first known key, so "in.flac:1" with keys filename, track
// yields filename=in.flac and track=1.
//
// A ':' only separates when a known "key=" follows it, or when a bare
// number follows a bare value. Values such as "http://host/a.mp3" or
// "C:\audio\a.wav" stay whole. A URL ending in ":port" must be given as
// "filename=..." so the port is not taken for a track.
func ParseOptions(s string, known ...string) (Options, error) {
	opts := Options{}
	if strings.TrimSpace(s) == "" {
		return opts, nil
	}

	var toks []string
	for _, field := range strings.Split(s, ",") {
		toks = append(toks, splitColons(field, known)...)
	}

	positional := 0
	for _, tok := range toks {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}

		key, val, ok := strings.Cut(tok, "=")
		if !ok {
			if positional >= len(known) {
				return nil, fmt.Errorf("%w: %q", ErrUnknownOption, tok)
			}
			key, val = known[positional], tok
			positional++
		}

		if !isKnown(key, known) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownOption, key)
		}
		opts[key] = val
	}

	return opts, nil
}

// splitColons cuts field at every ':' that starts a known key=value pair
// and splits a trailing ":<digits>" off a bare leading value.
func splitColons(field string, known []string) []string {
	var toks []string
	for {
		i := keyColon(field, known)
		if i < 0 {
			break
		}
		toks = append(toks, field[:i])
		field = field[i+1:]
	}
	toks = append(toks, field)

	first := toks[0]
	if strings.Contains(first, "=") {
		return toks
	}
	if i := strings.LastIndexByte(first, ':'); i >= 0 && isDigits(strings.TrimSpace(first[i+1:])) {
		return append([]string{first[:i], first[i+1:]}, toks[1:]...)
	}
	return toks
}

func keyColon(field string, known []string) int {
	for i := 0; i < len(field); i++ {
		if field[i] != ':' {
			continue
		}
		rest := strings.TrimSpace(field[i+1:])
		for _, k := range known {
			if strings.HasPrefix(rest, k+"=") {
				return i
			}
		}
	}
	return -1
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isKnown(key string, known []string) bool {
	for _, k := range known {
		if k == key {
			return true
		}
	}
	return false
}

func (o Options) Has(key string) bool {
	_, ok := o[key]
	return ok
}

func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		return v
	}
	return def
}

func (o Options) Int(key string, def int) (int, error) {
	v, ok := o[key]
	if !ok {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidOption, key, v)
	}
	return i, nil
}

func (o Options) Float(key string, def float64) (float64, error) {
	v, ok := o[key]
	if !ok {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidOption, key, v)
	}
	return f, nil
}
