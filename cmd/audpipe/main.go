// SPDX-License-Identifier: EPL-2.0

// Command audpipe decodes an audio file and re-encodes it to MP3 or Opus, or
// dumps it as 16-bit WAV.
//
//	audpipe -i "song.flac" -c mp3 -opts "vbr=2" -o song.mp3
//	audpipe -i "filename=movie.mkv,track=1" -c wav -o track1.wav
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ik5/audpipe"
	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/encoder"
	"github.com/ik5/audpipe/formats/aiff"
	"github.com/ik5/audpipe/formats/flac"
	"github.com/ik5/audpipe/formats/lame"
	"github.com/ik5/audpipe/formats/lavf"
	"github.com/ik5/audpipe/formats/mp3"
	"github.com/ik5/audpipe/formats/opus"
	"github.com/ik5/audpipe/formats/vorbis"
	"github.com/ik5/audpipe/formats/wav"
	"github.com/ik5/audpipe/source"
	"github.com/sirupsen/logrus"
)

type backendFactory func(log logrus.FieldLogger) encoder.Backend

func openers() *audio.Registry[audio.Opener] {
	reg := audio.NewRegistry[audio.Opener]()
	reg.Register("wav", wav.Decoder{})
	reg.Register("aiff", aiff.Decoder{})
	reg.Register("aif", aiff.Decoder{})
	reg.Register("mp3", mp3.Decoder{})
	reg.Register("ogg", vorbis.Decoder{})
	reg.Register("flac", flac.Decoder{})
	return reg
}

func backends() *audio.Registry[backendFactory] {
	reg := audio.NewRegistry[backendFactory]()
	reg.Register("mp3", func(log logrus.FieldLogger) encoder.Backend { return lame.New(log) })
	reg.Register("opus", func(log logrus.FieldLogger) encoder.Backend { return opus.New(log) })
	return reg
}

type options struct {
	input   string
	codec   string
	encOpts string
	output  string
	lavf    bool
	verbose bool
}

func main() {
	var o options
	flag.StringVar(&o.input, "i", "", `Input file and options ("in.flac" or "filename=in.mkv,track=1"), "-" for stdin`)
	flag.StringVar(&o.codec, "c", "mp3", "Output codec: "+strings.Join(append(backends().Names(), "wav"), ", "))
	flag.StringVar(&o.encOpts, "opts", "", `Encoder options ("bitrate=128" or "vbr=2,quality=5")`)
	flag.StringVar(&o.output, "o", "-", `Output file, "-" for stdout`)
	flag.BoolVar(&o.lavf, "lavf", false, "Always open the input with FFmpeg")
	flag.BoolVar(&o.verbose, "v", false, "Debug logging")
	flag.Parse()

	log := logrus.New()
	log.SetOutput(os.Stderr)
	if o.verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if o.input == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(o, log); err != nil {
		log.WithError(err).Fatal("audpipe failed")
	}
}

func run(o options, log logrus.FieldLogger) error {
	srcOpts, err := audio.ParseOptions(o.input, source.OptionKeys...)
	if err != nil {
		return err
	}
	filename := srcOpts.String("filename", "")
	if filename == "" {
		return fmt.Errorf("%w: no input file", audio.ErrInvalidOption)
	}

	cfg, err := source.ConfigFromOptions(srcOpts)
	if err != nil {
		return err
	}
	cfg.Logger = log.WithField("input", filename)

	d, err := openInput(filename, o.lavf, log)
	if err != nil {
		return err
	}
	src, err := source.Open(d, cfg)
	if err != nil {
		_ = d.Close()
		return err
	}
	defer src.Close()

	if o.codec == "wav" {
		return writeWAV(o.output, src, log)
	}

	factory, ok := backends().Get(o.codec)
	if !ok {
		return fmt.Errorf("%w: codec %q", audio.ErrInvalidOption, o.codec)
	}
	enc, err := encoder.NewFromString(src, factory(log), o.encOpts, log)
	if err != nil {
		return err
	}
	defer enc.Close()

	out, closeOut, err := createOutput(o.output)
	if err != nil {
		return err
	}

	pw := audpipe.NewRawWriter(out)
	if o.codec == "opus" {
		pw = audpipe.NewFramedWriter(out)
	}

	st, err := audpipe.Encode(pw, enc)
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"packets": st.Packets,
		"bytes":   st.Bytes,
		"samples": st.End,
	}).Info("encoding finished")
	return nil
}

// openInput picks a pure Go demuxer by file extension and falls back to
// FFmpeg for everything else.
func openInput(filename string, forceLavf bool, log logrus.FieldLogger) (audio.Demuxer, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	op, ok := openers().Get(ext)
	if forceLavf || !ok || filename == "-" {
		return lavf.Open(filename, log)
	}

	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	d, err := op.Open(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &fileDemuxer{Demuxer: d, file: f}, nil
}

// fileDemuxer closes the input file along with the demuxer.
type fileDemuxer struct {
	audio.Demuxer
	file *os.File
}

func (d *fileDemuxer) Close() error {
	err := d.Demuxer.Close()
	if cerr := d.file.Close(); err == nil {
		err = cerr
	}
	return err
}

func createOutput(path string) (io.Writer, func() error, error) {
	if path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output: %w", err)
	}
	return f, f.Close, nil
}

func writeWAV(path string, src audio.SampleSource, log logrus.FieldLogger) error {
	if path == "-" {
		return fmt.Errorf("%w: wav output needs a seekable file", audio.ErrInvalidOption)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}

	n, err := audpipe.DecodeToWAV(f, src, audpipe.DefaultChunk)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	log.WithField("samples", n).Info("wav written")
	return nil
}
