// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
	"github.com/ik5/emotalk/audio"
	"github.com/ik5/emotalk/utils"
)

// pcmReader is the part of gowav.Decoder the source needs; tests swap it.
type pcmReader interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

type wavSource struct {
	dec        pcmReader
	format     *goaudio.Format
	sampleRate int
	channels   int
	bitDepth   int
	intBuf     *goaudio.IntBuffer
	eof        bool
}

func (s *wavSource) SampleRate() int { return s.sampleRate }
func (s *wavSource) Channels() int   { return s.channels }
func (s *wavSource) Close() error    { return nil }

func (s *wavSource) BufSize() int {
	if s.intBuf != nil {
		return cap(s.intBuf.Data)
	}

	return 4096
}

func (s *wavSource) ReadSamples(dst []float32) (int, error) {
	if s.eof {
		return 0, io.EOF
	}

	want := len(dst) - len(dst)%s.channels
	if want == 0 {
		return 0, nil
	}

	if s.intBuf == nil || cap(s.intBuf.Data) < want {
		s.intBuf = &goaudio.IntBuffer{
			Data:           make([]int, want),
			Format:         s.format,
			SourceBitDepth: s.bitDepth,
		}
	}
	s.intBuf.Data = s.intBuf.Data[:want]

	n, err := s.dec.PCMBuffer(s.intBuf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, fmt.Errorf("%w", err)
	}

	// drop a trailing partial frame from a truncated file
	n -= n % s.channels
	for i := range n {
		dst[i] = utils.IntToFloat32(s.intBuf.Data[i], s.bitDepth)
	}

	if n < want || err != nil {
		s.eof = true
		if n == 0 {
			return 0, io.EOF
		}
	}

	return n, nil
}

// Decoder reads signed integer PCM WAV files (16, 24 or 32 bit, any channel
// count). Chunks other than fmt and data, such as LIST, are skipped.
type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	// go-audio needs to seek over chunks
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading wav data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec := gowav.NewDecoder(rs)
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotWavFile, err)
	}

	if dec.WavAudioFormat != formatPCM {
		return nil, fmt.Errorf("%w: format tag %d", ErrUnsupportedEncoding, dec.WavAudioFormat)
	}

	switch dec.BitDepth {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d-bit samples", ErrUnsupportedEncoding, dec.BitDepth)
	}

	if dec.NumChans == 0 || dec.SampleRate == 0 {
		return nil, ErrNotWavFile
	}

	return &wavSource{
		dec:        dec,
		format:     dec.Format(),
		sampleRate: int(dec.SampleRate),
		channels:   int(dec.NumChans),
		bitDepth:   int(dec.BitDepth),
	}, nil
}
