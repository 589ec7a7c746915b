// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/emotalk/audio"
	"github.com/jfreymuth/oggvorbis"
)

// oggReader is the subset of oggvorbis.Reader the source reads from.
type oggReader interface {
	SampleRate() int
	Channels() int
	Read([]float32) (int, error)
}

type source struct {
	dec        oggReader
	sampleRate int
	channels   int
	done       bool
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int    { return 4096 }

// ReadSamples decodes straight into dst. oggvorbis already produces
// interleaved float32 in [-1, 1] and counts its result in samples.
func (s *source) ReadSamples(dst []float32) (int, error) {
	if s.done {
		return 0, io.EOF
	}

	want := len(dst) - len(dst)%s.channels
	if want == 0 {
		return 0, nil
	}

	n, err := s.dec.Read(dst[:want])
	n -= n % s.channels

	if err != nil {
		if !errors.Is(err, io.EOF) {
			return n, fmt.Errorf("decoding vorbis: %w", err)
		}
		s.done = true
		if n == 0 {
			return 0, io.EOF
		}
	}

	return n, nil
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotVorbisFile, err)
	}
	if dec.Channels() < 1 {
		return nil, fmt.Errorf("%w: no channels", ErrNotVorbisFile)
	}

	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		channels:   dec.Channels(),
	}, nil
}
