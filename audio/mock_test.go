// SPDX-License-Identifier: EPL-2.0

package audio

import "io"

// rampSource yields frame index f on channel c as (f+1)*0.001*(c+1),
// delivered at most chunk samples per read.
type rampSource struct {
	rate     int
	channels int
	frames   int
	chunk    int
	pos      int
	closed   bool
}

func newRampSource(rate, channels, frames int) *rampSource {
	return &rampSource{rate: rate, channels: channels, frames: frames}
}

func rampValue(frame, ch int) float32 {
	return float32(frame+1) * 0.001 * float32(ch+1)
}

func (s *rampSource) SampleRate() int { return s.rate }
func (s *rampSource) Channels() int   { return s.channels }
func (s *rampSource) BufSize() int    { return 64 }

func (s *rampSource) Close() error {
	s.closed = true
	return nil
}

func (s *rampSource) ReadSamples(dst []float32) (int, error) {
	if s.pos >= s.frames {
		return 0, io.EOF
	}

	limit := len(dst)
	if s.chunk > 0 {
		limit = min(limit, s.chunk)
	}

	frames := min(limit/s.channels, s.frames-s.pos)
	for f := range frames {
		for c := range s.channels {
			dst[f*s.channels+c] = rampValue(s.pos+f, c)
		}
	}
	s.pos += frames

	return frames * s.channels, nil
}

type constSource struct {
	rampSource
	value float32
}

func newConstSource(rate, channels, frames int, value float32) *constSource {
	return &constSource{rampSource: rampSource{rate: rate, channels: channels, frames: frames}, value: value}
}

func (s *constSource) ReadSamples(dst []float32) (int, error) {
	n, err := s.rampSource.ReadSamples(dst)
	for i := range n {
		dst[i] = s.value
	}

	return n, err
}
