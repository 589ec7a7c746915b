// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"
	"time"
)

// Buffer is a fully decoded clip held channel by channel.
// Channels[c][f] is the sample of channel c at frame f, nominally in [-1, 1].
type Buffer struct {
	SampleRate int
	Channels   [][]float32
}

// NewBuffer allocates a zeroed buffer of the given shape.
func NewBuffer(sampleRate, channels, frames int) *Buffer {
	b := &Buffer{
		SampleRate: sampleRate,
		Channels:   make([][]float32, channels),
	}
	for c := range b.Channels {
		b.Channels[c] = make([]float32, frames)
	}

	return b
}

func (b *Buffer) NumChannels() int { return len(b.Channels) }

// Frames is the number of samples per channel.
func (b *Buffer) Frames() int {
	if len(b.Channels) == 0 {
		return 0
	}

	return len(b.Channels[0])
}

func (b *Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}

	return time.Duration(b.Frames()) * time.Second / time.Duration(b.SampleRate)
}

// Validate reports whether the buffer has a usable shape.
func (b *Buffer) Validate() error {
	if b == nil {
		return ErrNoChannels
	}
	if b.SampleRate < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidSampleRate, b.SampleRate)
	}
	if len(b.Channels) == 0 {
		return ErrNoChannels
	}

	frames := len(b.Channels[0])
	for c, ch := range b.Channels[1:] {
		if len(ch) != frames {
			return fmt.Errorf("%w: channel %d has %d frames, channel 0 has %d",
				ErrRaggedChannels, c+1, len(ch), frames)
		}
	}

	return nil
}

// Source returns an interleaving reader over the buffer. The buffer is
// only read, never modified.
func (b *Buffer) Source() Source {
	return &bufferSource{buf: b}
}

type bufferSource struct {
	buf   *Buffer
	frame int
}

func (s *bufferSource) SampleRate() int { return s.buf.SampleRate }
func (s *bufferSource) Channels() int   { return s.buf.NumChannels() }
func (s *bufferSource) BufSize() int    { return 4096 }
func (s *bufferSource) Close() error    { return nil }

func (s *bufferSource) ReadSamples(dst []float32) (int, error) {
	channels := s.buf.NumChannels()
	if channels == 0 {
		return 0, io.EOF
	}
	if len(dst)%channels != 0 {
		return 0, ErrInvalidDstSize
	}

	remaining := s.buf.Frames() - s.frame
	if remaining <= 0 {
		return 0, io.EOF
	}

	frames := min(len(dst)/channels, remaining)
	for f := range frames {
		for c := range channels {
			dst[f*channels+c] = s.buf.Channels[c][s.frame+f]
		}
	}
	s.frame += frames

	return frames * channels, nil
}

// ReadAll drains src and de-interleaves it into a Buffer. src is not closed.
func ReadAll(src Source) (*Buffer, error) {
	channels := src.Channels()
	if channels < 1 {
		return nil, ErrNoChannels
	}

	out := &Buffer{
		SampleRate: src.SampleRate(),
		Channels:   make([][]float32, channels),
	}

	size := src.BufSize()
	if size < channels {
		size = 4096
	}
	size -= size % channels
	if size == 0 {
		size = channels
	}
	buf := make([]float32, size)

	for {
		n, err := src.ReadSamples(buf)
		frames := n / channels
		for f := range frames {
			for c := range channels {
				out.Channels[c] = append(out.Channels[c], buf[f*channels+c])
			}
		}

		if errors.Is(err, io.EOF) || (n == 0 && err == nil) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading samples: %w", err)
		}
	}

	return out, nil
}
