// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	"github.com/ik5/emotalk/audio"
	"github.com/ik5/emotalk/utils"
)

type aiffReader interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

type source struct {
	dec        aiffReader
	sampleRate int
	channels   int
	bitDepth   int
	intBuf     *goaudio.IntBuffer
	done       bool
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }

func (s *source) BufSize() int {
	if s.intBuf != nil {
		return cap(s.intBuf.Data)
	}

	return 4096
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	if s.done {
		return 0, io.EOF
	}

	want := len(dst) - len(dst)%s.channels
	if want == 0 {
		return 0, nil
	}

	if s.intBuf == nil || cap(s.intBuf.Data) < want {
		s.intBuf = &goaudio.IntBuffer{
			Data:           make([]int, want),
			Format:         s.dec.Format(),
			SourceBitDepth: s.bitDepth,
		}
	}
	s.intBuf.Data = s.intBuf.Data[:want]

	n, err := s.dec.PCMBuffer(s.intBuf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, fmt.Errorf("decoding aiff: %w", err)
	}

	n -= n % s.channels
	for i := range n {
		dst[i] = utils.IntToFloat32(s.intBuf.Data[i], s.bitDepth)
	}

	if n < want || err != nil {
		s.done = true
		if n == 0 {
			return 0, io.EOF
		}
	}

	return n, nil
}

// Decoder reads uncompressed big-endian AIFF files.
type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading aiff data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec := aiff.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotAiffFile
	}
	dec.ReadInfo()

	switch dec.BitDepth {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, dec.BitDepth)
	}

	format := dec.Format()
	if format == nil || format.NumChannels < 1 {
		return nil, ErrNotAiffFile
	}

	return &source{
		dec:        dec,
		sampleRate: format.SampleRate,
		channels:   format.NumChannels,
		bitDepth:   int(dec.BitDepth),
	}, nil
}
