// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/ik5/emotalk/audio"
	"github.com/ik5/emotalk/utils"
)

// go-mp3 always produces interleaved stereo 16-bit little-endian PCM.
const (
	channels    = 2
	frameBytes  = channels * 2
	defaultSize = 8192
)

// pcmStream is the part of gomp3.Decoder the source reads from.
type pcmStream interface {
	io.Reader
	SampleRate() int
}

type source struct {
	dec        pcmStream
	sampleRate int
	buf        []byte
	// bytes of a frame split across two Read calls
	carry []byte
	done  bool
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return channels }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int    { return cap(s.buf) / 2 }

func (s *source) ReadSamples(dst []float32) (int, error) {
	if s.done {
		return 0, io.EOF
	}

	frames := len(dst) / channels
	if frames == 0 {
		return 0, nil
	}

	need := frames * frameBytes
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	buf := s.buf[:need]

	have := copy(buf, s.carry)
	s.carry = s.carry[:0]

	n, err := s.dec.Read(buf[have:])
	have += n

	whole := have - have%frameBytes
	s.carry = append(s.carry, buf[whole:have]...)

	for i := 0; i < whole/2; i++ {
		dst[i] = utils.Int16ToFloat32(int16(binary.LittleEndian.Uint16(buf[2*i:])))
	}

	if err != nil {
		if !errors.Is(err, io.EOF) {
			return whole / 2, fmt.Errorf("decoding mp3: %w", err)
		}
		s.done = true
		if whole == 0 {
			return 0, io.EOF
		}
	}

	return whole / 2, nil
}

// Decoder reads MPEG-1/2 Layer III streams.
type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotMP3File, err)
	}

	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		buf:        make([]byte, defaultSize),
	}, nil
}
