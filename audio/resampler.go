// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/emotalk/utils"
)

// Resampler streams from src to a target sample rate using cubic
// interpolation over a four-frame window. Works on interleaved samples
// and preserves channel count. A one-pole low-pass is applied to the input
// when downsampling. When the rates already match it reads straight through.
type Resampler struct {
	src      Source
	dstRate  int
	ratio    float64 // source frames consumed per output frame
	channels int

	// win[1] and win[2] bracket the output position; win[0] and win[3]
	// shape the curve. real[i] is false for frames held past end of stream.
	win  [4][]float32
	real [4]bool
	pos  float64

	primed bool
	done   bool

	// input cursor over a block read from src
	in     []float32
	inPos  int
	inLen  int
	srcEOF bool

	lowPass     bool
	alpha       float32
	filterState []float32
	filterReady bool
}

func NewResampler(src Source, dstRate int) *Resampler {
	channels := src.Channels()
	ratio := float64(src.SampleRate()) / float64(dstRate)

	block := 4096 - 4096%max(channels, 1)
	r := &Resampler{
		src:         src,
		dstRate:     dstRate,
		ratio:       ratio,
		channels:    channels,
		in:          make([]float32, max(block, channels)),
		lowPass:     ratio > 1,
		alpha:       0.5,
		filterState: make([]float32, channels),
	}
	for i := range r.win {
		r.win[i] = make([]float32, channels)
	}

	return r
}

func (r *Resampler) SampleRate() int { return r.dstRate }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

// nextFrame copies one source frame into dst. It returns false once the
// source is exhausted.
func (r *Resampler) nextFrame(dst []float32) (bool, error) {
	for r.inPos >= r.inLen {
		if r.srcEOF {
			return false, nil
		}

		n, err := r.src.ReadSamples(r.in)
		r.inPos, r.inLen = 0, n-n%r.channels
		if errors.Is(err, io.EOF) || (n == 0 && err == nil) {
			r.srcEOF = true
		} else if err != nil {
			return false, fmt.Errorf("%w", err)
		}
	}

	copy(dst, r.in[r.inPos:r.inPos+r.channels])
	r.inPos += r.channels

	if r.lowPass {
		if !r.filterReady {
			// start the filter from the first frame to avoid a fade-in
			copy(r.filterState, dst)
			r.filterReady = true
		}
		for c := range r.channels {
			dst[c] = r.alpha*dst[c] + (1-r.alpha)*r.filterState[c]
			r.filterState[c] = dst[c]
		}
	}

	return true, nil
}

// load fills slot i with the next frame, or holds slot i-1 past the end.
func (r *Resampler) load(i int) error {
	ok, err := r.nextFrame(r.win[i])
	if err != nil {
		return err
	}
	r.real[i] = ok
	if !ok {
		copy(r.win[i], r.win[i-1])
	}

	return nil
}

func (r *Resampler) prime() error {
	ok, err := r.nextFrame(r.win[1])
	if err != nil {
		return err
	}
	if !ok {
		r.done = true
		return nil
	}
	r.real[1] = true
	copy(r.win[0], r.win[1])

	for i := 2; i < 4; i++ {
		if err := r.load(i); err != nil {
			return err
		}
	}

	return nil
}

func (r *Resampler) advance() error {
	first := r.win[0]
	copy(r.win[:], r.win[1:])
	r.win[3] = first
	copy(r.real[:], r.real[1:])

	return r.load(3)
}

// ReadSamples produces dst samples at the target rate.
// dst length must be a multiple of Channels().
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if r.channels == 0 || len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	if r.ratio == 1 {
		return r.src.ReadSamples(dst)
	}

	if !r.primed {
		r.primed = true
		if err := r.prime(); err != nil {
			return 0, err
		}
	}

	written := 0
	frames := len(dst) / r.channels

	for written < frames && !r.done {
		for r.pos >= 1 {
			r.pos--
			if err := r.advance(); err != nil {
				return written * r.channels, err
			}
		}

		if !r.real[1] {
			r.done = true
			break
		}

		x := float32(r.pos)
		out := dst[written*r.channels : (written+1)*r.channels]
		for c := range out {
			out[c] = utils.CubicInterpolate(r.win[0][c], r.win[1][c], r.win[2][c], r.win[3][c], x)
		}

		written++
		r.pos += r.ratio
	}

	if written == 0 && r.done {
		return 0, io.EOF
	}

	return written * r.channels, nil
}
