// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// MonoMixer folds a multi-channel source into one channel by averaging
// each frame. Mono sources pass through untouched.
type MonoMixer struct {
	src Source
	tmp []float32
}

func NewMonoMixer(src Source) *MonoMixer {
	return &MonoMixer{
		src: src,
		tmp: make([]float32, 8192),
	}
}

func (m *MonoMixer) SampleRate() int { return m.src.SampleRate() }
func (m *MonoMixer) Channels() int   { return 1 }
func (m *MonoMixer) BufSize() int    { return m.src.BufSize() }

func (m *MonoMixer) Close() error {
	if err := m.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

func (m *MonoMixer) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	channels := m.src.Channels()
	if channels == 1 {
		return m.src.ReadSamples(dst)
	}

	need := len(dst) * channels
	if cap(m.tmp) < need {
		m.tmp = make([]float32, need)
	}
	in := m.tmp[:need]

	n, err := m.src.ReadSamples(in)
	frames := n / channels
	if frames == 0 {
		return 0, err
	}

	if channels == 2 {
		for f := range frames {
			dst[f] = (in[2*f] + in[2*f+1]) * 0.5
		}

		return frames, err
	}

	scale := 1 / float32(channels)
	for f := range frames {
		var sum float32
		for _, s := range in[f*channels : (f+1)*channels] {
			sum += s
		}
		dst[f] = sum * scale
	}

	return frames, err
}
